// Package script runs YAML track scripts against a track.Builder.
package script

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const schemaURL = "https://coastercraft.ai/schemas/track_script.schema.json"

//go:embed track_script.schema.json
var schemaJSON string

var ErrInvalidScript = errors.New("invalid track script")

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft7
		if err := c.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

type Script struct {
	Name   string       `yaml:"name"`
	Config *ConfigPatch `yaml:"config,omitempty"`
	Steps  []Step       `yaml:"steps"`
}

// ConfigPatch overrides builder settings before the first step.
type ConfigPatch struct {
	RailBase        *string `yaml:"rail_base,omitempty"`
	PowerInterval   *int    `yaml:"power_interval,omitempty"`
	Decoration      *string `yaml:"decoration,omitempty"`
	WaterProtection *bool   `yaml:"water_protection,omitempty"`
	LavaProtection  *bool   `yaml:"lava_protection,omitempty"`
	Debug           *bool   `yaml:"debug,omitempty"`
}

// Step is one builder call. Which fields apply depends on Op; unset
// numeric fields take the builder defaults.
type Step struct {
	Op string `yaml:"op"`

	At     []int  `yaml:"at,omitempty"`
	Facing string `yaml:"facing,omitempty"`

	Length     *int   `yaml:"length,omitempty"`
	Power      string `yaml:"power,omitempty"`
	Direction  string `yaml:"direction,omitempty"`
	Distance   *int   `yaml:"distance,omitempty"`
	HorizSpace *int   `yaml:"horiz_space,omitempty"`
	Turn       string `yaml:"turn,omitempty"`
	Width      *int   `yaml:"width,omitempty"`
	Height     *int   `yaml:"height,omitempty"`
	Count      *int   `yaml:"count,omitempty"`

	Block    string `yaml:"block,omitempty"`
	Interval *int   `yaml:"interval,omitempty"`
	Enabled  *bool  `yaml:"enabled,omitempty"`
	Style    string `yaml:"style,omitempty"`
}

// Parse validates raw YAML against the track script schema and decodes it.
func Parse(raw []byte) (*Script, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	// The validator wants JSON types.
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	sch, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("track script schema: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}

	var s Script
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	return &s, nil
}
