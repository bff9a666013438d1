package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"coastercraft.ai/internal/sim/blocks"
)

type Catalogs struct {
	Blocks BlockCatalog
	Items  ItemCatalog
}

type BlockCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Defs          map[string]BlockDef
	PaletteDigest string
	DefsDigest    string
}

type BlockDef struct {
	ID     string `json:"id"`
	Family string `json:"family,omitempty"`
	Solid  bool   `json:"solid"`
	// Data is the number of aux values the block accepts (button facing, rail shape).
	Data int `json:"data,omitempty"`
}

type ItemCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Defs          map[string]ItemDef
	PaletteDigest string
	DefsDigest    string
}

type ItemDef struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"` // "BLOCK","VEHICLE"
	PlaceAs  string `json:"place_as,omitempty"`
	MaxStack int    `json:"max_stack,omitempty"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadBlocks(filepath.Join(configDir, "blocks.json"), &c.Blocks); err != nil {
		return nil, err
	}
	if err := loadItems(filepath.Join(configDir, "items.json"), &c.Items); err != nil {
		return nil, err
	}
	if err := c.Require(blocks.All()...); err != nil {
		return nil, err
	}
	return &c, nil
}

// Builtin returns catalogs holding exactly the materials the builder knows
// about, plus the minecart item.
func Builtin() *Catalogs {
	var c Catalogs
	defs := make([]BlockDef, 0, len(blocks.All()))
	for _, m := range blocks.All() {
		f := m.Family()
		defs = append(defs, BlockDef{
			ID:     string(m),
			Family: f.String(),
			Solid:  f == blocks.FamilyStructure || f == blocks.FamilyTerrain || m == blocks.RedstoneBlock || m == blocks.Glowstone,
		})
	}
	raw, _ := json.Marshal(defs)
	if err := indexBlocks(raw, defs, &c.Blocks); err != nil {
		panic(err)
	}
	items := []ItemDef{{ID: string(blocks.Minecart), Kind: "VEHICLE", MaxStack: 1}}
	raw, _ = json.Marshal(items)
	indexItems(raw, items, &c.Items)
	return &c
}

// Require reports the first material missing from the block catalog.
func (c *Catalogs) Require(ms ...blocks.Material) error {
	for _, m := range ms {
		if _, ok := c.Blocks.Index[string(m)]; !ok {
			return fmt.Errorf("blocks.json: missing %s", m)
		}
	}
	return nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadBlocks(path string, out *BlockCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var defs []BlockDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("blocks.json: %w", err)
	}
	return indexBlocks(raw, defs, out)
}

func indexBlocks(raw []byte, defs []BlockDef, out *BlockCatalog) error {
	out.DefsDigest = sha256Hex(raw)
	out.Defs = map[string]BlockDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("blocks.json: empty id")
		}
		out.Defs[d.ID] = d
	}

	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Ensure AIR exists and is palette id 0.
	if _, ok := out.Defs[string(blocks.Air)]; !ok {
		return fmt.Errorf("blocks.json: missing AIR")
	}
	ids = append([]string{string(blocks.Air)}, filterOut(ids, string(blocks.Air))...)

	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

func loadItems(path string, out *ItemCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var defs []ItemDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("items.json: empty id")
		}
	}
	indexItems(raw, defs, out)
	return nil
}

func indexItems(raw []byte, defs []ItemDef, out *ItemCatalog) {
	out.DefsDigest = sha256Hex(raw)
	out.Defs = map[string]ItemDef{}
	for _, d := range defs {
		out.Defs[d.ID] = d
	}
	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
}

func filterOut(in []string, remove string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == remove {
			continue
		}
		out = append(out, s)
	}
	return out
}
