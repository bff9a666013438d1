package catalogs

import (
	"os"
	"path/filepath"
	"testing"

	"coastercraft.ai/internal/sim/blocks"
)

func TestBuiltin_AirIsZeroAndAllKnown(t *testing.T) {
	c := Builtin()
	if c.Blocks.Palette[0] != "AIR" || c.Blocks.Index["AIR"] != 0 {
		t.Fatalf("AIR must be palette id 0, got %v", c.Blocks.Palette[:1])
	}
	if err := c.Require(blocks.All()...); err != nil {
		t.Fatalf("Require: %v", err)
	}
	if _, ok := c.Items.Index[string(blocks.Minecart)]; !ok {
		t.Fatalf("missing minecart item")
	}
}

func TestLoad_RepoConfigs(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "..", "configs"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Blocks.PaletteDigest == "" || c.Items.PaletteDigest == "" {
		t.Fatalf("expected digests")
	}
	if _, ok := c.Blocks.Defs["WARPED_BUTTON"]; !ok {
		t.Fatalf("expected WARPED_BUTTON def")
	}
}

func TestLoad_MissingAir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "blocks.json"), []byte(`[{"id":"STONE","solid":true}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "items.json"), []byte(`[]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected missing AIR error")
	}
}

func TestLoad_MissingBuilderMaterial(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "blocks.json"), []byte(`[{"id":"AIR"},{"id":"STONE","solid":true}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "items.json"), []byte(`[]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected Require to fail")
	}
}
