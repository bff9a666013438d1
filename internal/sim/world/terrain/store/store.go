package store

import (
	"fmt"

	"coastercraft.ai/internal/sim/blocks"
	"coastercraft.ai/internal/sim/catalogs"
)

// NewChunkStore builds an empty store over the block palette. Terrain
// materials must be present in the catalog.
func NewChunkStore(gen WorldGen, cat *catalogs.BlockCatalog) (*ChunkStore, error) {
	if gen.MaxY < gen.MinY {
		return nil, fmt.Errorf("world gen: max_y %d below min_y %d", gen.MaxY, gen.MinY)
	}
	s := &ChunkStore{
		Gen:     gen,
		Chunks:  map[ChunkKey]*Chunk{},
		palette: append([]string(nil), cat.Palette...),
		index:   make(map[string]uint16, len(cat.Index)),
	}
	for k, v := range cat.Index {
		s.index[k] = v
	}
	ids := []*uint16{&s.ids.air, &s.ids.grass, &s.ids.dirt, &s.ids.stone, &s.ids.water, &s.ids.lava}
	for i, m := range []blocks.Material{blocks.Air, blocks.Grass, blocks.Dirt, blocks.Stone, blocks.Water, blocks.Lava} {
		id, ok := s.index[string(m)]
		if !ok {
			return nil, fmt.Errorf("world gen: %w: %s", ErrUnknownMaterial, m)
		}
		*ids[i] = id
	}
	return s, nil
}

// OnChange registers fn to observe every block change. Listeners run on
// the mutating goroutine after the store lock is released.
func (s *ChunkStore) OnChange(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Palette returns a copy of the palette used by exported chunks.
func (s *ChunkStore) Palette() []string {
	return append([]string(nil), s.palette...)
}

func (s *ChunkStore) notify(changes []Change) {
	if len(changes) == 0 {
		return
	}
	s.mu.RLock()
	ls := append(([]func(Change))(nil), s.listeners...)
	s.mu.RUnlock()
	for _, c := range changes {
		for _, fn := range ls {
			fn(c)
		}
	}
}
