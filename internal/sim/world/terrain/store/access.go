package store

import (
	"fmt"
	"sort"

	"coastercraft.ai/internal/sim/blocks"
	genpkg "coastercraft.ai/internal/sim/world/terrain/gen"
	"coastercraft.ai/internal/voxel"
)

func (s *ChunkStore) InBounds(p voxel.Pos) bool {
	if p.Y < s.Gen.MinY || p.Y > s.Gen.MaxY {
		return false
	}
	if s.Gen.BoundaryR > 0 {
		r := s.Gen.BoundaryR
		if p.X < -r || p.X > r || p.Z < -r || p.Z > r {
			return false
		}
	}
	return true
}

func (s *ChunkStore) LoadedChunkKeys() []ChunkKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]ChunkKey, 0, len(s.Chunks))
	for k := range s.Chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CY != keys[j].CY {
			return keys[i].CY < keys[j].CY
		}
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		return keys[i].CZ < keys[j].CZ
	})
	return keys
}

func split(p voxel.Pos) (ChunkKey, int, int, int) {
	k := ChunkKey{
		CX: genpkg.FloorDiv(p.X, ChunkSize),
		CY: genpkg.FloorDiv(p.Y, ChunkSize),
		CZ: genpkg.FloorDiv(p.Z, ChunkSize),
	}
	return k, genpkg.Mod(p.X, ChunkSize), genpkg.Mod(p.Y, ChunkSize), genpkg.Mod(p.Z, ChunkSize)
}

// Get returns the material at p. Cells outside the bounds read as air.
func (s *ChunkStore) Get(p voxel.Pos) blocks.Material {
	if !s.InBounds(p) {
		return blocks.Air
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return blocks.Material(s.palette[s.getLocked(p)])
}

// Data returns the aux value stored with the block at p, 0 if none.
func (s *ChunkStore) Data(p voxel.Pos) int {
	if !s.InBounds(p) {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k, x, y, z := split(p)
	ch := s.getOrGenChunkLocked(k)
	return int(ch.Data[ch.index(x, y, z)])
}

func (s *ChunkStore) Test(m blocks.Material, p voxel.Pos) bool {
	return s.Get(p) == m
}

func (s *ChunkStore) Place(m blocks.Material, p voxel.Pos) error {
	return s.PlaceWithData(m, 0, p)
}

func (s *ChunkStore) PlaceWithData(m blocks.Material, data int, p voxel.Pos) error {
	if !s.InBounds(p) {
		return fmt.Errorf("place %s at %s: %w", m, p, ErrOutOfBounds)
	}
	if data < 0 || data > 255 {
		return fmt.Errorf("place %s at %s: data %d out of range", m, p, data)
	}
	id, err := s.id(m)
	if err != nil {
		return err
	}
	s.mu.Lock()
	c, changed := s.setLocked(p, id)
	if data != 0 {
		k, x, y, z := split(p)
		s.getOrGenChunkLocked(k).setData(x, y, z, uint8(data))
	}
	s.mu.Unlock()
	if changed {
		s.notify([]Change{c})
	}
	return nil
}

// Replace swaps every `from` cell in the box for `to`. Cells outside the
// world bounds are skipped.
func (s *ChunkStore) Replace(to, from blocks.Material, c1, c2 voxel.Pos) error {
	toID, err := s.id(to)
	if err != nil {
		return err
	}
	fromID, ok := s.index[string(from)]
	if !ok {
		// Nothing in the world can be made of an uncatalogued block.
		return nil
	}
	lo, hi := s.clamp(voxel.Box(c1, c2))
	var changes []Change
	s.mu.Lock()
	for y := lo.Y; y <= hi.Y; y++ {
		for z := lo.Z; z <= hi.Z; z++ {
			for x := lo.X; x <= hi.X; x++ {
				p := voxel.P(x, y, z)
				if s.getLocked(p) != fromID {
					continue
				}
				if c, changed := s.setLocked(p, toID); changed {
					changes = append(changes, c)
				}
			}
		}
	}
	s.mu.Unlock()
	s.notify(changes)
	return nil
}

// Fill writes m across the box. Both corners must be inside the bounds.
func (s *ChunkStore) Fill(m blocks.Material, c1, c2 voxel.Pos, mode blocks.FillMode) error {
	if !s.InBounds(c1) || !s.InBounds(c2) {
		return fmt.Errorf("fill %s %s..%s: %w", m, c1, c2, ErrOutOfBounds)
	}
	id, err := s.id(m)
	if err != nil {
		return err
	}
	lo, hi := voxel.Box(c1, c2)
	var changes []Change
	s.mu.Lock()
	for y := lo.Y; y <= hi.Y; y++ {
		for z := lo.Z; z <= hi.Z; z++ {
			for x := lo.X; x <= hi.X; x++ {
				p := voxel.P(x, y, z)
				if mode == blocks.FillKeep && s.getLocked(p) != s.ids.air {
					continue
				}
				if c, changed := s.setLocked(p, id); changed {
					changes = append(changes, c)
				}
			}
		}
	}
	s.mu.Unlock()
	s.notify(changes)
	return nil
}

// Touched returns the bounding box of every changed cell.
func (s *ChunkStore) Touched() (lo, hi voxel.Pos, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lo, s.hi, s.touched
}

// TopBlock scans column (x,z) downward from fromY to toY and returns the
// first non-air block.
func (s *ChunkStore) TopBlock(x, z, fromY, toY int) (blocks.Material, int, bool) {
	for y := fromY; y >= toY; y-- {
		if m := s.Get(voxel.P(x, y, z)); m != blocks.Air {
			return m, y, true
		}
	}
	return blocks.Air, 0, false
}

// Known reports whether m is in the store's palette.
func (s *ChunkStore) Known(m blocks.Material) bool {
	_, ok := s.index[string(m)]
	return ok
}

func (s *ChunkStore) id(m blocks.Material) (uint16, error) {
	id, ok := s.index[string(m)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownMaterial, m)
	}
	return id, nil
}

func (s *ChunkStore) clamp(lo, hi voxel.Pos) (voxel.Pos, voxel.Pos) {
	lo.Y = max(lo.Y, s.Gen.MinY)
	hi.Y = min(hi.Y, s.Gen.MaxY)
	if r := s.Gen.BoundaryR; r > 0 {
		lo.X, lo.Z = max(lo.X, -r), max(lo.Z, -r)
		hi.X, hi.Z = min(hi.X, r), min(hi.Z, r)
	}
	return lo, hi
}

func (s *ChunkStore) getLocked(p voxel.Pos) uint16 {
	k, x, y, z := split(p)
	return s.getOrGenChunkLocked(k).Get(x, y, z)
}

func (s *ChunkStore) setLocked(p voxel.Pos, id uint16) (Change, bool) {
	k, x, y, z := split(p)
	ch := s.getOrGenChunkLocked(k)
	from := ch.Get(x, y, z)
	if !ch.Set(x, y, z, id) {
		return Change{}, false
	}
	if !s.touched {
		s.lo, s.hi, s.touched = p, p, true
	} else {
		s.lo = voxel.P(min(s.lo.X, p.X), min(s.lo.Y, p.Y), min(s.lo.Z, p.Z))
		s.hi = voxel.P(max(s.hi.X, p.X), max(s.hi.Y, p.Y), max(s.hi.Z, p.Z))
	}
	return Change{Pos: p, From: blocks.Material(s.palette[from]), To: blocks.Material(s.palette[id])}, true
}

func (s *ChunkStore) getOrGenChunkLocked(k ChunkKey) *Chunk {
	if ch, ok := s.Chunks[k]; ok {
		return ch
	}
	ch := newChunk(k)
	s.GenerateChunk(ch)
	ch.dirty = true
	_ = ch.Digest()
	s.Chunks[k] = ch
	return ch
}
