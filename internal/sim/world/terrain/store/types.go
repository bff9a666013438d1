package store

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"sync"

	"coastercraft.ai/internal/sim/blocks"
	"coastercraft.ai/internal/voxel"
)

const (
	ChunkSize   = 16
	chunkVolume = ChunkSize * ChunkSize * ChunkSize
)

var (
	ErrOutOfBounds     = errors.New("out of bounds")
	ErrUnknownMaterial = errors.New("unknown material")
)

type ChunkKey struct {
	CX int
	CY int
	CZ int
}

type Chunk struct {
	CX, CY, CZ int
	Blocks     []uint16 // len = 16*16*16, x fastest then z then y
	Data       map[int]uint8

	dirty bool
	hash  [32]byte
}

func newChunk(k ChunkKey) *Chunk {
	return &Chunk{CX: k.CX, CY: k.CY, CZ: k.CZ, Blocks: make([]uint16, chunkVolume)}
}

func (c *Chunk) index(x, y, z int) int {
	return x + z*ChunkSize + y*ChunkSize*ChunkSize
}

func (c *Chunk) Get(x, y, z int) uint16 {
	return c.Blocks[c.index(x, y, z)]
}

// Set writes b and clears any aux data. It reports whether the block changed.
func (c *Chunk) Set(x, y, z int, b uint16) bool {
	i := c.index(x, y, z)
	delete(c.Data, i)
	if c.Blocks[i] == b {
		return false
	}
	c.Blocks[i] = b
	c.dirty = true
	return true
}

func (c *Chunk) setData(x, y, z int, v uint8) {
	if c.Data == nil {
		c.Data = map[int]uint8{}
	}
	c.Data[c.index(x, y, z)] = v
	c.dirty = true
}

func (c *Chunk) Digest() [32]byte {
	if c.dirty || c.hash == ([32]byte{}) {
		h := sha256.New()
		var tmp [2]byte
		for _, v := range c.Blocks {
			binary.LittleEndian.PutUint16(tmp[:], v)
			h.Write(tmp[:])
		}
		copy(c.hash[:], h.Sum(nil))
		c.dirty = false
	}
	return c.hash
}

// WorldGen describes the procedurally generated terrain under the track.
type WorldGen struct {
	Seed      int64
	BoundaryR int // blocks, 0 = unbounded
	MinY      int
	MaxY      int

	// GroundY is the grass layer. A value below MinY yields an empty world.
	GroundY     int
	PocketDepth int

	WaterPermille int
	LavaPermille  int
}

// Change is emitted for every cell whose block changed.
type Change struct {
	Pos  voxel.Pos       `json:"pos"`
	From blocks.Material `json:"from"`
	To   blocks.Material `json:"to"`
}

type ChunkStore struct {
	Gen    WorldGen
	Chunks map[ChunkKey]*Chunk

	mu        sync.RWMutex
	palette   []string
	index     map[string]uint16
	ids       terrainIDs
	listeners []func(Change)

	touched bool
	lo, hi  voxel.Pos
}

type terrainIDs struct {
	air, grass, dirt, stone, water, lava uint16
}
