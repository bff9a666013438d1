package store

import (
	"encoding/hex"

	"coastercraft.ai/internal/sim/encoding"
)

// ChunkRLE is a chunk in wire form: palette ids run-length encoded.
type ChunkRLE struct {
	CX     int    `json:"cx"`
	CY     int    `json:"cy"`
	CZ     int    `json:"cz"`
	Digest string `json:"digest"`
	Blocks string `json:"blocks"`
}

// ExportChunks encodes the given loaded chunks. Unknown keys are skipped.
func (s *ChunkStore) ExportChunks(keys []ChunkKey) []ChunkRLE {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ChunkRLE, 0, len(keys))
	for _, k := range keys {
		ch := s.Chunks[k]
		if ch == nil {
			continue
		}
		d := ch.Digest()
		out = append(out, ChunkRLE{
			CX:     k.CX,
			CY:     k.CY,
			CZ:     k.CZ,
			Digest: hex.EncodeToString(d[:]),
			Blocks: encoding.EncodeRLE(ch.Blocks),
		})
	}
	return out
}

// DecodeChunk expands an exported chunk back into palette ids.
func DecodeChunk(c ChunkRLE) ([]uint16, error) {
	return encoding.DecodeRLE(c.Blocks, chunkVolume)
}
