package store

import genpkg "coastercraft.ai/internal/sim/world/terrain/gen"

const dirtDepth = 3

// GenerateChunk fills a fresh chunk with layered ground: grass at GroundY,
// dirt below, stone under that. Water pockets are open ponds cut into the
// surface; lava pockets sit one block under the dirt cap.
func (s *ChunkStore) GenerateChunk(ch *Chunk) {
	g := s.Gen
	ids := s.ids
	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			wx := ch.CX*ChunkSize + x
			wz := ch.CZ*ChunkSize + z

			pocket := genpkg.PocketNone
			if g.PocketDepth > 0 {
				pocket = genpkg.PocketAt(g.Seed, wx, wz, g.LavaPermille, g.WaterPermille)
			}
			for y := 0; y < ChunkSize; y++ {
				wy := ch.CY*ChunkSize + y
				b := ids.air
				switch {
				case wy < g.MinY || wy > g.MaxY || wy > g.GroundY:
				case pocket == genpkg.PocketWater && wy > g.GroundY-g.PocketDepth:
					b = ids.water
				case pocket == genpkg.PocketLava && wy < g.GroundY-1 && wy >= g.GroundY-1-g.PocketDepth:
					b = ids.lava
				case wy == g.GroundY:
					b = ids.grass
				case wy >= g.GroundY-dirtDepth:
					b = ids.dirt
				default:
					b = ids.stone
				}
				ch.Blocks[ch.index(x, y, z)] = b
			}
		}
	}
}
