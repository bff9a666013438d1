// Package gen holds the deterministic hashing used to lay out terrain.
package gen

func FloorDiv(a, b int) int {
	// b > 0
	q := a / b
	if a%b < 0 {
		q--
	}
	return q
}

func Mod(a, b int) int {
	// b > 0
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func Hash2(seed int64, x, z int) uint64 {
	ux := uint64(uint32(int32(x)))
	uz := uint64(uint32(int32(z)))
	return mix64(uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uz * 0xbf58476d1ce4e5b9))
}

// InCluster reports whether (x,z) lies inside one of the round clusters
// scattered on a grid-sized lattice. probPermille is the chance that a
// lattice cell has a cluster; the cluster centre is jittered within the cell.
func InCluster(seed int64, x, z, grid, radius int, probPermille uint64) bool {
	if grid <= 0 || radius <= 0 || probPermille == 0 {
		return false
	}
	gx := FloorDiv(x, grid)
	gz := FloorDiv(z, grid)
	r2 := radius * radius

	for dz := -1; dz <= 1; dz++ {
		for dx := -1; dx <= 1; dx++ {
			cgx := gx + dx
			cgz := gz + dz
			h := Hash2(seed, cgx, cgz)
			if h%1000 >= probPermille {
				continue
			}
			cx := cgx*grid + int((h>>10)%uint64(grid))
			cz := cgz*grid + int((h>>20)%uint64(grid))
			ddx := x - cx
			ddz := z - cz
			if ddx*ddx+ddz*ddz <= r2 {
				return true
			}
		}
	}
	return false
}

// Pocket is the fluid found in a column, if any.
type Pocket int

const (
	PocketNone Pocket = iota
	PocketWater
	PocketLava
)

// PocketAt picks the fluid pocket for column (x,z). Lava wins over water
// where both lattices hit.
func PocketAt(seed int64, x, z, lavaPermille, waterPermille int) Pocket {
	switch {
	case InCluster(seed+11, x, z, 48, 3, clampPermille(lavaPermille)):
		return PocketLava
	case InCluster(seed+7, x, z, 32, 4, clampPermille(waterPermille)):
		return PocketWater
	}
	return PocketNone
}

func clampPermille(v int) uint64 {
	if v < 0 {
		return 0
	}
	if v > 1000 {
		return 1000
	}
	return uint64(v)
}
