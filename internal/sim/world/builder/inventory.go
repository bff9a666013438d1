package builder

import (
	"fmt"
	"sort"
	"sync"

	"coastercraft.ai/internal/sim/blocks"
)

// Inventory records items handed to players.
type Inventory struct {
	mu    sync.Mutex
	items map[string]map[blocks.Item]int
	known map[string]bool
}

// NewInventory accepts only the listed item ids; with none, any item is accepted.
func NewInventory(known ...string) *Inventory {
	inv := &Inventory{items: map[string]map[blocks.Item]int{}}
	if len(known) > 0 {
		inv.known = map[string]bool{}
		for _, id := range known {
			inv.known[id] = true
		}
	}
	return inv
}

func (inv *Inventory) Give(target string, item blocks.Item, count int) error {
	if count <= 0 {
		return fmt.Errorf("give %s: count %d", item, count)
	}
	if inv.known != nil && !inv.known[string(item)] {
		return fmt.Errorf("give %s: unknown item", item)
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	m := inv.items[target]
	if m == nil {
		m = map[blocks.Item]int{}
		inv.items[target] = m
	}
	m[item] += count
	return nil
}

func (inv *Inventory) Count(target string, item blocks.Item) int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.items[target][item]
}

// Targets lists everyone who has received something, sorted.
func (inv *Inventory) Targets() []string {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	out := make([]string, 0, len(inv.items))
	for t := range inv.items {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
