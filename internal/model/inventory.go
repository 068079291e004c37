package model

import (
	"fmt"
	"maps"
	"sync"
)

// Inventory — счётчики предметов по ключу типа (ammo, medical).
// Инвариант: count >= 0 для любого ключа.
type Inventory struct {
	mu    sync.RWMutex
	items map[string]int
}

// NewInventory создаёт пустой инвентарь.
func NewInventory() *Inventory {
	return &Inventory{items: make(map[string]int)}
}

// Count returns the count for key (0 if absent).
func (inv *Inventory) Count(key string) int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.items[key]
}

// Add increases the count for key. n must be >= 0.
func (inv *Inventory) Add(key string, n int) error {
	if n < 0 {
		return fmt.Errorf("adding %d %s: %w", n, key, ErrNegativeAmount)
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.items[key] += n
	return nil
}

// Set overwrites the count for key (negative values stored as 0).
func (inv *Inventory) Set(key string, n int) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.items[key] = max(0, n)
}

// Take removes n of key. Returns false without mutation if there are fewer than n.
func (inv *Inventory) Take(key string, n int) bool {
	if n < 0 {
		return false
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.items[key] < n {
		return false
	}
	inv.items[key] -= n
	return true
}

// Snapshot returns a copy of all counts.
func (inv *Inventory) Snapshot() map[string]int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return maps.Clone(inv.items)
}
