// Package blockcache provides a set-associative cache of pre-decoded code
// blocks keyed by physical page, using Akita cache components for tag and
// LRU management.
package blockcache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// PageSize is the amount of physical memory covered by one cached block.
const PageSize = 4096

// Config holds block cache configuration parameters.
type Config struct {
	// Blocks is the total number of pages the cache can hold.
	Blocks int
	// Associativity is the number of ways per set.
	Associativity int
}

// DefaultConfig returns a configuration that holds the whole 8 MiB RDRAM
// address range.
func DefaultConfig() Config {
	return Config{
		Blocks:        2048,
		Associativity: 8,
	}
}

// Statistics holds block cache statistics.
type Statistics struct {
	Lookups       uint64
	Hits          uint64
	Misses        uint64
	Evictions     uint64
	Invalidations uint64
}

// Cache maps physical pages to pre-decoded blocks of type T.
type Cache[T any] struct {
	config Config

	directory *akitacache.DirectoryImpl

	// Indexed by (setID * associativity + wayID).
	dataStore []T

	stats Statistics
}

// New creates an empty cache. A non-positive size or associativity falls
// back to the default configuration.
func New[T any](config Config) *Cache[T] {
	if config.Blocks <= 0 || config.Associativity <= 0 {
		config = DefaultConfig()
	}
	if config.Associativity > config.Blocks {
		config.Associativity = config.Blocks
	}

	numSets := config.Blocks / config.Associativity
	config.Blocks = numSets * config.Associativity

	return &Cache[T]{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			PageSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: make([]T, config.Blocks),
	}
}

// Config returns the cache configuration.
func (c *Cache[T]) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache[T]) Stats() Statistics {
	return c.stats
}

func (c *Cache[T]) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

func pageAddr(paddr uint32) uint64 {
	return uint64(paddr &^ (PageSize - 1))
}

// Lookup returns the block covering paddr.
func (c *Cache[T]) Lookup(paddr uint32) (T, bool) {
	c.stats.Lookups++

	block := c.directory.Lookup(0, pageAddr(paddr))
	if block == nil || !block.IsValid {
		c.stats.Misses++
		var zero T
		return zero, false
	}

	c.stats.Hits++
	c.directory.Visit(block)
	return c.dataStore[c.blockIndex(block)], true
}

// Contains reports whether a block covers paddr without counting a lookup
// or touching the replacement order.
func (c *Cache[T]) Contains(paddr uint32) bool {
	block := c.directory.Lookup(0, pageAddr(paddr))
	return block != nil && block.IsValid
}

// Insert stores value as the block covering paddr. If a valid block had to
// be evicted, its page address is returned with evicted set.
func (c *Cache[T]) Insert(paddr uint32, value T) (evictedPage uint32, evicted bool) {
	addr := pageAddr(paddr)

	block := c.directory.Lookup(0, addr)
	if block == nil || !block.IsValid {
		block = c.directory.FindVictim(addr)
		if block.IsValid {
			c.stats.Evictions++
			evictedPage, evicted = uint32(block.Tag), true
		}
	}

	block.Tag = addr
	block.IsValid = true
	block.IsDirty = false
	c.dataStore[c.blockIndex(block)] = value
	c.directory.Visit(block)

	return evictedPage, evicted
}

// Invalidate drops the block covering paddr.
func (c *Cache[T]) Invalidate(paddr uint32) {
	block := c.directory.Lookup(0, pageAddr(paddr))
	if block == nil || !block.IsValid {
		return
	}

	c.stats.Invalidations++
	block.IsValid = false
	var zero T
	c.dataStore[c.blockIndex(block)] = zero
}

// InvalidateRange drops every block overlapping [paddr, paddr+size).
func (c *Cache[T]) InvalidateRange(paddr, size uint32) {
	if size == 0 {
		return
	}
	first := uint64(paddr) / PageSize
	last := (uint64(paddr) + uint64(size) - 1) / PageSize
	for page := first; page <= last; page++ {
		c.Invalidate(uint32(page * PageSize))
	}
}

// Reset drops every block.
func (c *Cache[T]) Reset() {
	c.directory.Reset()
	var zero T
	for i := range c.dataStore {
		c.dataStore[i] = zero
	}
}

// Len returns the number of valid blocks.
func (c *Cache[T]) Len() int {
	n := 0
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid {
				n++
			}
		}
	}
	return n
}
