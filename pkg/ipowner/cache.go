package ipowner

import (
	"fmt"
	"sync"

	"github.com/cnf/structhash"
	"github.com/telekom/das-schiff-network-topology/pkg/layer3"
	"github.com/telekom/das-schiff-network-topology/pkg/model"
)

// Cache memoizes owner computations per snapshot content, wiring included, and
// inclusion policy.
// The adjacencies passed to Get must be derived from the same snapshot.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*Owners
}

func NewCache() *Cache {
	return &Cache{entries: map[string]*Owners{}}
}

func (c *Cache) Get(snapshot *model.Snapshot, adjacencies layer3.Adjacencies, opts Options) (*Owners, error) {
	fingerprint, err := structhash.Hash(snapshot, 1)
	if err != nil {
		return nil, fmt.Errorf("error fingerprinting snapshot: %w", err)
	}
	key := fmt.Sprintf("%s/%t", fingerprint, opts.IncludeInactive)

	c.mu.Lock()
	defer c.mu.Unlock()
	if owners, ok := c.entries[key]; ok {
		return owners, nil
	}
	owners := Compute(model.NewNetwork(snapshot.Devices), adjacencies, opts)
	c.entries[key] = owners
	return owners, nil
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
