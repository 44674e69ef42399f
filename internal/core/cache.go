package core

import (
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/JonMunkholm/sheetprep/internal/store"
	"github.com/JonMunkholm/sheetprep/internal/table"
)

// cachedRun keeps a finished run and its cleaned table close at hand so
// that follow-up requests (run lookups, chat) skip the store and decoding.
type cachedRun struct {
	run     store.Run
	cleaned table.Table
}

type runCache struct {
	items *ttlcache.Cache[string, cachedRun]
}

func newRunCache(ttl time.Duration) *runCache {
	c := ttlcache.New[string, cachedRun](
		ttlcache.WithTTL[string, cachedRun](ttl),
	)
	go c.Start()
	return &runCache{items: c}
}

func (c *runCache) put(entry cachedRun) {
	c.items.Set(entry.run.ID, entry, ttlcache.DefaultTTL)
}

func (c *runCache) get(id string) (cachedRun, bool) {
	item := c.items.Get(id)
	if item == nil {
		return cachedRun{}, false
	}
	return item.Value(), true
}

// byFile finds a cached run by its output file name.
func (c *runCache) byFile(name string) (cachedRun, bool) {
	for _, item := range c.items.Items() {
		if entry := item.Value(); entry.run.OutputFile == name {
			return entry, true
		}
	}
	return cachedRun{}, false
}

func (c *runCache) stop() {
	c.items.Stop()
}
