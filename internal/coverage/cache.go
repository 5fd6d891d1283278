// File path: internal/coverage/cache.go
package coverage

import (
	"container/list"
	"strings"
	"sync"

	"github.com/nicodishanthj/pathlight/internal/learn"
)

type retainedEntry struct {
	key    string
	chunks []learn.Chunk
}

// retainedCache keeps the scored chunks behind recent coverage resolutions so
// that structure generation can ground on them without a second retrieval
// round-trip.
type retainedCache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	ll       *list.List
}

func newRetainedCache(size int) *retainedCache {
	if size <= 0 {
		size = 128
	}
	return &retainedCache{
		capacity: size,
		items:    make(map[string]*list.Element, size),
		ll:       list.New(),
	}
}

func normalizeTopicKey(topic string) string {
	return strings.ToLower(strings.Join(strings.Fields(topic), " "))
}

func (c *retainedCache) Get(topic string) ([]learn.Chunk, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[normalizeTopicKey(topic)]; ok {
		c.ll.MoveToFront(elem)
		if entry, ok := elem.Value.(retainedEntry); ok {
			return entry.chunks, true
		}
	}
	return nil, false
}

func (c *retainedCache) Set(topic string, chunks []learn.Chunk) {
	if c == nil {
		return
	}
	key := normalizeTopicKey(topic)
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		elem.Value = retainedEntry{key: key, chunks: chunks}
		c.ll.MoveToFront(elem)
		return
	}
	elem := c.ll.PushFront(retainedEntry{key: key, chunks: chunks})
	c.items[key] = elem
	if c.ll.Len() > c.capacity {
		tail := c.ll.Back()
		if tail != nil {
			c.ll.Remove(tail)
			if entry, ok := tail.Value.(retainedEntry); ok {
				delete(c.items, entry.key)
			}
		}
	}
}

func (c *retainedCache) Purge() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.ll = list.New()
}
