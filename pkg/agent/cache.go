package agent

import (
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
)

// DefaultTermTTL is how long a term explanation is reused
const DefaultTermTTL = time.Hour

// TermCache keeps recent term explanations so repeated questions about the
// same term skip the model call.
type TermCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewTermCache creates a cache holding roughly maxBytes of explanations.
func NewTermCache(maxBytes int64, ttl time.Duration) (*TermCache, error) {
	if maxBytes <= 0 {
		maxBytes = 4 << 20
	}
	if ttl <= 0 {
		ttl = DefaultTermTTL
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &TermCache{cache: cache, ttl: ttl}, nil
}

func termKey(term string) string {
	return "term:" + strings.ToLower(strings.TrimSpace(term))
}

// Get returns a cached explanation. A nil cache never hits.
func (c *TermCache) Get(term string) (string, bool) {
	if c == nil || strings.TrimSpace(term) == "" {
		return "", false
	}
	v, ok := c.cache.Get(termKey(term))
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Set stores an explanation; the cost is its size in bytes.
func (c *TermCache) Set(term, explanation string) {
	if c == nil || strings.TrimSpace(term) == "" || explanation == "" {
		return
	}
	c.cache.SetWithTTL(termKey(term), explanation, int64(len(explanation)), c.ttl)
}

// Wait blocks until pending writes are visible
func (c *TermCache) Wait() {
	if c != nil {
		c.cache.Wait()
	}
}

// Close stops the cache's background goroutines
func (c *TermCache) Close() {
	if c != nil {
		c.cache.Close()
	}
}
