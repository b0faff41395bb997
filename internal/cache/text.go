package cache

import "time"

// DefaultTextTTL is long: normalized text is stable, small, and expensive to
// recompute relative to its size.
const DefaultTextTTL = 30 * 24 * time.Hour

// TextCache binds a Manager to the processed-text key schema: original text
// plus the normalization options that produced the processed form.
type TextCache struct {
	manager    *Manager
	defaultTTL time.Duration
}

// NewTextCache creates a text cache with its own storage root. A non-positive
// defaultTTL falls back to DefaultTextTTL.
func NewTextCache(opts Options, defaultTTL time.Duration) (*TextCache, error) {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTextTTL
	}
	m, err := New(opts)
	if err != nil {
		return nil, err
	}
	return &TextCache{manager: m, defaultTTL: defaultTTL}, nil
}

// GetProcessedText returns the cached normalized form of original, if any.
func (c *TextCache) GetProcessedText(original string, options map[string]string) (string, bool) {
	payload, ok := c.manager.Get(TextKey(original, options))
	if !ok {
		return "", false
	}
	blob, ok := payload.(Blob)
	if !ok {
		return "", false
	}
	return string(blob), true
}

// CacheProcessedText stores the normalized form of original under the key
// derived from the text and its normalization options.
func (c *TextCache) CacheProcessedText(original, processed string, options map[string]string) bool {
	return c.manager.Put(TextKey(original, options), Blob(processed), PutOptions{
		TTL:  c.defaultTTL,
		Tags: []string{"text"},
	})
}

// Clear drops entries, optionally restricted to the given tags.
func (c *TextCache) Clear(tags ...string) { c.manager.Clear(tags...) }

// CleanupExpired sweeps both tiers for expired entries.
func (c *TextCache) CleanupExpired() int { return c.manager.CleanupExpired() }

// Optimize runs the manager's self-healing pass.
func (c *TextCache) Optimize() { c.manager.Optimize() }

// Stats returns the underlying manager's snapshot.
func (c *TextCache) Stats() Stats { return c.manager.Stats() }

// Shutdown flushes the disk index.
func (c *TextCache) Shutdown() error { return c.manager.Shutdown() }
