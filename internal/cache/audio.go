package cache

import (
	"strings"
	"time"
)

// DefaultAudioTTL bounds how long synthesized audio stays cached. Audio
// artifacts are large and cheap to regenerate, so the default is short.
const DefaultAudioTTL = 24 * time.Hour

// AudioCache binds a Manager to the synthesis-request key schema and the
// audio tagging convention. It fixes defaults only; every invariant is the
// Manager's.
type AudioCache struct {
	manager    *Manager
	defaultTTL time.Duration
}

// NewAudioCache creates an audio cache with its own storage root. A
// non-positive defaultTTL falls back to DefaultAudioTTL.
func NewAudioCache(opts Options, defaultTTL time.Duration) (*AudioCache, error) {
	if defaultTTL <= 0 {
		defaultTTL = DefaultAudioTTL
	}
	m, err := New(opts)
	if err != nil {
		return nil, err
	}
	return &AudioCache{manager: m, defaultTTL: defaultTTL}, nil
}

// GetAudio returns the cached audio for a synthesis request, if present.
func (c *AudioCache) GetAudio(fields KeyFields) ([]byte, bool) {
	payload, ok := c.manager.Get(GenerateKey(fields))
	if !ok {
		return nil, false
	}
	blob, ok := payload.(Blob)
	return blob, ok
}

// CacheAudio stores synthesized audio under the request's derived key. Tags
// record the voice, format, and emotion so whole slices of the cache can be
// invalidated without custom queries. A non-positive ttl uses the cache's
// default.
func (c *AudioCache) CacheAudio(audio []byte, fields KeyFields, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	tags := []string{
		"audio",
		"voice:" + strings.ToLower(strings.TrimSpace(fields.Voice)),
		"format:" + strings.ToLower(strings.TrimSpace(fields.Format)),
	}
	if emotion := strings.TrimSpace(fields.Emotion); emotion != "" {
		tags = append(tags, "emotion:"+emotion)
	}

	return c.manager.Put(GenerateKey(fields), Blob(audio), PutOptions{TTL: ttl, Tags: tags})
}

// ClearVoice invalidates every cached artifact for the given voice.
func (c *AudioCache) ClearVoice(voice string) {
	c.manager.Clear("voice:" + strings.ToLower(strings.TrimSpace(voice)))
}

// ClearFormat invalidates every cached artifact in the given audio format.
func (c *AudioCache) ClearFormat(format string) {
	c.manager.Clear("format:" + strings.ToLower(strings.TrimSpace(format)))
}

// ClearEmotion invalidates every cached artifact synthesized with the given
// emotion.
func (c *AudioCache) ClearEmotion(emotion string) {
	c.manager.Clear("emotion:" + strings.TrimSpace(emotion))
}

// Clear drops entries, optionally restricted to the given tags.
func (c *AudioCache) Clear(tags ...string) { c.manager.Clear(tags...) }

// CleanupExpired sweeps both tiers for expired entries.
func (c *AudioCache) CleanupExpired() int { return c.manager.CleanupExpired() }

// Optimize runs the manager's self-healing pass.
func (c *AudioCache) Optimize() { c.manager.Optimize() }

// Stats returns the underlying manager's snapshot.
func (c *AudioCache) Stats() Stats { return c.manager.Stats() }

// Shutdown flushes the disk index.
func (c *AudioCache) Shutdown() error { return c.manager.Shutdown() }
