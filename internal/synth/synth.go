// Package synth defines the synthesis seam the cache fronts: an engine
// interface, a mock engine, and an orchestrator that consults the audio cache
// before doing expensive work.
package synth

import (
	"context"

	"github.com/dgnsrekt/voxcache/internal/cache"
)

// Request describes one synthesis call. An empty Emotion means the request
// carries no emotion.
type Request struct {
	Text            string
	Voice           string
	Speed           float64
	Format          string
	Language        string
	Emotion         string
	EmotionStrength float64
}

func (r Request) keyFields() cache.KeyFields {
	return cache.KeyFields{
		Text:            r.Text,
		Voice:           r.Voice,
		Speed:           r.Speed,
		Format:          r.Format,
		Language:        r.Language,
		Emotion:         r.Emotion,
		EmotionStrength: r.EmotionStrength,
	}
}

// Synthesizer turns text and voice parameters into encoded audio. Whether the
// implementation calls a local engine or a remote API is not this package's
// concern.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) ([]byte, error)
}
