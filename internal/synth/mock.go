package synth

import (
	"context"
	"time"

	"github.com/dgnsrekt/voxcache/internal/cache"
)

// Mock is a deterministic engine for tests and development. The fabricated
// audio depends only on the request, so repeated calls are byte-identical.
type Mock struct {
	// GenerationDelay simulates engine latency per request.
	GenerationDelay time.Duration

	// Err, when set, is returned by every call.
	Err error
}

// Synthesize implements Synthesizer.
func (m *Mock) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.GenerationDelay > 0 {
		select {
		case <-time.After(m.GenerationDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	// Pseudo audio: deterministic bytes, roughly proportional to the text.
	key := cache.GenerateKey(req.keyFields())
	n := 64 + len(req.Text)*8
	out := make([]byte, 0, n)
	for len(out) < n {
		out = append(out, key...)
	}
	return out[:n], nil
}
