package synth

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/dgnsrekt/voxcache/internal/cache"
)

// Orchestrator serves synthesis requests through the audio cache. Concurrent
// misses for the same key can optionally be collapsed into one engine call;
// the cache itself stays oblivious to in-flight work.
type Orchestrator struct {
	engine Synthesizer
	audio  *cache.AudioCache
	logger *log.Logger

	dedupe bool
	group  singleflight.Group

	ttl time.Duration
}

// OrchestratorOptions configures an Orchestrator.
type OrchestratorOptions struct {
	// DedupeMisses collapses concurrent misses for the same key into a
	// single engine call. Without it, two concurrent requests for the same
	// uncached key both pay for synthesis.
	DedupeMisses bool

	// TTL overrides the audio cache's default entry lifetime. Zero keeps the
	// cache default.
	TTL time.Duration

	// Logger receives structured diagnostics. Defaults to log.Default().
	Logger *log.Logger
}

// NewOrchestrator wires an engine to an audio cache.
func NewOrchestrator(engine Synthesizer, audio *cache.AudioCache, opts OrchestratorOptions) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{
		engine: engine,
		audio:  audio,
		logger: logger,
		dedupe: opts.DedupeMisses,
		ttl:    opts.TTL,
	}
}

// Synthesize returns audio for req, from cache when possible.
func (o *Orchestrator) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	fields := req.keyFields()

	if audio, ok := o.audio.GetAudio(fields); ok {
		o.logger.Debug("cache hit", "voice", req.Voice, "textLength", len(req.Text))
		return audio, nil
	}

	if !o.dedupe {
		return o.synthesizeAndCache(ctx, req, fields)
	}

	key := cache.GenerateKey(fields)
	v, err, shared := o.group.Do(key, func() (interface{}, error) {
		return o.synthesizeAndCache(ctx, req, fields)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		o.logger.Debug("concurrent miss deduplicated", "key", key)
	}
	return v.([]byte), nil
}

func (o *Orchestrator) synthesizeAndCache(ctx context.Context, req Request, fields cache.KeyFields) ([]byte, error) {
	start := time.Now()
	audio, err := o.engine.Synthesize(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}

	if !o.audio.CacheAudio(audio, fields, o.ttl) {
		o.logger.Warn("synthesized audio not cached", "voice", req.Voice)
	}
	o.logger.Debug("synthesis completed",
		"voice", req.Voice,
		"audioBytes", len(audio),
		"duration", time.Since(start))
	return audio, nil
}
