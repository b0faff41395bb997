package synth

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/voxcache/internal/cache"
)

type countingEngine struct {
	inner Synthesizer
	calls atomic.Int64
}

func (e *countingEngine) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	e.calls.Add(1)
	return e.inner.Synthesize(ctx, req)
}

func newTestAudioCache(t *testing.T) *cache.AudioCache {
	t.Helper()
	c, err := cache.NewAudioCache(cache.Options{
		MaxMemoryBytes: 1 << 20,
		MaxDiskBytes:   10 << 20,
		Dir:            t.TempDir(),
		Logger:         log.New(io.Discard),
	}, 0)
	if err != nil {
		t.Fatalf("NewAudioCache: %v", err)
	}
	return c
}

func testRequest() Request {
	return Request{
		Text:     "Hello world",
		Voice:    "af_heart",
		Speed:    1.0,
		Format:   "wav",
		Language: "en",
	}
}

func TestOrchestrator_CachesOnMiss(t *testing.T) {
	engine := &countingEngine{inner: &Mock{}}
	o := NewOrchestrator(engine, newTestAudioCache(t), OrchestratorOptions{
		Logger: log.New(io.Discard),
	})

	req := testRequest()

	first, err := o.Synthesize(context.Background(), req)
	if err != nil {
		t.Fatalf("first Synthesize: %v", err)
	}
	second, err := o.Synthesize(context.Background(), req)
	if err != nil {
		t.Fatalf("second Synthesize: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Error("cached audio differs from synthesized audio")
	}
	if got := engine.calls.Load(); got != 1 {
		t.Errorf("engine calls: got %d, want 1", got)
	}
}

func TestOrchestrator_ErrorPropagates(t *testing.T) {
	engineErr := errors.New("model not loaded")
	engine := &countingEngine{inner: &Mock{Err: engineErr}}
	o := NewOrchestrator(engine, newTestAudioCache(t), OrchestratorOptions{
		Logger: log.New(io.Discard),
	})

	if _, err := o.Synthesize(context.Background(), testRequest()); !errors.Is(err, engineErr) {
		t.Errorf("expected wrapped engine error, got %v", err)
	}

	// Failures are not cached; the next call hits the engine again.
	o.Synthesize(context.Background(), testRequest())
	if got := engine.calls.Load(); got != 2 {
		t.Errorf("engine calls: got %d, want 2", got)
	}
}

func TestOrchestrator_DedupesConcurrentMisses(t *testing.T) {
	engine := &countingEngine{inner: &Mock{GenerationDelay: 100 * time.Millisecond}}
	o := NewOrchestrator(engine, newTestAudioCache(t), OrchestratorOptions{
		DedupeMisses: true,
		Logger:       log.New(io.Discard),
	})

	req := testRequest()
	const callers = 8

	start := make(chan struct{})
	results := make([][]byte, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = o.Synthesize(context.Background(), req)
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if !bytes.Equal(results[i], results[0]) {
			t.Errorf("caller %d received different audio", i)
		}
	}
	if got := engine.calls.Load(); got != 1 {
		t.Errorf("engine calls: got %d, want 1", got)
	}
}

func TestMock_Deterministic(t *testing.T) {
	m := &Mock{}
	req := testRequest()

	a, err := m.Synthesize(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := m.Synthesize(context.Background(), req)
	if !bytes.Equal(a, b) {
		t.Error("mock output not deterministic")
	}

	other := req
	other.Voice = "af_bella"
	c, _ := m.Synthesize(context.Background(), other)
	if bytes.Equal(a, c) {
		t.Error("different requests produced identical audio")
	}
}

func TestMock_RespectsContextCancellation(t *testing.T) {
	m := &Mock{GenerationDelay: time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := m.Synthesize(ctx, testRequest()); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}
}
