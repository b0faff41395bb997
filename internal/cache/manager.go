package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Options configures a Manager.
type Options struct {
	// MaxMemoryBytes bounds the in-memory tier.
	MaxMemoryBytes int64

	// MaxDiskBytes bounds the disk tier.
	MaxDiskBytes int64

	// Dir is the root directory for the disk tier. It is created if missing;
	// failure to create it is the only fatal construction error.
	Dir string

	// CompressionLevel is the zstd level applied to payloads written to disk.
	// Zero disables compression.
	CompressionLevel int

	// Logger receives structured diagnostics. Defaults to log.Default().
	Logger *log.Logger
}

// PutOptions carries the optional parts of a Put.
type PutOptions struct {
	// TTL is the entry's time-to-live. Zero means the entry never expires.
	TTL time.Duration

	// Tags label the entry for bulk invalidation via Clear.
	Tags []string

	// MemoryOnly skips the write-through to the disk tier.
	MemoryOnly bool
}

// Manager composes the memory and disk tiers behind a single get/put API and
// implements the tiering policy: write-through on Put, promotion of disk hits
// into memory on Get. All public operations run under one mutex. Cache
// operations are short relative to the synthesis work they guard, so the
// coarse lock buys consistency cheaply.
type Manager struct {
	mu   sync.Mutex
	mem  *memoryTier
	disk *diskTier

	logger *log.Logger

	memoryHits      int64
	diskHits        int64
	misses          int64
	promotions      int64
	memoryEvictions int64
	diskEvictions   int64
	expirations     int64
	diskReadErrors  int64
	diskWriteErrors int64
}

// New creates a Manager rooted at opts.Dir. The disk index is loaded once
// here; a corrupt or missing index starts the disk tier empty rather than
// failing construction.
func New(opts Options) (*Manager, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	disk, err := newDiskTier(opts.Dir, opts.MaxDiskBytes, opts.CompressionLevel, logger)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}

	return &Manager{
		mem:    newMemoryTier(opts.MaxMemoryBytes),
		disk:   disk,
		logger: logger,
	}, nil
}

// Get returns the payload cached under key, if any. Disk hits are promoted
// into the memory tier so subsequent lookups skip the file read; expired
// entries are removed from whichever tier they are found in. Get never
// returns an error: every failure mode degrades to a miss.
func (m *Manager) Get(key string) (Payload, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()

	if entry, ok := m.mem.lookup(key); ok {
		if entry.expired(now) {
			m.mem.remove(key)
			m.expirations++
		} else {
			m.mem.touch(key, now)
			m.memoryHits++
			return entry.Payload, true
		}
	}

	if rec, ok := m.disk.lookup(key); ok {
		if rec.expired(now) {
			m.disk.remove(key)
			m.expirations++
			m.misses++
			return nil, false
		}

		data, err := m.disk.read(rec)
		if err != nil {
			// Stale or corrupt record: repair the index and report a miss.
			m.disk.remove(key)
			m.diskReadErrors++
			m.misses++
			m.logger.Warn("cache payload unreadable, index entry dropped",
				"key", key, "error", err)
			return nil, false
		}

		entry := &Entry{
			Key:          key,
			Payload:      Blob(data),
			CreatedAt:    rec.CreatedAt,
			LastAccessed: now,
			AccessCount:  1,
			SizeBytes:    rec.SizeBytes,
			TTL:          time.Duration(rec.TTLMillis) * time.Millisecond,
			Tags:         rec.Tags,
		}
		m.memoryEvictions += int64(len(m.mem.put(entry)))
		m.promotions++
		m.diskHits++
		return entry.Payload, true
	}

	m.misses++
	return nil, false
}

// Put stores payload under key, fully replacing any prior entry in both
// tiers. The return value reflects the memory-tier write: a disk failure is
// logged and absorbed, never surfaced. A payload whose size cannot be
// determined is not stored anywhere.
func (m *Manager) Put(key string, payload Payload, opts PutOptions) bool {
	size, err := payload.SizeBytes()
	if err != nil || size < 0 {
		m.logger.Error("payload size unavailable, nothing stored", "key", key, "error", err)
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	entry := &Entry{
		Key:          key,
		Payload:      payload,
		CreatedAt:    now,
		LastAccessed: now,
		SizeBytes:    size,
		TTL:          opts.TTL,
		Tags:         opts.Tags,
	}

	m.memoryEvictions += int64(len(m.mem.put(entry)))

	if !opts.MemoryOnly {
		data, err := payload.MarshalBinary()
		if err != nil {
			m.diskWriteErrors++
			m.logger.Warn("payload not serializable, disk tier skipped", "key", key, "error", err)
			return true
		}
		evicted, err := m.disk.write(entry, data)
		m.diskEvictions += int64(evicted)
		if err != nil {
			m.diskWriteErrors++
			m.logger.Warn("disk cache write failed", "key", key, "error", err)
		}
	}

	return true
}

// Delete removes key from both tiers and reports whether anything was
// removed.
func (m *Manager) Delete(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, memRemoved := m.mem.remove(key)
	diskRemoved := m.disk.remove(key)
	return memRemoved || diskRemoved
}

// Clear drops entries from both tiers. With no tags every entry is removed
// and the byte counters reset; with tags, only entries whose tag set
// intersects the given tags are removed.
func (m *Manager) Clear(tags ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(tags) == 0 {
		m.mem.clear()
		m.disk.clear()
		return
	}

	m.mem.removeWhere(func(e *Entry) bool { return e.tagged(tags) })
	m.disk.removeWhere(func(rec *diskEntry) bool { return tagsIntersect(rec.Tags, tags) })
}

// CleanupExpired sweeps both tiers once, removing every entry whose TTL has
// elapsed, and returns the number removed. Scheduling the sweep belongs to
// the caller.
func (m *Manager) CleanupExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cleanupExpiredLocked()
}

func (m *Manager) cleanupExpiredLocked() int {
	now := time.Now()
	removed := m.mem.removeWhere(func(e *Entry) bool { return e.expired(now) })
	removed += m.disk.removeWhere(func(rec *diskEntry) bool { return rec.expired(now) })
	m.expirations += int64(removed)
	return removed
}

// Stats returns a snapshot of both tiers and the cumulative counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{
		Memory:          m.mem.stats(),
		Disk:            m.disk.stats(),
		MemoryHits:      m.memoryHits,
		DiskHits:        m.diskHits,
		Misses:          m.misses,
		Promotions:      m.promotions,
		MemoryEvictions: m.memoryEvictions,
		DiskEvictions:   m.diskEvictions,
		Expirations:     m.expirations,
		DiskReadErrors:  m.diskReadErrors,
		DiskWriteErrors: m.diskWriteErrors,
	}
	if total := s.MemoryHits + s.DiskHits + s.Misses; total > 0 {
		s.HitRate = float64(s.MemoryHits+s.DiskHits) / float64(total)
	}
	return s
}

// Optimize removes expired entries, then reconciles the disk index with the
// filesystem: records whose payload file has gone missing are dropped and the
// disk byte total is recomputed from the corrected index.
func (m *Manager) Optimize() {
	m.mu.Lock()
	defer m.mu.Unlock()

	expired := m.cleanupExpiredLocked()
	repaired := m.disk.validate()
	if expired > 0 || repaired > 0 {
		m.logger.Info("cache optimized", "expired", expired, "repaired", repaired)
	}
}

// Shutdown flushes the disk index and releases the memory tier. It is safe to
// call on a manager that never saw a write.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.mem.clear()
	if err := m.disk.persist(); err != nil {
		return fmt.Errorf("flush cache index: %w", err)
	}
	return nil
}
