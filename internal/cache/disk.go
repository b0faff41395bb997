package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
)

const (
	indexFileName = "index.json"

	// compressThreshold is the payload size below which compression is not
	// attempted.
	compressThreshold = 1024
)

// diskEntry is one record of the persisted index. The index is the source of
// truth for what the tier believes exists; the filesystem decides whether a
// payload is actually retrievable.
type diskEntry struct {
	Key        string    `json:"key"`
	File       string    `json:"file"`
	CreatedAt  time.Time `json:"created_at"`
	SizeBytes  int64     `json:"size_bytes"`
	TTLMillis  int64     `json:"ttl_ms,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	Compressed bool      `json:"compressed,omitempty"`
}

func (d *diskEntry) expired(now time.Time) bool {
	return d.TTLMillis > 0 && now.After(d.CreatedAt.Add(time.Duration(d.TTLMillis)*time.Millisecond))
}

// diskTier is the persistent tier. Like memoryTier it carries no lock of its
// own; the manager serializes access. Budget accounting uses the payload size
// measured at insertion, regardless of how the bytes are stored on disk.
type diskTier struct {
	dir        string
	maxBytes   int64
	totalBytes int64

	index map[string]*diskEntry

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	logger *log.Logger
}

func newDiskTier(dir string, maxBytes int64, compressionLevel int, logger *log.Logger) (*diskTier, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	t := &diskTier{
		dir:      dir,
		maxBytes: maxBytes,
		index:    make(map[string]*diskEntry),
		logger:   logger,
	}

	// The decoder is always available: an index written by an earlier run may
	// name compressed payloads even when this run writes uncompressed.
	var err error
	t.decoder, err = zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	if compressionLevel > 0 {
		t.encoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(compressionLevel)))
		if err != nil {
			return nil, fmt.Errorf("create zstd encoder: %w", err)
		}
	}

	if err := t.loadIndex(); err != nil {
		logger.Error("cache index unreadable, starting empty", "dir", dir, "error", err)
		t.index = make(map[string]*diskEntry)
	}
	t.recomputeTotal()

	return t, nil
}

// lookup returns the index record for key, if any. It performs no I/O.
func (t *diskTier) lookup(key string) (*diskEntry, bool) {
	rec, ok := t.index[key]
	return rec, ok
}

// read loads and decodes the payload described by rec. Any failure is
// reported as an error; the caller removes the stale index record and treats
// the lookup as a miss.
func (t *diskTier) read(rec *diskEntry) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(t.dir, rec.File))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheMiss, err)
	}
	if rec.Compressed {
		decompressed, err := t.decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCacheCorrupted, err)
		}
		data = decompressed
	}
	return data, nil
}

// write stores payload for entry, replacing any prior record for the key,
// evicts oldest-by-creation records while over budget, and persists the
// index. The number of evicted records is returned even when the write fails.
func (t *diskTier) write(entry *Entry, payload []byte) (int, error) {
	data := payload
	compressed := false
	if t.encoder != nil && len(payload) > compressThreshold {
		if c := t.encoder.EncodeAll(payload, nil); len(c) < len(payload) {
			data = c
			compressed = true
		}
	}

	if existing, ok := t.index[entry.Key]; ok {
		t.removeRecord(existing)
	}

	evicted := 0
	for t.totalBytes+entry.SizeBytes > t.maxBytes && len(t.index) > 0 {
		if t.evictOldest() {
			evicted++
		}
	}

	name := payloadFileName(entry.Key)
	if err := atomicWrite(filepath.Join(t.dir, name), data); err != nil {
		return evicted, fmt.Errorf("write cache file: %w", err)
	}

	t.index[entry.Key] = &diskEntry{
		Key:        entry.Key,
		File:       name,
		CreatedAt:  entry.CreatedAt,
		SizeBytes:  entry.SizeBytes,
		TTLMillis:  ttlMillis(entry.TTL),
		Tags:       entry.Tags,
		Compressed: compressed,
	}
	t.totalBytes += entry.SizeBytes

	if err := t.persist(); err != nil {
		return evicted, fmt.Errorf("persist cache index: %w", err)
	}
	return evicted, nil
}

// remove drops key from the index and deletes its payload file. Returns
// whether anything was removed.
func (t *diskTier) remove(key string) bool {
	rec, ok := t.index[key]
	if !ok {
		return false
	}
	t.removeRecord(rec)
	if err := t.persist(); err != nil {
		t.logger.Warn("cache index not persisted", "error", err)
	}
	return true
}

// removeWhere drops every record matching pred and returns how many were
// removed. The index is persisted once at the end.
func (t *diskTier) removeWhere(pred func(*diskEntry) bool) int {
	removed := 0
	for _, rec := range t.index {
		if pred(rec) {
			t.removeRecord(rec)
			removed++
		}
	}
	if removed > 0 {
		if err := t.persist(); err != nil {
			t.logger.Warn("cache index not persisted", "error", err)
		}
	}
	return removed
}

// clear drops every record and payload file and persists the empty index.
func (t *diskTier) clear() {
	for _, rec := range t.index {
		os.Remove(filepath.Join(t.dir, rec.File))
	}
	t.index = make(map[string]*diskEntry)
	t.totalBytes = 0
	if err := t.persist(); err != nil {
		t.logger.Warn("cache index not persisted", "error", err)
	}
}

// validate reconciles the index with the filesystem: records whose payload
// file no longer exists are dropped and the byte total is recomputed from
// what is left. Returns the number of records repaired away.
func (t *diskTier) validate() int {
	removed := 0
	for key, rec := range t.index {
		if _, err := os.Stat(filepath.Join(t.dir, rec.File)); err != nil {
			delete(t.index, key)
			removed++
		}
	}
	t.recomputeTotal()
	if removed > 0 {
		if err := t.persist(); err != nil {
			t.logger.Warn("cache index not persisted", "error", err)
		}
	}
	return removed
}

func (t *diskTier) stats() TierStats {
	s := TierStats{
		Entries:    len(t.index),
		TotalBytes: t.totalBytes,
		MaxBytes:   t.maxBytes,
	}
	if t.maxBytes > 0 {
		s.Utilization = float64(t.totalBytes) / float64(t.maxBytes)
	}
	return s
}

// removeRecord deletes a record's file, index entry, and byte count together.
func (t *diskTier) removeRecord(rec *diskEntry) {
	os.Remove(filepath.Join(t.dir, rec.File))
	delete(t.index, rec.Key)
	t.totalBytes -= rec.SizeBytes
}

// evictOldest removes the record with the earliest creation time. The disk
// tier orders eviction by creation rather than last access: persisting access
// times would cost index I/O on every read, which this tier does not pay.
func (t *diskTier) evictOldest() bool {
	var oldest *diskEntry
	for _, rec := range t.index {
		if oldest == nil || rec.CreatedAt.Before(oldest.CreatedAt) {
			oldest = rec
		}
	}
	if oldest == nil {
		return false
	}
	t.removeRecord(oldest)
	return true
}

func (t *diskTier) recomputeTotal() {
	t.totalBytes = 0
	for _, rec := range t.index {
		t.totalBytes += rec.SizeBytes
	}
}

func (t *diskTier) loadIndex() error {
	data, err := os.ReadFile(filepath.Join(t.dir, indexFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, &t.index)
}

// persist writes the index as human-inspectable JSON, temp file first so a
// crash mid-write never leaves a truncated index behind.
func (t *diskTier) persist() error {
	data, err := json.MarshalIndent(t.index, "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(filepath.Join(t.dir, indexFileName), data)
}

// ttlMillis converts a TTL to the index's millisecond encoding, rounding up
// so a positive TTL never truncates to zero, which the index reads as "never
// expires".
func ttlMillis(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return int64((ttl + time.Millisecond - 1) / time.Millisecond)
}

// payloadFileName derives the on-disk name from a hash of the key so keys
// never need to be filesystem-safe.
func payloadFileName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16]) + ".cache"
}

func atomicWrite(path string, data []byte) error {
	tempPath := path + ".tmp"

	file, err := os.Create(tempPath)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	closeErr := file.Close()

	if err != nil {
		os.Remove(tempPath)
		return err
	}
	if closeErr != nil {
		os.Remove(tempPath)
		return closeErr
	}

	return os.Rename(tempPath, path)
}
