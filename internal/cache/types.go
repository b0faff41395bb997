package cache

import "errors"

// Sentinel errors surfaced by the disk tier. The manager translates every one
// of them into a cache miss at the Get boundary; they never escape to callers.
var (
	// ErrCacheMiss is returned when a payload file named by the index cannot
	// be found.
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheCorrupted is returned when a payload file exists but cannot be
	// decoded.
	ErrCacheCorrupted = errors.New("cache data corrupted")
)

// TierStats describes one storage tier at a point in time.
type TierStats struct {
	Entries     int
	TotalBytes  int64
	MaxBytes    int64
	Utilization float64 // TotalBytes / MaxBytes
}

// Stats is a snapshot of both tiers plus the cumulative counters, all
// observed at a single point in time.
type Stats struct {
	Memory TierStats
	Disk   TierStats

	MemoryHits      int64
	DiskHits        int64
	Misses          int64
	HitRate         float64
	Promotions      int64
	MemoryEvictions int64
	DiskEvictions   int64
	Expirations     int64
	DiskReadErrors  int64
	DiskWriteErrors int64
}
