package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	s := Default()

	if s.MemoryCacheSizeMB != 100 {
		t.Errorf("memory size: got %d, want 100", s.MemoryCacheSizeMB)
	}
	if s.DiskCacheSizeMB != 1024 {
		t.Errorf("disk size: got %d, want 1024", s.DiskCacheSizeMB)
	}
	if s.TTL != 24*time.Hour {
		t.Errorf("ttl: got %v, want 24h", s.TTL)
	}
	if s.TextCacheTTL != 720*time.Hour {
		t.Errorf("text ttl: got %v, want 720h", s.TextCacheTTL)
	}
	if s.CompressionLevel != 3 {
		t.Errorf("compression level: got %d, want 3", s.CompressionLevel)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("VOXCACHE_DIR", "/tmp/custom-cache")
	t.Setenv("VOXCACHE_MEMORY_CACHE_SIZE_MB", "256")
	t.Setenv("VOXCACHE_TTL", "2h")
	t.Setenv("VOXCACHE_COMPRESSION_LEVEL", "9")

	s, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if s.CacheDir != "/tmp/custom-cache" {
		t.Errorf("cache dir: got %q", s.CacheDir)
	}
	if s.MemoryCacheSizeMB != 256 {
		t.Errorf("memory size: got %d, want 256", s.MemoryCacheSizeMB)
	}
	if s.TTL != 2*time.Hour {
		t.Errorf("ttl: got %v, want 2h", s.TTL)
	}
	if s.CompressionLevel != 9 {
		t.Errorf("compression level: got %d, want 9", s.CompressionLevel)
	}
	// Untouched fields keep their defaults.
	if s.DiskCacheSizeMB != 1024 {
		t.Errorf("disk size: got %d, want 1024", s.DiskCacheSizeMB)
	}
}

func TestDir_ExplicitWins(t *testing.T) {
	s := Settings{CacheDir: "/var/cache/voxcache"}
	dir, err := s.Dir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/var/cache/voxcache" {
		t.Errorf("dir: got %q", dir)
	}
}

func TestAudioCacheOptions(t *testing.T) {
	s := Default()
	s.CacheDir = "/tmp/vox"

	opts, err := s.AudioCacheOptions()
	if err != nil {
		t.Fatal(err)
	}

	// Without audio-specific sizes the generic ones apply.
	if opts.MaxMemoryBytes != 100*1024*1024 {
		t.Errorf("memory bytes: got %d", opts.MaxMemoryBytes)
	}
	if opts.MaxDiskBytes != 1024*1024*1024 {
		t.Errorf("disk bytes: got %d", opts.MaxDiskBytes)
	}
	if opts.Dir != filepath.Join("/tmp/vox", "audio") {
		t.Errorf("dir: got %q", opts.Dir)
	}
	if opts.CompressionLevel != 3 {
		t.Errorf("compression level: got %d", opts.CompressionLevel)
	}

	s.AudioMemoryCacheMB = 50
	s.AudioDiskCacheMB = 200
	opts, err = s.AudioCacheOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts.MaxMemoryBytes != 50*1024*1024 {
		t.Errorf("audio memory bytes: got %d", opts.MaxMemoryBytes)
	}
	if opts.MaxDiskBytes != 200*1024*1024 {
		t.Errorf("audio disk bytes: got %d", opts.MaxDiskBytes)
	}
}

func TestTextCacheOptions(t *testing.T) {
	s := Default()
	s.CacheDir = "/tmp/vox"
	s.TextMemoryCacheMB = 10

	opts, err := s.TextCacheOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts.MaxMemoryBytes != 10*1024*1024 {
		t.Errorf("text memory bytes: got %d", opts.MaxMemoryBytes)
	}
	// Disk size falls back to the generic setting.
	if opts.MaxDiskBytes != 1024*1024*1024 {
		t.Errorf("text disk bytes: got %d", opts.MaxDiskBytes)
	}
	if opts.Dir != filepath.Join("/tmp/vox", "text") {
		t.Errorf("dir: got %q", opts.Dir)
	}
}
