// Package config loads cache settings from the environment and optional
// config files, with hardcoded fallbacks for every field.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/voxcache/internal/cache"
)

// Settings holds every recognized cache configuration field. Absent fields
// fall back to the defaults encoded in the struct tags. The audio- and
// text-specific sizes override the generic ones when set.
type Settings struct {
	CacheDir string `yaml:"cache_dir" env:"VOXCACHE_DIR"`

	MemoryCacheSizeMB int           `yaml:"memory_cache_size_mb" env:"VOXCACHE_MEMORY_CACHE_SIZE_MB" envDefault:"100"`
	DiskCacheSizeMB   int           `yaml:"disk_cache_size_mb" env:"VOXCACHE_DISK_CACHE_SIZE_MB" envDefault:"1024"`
	TTL               time.Duration `yaml:"ttl" env:"VOXCACHE_TTL" envDefault:"24h"`

	AudioMemoryCacheMB int `yaml:"audio_memory_cache_mb" env:"VOXCACHE_AUDIO_MEMORY_CACHE_MB"`
	AudioDiskCacheMB   int `yaml:"audio_disk_cache_mb" env:"VOXCACHE_AUDIO_DISK_CACHE_MB"`

	TextMemoryCacheMB int           `yaml:"text_memory_cache_mb" env:"VOXCACHE_TEXT_MEMORY_CACHE_MB"`
	TextDiskCacheMB   int           `yaml:"text_disk_cache_mb" env:"VOXCACHE_TEXT_DISK_CACHE_MB"`
	TextCacheTTL      time.Duration `yaml:"text_cache_ttl" env:"VOXCACHE_TEXT_CACHE_TTL" envDefault:"720h"`

	CompressionLevel int `yaml:"compression_level" env:"VOXCACHE_COMPRESSION_LEVEL" envDefault:"3"`
}

// Default returns the hardcoded fallback settings.
func Default() Settings {
	return Settings{
		MemoryCacheSizeMB: 100,
		DiskCacheSizeMB:   1024,
		TTL:               24 * time.Hour,
		TextCacheTTL:      720 * time.Hour,
		CompressionLevel:  3,
	}
}

// Load returns the defaults overlaid with any VOXCACHE_* environment
// variables.
func Load() (Settings, error) {
	s := Default()
	if err := env.Parse(&s); err != nil {
		return s, fmt.Errorf("parse environment: %w", err)
	}
	return s, nil
}

// FromViper overlays settings from Viper under the "cache" key. Only keys the
// config file actually sets are applied.
func FromViper(s Settings) Settings {
	if viper.IsSet("cache.dir") {
		s.CacheDir = viper.GetString("cache.dir")
	}
	if viper.IsSet("cache.memory_cache_size_mb") {
		s.MemoryCacheSizeMB = viper.GetInt("cache.memory_cache_size_mb")
	}
	if viper.IsSet("cache.disk_cache_size_mb") {
		s.DiskCacheSizeMB = viper.GetInt("cache.disk_cache_size_mb")
	}
	if viper.IsSet("cache.ttl") {
		s.TTL = viper.GetDuration("cache.ttl")
	}
	if viper.IsSet("cache.audio_memory_cache_mb") {
		s.AudioMemoryCacheMB = viper.GetInt("cache.audio_memory_cache_mb")
	}
	if viper.IsSet("cache.audio_disk_cache_mb") {
		s.AudioDiskCacheMB = viper.GetInt("cache.audio_disk_cache_mb")
	}
	if viper.IsSet("cache.text_memory_cache_mb") {
		s.TextMemoryCacheMB = viper.GetInt("cache.text_memory_cache_mb")
	}
	if viper.IsSet("cache.text_disk_cache_mb") {
		s.TextDiskCacheMB = viper.GetInt("cache.text_disk_cache_mb")
	}
	if viper.IsSet("cache.text_cache_ttl") {
		s.TextCacheTTL = viper.GetDuration("cache.text_cache_ttl")
	}
	if viper.IsSet("cache.compression_level") {
		s.CompressionLevel = viper.GetInt("cache.compression_level")
	}
	return s
}

// Dir returns the configured cache root, falling back to the user cache
// directory.
func (s Settings) Dir() (string, error) {
	if s.CacheDir != "" {
		return s.CacheDir, nil
	}
	scope := gap.NewScope(gap.User, "voxcache")
	dir, err := scope.CacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve cache directory: %w", err)
	}
	return dir, nil
}

// AudioCacheOptions builds the cache options for the audio specialization,
// rooted at <dir>/audio. Audio-specific sizes fall back to the generic ones.
func (s Settings) AudioCacheOptions() (cache.Options, error) {
	dir, err := s.Dir()
	if err != nil {
		return cache.Options{}, err
	}
	memMB := s.AudioMemoryCacheMB
	if memMB <= 0 {
		memMB = s.MemoryCacheSizeMB
	}
	diskMB := s.AudioDiskCacheMB
	if diskMB <= 0 {
		diskMB = s.DiskCacheSizeMB
	}
	return cache.Options{
		MaxMemoryBytes:   int64(memMB) * 1024 * 1024,
		MaxDiskBytes:     int64(diskMB) * 1024 * 1024,
		Dir:              filepath.Join(dir, "audio"),
		CompressionLevel: s.CompressionLevel,
	}, nil
}

// TextCacheOptions builds the cache options for the text specialization,
// rooted at <dir>/text. Text-specific sizes fall back to the generic ones.
func (s Settings) TextCacheOptions() (cache.Options, error) {
	dir, err := s.Dir()
	if err != nil {
		return cache.Options{}, err
	}
	memMB := s.TextMemoryCacheMB
	if memMB <= 0 {
		memMB = s.MemoryCacheSizeMB
	}
	diskMB := s.TextDiskCacheMB
	if diskMB <= 0 {
		diskMB = s.DiskCacheSizeMB
	}
	return cache.Options{
		MaxMemoryBytes:   int64(memMB) * 1024 * 1024,
		MaxDiskBytes:     int64(diskMB) * 1024 * 1024,
		Dir:              filepath.Join(dir, "text"),
		CompressionLevel: s.CompressionLevel,
	}, nil
}
