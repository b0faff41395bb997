// Package main provides the voxcache operator CLI for inspecting and
// maintaining the on-disk synthesis caches.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/voxcache/internal/cache"
	"github.com/dgnsrekt/voxcache/internal/config"
)

var (
	cacheDir string
	verbose  bool

	rootCmd = &cobra.Command{
		Use:          "voxcache",
		Short:        "Inspect and maintain the text-to-speech caches",
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if verbose {
				log.SetLevel(log.DebugLevel)
			}
		},
	}

	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show per-tier sizes and utilization",
		RunE: func(*cobra.Command, []string) error {
			return withCaches(func(audio *cache.AudioCache, text *cache.TextCache) error {
				printStats("audio", audio.Stats())
				printStats("text", text.Stats())
				return nil
			})
		},
	}

	cleanupCmd = &cobra.Command{
		Use:   "cleanup",
		Short: "Remove expired entries from both caches",
		RunE: func(*cobra.Command, []string) error {
			return withCaches(func(audio *cache.AudioCache, text *cache.TextCache) error {
				removed := audio.CleanupExpired() + text.CleanupExpired()
				fmt.Printf("removed %d expired entries\n", removed)
				return nil
			})
		},
	}

	clearTags []string
	clearCmd  = &cobra.Command{
		Use:   "clear",
		Short: "Drop cached entries, optionally restricted to tags",
		RunE: func(*cobra.Command, []string) error {
			return withCaches(func(audio *cache.AudioCache, text *cache.TextCache) error {
				audio.Clear(clearTags...)
				text.Clear(clearTags...)
				if len(clearTags) == 0 {
					fmt.Println("caches cleared")
				} else {
					fmt.Printf("cleared entries tagged %v\n", clearTags)
				}
				return nil
			})
		},
	}

	optimizeCmd = &cobra.Command{
		Use:   "optimize",
		Short: "Expire stale entries and repair the disk indexes",
		RunE: func(*cobra.Command, []string) error {
			return withCaches(func(audio *cache.AudioCache, text *cache.TextCache) error {
				audio.Optimize()
				text.Optimize()
				printStats("audio", audio.Stats())
				printStats("text", text.Stats())
				return nil
			})
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "cache root directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	clearCmd.Flags().StringSliceVar(&clearTags, "tag", nil, "restrict clearing to these tags (e.g. voice:af_heart)")
	rootCmd.AddCommand(statsCmd, cleanupCmd, clearCmd, optimizeCmd)
}

func loadSettings() (config.Settings, error) {
	scope := gap.NewScope(gap.User, "voxcache")
	if dirs, err := scope.ConfigDirs(); err == nil {
		for _, d := range dirs {
			viper.AddConfigPath(d)
		}
	}
	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		viper.AddConfigPath(filepath.Join(c, "voxcache"))
	}
	viper.SetConfigName("voxcache")
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config.Settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	settings, err := config.Load()
	if err != nil {
		return settings, err
	}
	settings = config.FromViper(settings)
	if cacheDir != "" {
		settings.CacheDir = cacheDir
	}
	return settings, nil
}

// withCaches opens both specializations, runs fn, and flushes the indexes on
// the way out.
func withCaches(fn func(*cache.AudioCache, *cache.TextCache) error) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	audioOpts, err := settings.AudioCacheOptions()
	if err != nil {
		return err
	}
	textOpts, err := settings.TextCacheOptions()
	if err != nil {
		return err
	}

	audio, err := cache.NewAudioCache(audioOpts, settings.TTL)
	if err != nil {
		return err
	}
	text, err := cache.NewTextCache(textOpts, settings.TextCacheTTL)
	if err != nil {
		return err
	}
	defer func() {
		if err := audio.Shutdown(); err != nil {
			log.Warn("audio cache shutdown", "error", err)
		}
		if err := text.Shutdown(); err != nil {
			log.Warn("text cache shutdown", "error", err)
		}
	}()

	return fn(audio, text)
}

func printStats(name string, s cache.Stats) {
	fmt.Printf("%s cache:\n", name)
	printTier("  memory", s.Memory)
	printTier("  disk  ", s.Disk)
}

func printTier(label string, t cache.TierStats) {
	fmt.Printf("%s: %d entries, %s of %s (%.1f%%)\n",
		label, t.Entries,
		humanize.Bytes(uint64(t.TotalBytes)),
		humanize.Bytes(uint64(t.MaxBytes)),
		t.Utilization*100)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
