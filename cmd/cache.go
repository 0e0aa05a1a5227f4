package cmd

import (
	"fmt"
	"sort"

	"github.com/hal/prwatch/internal/cache"
	"github.com/spf13/cobra"
)

// NewCmdCache creates the cache command with subcommands.
func NewCmdCache(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the on-disk result cache",
	}

	cmd.AddCommand(newCmdCacheClear())
	cmd.AddCommand(newCmdCacheStats())

	return cmd
}

// newCmdCacheClear creates the cache clear subcommand.
func newCmdCacheClear() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all cached search results and PR details",
		RunE:  runCacheClear,
	}
}

// newCmdCacheStats creates the cache stats subcommand.
func newCmdCacheStats() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics per bucket",
		RunE:  runCacheStats,
	}
}

func openStore() (*cache.Store, error) {
	dir, err := cache.DefaultDir()
	if err != nil {
		return nil, fmt.Errorf("failed to locate cache directory: %w", err)
	}
	store, err := cache.NewStore(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access cache: %w", err)
	}
	return store, nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	fmt.Println("Cache cleared.")
	return nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	stats, err := store.Stats()
	if err != nil {
		return fmt.Errorf("failed to get cache stats: %w", err)
	}

	buckets := make([]string, 0, len(stats))
	for name := range stats {
		buckets = append(buckets, name)
	}
	sort.Strings(buckets)

	fmt.Printf("Cache statistics:\n")
	if len(buckets) == 0 {
		fmt.Println("  (empty)")
		return nil
	}
	for _, name := range buckets {
		bs := stats[name]
		fmt.Printf("  %s:\n", name)
		fmt.Printf("    Total: %d\n", bs.Total)
		fmt.Printf("    Valid: %d\n", bs.Valid)
		fmt.Printf("    Expired: %d\n", bs.Total-bs.Valid)
	}
	return nil
}
