package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/hal/prwatch/config"
	"github.com/hal/prwatch/internal/cache"
	"github.com/hal/prwatch/internal/ghclient"
	"github.com/hal/prwatch/internal/log"
	"github.com/hal/prwatch/internal/section"
	"github.com/hal/prwatch/internal/service"
)

// runtime bundles the wired-up collaborators a command needs.
type runtime struct {
	cfg     *config.Config
	client  *ghclient.Client
	cache   *cache.Store
	svc     *service.Service
	fetcher *service.Fetcher
	users   []string
}

// setup loads settings, builds the GitHub client and cache, and wires
// the service and fetcher. Flag values override the settings file.
func setup(ctx context.Context, opts *Options) (*runtime, error) {
	log.Initialize(opts.Verbosity, os.Stderr)

	var cfg *config.Config
	var err error
	if opts.ConfigFile != "" {
		cfg, err = config.LoadFile(opts.ConfigFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	client, err := ghclient.New(ctx, opts.Token)
	if err != nil {
		return nil, err
	}

	var store *cache.Store
	if !opts.NoCache {
		dir, err := cache.DefaultDir()
		if err == nil {
			store, err = cache.NewStore(dir)
		}
		if err != nil {
			// Degrade to uncached operation.
			log.Warn("cache unavailable", "error", err)
			store = nil
		}
	}

	users := cfg.Users
	if len(opts.Users) > 0 {
		users = opts.Users
	}
	if len(users) == 0 {
		// No tracked users configured: watch the authenticated user.
		login, err := client.AuthenticatedUser(ctx)
		if err != nil {
			return nil, fmt.Errorf("no users configured and user lookup failed: %w", err)
		}
		users = []string{login}
	}

	workers := cfg.WorkerCount()
	if opts.Workers > 0 {
		workers = opts.Workers
	}

	svc := service.New(client, store, section.NewEngine(cfg.RecentlyClosedDays))

	return &runtime{
		cfg:     cfg,
		client:  client,
		cache:   store,
		svc:     svc,
		fetcher: service.NewFetcher(svc, workers),
		users:   users,
	}, nil
}

// requestedSections validates the --sections flag. Empty means all.
func requestedSections(names []string) ([]section.Section, error) {
	var sections []section.Section
	for _, name := range names {
		sec := section.Section(name)
		if !sec.Valid() {
			return nil, fmt.Errorf("unknown section %q (valid: open, needs-review, changes-requested, recently-closed)", name)
		}
		sections = append(sections, sec)
	}
	return sections, nil
}
