package service

import (
	"context"
	"errors"
	"sync"

	"github.com/hal/prwatch/internal/constants"
	"github.com/hal/prwatch/internal/ghclient"
	"github.com/hal/prwatch/internal/log"
	"github.com/hal/prwatch/internal/model"
	"github.com/hal/prwatch/internal/section"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Result maps each fetched section to its per-user PR lists. Every
// requested section is present, possibly as an empty map, so callers
// can iterate without nil checks. Users with zero results are omitted
// from a section's map entirely.
type Result map[section.Section]map[string][]model.PullRequest

// Section returns the mapping for a section, never nil.
func (r Result) Section(s section.Section) map[string][]model.PullRequest {
	if m, ok := r[s]; ok && m != nil {
		return m
	}
	return map[string][]model.PullRequest{}
}

// Keys returns the identity triples of every PR in a section.
func (r Result) Keys(s section.Section) []model.Key {
	var keys []model.Key
	for _, prs := range r.Section(s) {
		for i := range prs {
			keys = append(keys, prs[i].Key())
		}
	}
	return keys
}

// FetchOptions configures a fetch cycle.
type FetchOptions struct {
	// Sections restricts the fetch to a subset; empty means all four.
	Sections []section.Section

	// Timeline additionally fetches each PR's issue timeline.
	Timeline bool
}

// Fetcher fans section fetches out across a single long-lived bounded
// worker pool. The pool caps total simultaneous outbound requests
// across all sections, not per section.
type Fetcher struct {
	svc     *Service
	sem     *semaphore.Weighted
	workers int
}

// NewFetcher creates a Fetcher with the given worker bound.
// Non-positive workers fall back to the default.
func NewFetcher(svc *Service, workers int) *Fetcher {
	if workers <= 0 {
		workers = constants.DefaultWorkers
	}
	return &Fetcher{
		svc:     svc,
		sem:     semaphore.NewWeighted(int64(workers)),
		workers: workers,
	}
}

// Fetch produces per-section, per-user PR mappings for the given users,
// each PR enriched with diff stats. Sections run concurrently and fail
// independently: a section whose searches all fail contributes an empty
// map. Auth failures and context cancellation abort the whole call.
func (f *Fetcher) Fetch(ctx context.Context, users []string, opts FetchOptions) (Result, error) {
	sections := opts.Sections
	if len(sections) == 0 {
		sections = section.All
	}

	result := make(Result, len(sections))
	for _, sec := range sections {
		result[sec] = map[string][]model.PullRequest{}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, sec := range sections {
		g.Go(func() error {
			prs, err := f.fetchSection(gctx, sec, users, opts)
			if err != nil {
				return err
			}
			mu.Lock()
			result[sec] = prs
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// fetchSection runs the two phases for one section: per-user searches,
// then per-PR enrichment. The phases are strictly sequential within a
// section. Only auth failures and cancellation are returned; everything
// else degrades to omitted users or un-enriched PRs.
func (f *Fetcher) fetchSection(ctx context.Context, sec section.Section, users []string, opts FetchOptions) (map[string][]model.PullRequest, error) {
	collected := map[string][]model.PullRequest{}
	var mu sync.Mutex

	sg, sctx := errgroup.WithContext(ctx)
	for _, user := range users {
		sg.Go(func() error {
			if err := f.sem.Acquire(sctx, 1); err != nil {
				// Cancellation: stop submitting work.
				return err
			}
			defer f.sem.Release(1)

			prs, err := f.svc.SectionPRs(sctx, sec, user)
			if err != nil {
				if fatal(err) {
					return err
				}
				log.Warn("section search failed", "section", sec, "user", user, "error", err)
				return nil
			}
			if len(prs) == 0 {
				return nil
			}

			mu.Lock()
			collected[user] = prs
			mu.Unlock()
			return nil
		})
	}
	if err := sg.Wait(); err != nil {
		return nil, err
	}

	dg, dctx := errgroup.WithContext(ctx)
	for _, prs := range collected {
		for i := range prs {
			pr := &prs[i]
			dg.Go(func() error {
				if err := f.sem.Acquire(dctx, 1); err != nil {
					return err
				}
				defer f.sem.Release(1)

				if err := f.svc.EnrichDiffStats(dctx, pr); err != nil {
					if fatal(err) {
						return err
					}
					// Keep the PR with nil enrichment fields.
					log.Warn("detail fetch failed", "pr", pr.Key(), "error", err)
				}
				if opts.Timeline {
					if err := f.svc.EnrichTimeline(dctx, pr); err != nil {
						if fatal(err) {
							return err
						}
						log.Warn("timeline fetch failed", "pr", pr.Key(), "error", err)
					}
				}
				return nil
			})
		}
	}
	if err := dg.Wait(); err != nil {
		return nil, err
	}

	return collected, nil
}

// fatal reports whether an error must abort the whole refresh rather
// than degrade a single user or PR.
func fatal(err error) bool {
	return errors.Is(err, ghclient.ErrAuth) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
