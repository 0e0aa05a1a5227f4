// Package service provides orchestration between the GitHub API and
// caching layers: cache-checked section searches, per-PR enrichment,
// and the parallel fetch across users and sections.
package service

import (
	"context"
	"time"

	gh "github.com/google/go-github/v57/github"
	"github.com/hal/prwatch/internal/cache"
	"github.com/hal/prwatch/internal/constants"
	"github.com/hal/prwatch/internal/log"
	"github.com/hal/prwatch/internal/model"
	"github.com/hal/prwatch/internal/section"
)

// GitHub is the API surface the service needs. *ghclient.Client
// implements it; tests substitute a fake.
type GitHub interface {
	SearchPRs(ctx context.Context, query string, maxResults int) ([]model.PullRequest, error)
	PRDetails(ctx context.Context, owner, repo string, number int) (*gh.PullRequest, error)
	PRTimeline(ctx context.Context, owner, repo string, number int) ([]model.TimelineEvent, error)
}

// Service combines the GitHub client with the cache store. All
// collaborators are injected; there is no ambient global state.
type Service struct {
	gh      GitHub
	cache   *cache.Store
	queries *section.Engine
}

// New creates a Service. A nil cache disables caching.
func New(gh GitHub, c *cache.Store, queries *section.Engine) *Service {
	return &Service{
		gh:      gh,
		cache:   c,
		queries: queries,
	}
}

// SectionPRs fetches one user's PRs for a section, cache-checked. The
// cache key is the full per-user query; date clauses inside it are
// normalized by the store.
func (s *Service) SectionPRs(ctx context.Context, sec section.Section, user string) ([]model.PullRequest, error) {
	query := section.ForUser(s.queries.Query(sec), user)

	if s.cache != nil {
		var prs []model.PullRequest
		if s.cache.Get(query, sec.Bucket(), &prs) {
			return prs, nil
		}
	}

	prs, err := s.gh.SearchPRs(ctx, query, constants.MaxResultsPerUser)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(query, sec.Bucket(), sec.TTL(), prs); err != nil {
			log.Debug("failed to cache section results", "section", sec, "user", user, "error", err)
		}
	}
	return prs, nil
}

// prDetail is the cached portion of a pulls API response.
type prDetail struct {
	Diff     *model.DiffStats `json:"diff"`
	MergedAt *time.Time       `json:"merged_at,omitempty"`
}

// EnrichDiffStats attaches changed_files/additions/deletions to a PR,
// cache-checked. On failure the PR keeps nil enrichment fields and the
// error is returned for the caller to log.
func (s *Service) EnrichDiffStats(ctx context.Context, pr *model.PullRequest) error {
	key := pr.Key().String()

	if s.cache != nil {
		var d prDetail
		if s.cache.Get(key, "details", &d) && d.Diff != nil {
			pr.Diff = d.Diff
			if pr.MergedAt == nil {
				pr.MergedAt = d.MergedAt
			}
			return nil
		}
	}

	detail, err := s.gh.PRDetails(ctx, pr.RepoOwner, pr.RepoName, pr.Number)
	if err != nil {
		return err
	}
	model.ApplyDetails(pr, detail)

	if s.cache != nil {
		d := prDetail{Diff: pr.Diff, MergedAt: pr.MergedAt}
		if err := s.cache.Set(key, "details", constants.DetailCacheTTL, d); err != nil {
			log.Debug("failed to cache PR details", "pr", key, "error", err)
		}
	}
	return nil
}

// EnrichTimeline attaches the PR's issue timeline, cache-checked.
func (s *Service) EnrichTimeline(ctx context.Context, pr *model.PullRequest) error {
	key := pr.Key().String()

	if s.cache != nil {
		var events []model.TimelineEvent
		if s.cache.Get(key, "timeline", &events) {
			pr.Timeline = events
			return nil
		}
	}

	events, err := s.gh.PRTimeline(ctx, pr.RepoOwner, pr.RepoName, pr.Number)
	if err != nil {
		return err
	}
	pr.Timeline = events

	if s.cache != nil {
		if err := s.cache.Set(key, "timeline", constants.TimelineCacheTTL, events); err != nil {
			log.Debug("failed to cache PR timeline", "pr", key, "error", err)
		}
	}
	return nil
}

// InvalidateSections drops all cached section search results, used
// before a forced refresh to guarantee fresh data.
func (s *Service) InvalidateSections() {
	if s.cache == nil {
		return
	}
	for _, sec := range section.All {
		if err := s.cache.InvalidateBucket(sec.Bucket()); err != nil {
			log.Warn("failed to invalidate section cache", "section", sec, "error", err)
		}
	}
}
