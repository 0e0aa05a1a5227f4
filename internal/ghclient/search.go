package ghclient

import (
	"context"

	gh "github.com/google/go-github/v57/github"
	"github.com/hal/prwatch/internal/constants"
	"github.com/hal/prwatch/internal/log"
	"github.com/hal/prwatch/internal/model"
)

// SearchPRs runs an issue search and returns the results as parsed
// pull requests. It follows pagination until exhausted or maxResults is
// reached, trimming the final page to the cap. Individual results that
// fail to parse are skipped with a logged warning; a non-2xx response
// fails the whole call.
func (c *Client) SearchPRs(ctx context.Context, query string, maxResults int) ([]model.PullRequest, error) {
	opts := &gh.SearchOptions{
		Sort:  "updated",
		Order: "desc",
		ListOptions: gh.ListOptions{
			PerPage: constants.SearchPageSize,
		},
	}

	var prs []model.PullRequest

	for {
		result, resp, err := c.gh.Search.Issues(ctx, query, opts)
		if err != nil {
			return nil, wrapErr("failed to search pull requests", err)
		}

		log.Trace("search page", "query", query, "items", len(result.Issues))

		for _, issue := range result.Issues {
			pr, err := model.FromSearchIssue(issue)
			if err != nil {
				log.Warn("skipping unparseable search result", "query", query, "error", err)
				continue
			}
			prs = append(prs, pr)
		}

		if maxResults > 0 && len(prs) >= maxResults {
			prs = prs[:maxResults]
			break
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return prs, nil
}

// PRDetails fetches a single PR from the pulls API, which carries the
// diff stats the search API omits.
func (c *Client) PRDetails(ctx context.Context, owner, repo string, number int) (*gh.PullRequest, error) {
	detail, _, err := c.gh.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, wrapErr("failed to get pull request details", err)
	}
	return detail, nil
}
