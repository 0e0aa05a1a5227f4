package ghclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hal/prwatch/internal/constants"
	"github.com/hal/prwatch/internal/log"
	"github.com/hal/prwatch/internal/model"
)

// PRTimeline fetches the full issue timeline for a PR, following
// pagination. Events are parsed best-effort: a malformed or
// unrecognized event is dropped with a logged warning, never failing
// the list.
//
// The timeline payload mixes several event shapes (including bare git
// commits), so pages are decoded as raw JSON and parsed by the model
// package rather than through typed API structs.
func (c *Client) PRTimeline(ctx context.Context, owner, repo string, number int) ([]model.TimelineEvent, error) {
	var events []model.TimelineEvent
	page := 0

	for {
		u := fmt.Sprintf("repos/%s/%s/issues/%d/timeline?per_page=%d", owner, repo, number, constants.SearchPageSize)
		if page > 0 {
			u = fmt.Sprintf("%s&page=%d", u, page)
		}

		req, err := c.gh.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build timeline request: %w", err)
		}

		var raw []json.RawMessage
		resp, err := c.gh.Do(ctx, req, &raw)
		if err != nil {
			return nil, wrapErr("failed to get pull request timeline", err)
		}

		parsed, dropped := model.ParseEvents(raw)
		if dropped > 0 {
			log.Warn("dropped malformed timeline events",
				"repo", owner+"/"+repo, "number", number, "count", dropped)
		}
		events = append(events, parsed...)

		if resp.NextPage == 0 {
			break
		}
		page = resp.NextPage
	}

	return events, nil
}
