// Package ghclient wraps the GitHub API for the fetch pipeline.
package ghclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// ErrAuth marks a 401/403 response. Auth failures are fatal for the
// whole refresh cycle, unlike per-PR enrichment failures.
var ErrAuth = errors.New("GitHub authentication failed")

// ErrRateLimited marks a primary or secondary rate limit response.
var ErrRateLimited = errors.New("GitHub API rate limit exceeded")

// Client wraps the GitHub API client.
type Client struct {
	gh *gh.Client
	// token is intentionally unexported. NEVER add String(), MarshalJSON(),
	// or any method that could expose this value in logs or serialized output.
	token string
}

// Option configures a Client.
type Option func(*Client) error

// WithBaseURL points the client at a different API root (tests).
func WithBaseURL(base string) Option {
	return func(c *Client) error {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return fmt.Errorf("invalid base URL: %w", err)
		}
		c.gh.BaseURL = u
		return nil
	}
}

// WithHTTPClient replaces the underlying HTTP client (tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		c.gh = gh.NewClient(hc)
		return nil
	}
}

// New creates a GitHub client using a personal access token. An empty
// token falls back to the GITHUB_TOKEN environment variable.
func New(ctx context.Context, token string, opts ...Option) (*Client, error) {
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("GitHub token not provided. Set the GITHUB_TOKEN environment variable")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)

	c := &Client{
		gh:    gh.NewClient(tc),
		token: token,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// AuthenticatedUser returns the authenticated user's login.
func (c *Client) AuthenticatedUser(ctx context.Context) (string, error) {
	user, _, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return "", wrapErr("failed to get authenticated user", err)
	}
	return user.GetLogin(), nil
}

// wrapErr classifies API errors into the sentinel errors the
// orchestrator distinguishes on.
func wrapErr(op string, err error) error {
	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	var respErr *gh.ErrorResponse

	switch {
	case errors.As(err, &rateErr), errors.As(err, &abuseErr):
		return fmt.Errorf("%s: %w", op, ErrRateLimited)
	case errors.As(err, &respErr):
		if respErr.Response != nil {
			code := respErr.Response.StatusCode
			if code == http.StatusUnauthorized || code == http.StatusForbidden {
				return fmt.Errorf("%s: %s: %w", op, respErr.Message, ErrAuth)
			}
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
