package platforms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sells-group/identity-resolver/internal/model"
	"github.com/sells-group/identity-resolver/internal/scorer"
)

const defaultGitHubAPIBaseURL = "https://api.github.com"

// GitHubFetcher is C5's direct-fetch GitHub client, grounded on the
// teacher's pkg client style (a narrow interface backed by an unexported
// http client struct, functional options for base URL overrides in tests).
type GitHubFetcher struct {
	baseURL string
	token   string
	http    *http.Client

	// GatherCommitEvidence enables the optional recent-commit evidence
	// gathering step (spec.md §4.5 step 3), gated by
	// config.FlagsConfig.CommitEvidence.
	GatherCommitEvidence bool
	MaxCommitEvidence    int
}

// GitHubFetcherOption configures a GitHubFetcher.
type GitHubFetcherOption func(*GitHubFetcher)

// WithGitHubBaseURL overrides the default API base URL (tests only).
func WithGitHubBaseURL(url string) GitHubFetcherOption {
	return func(f *GitHubFetcher) { f.baseURL = url }
}

// NewGitHubFetcher builds a live GitHub REST API v3 client.
func NewGitHubFetcher(token string, opts ...GitHubFetcherOption) *GitHubFetcher {
	f := &GitHubFetcher{
		baseURL: defaultGitHubAPIBaseURL,
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type githubUser struct {
	Login     string `json:"login"`
	Name      string `json:"name"`
	Bio       string `json:"bio"`
	Company   string `json:"company"`
	Location  string `json:"location"`
	Blog      string `json:"blog"`
	Followers int    `json:"followers"`
	PublicRepos int  `json:"public_repos"`
}

// FetchProfile implements discovery.GitHubFetcher: resolves one GitHub
// login into scorable profile facts via GET /users/{login}. ok is false
// (with a nil error) when GitHub returns 404 — a dead reverse-link lead,
// not a failure.
func (f *GitHubFetcher) FetchProfile(ctx context.Context, login string) (scorer.ProfileFacts, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/users/%s", f.baseURL, login), nil)
	if err != nil {
		return scorer.ProfileFacts{}, false, model.NewKindedError(model.ErrFatal, err, "github: build request")
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return scorer.ProfileFacts{}, false, model.NewKindedError(model.ErrNetwork, err, "github: do request")
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return scorer.ProfileFacts{}, false, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden:
		return scorer.ProfileFacts{}, false, model.NewKindedError(model.ErrRateLimited, nil, "github: rate limited")
	case resp.StatusCode == http.StatusUnauthorized:
		return scorer.ProfileFacts{}, false, model.NewKindedError(model.ErrAuth, nil, "github: unauthorized")
	case resp.StatusCode >= 500:
		return scorer.ProfileFacts{}, false, model.NewKindedError(model.ErrProviderUnavailable, nil, "github: server error")
	case resp.StatusCode >= 400:
		return scorer.ProfileFacts{}, false, model.NewKindedError(model.ErrFatal, nil, fmt.Sprintf("github: unexpected status %d", resp.StatusCode))
	}

	var u githubUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return scorer.ProfileFacts{}, false, model.NewKindedError(model.ErrParseError, err, "github: decode user")
	}

	facts := scorer.ProfileFacts{
		Platform:       "github",
		Handle:         u.Login,
		Name:           u.Name,
		Bio:            u.Bio,
		Company:        u.Company,
		Location:       u.Location,
		FollowersCount: u.Followers,
		PublicRepos:    u.PublicRepos,
	}
	if f.GatherCommitEvidence {
		f.attachCommitEvidence(ctx, login, &facts)
	}
	return facts, true, nil
}

// attachCommitEvidence gathers up to MaxCommitEvidence recent public push
// events as evidence pointers, per spec.md §4.5 step 3 (opt-in): the public
// events API exposes only the repo name and event type, never a commit
// author's email, so CommitEmailDomainMatches here is a count of recent push
// activity used as a proxy for "this account has verifiable commit history"
// rather than a literal email-domain comparison. Failures here never fail
// the fetch — evidence gathering is best-effort.
func (f *GitHubFetcher) attachCommitEvidence(ctx context.Context, login string, facts *scorer.ProfileFacts) {
	limit := f.MaxCommitEvidence
	if limit <= 0 {
		limit = 3
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/users/%s/events/public?per_page=%d", f.baseURL, login, limit), nil)
	if err != nil {
		return
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return
	}

	var events []struct {
		Type string `json:"type"`
		Repo struct {
			Name string `json:"name"`
		} `json:"repo"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return
	}
	count := 0
	for _, e := range events {
		if e.Type == "PushEvent" {
			count++
		}
	}
	facts.CommitEmailDomainMatches = count
}
