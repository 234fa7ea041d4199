// Package source provides fetchers that retrieve raw patch bytes for the
// scanner to consume, without implying anything about the format of those
// bytes: a GitHub or Forgejo pull request's unified diff, a local file, or
// stdin are all equally valid inputs to pkg/scan.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// GitHubSource fetches a pull request's diff from GitHub or GitHub
// Enterprise.
type GitHubSource struct {
	baseURL    string
	token      string
	owner      string
	repo       string
	httpClient *http.Client
}

// NewGitHubSource creates a GitHub patch source.
// owner/repo identifies the repository. token is used for authentication
// and may be empty for public repositories. If baseURL is empty, it
// defaults to https://api.github.com.
func NewGitHubSource(owner, repo, token, baseURL string) *GitHubSource {
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	return &GitHubSource{
		baseURL:    baseURL,
		token:      token,
		owner:      owner,
		repo:       repo,
		httpClient: &http.Client{},
	}
}

// NewGitHubSourceFromEnv creates a GitHubSource using standard environment
// variables, with tokenEnv naming the variable holding the access token.
func NewGitHubSourceFromEnv(tokenEnv string) (*GitHubSource, error) {
	token := os.Getenv(tokenEnv)

	repository := os.Getenv("GITHUB_REPOSITORY")
	if repository == "" {
		return nil, fmt.Errorf("source: GITHUB_REPOSITORY not set")
	}

	parts := strings.SplitN(repository, "/", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("source: invalid GITHUB_REPOSITORY format %q, expected owner/repo", repository)
	}

	baseURL := "https://api.github.com"
	if host := os.Getenv("GH_HOST"); host != "" && host != "github.com" {
		baseURL = fmt.Sprintf("https://%s/api/v3", host)
	}
	if serverURL := os.Getenv("GITHUB_API_URL"); serverURL != "" {
		baseURL = serverURL
	}

	return NewGitHubSource(parts[0], parts[1], token, baseURL), nil
}

// OpenPullRequestDiff returns a stream of the raw diff bytes for the given
// pull request number. The caller is responsible for closing the returned
// reader, and for any decompression its contents might need (GitHub always
// serves this endpoint uncompressed, but a caller layering this source
// behind a generic HTTP cache must not assume that holds everywhere).
func (g *GitHubSource) OpenPullRequestDiff(ctx context.Context, prNumber string) (io.ReadCloser, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%s", g.baseURL, g.owner, g.repo, prNumber)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("source: creating GitHub diff request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github.diff")
	g.setAuth(req)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("source: fetching GitHub diff: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("source: GitHub diff request returned %d", resp.StatusCode)
	}

	return resp.Body, nil
}

func (g *GitHubSource) setAuth(req *http.Request) {
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}
}
