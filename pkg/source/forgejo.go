package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// ForgejoSource fetches a pull request's diff from a Forgejo or Gitea
// instance.
type ForgejoSource struct {
	baseURL    string
	token      string
	owner      string
	repo       string
	httpClient *http.Client
}

// NewForgejoSource creates a Forgejo/Gitea patch source. baseURL should be
// the server URL (e.g. https://codeberg.org).
func NewForgejoSource(owner, repo, token, baseURL string) *ForgejoSource {
	baseURL = strings.TrimRight(baseURL, "/")

	return &ForgejoSource{
		baseURL:    baseURL,
		token:      token,
		owner:      owner,
		repo:       repo,
		httpClient: &http.Client{},
	}
}

// NewForgejoSourceFromEnv creates a ForgejoSource using standard environment
// variables, with tokenEnv naming the variable holding the access token.
func NewForgejoSourceFromEnv(tokenEnv string) (*ForgejoSource, error) {
	token := os.Getenv(tokenEnv)
	if token == "" {
		token = os.Getenv("GITEA_TOKEN")
	}

	serverURL := os.Getenv("CI_SERVER_URL")
	if serverURL == "" {
		serverURL = os.Getenv("GITEA_SERVER_URL")
	}
	if serverURL == "" {
		return nil, fmt.Errorf("source: CI_SERVER_URL or GITEA_SERVER_URL not set")
	}

	repository := os.Getenv("GITHUB_REPOSITORY")
	if repository == "" {
		return nil, fmt.Errorf("source: GITHUB_REPOSITORY not set (Forgejo Actions uses GitHub-compatible env vars)")
	}

	parts := strings.SplitN(repository, "/", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("source: invalid GITHUB_REPOSITORY format %q, expected owner/repo", repository)
	}

	return NewForgejoSource(parts[0], parts[1], token, serverURL), nil
}

// OpenPullRequestDiff returns a stream of the raw diff bytes for the given
// pull request index. The caller is responsible for closing the returned
// reader.
func (f *ForgejoSource) OpenPullRequestDiff(ctx context.Context, prIndex string) (io.ReadCloser, error) {
	url := fmt.Sprintf("%s/api/v1/repos/%s/%s/pulls/%s.diff", f.baseURL, f.owner, f.repo, prIndex)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("source: creating Forgejo diff request: %w", err)
	}

	f.setAuth(req)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("source: fetching Forgejo diff: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("source: Forgejo diff request returned %d", resp.StatusCode)
	}

	return resp.Body, nil
}

func (f *ForgejoSource) setAuth(req *http.Request) {
	if f.token != "" {
		req.Header.Set("Authorization", "token "+f.token)
	}
}
