package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// GitHubClient upserts the summary comment on a pull request.
type GitHubClient struct {
	BaseURL    string // override for tests; defaults to the public API
	Token      string
	Repo       string // "owner/name"
	httpClient *http.Client
}

// NewGitHubClient creates a client for the repository's issue-comment API.
func NewGitHubClient(token, repo string) *GitHubClient {
	return &GitHubClient{
		BaseURL:    "https://api.github.com",
		Token:      token,
		Repo:       repo,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type issueComment struct {
	ID   int64  `json:"id"`
	Body string `json:"body"`
}

// UpsertComment creates the summary comment on the pull request, or
// updates the existing one identified by the stable marker.
func (c *GitHubClient) UpsertComment(ctx context.Context, prNumber int, body string) error {
	existing, err := c.findMarked(ctx, prNumber)
	if err != nil {
		return fmt.Errorf("list comments: %w", err)
	}

	if existing != 0 {
		url := fmt.Sprintf("%s/repos/%s/issues/comments/%d", c.BaseURL, c.Repo, existing)
		return c.send(ctx, http.MethodPatch, url, body)
	}

	url := fmt.Sprintf("%s/repos/%s/issues/%d/comments", c.BaseURL, c.Repo, prNumber)
	return c.send(ctx, http.MethodPost, url, body)
}

// findMarked returns the ID of the comment carrying the marker, or 0.
func (c *GitHubClient) findMarked(ctx context.Context, prNumber int) (int64, error) {
	url := fmt.Sprintf("%s/repos/%s/issues/%d/comments?per_page=100", c.BaseURL, c.Repo, prNumber)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	c.auth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var comments []issueComment
	if err := json.NewDecoder(resp.Body).Decode(&comments); err != nil {
		return 0, err
	}

	for _, comment := range comments {
		if strings.Contains(comment.Body, CommentMarker) {
			return comment.ID, nil
		}
	}
	return 0, nil
}

func (c *GitHubClient) send(ctx context.Context, method, url, body string) error {
	payload, err := json.Marshal(map[string]string{"body": body})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	c.auth(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *GitHubClient) auth(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
}
