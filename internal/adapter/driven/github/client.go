// Package github implements the CommentStore port using the go-github library.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/ericfisherdev/prcomment/internal/domain/model"
	"github.com/ericfisherdev/prcomment/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CommentStore = (*Client)(nil)

// Client implements the driven.CommentStore port using the go-github library.
type Client struct {
	gh *gh.Client
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching for list calls)
//  2. revalidateTransport (every GET is revalidated, never served from memory)
//  3. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  4. go-github (GitHub REST API client with token auth)
//
// apiURL selects a GitHub Enterprise Server instance; empty means github.com.
func NewClient(token, apiURL string) (*Client, error) {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(revalidateTransport{next: cacheTransport})
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	if apiURL != "" && !isPublicAPI(apiURL) {
		var err error
		client, err = client.WithEnterpriseURLs(apiURL, apiURL)
		if err != nil {
			return nil, fmt.Errorf("configuring enterprise URL %q: %w", apiURL, err)
		}
	}

	return &Client{gh: client}, nil
}

// revalidateTransport makes httpcache revalidate every GET by ETag instead of
// answering from memory while the server's max-age holds. Comment writes land
// on other URLs and never invalidate a cached listing.
type revalidateTransport struct {
	next http.RoundTripper
}

func (t revalidateTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet || req.Header.Get("Cache-Control") != "" {
		return t.next.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	req.Header.Set("Cache-Control", "max-age=0")
	return t.next.RoundTrip(req)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client}, nil
}

// ListIssueComments returns one page of issue comments for an issue or pull request.
func (c *Client) ListIssueComments(ctx context.Context, repoFullName string, number, page, perPage int) ([]model.Comment, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	opts := &gh.IssueListCommentsOptions{
		ListOptions: gh.ListOptions{Page: page, PerPage: perPage},
	}

	comments, resp, err := c.gh.Issues.ListComments(ctx, owner, repo, number, opts)
	if err != nil {
		return nil, fmt.Errorf("listing issue comments for %s#%d (page %d): %w", repoFullName, number, page, err)
	}

	logRateLimit(resp, repoFullName+"/issue-comments", page, len(comments))

	result := make([]model.Comment, 0, len(comments))
	for _, comment := range comments {
		result = append(result, mapIssueComment(comment))
	}
	return result, nil
}

// CreateIssueComment adds a top-level comment to an issue or pull request.
func (c *Client) CreateIssueComment(ctx context.Context, repoFullName string, number int, body string) (*model.Comment, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	created, resp, err := c.gh.Issues.CreateComment(ctx, owner, repo, number, &gh.IssueComment{
		Body: gh.Ptr(body),
	})
	if err != nil {
		return nil, fmt.Errorf("creating comment on %s#%d: %w", repoFullName, number, err)
	}

	logRateLimit(resp, repoFullName+"/create-comment", 0, 1)

	comment := mapIssueComment(created)
	return &comment, nil
}

// UpdateIssueComment overwrites the body of an existing issue comment.
func (c *Client) UpdateIssueComment(ctx context.Context, repoFullName string, commentID int64, body string) (*model.Comment, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	updated, resp, err := c.gh.Issues.EditComment(ctx, owner, repo, commentID, &gh.IssueComment{
		Body: gh.Ptr(body),
	})
	if err != nil {
		return nil, fmt.Errorf("updating comment %d on %s: %w", commentID, repoFullName, err)
	}

	logRateLimit(resp, repoFullName+"/update-comment", 0, 1)

	comment := mapIssueComment(updated)
	return &comment, nil
}

// ListReviewComments returns one page of review comments (inline code comments)
// for a pull request.
func (c *Client) ListReviewComments(ctx context.Context, repoFullName string, prNumber, page, perPage int) ([]model.Comment, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	opts := &gh.PullRequestListCommentsOptions{
		ListOptions: gh.ListOptions{Page: page, PerPage: perPage},
	}

	comments, resp, err := c.gh.PullRequests.ListComments(ctx, owner, repo, prNumber, opts)
	if err != nil {
		return nil, fmt.Errorf("listing review comments for %s#%d (page %d): %w", repoFullName, prNumber, page, err)
	}

	logRateLimit(resp, repoFullName+"/review-comments", page, len(comments))

	result := make([]model.Comment, 0, len(comments))
	for _, comment := range comments {
		result = append(result, mapReviewComment(comment))
	}
	return result, nil
}

// CreateReviewComment creates a review comment anchored at the given commit, path and line.
func (c *Client) CreateReviewComment(ctx context.Context, repoFullName string, prNumber int, anchor model.Anchor, body string) (*model.Comment, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	created, resp, err := c.gh.PullRequests.CreateComment(ctx, owner, repo, prNumber, &gh.PullRequestComment{
		Body:     gh.Ptr(body),
		CommitID: gh.Ptr(anchor.CommitID),
		Path:     gh.Ptr(anchor.Path),
		Line:     gh.Ptr(anchor.Line),
	})
	if err != nil {
		return nil, fmt.Errorf("creating review comment on %s#%d at %s:%d: %w", repoFullName, prNumber, anchor.Path, anchor.Line, err)
	}

	logRateLimit(resp, repoFullName+"/create-review-comment", 0, 1)

	comment := mapReviewComment(created)
	return &comment, nil
}

// UpdateReviewComment overwrites the body of a review comment. The anchor and
// commit are left untouched.
func (c *Client) UpdateReviewComment(ctx context.Context, repoFullName string, commentID int64, body string) (*model.Comment, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	updated, resp, err := c.gh.PullRequests.EditComment(ctx, owner, repo, commentID, &gh.PullRequestComment{
		Body: gh.Ptr(body),
	})
	if err != nil {
		return nil, fmt.Errorf("updating review comment %d on %s: %w", commentID, repoFullName, err)
	}

	logRateLimit(resp, repoFullName+"/update-review-comment", 0, 1)

	comment := mapReviewComment(updated)
	return &comment, nil
}

// ReplyToReviewComment replies to an existing review comment thread.
// commentID must be the root comment ID of the thread.
func (c *Client) ReplyToReviewComment(ctx context.Context, repoFullName string, prNumber int, commentID int64, body string) (*model.Comment, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	created, resp, err := c.gh.PullRequests.CreateCommentInReplyTo(ctx, owner, repo, prNumber, body, commentID)
	if err != nil {
		return nil, fmt.Errorf("replying to comment %d on %s#%d: %w", commentID, repoFullName, prNumber, err)
	}

	logRateLimit(resp, repoFullName+"/reply-comment", 0, 1)

	comment := mapReviewComment(created)
	return &comment, nil
}

// GetPullRequestBody returns the free-text description of a pull request.
func (c *Client) GetPullRequestBody(ctx context.Context, repoFullName string, prNumber int) (string, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return "", err
	}

	pr, resp, err := c.gh.PullRequests.Get(ctx, owner, repo, prNumber)
	if err != nil {
		return "", fmt.Errorf("fetching pull request %s#%d: %w", repoFullName, prNumber, err)
	}

	logRateLimit(resp, repoFullName+"/pr", 0, 1)

	return pr.GetBody(), nil
}

// UpdatePullRequestBody replaces the free-text description of a pull request.
func (c *Client) UpdatePullRequestBody(ctx context.Context, repoFullName string, prNumber int, body string) error {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return err
	}

	_, resp, err := c.gh.PullRequests.Edit(ctx, owner, repo, prNumber, &gh.PullRequest{
		Body: gh.Ptr(body),
	})
	if err != nil {
		return fmt.Errorf("updating description of %s#%d: %w", repoFullName, prNumber, err)
	}

	logRateLimit(resp, repoFullName+"/update-pr", 0, 1)
	return nil
}

// mapReviewComment converts a go-github PullRequestComment to a domain model Comment.
func mapReviewComment(c *gh.PullRequestComment) model.Comment {
	var inReplyTo *int64
	if c.InReplyTo != nil {
		val := c.GetInReplyTo()
		inReplyTo = &val
	}

	return model.Comment{
		ID:          c.GetID(),
		Author:      c.GetUser().GetLogin(),
		Body:        c.GetBody(),
		Path:        c.GetPath(),
		Line:        c.GetLine(),
		CommitID:    c.GetCommitID(),
		InReplyToID: inReplyTo,
		CreatedAt:   c.GetCreatedAt().Time,
		UpdatedAt:   c.GetUpdatedAt().Time,
	}
}

// mapIssueComment converts a go-github IssueComment to a domain model Comment.
func mapIssueComment(c *gh.IssueComment) model.Comment {
	return model.Comment{
		ID:        c.GetID(),
		Author:    c.GetUser().GetLogin(),
		Body:      c.GetBody(),
		CreatedAt: c.GetCreatedAt().Time,
		UpdatedAt: c.GetUpdatedAt().Time,
	}
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// isPublicAPI reports whether apiURL points at the public github.com API.
func isPublicAPI(apiURL string) bool {
	u, err := url.Parse(apiURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, "api.github.com")
}

// splitRepo splits a "owner/repo" string into its two components.
func splitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo name %q: expected owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}
