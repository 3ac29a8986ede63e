// Package driven defines secondary port interfaces for external adapters.
package driven

import (
	"context"

	"github.com/ericfisherdev/prcomment/internal/domain/model"
)

// CommentStore defines the driven port for the remote code-review service.
// List methods return a single page; callers own pagination. Pages are
// 1-based and returned in the store's native order (oldest first).
type CommentStore interface {
	// Issue comments (top-level discussion on an issue or pull request).

	ListIssueComments(ctx context.Context, repoFullName string, number, page, perPage int) ([]model.Comment, error)
	CreateIssueComment(ctx context.Context, repoFullName string, number int, body string) (*model.Comment, error)
	UpdateIssueComment(ctx context.Context, repoFullName string, commentID int64, body string) (*model.Comment, error)

	// Review comments (anchored to a diff line).

	ListReviewComments(ctx context.Context, repoFullName string, prNumber, page, perPage int) ([]model.Comment, error)
	CreateReviewComment(ctx context.Context, repoFullName string, prNumber int, anchor model.Anchor, body string) (*model.Comment, error)
	UpdateReviewComment(ctx context.Context, repoFullName string, commentID int64, body string) (*model.Comment, error)
	// ReplyToReviewComment posts a reply in the thread rooted at commentID.
	ReplyToReviewComment(ctx context.Context, repoFullName string, prNumber int, commentID int64, body string) (*model.Comment, error)

	// Pull request description.

	GetPullRequestBody(ctx context.Context, repoFullName string, prNumber int) (string, error)
	UpdatePullRequestBody(ctx context.Context, repoFullName string, prNumber int, body string) error
}
