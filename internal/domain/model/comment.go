package model

import "time"

// Comment is a single issue comment or pull request review comment as listed
// by the remote store. Issue comments have no anchor and no reply link.
type Comment struct {
	ID          int64
	Author      string
	Body        string
	Path        string // Empty for issue comments.
	Line        int    // Zero for issue comments and file-level review comments.
	CommitID    string
	InReplyToID *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasAnchor reports whether the comment is pinned to a file line.
func (c Comment) HasAnchor() bool {
	return c.Path != "" && c.Line > 0
}

// IsReply reports whether the comment replies to another review comment.
func (c Comment) IsReply() bool {
	return c.InReplyToID != nil
}

// Anchor locates a review comment on a diff line at a given commit.
type Anchor struct {
	CommitID string
	Path     string
	Line     int
}

// Target identifies the issue or pull request a comment is attached to.
// A zero Number means no issue or pull request context could be resolved.
type Target struct {
	RepoFullName string
	Number       int
}

// Resolved reports whether the target points at a concrete issue or pull request.
func (t Target) Resolved() bool {
	return t.RepoFullName != "" && t.Number > 0
}
