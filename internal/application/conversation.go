package application

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ericfisherdev/prcomment/internal/domain/model"
)

// ResolveChain finds the top-level comment of the thread containing comment
// and returns the flattened conversation rooted there.
func (s *CommentService) ResolveChain(ctx context.Context, prNumber int, comment model.Comment) (model.ConversationChain, model.Comment) {
	all := s.listReviewComments(ctx, model.Target{RepoFullName: s.repoFullName, Number: prNumber})
	return resolveChain(all, comment)
}

// ResolveChainByID is ResolveChain for a comment known only by id. ok is false
// when the id is not among the listed review comments.
func (s *CommentService) ResolveChainByID(ctx context.Context, prNumber int, commentID int64) (chain model.ConversationChain, root model.Comment, ok bool) {
	all := s.listReviewComments(ctx, model.Target{RepoFullName: s.repoFullName, Number: prNumber})
	for _, c := range all {
		if c.ID == commentID {
			chain, root = resolveChain(all, c)
			return chain, root, true
		}
	}
	slog.Warn("review comment not found", "number", prNumber, "comment_id", commentID, "listed", len(all))
	return nil, model.Comment{}, false
}

// resolveChain walks reply links upward from start to the thread root. A
// missing parent ends the walk at the last comment found, and the walk is
// capped at the size of the set so a reply cycle cannot loop forever. The
// chain holds the root followed by its direct replies in listing order;
// replies to replies are not re-linked.
func resolveChain(all []model.Comment, start model.Comment) (model.ConversationChain, model.Comment) {
	byID := make(map[int64]model.Comment, len(all))
	for _, c := range all {
		if _, seen := byID[c.ID]; !seen {
			byID[c.ID] = c
		}
	}

	root := start
	for steps := 0; root.IsReply() && steps <= len(all); steps++ {
		parent, ok := byID[*root.InReplyToID]
		if !ok {
			break
		}
		root = parent
	}

	chain := model.ConversationChain{{Author: root.Author, Body: root.Body}}
	for _, c := range all {
		if c.ID != root.ID && c.IsReply() && *c.InReplyToID == root.ID {
			chain = append(chain, model.ChainEntry{Author: c.Author, Body: c.Body})
		}
	}

	return chain, root
}

// MarkThreadReplied rewrites the comment tag on root to the reply tag so later
// runs see the thread has been answered. It returns the updated comment, or
// nil when root carries no comment tag or the update failed.
func (s *CommentService) MarkThreadReplied(ctx context.Context, root model.Comment) *model.Comment {
	if !model.TagComment.In(root.Body) {
		return nil
	}

	body := strings.Replace(root.Body, model.TagComment.Marker(), model.TagReply.Marker(), 1)
	updated, err := s.store.UpdateReviewComment(ctx, s.repoFullName, root.ID, body)
	if err != nil {
		slog.Warn("failed to mark thread as replied", "comment_id", root.ID, "error", err)
		return nil
	}
	return updated
}

// ReviewCommentReply posts message as a tagged reply in the thread rooted at
// root, then marks the thread as replied. The two writes are independent: a
// failed reply does not prevent the tag rewrite.
func (s *CommentService) ReviewCommentReply(ctx context.Context, prNumber int, root model.Comment, message string) *model.Comment {
	if prNumber <= 0 || s.repoFullName == "" {
		slog.Warn("skipping review reply: no pull request", "repo", s.repoFullName)
		return nil
	}

	reply, err := s.store.ReplyToReviewComment(ctx, s.repoFullName, prNumber, root.ID, s.Body(message, model.TagReply))
	if err != nil {
		slog.Warn("failed to reply to review comment", "number", prNumber, "comment_id", root.ID, "error", err)
		reply = nil
	}

	s.MarkThreadReplied(ctx, root)
	return reply
}
