package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/prcomment/internal/domain/model"
	"github.com/ericfisherdev/prcomment/internal/domain/port/driven"
)

// DefaultGreeting opens every comment body the service writes.
const DefaultGreeting = ":robot: prcomment"

const (
	// lockLease bounds how long a crashed run can keep a target locked.
	lockLease        = 2 * time.Minute
	lockPollInterval = 250 * time.Millisecond
)

// ServiceConfig is the explicit configuration of a CommentService.
type ServiceConfig struct {
	RepoFullName string
	Greeting     string        // Defaults to DefaultGreeting.
	PageSize     int           // Defaults to 100.
	LockTimeout  time.Duration // How long to wait for the target lock; only used with a locker.
}

// CommentService reconciles the comments this tool authors on a pull request
// or issue. Every exported method absorbs remote failures: they are logged at
// warn level and reported as a nil or empty result, never returned.
type CommentService struct {
	store        driven.CommentStore
	locker       driven.TargetLocker
	repoFullName string
	greeting     string
	pageSize     int
	lockTimeout  time.Duration
	holder       string
}

// NewCommentService creates a CommentService. locker may be nil, in which case
// concurrent runs are not serialized.
func NewCommentService(store driven.CommentStore, locker driven.TargetLocker, cfg ServiceConfig) *CommentService {
	greeting := cfg.Greeting
	if greeting == "" {
		greeting = DefaultGreeting
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	lockTimeout := cfg.LockTimeout
	if lockTimeout <= 0 {
		lockTimeout = 30 * time.Second
	}

	return &CommentService{
		store:        store,
		locker:       locker,
		repoFullName: cfg.RepoFullName,
		greeting:     greeting,
		pageSize:     pageSize,
		lockTimeout:  lockTimeout,
		holder:       uuid.NewString(),
	}
}

// Body returns the canonical comment body: greeting, message and tag marker
// separated by blank lines.
func (s *CommentService) Body(message string, tag model.Tag) string {
	return s.greeting + "\n\n" + message + "\n\n" + tag.Marker()
}

// Comment posts message on the issue or pull request number according to mode.
// It returns the written comment, or nil if nothing was written.
func (s *CommentService) Comment(ctx context.Context, number int, message string, tag model.Tag, mode model.Mode) *model.Comment {
	target := model.Target{RepoFullName: s.repoFullName, Number: number}
	if !target.Resolved() {
		slog.Warn("skipping comment: no pull request or issue to comment on",
			"repo", s.repoFullName,
			"tag", string(tag),
		)
		return nil
	}

	var written *model.Comment
	s.withTargetLock(ctx, lockKey(target, string(tag)), func() {
		var err error
		written, err = s.reconcile(ctx, target, message, tag, mode)
		if err != nil {
			slog.Warn("failed to write comment",
				"repo", target.RepoFullName,
				"number", target.Number,
				"tag", string(tag),
				"mode", string(mode),
				"error", err,
			)
			written = nil
		}
	})
	return written
}

// reconcile issues exactly one create or update call for target.
func (s *CommentService) reconcile(ctx context.Context, target model.Target, message string, tag model.Tag, mode model.Mode) (*model.Comment, error) {
	body := s.Body(message, tag)

	if mode == model.ModeCreate {
		return s.store.CreateIssueComment(ctx, target.RepoFullName, target.Number, body)
	}

	existing := findTagged(s.listIssueComments(ctx, target), tag)
	if existing == nil {
		return s.store.CreateIssueComment(ctx, target.RepoFullName, target.Number, body)
	}

	switch mode {
	case model.ModeAppend:
		body = existing.Body + "\n" + body
	case model.ModePrepend:
		body = body + "\n" + existing.Body
	case model.ModeReplace:
	default:
		slog.Warn("unknown comment mode, replacing", "mode", string(mode))
	}

	return s.store.UpdateIssueComment(ctx, target.RepoFullName, existing.ID, body)
}

// UpdateDescription sets the release notes block of a pull request description
// to message, leaving the rest of the description untouched. It returns the new
// description and whether it was written.
func (s *CommentService) UpdateDescription(ctx context.Context, prNumber int, message string) (string, bool) {
	target := model.Target{RepoFullName: s.repoFullName, Number: prNumber}
	if !target.Resolved() {
		slog.Warn("skipping description update: no pull request", "repo", s.repoFullName)
		return "", false
	}

	var (
		updated string
		ok      bool
	)
	s.withTargetLock(ctx, lockKey(target, "description"), func() {
		existing, err := s.store.GetPullRequestBody(ctx, target.RepoFullName, target.Number)
		if err != nil {
			slog.Warn("failed to read pull request description", "number", prNumber, "error", err)
			return
		}

		next := SpliceDescription(existing, model.ReleaseNotesBlock, message)
		if err := s.store.UpdatePullRequestBody(ctx, target.RepoFullName, target.Number, next); err != nil {
			slog.Warn("failed to update pull request description", "number", prNumber, "error", err)
			return
		}
		updated, ok = next, true
	})
	return updated, ok
}

// ReviewComment writes message as the review comment carrying tag at anchor,
// updating the existing one at the same path and line if present. Anchors are
// matched against a fresh listing on every call.
func (s *CommentService) ReviewComment(ctx context.Context, prNumber int, anchor model.Anchor, message string, tag model.Tag) *model.Comment {
	target := model.Target{RepoFullName: s.repoFullName, Number: prNumber}
	if !target.Resolved() {
		slog.Warn("skipping review comment: no pull request", "repo", s.repoFullName)
		return nil
	}

	var written *model.Comment
	key := lockKey(target, fmt.Sprintf("%s:%d:%s", anchor.Path, anchor.Line, tag))
	s.withTargetLock(ctx, key, func() {
		body := s.Body(message, tag)
		comments := s.listReviewComments(ctx, target)

		var err error
		if existing := findTaggedAt(comments, tag, anchor.Path, anchor.Line); existing != nil {
			written, err = s.store.UpdateReviewComment(ctx, target.RepoFullName, existing.ID, body)
		} else {
			written, err = s.store.CreateReviewComment(ctx, target.RepoFullName, target.Number, anchor, body)
		}
		if err != nil {
			slog.Warn("failed to write review comment",
				"number", prNumber,
				"path", anchor.Path,
				"line", anchor.Line,
				"error", err,
			)
			written = nil
		}
	})
	return written
}

func (s *CommentService) listIssueComments(ctx context.Context, target model.Target) []model.Comment {
	return collectPages(ctx, s.pageSize, func(ctx context.Context, page, perPage int) ([]model.Comment, error) {
		return s.store.ListIssueComments(ctx, target.RepoFullName, target.Number, page, perPage)
	})
}

func (s *CommentService) listReviewComments(ctx context.Context, target model.Target) []model.Comment {
	return collectPages(ctx, s.pageSize, func(ctx context.Context, page, perPage int) ([]model.Comment, error) {
		return s.store.ListReviewComments(ctx, target.RepoFullName, target.Number, page, perPage)
	})
}

// withTargetLock runs fn while holding the advisory lock for key. Without a
// locker, or when the lock cannot be taken in time, fn runs unlocked.
func (s *CommentService) withTargetLock(ctx context.Context, key string, fn func()) {
	if s.locker == nil {
		fn()
		return
	}

	if s.acquire(ctx, key) {
		defer func() {
			if err := s.locker.Release(context.WithoutCancel(ctx), key, s.holder); err != nil {
				slog.Warn("failed to release target lock", "key", key, "error", err)
			}
		}()
	}
	fn()
}

func (s *CommentService) acquire(ctx context.Context, key string) bool {
	waitCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		err := s.locker.Acquire(waitCtx, key, s.holder, lockLease)
		if err == nil {
			return true
		}
		if !errors.Is(err, driven.ErrLockHeld) {
			slog.Warn("target lock unavailable, proceeding unlocked", "key", key, "error", err)
			return false
		}

		select {
		case <-waitCtx.Done():
			slog.Warn("timed out waiting for target lock, proceeding unlocked",
				"key", key,
				"timeout", s.lockTimeout,
			)
			return false
		case <-ticker.C:
		}
	}
}

// lockKey identifies one logical comment slot of a target.
func lockKey(target model.Target, slot string) string {
	return fmt.Sprintf("%s#%d:%s", target.RepoFullName, target.Number, slot)
}
