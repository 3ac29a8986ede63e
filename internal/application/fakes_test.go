package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ericfisherdev/prcomment/internal/domain/model"
	"github.com/ericfisherdev/prcomment/internal/domain/port/driven"
)

var errRemote = errors.New("remote unavailable")

// --- In-memory CommentStore ---

type fakeStore struct {
	issueComments  []model.Comment
	reviewComments []model.Comment
	prBody         string
	nextID         int64

	failIssuePage  int // 1-based page of ListIssueComments that fails; 0 disables.
	failReviewPage int
	failWrites     bool
	failPRRead     bool

	listCalls    int
	createCalls  int
	updateCalls  int
	replyCalls   int
	lastAnchor   model.Anchor
	lastReplyTo  int64
	prBodyWrites int
}

var _ driven.CommentStore = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1000}
}

func page(items []model.Comment, page, perPage int) []model.Comment {
	start := (page - 1) * perPage
	if start >= len(items) {
		return []model.Comment{}
	}
	end := min(start+perPage, len(items))
	out := make([]model.Comment, end-start)
	copy(out, items[start:end])
	return out
}

func (f *fakeStore) ListIssueComments(_ context.Context, _ string, _ int, p, perPage int) ([]model.Comment, error) {
	f.listCalls++
	if f.failIssuePage == p {
		return nil, errRemote
	}
	return page(f.issueComments, p, perPage), nil
}

func (f *fakeStore) CreateIssueComment(_ context.Context, _ string, _ int, body string) (*model.Comment, error) {
	f.createCalls++
	if f.failWrites {
		return nil, errRemote
	}
	f.nextID++
	c := model.Comment{ID: f.nextID, Author: "bot", Body: body}
	f.issueComments = append(f.issueComments, c)
	return &c, nil
}

func (f *fakeStore) UpdateIssueComment(_ context.Context, _ string, commentID int64, body string) (*model.Comment, error) {
	f.updateCalls++
	if f.failWrites {
		return nil, errRemote
	}
	for i := range f.issueComments {
		if f.issueComments[i].ID == commentID {
			f.issueComments[i].Body = body
			c := f.issueComments[i]
			return &c, nil
		}
	}
	return nil, errors.New("comment not found")
}

func (f *fakeStore) ListReviewComments(_ context.Context, _ string, _ int, p, perPage int) ([]model.Comment, error) {
	f.listCalls++
	if f.failReviewPage == p {
		return nil, errRemote
	}
	return page(f.reviewComments, p, perPage), nil
}

func (f *fakeStore) CreateReviewComment(_ context.Context, _ string, _ int, anchor model.Anchor, body string) (*model.Comment, error) {
	f.createCalls++
	f.lastAnchor = anchor
	if f.failWrites {
		return nil, errRemote
	}
	f.nextID++
	c := model.Comment{ID: f.nextID, Author: "bot", Body: body, Path: anchor.Path, Line: anchor.Line, CommitID: anchor.CommitID}
	f.reviewComments = append(f.reviewComments, c)
	return &c, nil
}

func (f *fakeStore) UpdateReviewComment(_ context.Context, _ string, commentID int64, body string) (*model.Comment, error) {
	f.updateCalls++
	if f.failWrites {
		return nil, errRemote
	}
	for i := range f.reviewComments {
		if f.reviewComments[i].ID == commentID {
			f.reviewComments[i].Body = body
			c := f.reviewComments[i]
			return &c, nil
		}
	}
	return nil, errors.New("review comment not found")
}

func (f *fakeStore) ReplyToReviewComment(_ context.Context, _ string, _ int, commentID int64, body string) (*model.Comment, error) {
	f.replyCalls++
	f.lastReplyTo = commentID
	if f.failWrites {
		return nil, errRemote
	}
	f.nextID++
	parent := commentID
	c := model.Comment{ID: f.nextID, Author: "bot", Body: body, InReplyToID: &parent}
	f.reviewComments = append(f.reviewComments, c)
	return &c, nil
}

func (f *fakeStore) GetPullRequestBody(_ context.Context, _ string, _ int) (string, error) {
	if f.failPRRead {
		return "", errRemote
	}
	return f.prBody, nil
}

func (f *fakeStore) UpdatePullRequestBody(_ context.Context, _ string, _ int, body string) error {
	f.prBodyWrites++
	if f.failWrites {
		return errRemote
	}
	f.prBody = body
	return nil
}

func (f *fakeStore) writeCalls() int {
	return f.createCalls + f.updateCalls
}

// --- In-memory TargetLocker ---

type fakeLocker struct {
	mu        sync.Mutex
	holders   map[string]string
	heldFor   int   // Number of Acquire calls that report ErrLockHeld before succeeding.
	failWith  error // Returned from Acquire when set.
	acquired  []string
	released  []string
	lastLease time.Duration
}

var _ driven.TargetLocker = (*fakeLocker)(nil)

func newFakeLocker() *fakeLocker {
	return &fakeLocker{holders: make(map[string]string)}
}

func (l *fakeLocker) Acquire(_ context.Context, key, holder string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failWith != nil {
		return l.failWith
	}
	if l.heldFor > 0 {
		l.heldFor--
		return driven.ErrLockHeld
	}
	if current, ok := l.holders[key]; ok && current != holder {
		return driven.ErrLockHeld
	}
	l.holders[key] = holder
	l.acquired = append(l.acquired, key)
	l.lastLease = ttl
	return nil
}

func (l *fakeLocker) Release(_ context.Context, key, holder string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holders[key] == holder {
		delete(l.holders, key)
	}
	l.released = append(l.released, key)
	return nil
}

// --- Helper functions ---

func int64Ptr(v int64) *int64 {
	return &v
}

func newTestService(store *fakeStore) *CommentService {
	return NewCommentService(store, nil, ServiceConfig{
		RepoFullName: "owner/repo",
		Greeting:     "GREETING",
		PageSize:     3,
	})
}
