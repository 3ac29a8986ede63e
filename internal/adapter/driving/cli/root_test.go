package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/prcomment/internal/domain/model"
)

// --- Mock Commenter ---

type commentCall struct {
	number  int
	message string
	tag     model.Tag
	mode    model.Mode
}

type mockCommenter struct {
	comments     []commentCall
	descriptions []string
	anchors      []model.Anchor
	reviewTags   []model.Tag
	replies      []model.Comment
	descNumber   int
	result       *model.Comment
	descOK       bool
	chain        model.ConversationChain
	root         model.Comment
	chainFound   bool
	chainLookups []int64
}

func (m *mockCommenter) Body(message string, tag model.Tag) string {
	return "**bot**\n\n" + message + "\n\n" + tag.Marker()
}

func (m *mockCommenter) Comment(_ context.Context, number int, message string, tag model.Tag, mode model.Mode) *model.Comment {
	m.comments = append(m.comments, commentCall{number: number, message: message, tag: tag, mode: mode})
	return m.result
}

func (m *mockCommenter) UpdateDescription(_ context.Context, prNumber int, message string) (string, bool) {
	m.descNumber = prNumber
	m.descriptions = append(m.descriptions, message)
	return message, m.descOK
}

func (m *mockCommenter) ReviewComment(_ context.Context, _ int, anchor model.Anchor, _ string, tag model.Tag) *model.Comment {
	m.anchors = append(m.anchors, anchor)
	m.reviewTags = append(m.reviewTags, tag)
	return m.result
}

func (m *mockCommenter) ResolveChainByID(_ context.Context, _ int, commentID int64) (model.ConversationChain, model.Comment, bool) {
	m.chainLookups = append(m.chainLookups, commentID)
	return m.chain, m.root, m.chainFound
}

func (m *mockCommenter) ReviewCommentReply(_ context.Context, _ int, root model.Comment, _ string) *model.Comment {
	m.replies = append(m.replies, root)
	return m.result
}

// execute runs the command tree with args and returns stdout. Setup yields svc
// and defaultNumber as the environment-resolved target.
func execute(t *testing.T, svc Commenter, defaultNumber int, args ...string) (string, error) {
	t.Helper()
	return run(t, func(context.Context) (Commenter, int, error) {
		return svc, defaultNumber, nil
	}, args...)
}

func run(t *testing.T, setup Setup, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(setup)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommentCmd_Defaults(t *testing.T) {
	svc := &mockCommenter{result: &model.Comment{ID: 77}}

	out, err := execute(t, svc, 42, "comment", "-m", "Hello")

	require.NoError(t, err)
	require.Len(t, svc.comments, 1)
	assert.Equal(t, commentCall{number: 42, message: "Hello", tag: model.TagComment, mode: model.ModeReplace}, svc.comments[0])
	assert.Equal(t, "comment_id=77\n", out)
}

func TestCommentCmd_FlagsOverride(t *testing.T) {
	svc := &mockCommenter{}

	out, err := execute(t, svc, 42, "comment", "-m", "Hi", "--tag", "Summary", "--mode", "append", "--number", "9")

	require.NoError(t, err)
	require.Len(t, svc.comments, 1)
	assert.Equal(t, 9, svc.comments[0].number)
	assert.Equal(t, model.TagSummary, svc.comments[0].tag)
	assert.Equal(t, model.ModeAppend, svc.comments[0].mode)
	assert.Equal(t, "comment_id=none\n", out)
}

func TestCommentCmd_UnknownModeFallsBackToReplace(t *testing.T) {
	svc := &mockCommenter{}

	_, err := execute(t, svc, 1, "comment", "-m", "Hi", "--mode", "upsert")

	require.NoError(t, err)
	require.Len(t, svc.comments, 1)
	assert.Equal(t, model.ModeReplace, svc.comments[0].mode)
}

func TestCommentCmd_MessageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "msg.md")
	require.NoError(t, os.WriteFile(path, []byte("## Report\n\nall good"), 0o600))
	svc := &mockCommenter{}

	_, err := execute(t, svc, 1, "comment", "--message-file", path)

	require.NoError(t, err)
	require.Len(t, svc.comments, 1)
	assert.Equal(t, "## Report\n\nall good", svc.comments[0].message)
}

func TestCommentCmd_MissingMessage(t *testing.T) {
	svc := &mockCommenter{}

	_, err := execute(t, svc, 1, "comment")

	require.ErrorIs(t, err, errNoMessage)
	assert.Empty(t, svc.comments)
}

func TestDescribeCmd(t *testing.T) {
	svc := &mockCommenter{descOK: true}

	out, err := execute(t, svc, 5, "describe", "-m", "release notes")

	require.NoError(t, err)
	assert.Equal(t, []string{"release notes"}, svc.descriptions)
	assert.Equal(t, 5, svc.descNumber)
	assert.Equal(t, "description=updated\n", out)
}

func TestDescribeCmd_FailureDoesNotError(t *testing.T) {
	svc := &mockCommenter{descOK: false}

	out, err := execute(t, svc, 5, "describe", "-m", "notes")

	require.NoError(t, err)
	assert.Equal(t, "description=unchanged\n", out)
}

func TestReviewCommentCmd(t *testing.T) {
	svc := &mockCommenter{result: &model.Comment{ID: 3}}

	out, err := execute(t, svc, 5, "review-comment", "--commit", "abc", "--path", "a.go", "--line", "12", "-m", "nit")

	require.NoError(t, err)
	assert.Equal(t, []model.Anchor{{CommitID: "abc", Path: "a.go", Line: 12}}, svc.anchors)
	assert.Equal(t, []model.Tag{model.TagComment}, svc.reviewTags)
	assert.Equal(t, "comment_id=3\n", out)
}

func TestReviewCommentCmd_Tag(t *testing.T) {
	svc := &mockCommenter{}

	_, err := execute(t, svc, 5, "review-comment", "--commit", "abc", "--path", "a.go", "--line", "12", "--tag", "Summary", "-m", "overview")

	require.NoError(t, err)
	assert.Equal(t, []model.Tag{model.TagSummary}, svc.reviewTags)
}

func TestReviewCommentCmd_Validation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing path", args: []string{"review-comment", "--commit", "abc", "--line", "1", "-m", "x"}},
		{name: "non-positive line", args: []string{"review-comment", "--commit", "abc", "--path", "a.go", "--line", "0", "-m", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockCommenter{}
			_, err := execute(t, svc, 5, tt.args...)
			require.Error(t, err)
			assert.Empty(t, svc.anchors)
		})
	}
}

func TestReplyCmd_RepliesToResolvedRoot(t *testing.T) {
	root := model.Comment{ID: 100, Body: "root"}
	svc := &mockCommenter{chainFound: true, root: root, result: &model.Comment{ID: 101}}

	out, err := execute(t, svc, 5, "reply", "--comment-id", "150", "-m", "thanks")

	require.NoError(t, err)
	assert.Equal(t, []int64{150}, svc.chainLookups)
	assert.Equal(t, []model.Comment{root}, svc.replies)
	assert.Equal(t, "comment_id=101\n", out)
}

func TestReplyCmd_UnknownComment(t *testing.T) {
	svc := &mockCommenter{chainFound: false}

	out, err := execute(t, svc, 5, "reply", "--comment-id", "150", "-m", "thanks")

	require.NoError(t, err)
	assert.Empty(t, svc.replies)
	assert.Equal(t, "comment_id=none\n", out)
}

func TestChainCmd_PrintsConversation(t *testing.T) {
	svc := &mockCommenter{
		chainFound: true,
		chain: model.ConversationChain{
			{Author: "bot", Body: "root"},
			{Author: "alice", Body: "why?"},
		},
	}

	out, err := execute(t, svc, 5, "chain", "--comment-id", "2")

	require.NoError(t, err)
	assert.Equal(t, "bot: root\n---\nalice: why?\n", out)
}

func TestChainCmd_InvalidID(t *testing.T) {
	svc := &mockCommenter{}

	_, err := execute(t, svc, 5, "chain", "--comment-id", "-1")

	require.Error(t, err)
	assert.Empty(t, svc.chainLookups)
}

func TestPreviewCmd_RendersWithoutPosting(t *testing.T) {
	svc := &mockCommenter{}

	out, err := execute(t, svc, 0, "preview", "-m", "use `fmt.Println`")

	require.NoError(t, err)
	assert.Contains(t, out, "<strong>bot</strong>")
	assert.Contains(t, out, "<code>fmt.Println</code>")
	assert.NotContains(t, out, "<!--")
	assert.Empty(t, svc.comments)
}

func TestRootCmd_HelpSkipsSetup(t *testing.T) {
	called := false
	setup := func(context.Context) (Commenter, int, error) {
		called = true
		return nil, 0, errors.New("PRCOMMENT_PAGE_SIZE: invalid")
	}

	out, err := run(t, setup, "--help")

	require.NoError(t, err)
	assert.False(t, called)
	assert.Contains(t, out, "review-comment")
}

func TestRootCmd_SetupErrorStopsCommand(t *testing.T) {
	setupErr := errors.New("PRCOMMENT_PAGE_SIZE: invalid")
	setup := func(context.Context) (Commenter, int, error) {
		return nil, 0, setupErr
	}

	_, err := run(t, setup, "comment", "-m", "hi")

	require.ErrorIs(t, err, setupErr)
}
