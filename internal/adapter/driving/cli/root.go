// Package cli exposes the comment service as cobra subcommands for use from
// CI workflow steps. Remote failures are logged by the service and never turn
// into a non-zero exit; only invalid arguments do.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/prcomment/internal/domain/model"
)

// Commenter is the subset of application.CommentService the commands drive.
type Commenter interface {
	Body(message string, tag model.Tag) string
	Comment(ctx context.Context, number int, message string, tag model.Tag, mode model.Mode) *model.Comment
	UpdateDescription(ctx context.Context, prNumber int, message string) (string, bool)
	ReviewComment(ctx context.Context, prNumber int, anchor model.Anchor, message string, tag model.Tag) *model.Comment
	ResolveChainByID(ctx context.Context, prNumber int, commentID int64) (model.ConversationChain, model.Comment, bool)
	ReviewCommentReply(ctx context.Context, prNumber int, root model.Comment, message string) *model.Comment
}

// Setup builds the service once flags are parsed. number is the issue or pull
// request resolved from the environment, 0 when none was.
type Setup func(ctx context.Context) (svc Commenter, number int, err error)

var errNoMessage = errors.New("a message is required: use --message or --message-file")

// session holds what Setup produced for the running subcommand.
type session struct {
	setup  Setup
	svc    Commenter
	number int
}

func (s *session) start(cmd *cobra.Command, _ []string) error {
	svc, number, err := s.setup(cmd.Context())
	if err != nil {
		return err
	}
	s.svc, s.number = svc, number
	return nil
}

// target returns --number when given, else the number from the environment.
func (s *session) target(cmd *cobra.Command) int {
	if cmd.Flags().Changed("number") {
		n, _ := cmd.Flags().GetInt("number")
		return n
	}
	return s.number
}

// NewRootCommand builds the prcomment command tree. setup runs before any
// subcommand, so help and flag errors never read the environment.
func NewRootCommand(setup Setup) *cobra.Command {
	s := &session{setup: setup}

	root := &cobra.Command{
		Use:               "prcomment",
		Short:             "Post and reconcile tagged comments on pull requests and issues.",
		Long:              `Create, replace, append to or prepend to comments this tool authored, keep a release notes block in the pull request description, and thread replies on review comments.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: s.start,
	}

	root.PersistentFlags().Int("number", 0, "pull request or issue number (defaults to the triggering event)")

	root.AddCommand(
		newCommentCmd(s),
		newDescribeCmd(s),
		newReviewCommentCmd(s),
		newReplyCmd(s),
		newChainCmd(s),
		newPreviewCmd(s),
	)

	return root
}

// addMessageFlags registers --message and --message-file on cmd.
func addMessageFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("message", "m", "", "message text")
	cmd.Flags().String("message-file", "", "read the message from a file")
	cmd.MarkFlagsMutuallyExclusive("message", "message-file")
}

// readMessage returns the message from --message or --message-file.
func readMessage(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("message-file"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading message file: %w", err)
		}
		return string(raw), nil
	}

	message, _ := cmd.Flags().GetString("message")
	if message == "" {
		return "", errNoMessage
	}
	return message, nil
}

// printComment reports the written comment id, or "none" when nothing was written.
func printComment(cmd *cobra.Command, c *model.Comment) {
	if c == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "comment_id=none")
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "comment_id=%d\n", c.ID)
}
