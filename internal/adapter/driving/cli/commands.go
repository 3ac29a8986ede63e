package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/prcomment/internal/domain/model"
)

func newCommentCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Create or reconcile a tagged comment on the pull request or issue.",
		Example: `  prcomment comment -m "Build passed" --tag summary --mode replace
  prcomment comment --message-file report.md --mode append`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			message, err := readMessage(cmd)
			if err != nil {
				return err
			}

			tagName, _ := cmd.Flags().GetString("tag")
			modeName, _ := cmd.Flags().GetString("mode")

			mode, ok := model.ParseMode(modeName)
			if !ok {
				slog.Warn("unknown comment mode, using replace", "mode", modeName)
			}

			printComment(cmd, s.svc.Comment(cmd.Context(), s.target(cmd), message, model.ParseTag(tagName), mode))
			return nil
		},
	}

	addMessageFlags(cmd)
	cmd.Flags().String("tag", string(model.TagComment), "logical comment class: comment, reply, summary or any custom name")
	cmd.Flags().String("mode", string(model.ModeReplace), "create, replace, append or prepend")
	return cmd
}

func newDescribeCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Set the release notes block in the pull request description.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			message, err := readMessage(cmd)
			if err != nil {
				return err
			}

			if _, ok := s.svc.UpdateDescription(cmd.Context(), s.target(cmd), message); ok {
				fmt.Fprintln(cmd.OutOrStdout(), "description=updated")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "description=unchanged")
			}
			return nil
		},
	}

	addMessageFlags(cmd)
	return cmd
}

func newReviewCommentCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "review-comment",
		Short:   "Create or update the tagged review comment on a file line.",
		Example: `  prcomment review-comment --commit "$GITHUB_SHA" --path main.go --line 42 -m "Consider a constant."`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			message, err := readMessage(cmd)
			if err != nil {
				return err
			}

			commit, _ := cmd.Flags().GetString("commit")
			path, _ := cmd.Flags().GetString("path")
			line, _ := cmd.Flags().GetInt("line")
			if line <= 0 {
				return fmt.Errorf("--line must be positive, got %d", line)
			}

			tagName, _ := cmd.Flags().GetString("tag")
			anchor := model.Anchor{CommitID: commit, Path: path, Line: line}
			printComment(cmd, s.svc.ReviewComment(cmd.Context(), s.target(cmd), anchor, message, model.ParseTag(tagName)))
			return nil
		},
	}

	addMessageFlags(cmd)
	cmd.Flags().String("commit", "", "commit SHA the comment is anchored to")
	cmd.Flags().String("path", "", "file path relative to the repository root")
	cmd.Flags().Int("line", 0, "line number in the diff")
	cmd.Flags().String("tag", string(model.TagComment), "logical comment class kept at this line")
	_ = cmd.MarkFlagRequired("commit")
	_ = cmd.MarkFlagRequired("path")
	_ = cmd.MarkFlagRequired("line")
	return cmd
}

func newReplyCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reply",
		Short: "Reply in the review thread containing a comment and mark the thread as answered.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			message, err := readMessage(cmd)
			if err != nil {
				return err
			}

			commentID, err := commentIDFlag(cmd)
			if err != nil {
				return err
			}

			number := s.target(cmd)
			_, root, ok := s.svc.ResolveChainByID(cmd.Context(), number, commentID)
			if !ok {
				printComment(cmd, nil)
				return nil
			}

			printComment(cmd, s.svc.ReviewCommentReply(cmd.Context(), number, root, message))
			return nil
		},
	}

	addMessageFlags(cmd)
	cmd.Flags().Int64("comment-id", 0, "id of any review comment in the thread")
	_ = cmd.MarkFlagRequired("comment-id")
	return cmd
}

func newChainCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Print the conversation of the review thread containing a comment.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			commentID, err := commentIDFlag(cmd)
			if err != nil {
				return err
			}

			chain, root, ok := s.svc.ResolveChainByID(cmd.Context(), s.target(cmd), commentID)
			if !ok {
				return nil
			}

			slog.Debug("resolved conversation", "root_id", root.ID, "entries", len(chain))
			fmt.Fprintln(cmd.OutOrStdout(), chain.String())
			return nil
		},
	}

	cmd.Flags().Int64("comment-id", 0, "id of any review comment in the thread")
	_ = cmd.MarkFlagRequired("comment-id")
	return cmd
}

func newPreviewCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render the comment body as sanitized HTML without posting it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			message, err := readMessage(cmd)
			if err != nil {
				return err
			}

			tagName, _ := cmd.Flags().GetString("tag")
			fmt.Fprintln(cmd.OutOrStdout(), RenderMarkdown(s.svc.Body(message, model.ParseTag(tagName))))
			return nil
		},
	}

	addMessageFlags(cmd)
	cmd.Flags().String("tag", string(model.TagComment), "logical comment class")
	return cmd
}

func commentIDFlag(cmd *cobra.Command) (int64, error) {
	id, _ := cmd.Flags().GetInt64("comment-id")
	if id <= 0 {
		return 0, errors.New("--comment-id must be positive")
	}
	return id, nil
}
