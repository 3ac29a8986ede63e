package application

import (
	"log/slog"

	"github.com/ericfisherdev/prcomment/internal/domain/model"
)

// findTagged returns the first comment, in listing order, whose body carries
// tag. Later matches are duplicates left by earlier races; they are logged and
// otherwise ignored. Returns nil when nothing matches.
func findTagged(comments []model.Comment, tag model.Tag) *model.Comment {
	return findFirst(comments, tag, func(model.Comment) bool { return true })
}

// findTaggedAt is findTagged restricted to review comments anchored at
// path and line with a non-empty body.
func findTaggedAt(comments []model.Comment, tag model.Tag, path string, line int) *model.Comment {
	return findFirst(comments, tag, func(c model.Comment) bool {
		return c.Path == path && c.Line == line && c.Body != ""
	})
}

func findFirst(comments []model.Comment, tag model.Tag, keep func(model.Comment) bool) *model.Comment {
	var match *model.Comment
	var duplicates []int64

	for i := range comments {
		c := comments[i]
		if !keep(c) || !tag.In(c.Body) {
			continue
		}
		if match == nil {
			match = &c
			continue
		}
		duplicates = append(duplicates, c.ID)
	}

	if len(duplicates) > 0 {
		slog.Debug("ignoring duplicate tagged comments",
			"tag", string(tag),
			"canonical_id", match.ID,
			"duplicate_ids", duplicates,
		)
	}

	return match
}
