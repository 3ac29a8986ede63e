package model

import "strings"

// Tag identifies the logical class of a comment the engine authored. On the
// wire a tag is a hidden HTML comment embedded verbatim in the body; the
// mapping lives in Marker so the rest of the engine never scans for raw strings.
type Tag string

const (
	TagComment Tag = "comment" // General or review comment.
	TagReply   Tag = "reply"   // Reply in a review thread, or a root that has been answered.
	TagSummary Tag = "summary" // Pull request summary comment.
)

// Markers for the known tags. These must stay byte-identical so that comments
// written by earlier runs are still recognized.
const (
	commentMarker = "<!-- This is an auto-generated comment by prcomment -->"
	replyMarker   = "<!-- This is an auto-generated reply by prcomment -->"
	summaryMarker = "<!-- This is an auto-generated comment: summarize by prcomment -->"

	releaseNotesStartMarker = "<!-- This is an auto-generated comment: release notes by prcomment -->"
	releaseNotesEndMarker   = "<!-- end of auto-generated comment: release notes by prcomment -->"
)

// Marker returns the hidden marker string embedded in comment bodies.
// Tags outside the known set map to a namespaced marker derived from the name.
func (t Tag) Marker() string {
	switch t {
	case TagComment:
		return commentMarker
	case TagReply:
		return replyMarker
	case TagSummary:
		return summaryMarker
	default:
		return "<!-- prcomment:" + string(t) + " -->"
	}
}

// In reports whether body carries this tag's marker.
func (t Tag) In(body string) bool {
	return strings.Contains(body, t.Marker())
}

// ParseTag maps a user-supplied tag name to a Tag. Names are case-insensitive
// and surrounding whitespace is ignored. An empty name yields TagComment.
func ParseTag(name string) Tag {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return TagComment
	}
	return Tag(name)
}

// DescriptionBlock is a delimited region inside a pull request description.
type DescriptionBlock struct {
	StartMarker string
	EndMarker   string
}

// ReleaseNotesBlock is the block the engine maintains in pull request descriptions.
var ReleaseNotesBlock = DescriptionBlock{
	StartMarker: releaseNotesStartMarker,
	EndMarker:   releaseNotesEndMarker,
}

// Render returns the block text wrapping payload.
func (b DescriptionBlock) Render(payload string) string {
	return b.StartMarker + "\n" + payload + b.EndMarker
}
