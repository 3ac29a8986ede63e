package model

import "strings"

// Mode selects how a new message is reconciled with an existing tagged comment.
type Mode string

const (
	ModeCreate  Mode = "create"
	ModeReplace Mode = "replace"
	ModeAppend  Mode = "append"
	ModePrepend Mode = "prepend"
)

// ParseMode converts a mode name into a Mode. Unrecognized names fall back to
// ModeReplace and ok is false so callers can report the substitution.
func ParseMode(name string) (mode Mode, ok bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(name))) {
	case ModeCreate:
		return ModeCreate, true
	case ModeReplace:
		return ModeReplace, true
	case ModeAppend:
		return ModeAppend, true
	case ModePrepend:
		return ModePrepend, true
	default:
		return ModeReplace, false
	}
}
