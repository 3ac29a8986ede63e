package model

import "strings"

// ChainEntry is one message in a review conversation.
type ChainEntry struct {
	Author string
	Body   string
}

// ConversationChain is the flattened dialogue of a review thread: the root
// comment first, then its direct replies in listing order.
type ConversationChain []ChainEntry

// String renders the chain as "author: body" entries separated by "---" lines.
func (c ConversationChain) String() string {
	parts := make([]string, 0, len(c))
	for _, e := range c {
		parts = append(parts, e.Author+": "+e.Body)
	}
	return strings.Join(parts, "\n---\n")
}
