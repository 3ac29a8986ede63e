package application

import (
	"strings"

	"github.com/ericfisherdev/prcomment/internal/domain/model"
)

// SpliceDescription returns existing with block's content set to payload.
//
// When the start marker is present and the end marker follows it, the span
// from the start marker through the end marker is replaced by the rendered
// block. Only the first such span is touched. Otherwise the rendered block is
// appended after a newline. Text outside the span is never modified.
func SpliceDescription(existing string, block model.DescriptionBlock, payload string) string {
	rendered := block.Render(payload)

	start := strings.Index(existing, block.StartMarker)
	if start < 0 {
		return existing + "\n" + rendered
	}

	end := strings.Index(existing[start:], block.EndMarker)
	if end < 0 {
		return existing + "\n" + rendered
	}
	end += start + len(block.EndMarker)

	return existing[:start] + rendered + existing[end:]
}
