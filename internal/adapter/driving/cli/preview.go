package cli

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	// GitHub-flavored markdown; raw HTML passes through to the sanitizer.
	previewMarkdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	previewPolicy = bluemonday.UGCPolicy()

	// hiddenMarker matches the HTML comments that carry tags and block markers.
	hiddenMarker = regexp.MustCompile(`(?s)<!--.*?-->`)
)

// RenderMarkdown converts a comment body to sanitized HTML, approximating how
// the code-review service displays it. Tag and block markers are removed
// before rendering. Returns empty string when nothing visible remains.
func RenderMarkdown(src string) string {
	visible := hiddenMarker.ReplaceAllString(src, "")
	if strings.TrimSpace(visible) == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := previewMarkdown.Convert([]byte(visible), &buf); err != nil {
		return previewPolicy.Sanitize(visible)
	}
	return previewPolicy.Sanitize(buf.String())
}
