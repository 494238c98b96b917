// Package content turns user-authored post bodies into rendered HTML, excerpts and slugs.
package content

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(gmhtml.WithHardWraps(), gmhtml.WithXHTML()),
	)
	htmlPolicy  = bluemonday.UGCPolicy()
	stripPolicy = bluemonday.StrictPolicy()
)

// RenderMarkdown converts markdown into sanitized HTML safe to embed in a page.
func RenderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return string(htmlPolicy.SanitizeBytes(buf.Bytes())), nil
}

// PlainText renders markdown and strips every tag, leaving single-spaced text.
// Content that fails to render is stripped as-is.
func PlainText(src string) string {
	rendered, err := RenderMarkdown(src)
	if err != nil {
		rendered = src
	}
	text := html.UnescapeString(stripPolicy.Sanitize(rendered))
	return strings.Join(strings.Fields(text), " ")
}
