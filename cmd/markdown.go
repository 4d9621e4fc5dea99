package cmd

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownRenderer = goldmark.New(
		goldmark.WithExtensions(extension.Table, extension.Strikethrough),
		// Raw HTML in model output is kept and cleaned by the sanitizer below.
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	htmlPolicy = newHTMLPolicy()
)

func newHTMLPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("align").OnElements("th", "td")
	return p
}

// renderMarkdown converts a model response to sanitized HTML. With
// markdown disabled the text is escaped inside a <pre> block.
func renderMarkdown(text string, markdown bool) (template.HTML, error) {
	if !markdown {
		return template.HTML("<pre>" + template.HTMLEscapeString(text) + "</pre>"), nil
	}
	var buf bytes.Buffer
	if err := markdownRenderer.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return template.HTML(htmlPolicy.SanitizeBytes(buf.Bytes())), nil
}
