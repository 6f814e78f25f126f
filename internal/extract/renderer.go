package extract

import (
	md "github.com/JohannesKaufmann/html-to-markdown"
)

// Renderer converts an HTML fragment to Markdown.
type Renderer interface {
	Render(html string) (string, error)
}

// MarkdownRenderer renders with html-to-markdown. Output is never hard
// wrapped; '*' marks list items and emphasis, "**" marks strong text.
type MarkdownRenderer struct {
	conv *md.Converter
}

// NewMarkdownRenderer creates a renderer. Link targets are kept as written.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{
		conv: md.NewConverter("", true, &md.Options{
			HeadingStyle:     "atx",
			BulletListMarker: "*",
			EmDelimiter:      "*",
			StrongDelimiter:  "**",
			CodeBlockStyle:   "fenced",
			Fence:            "```",
		}),
	}
}

// Render implements Renderer.
func (r *MarkdownRenderer) Render(html string) (string, error) {
	return r.conv.ConvertString(html)
}
