package transformers

import (
	"bytes"
	"context"

	"markprep/internal/engine/transform"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// KeyUnsafe lets raw HTML in markdown through to the output (bool).
const KeyUnsafe = "unsafe"

// markdown renders a block to HTML with goldmark.
type markdown struct {
	safe   goldmark.Markdown
	unsafe goldmark.Markdown
}

func newMarkdown() *markdown {
	return &markdown{
		safe: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		unsafe: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

func (m *markdown) Transform(ctx context.Context, in transform.Input) (transform.Result, error) {
	if err := ctx.Err(); err != nil {
		return transform.Result{}, err
	}
	md := m.safe
	if in.Config.Bool(KeyUnsafe, false) {
		md = m.unsafe
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(in.Content), &buf); err != nil {
		return transform.Result{}, err
	}
	return transform.Result{Code: buf.String()}, nil
}
