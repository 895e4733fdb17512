// Package filetype classifies wiki paths by extension and renders the ones
// that have an HTML presentation.
package filetype

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/TheSilvus/smeagol/internal/wikipath"
)

type Filetype int

const (
	Raw Filetype = iota
	Markdown
)

var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.Strikethrough,
		extension.Table,
		extension.TaskList,
	),
)

// FromPath classifies a path by its extension. Anything that is not
// recognized is served raw.
func FromPath(path wikipath.Path) Filetype {
	ext, ok := path.Extension()
	if !ok {
		return Raw
	}
	if string(ext) == "md" {
		return Markdown
	}
	return Raw
}

// Safe reports whether rendered output may be embedded in a page unescaped.
func (f Filetype) Safe() bool {
	return f == Markdown
}

// Render converts content to HTML. Raw content passes through unchanged.
func (f Filetype) Render(content []byte) ([]byte, error) {
	switch f {
	case Markdown:
		var buf bytes.Buffer
		if err := markdown.Convert(content, &buf); err != nil {
			return nil, fmt.Errorf("rendering markdown: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return content, nil
	}
}

func (f Filetype) String() string {
	switch f {
	case Markdown:
		return "markdown"
	default:
		return "raw"
	}
}
