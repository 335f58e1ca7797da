package templates

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/a-h/templ"
)

// DatastarScript is the pinned Datastar client bundle every page loads.
const DatastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.5/bundles/datastar.js"

// LayoutTemplate is the entry point of every full page.
const LayoutTemplate = "layout"

//go:embed layout.html
var layoutFS embed.FS

var funcs = template.FuncMap{
	"datastarScript": func() string { return DatastarScript },
}

// Parse builds a template set made of the shared layout plus the page
// templates matched by patterns in fsys. Pages define "title", "content"
// and optionally "head".
func Parse(fsys fs.FS, patterns ...string) (*template.Template, error) {
	t, err := template.New("layout.html").Funcs(funcs).ParseFS(layoutFS, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}
	if len(patterns) == 0 {
		return t, nil
	}
	t, err = t.ParseFS(fsys, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page templates: %w", err)
	}
	return t, nil
}

// MustParse is Parse for package-level template sets.
func MustParse(fsys fs.FS, patterns ...string) *template.Template {
	t, err := Parse(fsys, patterns...)
	if err != nil {
		panic(err)
	}
	return t
}

// Component exposes a named template of t as a templ component.
func Component(t *template.Template, name string, data any) templ.Component {
	named := t.Lookup(name)
	if named == nil {
		return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
			return fmt.Errorf("template %q is not defined", name)
		})
	}
	return templ.FromGoHTML(named, data)
}

// Page renders the full layout of t with data.
func Page(t *template.Template, data any) templ.Component {
	return Component(t, LayoutTemplate, data)
}
