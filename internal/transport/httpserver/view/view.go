// Package view renders the HTML pages. Every page is executed inside the
// shared layout and receives a Page.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
)

//go:embed templates/*.html
var templatesFS embed.FS

const layoutFile = "templates/layout.html"

type Flash struct {
	Kind    string
	Message string
}

type Page struct {
	Title    string
	Username string
	Flashes  []Flash
	Data     any
}

func (p Page) Authenticated() bool {
	return p.Username != ""
}

type Renderer struct {
	pages map[string]*template.Template
}

func New() (*Renderer, error) {
	files, err := fs.Glob(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	funcs := template.FuncMap{
		"flashClass": flashClass,
		"join":       strings.Join,
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		if file == layoutFile {
			continue
		}
		name := strings.TrimSuffix(path.Base(file), ".html")
		tmpl, err := template.New(path.Base(layoutFile)).Funcs(funcs).ParseFS(templatesFS, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Renderer{pages: pages}, nil
}

// Render executes the named page into w. Nothing is written when execution
// fails.
func (v *Renderer) Render(w io.Writer, name string, page Page) error {
	tmpl, ok := v.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", page); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func flashClass(kind string) string {
	switch kind {
	case "success":
		return "flash flash-success"
	case "warning":
		return "flash flash-warning"
	case "error":
		return "flash flash-error"
	default:
		return "flash flash-info"
	}
}
