package dashboard

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static/dashboard.js
var dashboardJS []byte

// Renderer executes the embedded page template.
type Renderer struct {
	page *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	page, err := template.ParseFS(templateFS, "templates/dashboard.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse dashboard template: %w", err)
	}
	return &Renderer{page: page}, nil
}

// Render writes the HTML page for view.
func (r *Renderer) Render(w io.Writer, view *View) error {
	if err := r.page.ExecuteTemplate(w, "dashboard.html.tmpl", view); err != nil {
		return fmt.Errorf("failed to render dashboard: %w", err)
	}
	return nil
}

// Script returns the client-side refresh script.
func Script() []byte {
	return dashboardJS
}
