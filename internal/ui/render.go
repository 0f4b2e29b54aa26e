// Package ui renders the console page and the fragments that replace parts
// of it. All values pass through html/template, so upstream text is escaped
// wherever it lands.
package ui

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/dgnsrekt/bullion_console/internal/lookup"
	"github.com/dgnsrekt/bullion_console/internal/report"
	"github.com/dgnsrekt/bullion_console/internal/selector"
)

const DefaultTitle = "Bullion Screener"

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Page is the data behind the full console page.
type Page struct {
	Title      string
	Trends     []selector.Option
	Algorithms []selector.Option
	Lists      []selector.Option
}

// Renderer executes the embedded templates.
type Renderer struct {
	tmpl *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	tmpl, err := template.New("ui").Funcs(template.FuncMap{
		"toneColor": toneColor,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Page renders the full console page.
func (r *Renderer) Page(w io.Writer, p Page) error {
	if p.Title == "" {
		p.Title = DefaultTitle
	}
	return r.tmpl.ExecuteTemplate(w, "page", p)
}

// Options renders the <option> children of a selector.
func (r *Renderer) Options(w io.Writer, opts []selector.Option) error {
	return r.tmpl.ExecuteTemplate(w, "options", opts)
}

// Card renders the lookup result region.
func (r *Renderer) Card(w io.Writer, c lookup.Card) error {
	return r.tmpl.ExecuteTemplate(w, "card", c)
}

// Report renders the screening result region.
func (r *Renderer) Report(w io.Writer, rep report.Report) error {
	return r.tmpl.ExecuteTemplate(w, "report", rep)
}

// Static returns the embedded script assets rooted at their file names.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

func toneColor(t lookup.Tone) string {
	if t == lookup.TonePositive {
		return "green"
	}
	return "red"
}
