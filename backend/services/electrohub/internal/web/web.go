// Package web renders the server-side pages and serves the embedded static assets.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Field kinds understood by app.js when it builds a request body.
const (
	KindNumber   = "number"
	KindText     = "text"
	KindNumbers  = "numbers"
	KindStrings  = "strings"
	KindJSON     = "json"
	KindSelect   = "select"
	KindCheckbox = "checkbox"
	KindFile     = "file"
)

// Field is one form input. Value is the initial value as typed by a user.
type Field struct {
	Name    string
	Label   string
	Kind    string
	Value   string
	Options []string
}

// Tool is a form posting to one API endpoint.
type Tool struct {
	ID        string
	Title     string
	Endpoint  string
	Method    string
	Multipart bool
	Fields    []Field
}

// Table is a static reference table shown under the tools.
type Table struct {
	Title  string
	Header []string
	Rows   [][]string
}

// Page is one section of the site.
type Page struct {
	Path        string
	Title       string
	Description string
	Tools       []Tool
	Tables      []Table
	Live        bool
}

type view struct {
	Page  Page
	Pages []Page
}

// Renderer executes the embedded templates.
type Renderer struct {
	index  *template.Template
	tools  *template.Template
	pages  []Page
	logger *zap.Logger
}

// NewRenderer parses the templates for the given pages.
func NewRenderer(pages []Page, logger *zap.Logger) (*Renderer, error) {
	index, err := template.New("layout.html").ParseFS(templateFS, "templates/layout.html", "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}
	tools, err := template.New("layout.html").ParseFS(templateFS, "templates/layout.html", "templates/tools.html")
	if err != nil {
		return nil, fmt.Errorf("parse tools template: %w", err)
	}
	return &Renderer{index: index, tools: tools, pages: pages, logger: logger}, nil
}

// Pages returns the rendered sections.
func (r *Renderer) Pages() []Page {
	return r.pages
}

// Index returns GET / handler.
func (r *Renderer) Index() http.HandlerFunc {
	home := Page{Path: "/", Title: "ElectroHub", Description: "Electronics engineering toolkit"}
	return func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/" {
			http.NotFound(w, req)
			return
		}
		r.render(w, r.index, view{Page: home, Pages: r.pages})
	}
}

// Page returns the handler rendering p.
func (r *Renderer) Page(p Page) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		r.render(w, r.tools, view{Page: p, Pages: r.pages})
	}
}

func (r *Renderer) render(w http.ResponseWriter, t *template.Template, v view) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", v); err != nil {
		r.logger.Error("render page failed", zap.String("page", v.Page.Path), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// Static serves /static/ from the embedded assets.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServerFS(sub))
}

// ServiceWorker serves /sw.js from the site root so it may control every page.
func ServiceWorker() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		body, err := staticFS.ReadFile("static/sw.js")
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/javascript")
		w.Header().Set("Service-Worker-Allowed", "/")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(body)
	}
}
