package view

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/hostelhub/hostelhub/internal/shared"
	"github.com/hostelhub/hostelhub/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// Viewer is the signed in user as shown in the page chrome.
type Viewer struct {
	Name   string
	Email  string
	Role   string
	Avatar string
}

// NavItem is one rendered navigation link.
type NavItem struct {
	ID     string
	Label  string
	Icon   string
	Path   string
	Active bool
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Viewer      *Viewer
	Nav         []NavItem
	MobileNav   []NavItem
	Data        any
}

// NewEngine parses the embedded templates.
func NewEngine() (*Engine, error) {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006")
		},
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}
