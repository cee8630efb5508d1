// Package web renders workout views as HTML pages or, for API clients, as JSON.
package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/2beens/fitlog/internal/flash"
	"github.com/2beens/fitlog/internal/workouts"
	"github.com/2beens/fitlog/pkg"

	log "github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templatesFS embed.FS

var _ workouts.Renderer = (*Renderer)(nil)

type Renderer struct {
	lang      string
	home      *template.Template
	dashboard *template.Template
}

type page struct {
	Lang   string
	Status *flash.Status
	View   any
	Series any
}

type chartSeries struct {
	Dates     []string `json:"dates"`
	Calories  []int64  `json:"calories"`
	Durations []int64  `json:"durations"`
}

func NewRenderer(lang string) (*Renderer, error) {
	home, err := template.ParseFS(templatesFS, "templates/layout.html", "templates/home.html")
	if err != nil {
		return nil, fmt.Errorf("parse home template: %w", err)
	}
	dashboard, err := template.ParseFS(templatesFS, "templates/layout.html", "templates/dashboard.html")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard template: %w", err)
	}
	if lang == "" {
		lang = "en"
	}
	return &Renderer{
		lang:      lang,
		home:      home,
		dashboard: dashboard,
	}, nil
}

func (r *Renderer) RenderHome(w http.ResponseWriter, req *http.Request, view workouts.HomeView) {
	if WantsJSON(req) {
		writeJSON(w, view)
		return
	}
	r.writeHTML(w, r.home, page{
		Lang:   r.lang,
		Status: view.Status,
		View:   view,
	})
}

func (r *Renderer) RenderDashboard(w http.ResponseWriter, req *http.Request, view workouts.DashboardView) {
	if WantsJSON(req) {
		writeJSON(w, view)
		return
	}
	r.writeHTML(w, r.dashboard, page{
		Lang:   r.lang,
		Status: view.Status,
		View:   view,
		Series: chartSeries{
			Dates:     view.Dates,
			Calories:  view.Calories,
			Durations: view.Durations,
		},
	})
}

// WantsJSON reports whether the client asked for JSON over HTML.
func WantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), pkg.ContentType.JSON)
}

func (r *Renderer) writeHTML(w http.ResponseWriter, tmpl *template.Template, data page) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Errorf("render %s: %s", tmpl.Name(), err)
		http.Error(w, "render page failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.HTML, buf.Bytes())
}

func writeJSON(w http.ResponseWriter, view any) {
	viewJson, err := json.Marshal(view)
	if err != nil {
		log.Errorf("marshal view: %s", err)
		http.Error(w, "render view failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, viewJson)
}
