// Package view renders the HTML pages from embedded templates. The
// handlers treat it as an opaque collaborator: they hand over a page
// name and the page data, nothing else.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/dkomarov/reelrank/internal/logger"
	"github.com/dkomarov/reelrank/internal/models"
	"github.com/dkomarov/reelrank/internal/user"
)

//go:embed templates/*.gohtml
var templatesFS embed.FS

var pages = []string{"index", "add", "select", "edit", "login", "register"}

// PageData carries everything a template may need. Unused fields stay
// at their zero values.
type PageData struct {
	User       *user.User
	Error      string
	FormErrors map[string]string
	FormValues map[string]string
	Movies     []models.RankedMovie
	Candidates []models.Candidate
	Movie      *models.Movie
}

// View holds one parsed template set per page.
type View struct {
	templates map[string]*template.Template
}

// New parses the embedded templates.
func New() (*View, error) {
	templates := map[string]*template.Template{}
	for _, page := range pages {
		parsed, err := template.ParseFS(
			templatesFS,
			"templates/layout.gohtml",
			fmt.Sprintf("templates/%s.gohtml", page),
		)
		if err != nil {
			return nil, fmt.Errorf("error while parsing the %q page template: %w", page, err)
		}
		templates[page] = parsed
	}

	return &View{templates: templates}, nil
}

// Render writes the page with the given status code. The template is
// executed into a buffer first so a rendering failure produces a clean
// 500 instead of a half-written page.
func (v *View) Render(response http.ResponseWriter, status int, page string, data *PageData) {
	parsed, ok := v.templates[page]
	if !ok {
		logger.Log.Errorln("unknown page requested for rendering", "page", page)
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	if data == nil {
		data = &PageData{}
	}

	var buf bytes.Buffer
	if err := parsed.ExecuteTemplate(&buf, "layout", data); err != nil {
		logger.Log.Errorln("Error calling the `parsed.ExecuteTemplate()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	response.Header().Set("Content-Type", "text/html; charset=utf-8")
	response.WriteHeader(status)
	if _, err := buf.WriteTo(response); err != nil {
		logger.Log.Debugln("Error writing the rendered page: ", zap.Error(err))
	}
}
