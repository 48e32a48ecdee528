package server

import (
	_ "embed"
	"html/template"
	"net/http"

	"github.com/traino/session-bridge/internal/log"
)

//go:embed templates/expired.html
var expiredPageTemplateHTML string

//go:embed templates/callback.html
var callbackPageTemplateHTML string

var expiredPageTemplate = template.Must(template.New("expired").Parse(expiredPageTemplateHTML))
var callbackPageTemplate = template.Must(template.New("callback").Parse(callbackPageTemplateHTML))

// pageData is the data for the expired and callback pages
type pageData struct {
	Title   string
	Message string
}

func renderPage(w http.ResponseWriter, status int, tmpl *template.Template, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, data); err != nil {
		log.LogErrorWithFields("server", "Failed to render page", map[string]any{
			"template": tmpl.Name(),
			"error":    err.Error(),
		})
	}
}
