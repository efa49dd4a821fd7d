// Package web holds the HTML templates served by the upload UI.
package web

import (
	"embed"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var files embed.FS

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"join": strings.Join,
		"datetime": func(t time.Time) string {
			return t.Format("2006-01-02 15:04")
		},
	}).ParseFS(files, "templates/*.html")
}
