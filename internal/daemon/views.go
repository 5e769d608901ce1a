package daemon

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"framereel/internal/api"
)

//go:embed templates/*.html
var templateFS embed.FS

var resultTemplate = template.Must(template.ParseFS(templateFS, "templates/result.html"))

func renderResult(w http.ResponseWriter, view api.ResultView) error {
	var buf bytes.Buffer
	if err := resultTemplate.Execute(&buf, view); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, err := buf.WriteTo(w)
	return err
}
