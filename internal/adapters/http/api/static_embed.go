package api

import (
	"embed"
	"html/template"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/okian/retention/internal/domain/risk"
)

//go:embed templates/*.html
var templatesFS embed.FS

var printer = message.NewPrinter(language.Korean)

var templateFuncs = template.FuncMap{
	// won formats an amount with grouping and the currency suffix.
	"won": func(v float64) string { return printer.Sprintf("%.0f원", v) },
	"num": func(v int) string { return printer.Sprintf("%d", v) },
	"pct": func(v float64) string { return printer.Sprintf("%.1f%%", v) },
	// ratio renders a 0..1 fraction as a percentage.
	"ratio":     func(v float64) string { return printer.Sprintf("%.1f%%", v*100) },
	"riskClass": func(l risk.Level) string { return "risk-" + string(l) },
	"statusClass": func(s string) string {
		switch strings.TrimSpace(s) {
		case "연체", "rejected":
			return "badge-bad"
		case "완료", "approved":
			return "badge-good"
		default:
			return "badge"
		}
	},
}

// parseTemplate parses a page template together with the shared layout.
func parseTemplate(name string) *template.Template {
	return template.Must(template.New(name).Funcs(templateFuncs).ParseFS(templatesFS, "templates/layout.html", "templates/"+name))
}
