package dashboard

import (
	"embed"
	"html/template"
	"io"
	"time"

	"github.com/phbpx/haojia"
)

//go:embed templates
var templates embed.FS

const (
	TabApplications  = "applications"
	TabConsultations = "consultations"
)

// TimeLayout formats record timestamps.
const TimeLayout = "2006/1/2 15:04:05"

// Page is the data behind one render of the dashboard.
type Page struct {
	View
	Tab      string
	Operator string
	Location *time.Location
}

var page = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"service": func(s haojia.ServiceType) string { return s.Label() },
}).ParseFS(templates, "templates/dashboard.html"))

// Render writes p as HTML. Unknown tabs fall back to applications.
func Render(w io.Writer, p Page) error {
	if p.Tab != TabConsultations {
		p.Tab = TabApplications
	}
	if p.Location == nil {
		p.Location = time.UTC
	}
	return page.Execute(w, p)
}

// Date formats t in the page's location.
func (p Page) Date(t time.Time) string {
	return t.In(p.Location).Format(TimeLayout)
}
