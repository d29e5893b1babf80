package choropleth

import (
	_ "embed"
	"html/template"
)

//go:embed page.html.tmpl
var pageSource string

func parsePage() (*template.Template, error) {
	return template.New("page").Parse(pageSource)
}
