package components

import (
	"context"
	_ "embed"
	"html/template"
	"io"

	"github.com/a-h/templ"
	"github.com/rubiojr/hnsearch/cmd/web/components/types"
)

//go:embed page.html
var pageHTML string

var pageTemplate = template.Must(template.New("page").Parse(pageHTML))

// Page renders the application shell. Results are rendered by the browser
// from the session API.
func Page(data types.PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return pageTemplate.Execute(w, data)
	})
}
