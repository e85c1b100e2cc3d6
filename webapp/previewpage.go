package webapp

import (
	"fmt"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// pageCaption labels a preview page; split previews name the output file,
// numbered from 1 by the server
func pageCaption(kind string, page PageRef) string {
	if kind == "split" {
		return fmt.Sprintf("File %d · page %d", page.Group, page.PageIndex+1)
	}
	if kind == "merge" {
		return fmt.Sprintf("%s · page %d", page.Name, page.PageIndex+1)
	}
	return fmt.Sprintf("Page %d", page.PageIndex+1)
}

// PreviewPage shows the rendered pages of the open preview
type PreviewPage struct {
	app.Compo
	state   *PreviewState
	loading bool
	error   string
}

// OnMount is called when the component is mounted
func (p *PreviewPage) OnMount(ctx app.Context) {
	p.loading = true
	var state PreviewState
	callAPI(ctx, "GET", "/api/preview", nil, &state, func(err error) {
		p.loading = false
		if err != nil {
			p.error = err.Error()
			return
		}
		p.state = &state
	})
}

func (p *PreviewPage) onClose(ctx app.Context, e app.Event) {
	var state WorkspaceState
	callAPI(ctx, "DELETE", "/api/preview", nil, &state, func(err error) {
		if err != nil {
			ctx.Navigate("/")
			return
		}
		followWorkspace(ctx, state)
	})
}

// Render renders the preview
func (p *PreviewPage) Render() app.UI {
	var content app.UI
	switch {
	case p.loading:
		content = app.Div().Class("loading").Body(app.Text("Loading..."))
	case p.error != "":
		content = app.Div().Class("error").Body(app.Text("Error: " + p.error))
	case p.state == nil || len(p.state.Pages) == 0:
		text := "No pages to preview"
		if p.state != nil && p.state.EmptyText != "" {
			text = p.state.EmptyText
		}
		content = app.Div().Class("no-results").Body(app.Text(text))
	default:
		width := PreviewWidth()
		kind := p.state.Kind
		content = app.Div().Class("preview-pages").Body(
			app.Range(p.state.Pages).Slice(func(i int) app.UI {
				page := p.state.Pages[i]
				return app.Figure().Class("preview-page").Body(
					app.Img().
						Src(PageImageURL(page.ID, page.PageIndex, width)).
						Alt(pageCaption(kind, page)).
						Attr("loading", "lazy"),
					app.FigCaption().Text(pageCaption(kind, page)),
				)
			}),
		)
	}

	title := "Preview"
	if p.state != nil && p.state.Title != "" {
		title = p.state.Title
	}
	return app.Div().
		Class("preview-page-container").
		Body(
			app.Div().Class("preview-header").Body(
				app.Button().Class("btn-icon").OnClick(p.onClose).Text("←"),
				app.H2().Text(title),
			),
			content,
		)
}
