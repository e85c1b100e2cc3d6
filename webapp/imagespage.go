package webapp

import (
	"fmt"
	"net/url"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// ImagesPage is the Images tab: picked images become one PDF
type ImagesPage struct {
	app.Compo
	state ImagesState
	error string
}

// OnMount is called when the component is mounted
func (p *ImagesPage) OnMount(ctx app.Context) {
	p.update(ctx, "GET", "/api/images", nil)
}

func (p *ImagesPage) update(ctx app.Context, method, path string, body any) {
	var state ImagesState
	callAPI(ctx, method, path, body, &state, func(err error) {
		if err != nil {
			p.error = err.Error()
			return
		}
		p.error = ""
		p.state = state
	})
}

func (p *ImagesPage) onUpload(ctx app.Context, e app.Event) {
	input := ctx.JSSrc()
	var state ImagesState
	uploadFiles(ctx, "/api/images", input, &state, func(err error) {
		input.Set("value", "")
		if err != nil {
			p.error = err.Error()
			return
		}
		p.error = ""
		p.state = state
	})
}

func (p *ImagesPage) onRemove(id string) app.EventHandler {
	return func(ctx app.Context, e app.Event) {
		p.update(ctx, "DELETE", "/api/images/"+url.PathEscape(id), nil)
	}
}

func (p *ImagesPage) onMove(from, to int) app.EventHandler {
	return func(ctx app.Context, e app.Event) {
		p.update(ctx, "POST", "/api/images/move", map[string]int{"from": from, "to": to})
	}
}

func (p *ImagesPage) onClear(ctx app.Context, e app.Event) {
	p.update(ctx, "DELETE", "/api/images", nil)
}

func (p *ImagesPage) onConvert(ctx app.Context, e app.Event) {
	var job Job
	callAPI(ctx, "POST", "/api/images/convert", nil, &job, func(err error) {
		if err != nil {
			p.error = err.Error()
			return
		}
		p.state.Running = true
		waitForJob(ctx, job.ID, func(job Job) {
			p.update(ctx, "GET", "/api/images", nil)
		})
	})
}

// Render renders the images tab
func (p *ImagesPage) Render() app.UI {
	return app.Div().
		Class("images-page").
		Body(
			app.If(p.error != "", func() app.UI {
				return app.Div().Class("error").Body(app.Text("Error: " + p.error))
			}),
			app.If(!p.state.IsActive, func() app.UI {
				return app.Div().Class("no-results").Body(app.Text("Add images to turn them into a PDF"))
			}).Else(func() app.UI {
				return app.P().Class("page-info").Text(fmt.Sprintf("%d images selected", p.state.SelectedCount))
			}),
			app.Div().Class("image-list").Body(
				app.Range(p.state.Items).Slice(func(i int) app.UI {
					item := p.state.Items[i]
					return app.Div().Class("pdf-item").Body(
						app.Div().Class("pdf-index").Text(i+1),
						app.Div().Class("pdf-info").Body(
							app.H3().Text(item.Name),
							app.P().Class("pdf-meta").Text(fmt.Sprintf("%d × %d px", item.WidthPx, item.HeightPx)),
						),
						app.Button().Class("btn-icon").Disabled(i == 0).OnClick(p.onMove(i, i-1)).Text("↑"),
						app.Button().Class("btn-icon").Disabled(i == len(p.state.Items)-1).OnClick(p.onMove(i, i+1)).Text("↓"),
						app.Button().Class("btn-icon").OnClick(p.onRemove(item.ID)).Text("✕"),
					)
				}),
			),
			app.Div().Class("action-bar").Body(
				app.Label().Class("btn-secondary upload-label").Body(
					app.Text("Add images"),
					app.Input().
						Type("file").
						Accept("image/png,image/jpeg,image/tiff").
						Multiple(true).
						Class("hidden-input").
						OnChange(p.onUpload),
				),
				app.Button().Class("btn-secondary").Disabled(!p.state.IsActive).OnClick(p.onClear).Text("Clear"),
				app.Button().
					Class("btn-primary").
					Disabled(p.state.SelectedCount == 0 || p.state.Running).
					OnClick(p.onConvert).
					Text("Convert to PDF"),
			),
		)
}
