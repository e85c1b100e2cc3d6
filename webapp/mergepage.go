package webapp

import (
	"fmt"
	"net/url"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// mergeSummary is the line under the merge list
func mergeSummary(state MergeState) string {
	if !state.IsActive {
		return "Select PDFs on the PDFs tab and choose Merge"
	}
	return fmt.Sprintf("%d PDFs, %d pages", state.Total, state.TotalPages)
}

// MergePage is the Merge tab
type MergePage struct {
	app.Compo
	state   MergeState
	pdfs    []PdfFile
	picking bool
	error   string
}

// OnMount is called when the component is mounted
func (m *MergePage) OnMount(ctx app.Context) {
	m.update(ctx, "GET", "/api/merge", nil)
}

// update calls a merge route answering with the merge state
func (m *MergePage) update(ctx app.Context, method, path string, body any) {
	var state MergeState
	callAPI(ctx, method, path, body, &state, func(err error) {
		if err != nil {
			m.error = err.Error()
			return
		}
		m.error = ""
		m.state = state
	})
}

func (m *MergePage) onPick(ctx app.Context, e app.Event) {
	var list ListState
	callAPI(ctx, "GET", "/api/pdfs", nil, &list, func(err error) {
		if err != nil {
			m.error = err.Error()
			return
		}
		m.pdfs = list.Files
		m.picking = true
	})
}

func (m *MergePage) onAdd(id string) app.EventHandler {
	return func(ctx app.Context, e app.Event) {
		m.picking = false
		m.update(ctx, "POST", "/api/merge", map[string][]string{"ids": {id}})
	}
}

func (m *MergePage) onRemove(id string) app.EventHandler {
	return func(ctx app.Context, e app.Event) {
		m.update(ctx, "DELETE", "/api/merge/"+url.PathEscape(id), nil)
	}
}

func (m *MergePage) onMove(from, to int) app.EventHandler {
	return func(ctx app.Context, e app.Event) {
		m.update(ctx, "POST", "/api/merge/move", map[string]int{"from": from, "to": to})
	}
}

func (m *MergePage) onClear(ctx app.Context, e app.Event) {
	m.update(ctx, "DELETE", "/api/merge", nil)
}

func (m *MergePage) onPreview(ctx app.Context, e app.Event) {
	callAPI(ctx, "POST", "/api/merge/preview", nil, nil, func(err error) {
		if err != nil {
			m.error = err.Error()
			return
		}
		ctx.Navigate("/preview")
	})
}

func (m *MergePage) onMerge(ctx app.Context, e app.Event) {
	var job Job
	callAPI(ctx, "POST", "/api/merge/run", nil, &job, func(err error) {
		if err != nil {
			m.error = err.Error()
			return
		}
		m.state.Running = true
		waitForJob(ctx, job.ID, func(job Job) {
			m.update(ctx, "GET", "/api/merge", nil)
		})
	})
}

// Render renders the merge tab
func (m *MergePage) Render() app.UI {
	return app.Div().
		Class("merge-page").
		Body(
			app.P().Class("page-info").Text(mergeSummary(m.state)),
			app.If(m.error != "", func() app.UI {
				return app.Div().Class("error").Body(app.Text("Error: " + m.error))
			}),
			app.Div().Class("pdf-list").Body(
				app.Range(m.state.Pdfs).Slice(func(i int) app.UI {
					file := m.state.Pdfs[i]
					return app.Div().Class("pdf-item").Body(
						app.Div().Class("pdf-index").Text(i+1),
						app.Div().Class("pdf-info").Body(
							app.H3().Text(file.Name),
							app.P().Class("pdf-meta").Text(file.MetaLine),
						),
						app.Button().Class("btn-icon").Disabled(i == 0).OnClick(m.onMove(i, i-1)).Text("↑"),
						app.Button().Class("btn-icon").Disabled(i == len(m.state.Pdfs)-1).OnClick(m.onMove(i, i+1)).Text("↓"),
						app.Button().Class("btn-icon").OnClick(m.onRemove(file.ID)).Text("✕"),
					)
				}),
			),
			app.If(m.picking, func() app.UI {
				return m.renderPicker()
			}),
			app.Div().Class("action-bar").Body(
				app.Button().Class("btn-secondary").OnClick(m.onPick).Text("Add PDF"),
				app.Button().Class("btn-secondary").Disabled(!m.state.IsActive).OnClick(m.onClear).Text("Clear"),
				app.Button().Class("btn-secondary").Disabled(!m.state.IsActive).OnClick(m.onPreview).Text("Preview"),
				app.Button().
					Class("btn-primary").
					Disabled(m.state.Total < 2 || m.state.Running).
					OnClick(m.onMerge).
					Text("Merge PDFs"),
			),
		)
}

func (m *MergePage) renderPicker() app.UI {
	return app.Div().Class("overlay").Body(
		app.Div().Class("options-panel").Body(
			app.H3().Text("Add PDF"),
			app.Range(m.pdfs).Slice(func(i int) app.UI {
				file := m.pdfs[i]
				return app.Button().
					Class("option-item").
					Disabled(file.IsLocked).
					OnClick(m.onAdd(file.ID)).
					Text(file.Name)
			}),
			app.Button().Class("btn-secondary").OnClick(func(ctx app.Context, e app.Event) {
				m.picking = false
			}).Text("Cancel"),
		),
	)
}
