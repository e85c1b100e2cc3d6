package webapp

import (
	"fmt"
	"strings"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// split methods as numbered by the backend
var splitMethods = []struct {
	Method int
	Title  string
}{
	{0, "By page ranges"},
	{1, "One page per file"},
	{2, "Every N pages"},
}

// planSummary describes the files a split will write
func planSummary(plan []PageRange) string {
	if len(plan) == 0 {
		return ""
	}
	parts := make([]string, 0, len(plan))
	for _, r := range plan {
		if r.Start == r.End {
			parts = append(parts, fmt.Sprintf("%d", r.Start))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", r.Start, r.End))
		}
	}
	files := "files"
	if len(plan) == 1 {
		files = "file"
	}
	return fmt.Sprintf("%d %s: %s", len(plan), files, strings.Join(parts, ", "))
}

// SplitPage is the Split tab
type SplitPage struct {
	app.Compo
	state   SplitState
	pdfs    []PdfFile
	picking bool
	error   string
}

// OnMount is called when the component is mounted
func (s *SplitPage) OnMount(ctx app.Context) {
	s.update(ctx, "GET", nil)
}

func (s *SplitPage) update(ctx app.Context, method string, body any) {
	var state SplitState
	callAPI(ctx, method, "/api/split", body, &state, func(err error) {
		if err != nil {
			s.error = err.Error()
			return
		}
		s.error = ""
		s.state = state
	})
}

func (s *SplitPage) onPick(ctx app.Context, e app.Event) {
	var list ListState
	callAPI(ctx, "GET", "/api/pdfs", nil, &list, func(err error) {
		if err != nil {
			s.error = err.Error()
			return
		}
		s.pdfs = list.Files
		s.picking = true
	})
}

func (s *SplitPage) onSelect(id string) app.EventHandler {
	return func(ctx app.Context, e app.Event) {
		s.picking = false
		s.update(ctx, "PUT", map[string]string{"id": id})
	}
}

func (s *SplitPage) onClearSelection(ctx app.Context, e app.Event) {
	s.update(ctx, "PUT", map[string]string{"id": ""})
}

func (s *SplitPage) onMethod(method int) app.EventHandler {
	return func(ctx app.Context, e app.Event) {
		s.update(ctx, "PUT", map[string]int{"method": method})
	}
}

func (s *SplitPage) onRangesChange(ctx app.Context, e app.Event) {
	s.update(ctx, "PUT", map[string]string{"rangesText": ctx.JSSrc().Get("value").String()})
}

func (s *SplitPage) onPagesPerFileChange(ctx app.Context, e app.Event) {
	s.update(ctx, "PUT", map[string]string{"pagesPerFileText": ctx.JSSrc().Get("value").String()})
}

func (s *SplitPage) onPreview(ctx app.Context, e app.Event) {
	callAPI(ctx, "POST", "/api/split/preview", nil, nil, func(err error) {
		if err != nil {
			s.error = err.Error()
			return
		}
		ctx.Navigate("/preview")
	})
}

func (s *SplitPage) onSplit(ctx app.Context, e app.Event) {
	var job Job
	callAPI(ctx, "POST", "/api/split/run", nil, &job, func(err error) {
		if err != nil {
			s.error = err.Error()
			return
		}
		s.state.Running = true
		waitForJob(ctx, job.ID, func(job Job) {
			s.update(ctx, "GET", nil)
		})
	})
}

// Render renders the split tab
func (s *SplitPage) Render() app.UI {
	ready := s.state.Pdf != nil && s.state.PlanError == "" && len(s.state.Plan) > 0
	return app.Div().
		Class("split-page").
		Body(
			app.If(s.error != "", func() app.UI {
				return app.Div().Class("error").Body(app.Text("Error: " + s.error))
			}),
			s.renderSelection(),
			app.If(s.state.Pdf != nil, func() app.UI {
				return s.renderMethod()
			}),
			app.If(s.picking, func() app.UI {
				return s.renderPicker()
			}),
			app.Div().Class("action-bar").Body(
				app.Button().Class("btn-secondary").Disabled(!ready).OnClick(s.onPreview).Text("Preview"),
				app.Button().
					Class("btn-primary").
					Disabled(!ready || s.state.Running).
					OnClick(s.onSplit).
					Text("Split PDF"),
			),
		)
}

func (s *SplitPage) renderSelection() app.UI {
	if s.state.Pdf == nil {
		return app.Div().Class("no-results").Body(
			app.P().Text("Choose a PDF to split"),
			app.Button().Class("btn-primary").OnClick(s.onPick).Text("Select PDF"),
		)
	}
	file := *s.state.Pdf
	return app.Div().Class("pdf-item").Body(
		app.Div().Class("pdf-icon").Text("📄"),
		app.Div().Class("pdf-info").Body(
			app.H3().Text(file.Name),
			app.P().Class("pdf-meta").Text(file.MetaLine),
		),
		app.Button().Class("btn-secondary").OnClick(s.onPick).Text("Change"),
		app.Button().Class("btn-icon").OnClick(s.onClearSelection).Text("✕"),
	)
}

func (s *SplitPage) renderMethod() app.UI {
	return app.Div().Class("split-method").Body(
		app.Range(splitMethods).Slice(func(i int) app.UI {
			m := splitMethods[i]
			return app.Label().Class("radio-label").Body(
				app.Input().
					Type("radio").
					Name("split-method").
					Checked(s.state.Method == m.Method).
					OnChange(s.onMethod(m.Method)),
				app.Text(" "+m.Title),
			)
		}),
		app.If(s.state.Method == 0, func() app.UI {
			return app.Input().
				Type("text").
				Class("text-input").
				Placeholder("e.g. 1-3, 5, 8-10").
				Value(s.state.RangesText).
				OnChange(s.onRangesChange)
		}),
		app.If(s.state.Method == 2, func() app.UI {
			return app.Input().
				Type("number").
				Class("text-input").
				Min(1).
				Value(s.state.PagesPerFileText).
				OnChange(s.onPagesPerFileChange)
		}),
		app.If(s.state.PlanError != "", func() app.UI {
			return app.P().Class("error").Text(s.state.PlanError)
		}).Else(func() app.UI {
			return app.P().Class("page-info").Text(planSummary(s.state.Plan))
		}),
	)
}

func (s *SplitPage) renderPicker() app.UI {
	return app.Div().Class("overlay").Body(
		app.Div().Class("options-panel").Body(
			app.H3().Text("Select PDF"),
			app.Range(s.pdfs).Slice(func(i int) app.UI {
				file := s.pdfs[i]
				return app.Button().
					Class("option-item").
					Disabled(file.IsLocked).
					OnClick(s.onSelect(file.ID)).
					Text(file.Name)
			}),
			app.Button().Class("btn-secondary").OnClick(func(ctx app.Context, e app.Event) {
				s.picking = false
			}).Text("Cancel"),
		),
	)
}
