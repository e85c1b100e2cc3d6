package webapp

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// fileOptions is the options panel in display order
var fileOptions = []struct {
	Action string
	Title  string
}{
	{"RENAME", "Rename"},
	{"MERGE", "Merge"},
	{"SPLIT", "Split"},
	{"COMPRESS", "Compress PDF"},
	{"REORDER_PAGES", "Reorder pages"},
	{"SET_PASSWORD", "Set password"},
	{"REMOVE_PASSWORD", "Remove password"},
	{"PRINT", "Print"},
	{"SHARE", "Share"},
	{"DETAILS", "Details"},
	{"DELETE", "Delete"},
}

// navigatingOptions are handled by the workspace rather than their own route
var navigatingOptions = map[string]bool{"MERGE": true, "SPLIT": true, "DETAILS": true}

// parseOrder reads a page order like "3, 1, 2"
func parseOrder(text string) ([]int, error) {
	var order []int
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		page, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%q is not a page number", part)
		}
		order = append(order, page)
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("no pages given")
	}
	return order, nil
}

// ViewLink is the shareable link of a document
func ViewLink(id string) string {
	base := GetAPIBaseURL()
	if base == "" && app.IsClient {
		base = app.Window().Get("location").Get("origin").String()
	}
	return base + "/document/view/" + url.PathEscape(id)
}

// selectionTitle is the selection bar heading
func selectionTitle(count int) string {
	return fmt.Sprintf("%d selected", count)
}

// PdfsPage is the PDFs tab: the library list, selection mode and file options
type PdfsPage struct {
	app.Compo
	state   WorkspaceState
	details *PdfDetails
	loading bool
	error   string
}

// OnMount is called when the component is mounted
func (p *PdfsPage) OnMount(ctx app.Context) {
	p.loading = true
	p.load(ctx)
}

func (p *PdfsPage) load(ctx app.Context) {
	var state WorkspaceState
	callAPI(ctx, "GET", "/api/workspace", nil, &state, func(err error) {
		p.loading = false
		if err != nil {
			p.error = err.Error()
			return
		}
		p.setState(ctx, state)
	})
}

// act posts to a workspace route and follows the resulting state
func (p *PdfsPage) act(ctx app.Context, method, path string, body any) {
	var state WorkspaceState
	callAPI(ctx, method, path, body, &state, func(err error) {
		if err != nil {
			p.error = err.Error()
			return
		}
		p.setState(ctx, state)
		followWorkspace(ctx, state)
	})
}

func (p *PdfsPage) setState(ctx app.Context, state WorkspaceState) {
	p.error = ""
	p.state = state
	if state.Details == nil {
		p.details = nil
		return
	}
	if p.details == nil || p.details.ID != state.Details.ID {
		p.loadDetails(ctx, state.Details.ID)
	}
}

func (p *PdfsPage) loadDetails(ctx app.Context, id string) {
	var details PdfDetails
	callAPI(ctx, "GET", "/api/pdfs/"+url.PathEscape(id)+"/details", nil, &details, func(err error) {
		if err != nil {
			p.error = err.Error()
			return
		}
		p.details = &details
	})
}

func (p *PdfsPage) onReload(ctx app.Context, e app.Event) {
	p.loading = true
	var list ListState
	callAPI(ctx, "POST", "/api/pdfs/reload", nil, &list, func(err error) {
		p.loading = false
		if err != nil {
			p.error = err.Error()
			return
		}
		p.state.List = list
	})
}

func (p *PdfsPage) onUpload(ctx app.Context, e app.Event) {
	input := ctx.JSSrc()
	var uploaded []PdfFile
	uploadFiles(ctx, "/api/pdfs/upload", input, &uploaded, func(err error) {
		input.Set("value", "")
		if err != nil {
			p.error = err.Error()
			return
		}
		p.load(ctx)
	})
}

func (p *PdfsPage) onItemClick(id string) app.EventHandler {
	return func(ctx app.Context, e app.Event) {
		p.act(ctx, "POST", "/api/selection/click/"+url.PathEscape(id), nil)
	}
}

// onItemLongPress handles the context menu, which mobile browsers raise on long press
func (p *PdfsPage) onItemLongPress(id string) app.EventHandler {
	return func(ctx app.Context, e app.Event) {
		e.PreventDefault()
		p.act(ctx, "POST", "/api/selection/longpress/"+url.PathEscape(id), nil)
	}
}

func (p *PdfsPage) onOptionsOpen(id string) app.EventHandler {
	return func(ctx app.Context, e app.Event) {
		e.Call("stopPropagation")
		p.act(ctx, "POST", "/api/options/"+url.PathEscape(id)+"/open", nil)
	}
}

func (p *PdfsPage) onOptionsClose(ctx app.Context, e app.Event) {
	p.act(ctx, "POST", "/api/options/close", nil)
}

// onOption runs the chosen file option
func (p *PdfsPage) onOption(action string, file PdfFile) app.EventHandler {
	return func(ctx app.Context, e app.Event) {
		id := url.PathEscape(file.ID)
		if navigatingOptions[action] {
			p.act(ctx, "POST", "/api/options/"+id+"/select", map[string]string{"action": action})
			return
		}

		p.act(ctx, "POST", "/api/options/close", nil)
		switch action {
		case "RENAME":
			if name, ok := prompt("New name", strings.TrimSuffix(file.Name, ".pdf")); ok {
				p.run(ctx, "PATCH", "/api/pdfs/"+id, map[string]string{"name": name})
			}
		case "COMPRESS":
			p.run(ctx, "POST", "/api/pdfs/"+id+"/compress", nil)
		case "REORDER_PAGES":
			text, ok := prompt(fmt.Sprintf("New page order (%d pages), e.g. 3, 1, 2", file.PagesCount), "")
			if !ok {
				return
			}
			order, err := parseOrder(text)
			if err != nil {
				p.error = err.Error()
				return
			}
			p.run(ctx, "POST", "/api/pdfs/"+id+"/reorder", map[string][]int{"order": order})
		case "SET_PASSWORD":
			if password, ok := prompt("Password", ""); ok {
				p.run(ctx, "POST", "/api/pdfs/"+id+"/password", map[string]string{"userPassword": password})
			}
		case "REMOVE_PASSWORD":
			if password, ok := prompt("Current password", ""); ok {
				p.run(ctx, "POST", "/api/pdfs/"+id+"/unlock", map[string]string{"password": password})
			}
		case "PRINT":
			app.Window().Call("open", ViewLink(file.ID), "_blank")
		case "SHARE":
			share(file.Name, []string{ViewLink(file.ID)})
		case "DELETE":
			if app.Window().Call("confirm", "Delete "+file.Name+"?").Bool() {
				p.run(ctx, "DELETE", "/api/pdfs/"+id, nil)
			}
		}
	}
}

// run calls a file route and reloads the list; job routes report back through toasts
func (p *PdfsPage) run(ctx app.Context, method, path string, body any) {
	callAPI(ctx, method, path, body, nil, func(err error) {
		if err != nil {
			p.error = err.Error()
			return
		}
		p.load(ctx)
	})
}

func (p *PdfsPage) onToggleAll(ctx app.Context, e app.Event) {
	p.act(ctx, "POST", "/api/selection/toggle-all", nil)
}

func (p *PdfsPage) onExitSelection(ctx app.Context, e app.Event) {
	p.act(ctx, "POST", "/api/selection/exit", nil)
}

func (p *PdfsPage) onMergeSelected(ctx app.Context, e app.Event) {
	p.act(ctx, "POST", "/api/selection/merge", nil)
}

func (p *PdfsPage) onShareSelected(ctx app.Context, e app.Event) {
	var resp struct {
		Links []string `json:"links"`
	}
	callAPI(ctx, "GET", "/api/selection/share", nil, &resp, func(err error) {
		if err != nil {
			p.error = err.Error()
			return
		}
		share(selectionTitle(len(resp.Links)), resp.Links)
	})
}

func (p *PdfsPage) onDeleteSelected(ctx app.Context, e app.Event) {
	count := p.state.List.SelectionCount
	if !app.Window().Call("confirm", fmt.Sprintf("Delete %d PDFs?", count)).Bool() {
		return
	}
	p.act(ctx, "POST", "/api/selection/delete", nil)
}

func (p *PdfsPage) onCloseDetails(ctx app.Context, e app.Event) {
	p.act(ctx, "DELETE", "/api/details", nil)
}

// prompt asks for a line of text; ok is false when cancelled
func prompt(message, value string) (string, bool) {
	result := app.Window().Call("prompt", message, value)
	if result.IsNull() || result.IsUndefined() {
		return "", false
	}
	return result.String(), true
}

// share uses the Web Share API when present, otherwise copies the links
func share(title string, links []string) {
	text := strings.Join(links, "\n")
	navigator := app.Window().Get("navigator")
	if navigator.Get("share").Truthy() {
		navigator.Call("share", map[string]interface{}{"title": title, "text": text})
		return
	}
	if clipboard := navigator.Get("clipboard"); clipboard.Truthy() {
		clipboard.Call("writeText", text)
	}
}

// Render renders the PDFs tab
func (p *PdfsPage) Render() app.UI {
	list := p.state.List
	return app.Div().
		Class("pdfs-page").
		Body(
			p.renderToolbar(),
			app.If(p.error != "", func() app.UI {
				return app.Div().Class("error").Body(app.Text("Error: " + p.error))
			}),
			p.renderList(),
			app.If(list.OptionsPanelVisible && list.OptionsPanelPdf != nil, func() app.UI {
				return p.renderOptions(*list.OptionsPanelPdf)
			}),
			app.If(p.details != nil, func() app.UI {
				return p.renderDetails(*p.details)
			}),
		)
}

func (p *PdfsPage) renderToolbar() app.UI {
	list := p.state.List
	if list.SelectionMode {
		toggleText := "Select all"
		if list.AllSelected {
			toggleText = "Deselect all"
		}
		return app.Div().Class("selection-bar").Body(
			app.Button().Class("btn-icon").OnClick(p.onExitSelection).Text("✕"),
			app.Span().Class("selection-title").Text(selectionTitle(list.SelectionCount)),
			app.Button().Class("btn-secondary").OnClick(p.onToggleAll).Text(toggleText),
			app.Button().Class("btn-secondary").OnClick(p.onMergeSelected).Text("Merge"),
			app.Button().Class("btn-secondary").OnClick(p.onShareSelected).Text("Share"),
			app.Button().Class("btn-danger").OnClick(p.onDeleteSelected).Text("Delete"),
		)
	}
	return app.Div().Class("pdfs-toolbar").Body(
		app.Button().
			Class("btn-primary").
			OnClick(p.onReload).
			Disabled(p.loading).
			Text("Reload"),
		app.Label().Class("btn-primary upload-label").Body(
			app.Text("Add PDFs"),
			app.Input().
				Type("file").
				Accept("application/pdf").
				Multiple(true).
				Class("hidden-input").
				OnChange(p.onUpload),
		),
	)
}

func (p *PdfsPage) renderList() app.UI {
	list := p.state.List
	switch {
	case p.loading || list.Loading:
		return app.Div().Class("loading").Body(app.Text("Loading PDFs..."))
	case list.ErrorText != "":
		return app.Div().Class("error").Body(app.Text(list.ErrorText))
	case len(list.Files) == 0:
		return app.Div().Class("no-results").Body(app.Text("No PDFs found"))
	}
	return app.Div().Class("pdf-list").Body(
		app.Range(list.Files).Slice(func(i int) app.UI {
			file := list.Files[i]
			class := "pdf-item"
			if list.IsSelected(file.ID) {
				class += " pdf-item-selected"
			}
			return app.Div().
				Class(class).
				OnClick(p.onItemClick(file.ID)).
				OnContextMenu(p.onItemLongPress(file.ID)).
				Body(
					app.Div().Class("pdf-icon").Body(app.If(file.IsLocked, func() app.UI {
						return app.Text("🔒")
					}).Else(func() app.UI {
						return app.Text("📄")
					})),
					app.Div().Class("pdf-info").Body(
						app.H3().Text(file.Name),
						app.P().Class("pdf-meta").Text(file.MetaLine),
					),
					app.If(!list.SelectionMode, func() app.UI {
						return app.Button().
							Class("btn-icon").
							OnClick(p.onOptionsOpen(file.ID)).
							Text("⋮")
					}),
				)
		}),
	)
}

func (p *PdfsPage) renderOptions(file PdfFile) app.UI {
	return app.Div().Class("overlay").Body(
		app.Div().Class("options-panel").Body(
			app.Div().Class("options-header").Body(
				app.H3().Text(file.Name),
				app.P().Class("pdf-meta").Text(file.MetaLine),
			),
			app.Range(fileOptions).Slice(func(i int) app.UI {
				option := fileOptions[i]
				return app.Button().
					Class("option-item").
					OnClick(p.onOption(option.Action, file)).
					Text(option.Title)
			}),
			app.Button().Class("btn-secondary").OnClick(p.onOptionsClose).Text("Cancel"),
		),
	)
}

func (p *PdfsPage) renderDetails(details PdfDetails) app.UI {
	locked := "No"
	if details.IsLocked {
		locked = "Yes"
	}
	return app.Div().Class("overlay").Body(
		app.Div().Class("details-panel").Body(
			app.H3().Text(details.Name),
			app.Div().Class("info-grid").Body(
				infoItem("Size", details.Size),
				infoItem("Pages", strconv.Itoa(details.PagesCount)),
				infoItem("Created", details.CreatedDate),
				infoItem("Modified", details.LastModifiedDate),
				infoItem("Password protected", locked),
				infoItem("Location", details.Location),
			),
			app.If(details.Text != "", func() app.UI {
				return app.Pre().Class("details-text").Text(details.Text)
			}),
			app.If(details.TextError != "", func() app.UI {
				return app.P().Class("info").Text(details.TextError)
			}),
			app.A().Href(details.ViewURL).Target("_blank").Class("document-link").Text("Open"),
			app.Button().Class("btn-secondary").OnClick(p.onCloseDetails).Text("Close"),
		),
	)
}

// infoItem creates an info item display
func infoItem(label, value string) app.UI {
	return app.Div().Class("info-item").Body(
		app.Div().Class("info-label").Body(app.Text(label)),
		app.Div().Class("info-value").Body(app.Text(value)),
	)
}
