package webapp

import (
	"strings"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// tab routes in bottom bar order
var tabRoutes = []struct {
	Tab   string
	Path  string
	Title string
	Icon  string
}{
	{"pdfs", "/", "PDFs", "📄"},
	{"merge", "/merge", "Merge", "🔗"},
	{"split", "/split", "Split", "✂️"},
	{"images", "/images", "Images", "🖼️"},
	{"settings", "/settings", "Settings", "⚙️"},
}

// Routes lists every path the app renders
var Routes = []string{"/", "/merge", "/split", "/images", "/settings", "/preview", "/jobs", "/about"}

// tabPath maps a workspace tab to its route; unknown tabs go to the PDF list
func tabPath(tab string) string {
	for _, r := range tabRoutes {
		if r.Tab == tab {
			return r.Path
		}
	}
	return "/"
}

// pathTab maps a route back to its tab, or "" for routes outside the tab bar
func pathTab(path string) string {
	path = "/" + strings.Trim(path, "/")
	for _, r := range tabRoutes {
		if r.Path == path {
			return r.Tab
		}
	}
	return ""
}

// followWorkspace navigates to wherever the workspace says the user should be:
// the preview when one is open, otherwise the active tab
func followWorkspace(ctx app.Context, state WorkspaceState) {
	current := app.Window().URL().Path
	target := tabPath(state.ActiveTab)
	if state.Preview != nil {
		target = "/preview"
	}
	if target != current {
		ctx.Navigate(target)
	}
}

// App is the root component of the application
type App struct {
	app.Compo
	darkMode bool
}

// OnMount loads the dark mode setting
func (a *App) OnMount(ctx app.Context) {
	a.darkMode = true
	var settings Settings
	callAPI(ctx, "GET", "/api/settings", nil, &settings, func(err error) {
		if err == nil {
			a.darkMode = settings.DarkMode
		}
	})
	ctx.Handle(settingsChanged, func(ctx app.Context, action app.Action) {
		if s, ok := action.Value.(Settings); ok {
			a.darkMode = s.DarkMode
		}
	})
}

// Render renders the app
func (a *App) Render() app.UI {
	class := "app-container"
	if a.darkMode {
		class += " theme-dark"
	}
	return app.Div().
		Class(class).
		Body(
			app.Header().Body(
				&NavBar{},
			),
			app.Main().Class("main-content").Body(
				app.Div().Class("content").Body(
					a.renderPage(),
				),
			),
			&ToastHost{},
			&TabBar{},
		)
}

// renderPage renders the current page based on the route
func (a *App) renderPage() app.UI {
	switch app.Window().URL().Path {
	case "/":
		return &PdfsPage{}
	case "/merge":
		return &MergePage{}
	case "/split":
		return &SplitPage{}
	case "/images":
		return &ImagesPage{}
	case "/settings":
		return &SettingsPage{}
	case "/preview":
		return &PreviewPage{}
	case "/jobs":
		return &JobsPage{}
	case "/about":
		return &AboutPage{}
	default:
		return &NotFoundPage{}
	}
}
