package webapp

import (
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// settingsChanged is the action raised after the toggles are saved
const settingsChanged = "settings-changed"

// SettingsPage is the Settings tab
type SettingsPage struct {
	app.Compo
	settings Settings
	loaded   bool
	error    string
}

// OnMount is called when the component is mounted
func (s *SettingsPage) OnMount(ctx app.Context) {
	var settings Settings
	callAPI(ctx, "GET", "/api/settings", nil, &settings, func(err error) {
		if err != nil {
			s.error = err.Error()
			return
		}
		s.settings = settings
		s.loaded = true
	})
}

func (s *SettingsPage) save(ctx app.Context, next Settings) {
	var saved Settings
	callAPI(ctx, "PUT", "/api/settings", next, &saved, func(err error) {
		if err != nil {
			s.error = err.Error()
			return
		}
		s.error = ""
		s.settings = saved
		ctx.NewActionWithValue(settingsChanged, saved)
	})
}

func (s *SettingsPage) onDarkMode(ctx app.Context, e app.Event) {
	next := s.settings
	next.DarkMode = ctx.JSSrc().Get("checked").Bool()
	s.save(ctx, next)
}

func (s *SettingsPage) onNotifications(ctx app.Context, e app.Event) {
	next := s.settings
	next.Notifications = ctx.JSSrc().Get("checked").Bool()
	s.save(ctx, next)
}

func (s *SettingsPage) onRate(ctx app.Context, e app.Event) {
	app.Window().Call("open", "https://github.com/drummonds/pdfmanager", "_blank")
}

func (s *SettingsPage) onShareApp(ctx app.Context, e app.Event) {
	share("PDF Manager", []string{app.Window().Get("location").Get("origin").String()})
}

// Render renders the settings tab
func (s *SettingsPage) Render() app.UI {
	return app.Div().
		Class("settings-page").
		Body(
			app.Div().Class("app-card").Body(
				app.Div().Class("app-card-icon").Text("📄"),
				app.H2().Text("PDF Manager"),
				app.P().Text("Your complete PDF toolkit"),
			),
			app.If(s.error != "", func() app.UI {
				return app.Div().Class("error").Body(app.Text("Error: " + s.error))
			}),
			app.Div().Class("settings-section").Body(
				app.H3().Text("APP PREFERENCES"),
				s.renderToggle("Dark Mode", "Use the dark theme", s.settings.DarkMode, s.onDarkMode),
			),
			app.Div().Class("settings-section").Body(
				app.H3().Text("SECURITY & PRIVACY"),
				s.renderToggle("Notifications", "Show a message when a job finishes", s.settings.Notifications, s.onNotifications),
			),
			app.Div().Class("settings-section").Body(
				app.H3().Text("SUPPORT & FEEDBACK"),
				app.Button().Class("settings-item").OnClick(s.onRate).Text("Rate this app"),
				app.Button().Class("settings-item").OnClick(s.onShareApp).Text("Share this app"),
				app.A().Href("/about").Class("settings-item").Text("About"),
			),
		)
}

func (s *SettingsPage) renderToggle(title, subtitle string, checked bool, onChange app.EventHandler) app.UI {
	return app.Label().Class("settings-item settings-toggle").Body(
		app.Div().Body(
			app.Div().Class("settings-title").Text(title),
			app.Div().Class("settings-subtitle").Text(subtitle),
		),
		app.Input().
			Type("checkbox").
			Checked(checked).
			Disabled(!s.loaded).
			OnChange(onChange),
	)
}
