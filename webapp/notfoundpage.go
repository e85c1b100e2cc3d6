package webapp

import (
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// NotFoundPage is shown for paths outside the tab and tool routes
type NotFoundPage struct {
	app.Compo
	Path string
}

func (p *NotFoundPage) missingPath() string {
	if p.Path != "" {
		return p.Path
	}
	return app.Window().URL().Path
}

// Render lists the tabs so the user can get back to a PDF tool
func (p *NotFoundPage) Render() app.UI {
	return app.Section().Class("not-found-container").Body(
		app.H1().Class("not-found-title").Text("404"),
		app.P().Class("not-found-message").Body(
			app.Text("Nothing lives at "),
			app.Code().Text(p.missingPath()),
		),
		app.Ul().Class("not-found-actions").Body(
			app.Range(tabRoutes).Slice(func(i int) app.UI {
				r := tabRoutes[i]
				return app.Li().Body(
					app.A().Href(r.Path).Class("not-found-home-link").
						Text(r.Icon + " " + r.Title),
				)
			}),
		),
	)
}
