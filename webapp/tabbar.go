package webapp

import (
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// TabBar is the bottom navigation between the five tabs
type TabBar struct {
	app.Compo
}

// Render renders the tab bar
func (b *TabBar) Render() app.UI {
	current := pathTab(app.Window().URL().Path)
	return app.Nav().
		Class("tab-bar").
		Body(
			app.Range(tabRoutes).Slice(func(i int) app.UI {
				r := tabRoutes[i]
				class := "tab-item"
				if r.Tab == current {
					class += " tab-item-active"
				}
				return app.A().
					Href(r.Path).
					Class(class).
					OnClick(b.onTabClick(r.Tab, r.Path)).
					Body(
						app.Span().Class("tab-icon").Text(r.Icon),
						app.Span().Class("tab-label").Text(r.Title),
					)
			}),
		)
}

// onTabClick records the tab in the workspace before navigating
func (b *TabBar) onTabClick(tab, path string) func(ctx app.Context, e app.Event) {
	return func(ctx app.Context, e app.Event) {
		e.PreventDefault()
		callAPI(ctx, "PUT", "/api/workspace/tab", map[string]string{"tab": tab}, nil, func(err error) {
			if err != nil {
				app.Log("Unable to switch tab:", err)
			}
			ctx.Navigate(path)
		})
	}
}
