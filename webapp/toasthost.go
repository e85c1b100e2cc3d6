package webapp

import (
	"time"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// toastLifetime is how long a toast stays on screen
const toastLifetime = 4 * time.Second

// ToastHost polls the backend toast queue and shows each message briefly
type ToastHost struct {
	app.Compo
	toasts        []Toast
	refreshTicker *time.Ticker
}

// OnMount is called when the component is mounted
func (h *ToastHost) OnMount(ctx app.Context) {
	h.drain(ctx)
	ctx.Async(func() {
		h.refreshTicker = time.NewTicker(2 * time.Second)
		for range h.refreshTicker.C {
			h.drain(ctx)
		}
	})
}

// OnDismount is called when the component is unmounted
func (h *ToastHost) OnDismount() {
	if h.refreshTicker != nil {
		h.refreshTicker.Stop()
	}
}

func (h *ToastHost) drain(ctx app.Context) {
	var toasts []Toast
	callAPI(ctx, "GET", "/api/toasts", nil, &toasts, func(err error) {
		if err != nil || len(toasts) == 0 {
			return
		}
		h.toasts = append(h.toasts, toasts...)
		ctx.After(toastLifetime, func(ctx app.Context) {
			h.toasts = h.toasts[min(len(toasts), len(h.toasts)):]
		})
	})
}

// Render renders the visible toasts
func (h *ToastHost) Render() app.UI {
	return app.Div().
		Class("toast-host").
		Body(
			app.Range(h.toasts).Slice(func(i int) app.UI {
				return app.Div().Class("toast").Text(h.toasts[i].Text)
			}),
		)
}
