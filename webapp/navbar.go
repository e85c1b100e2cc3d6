package webapp

import (
	"strconv"
	"time"

	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/drummonds/pdfmanager/internal/build"
)

const activeJobsInterval = 5 * time.Second

// NavBar is the top bar with the page title and a running job counter
type NavBar struct {
	app.Compo
	activeJobs int
	stopPoll   chan struct{}
}

func (n *NavBar) Render() app.UI {
	return app.Nav().Class("navbar").Body(
		app.Div().Class("navbar-brand").Body(
			app.H1().Text(pageTitle(app.Window().URL().Path)),
			app.Span().Class("version-info").Text(build.Version),
		),
		app.Div().Class("navbar-menu").Body(
			app.A().Href("/jobs").Class("navbar-item").Text(jobsLinkText(n.activeJobs)),
			app.A().Href("/about").Class("navbar-item").Text("About"),
		),
	)
}

// jobsLinkText carries the active job count once anything is running
func jobsLinkText(active int) string {
	if active <= 0 {
		return "Jobs"
	}
	return "Jobs (" + strconv.Itoa(active) + ")"
}

// pageTitle is the heading shown for a route
func pageTitle(path string) string {
	if tab := pathTab(path); tab != "" {
		for _, r := range tabRoutes {
			if r.Tab == tab {
				return r.Title
			}
		}
	}
	switch path {
	case "/preview":
		return "Preview"
	case "/jobs":
		return "Jobs"
	case "/about":
		return "About"
	}
	return "PDF Manager"
}

func (n *NavBar) OnMount(ctx app.Context) {
	n.countActiveJobs(ctx)
	n.stopPoll = make(chan struct{})
	stop := n.stopPoll
	ctx.Async(func() {
		ticker := time.NewTicker(activeJobsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				ctx.Dispatch(n.countActiveJobs)
			}
		}
	})
}

func (n *NavBar) OnDismount() {
	if n.stopPoll != nil {
		close(n.stopPoll)
		n.stopPoll = nil
	}
}

// countActiveJobs keeps the previous count when the backend is unreachable
func (n *NavBar) countActiveJobs(ctx app.Context) {
	var jobs []Job
	callAPI(ctx, "GET", "/api/jobs/active", nil, &jobs, func(err error) {
		if err == nil {
			n.activeJobs = len(jobs)
		}
	})
}
