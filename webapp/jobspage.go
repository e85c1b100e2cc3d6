package webapp

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

const jobsRefreshInterval = 2 * time.Second

// jobTypeLabels are in the order offered by the type filter
var jobTypeLabels = []struct{ Type, Label string }{
	{"merge", "Merge PDFs"},
	{"split", "Split PDF"},
	{"images", "Images to PDF"},
	{"compress", "Compress PDF"},
	{"protect", "Set Password"},
	{"unprotect", "Remove Password"},
	{"reorder", "Reorder Pages"},
	{"scan", "Library Scan"},
	{"job_cleanup", "Job Cleanup"},
}

// JobsPage lists recent background jobs and refreshes while visible
type JobsPage struct {
	app.Compo
	jobs     []Job
	filter   string
	loading  bool
	error    string
	paused   bool
	stopPoll chan struct{}
}

func (j *JobsPage) OnMount(ctx app.Context) {
	j.stopPoll = make(chan struct{})
	j.loadJobs(ctx)

	stop := j.stopPoll
	ctx.Async(func() {
		ticker := time.NewTicker(jobsRefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				ctx.Dispatch(func(ctx app.Context) {
					if !j.paused {
						j.loadJobs(ctx)
					}
				})
			}
		}
	})
}

func (j *JobsPage) OnDismount() {
	if j.stopPoll != nil {
		close(j.stopPoll)
		j.stopPoll = nil
	}
}

func (j *JobsPage) Render() app.UI {
	return app.Div().Class("jobs-page").Body(
		app.Div().Class("jobs-controls").Body(
			app.Select().OnChange(j.onFilterChange).Body(
				app.Option().Value("").Selected(j.filter == "").Text("All jobs"),
				app.Range(jobTypeLabels).Slice(func(i int) app.UI {
					l := jobTypeLabels[i]
					return app.Option().Value(l.Type).Selected(j.filter == l.Type).Text(l.Label)
				}),
			),
			app.Button().Class("btn-secondary").OnClick(j.onScanClick).Text("Rescan library"),
			app.Label().Class("auto-refresh-label").Body(
				app.Input().Type("checkbox").Checked(!j.paused).OnChange(j.onLiveChange),
				app.Text(" Live"),
			),
		),
		j.renderBody(),
	)
}

func (j *JobsPage) renderBody() app.UI {
	switch {
	case j.error != "":
		return app.Div().Class("error").Text("Error: " + j.error)
	case j.loading && j.jobs == nil:
		return app.Div().Class("loading").Text("Loading jobs...")
	case len(j.jobs) == 0:
		return app.Div().Class("info").Text("No jobs yet. Merging, splitting or converting PDFs starts one.")
	}
	return app.Div().Class("jobs-list").Body(
		app.Range(j.jobs).Slice(func(i int) app.UI {
			return renderJobCard(j.jobs[i], time.Now())
		}),
	)
}

// renderJobCard shows progress while a job runs and its outcome once done
func renderJobCard(job Job, now time.Time) app.UI {
	var detail app.UI
	switch {
	case job.Error != "":
		detail = app.Div().Class("job-error").Text("Error: " + job.Error)
	case job.Status == "running":
		detail = app.Div().Class("job-progress").Body(
			app.Div().Class("progress-bar").Body(
				app.Div().Class("progress-fill").Style("width", fmt.Sprintf("%d%%", job.Progress)),
			),
			app.Div().Class("progress-text").Text(fmt.Sprintf("%d%% %s", job.Progress, job.CurrentStep)),
		)
	case job.Result != "":
		detail = app.Div().Class("job-result").Text(describeResult(job.Result))
	default:
		detail = app.Div().Class("job-message").Text(job.Message)
	}

	return app.Div().Class("job-card job-"+job.Status).Body(
		app.Div().Class("job-header").Body(
			app.Span().Class("job-type").Text(jobTypeLabel(job.Type)),
			app.Span().Class("job-status-badge job-status-"+job.Status).Text(job.Status),
			app.Span().Class("job-time").Text(whenLabel(job.CreatedAt, now)),
		),
		detail,
		app.Div().Class("job-footer").Body(
			app.Span().Class("job-id").Text(job.ID),
		),
	)
}

// jobTypeLabel names a job type for display; unknown types pass through
func jobTypeLabel(jobType string) string {
	for _, l := range jobTypeLabels {
		if l.Type == jobType {
			return l.Label
		}
	}
	return jobType
}

// whenLabel renders an RFC 3339 timestamp relative to now for the last day
// and as a date after that
func whenLabel(stamp string, now time.Time) string {
	t, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return stamp
	}
	plural := func(n int, unit string) string {
		if n == 1 {
			return "1 " + unit + " ago"
		}
		return fmt.Sprintf("%d %ss ago", n, unit)
	}
	switch age := now.Sub(t); {
	case age < time.Minute:
		return "Just now"
	case age < time.Hour:
		return plural(int(age.Minutes()), "minute")
	case age < 24*time.Hour:
		return plural(int(age.Hours()), "hour")
	}
	return t.Format("Jan 2, 2006 at 3:04 PM")
}

// describeResult summarises a JobResult; anything else is shown raw
func describeResult(result string) string {
	var data JobResult
	if err := json.Unmarshal([]byte(result), &data); err != nil {
		return result
	}
	var parts []string
	switch n := len(data.Outputs); n {
	case 0:
	case 1:
		parts = append(parts, "1 file written")
	default:
		parts = append(parts, fmt.Sprintf("%d files written", n))
	}
	if data.Pages > 0 {
		parts = append(parts, fmt.Sprintf("Pages: %d", data.Pages))
	}
	if data.Details != "" {
		parts = append(parts, data.Details)
	}
	if parts == nil {
		return result
	}
	return strings.Join(parts, ", ")
}

func (j *JobsPage) onFilterChange(ctx app.Context, e app.Event) {
	j.filter = ctx.JSSrc().Get("value").String()
	j.jobs = nil
	j.loadJobs(ctx)
}

func (j *JobsPage) onLiveChange(ctx app.Context, e app.Event) {
	j.paused = !ctx.JSSrc().Get("checked").Bool()
}

func (j *JobsPage) loadJobs(ctx app.Context) {
	j.loading = true
	path := "/api/jobs?limit=50"
	if j.filter != "" {
		path += "&type=" + j.filter
	}
	var jobs []Job
	callAPI(ctx, "GET", path, nil, &jobs, func(err error) {
		j.loading = false
		if err != nil {
			j.error = err.Error()
			return
		}
		j.error = ""
		j.jobs = append([]Job{}, jobs...)
	})
}

func (j *JobsPage) onScanClick(ctx app.Context, e app.Event) {
	callAPI(ctx, "POST", "/api/jobs/scan", nil, nil, func(err error) {
		if err != nil {
			j.error = err.Error()
			return
		}
		j.loadJobs(ctx)
	})
}

// jobFinished reports whether a job reached a terminal status
func jobFinished(status string) bool {
	switch status {
	case "completed", "failed", "cancelled":
		return true
	}
	return false
}

// waitForJob polls a job once a second and calls done when it finishes
func waitForJob(ctx app.Context, id string, done func(job Job)) {
	var job Job
	callAPI(ctx, "GET", "/api/jobs/"+id, nil, &job, func(err error) {
		if err != nil {
			app.Log("Unable to poll job", id, err)
			return
		}
		if jobFinished(job.Status) {
			done(job)
			return
		}
		ctx.After(time.Second, func(ctx app.Context) {
			waitForJob(ctx, id, done)
		})
	})
}
