package webapp

import (
	"strconv"
	"strings"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// AboutInfo represents the about information from the API
type AboutInfo struct {
	AppName         string   `json:"appName"`
	Tagline         string   `json:"tagline"`
	Version         string   `json:"version"`
	Renderer        string   `json:"renderer"`
	CachedDocuments int      `json:"cachedDocuments"`
	DatabaseType    string   `json:"databaseType"`
	DatabaseHost    string   `json:"databaseHost"`
	DatabasePort    string   `json:"databasePort"`
	DatabaseName    string   `json:"databaseName"`
	IsEphemeral     bool     `json:"isEphemeral"`
	LibraryPaths    []string `json:"libraryPaths"`
	OutputPath      string   `json:"outputPath"`
	UploadPath      string   `json:"uploadPath"`
}

// AboutPage shows the running configuration reported by /api/about
type AboutPage struct {
	app.Compo
	aboutInfo AboutInfo
	loading   bool
	error     string
}

func (a *AboutPage) OnMount(ctx app.Context) {
	a.loading = true
	var info AboutInfo
	callAPI(ctx, "GET", "/api/about", nil, &info, func(err error) {
		a.loading = false
		if err != nil {
			a.error = err.Error()
			return
		}
		a.aboutInfo = info
	})
}

// aboutSection is one titled block of label/value pairs
type aboutSection struct {
	title string
	rows  [][2]string
}

// sections lays out the about info; the host row only applies to servers
func (info AboutInfo) sections() []aboutSection {
	database := aboutSection{title: "Database", rows: [][2]string{
		{"Type", databaseLabel(info.DatabaseType)},
		{"Name", info.DatabaseName},
		{"Lifetime", connectionLabel(info.IsEphemeral)},
	}}
	if info.DatabaseType != "sqlite" && info.DatabaseHost != "" {
		database.rows = append(database.rows, [2]string{"Host", info.DatabaseHost + ":" + info.DatabasePort})
	}
	return []aboutSection{
		{title: "Application", rows: [][2]string{
			{"Version", info.Version},
			{"Renderer", rendererLabel(info.Renderer)},
			{"Open documents", strconv.Itoa(info.CachedDocuments)},
		}},
		database,
		{title: "Folders", rows: [][2]string{
			{"Library", strings.Join(info.LibraryPaths, ", ")},
			{"Output", info.OutputPath},
			{"Uploads", info.UploadPath},
		}},
	}
}

func (a *AboutPage) Render() app.UI {
	var body app.UI
	switch {
	case a.loading:
		body = app.Div().Class("loading").Text("Loading...")
	case a.error != "":
		body = app.Div().Class("error").Text("Error: " + a.error)
	default:
		sections := a.aboutInfo.sections()
		body = app.Div().Class("about-content").Body(
			app.P().Class("page-info").Text(a.aboutInfo.Tagline),
			app.Range(sections).Slice(func(i int) app.UI {
				section := sections[i]
				return app.Div().Class("about-section").Body(
					app.H3().Text(section.title),
					app.Div().Class("info-grid").Body(
						app.Range(section.rows).Slice(func(j int) app.UI {
							return infoItem(section.rows[j][0], section.rows[j][1])
						}),
					),
				)
			}),
		)
	}
	return app.Div().Class("about-page").Body(app.H2().Text("About PDF Manager"), body)
}

// databaseLabel names a DATABASE_TYPE for display; unknown types pass through
func databaseLabel(dbType string) string {
	switch dbType {
	case "postgres":
		return "PostgreSQL"
	case "cockroachdb":
		return "CockroachDB"
	case "sqlite":
		return "SQLite"
	case "ephemeral":
		return "PostgreSQL (ephemeral)"
	}
	return dbType
}

func rendererLabel(renderer string) string {
	switch renderer {
	case "fitz", "mupdf":
		return "MuPDF (go-fitz)"
	case "", "pdfium":
		return "PDFium (WebAssembly)"
	}
	return renderer
}

func connectionLabel(ephemeral bool) string {
	if ephemeral {
		return "Ephemeral, removed on exit"
	}
	return "Persistent"
}
