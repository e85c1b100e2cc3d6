package webapp

import (
	"testing"
)

func TestDatabaseLabel(t *testing.T) {
	tests := map[string]string{
		"postgres":    "PostgreSQL",
		"cockroachdb": "CockroachDB",
		"sqlite":      "SQLite",
		"ephemeral":   "PostgreSQL (ephemeral)",
		"mongodb":     "mongodb",
	}
	for dbType, want := range tests {
		if got := databaseLabel(dbType); got != want {
			t.Errorf("databaseLabel(%q) = %q, want %q", dbType, got, want)
		}
	}
}

func TestRendererLabel(t *testing.T) {
	tests := map[string]string{
		"pdfium": "PDFium (WebAssembly)",
		"":       "PDFium (WebAssembly)",
		"fitz":   "MuPDF (go-fitz)",
		"mupdf":  "MuPDF (go-fitz)",
		"other":  "other",
	}
	for renderer, want := range tests {
		if got := rendererLabel(renderer); got != want {
			t.Errorf("rendererLabel(%q) = %q, want %q", renderer, got, want)
		}
	}
}

func TestAboutSections(t *testing.T) {
	sqlite := AboutInfo{DatabaseType: "sqlite", DatabaseHost: "localhost", CachedDocuments: 2, LibraryPaths: []string{"/a", "/b"}}
	sections := sqlite.sections()
	if len(sections) != 3 {
		t.Fatalf("Expected 3 sections, got %d", len(sections))
	}
	if got := sections[0].rows[2][1]; got != "2" {
		t.Errorf("Expected 2 open documents, got %q", got)
	}
	if got := sections[2].rows[0][1]; got != "/a, /b" {
		t.Errorf("Expected joined library folders, got %q", got)
	}
	if n := len(sections[1].rows); n != 3 {
		t.Errorf("Expected no host row for sqlite, got %d rows", n)
	}

	postgres := AboutInfo{DatabaseType: "postgres", DatabaseHost: "db", DatabasePort: "5432", IsEphemeral: true}
	rows := postgres.sections()[1].rows
	if last := rows[len(rows)-1]; last != [2]string{"Host", "db:5432"} {
		t.Errorf("Expected host row, got %v", last)
	}
	if rows[2][1] != "Ephemeral, removed on exit" {
		t.Errorf("Expected ephemeral lifetime, got %q", rows[2][1])
	}
}

func TestAboutPageRenderStates(t *testing.T) {
	for name, page := range map[string]*AboutPage{
		"loading": {loading: true},
		"error":   {error: "Network error"},
		"loaded":  {aboutInfo: AboutInfo{AppName: "PDF Manager", Renderer: "pdfium", DatabaseType: "sqlite"}},
	} {
		if page.Render() == nil {
			t.Errorf("Expected %s state to render", name)
		}
	}
}
