package database

import (
	"log/slog"
	"os"
	"testing"
)

func TestSetupEphemeralPostgresDatabase(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping ephemeral postgres test in short mode")
	}
	Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	ephemeralDB, err := SetupEphemeralPostgresDatabase()
	if err != nil {
		// postgres binaries are not installed everywhere
		t.Skipf("Ephemeral postgres unavailable: %v", err)
	}
	defer ephemeralDB.Close()

	t.Log("Ephemeral database setup successfully!")

	doc := testDocument(t, "/test/pg.pdf")
	if err := ephemeralDB.SaveDocument(doc); err != nil {
		t.Fatalf("Failed to save document: %v", err)
	}

	retrieved, err := ephemeralDB.GetDocumentByURI(doc.URI)
	if err != nil {
		t.Fatalf("Failed to retrieve document: %v", err)
	}
	if retrieved.Name != doc.Name {
		t.Fatalf("Expected document name '%s', got '%s'", doc.Name, retrieved.Name)
	}

	settings := Settings{DarkMode: false, Notifications: true}
	if err := ephemeralDB.SaveSettings(&settings); err != nil {
		t.Fatalf("Failed to save settings: %v", err)
	}
	if got := FetchSettings(ephemeralDB); got != settings {
		t.Errorf("Expected settings %+v, got %+v", settings, got)
	}
}
