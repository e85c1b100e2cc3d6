package database

import (
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("database: record not found")

// Document is one indexed PDF in the library
type Document struct {
	ID            int
	ULID          ulid.ULID
	URI           string // file:// reference, unique
	Path          string // absolute path on disk
	Name          string
	Folder        string
	SizeBytes     int64
	PagesCount    int
	Locked        bool
	CreatedEpoch  int64 // seconds, fixed when the file is first indexed
	ModifiedEpoch int64 // seconds, refreshed on every scan
	IndexedAt     time.Time
}

// Settings are the user toggles from the Settings tab
type Settings struct {
	DarkMode      bool `json:"darkMode"`
	Notifications bool `json:"notifications"`
}

// DefaultSettings is what a fresh install starts with
func DefaultSettings() Settings {
	return Settings{DarkMode: true, Notifications: true}
}

// Repository defines database operations
type Repository interface {
	Close() error
	SaveDocument(doc *Document) error
	GetDocumentByULID(ulid string) (*Document, error)
	GetDocumentByURI(uri string) (*Document, error)
	GetAllDocuments() ([]Document, error)
	DeleteDocument(ulid string) error
	UpdateDocumentLocation(ulid string, uri string, path string, name string) error
	// Settings methods
	GetSettings() (*Settings, error)
	SaveSettings(settings *Settings) error
	// Job tracking methods
	CreateJob(jobType JobType, message string) (*Job, error)
	UpdateJobProgress(jobID ulid.ULID, progress int, currentStep string) error
	UpdateJobStatus(jobID ulid.ULID, status JobStatus, message string) error
	UpdateJobError(jobID ulid.ULID, errorMsg string) error
	CompleteJob(jobID ulid.ULID, result string) error
	GetJob(jobID ulid.ULID) (*Job, error)
	GetRecentJobs(limit, offset int) ([]Job, error)
	GetActiveJobs() ([]Job, error)
	DeleteOldJobs(olderThan time.Duration) (int, error)
}

// CalculateUUID returns a ULID for the given time
func CalculateUUID(t time.Time) (ulid.ULID, error) {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	return ulid.New(ulid.Timestamp(t), entropy)
}

// FetchAllDocuments fetches all the documents in the database, newest first
func FetchAllDocuments(db Repository) ([]Document, error) {
	allDocuments, err := db.GetAllDocuments()
	if err != nil {
		Logger.Error("Unable to fetch indexed documents", "error", err)
		return nil, err
	}
	return allDocuments, nil
}

// FetchSettings returns the stored settings, falling back to defaults
func FetchSettings(db Repository) Settings {
	settings, err := db.GetSettings()
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			Logger.Warn("Unable to read settings, using defaults", "error", err)
		}
		return DefaultSettings()
	}
	return *settings
}
