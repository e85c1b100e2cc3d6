package database

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/uptrace/bun"
)

// BunDocument represents the pdf_documents table for Bun ORM
type BunDocument struct {
	bun.BaseModel `bun:"table:pdf_documents,alias:d"`

	ID            int       `bun:"id,pk,autoincrement"`
	ULID          string    `bun:"ulid,notnull,unique"` // Stored as string in DB
	URI           string    `bun:"uri,notnull,unique"`
	Path          string    `bun:"path,notnull"`
	Name          string    `bun:"name,notnull"`
	Folder        string    `bun:"folder,notnull"`
	SizeBytes     int64     `bun:"size_bytes,notnull,default:0"`
	PagesCount    int       `bun:"pages_count,notnull,default:0"`
	Locked        bool      `bun:"locked,notnull,default:false"`
	CreatedEpoch  int64     `bun:"created_epoch,notnull,default:0"`
	ModifiedEpoch int64     `bun:"modified_epoch,notnull,default:0"`
	IndexedAt     time.Time `bun:"indexed_at,notnull,default:current_timestamp"`
	UpdatedAt     time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// ToDocument converts BunDocument to Document
func (bd *BunDocument) ToDocument() (*Document, error) {
	parsedULID, err := ulid.Parse(bd.ULID)
	if err != nil {
		return nil, err
	}

	return &Document{
		ID:            bd.ID,
		ULID:          parsedULID,
		URI:           bd.URI,
		Path:          bd.Path,
		Name:          bd.Name,
		Folder:        bd.Folder,
		SizeBytes:     bd.SizeBytes,
		PagesCount:    bd.PagesCount,
		Locked:        bd.Locked,
		CreatedEpoch:  bd.CreatedEpoch,
		ModifiedEpoch: bd.ModifiedEpoch,
		IndexedAt:     bd.IndexedAt,
	}, nil
}

// FromDocument converts Document to BunDocument
func FromDocument(doc *Document) *BunDocument {
	indexedAt := doc.IndexedAt
	if indexedAt.IsZero() {
		indexedAt = time.Now()
	}
	return &BunDocument{
		ID:            doc.ID,
		ULID:          doc.ULID.String(),
		URI:           doc.URI,
		Path:          doc.Path,
		Name:          doc.Name,
		Folder:        doc.Folder,
		SizeBytes:     doc.SizeBytes,
		PagesCount:    doc.PagesCount,
		Locked:        doc.Locked,
		CreatedEpoch:  doc.CreatedEpoch,
		ModifiedEpoch: doc.ModifiedEpoch,
		IndexedAt:     indexedAt,
		UpdatedAt:     time.Now(),
	}
}

// BunSettings represents the settings table for Bun ORM
type BunSettings struct {
	bun.BaseModel `bun:"table:settings,alias:s"`

	ID            int       `bun:"id,pk"`
	DarkMode      bool      `bun:"dark_mode,notnull"`
	Notifications bool      `bun:"notifications,notnull"`
	UpdatedAt     time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// BunJob represents the jobs table for Bun ORM
type BunJob struct {
	bun.BaseModel `bun:"table:jobs,alias:j"`

	ID          string     `bun:"id,pk"` // ULID as string
	Type        string     `bun:"type,notnull"`
	Status      string     `bun:"status,default:'pending'"`
	Progress    int        `bun:"progress,default:0"`
	CurrentStep string     `bun:"current_step,default:''"`
	TotalSteps  int        `bun:"total_steps,default:0"`
	Message     string     `bun:"message,default:''"`
	Error       string     `bun:"error,nullzero"`
	Result      string     `bun:"result,nullzero"`
	CreatedAt   time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
	StartedAt   *time.Time `bun:"started_at,nullzero"`
	CompletedAt *time.Time `bun:"completed_at,nullzero"`
}

// ToJob converts BunJob to Job
func (bj *BunJob) ToJob() (*Job, error) {
	parsedULID, err := ulid.Parse(bj.ID)
	if err != nil {
		return nil, err
	}

	return &Job{
		ID:          parsedULID,
		Type:        JobType(bj.Type),
		Status:      JobStatus(bj.Status),
		Progress:    bj.Progress,
		CurrentStep: bj.CurrentStep,
		TotalSteps:  bj.TotalSteps,
		Message:     bj.Message,
		Error:       bj.Error,
		Result:      bj.Result,
		CreatedAt:   bj.CreatedAt,
		UpdatedAt:   bj.UpdatedAt,
		StartedAt:   bj.StartedAt,
		CompletedAt: bj.CompletedAt,
	}, nil
}

// FromJob converts Job to BunJob
func FromJob(job *Job) *BunJob {
	return &BunJob{
		ID:          job.ID.String(),
		Type:        string(job.Type),
		Status:      string(job.Status),
		Progress:    job.Progress,
		CurrentStep: job.CurrentStep,
		TotalSteps:  job.TotalSteps,
		Message:     job.Message,
		Error:       job.Error,
		Result:      job.Result,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
	}
}
