package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// AppliedMigration is a row of the migrations tracking table
type AppliedMigration struct {
	bun.BaseModel `bun:"table:bun_schema_migrations"`
	Version       string    `bun:"version,pk"`
	Name          string    `bun:"name,notnull"`
	AppliedAt     time.Time `bun:"applied_at,nullzero,notnull,default:current_timestamp"`
}

// migration statements may use {{id}} and {{false}}, filled in per dialect
type migration struct {
	version    string
	name       string
	statements []string
}

var migrations = []migration{
	{"001", "create_pdf_documents", []string{
		`CREATE TABLE IF NOT EXISTS pdf_documents (
			{{id}},
			ulid TEXT NOT NULL UNIQUE,
			uri TEXT NOT NULL UNIQUE,
			path TEXT NOT NULL,
			name TEXT NOT NULL,
			folder TEXT NOT NULL,
			size_bytes BIGINT NOT NULL DEFAULT 0,
			pages_count INTEGER NOT NULL DEFAULT 0,
			locked BOOLEAN NOT NULL DEFAULT {{false}},
			created_epoch BIGINT NOT NULL DEFAULT 0,
			modified_epoch BIGINT NOT NULL DEFAULT 0,
			indexed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		"CREATE INDEX IF NOT EXISTS idx_pdf_documents_created ON pdf_documents(created_epoch DESC)",
		"CREATE INDEX IF NOT EXISTS idx_pdf_documents_folder ON pdf_documents(folder)",
	}},
	{"002", "create_settings", []string{
		`CREATE TABLE IF NOT EXISTS settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			dark_mode BOOLEAN NOT NULL,
			notifications BOOLEAN NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}},
	{"003", "create_jobs", []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			status TEXT DEFAULT 'pending',
			progress INTEGER DEFAULT 0,
			current_step TEXT DEFAULT '',
			total_steps INTEGER DEFAULT 0,
			message TEXT DEFAULT '',
			error TEXT,
			result TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			started_at TIMESTAMP,
			completed_at TIMESTAMP
		)`,
		"CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status)",
		"CREATE INDEX IF NOT EXISTS idx_jobs_type_created ON jobs(type, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_jobs_completed_at ON jobs(completed_at) WHERE completed_at IS NOT NULL",
	}},
}

// dialectSQL fills the per-dialect placeholders of a migration statement
func dialectSQL(name dialect.Name, statement string) string {
	id, falseValue := "id INTEGER PRIMARY KEY AUTOINCREMENT", "0"
	if name == dialect.PG {
		id, falseValue = "id SERIAL PRIMARY KEY", "false"
	}
	return strings.NewReplacer("{{id}}", id, "{{false}}", falseValue).Replace(statement)
}

// runMigrations applies every migration not yet recorded, each in its own
// transaction together with its tracking row
func (b *BunDB) runMigrations(ctx context.Context) error {
	_, err := b.db.NewCreateTable().Model((*AppliedMigration)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var applied []string
	if err := b.db.NewSelect().Model((*AppliedMigration)(nil)).Column("version").Scan(ctx, &applied); err != nil {
		return fmt.Errorf("failed to check applied migrations: %w", err)
	}
	done := make(map[string]bool, len(applied))
	for _, version := range applied {
		done[version] = true
	}

	name := b.db.Dialect().Name()
	for _, m := range migrations {
		if done[m.version] {
			continue
		}
		Logger.Info("Running migration", "version", m.version, "name", m.name)
		err := b.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			for _, statement := range m.statements {
				if _, err := tx.ExecContext(ctx, dialectSQL(name, statement)); err != nil {
					return err
				}
			}
			_, err := tx.NewInsert().Model(&AppliedMigration{Version: m.version, Name: m.name}).Exec(ctx)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to run migration %s_%s: %w", m.version, m.name, err)
		}
	}
	return nil
}
