package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/stapelberg/postgrestest"
	"github.com/uptrace/bun/dialect/pgdialect"
)

// EphemeralPostgresDB is a BunDB on a PostgreSQL server living in a temp
// directory; Close removes the server and its data
type EphemeralPostgresDB struct {
	*BunDB
	server *postgrestest.Server
}

// SetupEphemeralPostgresDatabase starts a private server and migrates a fresh
// database on it
func SetupEphemeralPostgresDatabase() (*EphemeralPostgresDB, error) {
	ctx := context.Background()
	server, err := postgrestest.Start(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start ephemeral postgres: %w", err)
	}

	db, err := openEphemeral(ctx, server)
	if err != nil {
		server.Cleanup()
		return nil, err
	}
	Logger.Info("Ephemeral PostgreSQL ready", "server", server.DefaultDatabase())
	return &EphemeralPostgresDB{BunDB: db, server: server}, nil
}

func openEphemeral(ctx context.Context, server *postgrestest.Server) (*BunDB, error) {
	dsn, err := server.CreateDatabase(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create pdfmanager database: %w", err)
	}
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdfmanager database: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	db, err := newBunDB(sqlDB, pgdialect.New(), "ephemeral")
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Close drops the connection then the server; a connection error is only logged
func (e *EphemeralPostgresDB) Close() error {
	if e.BunDB != nil {
		if err := e.BunDB.Close(); err != nil {
			Logger.Warn("Failed to close ephemeral database connection", "error", err)
		}
	}
	if e.server != nil {
		e.server.Cleanup()
		e.server = nil
		Logger.Info("Ephemeral PostgreSQL removed")
	}
	return nil
}
