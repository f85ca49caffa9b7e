// Package bundb constructs the bun database handle and the per-module
// repositories that share it.
package bundb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	coursedb "github.com/fairway-collective/roundsync/app/modules/course/infrastructure/repositories"
	rounddb "github.com/fairway-collective/roundsync/app/modules/round/infrastructure/repositories"
)

// DBService bundles the repositories on one connection pool.
type DBService struct {
	RoundDB  *rounddb.RoundDBImpl
	CourseDB *coursedb.CourseDBImpl
	db       *bun.DB
}

// GetDB returns the underlying database connection pool.
func (dbService *DBService) GetDB() *bun.DB {
	return dbService.db
}

// NewBunDBService connects to Postgres and wires the module repositories.
func NewBunDBService(ctx context.Context, dsn string, logger *slog.Logger) (*DBService, error) {
	sqldb, err := pgConn(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := BunDB(sqldb)

	dbService := &DBService{
		RoundDB:  &rounddb.RoundDBImpl{DB: db},
		CourseDB: &coursedb.CourseDBImpl{DB: db},
		db:       db,
	}

	db.RegisterModel(&rounddb.Round{})
	db.RegisterModel(&coursedb.Course{})

	logger.InfoContext(ctx, "Database connection established")
	return dbService, nil
}

// NewTestDBService wires the repositories on an externally managed bun.DB.
// Tests own the connection lifecycle.
func NewTestDBService(db *bun.DB) (*DBService, error) {
	db.RegisterModel(&rounddb.Round{})
	db.RegisterModel(&coursedb.Course{})

	return &DBService{
		RoundDB:  &rounddb.RoundDBImpl{DB: db},
		CourseDB: &coursedb.CourseDBImpl{DB: db},
		db:       db,
	}, nil
}

// BunDB returns a new bun.DB for the given sql.DB connection pool.
func BunDB(sqldb *sql.DB) *bun.DB {
	return bun.NewDB(sqldb, pgdialect.New())
}

func pgConn(ctx context.Context, dsn string) (*sql.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))

	if err := sqldb.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return sqldb, nil
}
