package mpostgres

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/bxcodec/dbresolver/v2"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"

	// File system migration source, registered so migrate.NewWithDatabaseInstance
	// can resolve a "file://" URL.
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/elder-platform/elder/common/mlog"
)

// defaultMigrationsPath is used when MigrationsPath is left empty.
const defaultMigrationsPath = "components/core/migrations"

// PostgresConnection is a hub which deals with primary/replica postgres
// connections for the Store layer and runs schema migrations on startup.
type PostgresConnection struct {
	ConnectionStringPrimary string
	ConnectionStringReplica string
	PrimaryDBName           string
	ReplicaDBName           string
	MigrationsPath          string
	Logger                  mlog.Logger
	ConnectionDB            *dbresolver.DB
	Connected               bool
}

// Connect keeps a singleton connection with postgres, wiring primary/replica
// round-robin load balancing and running any pending migrations against the
// primary before marking the connection ready.
func (pc *PostgresConnection) Connect() error {
	logger := pc.logger()
	logger.Info("connecting to primary and replica databases")

	dbPrimary, err := sql.Open("pgx", pc.ConnectionStringPrimary)
	if err != nil {
		logger.Errorf("failed to open connection to primary database: %v", err)
		return err
	}

	dbReadOnlyReplica, err := sql.Open("pgx", pc.ConnectionStringReplica)
	if err != nil {
		logger.Errorf("failed to open connection to replica database: %v", err)
		return err
	}

	connectionDB := dbresolver.New(
		dbresolver.WithPrimaryDBs(dbPrimary),
		dbresolver.WithReplicaDBs(dbReadOnlyReplica),
		dbresolver.WithLoadBalancer(dbresolver.RoundRobinLB))

	if err := pc.migrate(dbPrimary); err != nil {
		return err
	}

	if err := connectionDB.Ping(); err != nil {
		logger.Errorf("postgres ping failed: %v", err)
		return err
	}

	pc.Connected = true
	pc.ConnectionDB = &connectionDB

	logger.Info("connected to postgres")

	return nil
}

func (pc *PostgresConnection) migrate(dbPrimary *sql.DB) error {
	logger := pc.logger()

	migrationsPath := pc.MigrationsPath
	if migrationsPath == "" {
		migrationsPath = defaultMigrationsPath
	}

	absPath, err := filepath.Abs(migrationsPath)
	if err != nil {
		logger.Errorf("failed to resolve migrations path: %v", err)
		return err
	}

	sourceURL, err := url.Parse(filepath.ToSlash(absPath))
	if err != nil {
		logger.Errorf("failed to parse migrations path: %v", err)
		return err
	}

	sourceURL.Scheme = "file"

	driver, err := postgres.WithInstance(dbPrimary, &postgres.Config{
		MultiStatementEnabled: true,
		DatabaseName:          pc.PrimaryDBName,
		SchemaName:            "public",
	})
	if err != nil {
		logger.Errorf("failed to build migration driver: %v", err)
		return err
	}

	m, err := migrate.NewWithDatabaseInstance(sourceURL.String(), pc.PrimaryDBName, driver)
	if err != nil {
		logger.Errorf("failed to load migrations: %v", err)
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Errorf("failed to run migrations: %v", err)
		return err
	}

	return nil
}

func (pc *PostgresConnection) logger() mlog.Logger {
	if pc.Logger != nil {
		return pc.Logger
	}

	return &mlog.NoneLogger{}
}

// GetDB returns the resolver-backed connection, initializing it if necessary.
func (pc *PostgresConnection) GetDB(ctx context.Context) (dbresolver.DB, error) {
	if pc.ConnectionDB == nil {
		if err := pc.Connect(); err != nil {
			return nil, err
		}
	}

	_ = ctx

	return *pc.ConnectionDB, nil
}
