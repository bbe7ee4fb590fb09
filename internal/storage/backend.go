package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"pagebuilder/internal/config"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/secret"
)

// Backend is the set of stores the app runs on.
type Backend struct {
	Projects  domain.ProjectStore
	Blocks    domain.BlockRepository
	Approvals *ApprovalStore
	// DB holds the approvals table. For the SQL drivers it is also where
	// projects and blocks live; with mongodb it is the local sqlite file.
	DB *DB

	closers []io.Closer
}

// Open connects the configured storage driver. The storage password is
// looked up in secrets under storage.password_secret.
func Open(ctx context.Context, cfg *config.Config, secrets secret.SecretStore) (*Backend, error) {
	password, err := secret.Resolve(secrets, cfg.Storage.PasswordSecret)
	if err != nil {
		return nil, err
	}

	switch cfg.Storage.Driver {
	case "sqlite", "postgres", "mysql":
		db, err := OpenSQL(SQLOptions{
			Dialect:  Dialect(cfg.Storage.Driver),
			Path:     cfg.SQLitePath(),
			Host:     cfg.Storage.Host,
			Port:     cfg.GetStoragePort(),
			Database: cfg.Storage.Database,
			Username: cfg.Storage.Username,
			Password: password,
			SSLMode:  cfg.Storage.SSLMode,
		})
		if err != nil {
			return nil, err
		}
		return NewSQLBackend(db), nil

	case "mongodb":
		db, err := OpenSQLite(cfg.SQLitePath())
		if err != nil {
			return nil, err
		}
		ms, err := OpenMongo(ctx, cfg.Storage.URI, cfg.Storage.Database)
		if err != nil {
			db.Close()
			return nil, err
		}
		return &Backend{
			Projects:  ms,
			Blocks:    ms,
			Approvals: NewApprovalStore(db),
			DB:        db,
			closers:   []io.Closer{ms, db},
		}, nil
	}
	return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
}

// NewSQLBackend wraps an already open DB.
func NewSQLBackend(db *DB) *Backend {
	return &Backend{
		Projects:  NewProjectStore(db),
		Blocks:    NewBlockRepository(db),
		Approvals: NewApprovalStore(db),
		DB:        db,
		closers:   []io.Closer{db},
	}
}

func (b *Backend) Close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
