// Package storage picks the backend named by STORAGE_BACKEND.
package storage

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"

	"reviewpasta/internal/domain"
	"reviewpasta/internal/shared"
	"reviewpasta/internal/storage/filestore"
	"reviewpasta/internal/storage/mongo"
	"reviewpasta/internal/storage/mysql"
	"reviewpasta/internal/storage/postgres"
)

// Open connects to the configured backend. The caller owns Close.
func Open(ctx context.Context, cfg shared.Config) (domain.Store, error) {
	var (
		s   domain.Store
		err error
	)
	switch cfg.StorageBackend {
	case shared.BackendFile, "":
		s, err = filestore.Open(cfg.StorePath)
	case shared.BackendMySQL:
		s, err = mysql.Open(ctx, cfg.MySQLDSN)
	case shared.BackendPostgres:
		s, err = postgres.Open(ctx, cfg.PostgresDSN)
	case shared.BackendMongo:
		s, err = mongo.Open(ctx, cfg.MongoURI, cfg.MongoDB)
	default:
		return nil, errors.Newf("unknown storage backend %q", cfg.StorageBackend)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open %s store", cfg.StorageBackend)
	}
	log.Info().Str("backend", cfg.StorageBackend).Msg("storage ready")
	return s, nil
}
