package command

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-retrobot/internal/config"
	"github.com/tbourn/go-retrobot/internal/repo"
	"github.com/tbourn/go-retrobot/internal/services"
)

// openStore builds the record store for the configured backend and loads
// the previous snapshot. A snapshot that cannot be read is logged and the
// store starts empty. The returned func releases the backend.
func openStore(ctx context.Context, cfg config.Config) (*services.RecordStore, func() error, error) {
	var (
		snap    services.Snapshotter
		closeFn = func() error { return nil }
	)

	switch cfg.Store.Backend {
	case config.BackendSQLite:
		db, err := repo.OpenSQLite(cfg.Store.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite %s: %w", cfg.Store.DBPath, err)
		}
		s, err := repo.NewSQLiteSnapshot(db)
		if err != nil {
			return nil, nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		snap = s
		closeFn = func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}
	default:
		snap = repo.NewCSVFile(cfg.Store.StatePath)
	}

	store := services.NewRecordStore(snap)
	if err := store.Load(ctx); err != nil {
		log.Warn().Err(err).Str("backend", cfg.Store.Backend).Msg("could not restore feedback, starting empty")
	} else {
		log.Info().Int("entries", store.Len()).Str("backend", cfg.Store.Backend).Msg("feedback restored")
	}
	return store, closeFn, nil
}
