package fx

import (
	"context"

	"Centavo/config"
	"Centavo/internal/store"
	"Centavo/internal/store/postgres"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

var InfrastructureModule = fx.Module("infrastructure",
	fx.Provide(
		newDatabase,
		newListener,
		newStoreClient,
	),
	fx.Invoke(
		runListener,
	),
)

func newDatabase(cfg *config.Config) (*gorm.DB, error) {
	return postgres.NewDb(cfg)
}

func newListener(cfg *config.Config) *postgres.Listener {
	return postgres.NewListener(cfg)
}

func newStoreClient(db *gorm.DB, listener *postgres.Listener) store.Client {
	return postgres.NewClient(db, listener)
}

func runListener(lc fx.Lifecycle, listener *postgres.Listener) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			listener.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			listener.Stop()
			return nil
		},
	})
}
