package fx

import (
	"context"

	"Centavo/config"
	"Centavo/internal/engine"
	"Centavo/internal/identity"
	"Centavo/internal/store"

	"go.uber.org/fx"
)

// EngineModule fornece o provedor de sessão e o motor de sincronização.
var EngineModule = fx.Module("engine",
	fx.Provide(
		newSessionProvider,
		newIdentityProvider,
		newEngine,
	),
	fx.Invoke(
		runEngine,
	),
)

func newSessionProvider(cfg *config.Config) *identity.SessionProvider {
	return identity.NewSessionProvider(cfg)
}

func newIdentityProvider(sessions *identity.SessionProvider) identity.Provider {
	return sessions
}

func newEngine(storeClient store.Client, provider identity.Provider) *engine.Engine {
	return engine.NewEngine(storeClient, provider)
}

func runEngine(lc fx.Lifecycle, eng *engine.Engine) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			eng.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			eng.Stop()
			return nil
		},
	})
}
