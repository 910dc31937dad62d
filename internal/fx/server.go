package fx

import (
	"context"
	"time"

	"Centavo/config"
	"Centavo/internal/engine"
	"Centavo/internal/identity"
	"Centavo/internal/logger"
	"Centavo/internal/middleware"
	"Centavo/internal/routes"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// ServerModule fornece a configuração do servidor HTTP
var ServerModule = fx.Module("server",
	fx.Provide(
		newRouter,
		newHandler,
		newSessionRateLimiter,
	),
	fx.Invoke(
		setupRoutes,
	),
)

func newRouter() *gin.Engine {
	return gin.Default()
}

func newHandler(eng *engine.Engine, sessions *identity.SessionProvider) *routes.Handler {
	return &routes.Handler{
		Engine:   eng,
		Sessions: sessions,
	}
}

func newSessionRateLimiter() *middleware.RateLimiter {
	return middleware.NewRateLimiter(100, time.Minute)
}

func setupRoutes(
	lc fx.Lifecycle,
	cfg *config.Config,
	router *gin.Engine,
	handler *routes.Handler,
	provider identity.Provider,
	sessionRateLimiter *middleware.RateLimiter,
) {
	router.Use(middleware.CORSMiddleware())

	public := router.Group("/api")
	public.Use(middleware.RateLimit(sessionRateLimiter))
	{
		public.POST("/session", handler.SignIn)
		public.DELETE("/session", handler.SignOut)
	}

	private := router.Group("/api")
	private.Use(middleware.AuthMiddleware(provider))
	{
		private.GET("/snapshot", handler.GetSnapshot)
		private.GET("/balance", handler.GetBalance)
		private.GET("/profile", handler.GetProfile)

		goals := private.Group("/goals")
		{
			goals.POST("", handler.CreateGoal)
			goals.GET("", handler.ListGoals)
			goals.PATCH("/:id", handler.UpdateGoal)
			goals.POST("/:id/contribution", handler.AddToGoal)
		}

		transactions := private.Group("/transactions")
		{
			transactions.POST("", handler.CreateTransaction)
			transactions.GET("", handler.ListTransactions)
		}
	}

	serverAddr := ":" + cfg.Server.Port
	logger.Info().
		Str("address", serverAddr).
		Str("environment", cfg.App.Environment).
		Msg("Servidor iniciando")

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := router.Run(serverAddr); err != nil {
					logger.Fatal().Err(err).Msg("Falha ao iniciar servidor")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("Servidor parando...")
			return nil
		},
	})
}
