package http

import (
	"time"

	"boostd/internal/config"
	"boostd/internal/http/handlers"
	"boostd/internal/http/middleware"
	"boostd/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the routes are wired to.
type Deps struct {
	Games  handlers.BoostGames
	Health *handlers.HealthHandler
	Hub    *ws.Hub
}

func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps Deps) {
	h := handlers.NewHandler(deps.Games)

	r.Use(middleware.RequestLogger(), middleware.Metrics(), middleware.CORS(cfg.AllowedOrigin))

	// Health checks (no rate limiting)
	r.GET("/health", deps.Health.Health)
	r.GET("/healthz", deps.Health.Liveness)
	r.GET("/readyz", deps.Health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiRateWindow := time.Duration(cfg.APIRateWindow) * time.Second
	gameRateWindow := time.Duration(cfg.GameRateWindow) * time.Second

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(cfg.APIRateLimit, apiRateWindow), middleware.JWT())
	{
		v1.GET("/boosts/:id/game", h.BoostGame)
		v1.GET("/boosts/:id/params", h.BoostParams)
		v1.GET("/me/boost-games", h.MyBoostGames)
	}

	// Live sessions; every connection starts a game, so it is game rate limited
	r.GET("/ws",
		middleware.QueryJWT(),
		middleware.GameRateLimit(cfg.GameRateLimit, gameRateWindow),
		ws.HandleWS(deps.Hub, cfg.AllowedOrigin),
	)
}
