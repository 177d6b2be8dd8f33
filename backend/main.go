package main

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"

	"flip7server/backend/auth"
	"flip7server/backend/collaborator"
	"flip7server/backend/config"
	"flip7server/backend/gateway"
	"flip7server/backend/handlers"
	"flip7server/backend/logging"
	"flip7server/backend/matchmaking"
	"flip7server/backend/room"
)

func main() {
	cfg := config.Load()
	if err := logging.Initialize(false); err != nil {
		panic(err)
	}
	logger := logging.L()
	defer logger.Sync()

	recorder := collaborator.NewCircuitRecorder(&collaborator.NoopRecorder{Logger: logger})

	roomCfg := room.Config{
		TargetScore:     cfg.TargetScore,
		AIThinkDelay:    cfg.AIThinkDelay,
		AIHardTimeout:   cfg.AIHardTimeout,
		HostGraceWindow: cfg.HostGraceWindow,
		RoomEmptyTTL:    cfg.RoomEmptyTTL,
		RNGSeed:         cfg.RNGSeed,
	}
	registry := room.NewRegistry(roomCfg, recorder)
	queue := matchmaking.New(registry, logger)

	verifier := auth.NewVerifier(cfg.JWTSecret)

	store := memory.NewStore()
	connLimiter := mustLimiter(store, cfg.RateLimitPerConn, logger)
	ipLimiter := mustLimiter(store, cfg.RateLimitPerIP, logger)
	gw := gateway.New(registry, queue, verifier, connLimiter, ipLimiter)

	gameHandler := handlers.NewGameHandler(cfg.TargetScore, func() int64 { return cfg.RNGSeed })

	engine := gin.Default()
	engine.Use(corsMiddleware())

	engine.GET("/ws", gin.WrapF(gw.ServeHTTP))
	gameHandler.RegisterRoutes(engine)

	engine.GET("/healthz", healthz)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	logger.Info("starting flip7 server", zap.String("addr", cfg.ListenAddr))
	if err := engine.Run(cfg.ListenAddr); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func mustLimiter(store limiter.Store, formatted string, logger *zap.Logger) *limiter.Limiter {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		logger.Warn("invalid rate limit format, disabling this axis", zap.String("formatted", formatted), zap.Error(err))
		return nil
	}
	l := limiter.New(store, rate)
	return l
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

func healthz(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
