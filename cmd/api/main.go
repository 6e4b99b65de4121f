package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/quizbattle/internal/config"
	"github.com/yourusername/quizbattle/internal/handler"
	"github.com/yourusername/quizbattle/internal/middleware"
	"github.com/yourusername/quizbattle/internal/repository/postgres"
	redisrepo "github.com/yourusername/quizbattle/internal/repository/redis"
	"github.com/yourusername/quizbattle/internal/service/identity"
	"github.com/yourusername/quizbattle/internal/service/oracle"
	"github.com/yourusername/quizbattle/internal/service/roomengine"
	"github.com/yourusername/quizbattle/internal/websocket"
	"github.com/yourusername/quizbattle/pkg/auth"
	"github.com/yourusername/quizbattle/pkg/database"
)

// main is the composition root: config -> database -> redis -> repositories
// -> services -> router -> server, the same wiring order this repo's own
// cmd/api/main.go follows.
func main() {
	configPath := flag.String("config", "", "path to a config file (optional; env vars and defaults otherwise)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[Main] failed to load config: %v", err)
	}

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Fatalf("[Main] failed to connect to database: %v", err)
	}
	if err := database.MigrateDB(db); err != nil {
		log.Fatalf("[Main] failed to migrate database: %v", err)
	}

	redisClient, err := database.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Fatalf("[Main] failed to connect to redis: %v", err)
	}

	roomRepo := postgres.NewRoomRepo(db)
	playerRepo := postgres.NewPlayerRepo(db)
	questionRepo := postgres.NewQuestionRepo(db)
	userRepo := postgres.NewUserRepo(db)
	resultRepo := postgres.NewResultRepo(db)

	cacheRepo, err := redisrepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Fatalf("[Main] failed to init cache repository: %v", err)
	}

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifetime)
	if err != nil {
		log.Fatalf("[Main] failed to init token service: %v", err)
	}

	oracleClient := oracle.NewClient(cfg.Oracle.APIKey, cfg.Oracle.APIBase, cfg.Oracle.Model, cfg.Oracle.Timeout, nil)
	identityService := identity.NewService(userRepo, tokens)

	hub := websocket.NewHub()

	registry := roomengine.NewRegistry(roomengine.Dependencies{
		Rooms:     roomRepo,
		Players:   playerRepo,
		Questions: questionRepo,
		Results:   resultRepo,
		Oracle:    oracleClient,
		Hub:       hub,
	}, roomengine.Config{
		CountdownSeconds: cfg.Engine.CountdownSeconds,
		EasyTimeout:      cfg.Engine.EasyTimeout,
		MediumTimeout:    cfg.Engine.MediumTimeout,
		HardTimeout:      cfg.Engine.HardTimeout,
	})

	roomHandler := handler.NewRoomHandler(registry, tokens)
	wsHandler := handler.NewWSHandler(hub, registry, tokens)
	identityHandler := handler.NewIdentityHandler(identityService)
	statsHandler := handler.NewStatsHandler(resultRepo, cacheRepo)

	rateLimiter := middleware.NewRateLimiter(redisClient)
	httpRateLimit := middleware.DefaultHTTPRateLimitConfig()
	if cfg.Engine.HTTPRateLimitMax > 0 {
		httpRateLimit.MaxRequests = cfg.Engine.HTTPRateLimitMax
	}
	if cfg.Engine.HTTPRateLimitSecs > 0 {
		httpRateLimit.Window = time.Duration(cfg.Engine.HTTPRateLimitSecs) * time.Second
	}

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(rateLimiter.LimitByIP(httpRateLimit))

	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", identityHandler.Register)
		authGroup.POST("/login", identityHandler.Login)
		authGroup.POST("/logout", identityHandler.Logout)
	}

	authMW := middleware.NewAuthMiddleware(tokens)
	router.GET("/users/:id/stats", authMW.RequireAuth(), middleware.ExtractUintParam("id", "id"), statsHandler.UserStats)
	router.GET("/rating/data", statsHandler.RatingData)

	gamesGroup := router.Group("/games")
	{
		gamesGroup.POST("", roomHandler.CreateGame)
		gamesGroup.POST("/:pin/join", roomHandler.JoinGame)
		gamesGroup.POST("/:pin/start", roomHandler.StartGame)
		gamesGroup.GET("/:pin", roomHandler.GetGame)
	}

	router.GET("/ws/:pin/:playerID", wsHandler.HandleConnection)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("[Main] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[Main] server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("[Main] shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[Main] forced shutdown: %v", err)
	}

	if sqlDB, err := database.GetSQLDB(db); err == nil {
		sqlDB.Close()
	}
	log.Println("[Main] shutdown complete")
}
