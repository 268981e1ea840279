package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"finconsole/internal/auth"
	"finconsole/internal/cache"
	"finconsole/internal/config"
	cronrunner "finconsole/internal/cron"
	"finconsole/internal/db"
	"finconsole/internal/events"
	"finconsole/internal/handler"
	"finconsole/internal/logger"
	"finconsole/internal/query"
	"finconsole/internal/repository"
	gormrepository "finconsole/internal/repository/gorm"
	"finconsole/internal/suggest"
	"finconsole/internal/upstream"
)

func main() {
	cfgPath := os.Getenv("FC_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("FC_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// The audit trail is the console's only database concern; without a DSN
	// the console runs stateless.
	var repo repository.Repository
	var dbConn *db.DB
	if strings.TrimSpace(cfg.DB.DSN) != "" {
		dbConn, err = db.Open(cfg.DB)
		if err != nil {
			logger.Fatal("db open failed", zap.Error(err))
		}
		defer db.Close(dbConn)
		if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
			logger.Warn("failed to set timezone", zap.Error(err))
		}
		if err := db.AutoMigrate(dbConn); err != nil {
			logger.Fatal("auto-migrate failed", zap.Error(err))
		}
		repo = gormrepository.New(dbConn.Gorm)
	} else {
		logger.Info("audit trail disabled: no db dsn configured")
	}

	up := &upstream.Client{
		BaseURL: cfg.Upstream.BaseURL,
		APIKey:  cfg.Upstream.APIKey,
		HTTP:    &http.Client{Timeout: cfg.Upstream.Timeout},
	}
	if strings.TrimSpace(cfg.Upstream.APIKey) != "" {
		loginCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := up.Login(loginCtx); err != nil {
			logger.Warn("upstream login failed (will retry per request)", zap.Error(err))
		}
		cancel()
	}

	mirror := cache.New(cfg.Cache)
	dataCache := query.NewCache(cfg.Query, query.UpstreamFetch(up), logger).
		WithMirror(mirror, cfg.Cache.KeyPrefix, cfg.Cache.MirrorTTL)

	suggestions := suggest.NewManager(cfg.Suggest, suggest.UpstreamFetch(up, cfg.Suggest.Path), logger)

	hub := events.NewHub(logger)

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	jwt := auth.JWT{Secret: []byte(cfg.Auth.Secret), TokenTTL: cfg.Auth.TokenTTL}
	engine.Use(auth.Protect(jwt))
	var adminGuard gin.HandlerFunc
	if cfg.Auth.Secret != "" {
		adminGuard = auth.RequireRole(cfg.Auth.AdminRole)
	}

	audit := &handler.AuditRecorder{Repo: repo, Logger: logger}

	healthHandler := &handler.HealthHandler{Upstream: up, Hub: hub}
	if dbConn != nil {
		healthHandler.DB = dbConn.Gorm
	}
	healthHandler.Register(engine)

	logsHandler := &handler.LogsHandler{Cache: dataCache}
	logsHandler.Register(engine)
	pagesHandler := &handler.PagesHandler{Cache: dataCache}
	pagesHandler.Register(engine)
	suggestHandler := &handler.SuggestHandler{Manager: suggestions}
	suggestHandler.Register(engine)
	layoutHandler := &handler.LayoutHandler{Upstream: up, Audit: audit, Cfg: cfg.Layout, Guard: adminGuard}
	layoutHandler.Register(engine)
	advisorHandler := &handler.AdvisorHandler{Upstream: up, Audit: audit, Guard: adminGuard}
	advisorHandler.Register(engine)
	trailHandler := &handler.AuditTrailHandler{Repo: repo}
	trailHandler.Register(engine)
	exportHandler := &handler.ExportHandler{Cache: dataCache, Audit: audit, Cfg: cfg.Export}
	exportHandler.Register(engine)
	eventsHandler := &handler.EventsHandler{Hub: hub}
	eventsHandler.Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	for _, res := range cfg.Query.Resources {
		if !res.Enabled || res.RefreshInterval <= 0 {
			continue
		}
		resource := res.Name
		_, err := cronRunner.Every(res.RefreshInterval, func(jobCtx context.Context) {
			dataCache.Refresh(jobCtx, resource)
		})
		if err != nil {
			logger.Warn("cron register refresh failed",
				zap.String("resource", resource), zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	if cfg.Events.Enabled {
		stream := events.NewStream(events.StreamOptions{
			URL:        cfg.Events.URL,
			BackoffMin: cfg.Events.BackoffMin,
			BackoffMax: cfg.Events.BackoffMax,
			Logger:     logger,
		}, hub)
		go func() {
			if err := stream.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("event feed stopped", zap.Error(err))
			}
		}()
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
