package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"pricing-admin/internal/ai"
	"pricing-admin/internal/api"
	"pricing-admin/internal/auth"
	"pricing-admin/internal/automation"
	"pricing-admin/internal/cache"
	"pricing-admin/internal/condition"
	"pricing-admin/internal/config"
	"pricing-admin/internal/liveblocks"
	"pricing-admin/internal/logger"
	"pricing-admin/internal/store"
)

func main() {
	ctx := context.Background()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Logging
	if _, err := logger.Init(logger.Config{
		LogDir:    cfg.Log.Dir,
		Debug:     cfg.Log.Debug,
		JSON:      cfg.Log.JSON,
		Component: "pricing-admin",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	slog.Info("config loaded", "port", cfg.Server.Port, "db", fmt.Sprintf("%s:%d/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name))

	// 3. Connect to database
	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// 4. Bootstrap tables
	if err := db.Bootstrap(ctx); err != nil {
		slog.Error("failed to bootstrap tables", "error", err)
		os.Exit(1)
	}

	// 5. Cache
	cacheTTL := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	var c cache.Cache = cache.NewMemory()
	if cfg.Cache.Driver == "redis" {
		rc, err := cache.NewRedis(ctx, cache.RedisOptions{
			Host:     cfg.Cache.Redis.Host,
			Port:     cfg.Cache.Redis.Port,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		if err != nil {
			slog.Warn("redis unavailable, using in-memory cache", "error", err)
		} else {
			defer rc.Close()
			c = rc
		}
	}

	// 6. Automation dispatch and run log
	runLog := automation.NewRunLog(db.Pool, cfg.Automation.RunBufferSize,
		time.Duration(cfg.Automation.FlushIntervalSeconds)*time.Second)
	defer runLog.Stop()
	dispatcher := automation.NewDispatcher(time.Duration(cfg.Automation.TimeoutSeconds)*time.Second, runLog)

	cleanup := automation.NewCleanupScheduler(db.Pool, cfg.Automation.RetentionDays,
		time.Duration(cfg.Automation.CleanupIntervalHours)*time.Hour)
	cleanup.Start()
	defer cleanup.Stop()

	// 7. Realtime rooms are optional
	var rooms api.RoomEnsurer
	if lb := liveblocks.NewClient(cfg.Liveblocks.BaseURL, cfg.Liveblocks.SecretKey); lb != nil {
		rooms = lb
	} else {
		slog.Info("liveblocks not configured, ensure-room disabled")
	}

	// 8. Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: api.ErrorHandler,
		BodyLimit:    cfg.Server.BodyLimit,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))

	// 9. Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// 10. Routes
	access := auth.Access(cfg.SettingsAccess)
	authMW := auth.AuthMiddleware(cfg.JWTSecret)
	eval := condition.NewEvaluator()

	auth.RegisterRoutes(app, auth.NewHandler(access), authMW)
	ai.RegisterRoutes(app, ai.NewHandler(ai.NewProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model)), authMW)
	api.RegisterRoutes(app, api.Handlers{
		Categories:     api.NewCategoryHandler(db),
		Inputs:         api.NewInputHandler(db, eval),
		TermSheets:     api.NewTermSheetHandler(db, eval),
		Buttons:        api.NewButtonHandler(db, dispatcher),
		Documents:      api.NewDocumentHandler(db),
		Automations:    api.NewAutomationHandler(db),
		EmailTemplates: api.NewEmailTemplateHandler(db, rooms),
		Settings:       api.NewSettingsHandler(db, access, c, cacheTTL),
		Schema:         api.NewSchemaHandler(db, c, cacheTTL),
	}, authMW, access)

	// 11. Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		slog.Info("starting server", "addr", addr)
		if err := app.Listen(addr); err != nil {
			slog.Error("server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
}
