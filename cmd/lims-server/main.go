package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lims/lims/internal/config"
	"github.com/lims/lims/internal/domain/audit"
	"github.com/lims/lims/internal/domain/catalog"
	"github.com/lims/lims/internal/domain/dashboard"
	"github.com/lims/lims/internal/domain/document"
	"github.com/lims/lims/internal/domain/emr"
	"github.com/lims/lims/internal/domain/inventory"
	"github.com/lims/lims/internal/domain/patient"
	"github.com/lims/lims/internal/domain/qc"
	"github.com/lims/lims/internal/domain/result"
	"github.com/lims/lims/internal/domain/sample"
	"github.com/lims/lims/internal/platform/auth"
	"github.com/lims/lims/internal/platform/db"
	"github.com/lims/lims/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lims-server",
		Short: "Laboratory Information Management API Server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the LIMS API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		jwtCfg := auth.JWTConfig{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  cfg.AuthJWKSURL,
		}
		if cfg.AuthDevSecret != "" {
			jwtCfg.SigningKey = []byte(cfg.AuthDevSecret)
		}
		e.Use(auth.JWTMiddleware(jwtCfg))
	}

	// Access logging on the API surface
	e.Use(middleware.AccessLog(logger))

	// API group
	apiV1 := e.Group("/api/v1")

	// Rate limiting middleware
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	inTx := db.NewTxRunner(pool)

	// Audit sink is wired first; every other domain service records into it.
	auditRepo := audit.NewRepoPG(pool)
	auditSvc := audit.NewService(auditRepo)
	auditHandler := audit.NewHandler(auditSvc)
	auditHandler.RegisterRoutes(apiV1)

	// Test catalog
	catalogRepo := catalog.NewRepoPG(pool)
	catalogSvc := catalog.NewService(catalogRepo, auditSvc)
	catalogHandler := catalog.NewHandler(catalogSvc)
	catalogHandler.RegisterRoutes(apiV1)

	// Patient registry
	patientRepo := patient.NewRepoPG(pool)
	patientSvc := patient.NewService(patientRepo, auditSvc)
	patientHandler := patient.NewHandler(patientSvc)
	patientHandler.RegisterRoutes(apiV1)

	// Sample lifecycle
	sampleRepo := sample.NewRepoPG(pool)
	sampleSvc := sample.NewService(sampleRepo, patientRepo, catalogRepo, auditSvc, inTx)
	sampleHandler := sample.NewHandler(sampleSvc)
	sampleHandler.RegisterRoutes(apiV1)

	// Result entry and review
	resultRepo := result.NewRepoPG(pool)
	resultSvc := result.NewService(resultRepo, sampleRepo, catalogRepo, auditSvc, inTx)
	resultHandler := result.NewHandler(resultSvc)
	resultHandler.RegisterRoutes(apiV1)

	// Quality control
	qcRepo := qc.NewRepoPG(pool)
	qcSvc := qc.NewService(qcRepo, auditSvc)
	qcHandler := qc.NewHandler(qcSvc)
	qcHandler.RegisterRoutes(apiV1)

	// NABL document registry
	docRepo := document.NewRepoPG(pool)
	docSvc := document.NewService(docRepo, auditSvc)
	docHandler := document.NewHandler(docSvc)
	docHandler.RegisterRoutes(apiV1)

	// Inventory
	invRepo := inventory.NewRepoPG(pool)
	invSvc := inventory.NewService(invRepo, auditSvc)
	invHandler := inventory.NewHandler(invSvc)
	invHandler.RegisterRoutes(apiV1)

	// Dashboard aggregates
	dashSvc := dashboard.NewService(patientRepo, sampleRepo, resultRepo)
	dashHandler := dashboard.NewHandler(dashSvc)
	dashHandler.RegisterRoutes(apiV1)

	emrSvc := emr.NewService(patientSvc, catalogSvc, sampleSvc, resultSvc)
	emrHandler := emr.NewHandler(emrSvc)
	emrHandler.RegisterRoutes(apiV1)

	// Start server
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
