package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	appControllers "github.com/coursetable/ferry/internal/app/controllers"
	appMigrations "github.com/coursetable/ferry/internal/app/migrations"
	appRepos "github.com/coursetable/ferry/internal/app/repositories"
	appRoutes "github.com/coursetable/ferry/internal/app/routes"
	appServices "github.com/coursetable/ferry/internal/app/services"
	"github.com/coursetable/ferry/internal/app/sources"
	"github.com/coursetable/ferry/internal/config"
	"github.com/coursetable/ferry/internal/db"
	"github.com/coursetable/ferry/internal/metrics"
	appMiddleware "github.com/coursetable/ferry/internal/middleware"
	pkgAuth "github.com/coursetable/ferry/internal/pkg/auth"
	"github.com/coursetable/ferry/internal/pkg/logger"
	"github.com/coursetable/ferry/internal/pkg/websocket"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos          *appRepos.Repositories
	RunService     *appServices.RunService
	RunController  *appControllers.RunController
	EventsHub      *websocket.Hub
	EventsHandler  *websocket.Handler
	AuthMiddleware *appMiddleware.AuthMiddleware
	JWTService     *pkgAuth.JWTService
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Debug().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Str("host", cfg.Database.Host).Str("database", cfg.Database.DBName).Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")
	return database, nil
}

// RunMigrations applies the pending migration files.
func RunMigrations(ctx context.Context, cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) error {
	lgr.Info().Str("dir", cfg.Database.MigrationsDir).Msg("Running database migrations...")
	applied, err := appMigrations.NewMigrator(database.Pool).MigrateFromDirectory(ctx, cfg.Database.MigrationsDir)
	if err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Int("applied", applied).Msg("Database migrations successfully applied.")
	return nil
}

// SourcesConfig points a loader at the configured crawler output.
func SourcesConfig(cfg *config.Config) sources.Config {
	return sources.Config{
		ListingsDir:         cfg.Sources.ListingsDir,
		FallbackListingsDir: cfg.Sources.FallbackListingsDir,
		EvaluationsDir:      cfg.Sources.EvaluationsDir,
		Seasons:             cfg.Sources.Seasons,
	}
}

// PipelineOptions maps the matching and pipeline sections onto the
// resolver options.
func PipelineOptions(cfg *config.Config) appServices.PipelineOptions {
	opts := appServices.PipelineOptions{
		SeasonWorkers: cfg.Pipeline.SeasonWorkers,
		PrimarySchool: cfg.Pipeline.PrimarySchool,
		Matching: appServices.MatchingOptions{
			TitleThreshold:       cfg.Matching.TitleThreshold,
			DescriptionThreshold: cfg.Matching.DescriptionThreshold,
			MinTitleLength:       cfg.Matching.MinTitleLength,
			MinDescriptionLength: cfg.Matching.MinDescriptionLength,
			Workers:              cfg.Matching.Workers,
		},
	}
	for _, o := range cfg.Matching.DoNotMerge {
		opts.Matching.DoNotMerge = append(opts.Matching.DoNotMerge, appServices.DoNotMerge{
			Code:   o.Code,
			TitleA: o.Titles[0],
			TitleB: o.Titles[1],
		})
	}
	return opts
}

// NewJWTService builds the operator token service from cfg.
func NewJWTService(cfg *config.Config) *pkgAuth.JWTService {
	return pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.Operator.Secret,
		AccessTokenExp: config.Duration(cfg.Operator.TokenExpiration, 24*time.Hour),
		TokenIssuer:    cfg.Operator.Issuer,
	})
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	if err := cfg.RequireOperatorSecret(); err != nil {
		return nil, err
	}

	deps := &Dependencies{Logger: lgr}
	deps.Repos = appRepos.NewRepositories(database.Pool)
	deps.EventsHub = websocket.NewHub()
	deps.EventsHandler = websocket.NewHandler(deps.EventsHub)

	deps.RunService = appServices.NewRunService(appServices.RunServiceOptions{
		Loader:    sources.NewLoader(SourcesConfig(cfg)),
		Pipeline:  appServices.NewPipeline(PipelineOptions(cfg)),
		Snapshots: deps.Repos.SnapshotRepository,
		Runs:      deps.Repos.RunRepository,
		Events:    deps.EventsHub,
		Timeout:   config.Duration(cfg.Pipeline.RunTimeout, 30*time.Minute),
	})

	deps.JWTService = NewJWTService(cfg)
	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)
	deps.RunController = appControllers.NewRunController(deps.RunService, cfg.Pipeline.PersistAPIRuns)

	return deps, nil
}

// RecoverInterruptedRuns marks runs left RUNNING by a previous process as
// FAILED so that a new run can start.
func RecoverInterruptedRuns(ctx context.Context, deps *Dependencies) error {
	n, err := deps.Repos.RunRepository.FailInterrupted(ctx)
	if err != nil {
		return fmt.Errorf("failed to recover interrupted runs: %w", err)
	}
	if n > 0 {
		deps.Logger.Warn().Int64("runs", n).Msg("Marked interrupted pipeline runs as FAILED")
	}
	return nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestLogger(), metrics.Middleware())

	appRoutes.SetupRouter(router, deps.RunController, deps.EventsHandler, deps.AuthMiddleware)

	router.GET("/metrics", metrics.Handler())
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
