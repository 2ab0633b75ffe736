// Package server wires the portal server together: database, repositories,
// services, the realtime broker, and the HTTP and gRPC listeners.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/studioportal/internal/logging"
	"github.com/dmitrijs2005/studioportal/internal/portal"
	"github.com/dmitrijs2005/studioportal/internal/pubsub"
	"github.com/dmitrijs2005/studioportal/internal/server/config"
	"github.com/dmitrijs2005/studioportal/internal/server/httpapi"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/studioportal/internal/server/services"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/studioportal/internal/server/grpc"
)

var (
	openDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	}
	newRepositoryManager = repomanager.NewPostgresRepositoryManager
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	broker      *pubsub.Broker[portal.Event]
	userService *services.UserService
	httpServer  *httpapi.Server
	grpcServer  *gs.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)

	db, err := openDB(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := newRepositoryManager()
	broker := pubsub.New[portal.Event](pubsub.DefaultBuffer)

	users := services.NewUserService(db, rm, cfg, broker, logger)
	teams := services.NewTeamService(db, rm)
	projects := services.NewProjectService(db, rm)

	svc := httpapi.Services{
		Auth:     users,
		Profiles: services.NewProfileService(db, rm, broker),
		Skills:   services.NewSkillService(db, rm),
		Teams:    teams,
		Messages: services.NewMessageService(db, rm, teams, broker),
		Projects: projects,
		Features: services.NewFeatureService(db, rm, projects),
		Feedback: services.NewFeedbackService(db, rm),
		Storage:  services.NewStorageService(cfg),
	}

	return &App{
		config:      cfg,
		logger:      logger,
		db:          db,
		repomanager: rm,
		broker:      broker,
		userService: users,
		httpServer:  httpapi.New(cfg, logger, svc, broker),
		grpcServer:  gs.NewServer(cfg.GRPCAddr, logger, db),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		<-sigs
		cancelFunc()
	}()
}

// Run migrates the database, ensures the bootstrap admin and serves until ctx
// is cancelled, a signal arrives or one of the listeners fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	defer func() {
		app.broker.Close()
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "error", err)
		}
	}()

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	if err := app.userService.BootstrapAdmin(ctx, app.config.AdminEmail, app.config.AdminPassword); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.httpServer.Run(gctx) })
	g.Go(func() error { return app.grpcServer.Run(gctx) })

	err := g.Wait()
	app.logger.Info(ctx, "App stopped")
	return err
}
