package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/planit/internal/config"
	"github.com/iliyamo/planit/internal/database"
	"github.com/iliyamo/planit/internal/handler"
	"github.com/iliyamo/planit/internal/middleware"
	"github.com/iliyamo/planit/internal/queue"
	"github.com/iliyamo/planit/internal/repository"
	"github.com/iliyamo/planit/internal/router"
	"github.com/iliyamo/planit/internal/service"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply the schema before serving")
	return cmd
}

func serve(parent context.Context, migrate bool) error {
	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if migrate {
		if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	audit, err := startAudit(gctx, g, config.LoadAuditConfig(), logger)
	if err != nil {
		return err
	}

	userRepo := repository.NewUserRepo(db)
	contactRepo := repository.NewContactRepo(db)
	projectRepo := repository.NewProjectRepo(db)
	resolver := service.NewResolver(userRepo)

	users := service.NewUserService(userRepo, repository.NewTokenRepo(db), service.AuthConfig{
		JWTSecret:      cfg.JWTSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
		BcryptCost:     cfg.BcryptCost,
	}, audit, logger)
	actions := service.NewActionService(repository.NewActionRepo(db), contactRepo, projectRepo, userRepo, audit, logger)
	contacts := service.NewContactService(contactRepo, logger)
	projects := service.NewProjectService(projectRepo, logger)

	if cfg.BootstrapAdmin != "" {
		if err := users.BootstrapAdmin(ctx, cfg.BootstrapAdmin); err != nil {
			stop()
			_ = g.Wait()
			return err
		}
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable, rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	errs := handler.ErrorMapper{ConcealForbidden: cfg.ConcealForbidden, Logger: logger}
	e := router.New(router.Handlers{
		Auth:     handler.NewAuthHandler(users, resolver, cfg.JWTSecret, errs),
		Users:    handler.NewUserHandler(users, resolver, errs),
		Contacts: handler.NewContactHandler(contacts, resolver, errs),
		Projects: handler.NewProjectHandler(projects, resolver, errs),
		Actions:  handler.NewActionHandler(actions, resolver, errs),
	}, router.Options{
		JWTSecret: cfg.JWTSecret,
		DB:        db,
		CORS:      config.LoadCORSConfig(),
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger),
		Logger:    logger,
	})

	addr := ":" + cfg.Port
	g.Go(func() error {
		logger.Info("listening", "addr", addr, "env", cfg.Env, "driver", cfg.DBDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return e.Shutdown(sctx)
	})
	return g.Wait()
}

// startAudit wires the audit publisher into g and returns it as the
// services' Auditor.  The in-process consumer is started too when enabled.
func startAudit(ctx context.Context, g *errgroup.Group, acfg config.AuditConfig, logger *slog.Logger) (service.Auditor, error) {
	if !acfg.Enabled {
		logger.Info("audit disabled")
		return service.NopAuditor{}, nil
	}

	var send queue.SendFunc
	release := func() {}
	switch acfg.Transport {
	case "direct":
		sink, closeSink, err := openSink(ctx, acfg, logger)
		if err != nil {
			return nil, err
		}
		send, release = queue.SinkSender(sink), closeSink
	default:
		send = queue.AMQPSender(acfg.AMQPURL, acfg.Queue)
		if acfg.InProcess {
			sink, closeSink, err := openSink(ctx, acfg, logger)
			if err != nil {
				return nil, err
			}
			g.Go(func() error {
				defer closeSink()
				return queue.StartAuditConsumer(ctx, acfg.AMQPURL, acfg.Queue, sink, logger)
			})
		}
	}

	pub := queue.NewPublisher(send, acfg.BufferSize, acfg.PublishTimeout, logger)
	g.Go(func() error {
		// The sink stays open until buffered events are drained.
		defer release()
		return pub.Run(ctx)
	})
	logger.Info("audit enabled", "transport", acfg.Transport, "queue", acfg.Queue)
	return pub, nil
}
