package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iliyamo/expense-tracker/internal/cache"
	"github.com/iliyamo/expense-tracker/internal/config"
	"github.com/iliyamo/expense-tracker/internal/database"
	"github.com/iliyamo/expense-tracker/internal/handler"
	"github.com/iliyamo/expense-tracker/internal/logging"
	"github.com/iliyamo/expense-tracker/internal/queue"
	"github.com/iliyamo/expense-tracker/internal/repository"
	"github.com/iliyamo/expense-tracker/internal/router"
	"github.com/iliyamo/expense-tracker/internal/service"
	"github.com/iliyamo/expense-tracker/internal/utils"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.NewJSON(os.Stdout, cfg.LogLevel).With("env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	tokens := utils.NewTokenService(cfg.JWTSecret)

	var opts []service.ExpenseOption
	var identityOpts []service.IdentityOption
	if cfg.Cache.Enabled {
		if rdb := config.NewRedisClient(cfg.Redis); rdb != nil {
			defer rdb.Close()
			lists := cache.NewExpenseCache(rdb, cfg.Cache.Prefix, cfg.Cache.TTL)
			opts = append(opts, service.WithListCache(lists))
			identityOpts = append(identityOpts, service.WithListInvalidation(lists))
		} else {
			log.Warn(ctx, "redis unavailable, expense list cache disabled", "addr", cfg.Redis.Address())
		}
	}
	if cfg.Queue.Enabled {
		pub := queue.NewPublisher(cfg.Queue.URL, cfg.Queue.Name)
		defer pub.Close()
		opts = append(opts, service.WithEvents(pub))

		consumer := &queue.Consumer{URL: cfg.Queue.URL, Queue: cfg.Queue.Name, Dir: cfg.Queue.AuditLogDir, Log: log}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error(ctx, "audit consumer stopped", "error", err)
			}
		}()
	}
	identity := service.NewIdentityService(users, utils.NewBcryptHasher(cfg.BcryptCost), tokens, log, identityOpts...)
	expenses := service.NewExpenseService(repository.NewExpenseRepo(db), users, log, opts...)

	e := router.New(router.Deps{
		Auth:     handler.NewAuthHandler(identity),
		Users:    handler.NewUserHandler(identity),
		Expenses: handler.NewExpenseHandler(expenses),
		Tokens:   tokens,
		Log:      log,
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", "addr", addr, "db_driver", cfg.DB.Driver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
