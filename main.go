package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/sadewadee/social-analytics/runner"
	"github.com/sadewadee/social-analytics/runner/migraterunner"
	"github.com/sadewadee/social-analytics/runner/schedulerrunner"
	"github.com/sadewadee/social-analytics/runner/serverrunner"
	"github.com/sadewadee/social-analytics/runner/workerrunner"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner.Banner()

	log.Println("Starting application...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan

		log.Println("Received signal, shutting down...")

		cancel()
	}()

	cfg := runner.ParseConfig()

	log.Printf("RunMode: %d (Server=%v, Worker=%v, Scheduler=%v)",
		cfg.RunMode, cfg.ServerMode, cfg.WorkerMode, cfg.SchedulerMode)

	runnerInstance, err := runnerFactory(cfg)
	if err != nil {
		cancel()
		os.Stderr.WriteString(err.Error() + "\n")

		runner.Telemetry().Close()

		os.Exit(1)
	}

	egroup, ctx := errgroup.WithContext(ctx)

	egroup.Go(func() error {
		if err := runnerInstance.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if err := egroup.Wait(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		_ = runnerInstance.Close(ctx)
		runner.Telemetry().Close()
		os.Exit(1)
	}

	_ = runnerInstance.Close(ctx)
	runner.Telemetry().Close()

	os.Exit(0)
}

func runnerFactory(cfg *runner.Config) (runner.Runner, error) {
	switch cfg.RunMode {
	case runner.RunModeServer:
		return serverrunner.New(&serverrunner.Config{
			DatabaseURL: cfg.Dsn,
			Address:     cfg.Addr,
			DataFolder:  cfg.DataFolder,
			APIToken:    cfg.APIToken,
			RedisURL:    cfg.RedisURL,
			RedisAddr:   cfg.RedisAddr,
			RedisPass:   cfg.RedisPass,
			RedisDB:     cfg.RedisDB,
		})
	case runner.RunModeWorker:
		return workerrunner.New(&workerrunner.Config{
			DatabaseURL: cfg.Dsn,
			DataFolder:  cfg.DataFolder,
			RedisURL:    cfg.RedisURL,
			RedisAddr:   cfg.RedisAddr,
			RedisPass:   cfg.RedisPass,
			RedisDB:     cfg.RedisDB,
			RabbitMQURL: cfg.RabbitMQURL,
		})
	case runner.RunModeScheduler:
		return schedulerrunner.New(&schedulerrunner.Config{
			RedisURL:  cfg.RedisURL,
			RedisAddr: cfg.RedisAddr,
			RedisPass: cfg.RedisPass,
			RedisDB:   cfg.RedisDB,
		})
	case runner.RunModeMigrate:
		return migraterunner.New(&migraterunner.Config{
			DatabaseURL: cfg.Dsn,
		})
	case runner.RunModeMigrateStatus:
		return migraterunner.New(&migraterunner.Config{
			DatabaseURL: cfg.Dsn,
			StatusOnly:  true,
		})
	default:
		return nil, fmt.Errorf("%w: %d", runner.ErrInvalidRunMode, cfg.RunMode)
	}
}
