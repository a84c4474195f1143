package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Deathfireofdoom/staged-kv-store/internal/config"
	"github.com/Deathfireofdoom/staged-kv-store/internal/logutil"
	"github.com/Deathfireofdoom/staged-kv-store/internal/server"
	"github.com/pingcap/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	cmd := &cobra.Command{
		Use:           "node",
		Short:         "Staged-write key/value server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	config.RegisterFlags(cmd.Flags())

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errors.ErrorStack(err))
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return errors.Annotate(err, "failed to load config")
	}

	logger, err := logutil.NewLogger(cfg.Log)
	if err != nil {
		return errors.Annotate(err, "failed to build logger")
	}
	defer logger.Sync()
	logger.Info("config loaded", zap.Stringer("config", cfg))

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to restore snapshot, refusing to start",
			zap.String("path", cfg.SnapshotPath), zap.Error(err))
	}

	saved := handleSignal(srv, cfg, logger)

	if err := srv.Run(); err != nil {
		logger.Error("server stopped", zap.Error(err))
		// still try to keep whatever the process accumulated
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Fatal("failed to save snapshot, state since the last snapshot is lost",
				zap.String("path", cfg.SnapshotPath), zap.Error(err))
		}
		return err
	}

	if err := <-saved; err != nil {
		logger.Fatal("failed to save snapshot, state since the last snapshot is lost",
			zap.String("path", cfg.SnapshotPath), zap.Error(err))
	}
	logger.Info("server stopped")
	return nil
}

// handleSignal runs the shutdown hook on the first termination signal and
// delivers its result on the returned channel.
func handleSignal(srv *server.Server, cfg *config.Config, logger *zap.Logger) <-chan error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	saved := make(chan error, 1)
	go func() {
		sig := <-sigCh
		logger.Info("got signal to exit", zap.Stringer("signal", sig))
		signal.Stop(sigCh)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout.Duration)
		defer cancel()
		saved <- srv.Shutdown(ctx)
	}()
	return saved
}
