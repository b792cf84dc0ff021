package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"rentscout/internal/observability"
)

// GracefulShutdown returns a context cancelled on SIGINT/SIGTERM. Active
// runs in the registry are cancelled alongside it.
func GracefulShutdown(logger *observability.Logger, registry *RunRegistry) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		registry.CancelAll()
		cancel()
	}()

	return ctx, cancel
}
