package logging

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SetupGracefulShutdown cancels ctx on SIGINT/SIGTERM and returns a cleanup
// function that closes the logfile. Intended usage:
//
//	ctx, shutdown := logging.SetupGracefulShutdownWithContext()
//	defer shutdown()
func SetupGracefulShutdown(cancel context.CancelFunc) func() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		Info("received signal, shutting down gracefully", "signal", sig.String())
		cancel()
	}()

	return Close
}

// SetupGracefulShutdownWithContext creates a cancellable context wired to
// OS signals, plus the matching cleanup function.
func SetupGracefulShutdownWithContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	return ctx, SetupGracefulShutdown(cancel)
}
