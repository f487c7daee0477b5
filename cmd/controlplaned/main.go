// Command controlplaned boots the workspace control plane: load config,
// wire every operation and collaborator module through the composition
// root, and block until a shutdown signal arrives.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/corebench/workspacectl/internal/composition"
	"github.com/corebench/workspacectl/internal/fakes"
	"github.com/corebench/workspacectl/pkg/config"
	"github.com/corebench/workspacectl/pkg/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "controlplane.yaml", "path to the composition-root config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logging.Init(cfg.Logging.Path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to init logger: %v\n", err)
	}
	defer logging.Close()

	logging.Info("control plane starting", "config", *configPath)

	// Real adapters over the desktop host's git worktrees, OS process
	// table, binary/extension downloader, and agent server process are
	// out of scope (pkg/ports is a pure boundary); the in-memory
	// collaborators stand in for them so the daemon is runnable end to
	// end on its own.
	root, err := composition.Build(cfg, composition.Collaborators{
		Worktree:  fakes.NewWorktreeProvider(),
		Files:     fakes.NewFilesystem(),
		Processes: fakes.NewProcessManager(),
		Binaries:  fakes.NewBinaryExtensionManager(),
		Agents:    fakes.NewAgentServerManager(),
		Transport: fakes.NewTransport(),
	})
	if err != nil {
		logging.Error("composition build failed", "error", err)
		return fmt.Errorf("build composition root: %w", err)
	}

	ctx, shutdown := logging.SetupGracefulShutdownWithContext()
	defer shutdown()

	logging.Info("control plane ready")
	<-ctx.Done()

	logging.Info("shutting down")
	if err := root.Shutdown(ctx); err != nil {
		logging.Error("shutdown reported an error", "error", err)
		return err
	}

	logging.Info("control plane exited normally")
	return nil
}
