package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/petal-labs/floret/dispatch"
	"github.com/petal-labs/floret/stdio"
	"github.com/petal-labs/floret/tool"
)

// NewStdioCmd creates the "stdio" subcommand: the stream transport server,
// meant to run as a supervised subprocess with the protocol on
// stdin/stdout.
func NewStdioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stdio",
		Short: "Serve tools over stdin/stdout (newline-delimited JSON)",
		RunE:  runStdio,
	}
}

func runStdio(cmd *cobra.Command, _ []string) error {
	// stdout carries protocol frames; all logging goes to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	registry := tool.NewRegistry()
	if err := tool.RegisterBuiltins(registry); err != nil {
		return fmt.Errorf("registering builtin tools: %w", err)
	}

	dispatcher, err := dispatch.New(dispatch.Config{Registry: registry, Transport: "stdio"})
	if err != nil {
		return err
	}

	server, err := stdio.NewServer(stdio.ServerConfig{
		Dispatcher: dispatcher,
		In:         cmd.InOrStdin(),
		Out:        cmd.OutOrStdout(),
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	if err := server.Run(cmd.Context()); err != nil {
		return exitError(exitRuntime, "stream session failed: %v", err)
	}
	return nil
}
