package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/petal-labs/floret/client"
	"github.com/petal-labs/floret/supervisor"
)

// addClientFlags registers the transport-selection flags shared by the
// client-side commands.
func addClientFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to floret.yaml")
	cmd.Flags().String("transport", "", "Transport binding: stdio | http")
	cmd.Flags().String("endpoint", "", "Server base URL for the http transport")
	cmd.Flags().String("server-command", "", "Tool server command for the stdio transport")
	cmd.Flags().StringArray("server-arg", nil, "Tool server argument (repeatable)")
}

// buildClient resolves config and flags into a connected client proxy.
// With no server command configured, the stdio transport spawns this very
// binary's own "stdio" subcommand.
func buildClient(cmd *cobra.Command) (client.Client, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	if transport, _ := cmd.Flags().GetString("transport"); transport != "" {
		cfg.Client.Transport = transport
	}
	if endpoint, _ := cmd.Flags().GetString("endpoint"); endpoint != "" {
		cfg.Client.Endpoint = endpoint
	}
	if command, _ := cmd.Flags().GetString("server-command"); command != "" {
		cfg.Server.Command = command
		cfg.Server.Args, _ = cmd.Flags().GetStringArray("server-arg")
	}

	switch cfg.Client.Transport {
	case "http":
		return client.NewHTTPClient(client.HTTPClientConfig{BaseURL: cfg.Client.Endpoint})
	case "stdio":
		command := supervisor.Command{
			Path: cfg.Server.Command,
			Args: cfg.Server.Args,
			Env:  cfg.Server.Env,
		}
		if command.Path == "" {
			exe, err := os.Executable()
			if err != nil {
				return nil, errors.New("cli: no server command configured and own executable is unresolvable")
			}
			command.Path = exe
			command.Args = []string{"stdio"}
		}
		return client.NewStreamClient(cmd.Context(), client.StreamClientConfig{
			Command:     command,
			GracePeriod: cfg.Server.GracePeriod(),
		})
	default:
		return nil, exitError(exitValidation, "unknown transport %q (want stdio or http)", cfg.Client.Transport)
	}
}
