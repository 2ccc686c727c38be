package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/petal-labs/floret/client"
)

// NewCallCmd creates the "call" subcommand: one invocation via the client
// proxy.
func NewCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Invoke a tool by name",
		Args:  cobra.ExactArgs(1),
		RunE:  runCall,
	}
	addClientFlags(cmd)
	cmd.Flags().StringArray("arg", nil, "Tool argument as key=value (repeatable; values coerce per the tool's schema)")
	cmd.Flags().String("args-json", "", "Tool arguments as a JSON object (overrides --arg)")
	return cmd
}

func runCall(cmd *cobra.Command, args []string) error {
	toolArgs, err := resolveCallArgs(cmd)
	if err != nil {
		return exitError(exitValidation, "%s", err)
	}

	c, err := buildClient(cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = c.Close(cmd.Context())
	}()

	result, err := c.Invoke(cmd.Context(), args[0], toolArgs)
	if err != nil {
		var invErr *client.InvocationError
		if errors.As(err, &invErr) {
			return exitError(exitRuntime, "%s", invErr.Message)
		}
		return exitError(exitRuntime, "invocation failed: %v", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), result)
	return nil
}

func resolveCallArgs(cmd *cobra.Command) (map[string]any, error) {
	if raw, _ := cmd.Flags().GetString("args-json"); raw != "" {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			return nil, fmt.Errorf("parsing --args-json: %w", err)
		}
		return parsed, nil
	}

	pairs, _ := cmd.Flags().GetStringArray("arg")
	if len(pairs) == 0 {
		return map[string]any{}, nil
	}

	parsed := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("--arg %q is not key=value", pair)
		}
		parsed[key] = value
	}
	return parsed, nil
}
