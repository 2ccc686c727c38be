package cli

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/petal-labs/floret/client"
	"github.com/petal-labs/floret/tool"
)

// NewToolsCmd creates the "tools" subcommand: discovery via the client
// proxy over whichever transport is configured.
func NewToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools advertised by the server",
		RunE:  runTools,
	}
	addClientFlags(cmd)
	return cmd
}

func runTools(cmd *cobra.Command, _ []string) error {
	c, err := buildClient(cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = c.Close(cmd.Context())
	}()

	descriptors, err := c.Discover(cmd.Context())
	if err != nil {
		var invErr *client.InvocationError
		if errors.As(err, &invErr) {
			return exitError(exitRuntime, "discovery rejected: %s", invErr.Message)
		}
		return exitError(exitRuntime, "discovery failed: %v", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDESCRIPTION\tPARAMS")
	for _, d := range descriptors {
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.Name, d.Description, formatParams(d.Params))
	}
	return w.Flush()
}

func formatParams(params map[string]tool.ParamType) string {
	if len(params) == 0 {
		return "-"
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	slices.Sort(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s:%s", name, params[name]))
	}
	return strings.Join(parts, ", ")
}
