package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	otelapi "go.opentelemetry.io/otel"

	"github.com/petal-labs/floret/config"
	"github.com/petal-labs/floret/httpapi"
	floretotel "github.com/petal-labs/floret/otel"
	"github.com/petal-labs/floret/tool"
)

// NewServeCmd creates the "serve" subcommand: the HTTP transport daemon.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve tools over HTTP",
		RunE:  runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (default from config, \":8080\")")
	cmd.Flags().String("config", "", "Path to floret.yaml")
	cmd.Flags().Duration("read-timeout", 0, "HTTP read timeout")
	cmd.Flags().Duration("write-timeout", 0, "HTTP write timeout")
	cmd.Flags().Int64("max-body", 0, "Max request body size in bytes")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return exitError(exitValidation, "%s", err)
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.HTTP.Addr = addr
	}
	if cmd.Flags().Changed("read-timeout") {
		d, _ := cmd.Flags().GetDuration("read-timeout")
		cfg.HTTP.ReadTimeoutMS = int(d.Milliseconds())
	}
	if cmd.Flags().Changed("write-timeout") {
		d, _ := cmd.Flags().GetDuration("write-timeout")
		cfg.HTTP.WriteTimeoutMS = int(d.Milliseconds())
	}
	if cmd.Flags().Changed("max-body") {
		cfg.HTTP.MaxBody, _ = cmd.Flags().GetInt64("max-body")
	}

	logger := slog.Default()

	registry := tool.NewRegistry()
	if err := tool.RegisterBuiltins(registry); err != nil {
		return fmt.Errorf("registering builtin tools: %w", err)
	}

	observer, err := floretotel.NewToolObserver(
		otelapi.GetMeterProvider().Meter("floret/tool"),
		otelapi.GetTracerProvider().Tracer("floret/tool"),
	)
	if err != nil {
		return fmt.Errorf("initializing tool observability: %w", err)
	}
	tool.SetObserver(observer)
	defer tool.SetObserver(nil)

	apiServer, err := httpapi.NewServer(httpapi.ServerConfig{
		Registry: registry,
		Logger:   logger,
		MaxBody:  cfg.HTTP.MaxBody,
	})
	if err != nil {
		return fmt.Errorf("creating HTTP server: %w", err)
	}

	httpServer := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      apiServer.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout(),
		WriteTimeout: cfg.HTTP.WriteTimeout(),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("floret HTTP server listening", "addr", cfg.HTTP.Addr, "tools", registry.Len())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return exitError(exitRuntime, "server error: %v", err)
		}
		return nil
	}
}

// loadConfig resolves and loads floret.yaml, falling back to defaults when
// no config file exists.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	explicit, _ := cmd.Flags().GetString("config")
	path, found, err := config.Discover(explicit)
	if err != nil {
		return config.Config{}, err
	}
	if !found {
		return config.Default(), nil
	}
	return config.Load(path)
}
