package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/ozgurerrdem/persona-watch/internal/api/router"
	"github.com/ozgurerrdem/persona-watch/internal/api/server"
	"github.com/ozgurerrdem/persona-watch/internal/domain"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "personawatch",
		Short:        "Scan content sources for what is being said about a keyword",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := setupLogging(opts.logLevel); err != nil {
				return err
			}
			loadEnv()
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.catalogPath, "config", "", "adapter catalog YAML (default $ADAPTERS_CONFIG or built-in defaults)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(newScanCmd(opts), newAdaptersCmd(opts), newServeCmd(opts))
	return root
}

func newScanCmd(opts *rootOptions) *cobra.Command {
	var (
		adapters []string
		output   string
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "scan <keyword>",
		Short: "Run one scan and print the new records",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(ctx, opts)
			if err != nil {
				return err
			}
			defer app.Close()

			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			outcome, err := app.Orchestrator.Scan(ctx, domain.ScanRequest{
				SearchKeyword: strings.Join(args, " "),
				Adapters:      adapters,
			})
			if err != nil {
				return err
			}

			switch output {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(outcome)
			case "table":
				renderOutcome(cmd.OutOrStdout(), outcome)
				return nil
			default:
				return fmt.Errorf("unknown output %q: expected table or json", output)
			}
		},
	}
	cmd.Flags().StringSliceVarP(&adapters, "adapters", "a", nil, "adapters to run (default all)")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table or json")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "abort the scan after this long")
	return cmd
}

func newAdaptersCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "adapters",
		Short: "List the enabled adapters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _, registry, err := loadRegistry(opts)
			if err != nil {
				return err
			}
			renderAdapters(cmd.OutOrStdout(), registry.All())
			return nil
		},
	}
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the scan API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sCfg, err := server.LoadConfig()
			if err != nil {
				return fmt.Errorf("load server config: %w", err)
			}

			app, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer app.Close()

			s := server.New(sCfg, app.Store.Health).
				SetupMiddlewares().
				SetupErrorHandler().
				SetupHealthChecks("/health").
				SetupMetrics("/metrics", app.Metrics).
				SetupOpenApi("/swagger/*")

			s.Echo.GET("/", func(c echo.Context) error {
				return c.String(200, "PersonaWatch API is running")
			})

			var routerOpts []router.ScanRouterOption
			if lister, ok := app.Store.Lister(); ok {
				routerOpts = append(routerOpts, router.WithLister(lister))
			}
			router.NewScanRouter(s.Echo, app.Orchestrator, routerOpts...).Bind()

			go func() {
				<-s.ShutdownSignal()
				slog.Info("Shutdown started, cleaning up resources...")
			}()

			slog.Info("Starting server", "port", sCfg.Port)
			return s.Start()
		},
	}
}
