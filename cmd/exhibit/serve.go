package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coolbeans/exhibit/pkg/api"
	"github.com/coolbeans/exhibit/pkg/intake"
	"github.com/coolbeans/exhibit/pkg/ruleset"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the parser over HTTP",
		Long: `Start the HTTP API.

Endpoints:
  POST /v1/parse     form text (text/plain) or multipart "file" upload -> record
  POST /v1/cms       same input -> CMS field sheet (?gender=male|female)
  GET  /v1/rulesets  registered rulesets
  GET  /healthz      liveness
  GET  /metrics      Prometheus metrics

Examples:
  exhibit serve --addr :8080
  exhibit serve --rules-dir rules/ --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			watch, _ := cmd.Flags().GetBool("watch")
			maxBytes, _ := cmd.Flags().GetInt64("max-bytes")
			ratePerSecond, _ := cmd.Flags().GetFloat64("rate")
			burst, _ := cmd.Flags().GetInt("burst")

			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			if watch {
				if rulesDir == "" {
					return fmt.Errorf("--watch requires --rules-dir")
				}
				reg.SetOnChange(rulesetLogger(logger))
				if err := reg.Watch(); err != nil {
					return err
				}
				defer reg.StopWatch()
			}

			ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := api.New(reg,
				api.WithLogger(logger),
				api.WithReader(intake.NewReader(intake.WithMaxBytes(maxBytes), intake.WithLogger(logger))),
				api.WithMaxBodyBytes(maxBytes+1<<20),
				api.WithRateLimit(ratePerSecond, burst),
			)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().String("addr", ":8080", "Listen address")
	cmd.Flags().Bool("watch", false, "Reload rulesets when files in --rules-dir change")
	cmd.Flags().Int64("max-bytes", intake.DefaultMaxBytes, "Largest accepted document in bytes")
	cmd.Flags().Float64("rate", 0, "Requests per second across all clients (0 disables limiting)")
	cmd.Flags().Int("burst", 20, "Burst size for --rate")

	return cmd
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// rulesetLogger logs registry changes seen by the watcher.
func rulesetLogger(l *zap.Logger) func(event string, rs *ruleset.Ruleset) {
	return func(event string, rs *ruleset.Ruleset) {
		if rs == nil {
			l.Info("ruleset changed", zap.String("event", event))
			return
		}
		l.Info("ruleset changed",
			zap.String("event", event),
			zap.String("id", rs.ID),
			zap.String("version", rs.Version))
	}
}
