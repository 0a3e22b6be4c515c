package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/domain-categorizer/internal/api"
	"github.com/JakeFAU/domain-categorizer/internal/input"
)

const finishTimeout = 2 * time.Minute

type runFlags struct {
	input   string
	limit   int
	apiAddr string
}

// newRunCmd creates the 'run' subcommand, which classifies the domain list.
func newRunCmd() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Classify every domain in the input list",
		Long: `Loads the domain list, skips domains already in the success log and
classifies the rest batch by batch. SIGINT or SIGTERM stops new batches;
the logs stay consistent and the next run resumes where this one stopped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCategorize(cmd, flags)
		},
	}
	cmd.Flags().StringVar(&flags.input, "input", "", "domain list CSV (overrides input.path)")
	cmd.Flags().IntVar(&flags.limit, "limit", 0, "process at most this many domains (overrides pipeline.limit)")
	cmd.Flags().StringVar(&flags.apiAddr, "api-addr", "", "serve health, metrics and progress on this address (overrides api.addr)")
	return cmd
}

func runCategorize(cmd *cobra.Command, flags runFlags) error {
	e, err := resolveEnv(cmd.Context())
	if err != nil {
		return err
	}
	cfg, logger := e.cfg, e.logger
	if cmd.Flags().Changed("input") {
		cfg.Input.Path = flags.input
	}
	if cmd.Flags().Changed("limit") {
		if flags.limit < 0 {
			return fmt.Errorf("--limit must be >= 0")
		}
		cfg.Pipeline.Limit = flags.limit
	}
	if cmd.Flags().Changed("api-addr") {
		cfg.API.Addr = flags.apiAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	domains, err := input.LoadDomains(cfg.Input.Path, cfg.Input.Column)
	if err != nil {
		return err
	}
	logger.Info("domain list loaded", zap.String("path", cfg.Input.Path), zap.Int("domains", len(domains)))

	appInstance, err := newApp(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application services: %w", err)
	}

	serverCtx, stopServer := context.WithCancel(ctx)
	serverDone := make(chan struct{})
	if cfg.API.Addr != "" {
		srv := api.NewServer(appInstance, appInstance.RunID(), logger.Named("api"))
		go func() {
			defer close(serverDone)
			if err := srv.ListenAndServe(serverCtx, cfg.API.Addr); err != nil {
				logger.Error("api server failed", zap.Error(err))
			}
		}()
	} else {
		close(serverDone)
	}

	summary, runErr := appInstance.Run(ctx, domains)
	stopServer()
	<-serverDone

	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()
	if err := appInstance.Finish(finishCtx); err != nil {
		logger.Warn("failed to finish run cleanly", zap.Error(err))
	}

	switch {
	case runErr == nil:
	case errors.Is(runErr, context.Canceled):
		logger.Warn("run interrupted; rerun to resume", zap.Error(runErr))
	default:
		return fmt.Errorf("run pipeline: %w", runErr)
	}

	logger.Info("run finished",
		zap.String("run_id", appInstance.RunID()),
		zap.Int("planned", summary.Planned),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("canceled", summary.Canceled),
		zap.Duration("duration", summary.Duration),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "run %s: planned=%d succeeded=%d failed=%d canceled=%d\n",
		appInstance.RunID(), summary.Planned, summary.Succeeded, summary.Failed, summary.Canceled)
	return nil
}
