package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/domain-categorizer/internal/app"
	"github.com/JakeFAU/domain-categorizer/internal/categorizer"
	"github.com/JakeFAU/domain-categorizer/internal/config"
	"github.com/JakeFAU/domain-categorizer/internal/logging"
	"github.com/JakeFAU/domain-categorizer/internal/pipeline"
)

// envKeyType is the key for storing the loaded environment in the context.
type envKeyType string

const envKey envKeyType = "env"

// env is what PersistentPreRunE prepares for every subcommand.
type env struct {
	cfg    config.Config
	logger *zap.Logger
}

// App is the part of *app.App the run command drives. Tests inject fakes
// through newApp.
type App interface {
	RunID() string
	Progress() pipeline.Progress
	Run(ctx context.Context, domains []categorizer.Domain) (pipeline.Summary, error)
	Finish(ctx context.Context) error
}

// newApp is the application factory; replaced in tests.
var newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (App, error) {
	return app.New(ctx, cfg, logger)
}

// newRootCmd creates the root command and its subcommands.
func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "categorizer",
		Short: "Classifies internet domains into category keywords.",
		Long: `categorizer fetches the homepage of every domain in a CSV list, reduces it to
a keyword digest and asks a language model for one category from a fixed
allow-list. Results go to an append-only success log and failure log so an
interrupted run can be resumed.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			zap.ReplaceGlobals(logger)
			cmd.SetContext(context.WithValue(cmd.Context(), envKey, &env{cfg: cfg, logger: logger}))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if e, ok := cmd.Context().Value(envKey).(*env); ok {
				_ = e.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); CATEGORIZER_* env vars override it")
	cmd.AddCommand(newRunCmd(), newReportCmd())
	return cmd
}

func resolveEnv(ctx context.Context) (*env, error) {
	e, ok := ctx.Value(envKey).(*env)
	if !ok || e == nil {
		return nil, errors.New("configuration not loaded")
	}
	return e, nil
}

// execute runs the CLI with args and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "categorizer: %v\n", err)
		return 1
	}
	return 0
}

// Execute is the main entry point.
func Execute() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
