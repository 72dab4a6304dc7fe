package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/malexternalsc/great-expectation-LLM/pkg/apperrors"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := execute(ctx, &app{}, os.Args[1:])
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// execute runs one command and releases everything it opened, whether or
// not the command succeeded.
func execute(ctx context.Context, a *app, args []string) error {
	defer a.close()
	cmd := rootCmd(a)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// exitCode separates configuration problems the operator must fix from
// runtime failures.
func exitCode(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInputMissing), errors.Is(err, apperrors.ErrMissingCredentials):
		return 2
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}

func rootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gelm",
		Short: "Synthetic fine-tuning data generator for data-quality expectations",
		Long: `gelm builds supervised fine-tuning data that maps natural-language
data-quality requirements to expectation expressions:

  prompts       enumerate category combinations and append generated prompts to today's ledger
  expectations  convert a prompt file to an expectation dataset
  reasoning     add step-by-step reasoning to an expectation dataset
  run           all three stages in sequence

Settings come from config.yaml (optional) and the environment; a .env file is loaded first.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "config.yaml", "Config file path (YAML)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Log debug output to the console")
	flags.StringVar(&a.indexBackend, "index", "", "Embedding index backend: pgvector or memory (overrides config)")

	cmd.AddCommand(
		embedCmd(a),
		searchCmd(a),
		promptsCmd(a),
		expectationsCmd(a),
		reasoningCmd(a),
		runCmd(a),
		migrateCmd(a),
	)
	return cmd
}
