package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/malexternalsc/great-expectation-LLM/pkg/catalog"
	"github.com/malexternalsc/great-expectation-LLM/pkg/dataset"
	"github.com/malexternalsc/great-expectation-LLM/pkg/services"
)

func embedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "embed [prompt-file]",
		Short: "Load example prompts into the embedding index",
		Long: `Embeds every non-blank line of the prompt file and stores it in the index,
tagged with the file path. Defaults to paths.sample_prompts. Loading the same
file twice stores its lines twice.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Paths.SamplePrompts
			if len(args) == 1 {
				path = args[0]
			}
			index, err := a.index(cmd.Context())
			if err != nil {
				return err
			}
			n, err := services.NewExampleIndexer(index, a.logger).IndexFile(cmd.Context(), path)
			if err != nil {
				return err
			}
			fmt.Printf("Indexed %d prompts from %s\n", n, path)
			return nil
		},
	}
}

func searchCmd(a *app) *cobra.Command {
	var k int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Show the stored examples nearest to a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := a.index(cmd.Context())
			if err != nil {
				return err
			}
			matches, err := services.NewExampleIndexer(index, a.logger).Search(cmd.Context(), args[0], k)
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				fmt.Println("No examples found")
				return nil
			}
			printMatches(matches)
			return nil
		},
	}
	cmd.Flags().IntVarP(&k, "k", "k", 5, "Number of results")
	return cmd
}

func promptsCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Generate requirement prompts for every category combination",
		RunE: func(cmd *cobra.Command, args []string) error {
			run, ldg, err := a.promptRun(cmd.Context(), limit)
			if err != nil {
				return err
			}
			summary, err := run.Run(cmd.Context())
			if summary != nil {
				printRunSummary(summary, ldg.Path())
			}
			return err
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Process at most this many combinations (0 = all)")
	return cmd
}

func expectationsCmd(a *app) *cobra.Command {
	var fromLedger bool
	cmd := &cobra.Command{
		Use:   "expectations [prompt-file]",
		Short: "Convert a prompt file into an expectation dataset",
		Long: `Converts each prompt to an expectation expression and writes
generated_expectations_<timestamp>.csv to paths.dataset_dir. The prompt file
defaults to paths.sample_prompts, or today's ledger with --ledger.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Paths.SamplePrompts
			switch {
			case len(args) == 1:
				path = args[0]
			case fromLedger:
				path = a.newLedger().Path()
			}
			userPrompts, err := catalog.LoadPrompts(path)
			if err != nil {
				return err
			}
			a.logger.Info("Loaded prompts", zap.String("path", path), zap.Int("count", len(userPrompts)))

			client, err := a.chatClient(cmd.Context())
			if err != nil {
				return err
			}
			gen, err := a.expectationGenerator(client)
			if err != nil {
				return err
			}
			result, err := gen.Run(cmd.Context(), userPrompts)
			if err != nil {
				return err
			}
			printDatasetResult("Expectations", result)
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromLedger, "ledger", false, "Read today's prompt ledger instead of paths.sample_prompts")
	return cmd
}

// previewRows is the number of reasoning rows echoed after a run.
const previewRows = 3

func reasoningCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reasoning <expectations.csv>",
		Short: "Add step-by-step reasoning to an expectation dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := dataset.ReadExpectations(args[0])
			if err != nil {
				return err
			}
			client, err := a.chatClient(cmd.Context())
			if err != nil {
				return err
			}
			reformatter, err := a.reasoningReformatter(client)
			if err != nil {
				return err
			}
			result, err := reformatter.Run(cmd.Context(), rows)
			if err != nil {
				return err
			}
			printDatasetResult("Reasoning", result)
			return printReasoningPreview(result.Path, previewRows)
		},
	}
}

func runCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate prompts, then expectations for today's ledger, then reasoning",
		RunE: func(cmd *cobra.Command, args []string) error {
			run, ldg, err := a.promptRun(cmd.Context(), limit)
			if err != nil {
				return err
			}
			client, err := a.chatClient(cmd.Context())
			if err != nil {
				return err
			}
			gen, err := a.expectationGenerator(client)
			if err != nil {
				return err
			}
			reformatter, err := a.reasoningReformatter(client)
			if err != nil {
				return err
			}

			result, err := services.NewPipeline(run, ldg, gen, reformatter, a.logger).Run(cmd.Context())
			if result.Prompts != nil {
				printRunSummary(result.Prompts, ldg.Path())
			}
			if result.Expectations != nil {
				printDatasetResult("Expectations", result.Expectations)
			}
			if result.Reasoning != nil {
				printDatasetResult("Reasoning", result.Reasoning)
			}
			if err != nil || result.Reasoning == nil {
				return err
			}
			return printReasoningPreview(result.Reasoning.Path, previewRows)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Process at most this many combinations (0 = all)")
	return cmd
}

func migrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the embedding index schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.openDatabase(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Embedding index schema is up to date")
			return nil
		},
	}
}
