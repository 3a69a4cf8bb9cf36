package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/timvw/vlm-bench/internal/bench"
	"github.com/timvw/vlm-bench/internal/model"
	"github.com/timvw/vlm-bench/internal/report"
)

var evalCmd = &cobra.Command{
	Use:   "eval <stem>",
	Short: "Evaluate a model on one test case",
	Long: `Evaluate a vision-language model on one test case.

The stem is the shared path of <stem>.png and <stem>.json (and <stem>.py for
the understanding benchmark). The model is called exactly once; its answer is
parsed and scored against the ground truth from the description.

The result is printed as JSON on stdout, or as a report card with
--format text.`,
	Example: `  vlm-bench eval puzzles/obj_rec1 --benchmark recognition
  vlm-bench eval puzzles/obj_rec1 -b click --provider anthropic --model claude-sonnet-4-5
  vlm-bench eval puzzles/task7 -b understanding --category state_ident -f text`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := parseCaseFlags()
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c, err := bench.NewCase(args[0], b, cfg.Category)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		client, err := newClient(ctx, cfg)
		if err != nil {
			return err
		}

		tel := initTelemetry(ctx, cfg)
		if tel != nil {
			defer func() { _ = tel.Shutdown(context.WithoutCancel(ctx)) }()
		}

		logger := newLogger()
		runner := &bench.Runner{
			Client:  client,
			Parsers: newParsers(cfg, logger),
			Log:     logger,
		}
		if tel != nil {
			runner.Metrics = tel.Metrics
		}

		var result *model.Result
		if flagFormat == formatText && interactive() {
			title := fmt.Sprintf("%s %s with %s", b, c.Name(), client.Model())
			result, err = report.RunWithSpinner(ctx, os.Stderr, title, theme(), func(ctx context.Context) (*model.Result, error) {
				return runner.Run(ctx, c)
			})
		} else {
			result, err = runner.Run(ctx, c)
		}
		if err != nil {
			return fmt.Errorf("evaluation failed for %s: %w", c.Name(), err)
		}

		if flagFormat == formatText {
			return report.Render(cmd.OutOrStdout(), result, theme())
		}
		return report.WriteJSON(cmd.OutOrStdout(), result)
	},
}

func init() {
	addCaseFlags(evalCmd, true)
	rootCmd.AddCommand(evalCmd)
}
