package cmd

import (
	"github.com/spf13/cobra"

	"github.com/timvw/vlm-bench/internal/bench"
	"github.com/timvw/vlm-bench/internal/model"
	"github.com/timvw/vlm-bench/internal/report"
)

// truthOutput is the JSON shape printed by the truth command.
type truthOutput struct {
	Input     string          `json:"input"`
	Benchmark model.Benchmark `json:"benchmark"`
	Title     string          `json:"title,omitempty"`
	Target    string          `json:"target,omitempty"`
	Truth     model.Answer    `json:"truth"`
}

var truthCmd = &cobra.Command{
	Use:   "truth <stem|description>",
	Short: "Print the ground truth of a test case",
	Long: `Print the ground truth a benchmark scores against, derived from the puzzle
description alone. No model is called and no credentials are needed.

The argument is a test case stem or the path of its .json/.yaml description.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := parseCaseFlags()
		if err != nil {
			return err
		}
		c, err := bench.NewTruthCase(args[0], b, "")
		if err != nil {
			return err
		}
		truth, err := bench.GroundTruth(c)
		if err != nil {
			return err
		}

		if flagFormat == formatText {
			return report.RenderTruth(cmd.OutOrStdout(), b, c.Stem, truth.Answer, theme())
		}
		return report.WriteJSON(cmd.OutOrStdout(), truthOutput{
			Input:     c.Stem,
			Benchmark: b,
			Title:     truth.Title,
			Target:    truth.Target,
			Truth:     truth.Answer,
		})
	},
}

func init() {
	addCaseFlags(truthCmd, false)
	rootCmd.AddCommand(truthCmd)
}
