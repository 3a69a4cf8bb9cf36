package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/timvw/vlm-bench/internal/bench"
	"github.com/timvw/vlm-bench/internal/report"
)

var flagResponse string

var scoreCmd = &cobra.Command{
	Use:   "score <stem|description>",
	Short: "Score a saved model response against a test case",
	Long: `Parse a saved model response and score it against the ground truth of a
test case, without calling any model. The response is read from --response,
or from stdin when it is "-" (the default).

Useful for re-scoring stored answers after changing the image size or for
checking what a given answer would score.`,
	Example: `  echo BASKETBALL | vlm-bench score puzzles/obj_rec1 -b recognition
  vlm-bench score puzzles/obj_rec1.json -b grounding --response answer.txt -f text`,
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
		c, err := bench.NewTruthCase(args[0], b, cfg.Category)
		if err != nil {
			return err
		}
		truth, err := bench.GroundTruth(c)
		if err != nil {
			return err
		}

		raw, err := readResponse(cmd.InOrStdin(), flagResponse)
		if err != nil {
			return err
		}

		start := time.Now()
		logger := newLogger()
		runner := &bench.Runner{Parsers: newParsers(cfg, logger), Log: logger}
		result, err := runner.Score(c, truth, raw)
		if err != nil {
			return err
		}
		result.DurationMs = time.Since(start).Milliseconds()

		if flagFormat == formatText {
			return report.Render(cmd.OutOrStdout(), result, theme())
		}
		return report.WriteJSON(cmd.OutOrStdout(), result)
	},
}

// readResponse reads the response text from a file, or from stdin for "-".
func readResponse(stdin io.Reader, path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading response from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	return string(data), nil
}

func init() {
	addCaseFlags(scoreCmd, true)
	scoreCmd.Flags().StringVarP(&flagResponse, "response", "r", "-", "file holding the model response, - for stdin")
	rootCmd.AddCommand(scoreCmd)
}
