package vlm

import (
	_ "embed"
	"fmt"

	"github.com/timvw/vlm-bench/internal/model"
)

// Benchmark system prompts, loaded from prompts/ at compile time.
var (
	//go:embed prompts/recognition.md
	RecognitionPrompt string

	//go:embed prompts/grounding.md
	GroundingPrompt string

	//go:embed prompts/click.md
	ClickPrompt string

	//go:embed prompts/understanding_with_instruct.md
	UnderstandingWithInstructPrompt string

	//go:embed prompts/understanding_without_instruct.md
	UnderstandingWithoutInstructPrompt string

	//go:embed prompts/state_ident.md
	StateIdentPrompt string
)

// SystemPrompt returns the system prompt for a benchmark. For the
// understanding benchmark the category picks the prompt and instruct (the
// test case's task description) is appended to it.
func SystemPrompt(b model.Benchmark, category, instruct string) (string, error) {
	switch b {
	case model.BenchmarkRecognition:
		return RecognitionPrompt, nil
	case model.BenchmarkGrounding:
		return GroundingPrompt, nil
	case model.BenchmarkClick:
		return ClickPrompt, nil
	case model.BenchmarkUnderstanding:
		switch category {
		case model.CategoryWithInstruct, "":
			return UnderstandingWithInstructPrompt + instruct, nil
		case model.CategoryWithoutInstruct:
			return UnderstandingWithoutInstructPrompt + instruct, nil
		case model.CategoryStateIdent:
			return StateIdentPrompt + instruct, nil
		default:
			return "", fmt.Errorf("category %q is not supported", category)
		}
	default:
		return "", fmt.Errorf("no system prompt for benchmark %q", b)
	}
}

// UserPrompt returns the text sent with the image. Grounding names the
// object to locate, click phrases it as a task, the others send only the
// image.
func UserPrompt(b model.Benchmark, target string) string {
	if target == "" {
		return ""
	}
	switch b {
	case model.BenchmarkGrounding:
		return target
	case model.BenchmarkClick:
		return fmt.Sprintf("Click on the %s.", target)
	default:
		return ""
	}
}
