// Package bench runs one benchmark test case end to end: ground truth,
// prompt, model call, parse, score.
package bench

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/timvw/vlm-bench/internal/model"
)

// ErrMissingInput is returned when a file a test case needs does not exist.
var ErrMissingInput = errors.New("missing test case input")

// Description file extensions, in lookup order.
var descriptionExts = []string{".json", ".yaml", ".yml"}

// Case is one test case: a screenshot with its puzzle description and, for
// the understanding benchmark, the task instruction.
type Case struct {
	// Stem is the shared path prefix of the case files.
	Stem      string
	Benchmark model.Benchmark
	// Category is the understanding category, empty for other benchmarks.
	Category string

	ImagePath       string
	DescriptionPath string
	// InstructPath is the <stem>.py task file, understanding only.
	InstructPath string
}

// NewCase resolves and checks every file the benchmark needs. The stem may
// be given with or without a .png/.json extension.
func NewCase(stem string, b model.Benchmark, category string) (*Case, error) {
	c, err := NewTruthCase(stem, b, category)
	if err != nil {
		return nil, err
	}
	c.ImagePath = c.Stem + ".png"
	if err := requireFile(c.ImagePath); err != nil {
		return nil, err
	}
	if b == model.BenchmarkUnderstanding {
		c.InstructPath = c.Stem + ".py"
		if err := requireFile(c.InstructPath); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// NewTruthCase resolves only the puzzle description. It is enough to
// compute ground truth and to score a saved response.
func NewTruthCase(stem string, b model.Benchmark, category string) (*Case, error) {
	if stem == "" {
		return nil, fmt.Errorf("%w: empty test case path", ErrMissingInput)
	}
	c := &Case{Benchmark: b}
	if b == model.BenchmarkUnderstanding {
		if category == "" {
			category = model.CategoryWithInstruct
		}
		cat, err := model.ParseCategory(category)
		if err != nil {
			return nil, err
		}
		c.Category = cat
	}

	ext := strings.ToLower(filepath.Ext(stem))
	switch ext {
	case ".png", ".py":
		c.Stem = strings.TrimSuffix(stem, filepath.Ext(stem))
	case ".json", ".yaml", ".yml":
		c.Stem = strings.TrimSuffix(stem, filepath.Ext(stem))
		c.DescriptionPath = stem
		if err := requireFile(stem); err != nil {
			return nil, err
		}
		return c, nil
	default:
		c.Stem = stem
	}

	for _, ext := range descriptionExts {
		if _, err := os.Stat(c.Stem + ext); err == nil {
			c.DescriptionPath = c.Stem + ext
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s.json", ErrMissingInput, c.Stem)
}

// Name returns the base name of the case, used in reports.
func (c *Case) Name() string {
	return filepath.Base(c.Stem)
}

func requireFile(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrMissingInput, path)
	}
	if err != nil {
		return fmt.Errorf("checking %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrMissingInput, path)
	}
	return nil
}
