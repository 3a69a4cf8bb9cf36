// Package puzzle reads puzzle-definition files and derives the ground truth
// each benchmark is scored against.
//
// A description is a mapping with a "parts" sequence; each part has a
// part_type, a top-left position and a size. Fields are optional in the
// file, so numeric fields are pointers: a missing key is distinguishable
// from a zero coordinate.
package puzzle

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/timvw/vlm-bench/internal/geometry"
	"github.com/timvw/vlm-bench/internal/model"
)

// NoneLabel is the label-set ground truth for a puzzle without parts.
const NoneLabel = "NONE"

var (
	// ErrMalformed is returned when a description cannot be decoded.
	ErrMalformed = errors.New("malformed puzzle description")
	// ErrNoSolution is returned when the understanding benchmark needs a
	// solution and the description has none.
	ErrNoSolution = errors.New("puzzle description has no solution")
)

// Description is a parsed puzzle definition.
type Description struct {
	Version     string  `json:"version" yaml:"version"`
	Title       string  `json:"title" yaml:"title"`
	Description string  `json:"description" yaml:"description"`
	Solution    *string `json:"solution" yaml:"solution"`
	Parts       []Part  `json:"parts" yaml:"parts"`
}

// Part is one placed game object.
type Part struct {
	PartType string   `json:"part_type" yaml:"part_type"`
	Position Position `json:"position" yaml:"position"`
	Size     Size     `json:"size" yaml:"size"`
	Flags    []string `json:"flags_3,omitempty" yaml:"flags_3,omitempty"`
}

// Position is the top-left pixel coordinate of a part.
type Position struct {
	X *int `json:"x" yaml:"x"`
	Y *int `json:"y" yaml:"y"`
}

// Size holds the part dimensions. Only the first pair is used for ground
// truth.
type Size struct {
	Width1  *int `json:"width_1" yaml:"width_1"`
	Height1 *int `json:"height_1" yaml:"height_1"`
	Width2  *int `json:"width_2,omitempty" yaml:"width_2,omitempty"`
	Height2 *int `json:"height_2,omitempty" yaml:"height_2,omitempty"`
}

// Parse decodes a JSON puzzle description.
func Parse(data []byte) (*Description, error) {
	var d Description
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &d, nil
}

// ParseYAML decodes a YAML puzzle description.
func ParseYAML(data []byte) (*Description, error) {
	var d Description
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &d, nil
}

// Load reads a puzzle description from disk. Files ending in .yaml or .yml
// are decoded as YAML, everything else as JSON.
func Load(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading puzzle %s: %w", path, err)
	}
	var d *Description
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		d, err = ParseYAML(data)
	default:
		d, err = Parse(data)
	}
	if err != nil {
		return nil, fmt.Errorf("puzzle %s: %w", path, err)
	}
	return d, nil
}

// LabelSet returns the comma-joined part types in file order, or "NONE"
// when the puzzle has no typed parts.
func (d *Description) LabelSet() model.Label {
	names := make([]string, 0, len(d.Parts))
	for _, p := range d.Parts {
		if p.PartType != "" {
			names = append(names, p.PartType)
		}
	}
	if len(names) == 0 {
		return model.NewLabel(NoneLabel)
	}
	return model.NewLabel(strings.Join(names, ","))
}

// LabelBox returns the label and pixel box of the first part. It is absent
// when there are no parts or any of x, y, width_1, height_1 is missing.
func (d *Description) LabelBox() model.Detection {
	if len(d.Parts) == 0 {
		return model.NoDetection()
	}
	p := d.Parts[0]
	if p.Position.X == nil || p.Position.Y == nil || p.Size.Width1 == nil || p.Size.Height1 == nil {
		return model.NoDetection()
	}
	box := geometry.BoxFromSize(*p.Position.X, *p.Position.Y, *p.Size.Width1, *p.Size.Height1)
	return model.NewDetection(p.PartType, box)
}

// ClickPoint returns the center of the first part's box.
func (d *Description) ClickPoint() model.Point {
	det := d.LabelBox()
	if !det.Present() {
		return model.NoPoint()
	}
	c := det.Box.Center()
	return model.NewPoint(c.X, c.Y)
}

// SolutionLabel returns the top-level solution string used by the
// understanding benchmark.
func (d *Description) SolutionLabel() (model.Label, error) {
	if d.Solution == nil {
		return model.NoLabel(), ErrNoSolution
	}
	return model.NewLabel(*d.Solution), nil
}

// Truth derives the ground truth for a benchmark.
func (d *Description) Truth(b model.Benchmark) (model.Answer, error) {
	switch b {
	case model.BenchmarkRecognition:
		return d.LabelSet(), nil
	case model.BenchmarkGrounding:
		return d.LabelBox(), nil
	case model.BenchmarkClick:
		return d.ClickPoint(), nil
	case model.BenchmarkUnderstanding:
		return d.SolutionLabel()
	default:
		return nil, fmt.Errorf("no ground truth for benchmark %q", b)
	}
}

// TargetLabel returns the part type the grounding and click benchmarks ask
// the model to locate, or "" if the puzzle has no parts.
func (d *Description) TargetLabel() string {
	if len(d.Parts) == 0 {
		return ""
	}
	return d.Parts[0].PartType
}
