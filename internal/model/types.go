package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/timvw/vlm-bench/internal/geometry"
)

// Kind is the shape of an answer: a plain label, a labelled box, or a point.
type Kind string

const (
	KindLabel Kind = "label"
	KindBox   Kind = "box"
	KindPoint Kind = "point"
)

// Benchmark selects ground-truth mode, prompt, parser and scorer.
type Benchmark string

const (
	// BenchmarkRecognition asks for the comma-joined part types in the image.
	BenchmarkRecognition Benchmark = "recognition"
	// BenchmarkGrounding asks for a labelled bounding box of a named part.
	BenchmarkGrounding Benchmark = "grounding"
	// BenchmarkClick asks a GUI agent to click on a named part.
	BenchmarkClick Benchmark = "click"
	// BenchmarkUnderstanding asks for the object matching a textual property.
	BenchmarkUnderstanding Benchmark = "understanding"
)

// Benchmarks lists every supported benchmark in display order.
var Benchmarks = []Benchmark{
	BenchmarkRecognition,
	BenchmarkGrounding,
	BenchmarkClick,
	BenchmarkUnderstanding,
}

// ParseBenchmark validates a benchmark name.
func ParseBenchmark(name string) (Benchmark, error) {
	b := Benchmark(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Benchmarks {
		if b == known {
			return b, nil
		}
	}
	return "", fmt.Errorf("unknown benchmark %q (supported: %s)", name, joinBenchmarks())
}

func joinBenchmarks() string {
	names := make([]string, len(Benchmarks))
	for i, b := range Benchmarks {
		names[i] = string(b)
	}
	return strings.Join(names, ", ")
}

// Kind returns the answer shape the benchmark is scored on.
func (b Benchmark) Kind() Kind {
	switch b {
	case BenchmarkGrounding:
		return KindBox
	case BenchmarkClick:
		return KindPoint
	default:
		return KindLabel
	}
}

// Understanding benchmark categories.
const (
	CategoryWithInstruct    = "with_instruct"
	CategoryWithoutInstruct = "without_instruct"
	CategoryStateIdent      = "state_ident"
)

// Categories lists the understanding categories.
var Categories = []string{CategoryWithInstruct, CategoryWithoutInstruct, CategoryStateIdent}

// ParseCategory validates an understanding category name.
func ParseCategory(name string) (string, error) {
	c := strings.ToLower(strings.TrimSpace(name))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("category %q is not supported (supported: %s)", name, strings.Join(Categories, ", "))
}

// Answer is either a ground truth or a parsed model response. Every variant
// has an explicit absent state so a missing result is never mistaken for a
// legitimate zero value.
type Answer interface {
	Kind() Kind
	// Present is false for the variant's absent sentinel.
	Present() bool
	String() string
}

// Label is a plain-text answer. The zero value is absent.
type Label struct {
	Value string `json:"value"`
	OK    bool   `json:"detected"`
}

// NewLabel returns a present label.
func NewLabel(v string) Label { return Label{Value: v, OK: true} }

// NoLabel returns the absent label.
func NoLabel() Label { return Label{} }

func (l Label) Kind() Kind    { return KindLabel }
func (l Label) Present() bool { return l.OK }
func (l Label) String() string {
	if !l.OK {
		return "<none>"
	}
	return l.Value
}

// Detection is a label paired with a pixel-space bounding box. The zero
// value is absent.
type Detection struct {
	Label string       `json:"label"`
	Box   geometry.Box `json:"box"`
	OK    bool         `json:"detected"`
}

// NewDetection returns a present detection.
func NewDetection(label string, box geometry.Box) Detection {
	return Detection{Label: label, Box: box, OK: true}
}

// NoDetection returns the absent detection: no label and an empty box.
func NoDetection() Detection { return Detection{} }

func (d Detection) Kind() Kind    { return KindBox }
func (d Detection) Present() bool { return d.OK }
func (d Detection) String() string {
	if !d.OK {
		return "<none>"
	}
	return fmt.Sprintf("%s %v", d.Label, d.Box.Slice())
}

// MarshalJSON renders the box as [x_min, y_min, x_max, y_max] like the
// model-facing format.
func (d Detection) MarshalJSON() ([]byte, error) {
	out := struct {
		Label    *string `json:"label"`
		BBox     []int   `json:"bbox"`
		Detected bool    `json:"detected"`
	}{BBox: []int{}, Detected: d.OK}
	if d.OK {
		label := d.Label
		out.Label = &label
		out.BBox = d.Box.Slice()
	}
	return json.Marshal(out)
}

// Point is a click target in pixel space.
type Point struct {
	X  int  `json:"x"`
	Y  int  `json:"y"`
	OK bool `json:"detected"`
}

// NoPointCoord is the coordinate value carried by the absent point.
const NoPointCoord = -1

// NewPoint returns a present point.
func NewPoint(x, y int) Point { return Point{X: x, Y: y, OK: true} }

// NoPoint returns the absent point. It keeps the (-1, -1) coordinates so
// distance scoring stays well defined.
func NoPoint() Point { return Point{X: NoPointCoord, Y: NoPointCoord} }

func (p Point) Kind() Kind    { return KindPoint }
func (p Point) Present() bool { return p.OK }
func (p Point) String() string {
	if !p.OK {
		return fmt.Sprintf("<none> (%d,%d)", p.X, p.Y)
	}
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Coord returns the point as a geometry.Point.
func (p Point) Coord() geometry.Point { return geometry.Point{X: p.X, Y: p.Y} }

// Score is the outcome of comparing a response with ground truth.
type Score struct {
	// Kind is the answer shape that was compared.
	Kind Kind `json:"kind"`
	// Value is 1 or 0 for labels, IoU in [0, 1] for boxes, and the pixel
	// distance for points (lower is better, unbounded).
	Value float64 `json:"value"`
	// Match is label equality for labels, IoU > 0 for boxes, and false for
	// points.
	Match bool `json:"match"`
	// Detected is false when the response was the absent sentinel.
	Detected bool `json:"detected"`
	// Metadata carries scorer-specific details.
	Metadata map[string]any `json:"metadata,omitempty"`
	// Error is set when the two answers could not be compared at all.
	Error error `json:"-"`
}

// TokenUsage tracks LLM token consumption for a single evaluation.
type TokenUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// Result is one evaluated test case.
type Result struct {
	// RunID uniquely identifies this evaluation.
	RunID string `json:"run_id"`
	// Benchmark is the benchmark that was run.
	Benchmark Benchmark `json:"benchmark"`
	// Category is the understanding category, empty for other benchmarks.
	Category string `json:"category,omitempty"`
	// Input is the test case path stem.
	Input string `json:"input"`
	// Title is the puzzle title, if the description has one.
	Title string `json:"title,omitempty"`

	Truth    Answer `json:"truth"`
	Response Answer `json:"response"`
	// RawResponse is the unparsed model text.
	RawResponse string `json:"raw_response"`
	Score       Score  `json:"score"`

	Usage TokenUsage `json:"usage"`

	// Model is the model that produced the response.
	Model string `json:"model"`
	// Provider is the API provider used (e.g., "openai", "anthropic").
	Provider string `json:"provider"`
	// EvaluatedAt is the timestamp when the evaluation finished.
	EvaluatedAt time.Time `json:"evaluated_at"`
	// DurationMs is the wall-clock time for the whole evaluation.
	DurationMs int64 `json:"duration_ms"`
}
