// Package parser turns free-form model output into typed answers.
//
// There is one parser per answer shape: a plain label, a labelled bounding
// box, and a click point. The parser is chosen by the benchmark being run,
// never guessed from the response text. Parsers never fail: malformed
// output yields the variant's absent sentinel, which the scorer treats as
// a zero (or maximal-distance) outcome.
package parser

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/timvw/vlm-bench/internal/model"
)

// ResponseParser decodes raw model text into an answer.
type ResponseParser interface {
	// Kind returns the answer shape this parser produces.
	Kind() model.Kind

	// Parse decodes text. It returns the absent sentinel of its variant
	// instead of an error when the text cannot be decoded.
	Parse(text string) model.Answer
}

// Options configures the parsers built by NewRegistry.
type Options struct {
	// ImageWidth and ImageHeight are the pixel dimensions normalized box
	// coordinates are rescaled to.
	ImageWidth  int
	ImageHeight int
	// Log receives diagnostics for responses that fail to parse. Nil
	// discards them.
	Log *log.Logger
}

// Registry maps each benchmark to its parser.
type Registry struct {
	parsers map[model.Benchmark]ResponseParser
}

// NewRegistry creates a registry with the parser for every benchmark.
func NewRegistry(opts Options) *Registry {
	logger := opts.Log
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Registry{
		parsers: map[model.Benchmark]ResponseParser{
			model.BenchmarkRecognition:   &LabelParser{},
			model.BenchmarkUnderstanding: &LabelParser{Normalize: true},
			model.BenchmarkGrounding: &BoxParser{
				Width:  opts.ImageWidth,
				Height: opts.ImageHeight,
				Log:    logger,
			},
			model.BenchmarkClick: &ActionParser{Log: logger},
		},
	}
}

// For returns the parser for a benchmark.
func (r *Registry) For(b model.Benchmark) (ResponseParser, error) {
	p, ok := r.parsers[b]
	if !ok {
		return nil, fmt.Errorf("no response parser for benchmark %q", b)
	}
	return p, nil
}

// Parse decodes text with the parser registered for the benchmark.
func (r *Registry) Parse(b model.Benchmark, text string) (model.Answer, error) {
	p, err := r.For(b)
	if err != nil {
		return nil, err
	}
	return p.Parse(text), nil
}

// stripMarkdownFences removes a surrounding ``` or ```json fence that chat
// models often wrap structured output in.
func stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	// Drop the opening fence line, including any language tag.
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
