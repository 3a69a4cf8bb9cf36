package parser

import (
	"strings"

	"github.com/timvw/vlm-bench/internal/model"
)

// LabelParser reads a plain-text label.
type LabelParser struct {
	// Normalize upper-cases the label and replaces spaces with underscores,
	// for benchmarks whose ground truth is an enum-style part type
	// ("Tennis Ball" -> "TENNIS_BALL").
	Normalize bool
}

// Kind returns model.KindLabel.
func (p *LabelParser) Kind() model.Kind { return model.KindLabel }

// Parse implements ResponseParser.
func (p *LabelParser) Parse(text string) model.Answer {
	return p.ParseLabel(text)
}

// ParseLabel trims the response and optionally normalizes it. Trimming
// happens first so surrounding padding never turns into underscores. A
// plain label is always present, possibly empty.
func (p *LabelParser) ParseLabel(text string) model.Label {
	text = strings.TrimSpace(text)
	if p.Normalize {
		text = strings.ReplaceAll(strings.ToUpper(text), " ", "_")
	}
	return model.NewLabel(text)
}
