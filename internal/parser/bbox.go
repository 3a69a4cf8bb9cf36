package parser

import (
	"io"
	"log"

	"github.com/tidwall/gjson"

	"github.com/timvw/vlm-bench/internal/geometry"
	"github.com/timvw/vlm-bench/internal/model"
)

// BoxParser reads a JSON object of the form
//
//	{"bbox": [x_min, y_min, x_max, y_max], "label": "BASKETBALL"}
//
// with coordinates on the 0-1000 scale, and rescales the box to pixels.
type BoxParser struct {
	// Width and Height are the known output image dimensions in pixels.
	Width  int
	Height int
	// Log receives a diagnostic for every rejected response.
	Log *log.Logger
}

// Kind returns model.KindBox.
func (p *BoxParser) Kind() model.Kind { return model.KindBox }

// Parse implements ResponseParser.
func (p *BoxParser) Parse(text string) model.Answer {
	return p.ParseDetection(text)
}

// ParseDetection decodes the response, or returns model.NoDetection() when
// it is not a JSON object, bbox is missing or not exactly four numbers, or
// label is missing or empty.
func (p *BoxParser) ParseDetection(text string) model.Detection {
	body := stripMarkdownFences(text)
	if !gjson.Valid(body) {
		p.logf("bbox: response is not valid JSON: %q", text)
		return model.NoDetection()
	}
	doc := gjson.Parse(body)
	if !doc.IsObject() {
		p.logf("bbox: response is not a JSON object: %q", text)
		return model.NoDetection()
	}

	bbox := doc.Get("bbox")
	if !bbox.Exists() || bbox.Type == gjson.Null {
		p.logf("bbox: no bbox in response, nothing detected")
		return model.NoDetection()
	}
	if !bbox.IsArray() {
		p.logf("bbox: bbox is not an array: %s", bbox.Raw)
		return model.NoDetection()
	}
	elems := bbox.Array()
	if len(elems) != 4 {
		p.logf("bbox: bbox has %d elements, want 4: %s", len(elems), bbox.Raw)
		return model.NoDetection()
	}
	var coords [4]float64
	for i, e := range elems {
		if e.Type != gjson.Number {
			p.logf("bbox: bbox element %d is not a number: %s", i, e.Raw)
			return model.NoDetection()
		}
		coords[i] = e.Float()
	}

	label := doc.Get("label")
	if label.Type != gjson.String || label.String() == "" {
		p.logf("bbox: no label in response")
		return model.NoDetection()
	}

	return model.NewDetection(label.String(), geometry.DenormalizeBox(coords, p.Width, p.Height))
}

func (p *BoxParser) logf(format string, args ...any) {
	logger := p.Log
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	logger.Printf(format, args...)
}
