// Package scorer compares a parsed model response with ground truth.
//
// Labels are compared by exact equality, labelled boxes by IoU gated on
// the label, and click points by Euclidean distance. An absent response is
// a legitimate outcome (score 0, or the distance to the (-1,-1) sentinel),
// never an error. An absent click truth is an error: there is nothing to
// measure a distance from.
package scorer

import (
	"errors"
	"fmt"

	"github.com/timvw/vlm-bench/internal/geometry"
	"github.com/timvw/vlm-bench/internal/model"
)

// LabelEqual reports whether two labels are identical. The comparison is
// case- and whitespace-sensitive; normalization belongs to the parser.
func LabelEqual(truth, resp model.Label) bool {
	if !truth.Present() || !resp.Present() {
		return false
	}
	return truth.Value == resp.Value
}

// BoxIoU returns the IoU of two detections, or 0 when their labels differ,
// either side is absent, or either box is empty.
func BoxIoU(truth, resp model.Detection) float64 {
	if !truth.Present() || !resp.Present() {
		return 0
	}
	if truth.Label != resp.Label {
		return 0
	}
	if truth.Box.Empty() || resp.Box.Empty() {
		return 0
	}
	return geometry.IoU(truth.Box, resp.Box)
}

// PointDistance returns the Euclidean distance in pixels between two
// points. Absent points keep their sentinel coordinates, so the result is
// always defined; callers treat very large distances as no detection.
func PointDistance(truth, resp model.Point) float64 {
	return geometry.Distance(truth.Coord(), resp.Coord())
}

// ErrAbsentTruth is reported when the ground truth itself is the absent
// sentinel, so no response can be judged against it.
var ErrAbsentTruth = errors.New("ground truth is absent")

// Score compares two answers of the same kind. A kind mismatch, or a click
// truth with no point to aim at, is reported in Score.Error.
func Score(truth, resp model.Answer) model.Score {
	if truth == nil || resp == nil {
		return model.Score{Error: fmt.Errorf("cannot score a nil answer")}
	}
	result := model.Score{
		Kind:     truth.Kind(),
		Detected: resp.Present(),
		Metadata: make(map[string]any),
	}
	if truth.Kind() != resp.Kind() {
		result.Error = fmt.Errorf("cannot compare %s ground truth with %s response", truth.Kind(), resp.Kind())
		return result
	}

	switch t := truth.(type) {
	case model.Label:
		r, ok := resp.(model.Label)
		if !ok {
			result.Error = unsupported(resp)
			return result
		}
		result.Match = LabelEqual(t, r)
		if result.Match {
			result.Value = 1
		}
	case model.Detection:
		r, ok := resp.(model.Detection)
		if !ok {
			result.Error = unsupported(resp)
			return result
		}
		result.Value = BoxIoU(t, r)
		result.Match = result.Value > 0
		result.Metadata["label_match"] = t.Present() && r.Present() && t.Label == r.Label
		result.Metadata["truth_present"] = t.Present()
	case model.Point:
		r, ok := resp.(model.Point)
		if !ok {
			result.Error = unsupported(resp)
			return result
		}
		result.Metadata["truth_present"] = t.Present()
		if !t.Present() {
			// A distance from (-1,-1) would read as a near hit.
			result.Error = fmt.Errorf("click: %w", ErrAbsentTruth)
			return result
		}
		result.Value = PointDistance(t, r)
	default:
		result.Error = unsupported(truth)
	}
	return result
}

func unsupported(a model.Answer) error {
	return fmt.Errorf("unsupported answer type %T", a)
}
