package scorer

import (
	"errors"
	"math"
	"testing"

	"github.com/timvw/vlm-bench/internal/geometry"
	"github.com/timvw/vlm-bench/internal/model"
	"github.com/timvw/vlm-bench/internal/parser"
	"github.com/timvw/vlm-bench/internal/puzzle"
)

func TestLabelEqual(t *testing.T) {
	tests := []struct {
		name        string
		truth, resp model.Label
		want        bool
	}{
		{name: "identical", truth: model.NewLabel("A,B"), resp: model.NewLabel("A,B"), want: true},
		{name: "order matters", truth: model.NewLabel("A,B"), resp: model.NewLabel("B,A")},
		{name: "case sensitive", truth: model.NewLabel("BASKETBALL"), resp: model.NewLabel("Basketball")},
		{name: "whitespace sensitive", truth: model.NewLabel("NONE"), resp: model.NewLabel("NONE ")},
		{name: "absent response", truth: model.NewLabel("NONE"), resp: model.NoLabel()},
		{name: "both absent", truth: model.NoLabel(), resp: model.NoLabel()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LabelEqual(tt.truth, tt.resp); got != tt.want {
				t.Errorf("LabelEqual(%v, %v) = %v, want %v", tt.truth, tt.resp, got, tt.want)
			}
		})
	}
}

func TestBoxIoU(t *testing.T) {
	box := geometry.Box{XMin: 186, YMin: 108, XMax: 218, YMax: 140}
	far := geometry.Box{XMin: 400, YMin: 300, XMax: 432, YMax: 332}

	tests := []struct {
		name        string
		truth, resp model.Detection
		want        float64
	}{
		{name: "identical", truth: model.NewDetection("BASKETBALL", box), resp: model.NewDetection("BASKETBALL", box), want: 1},
		{name: "non-overlapping", truth: model.NewDetection("BASKETBALL", box), resp: model.NewDetection("BASKETBALL", far), want: 0},
		{name: "label mismatch", truth: model.NewDetection("BASKETBALL", box), resp: model.NewDetection("PINBALL", box), want: 0},
		{name: "absent response", truth: model.NewDetection("BASKETBALL", box), resp: model.NoDetection(), want: 0},
		{name: "absent truth", truth: model.NoDetection(), resp: model.NewDetection("BASKETBALL", box), want: 0},
		{name: "both absent", truth: model.NoDetection(), resp: model.NoDetection(), want: 0},
		{name: "empty response box", truth: model.NewDetection("A", box), resp: model.NewDetection("A", geometry.Box{}), want: 0},
		{
			name:  "partial overlap",
			truth: model.NewDetection("A", geometry.Box{XMin: 0, YMin: 0, XMax: 10, YMax: 10}),
			resp:  model.NewDetection("A", geometry.Box{XMin: 5, YMin: 5, XMax: 15, YMax: 15}),
			want:  25.0 / 175.0,
		},
		{
			name:  "degenerate identical boxes",
			truth: model.NewDetection("A", geometry.Box{XMin: 3, YMin: 3, XMax: 3, YMax: 3}),
			resp:  model.NewDetection("A", geometry.Box{XMin: 3, YMin: 3, XMax: 3, YMax: 3}),
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BoxIoU(tt.truth, tt.resp)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("BoxIoU = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPointDistance(t *testing.T) {
	truth := model.NewPoint(202, 124)
	resp := model.NewPoint(230, 131)

	d := PointDistance(truth, resp)
	if want := math.Hypot(28, 7); math.Abs(d-want) > 1e-9 {
		t.Errorf("PointDistance = %v, want %v", d, want)
	}
	if back := PointDistance(resp, truth); back != d {
		t.Errorf("PointDistance not symmetric: %v vs %v", d, back)
	}
	if same := PointDistance(truth, truth); same != 0 {
		t.Errorf("PointDistance to self = %v, want 0", same)
	}

	// The sentinel yields a finite distance, not an error.
	miss := PointDistance(truth, model.NoPoint())
	if want := math.Hypot(203, 125); math.Abs(miss-want) > 1e-9 {
		t.Errorf("PointDistance to sentinel = %v, want %v", miss, want)
	}
}

func TestScore(t *testing.T) {
	box := geometry.Box{XMin: 186, YMin: 108, XMax: 218, YMax: 140}

	tests := []struct {
		name         string
		truth, resp  model.Answer
		wantValue    float64
		wantMatch    bool
		wantDetected bool
		wantErr      bool
	}{
		{name: "label match", truth: model.NewLabel("A"), resp: model.NewLabel("A"), wantValue: 1, wantMatch: true, wantDetected: true},
		{name: "label miss", truth: model.NewLabel("A"), resp: model.NewLabel("B"), wantDetected: true},
		{name: "box match", truth: model.NewDetection("A", box), resp: model.NewDetection("A", box), wantValue: 1, wantMatch: true, wantDetected: true},
		{name: "box absent", truth: model.NewDetection("A", box), resp: model.NoDetection()},
		{name: "point", truth: model.NewPoint(0, 0), resp: model.NewPoint(3, 4), wantValue: 5, wantDetected: true},
		{name: "kind mismatch", truth: model.NewLabel("A"), resp: model.NewPoint(1, 1), wantDetected: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.truth, tt.resp)
			if (got.Error != nil) != tt.wantErr {
				t.Fatalf("Error: got %v, wantErr %v", got.Error, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.Kind != tt.truth.Kind() {
				t.Errorf("Kind: got %q, want %q", got.Kind, tt.truth.Kind())
			}
			if math.Abs(got.Value-tt.wantValue) > 1e-9 {
				t.Errorf("Value: got %v, want %v", got.Value, tt.wantValue)
			}
			if got.Match != tt.wantMatch {
				t.Errorf("Match: got %v, want %v", got.Match, tt.wantMatch)
			}
			if got.Detected != tt.wantDetected {
				t.Errorf("Detected: got %v, want %v", got.Detected, tt.wantDetected)
			}
		})
	}
}

func TestScore_NilAnswer(t *testing.T) {
	if got := Score(nil, model.NewLabel("A")); got.Error == nil {
		t.Error("expected error for nil truth")
	}
}

func TestScore_MalformedBoxResponseScoresZero(t *testing.T) {
	p := &parser.BoxParser{Width: 640, Height: 441}
	truths := []model.Detection{
		model.NewDetection("BASKETBALL", geometry.Box{XMin: 186, YMin: 108, XMax: 218, YMax: 140}),
		model.NewDetection("A", geometry.Box{XMin: 0, YMin: 0, XMax: 640, YMax: 441}),
		model.NoDetection(),
	}
	for _, truth := range truths {
		resp := p.Parse(`{"bbox": [1, 2, 3, 4], "label": "BASKETBALL"`)
		got := Score(truth, resp)
		if got.Error != nil {
			t.Fatalf("unexpected error: %v", got.Error)
		}
		if got.Value != 0 || got.Detected {
			t.Errorf("malformed response vs %v: got %+v, want value 0 and not detected", truth, got)
		}
	}
}

func TestScore_AbsentClickTruth(t *testing.T) {
	desc, err := puzzle.Parse([]byte(`{"title": "EMPTY", "parts": []}`))
	if err != nil {
		t.Fatal(err)
	}
	truth, err := desc.Truth(model.BenchmarkClick)
	if err != nil {
		t.Fatal(err)
	}

	for _, resp := range []model.Point{model.NoPoint(), model.NewPoint(0, 0), model.NewPoint(202, 124)} {
		got := Score(truth, resp)
		if !errors.Is(got.Error, ErrAbsentTruth) {
			t.Errorf("Score(absent, %v): error = %v, want ErrAbsentTruth", resp, got.Error)
		}
		if got.Value != 0 || got.Match {
			t.Errorf("Score(absent, %v) = %+v, want no value and no match", resp, got)
		}
	}
}

func TestScore_PointerAnswerDoesNotPanic(t *testing.T) {
	label := model.NewLabel("A")
	point := model.NewPoint(1, 2)
	det := model.NewDetection("A", geometry.Box{XMax: 2, YMax: 2})

	tests := []struct {
		name        string
		truth, resp model.Answer
	}{
		{name: "label", truth: model.NewLabel("A"), resp: &label},
		{name: "point", truth: model.NewPoint(1, 2), resp: &point},
		{name: "box", truth: det, resp: &det},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.truth, tt.resp); got.Error == nil {
				t.Errorf("expected error for %T response", tt.resp)
			}
		})
	}
}
