package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/timvw/vlm-bench/internal/geometry"
)

func TestParseBenchmark(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     Benchmark
		wantKind Kind
		wantErr  bool
	}{
		{name: "recognition", input: "recognition", want: BenchmarkRecognition, wantKind: KindLabel},
		{name: "grounding upper case", input: "GROUNDING", want: BenchmarkGrounding, wantKind: KindBox},
		{name: "click with spaces", input: " click ", want: BenchmarkClick, wantKind: KindPoint},
		{name: "understanding", input: "understanding", want: BenchmarkUnderstanding, wantKind: KindLabel},
		{name: "unknown", input: "ocr", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBenchmark(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseBenchmark(%q): expected error, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBenchmark(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseBenchmark(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if got.Kind() != tt.wantKind {
				t.Errorf("%q.Kind() = %q, want %q", got, got.Kind(), tt.wantKind)
			}
		})
	}
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories {
		if got, err := ParseCategory(strings.ToUpper(c)); err != nil || got != c {
			t.Errorf("ParseCategory(%q) = %q, %v", c, got, err)
		}
	}
	if _, err := ParseCategory("bogus"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestZeroValuesAreAbsent(t *testing.T) {
	answers := []Answer{Label{}, Detection{}, NoPoint(), NoLabel(), NoDetection()}
	for _, a := range answers {
		if a.Present() {
			t.Errorf("%T zero/sentinel value reports Present()", a)
		}
	}
	p := NoPoint()
	if p.X != -1 || p.Y != -1 {
		t.Errorf("NoPoint() = (%d,%d), want (-1,-1)", p.X, p.Y)
	}
}

func TestPresentAnswersKeepZeroValues(t *testing.T) {
	// A legitimate (0,0) click must stay distinguishable from no detection.
	p := NewPoint(0, 0)
	if !p.Present() {
		t.Error("NewPoint(0,0) should be present")
	}
	if l := NewLabel(""); !l.Present() {
		t.Error("NewLabel(\"\") should be present")
	}
}

func TestDetection_MarshalJSON(t *testing.T) {
	d := NewDetection("BASKETBALL", geometry.Box{XMin: 186, YMin: 108, XMax: 218, YMax: 140})
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	want := `{"label":"BASKETBALL","bbox":[186,108,218,140],"detected":true}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}

	data, err = json.Marshal(NoDetection())
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	want = `{"label":null,"bbox":[],"detected":false}`
	if string(data) != want {
		t.Errorf("Marshal absent = %s, want %s", data, want)
	}
}

func TestResult_ScoreZeroInJSON(t *testing.T) {
	// A score of 0 is a real outcome and must not be dropped from output.
	r := Result{
		Benchmark: BenchmarkGrounding,
		Truth:     NewDetection("BASKETBALL", geometry.Box{XMin: 1, YMin: 1, XMax: 2, YMax: 2}),
		Response:  NoDetection(),
		Score:     Score{Kind: KindBox, Value: 0},
	}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if !strings.Contains(string(data), `"value":0`) {
		t.Errorf("JSON output missing \"value\":0, got: %s", data)
	}
}
