package bench

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/timvw/vlm-bench/internal/model"
	ppotel "github.com/timvw/vlm-bench/internal/otel"
	"github.com/timvw/vlm-bench/internal/parser"
	"github.com/timvw/vlm-bench/internal/puzzle"
	"github.com/timvw/vlm-bench/internal/scorer"
	"github.com/timvw/vlm-bench/internal/vlm"
)

var tracer = otel.Tracer("vlm-bench")

// Runner evaluates test cases against one model.
type Runner struct {
	Client  vlm.Client
	Parsers *parser.Registry
	Metrics *ppotel.Metrics // OTEL metric counters; nil-safe
	Log     *log.Logger     // diagnostics; nil discards
}

// Truth is the ground truth of a case together with what the model is
// asked about.
type Truth struct {
	Title  string
	Answer model.Answer
	// Target is the part type named in the user prompt (grounding, click).
	Target string
}

// GroundTruth loads the case description and derives its ground truth.
func GroundTruth(c *Case) (*Truth, error) {
	desc, err := puzzle.Load(c.DescriptionPath)
	if err != nil {
		return nil, err
	}
	answer, err := desc.Truth(c.Benchmark)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.DescriptionPath, err)
	}
	return &Truth{
		Title:  desc.Title,
		Answer: answer,
		Target: desc.TargetLabel(),
	}, nil
}

// Run evaluates one case: ground truth, prompt, a single model call, parse
// and score, strictly in that order. File and API errors are returned; a
// response that cannot be parsed is scored as absent.
func (r *Runner) Run(ctx context.Context, c *Case) (*model.Result, error) {
	start := time.Now()
	runID := uuid.NewString()

	ctx, span := tracer.Start(ctx, "evaluate "+string(c.Benchmark),
		trace.WithAttributes(
			attribute.String("bench.run_id", runID),
			attribute.String("bench.benchmark", string(c.Benchmark)),
			attribute.String("bench.category", c.Category),
			attribute.String("bench.input", c.Stem),

			// Langfuse trace-level attributes
			attribute.String("langfuse.trace.name", "vlm-bench-"+string(c.Benchmark)),
			attribute.StringSlice("langfuse.trace.tags", []string{"vlm-bench", string(c.Benchmark)}),
		))
	defer span.End()

	result, err := r.run(ctx, c, runID, start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.Metrics.RecordEvaluation(ctx, string(c.Benchmark), "error")
		return nil, err
	}

	span.SetAttributes(
		attribute.Float64("bench.score", result.Score.Value),
		attribute.Bool("bench.detected", result.Score.Detected),
	)
	r.Metrics.RecordEvaluation(ctx, string(c.Benchmark), "scored")
	r.Metrics.RecordScore(ctx, string(c.Benchmark), result.Score.Value, result.Score.Detected)
	r.Metrics.RecordTokens(ctx, result.Provider, result.Model, result.Usage.InputTokens, result.Usage.OutputTokens)
	return result, nil
}

func (r *Runner) run(ctx context.Context, c *Case, runID string, start time.Time) (*model.Result, error) {
	if r.Client == nil {
		return nil, fmt.Errorf("runner has no model client")
	}

	truth, err := GroundTruth(c)
	if err != nil {
		return nil, err
	}
	if c.Benchmark == model.BenchmarkClick && !truth.Answer.Present() {
		return nil, fmt.Errorf("%s: %w", c.Name(), scorer.ErrAbsentTruth)
	}

	req, err := buildRequest(c, truth)
	if err != nil {
		return nil, err
	}

	completion, err := r.Client.Complete(ctx, *req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Name(), err)
	}

	result, err := r.Score(c, truth, completion.Text)
	if err != nil {
		return nil, err
	}
	result.RunID = runID
	result.Model = completion.Model
	if result.Model == "" {
		result.Model = r.Client.Model()
	}
	result.Provider = r.Client.Provider()
	result.Usage = completion.Usage
	result.EvaluatedAt = time.Now()
	result.DurationMs = result.EvaluatedAt.Sub(start).Milliseconds()
	return result, nil
}

// Score parses a raw response and compares it with the ground truth. It
// needs no model client, so saved responses can be re-scored offline.
func (r *Runner) Score(c *Case, truth *Truth, raw string) (*model.Result, error) {
	parsers := r.Parsers
	if parsers == nil {
		parsers = parser.NewRegistry(parser.Options{Log: r.logger()})
	}
	resp, err := parsers.Parse(c.Benchmark, raw)
	if err != nil {
		return nil, err
	}
	if !resp.Present() {
		r.logger().Printf("%s: no %s detected in response", c.Name(), resp.Kind())
	}

	score := scorer.Score(truth.Answer, resp)
	if score.Error != nil {
		return nil, fmt.Errorf("%s: %w", c.Name(), score.Error)
	}

	return &model.Result{
		Benchmark:   c.Benchmark,
		Category:    c.Category,
		Input:       c.Stem,
		Title:       truth.Title,
		Truth:       truth.Answer,
		Response:    resp,
		RawResponse: raw,
		Score:       score,
		EvaluatedAt: time.Now(),
	}, nil
}

// buildRequest assembles the prompts and image for a case.
func buildRequest(c *Case, truth *Truth) (*vlm.Request, error) {
	var instruct string
	if c.InstructPath != "" {
		data, err := os.ReadFile(c.InstructPath)
		if err != nil {
			return nil, fmt.Errorf("reading instruction %s: %w", c.InstructPath, err)
		}
		instruct = string(data)
	}

	system, err := vlm.SystemPrompt(c.Benchmark, c.Category, instruct)
	if err != nil {
		return nil, err
	}

	image, mime, err := vlm.LoadImage(c.ImagePath)
	if err != nil {
		return nil, err
	}

	return &vlm.Request{
		SystemPrompt: system,
		UserPrompt:   vlm.UserPrompt(c.Benchmark, userTarget(c.Benchmark, truth)),
		Image:        image,
		MIMEType:     mime,
	}, nil
}

// userTarget names the object to find. Grounding asks for the truth label
// itself so the prompt matches what is scored.
func userTarget(b model.Benchmark, truth *Truth) string {
	if d, ok := truth.Answer.(model.Detection); ok && b == model.BenchmarkGrounding && d.Present() {
		return d.Label
	}
	return truth.Target
}

func (r *Runner) logger() *log.Logger {
	if r.Log == nil {
		return log.New(io.Discard, "", 0)
	}
	return r.Log
}
