// Package report renders evaluation results for humans and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/timvw/vlm-bench/internal/model"
)

// maxRawLines caps the raw response excerpt on the card.
const maxRawLines = 6

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Render writes a report card for one result.
func Render(w io.Writer, r *model.Result, t Theme) error {
	s := newStyles(t)

	title := "vlm-bench " + string(r.Benchmark)
	if r.Category != "" {
		title += " (" + r.Category + ")"
	}

	rows := []string{s.title.Render(title), ""}
	add := func(key, value string) {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, s.key.Render(key), value))
	}

	input := r.Input
	if r.Title != "" {
		input += s.dim.Render("  " + r.Title)
	}
	add("input", s.text.Render(input))
	if r.Model != "" {
		add("model", s.model.Render(r.Model)+s.dim.Render("  via "+r.Provider))
	}
	add("truth", s.text.Render(answerText(r.Truth)))
	if r.Response != nil && r.Response.Present() {
		add("response", s.text.Render(answerText(r.Response)))
	} else {
		add("response", s.absent.Render("no detection"))
	}
	add("score", scoreText(s, r.Score))
	if r.Usage.InputTokens > 0 || r.Usage.OutputTokens > 0 {
		add("tokens", s.dim.Render(fmt.Sprintf("%s in / %s out  %dms",
			formatTokens(r.Usage.InputTokens), formatTokens(r.Usage.OutputTokens), r.DurationMs)))
	}

	if raw := excerpt(r.RawResponse, maxRawLines); raw != "" {
		rows = append(rows, "", s.dim.Render(raw))
	}

	_, err := fmt.Fprintln(w, s.card.Render(strings.Join(rows, "\n")))
	return err
}

// RenderTruth writes the ground truth of a case as one line.
func RenderTruth(w io.Writer, b model.Benchmark, input string, truth model.Answer, t Theme) error {
	s := newStyles(t)
	_, err := fmt.Fprintf(w, "%s %s %s\n",
		s.title.Render(string(b)),
		s.dim.Render(input),
		s.text.Render(answerText(truth)))
	return err
}

func answerText(a model.Answer) string {
	if a == nil {
		return "<none>"
	}
	return a.String()
}

// FormatScore formats a score value in the unit of its kind.
func FormatScore(sc model.Score) string {
	switch sc.Kind {
	case model.KindLabel:
		if sc.Match {
			return "1 (match)"
		}
		return "0 (mismatch)"
	case model.KindBox:
		return fmt.Sprintf("IoU %.3f", sc.Value)
	case model.KindPoint:
		return fmt.Sprintf("%.1f px", sc.Value)
	default:
		return fmt.Sprintf("%g", sc.Value)
	}
}

func scoreText(s styles, sc model.Score) string {
	text := FormatScore(sc)
	switch {
	case !sc.Detected:
		return s.absent.Render(text + "  no detection")
	case sc.Kind == model.KindPoint:
		return s.text.Render(text)
	case sc.Match:
		return s.match.Render(text)
	default:
		return s.miss.Render(text)
	}
}

// excerpt trims text to at most n lines.
func excerpt(text string, n int) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	if len(lines) <= n {
		return text
	}
	return strings.Join(lines[:n], "\n") + fmt.Sprintf("\n… (%d more lines)", len(lines)-n)
}

// formatTokens formats a token count with k/M suffixes.
func formatTokens(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
