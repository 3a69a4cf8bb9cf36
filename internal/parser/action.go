package parser

import (
	"io"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/timvw/vlm-bench/internal/model"
)

// ActionMarker starts the line a GUI agent states its action on.
const ActionMarker = "Action:"

// clickPattern matches click(start_box='(230,131)') and any other keyword
// name, capturing x and y. Only this exact quoting is recognized.
var clickPattern = regexp.MustCompile(`click\(.*?='\((\d+),(\d+)\)'\)`)

// ActionParser reads the click target from agent output of the form
//
//	Thought: ...
//	Action: click(start_box='(x,y)')
//
// Narrative before the action line is ignored.
type ActionParser struct {
	// Log receives a diagnostic when no click is found. Nil discards it.
	Log *log.Logger
}

// Kind returns model.KindPoint.
func (p *ActionParser) Kind() model.Kind { return model.KindPoint }

// Parse implements ResponseParser.
func (p *ActionParser) Parse(text string) model.Answer {
	return p.ParsePoint(text)
}

// ParsePoint returns the click of the first "Action:" line, or
// model.NoPoint() if there is no such line or that line holds no click.
func (p *ActionParser) ParsePoint(text string) model.Point {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, ActionMarker) {
			continue
		}
		m := clickPattern.FindStringSubmatch(line)
		if m == nil {
			p.logf("action: no click directive in %q", line)
			return model.NoPoint()
		}
		x, errX := strconv.Atoi(m[1])
		y, errY := strconv.Atoi(m[2])
		if errX != nil || errY != nil {
			p.logf("action: click coordinates out of range in %q", line)
			return model.NoPoint()
		}
		return model.NewPoint(x, y)
	}
	p.logf("action: no %s line in response", ActionMarker)
	return model.NoPoint()
}

func (p *ActionParser) logf(format string, args ...any) {
	logger := p.Log
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	logger.Printf(format, args...)
}
