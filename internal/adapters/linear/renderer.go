// Package linear provides a synchronous, line-oriented progress renderer.
package linear

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/jsbook/internal/core/ports"
	"go.trai.ch/jsbook/internal/ui/output"
	"go.trai.ch/jsbook/internal/ui/style"
)

// Renderer implements ports.Renderer by printing one line per finished step.
// Root steps also print a line when they start. Child steps are indented under their parent.
type Renderer struct {
	w      io.Writer
	output *termenv.Output

	mu    sync.Mutex
	steps map[string]step
}

type step struct {
	name      string
	startTime time.Time
	depth     int
}

// NewRenderer creates a Renderer writing to w. A nil w selects os.Stderr.
func NewRenderer(w io.Writer) *Renderer {
	if w == nil {
		w = os.Stderr
	}
	return &Renderer{
		w:      w,
		output: output.NewWithProfile(w, output.ColorProfileANSI),
		steps:  make(map[string]step),
	}
}

// Start is a no-op for the linear renderer.
func (r *Renderer) Start(_ context.Context) error {
	return nil
}

// Stop drops any steps that never completed.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.steps)
	return nil
}

// OnStepStart records a step and announces it if it is a root step.
func (r *Renderer) OnStepStart(spanID, parentID, name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	depth := 0
	if parent, ok := r.steps[parentID]; ok {
		depth = parent.depth + 1
	}
	r.steps[spanID] = step{name: name, startTime: startTime, depth: depth}

	if depth == 0 {
		prefix := r.output.String(fmt.Sprintf("[%s]", name)).Faint().String()
		_, _ = fmt.Fprintf(r.w, "%s Starting...\n", prefix)
	}
}

// OnStepComplete prints the outcome and duration of a step.
// Successful steps are annotated with how they were served, e.g. "(cached)".
func (r *Renderer) OnStepComplete(spanID string, outcome ports.StepOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.steps[spanID]
	if !ok {
		return
	}
	delete(r.steps, spanID)

	indent := strings.Repeat("  ", s.depth)
	prefix := fmt.Sprintf("%s[%s]", indent, s.name)
	duration := outcome.EndTime.Sub(s.startTime).Round(time.Millisecond)

	if outcome.Err != nil {
		symbol := r.output.String(style.Cross).Foreground(r.output.Color(string(style.Red))).String()
		_, _ = fmt.Fprintf(r.w, "%s %s Failed after %v: %v\n", prefix, symbol, duration, outcome.Err)
		return
	}

	symbol := r.output.String(style.Check).Foreground(r.output.Color(string(style.Green))).String()
	line := fmt.Sprintf("%s %s Completed in %v", prefix, symbol, duration)
	if detail := outcome.Detail(); detail != "" {
		line += " " + r.output.String("("+detail+")").Faint().String()
	}
	_, _ = fmt.Fprintln(r.w, line)
}
