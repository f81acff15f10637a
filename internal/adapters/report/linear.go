// Package report presents verdicts and build progress to the user.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/fresh/internal/core/domain"
	"go.trai.ch/fresh/internal/ui/output"
	"go.trai.ch/fresh/internal/ui/style"
)

// Linear implements ports.Renderer with chronological, unit-prefixed lines.
// Build output goes to stdout, status lines to stderr.
type Linear struct {
	stdout    io.Writer
	stderr    io.Writer
	output    *termenv.Output
	checkOnly bool

	mu      sync.Mutex
	fresh   map[string]bool
	buffers map[string]*bytes.Buffer
	counts  summary
}

type summary struct {
	fresh, dirty, built, failed, skipped int
}

// NewLinear creates a Linear renderer. In check-only mode a dirty unit is
// final and is not expected to be built.
func NewLinear(stdout, stderr io.Writer, checkOnly bool) *Linear {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	return &Linear{
		stdout:    stdout,
		stderr:    stderr,
		output:    output.New(stderr),
		checkOnly: checkOnly,
		fresh:     make(map[string]bool),
		buffers:   make(map[string]*bytes.Buffer),
	}
}

// OnPlan prints the number of planned units.
func (r *Linear) OnPlan(units []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.stderr, "Checking %d unit(s)\n", len(units))
}

// OnVerdict prints the verdict of a unit.
func (r *Linear) OnVerdict(unit string, v domain.Verdict) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.fresh[unit] = v.Fresh
	prefix := r.output.String(fmt.Sprintf("[%s]", unit)).Faint().String()
	if v.Fresh {
		symbol := r.output.String(style.Check).Foreground(termenv.ANSIGreen).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s Fresh\n", prefix, symbol)
		return
	}

	r.counts.dirty++
	symbol := r.output.String(style.Tilde).Foreground(termenv.ANSIYellow).String()
	_, _ = fmt.Fprintf(r.stderr, "%s %s Dirty: %s\n", prefix, symbol, v.Reason)
}

// OnUnitLog buffers output and prints complete lines with the unit prefix.
func (r *Linear) OnUnitLog(unit string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	buf, ok := r.buffers[unit]
	if !ok {
		buf = new(bytes.Buffer)
		r.buffers[unit] = buf
	}
	buf.Write(data)

	for {
		i := bytes.IndexByte(buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		r.printLineLocked(unit, buf.Next(i+1))
	}
}

// OnUnitComplete prints the outcome of a unit's build.
func (r *Linear) OnUnitComplete(unit string, elapsed time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.flushBufferLocked(unit)
	prefix := fmt.Sprintf("[%s]", unit)
	fresh := r.fresh[unit]

	switch {
	case errors.Is(err, domain.ErrDependencyFailed):
		r.counts.skipped++
		_, _ = fmt.Fprintf(r.stderr, "%s %s Skipped: %v\n", prefix, style.Dot, err)
	case err != nil:
		r.counts.failed++
		symbol := r.output.String(style.Cross).Foreground(termenv.ANSIRed).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s Failed after %v: %v\n", prefix, symbol, elapsed.Round(time.Millisecond), err)
	case fresh:
		r.counts.fresh++
	case !r.checkOnly:
		r.counts.built++
		symbol := r.output.String(style.Check).Foreground(termenv.ANSIGreen).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s Built in %v\n", prefix, symbol, elapsed.Round(time.Millisecond))
	}
}

// Flush prints any partial output lines and the run summary.
func (r *Linear) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for unit := range r.buffers {
		r.flushBufferLocked(unit)
	}

	line := fmt.Sprintf("%s fresh, %s dirty",
		style.Fresh.Render(fmt.Sprint(r.counts.fresh)),
		style.Dirty.Render(fmt.Sprint(r.counts.dirty)))
	if !r.checkOnly {
		line += fmt.Sprintf(", %d built", r.counts.built)
	}
	if r.counts.failed > 0 {
		line += ", " + style.Failed.Render(fmt.Sprintf("%d failed", r.counts.failed))
	}
	if r.counts.skipped > 0 {
		line += fmt.Sprintf(", %d skipped", r.counts.skipped)
	}
	_, err := fmt.Fprintln(r.stderr, line)
	return err
}

// flushBufferLocked must be called with r.mu held.
func (r *Linear) flushBufferLocked(unit string) {
	buf, ok := r.buffers[unit]
	if !ok {
		return
	}
	if buf.Len() > 0 {
		r.printLineLocked(unit, buf.Bytes())
	}
	delete(r.buffers, unit)
}

// printLineLocked must be called with r.mu held.
func (r *Linear) printLineLocked(unit string, line []byte) {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) == 0 {
		return
	}
	_, _ = fmt.Fprintf(r.stdout, "[%s] %s\n", unit, line)
}
