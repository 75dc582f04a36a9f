// Package report prints embedding runs for people: one line per
// evaluation with its timing and the leading vector components.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"llamaembed/metrics"

	"github.com/fatih/color"
)

// Run is the outcome of a single evaluation of one input.
type Run struct {
	Source     string
	Repetition int // 1-based
	Elapsed    time.Duration
	Tokens     int
	Values     []float32 // the full vector; Printer truncates
	Cached     bool
}

// Summary totals a whole invocation.
type Summary struct {
	Files    int
	Runs     int
	Cached   int
	Failed   int
	Duration time.Duration
}

// Options configure a Printer.
type Options struct {
	// Preview is the number of vector components shown per line.
	Preview int
	// NoColor forces plain output; otherwise color follows the terminal.
	NoColor bool
}

// Printer writes run lines to an io.Writer. It is safe for use by one
// goroutine; callers serialize concurrent workers.
type Printer struct {
	out     io.Writer
	preview int

	name   *color.Color
	timing *color.Color
	values *color.Color
	dim    *color.Color
	ok     *color.Color
	fail   *color.Color
}

// NewPrinter creates a Printer writing to out.
func NewPrinter(out io.Writer, opts Options) *Printer {
	p := &Printer{
		out:     out,
		preview: opts.Preview,
		name:    color.New(color.FgCyan),
		timing:  color.New(color.FgYellow),
		values:  color.New(color.FgWhite),
		dim:     color.New(color.FgHiBlack),
		ok:      color.New(color.FgGreen, color.Bold),
		fail:    color.New(color.FgRed, color.Bold),
	}
	if opts.NoColor {
		for _, c := range []*color.Color{p.name, p.timing, p.values, p.dim, p.ok, p.fail} {
			c.DisableColor()
		}
	}
	return p
}

// Run prints one evaluation:
//
//	"hello.txt": time: 12.5ms, [0.0123, -0.4, 1.5, 0, 2]
func (p *Printer) Run(r Run) {
	p.name.Fprintf(p.out, "%q", r.Source)
	fmt.Fprint(p.out, ": time: ")
	p.timing.Fprint(p.out, r.Elapsed)
	fmt.Fprint(p.out, ", ")
	p.values.Fprint(p.out, FormatValues(r.Values, p.preview))
	if r.Cached {
		p.dim.Fprint(p.out, " (cached)")
	}
	fmt.Fprintln(p.out)
}

// Error prints a failure for source.
func (p *Printer) Error(source string, err error) {
	p.name.Fprintf(p.out, "%q", source)
	fmt.Fprint(p.out, ": ")
	p.fail.Fprintln(p.out, err.Error())
}

// Summary prints the closing totals line.
func (p *Printer) Summary(s Summary) {
	clr, label := p.ok, "done"
	if s.Failed > 0 {
		clr, label = p.fail, "failed"
	}
	clr.Fprintf(p.out, "━━━ %s ", label)
	p.dim.Fprintf(p.out, "(%d files, %d runs, %d cached, %d failed in %v)",
		s.Files, s.Runs, s.Cached, s.Failed, s.Duration.Round(time.Millisecond))
	clr.Fprintln(p.out, " ━━━")
}

// Timings prints one min/mean/max line per source. Sources without a
// successful run are skipped.
//
//	"hello.txt": 10 runs, min 11ms, mean 12.5ms, max 19ms, 412 tokens
func (p *Printer) Timings(stats []metrics.SourceStats) {
	for _, s := range stats {
		if s.Runs == 0 {
			continue
		}
		p.name.Fprintf(p.out, "%q", s.Source)
		fmt.Fprintf(p.out, ": %d runs, min ", s.Runs)
		p.timing.Fprint(p.out, s.Min)
		fmt.Fprint(p.out, ", mean ")
		p.timing.Fprint(p.out, s.Mean)
		fmt.Fprint(p.out, ", max ")
		p.timing.Fprint(p.out, s.Max)
		fmt.Fprintf(p.out, ", %d tokens\n", s.Tokens)
	}
}

// FormatValues renders the first n components of v as a bracketed list.
// n larger than len(v) shows all of v; n <= 0 shows none.
func FormatValues(v []float32, n int) string {
	if n > len(v) {
		n = len(v)
	}
	if n < 0 {
		n = 0
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = strconv.FormatFloat(float64(v[i]), 'g', -1, 32)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
