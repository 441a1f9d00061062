// Package ui prints the human-readable diagnostics every command emits.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"
)

// Reporter writes diagnostics. Errors go to Err, everything else to Out.
type Reporter struct {
	Out io.Writer
	Err io.Writer

	tty bool

	bold    *color.Color
	header  *color.Color
	section *color.Color
	success *color.Color
	failure *color.Color
	warning *color.Color
	info    *color.Color
	step    *color.Color
}

// Options configures a Reporter.
type Options struct {
	Out     io.Writer // defaults to os.Stdout
	Err     io.Writer // defaults to os.Stderr
	NoColor bool
}

// New returns a Reporter. Colors are used only when Out is a terminal and
// NoColor is unset.
func New(opts Options) *Reporter {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	r := &Reporter{
		Out:     opts.Out,
		Err:     opts.Err,
		tty:     isTerminal(opts.Out),
		bold:    color.New(color.Bold),
		header:  color.New(color.Bold, color.FgCyan),
		section: color.New(color.Bold, color.FgBlue),
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed),
		warning: color.New(color.FgYellow),
		info:    color.New(color.FgHiBlack),
		step:    color.New(color.FgCyan),
	}
	if opts.NoColor || !r.tty {
		for _, c := range []*color.Color{r.bold, r.header, r.section, r.success, r.failure, r.warning, r.info, r.step} {
			c.DisableColor()
		}
	} else {
		for _, c := range []*color.Color{r.bold, r.header, r.section, r.success, r.failure, r.warning, r.info, r.step} {
			c.EnableColor()
		}
		enableVirtualTerminal(opts.Out)
	}
	return r
}

// Discard returns a Reporter that prints nothing.
func Discard() *Reporter {
	return New(Options{Out: io.Discard, Err: io.Discard, NoColor: true})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

const rule = 60

// Header prints a title framed by rules.
func (r *Reporter) Header(format string, args ...any) {
	line := strings.Repeat("=", rule)
	r.header.Fprintln(r.Out, "\n"+line)
	r.header.Fprintln(r.Out, fmt.Sprintf(format, args...))
	r.header.Fprintln(r.Out, line+"\n")
}

// Section starts a group of related checks or steps.
func (r *Reporter) Section(format string, args ...any) {
	r.section.Fprintln(r.Out, "\n>> "+fmt.Sprintf(format, args...))
}

func (r *Reporter) Success(format string, args ...any) {
	r.success.Fprintln(r.Out, "[OK] "+fmt.Sprintf(format, args...))
}

func (r *Reporter) Error(format string, args ...any) {
	r.failure.Fprintln(r.Err, "[ERROR] "+fmt.Sprintf(format, args...))
}

func (r *Reporter) Warning(format string, args ...any) {
	r.warning.Fprintln(r.Out, "[WARN] "+fmt.Sprintf(format, args...))
}

// Info prints a detail or a remediation hint.
func (r *Reporter) Info(format string, args ...any) {
	r.info.Fprintln(r.Out, "  "+fmt.Sprintf(format, args...))
}

// Step announces an action about to run.
func (r *Reporter) Step(format string, args ...any) {
	r.step.Fprintln(r.Out, "> "+fmt.Sprintf(format, args...))
}

// Bold renders s emphasized.
func (r *Reporter) Bold(s string) string {
	return r.bold.Sprint(s)
}

// Table prints rows under header as an aligned table.
func (r *Reporter) Table(header []string, rows [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(r.Out)
	hr := make(table.Row, len(header))
	for i, h := range header {
		hr[i] = h
	}
	t.AppendHeader(hr)
	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, v := range row {
			tr[i] = v
		}
		t.AppendRow(tr)
	}
	if r.tty {
		t.SetStyle(table.StyleRounded)
	} else {
		t.SetStyle(table.StyleLight)
	}
	t.Render()
}

// Spin shows a spinner with msg while a long step runs and returns the
// function that stops it. Without a terminal it only prints the step.
func (r *Reporter) Spin(msg string) (stop func()) {
	if !r.tty {
		r.Step("%s", msg)
		return func() {}
	}
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(r.Out))
	s.Suffix = " " + msg
	s.Color("cyan") //nolint:errcheck
	s.Start()
	return s.Stop
}
