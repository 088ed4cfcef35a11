package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"llvmexec/internal/diag"
	"llvmexec/internal/pipeline"
	"llvmexec/internal/registry"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	noteColor    = color.New(color.FgCyan)
	fileColor    = color.New(color.Bold)
	okColor      = color.New(color.FgGreen)
)

func severityLabel(sev diag.Severity) string {
	switch sev {
	case diag.SevError:
		return errorColor.Sprint("error")
	case diag.SevWarning:
		return warningColor.Sprint("warning")
	default:
		return noteColor.Sprint("note")
	}
}

func formatDiagnostic(d diag.Diagnostic) string {
	msg := d.Message
	if msg == "" {
		msg = d.Code.Title()
	}
	if d.Subject == "" {
		return fmt.Sprintf("%s[%s]: %s", severityLabel(d.Severity), d.Code.ID(), msg)
	}
	return fmt.Sprintf("%s[%s] %s: %s", severityLabel(d.Severity), d.Code.ID(), d.Subject, msg)
}

func printDiagnostics(w io.Writer, items []diag.Diagnostic) {
	for _, d := range items {
		fmt.Fprintln(w, formatDiagnostic(d))
	}
}

func printFileDiagnostics(w io.Writer, file string, items []diag.Diagnostic) {
	for _, d := range items {
		fmt.Fprintf(w, "%s: %s\n", fileColor.Sprint(file), formatDiagnostic(d))
	}
}

func printSummary(w io.Writer, total, failed int, reg *registry.Registry) {
	status := okColor.Sprint("ok")
	if failed > 0 {
		status = errorColor.Sprintf("%d failed", failed)
	}
	fmt.Fprintf(w, "translated %d file(s): %s; %d function index(es) issued\n", total, status, reg.Len())
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// printTimings lists the parse, translate and emit durations of each file
// and their total.
func printTimings(w io.Writer, results []pipeline.Result) {
	stages := []pipeline.Stage{pipeline.StageParse, pipeline.StageTranslate, pipeline.StageEmit}
	fmt.Fprintln(w, "timings (ms):")
	var total time.Duration
	for _, r := range results {
		line := fmt.Sprintf("  %-32s", r.File)
		for _, s := range stages {
			if r.Timings.Has(s) {
				line += fmt.Sprintf(" %s %8.2f", s, millis(r.Timings.Duration(s)))
			}
		}
		sum := r.Timings.Sum(stages...)
		total += sum
		fmt.Fprintf(w, "%s  = %8.2f\n", line, millis(sum))
	}
	fmt.Fprintf(w, "  %-32s  = %8.2f\n", "total", millis(total))
}
