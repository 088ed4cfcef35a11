package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"llvmexec/internal/trace"
)

// setupTracing reads the trace flags and attaches a tracer to the command
// context. The cleanup function takes the command's final error so a ring
// buffer can be dumped when the command failed.
func setupTracing(cmd *cobra.Command) (func(error), error) {
	pf := cmd.Root().PersistentFlags()

	traceOutput, err := pf.GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := pf.GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := pf.GetString("trace-mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	formatStr, err := pf.GetString("trace-format")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-format flag: %w", err)
	}
	ringSize, err := pf.GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, err
	}
	// --trace alone means phase-level tracing
	if level == trace.LevelOff && traceOutput != "" && !pf.Changed("trace-level") {
		level = trace.LevelPhase
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func(error) {}, nil
	}
	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, err
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return nil, err
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: traceOutput,
		RingSize:   ringSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	cleanup := func(runErr error) {
		if runErr != nil {
			dumpRing(cmd, tracer, format)
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return cleanup, nil
}

func dumpRing(cmd *cobra.Command, tracer trace.Tracer, format trace.Format) {
	var ring *trace.RingTracer
	switch t := tracer.(type) {
	case *trace.RingTracer:
		ring = t
	case *trace.MultiTracer:
		ring = t.Ring()
	}
	if ring == nil {
		return
	}
	if format == trace.FormatAuto {
		format = trace.FormatText
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "trace: last events before the failure")
	if err := ring.Dump(os.Stderr, format); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
	}
}
