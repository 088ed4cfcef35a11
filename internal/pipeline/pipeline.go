// Package pipeline translates several IR files against one shared
// function registry.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/llir/llvm/asm"
	"github.com/llir/llvm/ir"
	"golang.org/x/sync/errgroup"

	"llvmexec/internal/diag"
	"llvmexec/internal/exec"
	"llvmexec/internal/trace"
	"llvmexec/internal/translate"
)

// ParseFunc reads one IR file.
type ParseFunc func(path string) (*ir.Module, error)

// EmitFunc receives every program that translated successfully.
type EmitFunc func(file string, p *exec.Program) error

// Request configures one run.
type Request struct {
	Files []string
	// Context is shared by all files; each file gets its own diagnostics.
	Context *translate.Context
	// Jobs bounds the files in flight; 0 means GOMAXPROCS.
	Jobs int
	// KeepGoing translates every file even after a failure.
	KeepGoing      bool
	MaxDiagnostics int
	Progress       ProgressSink
	Parse          ParseFunc
	Emit           EmitFunc
}

// Result is the outcome for one file.
type Result struct {
	File    string
	Program *exec.Program
	Diags   *diag.Bag
	Err     error
	Timings Timings
}

// Translate runs every file of req. Results come back in input order. The
// returned error is the first failure, or with KeepGoing every failure
// joined.
func Translate(ctx context.Context, req *Request) ([]Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return nil, fmt.Errorf("missing pipeline request")
	}
	if req.Context == nil {
		return nil, fmt.Errorf("missing translation context")
	}
	parse := req.Parse
	if parse == nil {
		parse = asm.ParseFile
	}
	results := make([]Result, len(req.Files))
	if len(req.Files) == 0 {
		return results, nil
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "pipeline", trace.CurrentSpan(ctx))
	ctx = trace.WithSpan(ctx, span)

	emitQueued(req.Progress, req.Files)

	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(req.Files)))

	for i, file := range req.Files {
		g.Go(func() error {
			// results[i] is owned by this goroutine
			res := &results[i]
			res.File = file
			res.Diags = diag.NewBag(req.MaxDiagnostics)
			select {
			case <-gctx.Done():
				res.Err = gctx.Err()
				return res.Err
			default:
			}
			res.Err = runFile(gctx, req, parse, res)
			if res.Err != nil && !req.KeepGoing {
				return res.Err
			}
			return nil
		})
	}
	err := g.Wait()
	if req.KeepGoing {
		var errs []error
		for _, r := range results {
			if r.Err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", r.File, r.Err))
			}
		}
		err = errors.Join(errs...)
	}
	if err != nil {
		span.End("error")
	} else {
		span.End("")
	}
	emit(req.Progress, Event{Stage: StageEmit, Status: doneStatus(err)})
	return results, err
}

func doneStatus(err error) Status {
	if err != nil {
		return StatusError
	}
	return StatusDone
}

func runFile(ctx context.Context, req *Request, parse ParseFunc, res *Result) error {
	file := res.File
	span := trace.Begin(trace.FromContext(ctx), trace.ScopeDriver, "file:"+file, trace.CurrentSpan(ctx))
	ctx = trace.WithSpan(ctx, span)

	stage := func(s Stage, fn func() error) error {
		emit(req.Progress, Event{File: file, Stage: s, Status: StatusWorking})
		start := time.Now()
		err := fn()
		elapsed := time.Since(start)
		res.Timings.Set(s, elapsed)
		if err != nil {
			emit(req.Progress, Event{File: file, Stage: s, Status: StatusError, Err: err, Elapsed: elapsed})
		}
		return err
	}

	var m *ir.Module
	err := stage(StageParse, func() (err error) {
		m, err = parse(file)
		return err
	})
	if err == nil {
		err = stage(StageTranslate, func() (err error) {
			c := *req.Context
			c.Diags = diag.BagReporter{Bag: res.Diags}
			res.Program, err = c.Translate(ctx, m)
			return err
		})
	}
	if err == nil && req.Emit != nil {
		err = stage(StageEmit, func() error {
			return req.Emit(file, res.Program)
		})
	}
	if err != nil {
		span.End("error")
		return err
	}
	span.End("")
	emit(req.Progress, Event{File: file, Stage: StageEmit, Status: StatusDone, Elapsed: res.Timings.Sum(StageParse, StageTranslate, StageEmit)})
	return nil
}
