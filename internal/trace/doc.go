// Package trace records spans for the phases of a translation run.
//
// A tracer travels in the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeFunction, "@main", parent)
//	defer span.End("")
//
// Scopes order from coarse to fine: driver, module, function, pass. The
// level decides how deep events are kept: phase keeps driver and module
// spans, detail adds functions, debug keeps everything.
package trace
