// Package trace records what the compiler is doing while it runs.
//
// Events are spans (begin/end pairs) and instant points. Each carries a
// scope that says how fine grained it is:
//
//   - ScopeDriver: one compile or check invocation
//   - ScopePass: unit loading, emission, assembly
//   - ScopeFunction: one function body
//   - ScopeRegion: one try/finally or using region
//
// The level picks which scopes are recorded: phase keeps driver and pass,
// detail adds functions, debug adds regions.
//
// Tracers travel through the pipeline in a context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "emit", 0)
//	defer span.End("")
package trace
