// Package profile starts optional runtime profiling of calc.
//
// Profiling is compiled in only with the "pprof" build tag:
//
//	go build -tags pprof .
//	calc --pprof-mode cpu --pprof-dir ./prof run fib.calc
//	go tool pprof -http=: ./prof/cpu.pprof
//
// Without the tag, [Profiler.Start] returns a no-op and [Modes] is empty.
// The tagged build also registers the [net/http/pprof] handlers.
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
