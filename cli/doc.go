// Package cli contains the command line interface for calc.
//
// # Usage
//
//	calc [flags] [run] [source ...]
//	calc fmt [native|json|yaml|ast|tree] [source]
//	calc repl [source ...]
//	calc init [--force]
//
// Sources are evaluated in order in one root environment, so definitions
// from earlier files are visible to later ones. A source named "-" is
// stdin. Relative names are searched in the working directory, then in
// each --path directory, then in each directory of $CALC_PATH; the ".calc"
// extension may be omitted.
//
// # Configuration
//
// Flag defaults are read from config.json and config.yaml in the user
// configuration directory (for example ~/.config/calc). The YAML file is
// the one written by init; see [resolveYAML] for its key forms.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time: Set timestamp layout (rfc3339, kitchen, none, ...)
//   - --log-caller: Include caller information in log output
//   - --[no-]log-pretty: Colorize output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o calc .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default: ~/.cache/calc/pprof)
//
// # Examples
//
//	# Evaluate a library and a program that uses it
//	calc lib.calc main.calc
//
//	# Show every evaluation stage
//	echo 'x = 2 * 3' | calc --trace
//
//	# Reformat a program in place
//	calc fmt native -i 4 prog.calc > prog.tmp && mv prog.tmp prog.calc
package cli
