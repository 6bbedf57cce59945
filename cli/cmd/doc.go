// Package cmd implements the calc subcommands: run, fmt, repl and init.
//
// Commands receive the parsed [kong.Context] and the global [Settings]
// through their [context.Context]; see [WithContext] and [WithSettings].
package cmd

var (
	// CacheIdentifier is the kong variable holding the runtime cache
	// directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable holding the path of the YAML
	// configuration file written by init.
	ConfigIdentifier = "config"
)
