package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/ardnew/calc/cli/cmd"
	"github.com/ardnew/calc/log"
	"github.com/ardnew/calc/pkg"
)

// baseConfig is the base name of the configuration files, without
// extension.
const baseConfig = "config"

// CLI is the top-level command-line interface for calc.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Path     []string `help:"Prepend directory to the source search path, ahead of CALC_PATH." placeholder:"DIR" short:"I" type:"path"`
	Trace    bool     `env:"CALC_TRACE"                                                         help:"Write every evaluation stage to stderr."`
	MaxDepth int      `default:"0"                                                              help:"Limit nested function calls; 0 is unlimited."`

	Version kong.VersionFlag `help:"Print version and exit." short:"V"`

	Run  cmd.Run  `cmd:"" default:"withargs" help:"Evaluate source files (default)."`
	Fmt  cmd.Fmt  `cmd:""                    help:"Format a program."`
	Repl cmd.Repl `cmd:""                    help:"Start an interactive session."`
	Init cmd.Init `cmd:""                    help:"Initialize configuration file."`
}

// Run executes the calc CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	if err := pkg.MkdirAll(); err != nil {
		return err
	}

	configFilePath := pkg.ConfigPath(baseConfig + ".yaml")

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  pkg.CacheDir(),
		"version":            pkg.Name + " " + pkg.Version(),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Configure the logger before kong reports any parse error.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, pkg.ConfigPath(baseConfig+".json")),
		kong.Configuration(resolveYAML, configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cli.Log.start(ctx)

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithSettings(ctx, cmd.Settings{
		Path:     cli.Path,
		Trace:    cli.Trace,
		MaxDepth: cli.MaxDepth,
		Logger:   log.Default(),
	})

	return ktx.Run(ctx, &cli)
}
