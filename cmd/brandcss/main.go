package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"brandcss/cache"
	"brandcss/common"
	"brandcss/config"
	"brandcss/enhance"
	"brandcss/misc"
	"brandcss/state"
	"brandcss/tokens"
	treew "brandcss/utils/debug"
)

// initializeAppContext prepares application context before command execution but
// after command line has been parsed
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error

	if cmd.NArg() == 0 {
		// nothing to do, just return
		return ctx, nil
	}

	env := state.EnvFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		if env.Rpt, err = env.Cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug reporter: %w", err)
		}
		// save complete processed configuration if external configuration was provided
		if len(configFile) > 0 {
			// we do not want any of your secrets!
			if data, err := config.Dump(env.Cfg); err == nil {
				env.Rpt.StoreData(fmt.Sprintf("config/%s", filepath.Base(configFile)), data)
			}
		}
	}
	if env.Log, err = env.Cfg.Logging.Prepare(env.Rpt); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.RedirectStdLog()

	env.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("ver", misc.GetVersion()), zap.String("runtime", runtime.Version()), zap.String("hash", misc.GetGitHash()))

	if env.Rpt != nil {
		env.Log.Info("Creating debug report", zap.String("location", env.Rpt.Name()))
	}
	if len(configFile) == 0 && env.Log != nil {
		env.Log.Info("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	}

	// close logging
	env.RestoreStdLog()

	// log is synced now and result can be used in report if necessary, errors
	// must be reported directly to stderr from now on
	if env.Rpt != nil {
		if er := env.Rpt.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", er))
		}
	}
	// reporting is closed now - remove empty panic file if any
	if env.Cfg != nil && len(env.Cfg.Logging.FileLogger.Destination) > 0 {
		debug.SetCrashOutput(nil, debug.CrashOptions{})
		fname := filepath.Join(filepath.Dir(env.Cfg.Logging.FileLogger.Destination), misc.GetAppName()+"-panic.log")
		if fi, er := os.Stat(fname); er == nil && fi.Size() == 0 {
			if er := os.Remove(fname); er != nil {
				err = multierr.Append(err, fmt.Errorf("unable to remove empty panic log file '%s': %w", fname, er))
			}
		}
	}
	return
}

// Ignore urfave/cli default error handling - for me cli.Exit() looks
// non-transparent and unnesessary. I will return regular errors from
// subcommands.
var errWasHandled bool

// this is called before appContext is destroyed, so we have a chance to
// properly log any error from subcommand
func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {

	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	// do nothing special, error is reported either by exitErrHandler or on
	// exit directly to stderr.
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	state.EnvFromContext(ctx).Log.Warn("Unknown command, nothing to do", zap.String("command", name))
}

func main() {

	// allow graceful shutdown on interrupt.
	// NOTE: normally in cli tool this is not necessary, but just in case we
	// may decide to do some heavy async processing later let's follow the
	// rules
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "brand design token enhancement engine for stylesheets and markup",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "changes program behavior to help troubleshooting, produces report archive"},
		},
		Commands: []*cli.Command{
			{
				Name:         "enhance",
				Usage:        "Rewrites literal style values into brand token references",
				OnUsageError: usageErrorHandler,
				Action:       enhance.Run,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "max-changes",
						Usage: "cap automatically applied changes per file to `N`, 0 disables the cap"},
					&cli.BoolFlag{Name: "optimize", Usage: "run stylesheet optimization passes after substitution"},
					&cli.BoolFlag{Name: "no-cache", Usage: "do not cache enhancement results for this run"},
					&cli.StringFlag{Name: "pack", Usage: "brand token pack `FILE`, skips upward discovery"},
					&cli.BoolFlag{Name: "nodirs", Aliases: []string{"nd"}, Usage: "when producing output do not keep input directory structure"},
					&cli.BoolFlag{Name: "overwrite", Aliases: []string{"ow"}, Usage: "continue even if destination exits, overwrite files"},
					&cli.StringFlag{Name: "force-zip-cp",
						Usage: "Force `ENCODING` for ALL non UTF-8 file names in processed archives (see IANA.org for character set names)"},
				},
				ArgsUsage: "SOURCE [DESTINATION]",
				CustomHelpTemplate: fmt.Sprintf(`%s
SOURCE:
    path to file(s) to process, following formats are supported:
        path to a file: "[path_to_file]site.css"
        path to a directory: "[path_to_directory]directory" - recursively process all stylesheet and markup files under directory (symbolic links are not followed)
        path to archive with path inside archive to a particular file: "[path_to_archive]archive.zip[path_in_archive]/site.css"
        path to archive with path inside archive: "[path_to_archive]archive.zip[path_in_archive]" - recursively process all stylesheet and markup files under archive path

	When working on archive recursively entries which are not stylesheets
	or markup keep their exact bytes, processing of archives inside
	archives is not supported.

DESTINATION:
    always a path, output file name(s) and extension will be derived from other parameters
    if absent - current working directory
`, cli.CommandHelpTemplate),
			},
			{
				Name:  "tokens",
				Usage: "Brand token pack operations",
				Commands: []*cli.Command{
					{
						Name:         "dump",
						Usage:        "Resolves a brand pack and prints the flattened token table",
						OnUsageError: usageErrorHandler,
						Action:       dumpTokens,
						ArgsUsage:    "[PACK]",
						CustomHelpTemplate: fmt.Sprintf(`%s
PACK:
    path to a brand pack file, if absent - the pack is discovered the same
    way the enhance command does it, starting from the current directory
`, cli.CommandHelpTemplate),
					},
				},
			},
			{
				Name:  "cache",
				Usage: "Result cache operations (sqlite backend)",
				Commands: []*cli.Command{
					{
						Name:         "stats",
						Usage:        "Prints result cache statistics",
						OnUsageError: usageErrorHandler,
						Action:       cacheStats,
					},
					{
						Name:         "purge",
						Usage:        "Removes cached results",
						OnUsageError: usageErrorHandler,
						Action:       cachePurge,
						Flags: []cli.Flag{
							&cli.BoolFlag{Name: "stale", Usage: "only remove results produced by other engine versions"},
						},
					},
				},
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "DESTINATION",
				CustomHelpTemplate: fmt.Sprintf(`%s

DESTINATION:
    file name to write configuration to, if absent - STDOUT

Produces file with actual "active" configuration values wich is composition of
default values and values specified in configuration file. To see default
configuration embedded into the program use --default flag.
`, cli.CommandHelpTemplate),
			},
		},
	}

	var err error
	// NOTE: os.Exit is called at the end of main to set exit code, make sure
	// there are no other deffered functions after that
	defer func() {
		stop()
		if err != nil {
			// It may happen that log is either not set yet (argument parsing) or already closed,
			// report errors to stderr directly
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {

	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	fname := cmd.Args().Get(0)

	var (
		err   error
		data  []byte
		state string
	)

	out := os.Stdout
	if len(fname) > 0 {
		out, err = os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer out.Close()

	}

	if cmd.Bool("default") {
		state = "default"
		data, err = config.Prepare()
	} else {
		state = "actual"
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	if len(fname) == 0 {
		fname = "STDOUT"
	}
	env.Log.Info("Outputing configuration", zap.String("state", state), zap.String("file", fname))

	_, err = out.Write(data)
	if err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}

func dumpTokens(ctx context.Context, cmd *cli.Command) error {

	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many sources", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	pack, start := cmd.Args().Get(0), ""
	if len(pack) == 0 {
		var err error
		pack = env.Cfg.Tokens.Pack
		if start, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}

	resolver := tokens.NewFileResolver(pack, start, env.Cfg.Enhance.RootFontSize, env.Log)
	resolver.Names = env.Cfg.Tokens.Search

	table, err := resolver.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("unable to resolve brand tokens: %w", err)
	}

	tw := treew.NewTreeWriter()
	tw.Line(0, "brand: %s", table.Brand)
	if len(table.Version) > 0 {
		tw.Line(0, "version: %s", table.Version)
	}
	tw.Line(0, "root font size: %gpx", table.RootPx)
	tw.Line(0, "tokens: %d", len(table.Tokens))

	categories := []common.TokenCategory{
		common.TokenCategoryColor,
		common.TokenCategorySpacing,
		common.TokenCategoryRadius,
		common.TokenCategoryElevation,
	}
	for _, cat := range categories {
		header := false
		for _, tok := range table.Tokens {
			if tok.Category != cat {
				continue
			}
			if !header {
				tw.Line(0, "%s:", cat)
				header = true
			}
			tw.TextBlock(1, tok.Var, tok.Value)
		}
	}

	_, err = os.Stdout.WriteString(tw.String())
	return err
}

// openResultCache gives cache subcommands access to the persistent backend.
func openResultCache(ctx context.Context, env *state.LocalEnv) (*cache.SQLite, string, error) {
	if env.Cfg.Cache.BackendKind() != config.CacheBackendSqlite {
		return nil, "", errors.New("cache commands require the sqlite backend")
	}
	dest := env.Cfg.Cache.Destination
	if len(dest) == 0 {
		return nil, "", errors.New("sqlite cache backend requires cache.destination to be configured")
	}
	store, err := cache.NewSQLite(ctx, dest, env.Log)
	if err != nil {
		return nil, "", fmt.Errorf("unable to open result cache (%s): %w", dest, err)
	}
	return store, dest, nil
}

func cacheStats(ctx context.Context, _ *cli.Command) error {

	env := state.EnvFromContext(ctx)
	store, dest, err := openResultCache(ctx, env)
	if err != nil {
		return err
	}
	defer store.Close()

	st, err := store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("unable to read cache statistics: %w", err)
	}
	fmt.Printf("%s: %d entries\n", dest, st.Entries)
	return nil
}

func cachePurge(ctx context.Context, cmd *cli.Command) error {

	env := state.EnvFromContext(ctx)
	store, dest, err := openResultCache(ctx, env)
	if err != nil {
		return err
	}
	defer store.Close()

	var removed int64
	if cmd.Bool("stale") {
		removed, err = store.Invalidate(ctx, misc.GetEngineVersion(), "")
	} else {
		removed, err = store.Purge(ctx)
	}
	if err != nil {
		return fmt.Errorf("unable to purge result cache: %w", err)
	}
	env.Log.Info("Cache purged", zap.String("cache", dest), zap.Int64("removed", removed))
	return nil
}
