package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"text/tabwriter"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"bidic/bidi"
	"bidic/common"
	"bidic/config"
	"bidic/generate"
	"bidic/misc"
	"bidic/state"
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
	if cmd.Bool("verbose") {
		env.Cfg.Logging.ConsoleLogger.Level = "debug"
	}
	if cmd.Bool("debug") {
		if env.Rpt, err = env.Cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug reporter: %w", err)
		}
		env.Rpt.StoreData("runid", []byte(env.RunID))
		// save complete processed configuration if external configuration was provided
		if len(configFile) > 0 {
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

func newApp() *cli.Command {
	return &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "bidirectional (LTR/RTL) stylesheet generator",
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
			&cli.BoolFlag{Name: "verbose", Usage: "maximum console output, overrides configured console logging level"},
		},
		Commands: []*cli.Command{
			{
				Name:         "generate",
				Usage:        "Produces direction-concrete stylesheet(s) from token-parameterized source(s)",
				OnUsageError: usageErrorHandler,
				Action:       generate.Run,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "direction", Aliases: []string{"dir"},
						Usage: "produce only specified `DIRECTION` (supported directions: " + strings.Join(common.DirectionNames(), ", ") + "), may be repeated"},
					&cli.BoolFlag{Name: "nodirs", Aliases: []string{"nd"}, Usage: "when producing output do not keep input directory structure"},
					&cli.BoolFlag{Name: "overwrite", Aliases: []string{"ow"}, Usage: "continue even if destination exits, overwrite files"},
					&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "regenerate everything ignoring recorded up to date outputs"},
					&cli.BoolFlag{Name: "assets", Aliases: []string{"a"}, Usage: "copy url() referenced local files next to outputs, mirroring directional counterparts"},
					&cli.StringFlag{Name: "source-encoding",
						Usage: "Force `ENCODING` for ALL processed sources (see IANA.org for character set names)"},
				},
				ArgsUsage: "SOURCE [DESTINATION]",
				CustomHelpTemplate: fmt.Sprintf(`%s
SOURCE:
    path to stylesheet source(s) to process, following formats are supported:
        path to a file: "[path_to_file]app.scss"
        path to a directory: "[path_to_directory]directory" - recursively process all css/scss files under directory (symbolic links are not followed)
        path to archive with path inside archive to a particular source: "[path_to_archive]archive.zip[path_in_archive]/app.scss"
        path to archive with path inside archive: "[path_to_archive]archive.zip[path_in_archive]" - recursively process all css/scss files under archive path

	When working on archive recursively only css/scss files will be considered,
	processing of archives inside archives is not supported.

DESTINATION:
    always a path, output file name(s) and extension will be derived from other parameters
    if absent - current working directory
`, cli.CommandHelpTemplate),
			},
			{
				Name:         "resolve",
				Usage:        "Prints direction profile bindings and logical keyword resolutions",
				OnUsageError: usageErrorHandler,
				Action:       resolveProfiles,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "direction", Aliases: []string{"dir"},
						Usage: "resolve only specified `DIRECTION` (supported directions: " + strings.Join(common.DirectionNames(), ", ") + "), may be repeated"},
				},
				ArgsUsage: "[KEYWORD...]",
				CustomHelpTemplate: fmt.Sprintf(`%s
KEYWORD:
    optional logical float/text-align keyword(s) to resolve against each
    profile, "left" and "right" map through the directional bindings, any
    other value is a literal and passes through unchanged
`, cli.CommandHelpTemplate),
			},
			{
				Name:         "example",
				Usage:        "Writes out a starter source demonstrating every directional token",
				OnUsageError: usageErrorHandler,
				Action:       writeExample,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "overwrite", Aliases: []string{"ow"}, Usage: "continue even if destination exits, overwrite file"},
				},
				ArgsUsage: "DESTINATION",
				CustomHelpTemplate: fmt.Sprintf(`%s
DESTINATION:
    file name to write the example source to, if absent - "app.scss" in the
    current working directory
`, cli.CommandHelpTemplate),
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
}

func main() {

	// allow graceful shutdown on interrupt.
	// NOTE: normally in cli tool this is not necessary, but just in case we
	// may decide to do some heavy async processing later let's follow the
	// rules
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	app := newApp()

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

func resolveProfiles(ctx context.Context, cmd *cli.Command) error {

	env := state.EnvFromContext(ctx)

	directions, err := common.NormalizeDirections(cmd.StringSlice("direction"))
	if err != nil {
		return err
	}
	if len(directions) == 0 {
		directions = []common.Direction{common.DirectionLtr, common.DirectionRtl}
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	defer w.Flush()

	for _, d := range directions {
		p, err := bidi.ResolveProfile(d)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "[%s]\n", d)
		fmt.Fprintf(w, "\t%s:\t%s\n", bidi.TokenDefaultFloat, p.DefaultFloat)
		fmt.Fprintf(w, "\t%s:\t%s\n", bidi.TokenOppositeFloat, p.OppositeFloat)
		fmt.Fprintf(w, "\t%s:\t%s\n", bidi.TokenDefaultDirection, p.DefaultDirection)
		fmt.Fprintf(w, "\t%s:\t%s\n", bidi.TokenOppositeDirection, p.OppositeDirection)
		for _, kw := range cmd.Args().Slice() {
			fmt.Fprintf(w, "\tfloat(%s):\t%s\n", kw, p.Float(kw))
			fmt.Fprintf(w, "\ttext-align(%s):\t%s\n", kw, p.TextAlign(kw))
		}
	}

	env.Log.Debug("Profiles resolved", zap.Stringers("directions", directions))
	return nil
}

func writeExample(ctx context.Context, cmd *cli.Command) error {

	env := state.EnvFromContext(ctx)

	fname := cmd.Args().Get(0)
	if len(fname) == 0 {
		fname = "app.scss"
	}
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	if _, err := os.Stat(fname); err == nil && !cmd.Bool("overwrite") {
		return fmt.Errorf("destination file already exists: %s", fname)
	}
	if err := os.WriteFile(fname, env.DefaultSource, 0644); err != nil {
		return fmt.Errorf("unable to write example source: %w", err)
	}

	env.Log.Info("Example source written", zap.String("file", fname))
	return nil
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
