package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitError    = 1
	ExitInternal = 2
)

// BuildInfo identifies the binary.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// Streams are the process's standard streams.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// cliFlags holds every flag of the root command.
type cliFlags struct {
	// compile flags
	stdin          bool
	style          string
	lineNumbers    bool
	loadPaths      []string
	pluginPaths    []string
	extensions     []string
	sourceMap      string
	omitMapComment bool
	precision      uint8
	indented       bool

	// ambient flags
	configPath    string
	enginePath    string
	cachePath     string
	watch         bool
	metricsAddr   string
	trace         string
	traceEndpoint string
	logLevel      string
	logFormat     string
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, build BuildInfo, args []string, streams Streams) int {
	a := &app{streams: streams, build: build}
	rootCmd := newRootCommand(a)
	rootCmd.SetArgs(args)
	rootCmd.SetIn(streams.In)
	rootCmd.SetOut(streams.Out)
	rootCmd.SetErr(streams.Err)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintf(streams.Err, "Error: %v\n", err)
	return ExitError
}

func newRootCommand(a *app) *cobra.Command {
	f := &a.flags
	rootCmd := &cobra.Command{
		Use:   "sassafras [flags] [INPUT] [OUTPUT]",
		Short: "sassafras - stylesheet compiler front end",
		Long: `sassafras compiles a stylesheet from INPUT, or standard input, to OUTPUT,
or standard output.

Features:
  - sassc compatible flags and exit codes
  - Source maps written beside OUTPUT or embedded inline
  - Defaults from YAML or CUE configuration files
  - Pluggable WASI compilation engines
  - Persistent compile cache and history
  - Watch mode with Prometheus metrics and OpenTelemetry tracing`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", a.build.Version, a.build.Commit, a.build.BuildDate),
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			code := a.run(cmd.Context(), cmd.Flags(), args)
			if code != ExitOK {
				return &exitError{code: code}
			}
			return nil
		},
	}

	flags := rootCmd.Flags()
	flags.SetNormalizeFunc(normalizeFlagName)

	flags.BoolVarP(&f.stdin, "stdin", "s", false, "read input from standard input instead of an input file")
	flags.StringVarP(&f.style, "style", "t", "nested", "output style: nested, expanded, compact or compressed")
	flags.BoolVarP(&f.lineNumbers, "line-numbers", "l", false, "emit comments showing original line numbers")
	flags.StringArrayVarP(&f.loadPaths, "load-path", "I", nil, "add a Sass import path (repeatable)")
	flags.StringArrayVarP(&f.pluginPaths, "plugin-path", "P", nil, "add a path to autoload plugins from (repeatable)")
	flags.StringArrayVarP(&f.extensions, "import-extension", "E", nil, "add an extension to try when resolving imports (repeatable)")
	flags.StringVarP(&f.sourceMap, "sourcemap", "m", "no", "emit source map: no, auto or inline")
	flags.BoolVarP(&f.omitMapComment, "omit-map-comment", "M", false, "omit the source map url comment")
	flags.Uint8VarP(&f.precision, "precision", "p", 5, "set the precision for numbers")
	flags.BoolVarP(&f.indented, "sass", "a", false, "treat input as indented syntax")

	flags.StringVar(&f.configPath, "config", "", "load defaults from a YAML or CUE config file")
	flags.StringVar(&f.enginePath, "engine", "", "compile with a WASI engine module instead of the built-in engine")
	flags.StringVar(&f.cachePath, "cache", "", "cache compile results in this sqlite database")
	flags.BoolVar(&f.watch, "watch", false, "recompile INPUT to OUTPUT whenever sources change")
	flags.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while watching")
	flags.StringVar(&f.trace, "trace", "", "trace exporter: none, stdout or otlp")
	flags.StringVar(&f.traceEndpoint, "trace-endpoint", "", "OTLP collector endpoint")
	flags.StringVar(&f.logLevel, "log-level", "", "log level (default from LOG_LEVEL, else warn)")
	flags.StringVar(&f.logFormat, "log-format", "", "log format: console or json")

	return rootCmd
}

// normalizeFlagName maps flag aliases to their canonical names.
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	switch name {
	case "line-comments":
		name = "line-numbers"
	}
	return pflag.NormalizedName(strings.ToLower(name))
}
