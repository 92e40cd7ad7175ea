package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/sassafras/sassafras/pkg/config"
	"github.com/sassafras/sassafras/pkg/cstr"
	"github.com/sassafras/sassafras/pkg/sass"
)

// Source map modes.
const (
	mapNo     = "no"
	mapAuto   = "auto"
	mapInline = "inline"
)

// job is one compilation as described by the command line.
type job struct {
	opts    *sass.Options
	stdin   bool
	input   string
	output  string
	mapFile string
}

// name is the input as shown in logs and traces.
func (j *job) name() string {
	if j.stdin {
		return sass.StdinName
	}
	return j.input
}

func (j *job) kind() sass.InputStyle {
	if j.stdin {
		return sass.InputData
	}
	return sass.InputFile
}

// newJob builds the compilation from configuration file defaults, then the
// flags given explicitly, then the positional arguments.
func newJob(flags *pflag.FlagSet, f *cliFlags, cfg *config.File, args []string) (*job, error) {
	opts := sass.NewOptions()
	mapMode := mapNo
	if cfg != nil {
		if err := cfg.Apply(opts); err != nil {
			return nil, err
		}
		if cfg.SourceMap != "" {
			mapMode = cfg.SourceMap
		}
	}

	if flags.Changed("style") {
		style, err := sass.ParseOutputStyle(f.style)
		if err != nil {
			return nil, err
		}
		opts.SetOutputStyle(style)
	}
	if flags.Changed("precision") {
		opts.SetPrecision(f.precision)
	}
	if flags.Changed("line-numbers") {
		opts.SetSourceComments(f.lineNumbers)
	}
	if flags.Changed("omit-map-comment") {
		opts.SetOmitSourceMapURL(f.omitMapComment)
	}
	if flags.Changed("sass") {
		opts.SetIsIndentedSyntaxSrc(f.indented)
	}
	for _, ext := range f.extensions {
		opts.PushImportExtension(cstr.NewPath(ext))
	}
	for _, p := range f.loadPaths {
		opts.PushIncludePath(cstr.NewPath(p))
	}
	for _, p := range f.pluginPaths {
		opts.PushPluginPath(cstr.NewPath(p))
	}
	if flags.Changed("sourcemap") {
		mapMode = f.sourceMap
	}
	mapMode = strings.ToLower(mapMode)
	switch mapMode {
	case mapNo, mapAuto, mapInline:
	default:
		return nil, fmt.Errorf("invalid source map mode %q (must be one of no, auto, inline)", mapMode)
	}

	j := &job{opts: opts, stdin: f.stdin}
	if j.stdin {
		if len(args) > 1 {
			return nil, fmt.Errorf("only OUTPUT may be given with --stdin")
		}
		if len(args) == 1 {
			j.output = args[0]
		}
	} else {
		// Without INPUT the source is read from standard input.
		switch len(args) {
		case 0:
			j.stdin = true
		case 2:
			j.output = args[1]
			fallthrough
		case 1:
			j.input = args[0]
		}
	}

	if !j.stdin {
		opts.SetInputPath(cstr.NewPath(j.input))
	}
	if j.output != "" {
		opts.SetOutputPath(cstr.NewPath(j.output))
	}

	if mapMode == mapInline {
		opts.SetSourceMapEmbed(true)
	}
	if mapMode != mapNo {
		if j.output != "" {
			j.mapFile = j.output + ".map"
			opts.SetSourceMapFile(cstr.NewPath(j.mapFile))
		} else if mapMode == mapAuto {
			opts.SetSourceMapEmbed(true)
		}
	}

	return j, nil
}
