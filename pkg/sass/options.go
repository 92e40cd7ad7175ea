package sass

import (
	"fmt"
	"strings"

	"github.com/sassafras/sassafras/pkg/cstr"
)

// Default values applied by NewOptions.
const (
	DefaultPrecision = 5
	DefaultIndent    = "  "
	DefaultLinefeed  = "\n"
)

// InspectOptions holds the settings shared by every render mode.
type InspectOptions struct {
	// OutputStyle is the layout of the generated CSS.
	OutputStyle OutputStyle

	// Precision is the number of fractional digits kept for numbers.
	Precision uint8
}

// OutputOptions extends InspectOptions with formatting settings.
type OutputOptions struct {
	Inspect InspectOptions

	// Indent is the string used for one level of indentation.
	Indent cstr.Text

	// Linefeed is the string used for line breaks.
	Linefeed cstr.Text

	// SourceComments emits comments with the source line of each rule.
	SourceComments bool
}

// Options is the compilation configuration. It is a plain value: copying it
// with Clone yields a fully independent configuration.
type Options struct {
	output OutputOptions

	sourceMapEmbed      bool
	sourceMapContents   bool
	sourceMapFileURLs   bool
	omitSourceMapURL    bool
	isIndentedSyntaxSrc bool

	// inputPath is used for source map generation and, on file contexts, is
	// the file to compile.
	inputPath cstr.Path
	// outputPath only feeds source map information; nothing is written there.
	outputPath cstr.Path

	extensions   PathList
	includePaths PathList
	pluginPaths  PathList

	// sourceMapFile enables source map generation and names the map.
	sourceMapFile cstr.Path
	// sourceMapRoot is inserted verbatim in the source map.
	sourceMapRoot cstr.Text
}

// NewOptions returns Options with the documented defaults.
func NewOptions() *Options {
	o := &Options{}
	o.init()
	return o
}

func (o *Options) init() {
	o.output.Inspect.OutputStyle = StyleNested
	o.output.Inspect.Precision = DefaultPrecision
	o.output.Indent = cstr.NewText(DefaultIndent)
	o.output.Linefeed = cstr.NewText(DefaultLinefeed)
}

// Clone returns a deep copy of o.
func (o *Options) Clone() *Options {
	c := *o
	c.extensions = o.extensions.clone()
	c.includePaths = o.includePaths.clone()
	c.pluginPaths = o.pluginPaths.clone()
	return &c
}

// Output returns the formatting settings.
func (o *Options) Output() OutputOptions { return o.output }

// Field accessors. Setters never fail.

func (o *Options) Precision() uint8              { return o.output.Inspect.Precision }
func (o *Options) SetPrecision(p uint8)          { o.output.Inspect.Precision = p }
func (o *Options) OutputStyle() OutputStyle      { return o.output.Inspect.OutputStyle }
func (o *Options) SetOutputStyle(s OutputStyle)  { o.output.Inspect.OutputStyle = s }
func (o *Options) SourceComments() bool          { return o.output.SourceComments }
func (o *Options) SetSourceComments(v bool)      { o.output.SourceComments = v }
func (o *Options) Indent() cstr.Text             { return o.output.Indent }
func (o *Options) SetIndent(t cstr.Text)         { o.output.Indent = t }
func (o *Options) Linefeed() cstr.Text           { return o.output.Linefeed }
func (o *Options) SetLinefeed(t cstr.Text)       { o.output.Linefeed = t }
func (o *Options) SourceMapEmbed() bool          { return o.sourceMapEmbed }
func (o *Options) SetSourceMapEmbed(v bool)      { o.sourceMapEmbed = v }
func (o *Options) SourceMapContents() bool       { return o.sourceMapContents }
func (o *Options) SetSourceMapContents(v bool)   { o.sourceMapContents = v }
func (o *Options) SourceMapFileURLs() bool       { return o.sourceMapFileURLs }
func (o *Options) SetSourceMapFileURLs(v bool)   { o.sourceMapFileURLs = v }
func (o *Options) OmitSourceMapURL() bool        { return o.omitSourceMapURL }
func (o *Options) SetOmitSourceMapURL(v bool)    { o.omitSourceMapURL = v }
func (o *Options) IsIndentedSyntaxSrc() bool     { return o.isIndentedSyntaxSrc }
func (o *Options) SetIsIndentedSyntaxSrc(v bool) { o.isIndentedSyntaxSrc = v }
func (o *Options) InputPath() cstr.Path          { return o.inputPath }
func (o *Options) SetInputPath(p cstr.Path)      { o.inputPath = p }
func (o *Options) OutputPath() cstr.Path         { return o.outputPath }
func (o *Options) SetOutputPath(p cstr.Path)     { o.outputPath = p }
func (o *Options) SourceMapFile() cstr.Path      { return o.sourceMapFile }
func (o *Options) SetSourceMapFile(p cstr.Path)  { o.sourceMapFile = p }
func (o *Options) SourceMapRoot() cstr.Text      { return o.sourceMapRoot }
func (o *Options) SetSourceMapRoot(t cstr.Text)  { o.sourceMapRoot = t }

// PushImportExtension adds an extension tried when resolving imports.
func (o *Options) PushImportExtension(ext cstr.Path) { o.extensions.Push(ext) }

// PushIncludePath adds a directory searched when resolving imports.
func (o *Options) PushIncludePath(p cstr.Path) { o.includePaths.Push(p) }

// PushPluginPath records a plugin directory. Plugins are never loaded.
func (o *Options) PushPluginPath(p cstr.Path) { o.pluginPaths.Push(p) }

// SetIncludePath pushes every element of a separator-delimited path list.
func (o *Options) SetIncludePath(list string) { o.includePaths.PushList(list) }

// SetPluginPath pushes every element of a separator-delimited path list.
func (o *Options) SetPluginPath(list string) { o.pluginPaths.PushList(list) }

// Extensions returns the import extensions. The list belongs to o.
func (o *Options) Extensions() *PathList { return &o.extensions }

// IncludePaths returns the include paths. The list belongs to o.
func (o *Options) IncludePaths() *PathList { return &o.includePaths }

// PluginPaths returns the plugin paths. The list belongs to o.
func (o *Options) PluginPaths() *PathList { return &o.pluginPaths }

// SourceMapRequested reports whether the engine should produce a source map.
func (o *Options) SourceMapRequested() bool {
	return o.sourceMapEmbed || !o.sourceMapFile.IsEmpty()
}

// Fingerprint renders every setting that can influence engine output in a
// stable text form. Paths are quoted so that separators inside them cannot
// collide with the field syntax.
func (o *Options) Fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "style=%s;precision=%d;indent=%q;linefeed=%q;comments=%t;",
		o.OutputStyle(), o.Precision(), o.output.Indent.String(), o.output.Linefeed.String(), o.output.SourceComments)
	fmt.Fprintf(&b, "embed=%t;contents=%t;urls=%t;omit=%t;indented=%t;",
		o.sourceMapEmbed, o.sourceMapContents, o.sourceMapFileURLs, o.omitSourceMapURL, o.isIndentedSyntaxSrc)
	fmt.Fprintf(&b, "input=%q;output=%q;map=%q;root=%q;",
		o.inputPath.String(), o.outputPath.String(), o.sourceMapFile.String(), o.sourceMapRoot.String())
	fmt.Fprintf(&b, "ext=%q;include=%q;plugin=%q",
		o.extensions.Strings(), o.includePaths.Strings(), o.pluginPaths.Strings())
	return b.String()
}
