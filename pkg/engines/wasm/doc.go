// Package wasm runs a compilation engine shipped as a WASI command module.
//
// Each render instantiates the module once. The stylesheet source is written
// to the module's standard input and the options are passed as arguments:
//
//	--style=<nested|expanded|compact|compressed>
//	--precision=<n>
//	--stdin-name=<input path>
//	--load-path=<dir>            (repeated, in order)
//	--import-extension=<ext>     (repeated, in order)
//	--indent=<text> --linefeed=<text>
//	--line-comments --indented
//	--source-map=<guest file>    (only when a map is requested)
//	--source-map-url=<map file> --source-map-root=<root>
//	--embed-source-map --source-map-contents --source-map-file-urls
//	--omit-map-comment
//
// The module writes CSS to standard output and, when asked, the source map
// JSON to the --source-map file. A nonzero exit is a stylesheet error whose
// text is read from standard error; a first line of the form
// "file:line:column: message" carries the position.
//
// The input file's directory and every load path are mounted read-only at
// their host paths so that imports resolve inside the guest.
package wasm
