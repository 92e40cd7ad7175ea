package config

// configSchema is the CUE definition every CUE configuration file is unified
// with. Definitions are closed, so unknown fields are rejected.
const configSchema = `
#Config: {
	style?:     "nested" | "expanded" | "compact" | "compressed"
	precision?: int & >=0 & <=255

	line_comments?: bool
	indented?:      bool
	indent?:        string
	linefeed?:      string

	load_paths?:        [...string & !=""]
	plugin_paths?:      [...string & !=""]
	import_extensions?: [...string & !=""]

	source_map?:          "no" | "auto" | "inline"
	omit_map_comment?:    bool
	source_map_contents?: bool
	source_map_root?:     string

	engine?: string
	cache?:  string

	log?: {
		level?:  "trace" | "debug" | "info" | "warn" | "error" | "fatal" | "panic" | "disabled"
		format?: "console" | "json"
	}

	trace?: {
		exporter?: "none" | "stdout" | "otlp"
		endpoint?: string
	}
}
`
