// Package config loads compile defaults for the sassafras command from YAML
// or CUE files.
//
// A configuration file sets the same things the command-line flags do:
//
//	style: compressed
//	precision: 8
//	load_paths: [vendor/styles, node_modules]
//	source_map: auto
//	log:
//	  level: debug
//
// YAML files are decoded with unknown keys rejected. CUE files are unified
// with a closed #Config definition, so type and enumeration errors carry the
// file, line and column of the offending value. Both are then checked with
// struct validation tags.
//
// Relative load and plugin paths are taken relative to the configuration
// file. File.Apply copies the settings onto a sass.Options; the caller then
// applies explicitly given flags on top.
package config
