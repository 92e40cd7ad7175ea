package sass

import (
	"os"
	"path/filepath"

	"github.com/sassafras/sassafras/pkg/cstr"
)

// DefaultImportExtensions are the extensions tried by FindInclude before any
// custom import extensions.
var DefaultImportExtensions = []string{".scss", ".sass", ".css"}

// FindFile resolves path against the working directory and then each include
// path of opts, in order, and returns the first existing regular file. It
// returns an empty Path when nothing matches.
func FindFile(path cstr.Path, opts *Options) cstr.Path {
	if path.IsEmpty() {
		return cstr.Path{}
	}
	for _, dir := range searchDirs(path, opts) {
		candidate := join(dir, path.String())
		if isFile(candidate) {
			return cstr.NewPath(candidate)
		}
	}
	return cstr.Path{}
}

// FindInclude resolves path the way a stylesheet import is resolved. In each
// search directory it tries the exact name, then for every import extension
// the partial form "_name.ext" followed by "name.ext", then "name/index.ext"
// and "name/_index.ext". It returns an empty Path when nothing matches.
func FindInclude(path cstr.Path, opts *Options) cstr.Path {
	if path.IsEmpty() {
		return cstr.Path{}
	}
	exts := importExtensions(opts)
	for _, dir := range searchDirs(path, opts) {
		for _, candidate := range includeCandidates(path.String(), exts) {
			full := join(dir, candidate)
			if isFile(full) {
				return cstr.NewPath(full)
			}
		}
	}
	return cstr.Path{}
}

func includeCandidates(name string, exts []string) []string {
	dir, base := filepath.Split(name)
	candidates := []string{name}
	for _, ext := range exts {
		candidates = append(candidates,
			filepath.Join(dir, "_"+base+ext),
			filepath.Join(dir, base+ext),
		)
	}
	for _, ext := range exts {
		candidates = append(candidates,
			filepath.Join(name, "index"+ext),
			filepath.Join(name, "_index"+ext),
		)
	}
	return candidates
}

func importExtensions(opts *Options) []string {
	exts := append([]string(nil), DefaultImportExtensions...)
	if opts == nil {
		return exts
	}
	seen := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		seen[e] = struct{}{}
	}
	for _, e := range opts.Extensions().Strings() {
		if e == "" {
			continue
		}
		if e[0] != '.' {
			e = "." + e
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		exts = append(exts, e)
	}
	return exts
}

// searchDirs returns the directories to search. An empty entry stands for the
// working directory. Absolute paths are only tried as given.
func searchDirs(path cstr.Path, opts *Options) []string {
	if filepath.IsAbs(path.String()) {
		return []string{""}
	}
	dirs := []string{""}
	if opts != nil {
		dirs = append(dirs, opts.IncludePaths().Strings()...)
	}
	return dirs
}

func join(dir, name string) string {
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

func isFile(name string) bool {
	info, err := os.Stat(name)
	return err == nil && info.Mode().IsRegular()
}
