package sass

import (
	"path/filepath"

	"github.com/sassafras/sassafras/pkg/cstr"
)

// PathList is an insertion-ordered set of paths. Membership is decided on the
// exact path bytes.
type PathList struct {
	items []cstr.Path
	index map[string]struct{}
}

// Push appends p unless it is already present. It reports whether p was added.
func (l *PathList) Push(p cstr.Path) bool {
	key := p.String()
	if _, ok := l.index[key]; ok {
		return false
	}
	if l.index == nil {
		l.index = make(map[string]struct{})
	}
	l.index[key] = struct{}{}
	l.items = append(l.items, p)
	return true
}

// PushList splits a path list on the platform separator and pushes every
// non-empty element.
func (l *PathList) PushList(list string) {
	for _, elem := range filepath.SplitList(list) {
		if elem == "" {
			continue
		}
		l.Push(cstr.NewPath(elem))
	}
}

// Contains reports whether p is in the list.
func (l *PathList) Contains(p cstr.Path) bool {
	_, ok := l.index[p.String()]
	return ok
}

// Len returns the number of paths.
func (l *PathList) Len() int { return len(l.items) }

// At returns the i-th path in insertion order. It panics when i is out of
// range, like a slice index.
func (l *PathList) At(i int) cstr.Path { return l.items[i] }

// Strings returns the paths as Go strings.
func (l *PathList) Strings() []string {
	out := make([]string, len(l.items))
	for i, p := range l.items {
		out[i] = p.String()
	}
	return out
}

// clone returns an independent copy. Path values are immutable, so sharing
// them is safe; the slice and index are not shared.
func (l PathList) clone() PathList {
	if len(l.items) == 0 {
		return PathList{}
	}
	out := PathList{
		items: make([]cstr.Path, len(l.items)),
		index: make(map[string]struct{}, len(l.index)),
	}
	copy(out.items, l.items)
	for k := range l.index {
		out.index[k] = struct{}{}
	}
	return out
}
