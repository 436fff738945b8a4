// Package targets loads the morph-target library and blends targets into
// the base mesh according to macro slider values.
package targets

import (
	"errors"
	"sort"
)

// ErrDataNotFound is returned when the target data root does not exist.
var ErrDataNotFound = errors.New("targets: data root not found")

// Target is a named sparse displacement field. Indices and Deltas have
// equal length; Tags are the category tokens the target was filed under.
type Target struct {
	Name    string
	Tags    []string
	Indices []int
	Deltas  [][3]float32
}

// Library is an immutable catalog of targets keyed by name.
type Library struct {
	Root    string
	targets map[string]*Target
	names   []string // sorted
}

// NewLibrary builds a library from already-parsed targets. Later duplicates
// replace earlier ones.
func NewLibrary(root string, ts []*Target) *Library {
	l := &Library{Root: root, targets: make(map[string]*Target, len(ts))}
	for _, t := range ts {
		l.targets[t.Name] = t
	}
	l.names = make([]string, 0, len(l.targets))
	for name := range l.targets {
		l.names = append(l.names, name)
	}
	sort.Strings(l.names)
	return l
}

// Len returns the number of targets.
func (l *Library) Len() int { return len(l.names) }

// Names returns target names in sorted order.
func (l *Library) Names() []string { return l.names }

// Get looks a target up by name.
func (l *Library) Get(name string) (*Target, bool) {
	t, ok := l.targets[name]
	return t, ok
}

// Invalid returns the names of targets that reference a vertex index
// outside [0, vertexCount).
func (l *Library) Invalid(vertexCount int) []string {
	var bad []string
	for _, name := range l.names {
		for _, vi := range l.targets[name].Indices {
			if vi < 0 || vi >= vertexCount {
				bad = append(bad, name)
				break
			}
		}
	}
	return bad
}
