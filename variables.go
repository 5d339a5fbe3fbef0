package getopt

import (
	"sort"
	"strings"
	"sync"
)

// maxVariableDepth bounds recursive ${name} expansion
const maxVariableDepth = 10

// Variables is a name/value table used to expand ${name} references in
// option values. It is safe for concurrent use.
type Variables struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewVariables creates an empty table
func NewVariables() *Variables {
	return &Variables{values: make(map[string]string)}
}

// Set defines or replaces a variable
func (v *Variables) Set(name, value string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.values[name] = value
}

// Get returns a variable value and whether it exists
func (v *Variables) Get(name string) (string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	value, ok := v.values[name]
	return value, ok
}

// Has reports whether name is defined
func (v *Variables) Has(name string) bool {
	_, ok := v.Get(name)
	return ok
}

// Names returns the sorted variable names
func (v *Variables) Names() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	names := make([]string, 0, len(v.values))
	for name := range v.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of variables
func (v *Variables) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.values)
}

// Clear removes every variable
func (v *Variables) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	clear(v.values)
}

// Process replaces ${name} references in s. Values are expanded in turn up
// to a fixed depth; unknown references are kept unchanged.
func (v *Variables) Process(s string) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.expand(s, 0)
}

func (v *Variables) expand(s string, depth int) string {
	if depth >= maxVariableDepth || !strings.Contains(s, "${") {
		return s
	}

	var b strings.Builder
	for {
		start := strings.Index(s, "${")
		if start < 0 {
			b.WriteString(s)
			break
		}
		end := strings.IndexByte(s[start+2:], '}')
		if end < 0 {
			b.WriteString(s)
			break
		}
		end += start + 2

		b.WriteString(s[:start])
		name := s[start+2 : end]
		if value, ok := v.values[name]; ok {
			b.WriteString(v.expand(value, depth+1))
		} else {
			b.WriteString(s[start : end+1])
		}
		s = s[end+1:]
	}
	return b.String()
}
