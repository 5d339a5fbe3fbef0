// File: lixenwraith/getopt/helper.go
package getopt

import (
	"strings"

	"github.com/lixenwraith/getopt/internal/textutil"
)

// sectionSeparator joins section names in option names
const sectionSeparator = "::"

// setNestedValue sets a value in a nested map using a "::" separated path.
// It creates intermediate maps if they don't exist.
// If a segment exists but is not a map, it will be overwritten by a new map.
func setNestedValue(nested map[string]any, path string, value any) {
	segments := strings.Split(path, sectionSeparator)
	current := nested

	for i := 0; i < len(segments)-1; i++ {
		segment := segments[i]

		next, exists := current[segment]
		if nextMap, isMap := next.(map[string]any); exists && isMap {
			current = nextMap
			continue
		}
		newMap := make(map[string]any)
		current[segment] = newMap
		current = newMap
	}

	current[segments[len(segments)-1]] = value
}

// navigateToPath traverses nested map to reach the specified path
func navigateToPath(nested map[string]any, path string) any {
	path = strings.TrimSuffix(path, sectionSeparator)
	if path == "" {
		return nested
	}

	current := any(nested)
	for _, segment := range strings.Split(path, sectionSeparator) {
		currentMap, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		value, exists := currentMap[segment]
		if !exists {
			return nil
		}
		current = value
	}
	return current
}

// resolvedValues returns the current value of every option holding one,
// keyed by option name. Multiple options map to a []string; their default
// is split on the option separators. Aliases, the
// system commands and the default option sentinel are skipped. The caller
// holds the read lock.
func (g *Getopt) resolvedValues() map[string]any {
	values := make(map[string]any, len(g.order))
	for _, o := range g.order {
		if o.flags&(FlagAlias|FlagCommand) != 0 || o.name == DefaultOptionName {
			continue
		}
		switch {
		case o.flags&FlagMultiple != 0 && o.IsDefined():
			values[o.name] = o.Values()
		case o.flags&FlagMultiple != 0 && o.HasDefault():
			values[o.name] = textutil.SplitQuoted(o.defaultValue, o.separators)
		case o.flags&FlagFlag != 0:
			values[o.name] = o.IsDefined()
		default:
			if v, err := o.Value(0); err == nil {
				values[o.name] = v
			}
		}
	}
	return values
}
