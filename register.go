// File: lixenwraith/getopt/register.go
package getopt

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"gitlab.com/tozd/go/errors"

	"github.com/lixenwraith/getopt/internal/textutil"
)

// AddOption adds one option to the schema. Aliases added after New must be
// linked with LinkAliases.
func (g *Getopt) AddOption(def OptionDefinition) error {
	o, err := g.newOptionFromDefinition(def)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if def.Alias != "" {
		g.aliasTargets[o.name] = textutil.OptionWithDashes(def.Alias)
	}
	return g.insert(o)
}

func (g *Getopt) newOptionFromDefinition(def OptionDefinition) (*Option, error) {
	flags := def.Flags
	if def.Alias != "" {
		flags |= FlagAlias
	}
	if flags&FlagSourceMask == 0 {
		flags |= FlagCommandLine
	}
	if def.Default != "" {
		flags |= FlagHasDefault
	}

	o, err := NewOption(def.Name, def.ShortName, flags)
	if err != nil {
		return nil, err
	}
	if o.HasDefault() {
		o.SetDefault(def.Default)
	}
	o.SetHelp(def.Help)
	o.SetSeparators(def.Separators)
	o.SetEnvironmentVariableName(def.EnvironmentVariableName)
	if err := o.SetValidatorSpec(def.Validator); err != nil {
		return nil, err
	}
	return o, nil
}

// insert registers o; the caller holds the lock
func (g *Getopt) insert(o *Option) error {
	if _, ok := g.options[o.name]; ok {
		return logicf("option --%s is defined twice", o.name)
	}
	if o.shortName != NoShortName {
		if other, ok := g.shortNames[o.shortName]; ok {
			return logicf("short name -%c is used by --%s and --%s", o.shortName, other.name, o.name)
		}
	}
	if o.flags&FlagDefaultOption != 0 {
		if g.defaultOption != nil {
			return logicf("--%s and --%s are both marked as the default option", g.defaultOption.name, o.name)
		}
		g.defaultOption = o
	}

	o.SetSink(g.sink)
	o.SetVariables(g.variables)

	g.options[o.name] = o
	if o.shortName != NoShortName {
		g.shortNames[o.shortName] = o
	}
	g.order = append(g.order, o)
	return nil
}

// RemoveOption drops the option called name and every option of the
// section name::. An option still targeted by an alias cannot be removed.
func (g *Getopt) RemoveOption(name string) error {
	name = textutil.OptionWithDashes(name)
	prefix := name + sectionSeparator

	g.mu.Lock()
	defer g.mu.Unlock()

	doomed := make(map[*Option]bool)
	for _, o := range g.order {
		if o.name == name || strings.HasPrefix(o.name, prefix) {
			doomed[o] = true
		}
	}
	if len(doomed) == 0 {
		return errors.Errorf("%w: --%s", ErrUnknownOption, name)
	}
	for _, o := range g.order {
		if o.alias != nil && doomed[o.alias] && !doomed[o] {
			return logicf("--%s is the destination of alias --%s", o.alias.name, o.name)
		}
	}

	kept := g.order[:0]
	for _, o := range g.order {
		if !doomed[o] {
			kept = append(kept, o)
			continue
		}
		delete(g.options, o.name)
		delete(g.aliasTargets, o.name)
		if o.shortName != NoShortName {
			delete(g.shortNames, o.shortName)
		}
		if g.defaultOption == o {
			g.defaultOption = nil
		}
	}
	g.order = kept
	return nil
}

// OptionNames returns the sorted names of the options starting with prefix
func (g *Getopt) OptionNames(prefix string) []string {
	prefix = textutil.OptionWithDashes(prefix)

	g.mu.RLock()
	defer g.mu.RUnlock()

	var names []string
	for name := range g.options {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// LinkAliases connects every alias to its destination. The destination
// must exist, must not be an alias and must take arguments the same way.
func (g *Getopt) LinkAliases() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, o := range g.order {
		if o.flags&FlagAlias == 0 {
			continue
		}
		target := g.aliasTargets[o.name]
		if target == "" {
			return logicf("alias --%s has no destination", o.name)
		}
		dest, ok := g.options[target]
		if !ok {
			return logicf("alias --%s points to unknown option --%s", o.name, target)
		}
		if dest.flags&FlagAlias != 0 {
			return logicf("alias --%s points to alias --%s", o.name, dest.name)
		}
		if o.flags&flagArgumentMask != dest.flags&flagArgumentMask {
			return logicf("alias --%s and --%s do not take arguments the same way (%s vs %s)",
				o.name, dest.name, o.flags&flagArgumentMask, dest.flags&flagArgumentMask)
		}
		if err := o.SetAliasDestination(dest); err != nil {
			return err
		}
	}
	return nil
}

// structSources are the sources given to options registered from a struct
const structSources = FlagCommandLine | FlagEnvironmentVariable | FlagConfigurationFile

// RegisterStruct adds one option per exported field of structWithDefaults,
// using the current field values as defaults. Field names come from the
// "getopt" tag, falling back to the field name in lower case; nested
// structs become "::" sections below prefix. A "help" tag sets the help
// text. Booleans become flags and slices become multiple options.
func (g *Getopt) RegisterStruct(prefix string, structWithDefaults any) error {
	v := reflect.ValueOf(structWithDefaults)

	// Handle pointer or direct struct value
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return logicf("RegisterStruct requires a non-nil struct pointer or value")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return logicf("RegisterStruct requires a struct or struct pointer, got %T", structWithDefaults)
	}

	var defs []OptionDefinition
	if err := collectFields(v, textutil.OptionWithDashes(prefix), &defs); err != nil {
		return err
	}

	var failures []string
	for _, def := range defs {
		if err := g.AddOption(def); err != nil {
			failures = append(failures, err.Error())
		}
	}
	if len(failures) > 0 {
		return errors.Errorf("%w: failed to register %d field(s): %s",
			ErrLogic, len(failures), strings.Join(failures, "; "))
	}
	return nil
}

// collectFields walks the fields of v recursively
func collectFields(v reflect.Value, pathPrefix string, defs *[]OptionDefinition) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		if !field.IsExported() {
			continue
		}

		tag := field.Tag.Get(ScanTag)
		if tag == "-" {
			continue
		}
		key := strings.ToLower(field.Name)
		if name, _, _ := strings.Cut(tag, ","); name != "" {
			key = name
		}
		key = textutil.OptionWithDashes(key)

		currentPath := key
		if pathPrefix != "" {
			currentPath = strings.TrimSuffix(pathPrefix, sectionSeparator) + sectionSeparator + key
		}

		// Nested structs, skipping nil pointers
		isStruct := fieldValue.Kind() == reflect.Struct
		isPtrToStruct := fieldValue.Kind() == reflect.Ptr && fieldValue.Type().Elem().Kind() == reflect.Struct
		if isStruct && !isLeafStruct(fieldValue.Type()) || isPtrToStruct && !isLeafStruct(fieldValue.Type().Elem()) {
			if isPtrToStruct {
				if fieldValue.IsNil() {
					continue
				}
				fieldValue = fieldValue.Elem()
			}
			if err := collectFields(fieldValue, currentPath, defs); err != nil {
				return err
			}
			continue
		}

		def := OptionDefinition{
			Name:  currentPath,
			Flags: structSources,
			Help:  field.Tag.Get("help"),
		}
		kind := fieldValue.Kind()
		if fieldValue.Type().String() == "net.IP" {
			kind = reflect.String
		}
		switch kind {
		case reflect.Bool:
			def.Flags |= FlagFlag
		case reflect.Slice, reflect.Array:
			if fieldValue.Type().Elem().Kind() == reflect.Uint8 {
				return logicf("field %s (option %s): byte slices are not supported", field.Name, currentPath)
			}
			def.Flags |= FlagMultiple | FlagRequired
			def.Separators = []string{","}
			parts := make([]string, 0, fieldValue.Len())
			for j := 0; j < fieldValue.Len(); j++ {
				parts = append(parts, fmt.Sprint(fieldValue.Index(j).Interface()))
			}
			def.Default = strings.Join(parts, ",")
		case reflect.Map, reflect.Func, reflect.Chan, reflect.Interface:
			return logicf("field %s (option %s): %s values are not supported",
				field.Name, currentPath, fieldValue.Kind())
		default:
			def.Flags |= FlagRequired
			if !fieldValue.IsZero() {
				def.Default = formatDefault(fieldValue)
			}
		}
		*defs = append(*defs, def)
	}
	return nil
}

// formatDefault renders a field value the way Scan reads it back
func formatDefault(v reflect.Value) string {
	switch x := v.Interface().(type) {
	case time.Time:
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	}
	if v.CanAddr() {
		if s, ok := v.Addr().Interface().(fmt.Stringer); ok {
			return s.String()
		}
	}
	return fmt.Sprint(v.Interface())
}

// isLeafStruct reports struct types stored as a single value
func isLeafStruct(t reflect.Type) bool {
	switch t.String() {
	case "time.Time", "url.URL", "net.IPNet":
		return true
	}
	return false
}
