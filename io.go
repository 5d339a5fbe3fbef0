// File: lixenwraith/getopt/io.go
package getopt

import (
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/lixenwraith/getopt/conffile"
)

// SaveConfiguration writes the current value of every option allowed in
// configuration files to filename, using the registry's dialect. Options
// holding their default are skipped unless keepDefaults is set. The file
// goes through the cache, so parameters already in it are kept.
func (g *Getopt) SaveConfiguration(filename string, keepDefaults bool, opts conffile.SaveOptions) error {
	g.mu.RLock()
	if !g.parsed {
		g.mu.RUnlock()
		return errors.Errorf("%w: cannot save %s", ErrNotParsed, filename)
	}
	values := g.exportValues(FlagConfigurationFile, keepDefaults)
	g.mu.RUnlock()

	f, err := g.cache.Get(conffile.Setup{Filename: filename, Dialect: g.env.ConfigurationDialect})
	if err != nil {
		return err
	}

	var rejected []string
	for _, v := range values {
		if !f.SetParameter("", v.option.name, v.value, conffile.OperatorNone, "") {
			rejected = append(rejected, v.option.name)
		}
	}
	if len(rejected) > 0 {
		return errors.Errorf("%w: %s refused %s", conffile.ErrWrite, filename, strings.Join(rejected, ", "))
	}

	return f.Save(opts)
}

// ExportEnv returns the per-option environment variables that reproduce
// the current values
func (g *Getopt) ExportEnv() map[string]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	exports := make(map[string]string)
	for _, v := range g.exportValues(FlagEnvironmentVariable, false) {
		if name := g.environmentVariableFor(v.option); name != "" {
			exports[name] = v.value
		}
	}
	return exports
}

// exportedValue is one option rendered as a single string
type exportedValue struct {
	option *Option
	value  string
}

// exportValues renders the defined options accepting source; the caller
// holds the read lock
func (g *Getopt) exportValues(source Flag, keepDefaults bool) []exportedValue {
	var out []exportedValue
	for _, o := range g.order {
		if o.flags&(FlagAlias|FlagCommand|FlagDefaultOption) != 0 || o.flags&source == 0 {
			continue
		}
		if !o.IsDefined() {
			if keepDefaults && o.HasDefault() {
				out = append(out, exportedValue{option: o, value: o.defaultValue})
			}
			continue
		}
		if !keepDefaults && o.HasDefault() && len(o.values) == 1 && o.values[0] == o.defaultValue {
			continue
		}

		switch {
		case o.flags&FlagFlag != 0:
			out = append(out, exportedValue{option: o, value: "true"})
		case o.flags&FlagMultiple != 0:
			out = append(out, exportedValue{option: o, value: joinValues(o.values, o.separators)})
		default:
			out = append(out, exportedValue{option: o, value: o.values[0]})
		}
	}
	return out
}

// joinValues joins with the first separator. Values containing a
// separator are quoted so the configuration reader splits them back the
// same way. Without separators the values are joined with a space, which
// reads back as a single value.
func joinValues(values, separators []string) string {
	sep := " "
	if len(separators) > 0 {
		sep = separators[0]
	}

	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v
		if !containsAny(v, append([]string{sep}, separators...)) {
			continue
		}
		if strings.Contains(v, `"`) {
			parts[i] = "'" + v + "'"
		} else {
			parts[i] = `"` + v + `"`
		}
	}
	return strings.Join(parts, sep)
}

func containsAny(v string, separators []string) bool {
	for _, s := range separators {
		if s != "" && strings.Contains(v, s) {
			return true
		}
	}
	return false
}
