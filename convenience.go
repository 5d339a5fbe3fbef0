// File: lixenwraith/getopt/convenience.go
package getopt

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"mvdan.cc/sh/v3/syntax"
)

// QuickEnvironment returns the descriptor used by Quick: system options,
// the <PROJECT>_OPTIONS variable and <project>.conf searched in
// /etc/<project> and the XDG directories.
func QuickEnvironment(project string, defs []OptionDefinition) Environment {
	upper := strings.ToUpper(strings.ReplaceAll(project, "-", "_"))
	return Environment{
		ProjectName:              project,
		Options:                  defs,
		EnvironmentVariableName:  upper + "_OPTIONS",
		EnvironmentVariableIntro: upper + "_",
		ConfigurationFilename:    project + ".conf",
		ConfigurationDirectories: []string{"/etc/" + project},
		EnvironmentFlags: EnvironmentFlagSystemParameters |
			EnvironmentFlagProcessSystemParameters |
			EnvironmentFlagXDG,
	}
}

// Quick creates a registry and parses args with a single call.
// The error is an *ExitError when the program should stop.
func Quick(project string, defs []OptionDefinition, args []string) (*Getopt, error) {
	g, err := New(QuickEnvironment(project, defs))
	if err != nil {
		return nil, err
	}
	if args == nil {
		args = os.Args
	}
	return g, g.Parse(args)
}

// OptionsToString renders the current values as a command line that parses
// back to the same values. Values equal to the default are dropped unless
// keepDefaults is set.
func (g *Getopt) OptionsToString(includeProgramName, keepDefaults bool) string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var parts []string
	if includeProgramName && g.programFullname != "" {
		parts = append(parts, shellQuote(g.programFullname))
	}

	for _, o := range g.order {
		if o.flags&(FlagAlias|FlagCommand|FlagDefaultOption) != 0 || !o.IsDefined() {
			continue
		}
		if !keepDefaults && o.HasDefault() && len(o.values) == 1 && o.values[0] == o.defaultValue {
			continue
		}
		parts = append(parts, "--"+o.name)
		if o.flags&FlagFlag != 0 {
			continue
		}
		for _, v := range o.values {
			parts = append(parts, shellQuote(v))
		}
	}

	if d := g.defaultOption; d != nil && d.IsDefined() {
		parts = append(parts, "--")
		for _, v := range d.values {
			parts = append(parts, shellQuote(v))
		}
	}

	return strings.Join(parts, " ")
}

// shellQuote quotes s for bash when needed
func shellQuote(s string) string {
	q, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
	return q
}

// Debug returns a listing of every option with its values and sources
func (g *Getopt) Debug() string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var b strings.Builder
	b.WriteString("Options Debug Info:\n")
	b.WriteString(fmt.Sprintf("Parsed: %t\n", g.parsed))
	for _, f := range g.configFiles {
		b.WriteString(fmt.Sprintf("Configuration file: %s\n", f.Filename()))
	}
	b.WriteString("Current values:\n")

	for _, o := range g.order {
		if o.flags&FlagAlias != 0 {
			if o.alias != nil {
				b.WriteString(fmt.Sprintf("  %s: alias of --%s\n", o.display(), o.alias.name))
			}
			continue
		}
		b.WriteString(fmt.Sprintf("  %s:\n", o.display()))
		b.WriteString(fmt.Sprintf("    Flags: %s\n", o.flags))
		if o.HasDefault() {
			b.WriteString(fmt.Sprintf("    Default: %q\n", o.defaultValue))
		}
		if len(o.values) > 0 {
			b.WriteString(fmt.Sprintf("    Values: %q\n", o.values))
			b.WriteString(fmt.Sprintf("    Source: %s\n", o.source))
		}
		for _, t := range o.trace {
			b.WriteString(fmt.Sprintf("    Trace: %s\n", t))
		}
	}

	return b.String()
}

// Dump writes the resolved values to w in TOML format. Sections of option
// names become TOML tables.
func (g *Getopt) Dump(w io.Writer) error {
	g.mu.RLock()
	nestedData := make(map[string]any)
	for name, value := range g.resolvedValues() {
		setNestedValue(nestedData, name, value)
	}
	g.mu.RUnlock()

	encoder := toml.NewEncoder(w)
	return encoder.Encode(nestedData)
}
