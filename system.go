package getopt

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/lixenwraith/getopt/internal/textutil"
)

// SystemResult reports which system commands ProcessSystemOptions ran
type SystemResult uint32

const (
	SystemResultNone SystemResult = 0

	SystemResultHelp SystemResult = 1 << iota
	SystemResultVersion
	SystemResultCopyright
	SystemResultLicense
	SystemResultBuildDate
	SystemResultEnvironmentVariableName
	SystemResultConfigurationFilenames
	SystemResultOptionDefinitionsPath
	SystemResultShowOptionSources

	// SystemResultCommandMask is set when the program is expected to exit
	SystemResultCommandMask = SystemResultHelp | SystemResultVersion | SystemResultCopyright |
		SystemResultLicense | SystemResultBuildDate | SystemResultEnvironmentVariableName |
		SystemResultConfigurationFilenames | SystemResultOptionDefinitionsPath | SystemResultShowOptionSources
)

const systemCommand = FlagCommandLine | FlagFlag | FlagCommand | FlagShowSystem

// systemOptions returns the options added with EnvironmentFlagSystemParameters
func (g *Getopt) systemOptions() []OptionDefinition {
	defs := []OptionDefinition{
		{Name: "help", ShortName: 'h', Flags: systemCommand | FlagShowMost, Help: "print out a brief help screen and exit."},
		{Name: "long-help", ShortName: '?', Flags: systemCommand | FlagShowMost, Help: "print all the available options and exit."},
		{Name: "version", ShortName: 'V', Flags: systemCommand | FlagShowMost, Help: "print the version of %p and exit."},
		{Name: "copyright", ShortName: 'C', Flags: systemCommand, Help: "print the copyright notice of %p and exit."},
		{Name: "license", ShortName: 'L', Flags: systemCommand, Help: "print the license of %p and exit."},
		{Name: "build-date", Flags: systemCommand, Help: "print the date and time when %p was built and exit."},
		{Name: "environment-variable-name", Flags: systemCommand, Help: "print the name of the variable holding default options and exit."},
		{Name: "configuration-filenames", Flags: systemCommand, Help: "print the list of configuration files searched and exit."},
		{Name: "path-to-option-definitions", Flags: systemCommand, Help: "print the path to the option definitions file and exit."},
		{Name: "show-option-sources", Flags: systemCommand, Help: "print where each option value came from and exit."},
		{
			Name:  "config-dir",
			Flags: FlagCommandLine | FlagEnvironmentVariable | FlagRequired | FlagMultiple | FlagShowSystem,
			Help:  "add one or more configuration directories to search for %p configuration files.",
		},
	}
	if g.env.GroupName != "" {
		defs = append(defs, OptionDefinition{
			Name:  g.env.GroupName + "-help",
			Flags: systemCommand | FlagShowMost,
			Help:  "print the help about the " + g.env.GroupName + " options and exit.",
		})
	}
	return defs
}

func (g *Getopt) addSystemOptions() error {
	for _, def := range g.systemOptions() {
		if err := g.AddOption(def); err != nil {
			return err
		}
	}
	return nil
}

// commandGiven reports whether the system command name was used; the
// caller holds the lock
func (g *Getopt) commandGiven(name string) bool {
	o, ok := g.options[name]
	return ok && o.flags&FlagCommand != 0 && o.IsDefined()
}

// ProcessSystemOptions prints the output of the system commands given on
// the command line and reports which ones ran
func (g *Getopt) ProcessSystemOptions(w io.Writer) SystemResult {
	g.mu.RLock()
	defer g.mu.RUnlock()

	result := SystemResultNone

	if g.commandGiven("version") {
		fmt.Fprintln(w, g.env.Version)
		result |= SystemResultVersion
	}
	if g.commandGiven("help") {
		fmt.Fprint(w, g.usage(FlagShowMost))
		result |= SystemResultHelp
	}
	if g.commandGiven("long-help") {
		fmt.Fprint(w, g.usage(FlagShowAll))
		result |= SystemResultHelp
	}
	if g.env.GroupName != "" && g.commandGiven(g.env.GroupName+"-help") {
		fmt.Fprint(w, g.usage(FlagGroup1))
		result |= SystemResultHelp
	}
	if g.commandGiven("copyright") {
		fmt.Fprintln(w, g.env.Copyright)
		result |= SystemResultCopyright
	}
	if g.commandGiven("license") {
		fmt.Fprintln(w, g.env.License)
		result |= SystemResultLicense
	}
	if g.commandGiven("build-date") {
		fmt.Fprintf(w, "Built on %s\n", g.env.BuildDate)
		result |= SystemResultBuildDate
	}
	if g.commandGiven("environment-variable-name") {
		if g.env.EnvironmentVariableName == "" {
			fmt.Fprintf(w, "%s does not support an environment variable.\n", g.displayName())
		} else {
			fmt.Fprintln(w, g.env.EnvironmentVariableName)
		}
		result |= SystemResultEnvironmentVariableName
	}
	if g.commandGiven("configuration-filenames") {
		names := g.discoverConfigurationFiles(false)
		if len(names) == 0 {
			fmt.Fprintf(w, "%s does not support configuration files.\n", g.displayName())
		} else {
			fmt.Fprintln(w, "Configuration filenames:")
			for _, name := range names {
				fmt.Fprintf(w, " . %s\n", name)
			}
		}
		result |= SystemResultConfigurationFilenames
	}
	if g.commandGiven("path-to-option-definitions") {
		if g.definitionsFile == "" {
			fmt.Fprintln(w, "No option definitions file was loaded.")
		} else {
			fmt.Fprintln(w, g.definitionsFile)
		}
		result |= SystemResultOptionDefinitionsPath
	}
	if g.commandGiven("show-option-sources") {
		g.writeOptionSources(w)
		result |= SystemResultShowOptionSources
	}

	return result
}

func (g *Getopt) writeOptionSources(w io.Writer) {
	fmt.Fprintln(w, "Option Sources:")
	n := 0
	for _, o := range g.order {
		if o.flags&FlagAlias != 0 || len(o.trace) == 0 {
			continue
		}
		n++
		fmt.Fprintf(w, "  %d. option %q\n", n, o.name)
		for _, t := range o.trace {
			fmt.Fprintf(w, "     %s\n", t)
		}
	}
	if n == 0 {
		fmt.Fprintln(w, "  no option values were defined.")
	}
}

func (g *Getopt) displayName() string {
	if g.programName != "" {
		return g.programName
	}
	if g.env.ProjectName != "" {
		return g.env.ProjectName
	}
	return "this program"
}

// Usage renders the help screen. show selects the options: FlagShowMost
// for the usual options, FlagShowAll for everything, FlagShowSystem or a
// group flag for that subset.
func (g *Getopt) Usage(show Flag) string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.usage(show)
}

func (g *Getopt) usage(show Flag) string {
	var b strings.Builder

	if g.env.HelpHeader != "" {
		b.WriteString(g.expandHelp(g.env.HelpHeader))
		b.WriteString("\n\n")
	}

	var rows [][2]string
	syntaxWidth := 0
	for _, o := range g.order {
		if !visible(o, show) {
			continue
		}
		syntax := usageSyntax(o)
		syntaxWidth = max(syntaxWidth, len(syntax))
		rows = append(rows, [2]string{syntax, g.expandHelp(optionHelp(o))})
	}

	// help text gets what the syntax column and its padding leave
	columns, _ := g.lookupEnv("COLUMNS")
	helpWidth := max(textutil.ScreenWidth(columns)-syntaxWidth-6, 20)

	tw := tabwriter.NewWriter(&b, 0, 4, 3, ' ', 0)
	for _, row := range rows {
		for i, line := range textutil.Wrap(row[1], helpWidth) {
			if i == 0 {
				fmt.Fprintf(tw, "   %s\t%s\n", row[0], line)
			} else {
				fmt.Fprintf(tw, "   \t%s\n", line)
			}
		}
	}
	_ = tw.Flush()

	if g.env.HelpFooter != "" {
		b.WriteString("\n")
		b.WriteString(g.expandHelp(g.env.HelpFooter))
		b.WriteString("\n")
	}
	return b.String()
}

// visible decides whether o appears on the help screen selected by show
func visible(o *Option, show Flag) bool {
	if o.flags&FlagDynamic != 0 {
		return show&FlagShowAll != 0
	}
	if show&FlagShowAll != 0 {
		return true
	}
	groups := o.flags & FlagShowMask
	if groups&show != 0 {
		return true
	}
	return show&FlagShowMost != 0 && groups&^FlagShowMost == 0
}

// usageSyntax renders "--name or -n <arg>"
func usageSyntax(o *Option) string {
	var b strings.Builder
	if o.flags&FlagDefaultOption != 0 && o.name == DefaultOptionName {
		b.WriteString("[default argument]")
	} else {
		b.WriteString("--")
		b.WriteString(o.name)
		if o.shortName != NoShortName {
			b.WriteString(" or -")
			b.WriteRune(o.shortName)
		}
	}

	switch {
	case o.flags&FlagFlag != 0:
	case o.flags&(FlagRequired|FlagMultiple) == FlagRequired|FlagMultiple:
		b.WriteString(" <arg> {<arg>}")
	case o.flags&FlagRequired != 0:
		b.WriteString(" <arg>")
	case o.flags&FlagMultiple != 0:
		b.WriteString(" {<arg>}")
	default:
		b.WriteString(" [<arg>]")
	}
	return b.String()
}

func optionHelp(o *Option) string {
	help := o.help
	if o.flags&FlagAlias != 0 && help == "" && o.alias != nil {
		help = "alias of --" + o.alias.name
	}
	if o.HasDefault() {
		help += fmt.Sprintf(" (default: %q)", o.defaultValue)
	}
	if s, ok := o.validator.(fmt.Stringer); ok {
		help += " (" + s.String() + ")"
	}
	return help
}

// expandHelp replaces %p with the program name and %v with the version
func (g *Getopt) expandHelp(s string) string {
	return strings.NewReplacer("%p", g.displayName(), "%v", g.env.Version).Replace(s)
}
