package getopt

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lixenwraith/getopt/conffile"
	"github.com/lixenwraith/getopt/internal/textutil"
	"github.com/lixenwraith/getopt/logsink"
)

// Parse resolves every option. args[0] is the program path. Values are read
// from the configuration files, then the environment, then args; for single
// valued options the last accepted value wins and multiple options
// accumulate in that order.
//
// User errors are reported to the sink and parsing continues. The returned
// error is an *ExitError when the caller should stop: code 0 after a system
// command such as --help, code 1 when errors were reported.
func (g *Getopt) Parse(args []string) error {
	g.Reset()

	g.mu.Lock()
	var rest []string
	if len(args) > 0 {
		g.programFullname = args[0]
		g.programName = filepath.Base(args[0])
		rest = args[1:]
	}
	g.configDirs = prescanConfigDirs(rest)
	files := g.readConfigurationFiles()
	g.parseEnvironment()
	g.parseArguments(rest, SourceCommandLine, FlagCommandLine)
	g.mu.Unlock()

	g.subscribe(files)

	return g.FinishParsing()
}

// FinishParsing runs the system commands and converts reported errors into
// an *ExitError. Value accessors are usable once it ran.
func (g *Getopt) FinishParsing() error {
	g.mu.Lock()
	g.parsed = true
	usage := g.usageOnError
	g.mu.Unlock()

	if g.env.Has(EnvironmentFlagProcessSystemParameters) {
		if result := g.ProcessSystemOptions(g.output); result&SystemResultCommandMask != 0 {
			return &ExitError{Code: 0}
		}
	}

	if n := g.sink.Errors(); n > 0 {
		if usage {
			fmt.Fprint(g.output, g.Usage(FlagShowMost))
		}
		return &ExitError{Code: 1, Message: fmt.Sprintf("%d error(s) found while parsing the options", n)}
	}
	return nil
}

// prescanConfigDirs collects --config-dir values before the configuration
// files are searched
func prescanConfigDirs(args []string) []string {
	var dirs []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		if value, ok := strings.CutPrefix(arg, "--config-dir="); ok {
			dirs = append(dirs, value)
			continue
		}
		if arg != "--config-dir" {
			continue
		}
		for i+1 < len(args) && isArgumentValue(args[i+1]) {
			i++
			dirs = append(dirs, args[i])
		}
	}
	return dirs
}

// isArgumentValue reports whether a token is a value rather than an option
func isArgumentValue(arg string) bool {
	return arg == "-" || !strings.HasPrefix(arg, "-")
}

// readConfigurationFiles applies every discovered file in order and returns
// the files that were read
func (g *Getopt) readConfigurationFiles() []*conffile.File {
	for _, path := range g.discoverConfigurationFiles(true) {
		f, err := g.cache.Get(conffile.Setup{Filename: path, Dialect: g.env.ConfigurationDialect})
		if err != nil {
			g.errorf("%v", err)
			continue
		}
		if !f.Exists() {
			continue
		}
		g.configFiles = append(g.configFiles, f)
		if n := f.ErrorCount(); n > 0 {
			g.errorf("%d error(s) found reading configuration file %q.", n, f.Filename())
		}
		g.applyConfigurationFile(f)
	}
	return append([]*conffile.File(nil), g.configFiles...)
}

// applyConfigurationFile copies the parameters of f into the options.
// Variables are loaded first so that every value of the file can use them.
func (g *Getopt) applyConfigurationFile(f *conffile.File) {
	params := f.Parameters()
	names := f.ParameterNames()

	prefix := ""
	if g.env.SectionVariablesName != "" {
		prefix = textutil.OptionWithDashes(g.env.SectionVariablesName) + "::"
		for _, name := range names {
			if variable, ok := strings.CutPrefix(name, prefix); ok {
				g.variables.Set(variable, params[name].Value)
			}
		}
	}

	for _, name := range names {
		if prefix != "" && strings.HasPrefix(name, prefix) {
			continue
		}
		p := params[name]
		where := fmt.Sprintf("%s:%d", f.Filename(), p.Line)

		o, ok := g.options[name]
		if !ok {
			if !g.env.Has(EnvironmentFlagDynamicParameters) {
				g.errorf("unknown option %q found in configuration file %q on line %d.", name, f.Filename(), p.Line)
				continue
			}
			dynamic, err := NewOption(name, NoShortName, FlagConfigurationFile|FlagDynamic)
			if err != nil {
				g.errorf("%v", err)
				continue
			}
			if err := g.insert(dynamic); err != nil {
				g.errorf("%v", err)
				continue
			}
			o = dynamic
		}
		if o.flags&FlagConfigurationFile == 0 {
			g.optionErrorf(o, "option %q is not supported in configuration files (found in %q).", name, f.Filename())
			continue
		}
		g.setFromString(o, p.Value, SourceConfiguration, where)
	}
}

// subscribe forwards later changes of the files to the options flagged
// FlagDynamicConfiguration
func (g *Getopt) subscribe(files []*conffile.File) {
	g.mu.RLock()
	dynamic := false
	for _, o := range g.order {
		if o.flags&FlagDynamicConfiguration != 0 {
			dynamic = true
			break
		}
	}
	g.mu.RUnlock()
	if !dynamic {
		return
	}

	subs := make([]subscription, 0, len(files))
	for _, f := range files {
		subs = append(subs, subscription{file: f, id: f.AddCallback(g.configurationChanged)})
	}

	g.mu.Lock()
	g.subscriptions = append(g.subscriptions, subs...)
	g.mu.Unlock()
}

// configurationChanged applies a change made to a configuration file after
// it was read
func (g *Getopt) configurationChanged(f *conffile.File, action conffile.Action, name, value string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	o, ok := g.options[name]
	if !ok || o.flags&FlagDynamicConfiguration == 0 {
		return
	}

	switch action {
	case conffile.ActionCreated, conffile.ActionUpdated:
		if o.Has(FlagMultiple) {
			o.Reset()
		}
		g.setFromString(o, value, SourceDynamic, f.Filename())
	case conffile.ActionErased:
		o.Reset()
	}
}

// setFromString stores a value read from a configuration file or a
// per-option environment variable. Flags take true/false keywords; multiple
// options split the value on their separators.
func (g *Getopt) setFromString(o *Option, value string, src Source, where string) {
	switch {
	case o.Has(FlagFlag):
		switch {
		case textutil.IsTrue(value):
			g.store(o, "true", src, where)
		case textutil.IsFalse(value):
			o.Reset()
		default:
			g.optionErrorf(o, "option %s cannot be given value %q in %s. It only accepts \"true\" or \"false\".",
				o.display(), value, where)
		}
	case o.Has(FlagMultiple):
		if _, err := o.assignMultiple(value, src, where); err != nil {
			g.optionErrorf(o, "%v", err)
		}
		g.traced(o, src, where)
	default:
		g.store(o, value, src, where)
	}
}

// store adds one value and reports logic errors as user errors
func (g *Getopt) store(o *Option, value string, src Source, where string) {
	status, err := o.assign(-1, value, src, where)
	switch {
	case err != nil:
		g.optionErrorf(o, "%v", err)
	case status == StatusRejected:
		if o.flags&FlagShowUsageOnError != 0 {
			g.usageOnError = true
		}
	case status == StatusAccepted:
		g.traced(o, src, where)
	}
}

func (g *Getopt) traced(o *Option, src Source, where string) {
	if !g.trace {
		return
	}
	g.sink.Emit(logsink.SeverityDebug, fmt.Sprintf("%s set from %s (%s)", o.display(), src, where))
}

// parseEnvironment reads the per-option variables then the main variable
func (g *Getopt) parseEnvironment() {
	for _, o := range g.order {
		name := g.environmentVariableFor(o)
		if name == "" {
			continue
		}
		if value, ok := g.getenv(name); ok {
			g.setFromString(o, value, SourceEnvironmentVariable, "$"+name)
		}
	}

	if g.env.EnvironmentVariableName == "" {
		return
	}
	if value, ok := g.getenv(g.env.EnvironmentVariableName); ok {
		g.parseArguments(textutil.SplitArgs(value), SourceEnvironmentVariable, FlagEnvironmentVariable)
	}
}

// parseArguments handles argv style tokens for options having allowed
func (g *Getopt) parseArguments(args []string, src Source, allowed Flag) {
	where := "command line"
	if src == SourceEnvironmentVariable {
		where = "$" + g.env.EnvironmentVariableName
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			if !g.acceptsDefault(allowed, "--") {
				return
			}
			for _, value := range args[i+1:] {
				g.store(g.defaultOption, value, src, where)
			}
			return

		case strings.HasPrefix(arg, "--"):
			name, value, hasValue := strings.Cut(arg[2:], "=")
			o := g.options[textutil.OptionWithDashes(name)]
			if o == nil {
				g.errorf("option --%s is not supported.", name)
				continue
			}
			if o.flags&allowed == 0 {
				g.optionErrorf(o, "option --%s is not supported in the %s.", name, sourceContext(src))
				continue
			}
			if hasValue {
				if o.Has(FlagFlag) {
					g.optionErrorf(o, "option --%s does not accept a value.", name)
					continue
				}
				g.store(o, value, src, where)
				continue
			}
			i = g.consumeArguments(o, args, i, src, where)

		case len(arg) > 1 && arg[0] == '-':
			for _, r := range arg[1:] {
				o := g.shortNames[r]
				if o == nil {
					g.errorf("option -%c is not supported.", r)
					continue
				}
				if o.flags&allowed == 0 {
					g.optionErrorf(o, "option -%c is not supported in the %s.", r, sourceContext(src))
					continue
				}
				i = g.consumeArguments(o, args, i, src, where)
			}

		default:
			if !g.acceptsDefault(allowed, arg) {
				continue
			}
			g.store(g.defaultOption, arg, src, where)
		}
	}
}

// acceptsDefault checks that a bare token can go to the default option
func (g *Getopt) acceptsDefault(allowed Flag, token string) bool {
	if g.defaultOption == nil {
		if token == "--" {
			g.errorf("no default options defined; thus \"--\" is not accepted by this program.")
		} else {
			g.errorf("no default options defined; we do not know what to do of %q; standalone parameters are not accepted by this program.", token)
		}
		return false
	}
	if g.defaultOption.flags&allowed == 0 {
		g.optionErrorf(g.defaultOption, "standalone parameter %q is not supported in this context.", token)
		return false
	}
	return true
}

// consumeArguments gives o the tokens following args[i] and returns the
// index of the last token used
func (g *Getopt) consumeArguments(o *Option, args []string, i int, src Source, where string) int {
	if o.Has(FlagFlag) {
		g.store(o, "true", src, where)
		return i
	}

	if o.Has(FlagMultiple) {
		found := false
		for i+1 < len(args) && isArgumentValue(args[i+1]) {
			i++
			found = true
			g.store(o, args[i], src, where)
		}
		if !found {
			g.missingArgument(o, src, where)
		}
		return i
	}

	if i+1 < len(args) && isArgumentValue(args[i+1]) {
		g.store(o, args[i+1], src, where)
		return i + 1
	}
	g.missingArgument(o, src, where)
	return i
}

// missingArgument uses the default of o, or reports an error when o
// requires an argument
func (g *Getopt) missingArgument(o *Option, src Source, where string) {
	target, err := o.target()
	if err != nil {
		g.optionErrorf(o, "%v", err)
		return
	}
	switch {
	case target.HasDefault():
		g.store(o, target.defaultValue, src, where)
	case o.Has(FlagRequired):
		g.optionErrorf(o, "option %s expects an argument.", o.display())
	default:
		g.store(o, "", src, where)
	}
}

func sourceContext(src Source) string {
	switch src {
	case SourceEnvironmentVariable:
		return "environment variable"
	case SourceConfiguration:
		return "configuration file"
	default:
		return "command line"
	}
}
