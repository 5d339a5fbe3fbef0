// FILE: lixenwraith/getopt/getopt.go
package getopt

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/lixenwraith/getopt/conffile"
	"github.com/lixenwraith/getopt/internal/textutil"
	"github.com/lixenwraith/getopt/logsink"
)

// subscription is a callback registered on a configuration file
type subscription struct {
	file *conffile.File
	id   conffile.CallbackID
}

// Getopt is the option registry: the schema built from an Environment and
// the values resolved from configuration files, the environment and the
// command line.
type Getopt struct {
	mu sync.RWMutex

	env         Environment
	fs          afero.Fs
	cache       *conffile.Cache
	baseSink    logsink.Sink
	ownSink     bool
	sink        *logsink.Counter
	output      io.Writer
	lookupEnv   func(string) (string, bool)
	dotEnvFiles []string
	dotEnv      map[string]string
	trace       bool

	options         map[string]*Option
	shortNames      map[rune]*Option
	order           []*Option
	aliasTargets    map[string]string
	defaultOption   *Option
	definitionsFile string

	programName     string
	programFullname string
	parsed          bool
	usageOnError    bool
	variables       *Variables
	configDirs      []string
	configFiles     []*conffile.File
	subscriptions   []subscription
}

// New builds the schema described by env: the static options, the system
// options, then the definitions file. Aliases are linked last. Errors wrap
// ErrLogic or ErrDefinitions.
func New(env Environment, settings ...Setting) (*Getopt, error) {
	g := &Getopt{
		env:          env,
		baseSink:     logsink.Default(),
		output:       os.Stdout,
		lookupEnv:    os.LookupEnv,
		options:      make(map[string]*Option),
		shortNames:   make(map[rune]*Option),
		aliasTargets: make(map[string]string),
		variables:    NewVariables(),
	}
	for _, s := range settings {
		s(g)
	}
	g.sink = logsink.NewCounter(g.baseSink)

	// the shared cache reports to the default sink; a registry with its own
	// filesystem or sink reads through a private cache reporting to it
	switch {
	case g.cache == nil && g.fs == nil && !g.ownSink:
		g.cache = conffile.DefaultCache()
	case g.cache == nil:
		g.cache = conffile.NewCache(conffile.WithFs(g.fs), conffile.WithSink(g.sink))
	}
	if g.fs == nil {
		g.fs = g.cache.Fs()
	}

	if err := g.env.ConfigurationDialect.Validate(); err != nil {
		return nil, err
	}
	if err := g.loadDotEnv(); err != nil {
		return nil, err
	}

	for _, def := range env.Options {
		if err := g.AddOption(def); err != nil {
			return nil, err
		}
	}
	if g.env.Has(EnvironmentFlagSystemParameters) {
		if err := g.addSystemOptions(); err != nil {
			return nil, err
		}
	}
	if err := g.loadDefinitions(); err != nil {
		return nil, err
	}
	if err := g.LinkAliases(); err != nil {
		return nil, err
	}

	return g, nil
}

// Reset clears every value and the parsed state. The schema is kept.
func (g *Getopt) Reset() {
	g.mu.Lock()
	subs := g.subscriptions
	g.subscriptions = nil

	for _, o := range g.order {
		if o.flags&FlagAlias == 0 {
			o.Reset()
		}
	}
	g.parsed = false
	g.usageOnError = false
	g.configDirs = nil
	g.configFiles = nil
	g.sink.Reset()
	g.mu.Unlock()

	for _, s := range subs {
		s.file.RemoveCallback(s.id)
	}
}

// Option returns the option called name, or nil. Underscores are accepted
// in place of dashes.
func (g *Getopt) Option(name string) *Option {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.options[textutil.OptionWithDashes(name)]
}

// OptionByShortName returns the option using r as its short name, or nil
func (g *Getopt) OptionByShortName(r rune) *Option {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.shortNames[r]
}

// Options returns the schema in definition order
func (g *Getopt) Options() []*Option {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]*Option(nil), g.order...)
}

// DefaultOption returns the option receiving bare arguments, or nil
func (g *Getopt) DefaultOption() *Option {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.defaultOption
}

// Environment returns a copy of the descriptor used to build the registry
func (g *Getopt) Environment() Environment {
	return g.env
}

// ProgramName returns the base name of args[0] from the last parse
func (g *Getopt) ProgramName() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.programName
}

// ProgramFullname returns args[0] from the last parse
func (g *Getopt) ProgramFullname() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.programFullname
}

// Variables returns the table used for ${name} expansion
func (g *Getopt) Variables() *Variables { return g.variables }

// Cache returns the configuration file cache
func (g *Getopt) Cache() *conffile.Cache { return g.cache }

// ErrorCount returns the number of errors reported since the last Reset
func (g *Getopt) ErrorCount() int { return g.sink.Errors() }

// IsParsed reports whether FinishParsing ran since the last Reset
func (g *Getopt) IsParsed() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.parsed
}

// errorf reports a user error
func (g *Getopt) errorf(format string, args ...any) {
	g.sink.Emit(logsink.SeverityError, fmt.Sprintf(format, args...))
}

// optionErrorf reports a user error about o
func (g *Getopt) optionErrorf(o *Option, format string, args ...any) {
	if o != nil && o.flags&FlagShowUsageOnError != 0 {
		g.usageOnError = true
	}
	g.errorf(format, args...)
}

// environmentVariableFor returns the per-option variable name of o, empty
// when o cannot be set that way
func (g *Getopt) environmentVariableFor(o *Option) string {
	if o.flags&FlagEnvironmentVariable == 0 {
		return ""
	}
	if o.environmentVariableName != "" {
		return o.environmentVariableName
	}
	if g.env.EnvironmentVariableIntro == "" || o.name == DefaultOptionName {
		return ""
	}
	name := strings.ReplaceAll(o.name, "::", "__")
	return g.env.EnvironmentVariableIntro + strings.ToUpper(textutil.OptionWithUnderscores(name))
}
