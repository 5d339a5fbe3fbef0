package getopt

import (
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"

	"github.com/lixenwraith/getopt/conffile"
	"github.com/lixenwraith/getopt/logsink"
)

// EnvironmentFlag selects registry wide behavior
type EnvironmentFlag uint32

const (
	// EnvironmentFlagSystemParameters adds --help, --version and the other
	// system options to the schema
	EnvironmentFlagSystemParameters EnvironmentFlag = 1 << iota

	// EnvironmentFlagProcessSystemParameters makes FinishParsing run the
	// system commands found on the command line
	EnvironmentFlagProcessSystemParameters

	// EnvironmentFlagDynamicParameters accepts unknown configuration file
	// parameters and creates options for them
	EnvironmentFlagDynamicParameters

	// EnvironmentFlagXDG searches the XDG configuration directories
	EnvironmentFlagXDG
)

// OptionDefinition is one static entry of the option schema
type OptionDefinition struct {
	Name      string
	ShortName rune
	Flags     Flag

	// Default is used when Flags has FlagHasDefault or the string is not empty
	Default string
	Help    string

	// Validator is a specification such as "integer(1...10)"
	Validator  string
	Separators []string

	// Alias names the destination option and implies FlagAlias
	Alias string

	// EnvironmentVariableName overrides the generated variable name
	EnvironmentVariableName string
}

// Environment describes the program whose options are parsed
type Environment struct {
	ProjectName string
	GroupName   string
	Options     []OptionDefinition

	// OptionsFilesDirectory holds <project>.<ext> definitions files
	OptionsFilesDirectory string

	// EnvironmentVariableName is parsed like a command line
	EnvironmentVariableName string

	// EnvironmentVariableIntro prefixes per-option variables, e.g. "APP_"
	// makes --log-level read APP_LOG_LEVEL
	EnvironmentVariableIntro string

	// SectionVariablesName is the configuration section holding variables
	SectionVariablesName string

	// ConfigurationFiles are read first, in order
	ConfigurationFiles []string

	// ConfigurationFilename is searched in ConfigurationDirectories
	ConfigurationFilename    string
	ConfigurationDirectories []string
	ConfigurationDialect     conffile.Dialect

	EnvironmentFlags EnvironmentFlag

	HelpHeader string
	HelpFooter string
	Version    string
	License    string
	Copyright  string
	BuildDate  string
}

// Has reports whether every bit of f is set
func (e *Environment) Has(f EnvironmentFlag) bool { return e.EnvironmentFlags&f == f }

// Setting adjusts how a registry reaches the outside world
type Setting func(*Getopt)

// WithFs sets the filesystem used for definitions and configuration files.
// A private configuration file cache is created on it unless WithCache is
// also given.
func WithFs(fs afero.Fs) Setting {
	return func(g *Getopt) {
		if fs != nil {
			g.fs = fs
		}
	}
}

// WithCache shares a configuration file cache between registries
func WithCache(c *conffile.Cache) Setting {
	return func(g *Getopt) {
		g.cache = c
	}
}

// WithSink sets where parse errors and warnings are reported. Without
// WithCache, configuration file messages are reported there as well; an
// injected cache keeps reporting to its own sink.
func WithSink(sink logsink.Sink) Setting {
	return func(g *Getopt) {
		if sink != nil {
			g.baseSink = sink
			g.ownSink = true
		}
	}
}

// WithOutput sets where system commands such as --help print
func WithOutput(w io.Writer) Setting {
	return func(g *Getopt) {
		if w != nil {
			g.output = w
		}
	}
}

// WithLookupEnv replaces os.LookupEnv
func WithLookupEnv(fn func(string) (string, bool)) Setting {
	return func(g *Getopt) {
		if fn != nil {
			g.lookupEnv = fn
		}
	}
}

// WithDotEnv reads variables from .env style files. They are visible only
// where the real environment does not define the same name.
func WithDotEnv(paths ...string) Setting {
	return func(g *Getopt) {
		g.dotEnvFiles = append(g.dotEnvFiles, paths...)
	}
}

// WithTrace reports every accepted assignment at debug severity
func WithTrace(enabled bool) Setting {
	return func(g *Getopt) {
		g.trace = enabled
	}
}

// loadDotEnv reads the .env files; missing files are skipped
func (g *Getopt) loadDotEnv() error {
	if len(g.dotEnvFiles) == 0 {
		return nil
	}
	g.dotEnv = make(map[string]string)
	for _, path := range g.dotEnvFiles {
		f, err := g.fs.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return errors.Errorf("opening %s: %w", path, err)
		}
		values, err := godotenv.Parse(f)
		_ = f.Close()
		if err != nil {
			return errors.Errorf("parsing %s: %w", path, err)
		}
		for k, v := range values {
			if _, ok := g.dotEnv[k]; !ok {
				g.dotEnv[k] = v
			}
		}
	}
	return nil
}

// getenv looks a variable up in the environment, then in the .env files
func (g *Getopt) getenv(name string) (string, bool) {
	if v, ok := g.lookupEnv(name); ok {
		return v, true
	}
	v, ok := g.dotEnv[name]
	return v, ok
}
