// File: lixenwraith/getopt/builder.go
package getopt

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"

	"github.com/lixenwraith/getopt/conffile"
	"github.com/lixenwraith/getopt/logsink"
)

// ValidatorFunc defines the signature for a function that can validate a
// parsed registry. It should return an error if validation fails.
type ValidatorFunc func(g *Getopt) error

// Builder provides a fluent interface for building registries
type Builder struct {
	env        Environment
	settings   []Setting
	args       []string
	err        error
	validators []ValidatorFunc
}

// NewBuilder creates a new registry builder. Arguments default to os.Args.
func NewBuilder() *Builder {
	return &Builder{
		args:       os.Args,
		validators: make([]ValidatorFunc, 0),
	}
}

// WithEnvironment replaces the whole descriptor
func (b *Builder) WithEnvironment(env Environment) *Builder {
	b.env = env
	return b
}

// WithProjectName sets the project name
func (b *Builder) WithProjectName(name string) *Builder {
	b.env.ProjectName = name
	return b
}

// WithOptions appends option definitions
func (b *Builder) WithOptions(defs ...OptionDefinition) *Builder {
	b.env.Options = append(b.env.Options, defs...)
	return b
}

// WithConfigurationFile appends an explicit configuration file
func (b *Builder) WithConfigurationFile(path string) *Builder {
	b.env.ConfigurationFiles = append(b.env.ConfigurationFiles, path)
	return b
}

// WithEnvironmentVariable sets the variable parsed like a command line
func (b *Builder) WithEnvironmentVariable(name string) *Builder {
	b.env.EnvironmentVariableName = name
	return b
}

// WithEnvironmentFlags adds registry flags
func (b *Builder) WithEnvironmentFlags(flags EnvironmentFlag) *Builder {
	b.env.EnvironmentFlags |= flags
	return b
}

// WithArgs sets the command-line arguments, args[0] being the program
func (b *Builder) WithArgs(args []string) *Builder {
	if len(args) == 0 {
		b.err = errors.Errorf("%w: the arguments must at least include the program name", ErrLogic)
		return b
	}
	b.args = args
	return b
}

// WithFs sets the filesystem
func (b *Builder) WithFs(fs afero.Fs) *Builder {
	b.settings = append(b.settings, WithFs(fs))
	return b
}

// WithCache shares a configuration file cache
func (b *Builder) WithCache(c *conffile.Cache) *Builder {
	b.settings = append(b.settings, WithCache(c))
	return b
}

// WithSink sets where errors are reported
func (b *Builder) WithSink(sink logsink.Sink) *Builder {
	b.settings = append(b.settings, WithSink(sink))
	return b
}

// WithOutput sets where system commands print
func (b *Builder) WithOutput(w io.Writer) *Builder {
	b.settings = append(b.settings, WithOutput(w))
	return b
}

// WithLookupEnv replaces os.LookupEnv
func (b *Builder) WithLookupEnv(fn func(string) (string, bool)) *Builder {
	b.settings = append(b.settings, WithLookupEnv(fn))
	return b
}

// WithDotEnv reads .env files beneath the real environment
func (b *Builder) WithDotEnv(paths ...string) *Builder {
	b.settings = append(b.settings, WithDotEnv(paths...))
	return b
}

// WithValidator adds a validation function that runs at the end of the build process
// Multiple validators can be added and are executed in the order they are added
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// Build creates the registry and parses the arguments. A handled system
// command is returned as an *ExitError with code 0 together with the
// registry.
func (b *Builder) Build() (*Getopt, error) {
	if b.err != nil {
		return nil, b.err
	}

	g, err := New(b.env, b.settings...)
	if err != nil {
		return nil, err
	}

	if err := g.Parse(b.args); err != nil {
		return g, err
	}

	for _, validator := range b.validators {
		if err := validator(g); err != nil {
			return g, errors.Errorf("options validation failed: %w", err)
		}
	}

	return g, nil
}

// MustBuild is like Build but panics on error. A handled system command
// exits the process with status 0.
func (b *Builder) MustBuild() *Getopt {
	g, err := b.Build()
	if err != nil {
		var exit *ExitError
		if errors.As(err, &exit) && exit.Code == 0 {
			os.Exit(0)
		}
		panic(fmt.Sprintf("getopt build failed: %v", err))
	}
	return g
}

// BuildAndScan builds and decodes the resolved options into the provided
// target struct pointer
func (b *Builder) BuildAndScan(target any) error {
	g, err := b.Build()
	if err != nil {
		return err
	}

	if err := g.Scan("", target); err != nil {
		return errors.Errorf("failed to scan options into target: %w", err)
	}
	return nil
}
