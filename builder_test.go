// FILE: lixenwraith/getopt/builder_test.go
package getopt

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/getopt/logsink"
)

// TestBuilder tests the builder pattern
func TestBuilder(t *testing.T) {
	newBuilder := func(fs afero.Fs, vars map[string]string) *Builder {
		return NewBuilder().
			WithProjectName("app").
			WithOptions(
				OptionDefinition{Name: "host", Flags: FlagSourceAll | FlagRequired, Default: "localhost"},
				OptionDefinition{Name: "port", Flags: FlagSourceAll | FlagRequired, Default: "8080", Validator: "integer(1...65535)"},
			).
			WithEnvironmentVariable("APP_OPTIONS").
			WithFs(fs).
			WithSink(logsink.Discard()).
			WithLookupEnv(mapLookup(vars))
	}

	t.Run("BasicBuilder", func(t *testing.T) {
		fs := newMemFs(t, map[string]string{"/srv/app.conf": "host = example.com\n"})
		g, err := newBuilder(fs, map[string]string{"APP_OPTIONS": "--port 9000"}).
			WithConfigurationFile("/srv/app.conf").
			WithArgs([]string{"app"}).
			Build()
		require.NoError(t, err)

		host, _ := g.String("host")
		assert.Equal(t, "example.com", host)
		port, _ := g.Long("port")
		assert.Equal(t, int64(9000), port)
	})

	t.Run("EmptyArgs", func(t *testing.T) {
		_, err := newBuilder(afero.NewMemMapFs(), nil).WithArgs(nil).Build()
		assert.ErrorIs(t, err, ErrLogic)
	})

	t.Run("SchemaError", func(t *testing.T) {
		_, err := NewBuilder().
			WithOptions(OptionDefinition{Name: "x"}, OptionDefinition{Name: "x"}).
			WithFs(afero.NewMemMapFs()).
			WithArgs([]string{"app"}).
			Build()
		assert.ErrorIs(t, err, ErrLogic)
	})

	t.Run("ParseError", func(t *testing.T) {
		g, err := newBuilder(afero.NewMemMapFs(), nil).WithArgs([]string{"app", "--port", "0"}).Build()
		requireExit(t, err, 1)
		assert.NotNil(t, g, "the registry is returned with parse errors")
	})

	t.Run("SystemCommand", func(t *testing.T) {
		var out bytes.Buffer
		_, err := newBuilder(afero.NewMemMapFs(), nil).
			WithEnvironment(Environment{ProjectName: "app", Version: "0.9.0"}).
			WithEnvironmentFlags(EnvironmentFlagSystemParameters | EnvironmentFlagProcessSystemParameters).
			WithOutput(&out).
			WithArgs([]string{"app", "--version"}).
			Build()
		requireExit(t, err, 0)
		assert.Equal(t, "0.9.0\n", out.String())
	})

	t.Run("DotEnv", func(t *testing.T) {
		fs := newMemFs(t, map[string]string{"/srv/.env": "APP_OPTIONS=\"--host dotenv.example\"\n"})
		g, err := newBuilder(fs, nil).WithDotEnv("/srv/.env", "/srv/missing.env").WithArgs([]string{"app"}).Build()
		require.NoError(t, err)
		host, _ := g.String("host")
		assert.Equal(t, "dotenv.example", host)
	})
}

// TestBuilderWithValidator tests the validation hooks
func TestBuilderWithValidator(t *testing.T) {
	base := func() *Builder {
		return NewBuilder().
			WithOptions(
				OptionDefinition{Name: "min", Flags: FlagCommandLine | FlagRequired, Default: "1"},
				OptionDefinition{Name: "max", Flags: FlagCommandLine | FlagRequired, Default: "10"},
			).
			WithFs(afero.NewMemMapFs()).
			WithSink(logsink.Discard())
	}
	rangeCheck := func(g *Getopt) error {
		lo, err := g.Long("min")
		if err != nil {
			return err
		}
		hi, err := g.Long("max")
		if err != nil {
			return err
		}
		if lo > hi {
			return fmt.Errorf("min %d is larger than max %d", lo, hi)
		}
		return nil
	}

	t.Run("Passes", func(t *testing.T) {
		calls := 0
		_, err := base().
			WithValidator(rangeCheck).
			WithValidator(func(*Getopt) error { calls++; return nil }).
			WithValidator(nil).
			WithArgs([]string{"app", "--min", "5"}).
			Build()
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("Fails", func(t *testing.T) {
		_, err := base().WithValidator(rangeCheck).WithArgs([]string{"app", "--min", "50"}).Build()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "options validation failed")
		assert.Contains(t, err.Error(), "min 50 is larger than max 10")
	})
}

func TestBuildAndScan(t *testing.T) {
	type settings struct {
		Host string `getopt:"host"`
		Port int    `getopt:"port"`
	}

	var s settings
	err := NewBuilder().
		WithOptions(
			OptionDefinition{Name: "host", Flags: FlagCommandLine | FlagRequired, Default: "localhost"},
			OptionDefinition{Name: "port", Flags: FlagCommandLine | FlagRequired, Default: "8080"},
		).
		WithFs(afero.NewMemMapFs()).
		WithArgs([]string{"app", "--port", "9090"}).
		BuildAndScan(&s)
	require.NoError(t, err)
	assert.Equal(t, settings{Host: "localhost", Port: 9090}, s)

	err = NewBuilder().WithFs(afero.NewMemMapFs()).WithArgs([]string{"app"}).BuildAndScan(s)
	assert.Error(t, err)
}
