// FILE: lixenwraith/getopt/convenience_test.go
package getopt

import (
	"bytes"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func convenienceEnvironment() Environment {
	return appEnvironment(
		OptionDefinition{Name: "level", Flags: FlagSourceAll | FlagRequired, Default: "1"},
		OptionDefinition{Name: "name", Flags: FlagSourceAll | FlagRequired},
		OptionDefinition{Name: "verbose", ShortName: 'v', Flags: FlagCommandLine | FlagEnvironmentVariable | FlagFlag},
		OptionDefinition{Name: "tags", Flags: FlagSourceAll | FlagRequired | FlagMultiple},
		OptionDefinition{Name: "db::host", Flags: FlagSourceAll | FlagRequired, Default: "localhost"},
		OptionDefinition{Name: "--", Flags: FlagCommandLine | FlagEnvironmentVariable | FlagMultiple},
	)
}

func TestOptionsToString(t *testing.T) {
	h := newHarness(t, convenienceEnvironment(), nil, nil)
	h.parse(t, "--level", "1", "--name", "hello world", "-v", "--tags", "a", "b", "--", "f1", "f 2")

	assert.Equal(t, `--name 'hello world' --verbose --tags a b -- f1 'f 2'`, h.g.OptionsToString(false, false))
	assert.Equal(t, `/usr/bin/app --level 1 --name 'hello world' --verbose --tags a b -- f1 'f 2'`,
		h.g.OptionsToString(true, true))

	t.Run("RoundTrip", func(t *testing.T) {
		line := h.g.OptionsToString(false, true)
		env := convenienceEnvironment()
		h2 := newHarness(t, env, nil, map[string]string{"APP_OPTIONS": line})
		h2.parse(t)

		name, _ := h2.g.String("name")
		assert.Equal(t, "hello world", name)
		files, _ := h2.g.Values("--")
		assert.Equal(t, []string{"f1", "f 2"}, files)
	})

	t.Run("Empty", func(t *testing.T) {
		h := newHarness(t, convenienceEnvironment(), nil, nil)
		h.parse(t)
		assert.Empty(t, h.g.OptionsToString(false, false))
	})
}

func TestDump(t *testing.T) {
	h := newHarness(t, convenienceEnvironment(), nil, nil)
	h.parse(t, "--name", "x", "-v", "--tags", "a", "b")

	var buf bytes.Buffer
	require.NoError(t, h.g.Dump(&buf))

	var got map[string]any
	_, err := toml.Decode(buf.String(), &got)
	require.NoError(t, err, buf.String())

	assert.Equal(t, "1", got["level"])
	assert.Equal(t, "x", got["name"])
	assert.Equal(t, true, got["verbose"])
	assert.Equal(t, []any{"a", "b"}, got["tags"])
	assert.Equal(t, map[string]any{"host": "localhost"}, got["db"])
	assert.NotContains(t, got, "--")
}

func TestDebug(t *testing.T) {
	env := convenienceEnvironment()
	env.Options = append(env.Options, OptionDefinition{Name: "lvl", Flags: FlagCommandLine | FlagRequired, Alias: "level"})
	h := newHarness(t, env, map[string]string{"/etc/app/app.conf": "name = from-file\n"}, nil)
	h.parse(t, "--lvl", "2")

	out := h.g.Debug()
	assert.Contains(t, out, "Parsed: true\n")
	assert.Contains(t, out, "Configuration file: /etc/app/app.conf\n")
	assert.Contains(t, out, "  --lvl: alias of --level\n")
	assert.Contains(t, out, `Values: ["2"]`)
	assert.Contains(t, out, `Default: "localhost"`)
	assert.Contains(t, out, "Trace: from-file [configuration /etc/app/app.conf:1]")
}

func TestQuick(t *testing.T) {
	g, err := Quick("getopt-quick-test", []OptionDefinition{
		{Name: "level", Flags: FlagCommandLine | FlagRequired, Default: "1"},
	}, []string{"prog", "--level", "3"})
	require.NoError(t, err)

	n, err := g.Long("level")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, "prog", g.ProgramName())

	env := QuickEnvironment("my-tool", nil)
	assert.Equal(t, "MY_TOOL_OPTIONS", env.EnvironmentVariableName)
	assert.Equal(t, "MY_TOOL_", env.EnvironmentVariableIntro)
	assert.Equal(t, "my-tool.conf", env.ConfigurationFilename)
	assert.True(t, env.Has(EnvironmentFlagSystemParameters|EnvironmentFlagXDG))
}
