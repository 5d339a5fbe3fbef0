// FILE: lixenwraith/getopt/getopt_test.go
package getopt

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/getopt/logsink"
)

// harness bundles a registry with the collaborators the tests inspect
type harness struct {
	g   *Getopt
	fs  afero.Fs
	rec *logsink.Recorder
	out *bytes.Buffer
}

// mapLookup returns a LookupEnv replacement reading vars
func mapLookup(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

// writeFiles creates files on fs, failing the test on error
func writeFiles(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
	}
}

// newMemFs returns an in-memory filesystem holding files
func newMemFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, files)
	return fs
}

// newHarness builds a registry on an in-memory filesystem holding files,
// with vars as the whole environment
func newHarness(t *testing.T, env Environment, files, vars map[string]string, settings ...Setting) *harness {
	t.Helper()
	h := &harness{
		fs:  afero.NewMemMapFs(),
		rec: &logsink.Recorder{},
		out: &bytes.Buffer{},
	}
	writeFiles(t, h.fs, files)

	all := append([]Setting{
		WithFs(h.fs),
		WithSink(h.rec),
		WithOutput(h.out),
		WithLookupEnv(mapLookup(vars)),
	}, settings...)

	g, err := New(env, all...)
	require.NoError(t, err)
	h.g = g
	return h
}

// parse runs Parse and requires success
func (h *harness) parse(t *testing.T, args ...string) {
	t.Helper()
	err := h.g.Parse(append([]string{"/usr/bin/app"}, args...))
	require.NoError(t, err, "messages: %v", h.rec.Entries())
}

func TestNew(t *testing.T) {
	t.Run("LogicErrors", func(t *testing.T) {
		cases := map[string][]OptionDefinition{
			"EmptyName":       {{Name: ""}},
			"LeadingDash":     {{Name: "-verbose"}},
			"DashShortName":   {{Name: "verbose", ShortName: '-'}},
			"DuplicateName":   {{Name: "level"}, {Name: "level"}},
			"DuplicateShort":  {{Name: "level", ShortName: 'l'}, {Name: "limit", ShortName: 'l'}},
			"TwoDefaults":     {{Name: "--", Flags: FlagCommandLine}, {Name: "files", Flags: FlagCommandLine | FlagDefaultOption}},
			"DefaultShort":    {{Name: "--", ShortName: 'f'}},
			"DefaultFlag":     {{Name: "files", Flags: FlagDefaultOption | FlagFlag}},
			"BadValidator":    {{Name: "level", Validator: "integer(x)"}},
			"UnknownValidate": {{Name: "level", Validator: "prime"}},
			"AliasUnknown":    {{Name: "lvl", Alias: "level"}},
			"AliasOfAlias": {
				{Name: "level", Flags: FlagRequired},
				{Name: "lvl", Alias: "level", Flags: FlagRequired},
				{Name: "l2", Alias: "lvl", Flags: FlagRequired},
			},
			"AliasMismatch": {
				{Name: "verbose", Flags: FlagFlag},
				{Name: "v", Alias: "verbose", Flags: FlagRequired},
			},
		}
		for name, defs := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := New(Environment{Options: defs}, WithFs(afero.NewMemMapFs()), WithSink(logsink.Discard()))
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrLogic)
			})
		}
	})

	t.Run("InvalidDialect", func(t *testing.T) {
		env := Environment{}
		env.ConfigurationDialect.LineContinuation = 42
		_, err := New(env, WithFs(afero.NewMemMapFs()))
		assert.Error(t, err)
	})

	t.Run("DefaultSources", func(t *testing.T) {
		h := newHarness(t, Environment{Options: []OptionDefinition{
			{Name: "plain"},
			{Name: "from-env", Flags: FlagEnvironmentVariable},
			{Name: "with_default", Default: "x"},
		}}, nil, nil)

		assert.Equal(t, FlagCommandLine, h.g.Option("plain").Flags())
		assert.Equal(t, FlagEnvironmentVariable, h.g.Option("from-env").Flags())

		o := h.g.Option("with-default")
		require.NotNil(t, o, "underscores are accepted in names")
		assert.True(t, o.HasDefault())
		assert.Equal(t, "x", o.Default())
	})

	t.Run("SystemOptions", func(t *testing.T) {
		h := newHarness(t, Environment{
			ProjectName:      "app",
			GroupName:        "net",
			EnvironmentFlags: EnvironmentFlagSystemParameters,
		}, nil, nil)

		for _, name := range []string{"help", "long-help", "version", "copyright", "license",
			"build-date", "environment-variable-name", "configuration-filenames",
			"path-to-option-definitions", "show-option-sources", "config-dir", "net-help"} {
			assert.NotNil(t, h.g.Option(name), name)
		}
		assert.Equal(t, "help", h.g.OptionByShortName('h').Name())
		assert.Equal(t, "version", h.g.OptionByShortName('V').Name())
	})

	t.Run("SystemOptionConflict", func(t *testing.T) {
		_, err := New(Environment{
			Options:          []OptionDefinition{{Name: "version", Flags: FlagRequired}},
			EnvironmentFlags: EnvironmentFlagSystemParameters,
		}, WithFs(afero.NewMemMapFs()))
		assert.ErrorIs(t, err, ErrLogic)
	})
}

func TestAliases(t *testing.T) {
	env := Environment{Options: []OptionDefinition{
		{Name: "level", ShortName: 'l', Flags: FlagSourceAll | FlagRequired, Default: "1"},
		{Name: "lvl", Flags: FlagCommandLine | FlagRequired, Alias: "level"},
	}}

	h := newHarness(t, env, nil, nil)
	h.parse(t, "--lvl", "4")

	v, err := h.g.String("level")
	require.NoError(t, err)
	assert.Equal(t, "4", v)

	v, err = h.g.String("lvl")
	require.NoError(t, err)
	assert.Equal(t, "4", v, "aliases read through to their destination")

	assert.Same(t, h.g.Option("level"), h.g.Option("lvl").AliasDestination())
}

func TestReset(t *testing.T) {
	env := Environment{Options: []OptionDefinition{
		{Name: "level", Flags: FlagCommandLine | FlagRequired},
	}}
	h := newHarness(t, env, nil, nil)
	h.parse(t, "--level", "3")
	assert.True(t, h.g.IsParsed())

	h.g.Reset()
	assert.False(t, h.g.IsParsed())
	assert.False(t, h.g.Option("level").IsDefined())
	assert.Equal(t, 0, h.g.ErrorCount())

	_, err := h.g.String("level")
	assert.ErrorIs(t, err, ErrNotParsed)
}

func TestEnvironmentVariableNames(t *testing.T) {
	env := Environment{
		EnvironmentVariableIntro: "APP_",
		Options: []OptionDefinition{
			{Name: "log-level", Flags: FlagEnvironmentVariable | FlagRequired},
			{Name: "db::host", Flags: FlagEnvironmentVariable | FlagRequired},
			{Name: "token", Flags: FlagEnvironmentVariable | FlagRequired, EnvironmentVariableName: "SECRET_TOKEN"},
			{Name: "cli-only", Flags: FlagCommandLine | FlagRequired},
		},
	}
	h := newHarness(t, env, nil, nil)

	assert.Equal(t, "APP_LOG_LEVEL", h.g.environmentVariableFor(h.g.Option("log-level")))
	assert.Equal(t, "APP_DB__HOST", h.g.environmentVariableFor(h.g.Option("db::host")))
	assert.Equal(t, "SECRET_TOKEN", h.g.environmentVariableFor(h.g.Option("token")))
	assert.Empty(t, h.g.environmentVariableFor(h.g.Option("cli-only")))
}
