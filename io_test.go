// FILE: lixenwraith/getopt/io_test.go
package getopt

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/getopt/conffile"
	"github.com/lixenwraith/getopt/logsink"
)

func ioEnvironment() Environment {
	return appEnvironment(
		OptionDefinition{Name: "level", Flags: FlagSourceAll | FlagRequired, Default: "1"},
		OptionDefinition{Name: "name", Flags: FlagSourceAll | FlagRequired},
		OptionDefinition{Name: "verbose", Flags: FlagSourceAll | FlagFlag},
		OptionDefinition{Name: "tags", Flags: FlagSourceAll | FlagRequired | FlagMultiple, Separators: []string{","}},
		OptionDefinition{Name: "db::host", Flags: FlagSourceAll | FlagRequired, Default: "localhost"},
		OptionDefinition{Name: "cli-only", Flags: FlagCommandLine | FlagRequired},
	)
}

func TestSaveConfiguration(t *testing.T) {
	h := newHarness(t, ioEnvironment(), nil, nil)

	err := h.g.SaveConfiguration("/etc/app/saved.conf", false, conffile.SaveOptions{})
	assert.ErrorIs(t, err, ErrNotParsed)

	h.parse(t, "--name", "hello world", "--verbose", "--tags", "a", "b,c", "--cli-only", "x")
	require.NoError(t, h.g.SaveConfiguration("/etc/app/saved.conf", true, conffile.SaveOptions{}))

	exists, err := afero.Exists(h.fs, "/etc/app/saved.conf")
	require.NoError(t, err)
	require.True(t, exists)

	c := conffile.NewCache(conffile.WithFs(h.fs), conffile.WithSink(logsink.Discard()))
	f, err := c.Get(conffile.Setup{Filename: "/etc/app/saved.conf"})
	require.NoError(t, err)

	assert.Equal(t, "1", f.GetParameter("level"), "defaults are kept on request")
	assert.Equal(t, "hello world", f.GetParameter("name"))
	assert.Equal(t, "true", f.GetParameter("verbose"))
	assert.Equal(t, "localhost", f.GetParameter("db::host"))
	assert.False(t, f.HasParameter("cli-only"))

	t.Run("ReadBack", func(t *testing.T) {
		env := ioEnvironment()
		env.ConfigurationFiles = []string{"/etc/app/saved.conf"}
		g, err := New(env, WithFs(h.fs), WithSink(logsink.Discard()), WithLookupEnv(mapLookup(nil)))
		require.NoError(t, err)
		require.NoError(t, g.Parse([]string{"app"}))

		tags, _ := g.Values("tags")
		assert.Equal(t, []string{"a", "b,c"}, tags, "values holding a separator are quoted")
		verbose, _ := g.Bool("verbose")
		assert.True(t, verbose)
	})
}

func TestExportEnv(t *testing.T) {
	h := newHarness(t, ioEnvironment(), nil, nil)
	h.parse(t, "--level", "1", "--name", "x", "--verbose", "--tags", "a", "b", "--cli-only", "y")

	assert.Equal(t, map[string]string{
		"APP_NAME":    "x",
		"APP_VERBOSE": "true",
		"APP_TAGS":    "a,b",
	}, h.g.ExportEnv())
}

func TestJoinValues(t *testing.T) {
	tests := []struct {
		values     []string
		separators []string
		want       string
	}{
		{[]string{"a", "b"}, nil, "a b"},
		{[]string{"a b", "c"}, nil, `"a b" c`},
		{[]string{"x;y", "z"}, []string{",", ";"}, `"x;y",z`},
		{[]string{`say "hi", bye`}, []string{","}, `'say "hi", bye'`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, joinValues(tt.values, tt.separators))
	}
}
