package getopt

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterStruct(t *testing.T) {
	type database struct {
		Host string `getopt:"host" help:"database host"`
		Port int    `getopt:"port"`
	}
	type settings struct {
		Name     string
		Verbose  bool          `getopt:"verbose"`
		Paths    []string      `getopt:"paths"`
		Timeout  time.Duration `getopt:"timeout"`
		Started  time.Time     `getopt:"started"`
		Endpoint *url.URL      `getopt:"endpoint"`
		DB       database      `getopt:"db"`
		Backup   *database     `getopt:"backup"`
		Skipped  string        `getopt:"-"`
		internal int
	}

	h := newHarness(t, Environment{}, nil, nil)
	endpoint, _ := url.Parse("https://example.com/api")
	require.NoError(t, h.g.RegisterStruct("svc", settings{
		Name:     "demo",
		Paths:    []string{"/a", "/b"},
		Timeout:  5 * time.Second,
		Started:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Endpoint: endpoint,
		DB:       database{Host: "db.local"},
	}))

	assert.Equal(t, []string{
		"svc::db::host", "svc::db::port", "svc::endpoint", "svc::name",
		"svc::paths", "svc::started", "svc::timeout", "svc::verbose",
	}, h.g.OptionNames("svc::"))

	tests := []struct {
		name  string
		flags Flag
		def   string
	}{
		{"svc::name", structSources | FlagRequired | FlagHasDefault, "demo"},
		{"svc::verbose", structSources | FlagFlag, ""},
		{"svc::paths", structSources | FlagRequired | FlagMultiple | FlagHasDefault, "/a,/b"},
		{"svc::timeout", structSources | FlagRequired | FlagHasDefault, "5s"},
		{"svc::started", structSources | FlagRequired | FlagHasDefault, "2026-01-02T03:04:05Z"},
		{"svc::endpoint", structSources | FlagRequired | FlagHasDefault, "https://example.com/api"},
		{"svc::db::host", structSources | FlagRequired | FlagHasDefault, "db.local"},
		{"svc::db::port", structSources | FlagRequired, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := h.g.Option(tt.name)
			require.NotNil(t, o)
			assert.Equal(t, tt.flags, o.Flags())
			assert.Equal(t, tt.def, o.Default())
		})
	}

	assert.Equal(t, "database host", h.g.Option("svc::db::host").Help())
	assert.Equal(t, []string{","}, h.g.Option("svc::paths").Separators())

	t.Run("Errors", func(t *testing.T) {
		assert.ErrorIs(t, h.g.RegisterStruct("", 42), ErrLogic)
		assert.ErrorIs(t, h.g.RegisterStruct("", (*settings)(nil)), ErrLogic)
		assert.ErrorIs(t, h.g.RegisterStruct("", struct{ Blob []byte }{}), ErrLogic)
		assert.ErrorIs(t, h.g.RegisterStruct("", struct{ Labels map[string]string }{}), ErrLogic)
		assert.ErrorIs(t, h.g.RegisterStruct("svc", settings{}), ErrLogic, "names are already taken")
	})
}

func TestRemoveOption(t *testing.T) {
	env := Environment{Options: []OptionDefinition{
		{Name: "level", ShortName: 'l', Flags: FlagCommandLine | FlagRequired},
		{Name: "lvl", Flags: FlagCommandLine | FlagRequired, Alias: "level"},
		{Name: "db::host", Flags: FlagCommandLine | FlagRequired},
		{Name: "db::port", Flags: FlagCommandLine | FlagRequired},
		{Name: "dbx", Flags: FlagCommandLine | FlagRequired},
		{Name: "--", Flags: FlagCommandLine | FlagMultiple},
	}}
	h := newHarness(t, env, nil, nil)

	assert.ErrorIs(t, h.g.RemoveOption("missing"), ErrUnknownOption)
	assert.ErrorIs(t, h.g.RemoveOption("level"), ErrLogic, "--lvl still points to it")

	require.NoError(t, h.g.RemoveOption("db"))
	assert.Equal(t, []string{"dbx"}, h.g.OptionNames("db"))

	require.NoError(t, h.g.RemoveOption("lvl"))
	require.NoError(t, h.g.RemoveOption("level"))
	assert.Nil(t, h.g.OptionByShortName('l'))

	require.NoError(t, h.g.RemoveOption("--"))
	require.NoError(t, h.g.AddOption(OptionDefinition{Name: "files", Flags: FlagCommandLine | FlagMultiple | FlagDefaultOption}))
	h.parse(t, "a", "b")
	v, _ := h.g.Values("files")
	assert.Equal(t, []string{"a", "b"}, v)
}
