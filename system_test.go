package getopt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func systemEnvironment() Environment {
	env := appEnvironment(
		OptionDefinition{Name: "level", ShortName: 'l', Flags: FlagSourceAll | FlagRequired, Default: "1",
			Help: "verbosity of %p"},
		OptionDefinition{Name: "mode", Flags: FlagCommandLine | FlagRequired, Validator: "keywords(fast, safe)",
			Help: "processing mode"},
		OptionDefinition{Name: "secret", Flags: FlagCommandLine | FlagShowAll, Help: "hidden option"},
		OptionDefinition{Name: "--", Flags: FlagCommandLine | FlagMultiple, Help: "input files"},
	)
	env.EnvironmentFlags = EnvironmentFlagSystemParameters | EnvironmentFlagProcessSystemParameters
	env.Version = "1.2.3"
	env.Copyright = "Copyright (c) the app authors"
	env.License = "MIT"
	env.BuildDate = "2026-01-02"
	env.HelpHeader = "Usage: %p [options] files"
	env.HelpFooter = "%p version %v"
	return env
}

func TestSystemCommands(t *testing.T) {
	tests := []struct {
		args   []string
		output []string
	}{
		{[]string{"--version"}, []string{"1.2.3\n"}},
		{[]string{"-V"}, []string{"1.2.3\n"}},
		{[]string{"--copyright"}, []string{"Copyright (c) the app authors\n"}},
		{[]string{"--license"}, []string{"MIT\n"}},
		{[]string{"--build-date"}, []string{"Built on 2026-01-02\n"}},
		{[]string{"--environment-variable-name"}, []string{"APP_OPTIONS\n"}},
		{[]string{"--configuration-filenames"}, []string{"Configuration filenames:\n . /etc/app/app.conf\n"}},
		{[]string{"--path-to-option-definitions"}, []string{"No option definitions file was loaded.\n"}},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			h := newHarness(t, systemEnvironment(), nil, nil)
			err := h.g.Parse(append([]string{"/usr/bin/app"}, tt.args...))
			requireExit(t, err, 0)
			for _, want := range tt.output {
				assert.Contains(t, h.out.String(), want)
			}
		})
	}
}

func TestHelp(t *testing.T) {
	h := newHarness(t, systemEnvironment(), nil, nil)
	requireExit(t, h.g.Parse([]string{"/usr/bin/app", "--help"}), 0)
	out := h.out.String()

	assert.True(t, strings.HasPrefix(out, "Usage: app [options] files\n\n"))
	assert.Contains(t, out, `--level or -l <arg>`)
	assert.Contains(t, out, `verbosity of app (default: "1")`)
	assert.Contains(t, out, "processing mode (one of fast, safe)")
	assert.Contains(t, out, "[default argument] {<arg>}")
	assert.Contains(t, out, "--help or -h")
	assert.NotContains(t, out, "--secret")
	assert.NotContains(t, out, "--config-dir")
	assert.True(t, strings.HasSuffix(out, "app version 1.2.3\n"))

	h.out.Reset()
	requireExit(t, h.g.Parse([]string{"/usr/bin/app", "--long-help"}), 0)
	assert.Contains(t, h.out.String(), "--secret [<arg>]")
	assert.Contains(t, h.out.String(), "--config-dir <arg> {<arg>}")

	system := h.g.Usage(FlagShowSystem)
	assert.Contains(t, system, "--config-dir")
	assert.NotContains(t, system, "--level")
}

func TestShowOptionSources(t *testing.T) {
	h := newHarness(t, systemEnvironment(), map[string]string{"/etc/app/app.conf": "level = 2\n"}, nil)
	requireExit(t, h.g.Parse([]string{"/usr/bin/app", "--show-option-sources", "-l", "3"}), 0)

	out := h.out.String()
	assert.Contains(t, out, "Option Sources:\n")
	assert.Contains(t, out, `option "level"`)
	assert.Contains(t, out, "2 [configuration /etc/app/app.conf:1]")
	assert.Contains(t, out, "3 [command-line command line]")
}

func TestSystemCommandsNotProcessed(t *testing.T) {
	env := systemEnvironment()
	env.EnvironmentFlags = EnvironmentFlagSystemParameters
	h := newHarness(t, env, nil, nil)
	h.parse(t, "--version")

	assert.Empty(t, h.out.String())
	assert.Equal(t, SystemResultVersion, h.g.ProcessSystemOptions(h.out))
	assert.Equal(t, "1.2.3\n", h.out.String())
}

func TestUsageOnErrorNotTriggeredByPlainOptions(t *testing.T) {
	h := newHarness(t, systemEnvironment(), nil, nil)
	requireExit(t, h.g.Parse([]string{"/usr/bin/app", "--mode", "slow"}), 1)
	require.True(t, h.rec.Contains(`input "slow" given to parameter --mode is not considered valid (keywords).`))
	assert.Empty(t, h.out.String())
}

func TestHelpWrapsToScreenWidth(t *testing.T) {
	env := appEnvironment(OptionDefinition{Name: "name", Flags: FlagCommandLine | FlagRequired,
		Help: "the name printed in the greeting sent to every connected client"})
	h := newHarness(t, env, nil, map[string]string{"COLUMNS": "50"})

	lines := strings.Split(strings.TrimRight(h.g.Usage(FlagShowAll), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "   --name <arg>   the name printed"), lines[0])
	for _, line := range lines {
		assert.LessOrEqual(t, len(line), 50, line)
	}
	assert.Equal(t, strings.Repeat(" ", 18)+"sent to every connected client", lines[1], "continuation lines stay in the help column")
}
