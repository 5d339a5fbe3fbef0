package getopt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/getopt/logsink"
)

func mustOption(t *testing.T, name string, short rune, flags Flag) *Option {
	t.Helper()
	o, err := NewOption(name, short, flags)
	require.NoError(t, err)
	return o
}

func TestNewOption(t *testing.T) {
	t.Run("NormalizesName", func(t *testing.T) {
		o := mustOption(t, "log_level", 'l', FlagCommandLine)
		assert.Equal(t, "log-level", o.Name())
		assert.Equal(t, 'l', o.ShortName())
		assert.Equal(t, SourceUndefined, o.Source())
		assert.False(t, o.IsDefined())
	})

	t.Run("DefaultOptionName", func(t *testing.T) {
		o := mustOption(t, DefaultOptionName, NoShortName, FlagCommandLine|FlagMultiple)
		assert.True(t, o.Has(FlagDefaultOption))
		assert.Equal(t, "[default argument]", o.display())
	})

	t.Run("Invalid", func(t *testing.T) {
		invalid := []struct {
			name  string
			short rune
			flags Flag
		}{
			{"", NoShortName, 0},
			{"-x", NoShortName, 0},
			{"x", '-', 0},
			{DefaultOptionName, 'd', 0},
			{"files", 'f', FlagDefaultOption},
			{"files", NoShortName, FlagDefaultOption | FlagFlag},
			{"files", NoShortName, FlagDefaultOption | FlagAlias},
		}
		for _, tc := range invalid {
			_, err := NewOption(tc.name, tc.short, tc.flags)
			assert.ErrorIs(t, err, ErrLogic, "%q %q %s", tc.name, tc.short, tc.flags)
		}
	})
}

func TestOptionValues(t *testing.T) {
	t.Run("SingleValueOverwrites", func(t *testing.T) {
		o := mustOption(t, "level", NoShortName, FlagCommandLine|FlagRequired)

		status, err := o.AddValue("1", SourceConfiguration)
		require.NoError(t, err)
		assert.Equal(t, StatusAccepted, status)

		status, err = o.AddValue("2", SourceCommandLine)
		require.NoError(t, err)
		assert.Equal(t, StatusAccepted, status)

		assert.Equal(t, []string{"2"}, o.Values())
		assert.Equal(t, SourceCommandLine, o.Source())
		assert.Equal(t, []string{"1 [configuration]", "2 [command-line]"}, o.Trace())
	})

	t.Run("MultipleAccumulates", func(t *testing.T) {
		o := mustOption(t, "include", NoShortName, FlagCommandLine|FlagMultiple)
		for _, v := range []string{"a", "b", "c"} {
			_, err := o.AddValue(v, SourceDirect)
			require.NoError(t, err)
		}
		assert.Equal(t, 3, o.Size())

		_, err := o.SetValue(1, "B", SourceDirect)
		require.NoError(t, err)
		_, err = o.SetValue(3, "d", SourceDirect)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "B", "c", "d"}, o.Values())

		_, err = o.SetValue(5, "gap", SourceDirect)
		assert.ErrorIs(t, err, ErrLogic)
		_, err = o.SetValue(-1, "negative", SourceDirect)
		assert.ErrorIs(t, err, ErrLogic)
	})

	t.Run("SingleValueIndex", func(t *testing.T) {
		o := mustOption(t, "level", NoShortName, FlagCommandLine)
		_, err := o.SetValue(1, "x", SourceDirect)
		assert.ErrorIs(t, err, ErrLogic)
	})

	t.Run("DefaultValue", func(t *testing.T) {
		o := mustOption(t, "level", NoShortName, FlagCommandLine)
		_, err := o.Value(0)
		assert.ErrorIs(t, err, ErrUndefined)

		o.SetDefault("5")
		v, err := o.Value(0)
		require.NoError(t, err)
		assert.Equal(t, "5", v)
		assert.False(t, o.IsDefined(), "a default does not define the option")

		_, err = o.Value(1)
		assert.ErrorIs(t, err, ErrLogic)

		o.RemoveDefault()
		assert.False(t, o.HasDefault())
	})

	t.Run("Locked", func(t *testing.T) {
		o := mustOption(t, "level", NoShortName, FlagCommandLine)

		o.Lock(false)
		assert.False(t, o.IsLocked(), "empty options are only locked with always")

		_, err := o.AddValue("1", SourceDirect)
		require.NoError(t, err)
		o.Lock(false)
		assert.True(t, o.IsLocked())

		status, err := o.AddValue("2", SourceDirect)
		require.NoError(t, err)
		assert.Equal(t, StatusLocked, status)
		assert.Equal(t, []string{"1"}, o.Values())

		o.Unlock()
		status, _ = o.AddValue("2", SourceDirect)
		assert.Equal(t, StatusAccepted, status)

		o.AddFlag(FlagLock)
		assert.True(t, o.IsLocked())
	})

	t.Run("Rejected", func(t *testing.T) {
		rec := &logsink.Recorder{}
		o := mustOption(t, "level", NoShortName, FlagCommandLine)
		o.SetSink(rec)
		require.NoError(t, o.SetValidatorSpec("integer(1...5)"))

		status, err := o.AddValue("3", SourceCommandLine)
		require.NoError(t, err)
		assert.Equal(t, StatusAccepted, status)

		status, err = o.AddValue("9", SourceCommandLine)
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, status)
		assert.Equal(t, SourceUndefined, o.Source())
		assert.Equal(t, []string{"3"}, o.Values(), "rejected values are not stored")
		assert.True(t, rec.Contains(`input "9" given to parameter --level is not considered valid (integer).`))
	})

	t.Run("SetMultipleValues", func(t *testing.T) {
		o := mustOption(t, "tags", NoShortName, FlagCommandLine|FlagMultiple)
		o.SetSeparators([]string{",", ";"})

		ok, err := o.SetMultipleValues(`[a, "b,c"; d]`, SourceConfiguration)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []string{"a", "b,c", "d"}, o.Values())

		single := mustOption(t, "name", NoShortName, FlagCommandLine)
		single.SetSeparators([]string{","})
		_, err = single.SetMultipleValues("a,b", SourceDirect)
		assert.ErrorIs(t, err, ErrLogic)
	})

	t.Run("ProcessVariables", func(t *testing.T) {
		vars := NewVariables()
		vars.Set("root", "/srv")
		o := mustOption(t, "data", NoShortName, FlagCommandLine|FlagProcessVariables)
		o.SetVariables(vars)

		_, err := o.AddValue("${root}/data", SourceDirect)
		require.NoError(t, err)
		assert.Equal(t, []string{"/srv/data"}, o.Values())
	})

	t.Run("Numbers", func(t *testing.T) {
		rec := &logsink.Recorder{}
		o := mustOption(t, "size", NoShortName, FlagCommandLine|FlagMultiple)
		o.SetSink(rec)
		_, _ = o.AddValue("42", SourceDirect)
		_, _ = o.AddValue("2.5", SourceDirect)
		_, _ = o.AddValue("big", SourceDirect)

		assert.Equal(t, int64(42), o.Long(0))
		assert.Equal(t, 2.5, o.Double(1))
		assert.Equal(t, int64(-1), o.Long(2))
		assert.Equal(t, float64(-1), o.Double(2))
		assert.True(t, rec.Contains("invalid number (big) in parameter --size at offset 2."))
	})

	t.Run("Reset", func(t *testing.T) {
		o := mustOption(t, "level", NoShortName, FlagCommandLine)
		_, _ = o.AddValue("1", SourceDirect)
		o.Reset()
		assert.False(t, o.IsDefined())
		assert.Empty(t, o.Trace())
		assert.Equal(t, SourceUndefined, o.Source())
	})
}

func TestOptionAlias(t *testing.T) {
	dest := mustOption(t, "level", NoShortName, FlagCommandLine|FlagRequired)
	alias := mustOption(t, "lvl", NoShortName, FlagCommandLine|FlagRequired|FlagAlias)

	_, err := alias.AddValue("1", SourceDirect)
	assert.ErrorIs(t, err, ErrLogic, "unlinked aliases cannot hold values")

	assert.ErrorIs(t, dest.SetAliasDestination(alias), ErrLogic)
	require.NoError(t, alias.SetAliasDestination(dest))

	_, err = alias.AddValue("7", SourceDirect)
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, dest.Values())
	assert.Equal(t, "7", alias.Values()[0])

	other := mustOption(t, "l2", NoShortName, FlagAlias)
	assert.ErrorIs(t, other.SetAliasDestination(alias), ErrLogic)
}

func TestFlags(t *testing.T) {
	assert.Equal(t, "command-line|flag", (FlagCommandLine | FlagFlag).String())

	f, err := ParseFlags("command-line, environment_variable|flag multiple")
	require.NoError(t, err)
	assert.Equal(t, FlagCommandLine|FlagEnvironmentVariable|FlagFlag|FlagMultiple, f)

	_, err = ParseFlags("sometimes")
	assert.ErrorIs(t, err, ErrLogic)

	assert.Equal(t, "rejected", StatusRejected.String())
}
