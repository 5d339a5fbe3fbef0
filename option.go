package getopt

import (
	"fmt"
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/lixenwraith/getopt/internal/textutil"
	"github.com/lixenwraith/getopt/logsink"
)

// Option describes one named option and holds its current values.
// An Option is not safe for concurrent mutation.
type Option struct {
	name                    string
	shortName               rune
	flags                   Flag
	defaultValue            string
	help                    string
	validator               Validator
	separators              []string
	environmentVariableName string

	values []string
	source Source
	trace  []string
	alias  *Option
	locked bool

	variables *Variables
	sink      logsink.Sink
}

// NewOption creates an option. name is normalized to dashes; the reserved
// name "--" creates the default option.
func NewOption(name string, shortName rune, flags Flag) (*Option, error) {
	if name == "" {
		return nil, logicf("option names cannot be empty")
	}
	if name == DefaultOptionName {
		if shortName != NoShortName {
			return nil, logicf("the default option cannot have a short name")
		}
		flags |= FlagDefaultOption
	} else if strings.HasPrefix(name, "-") {
		return nil, logicf("option name %q cannot start with a dash", name)
	}
	if shortName == '-' {
		return nil, logicf("option %q cannot use '-' as its short name", name)
	}
	if flags&FlagDefaultOption != 0 {
		if shortName != NoShortName {
			return nil, logicf("default option %q cannot have a short name", name)
		}
		if flags&FlagFlag != 0 {
			return nil, logicf("default option %q cannot be a flag", name)
		}
	}
	if flags&FlagAlias != 0 && flags&FlagDefaultOption != 0 {
		return nil, logicf("option %q cannot be both an alias and the default option", name)
	}

	return &Option{
		name:      textutil.OptionWithDashes(name),
		shortName: shortName,
		flags:     flags,
		source:    SourceUndefined,
		sink:      logsink.Default(),
	}, nil
}

// Name returns the long name
func (o *Option) Name() string { return o.name }

// ShortName returns the one letter name or NoShortName
func (o *Option) ShortName() rune { return o.shortName }

// Flags returns the capability bitmask
func (o *Option) Flags() Flag { return o.flags }

// Has reports whether every bit of f is set
func (o *Option) Has(f Flag) bool { return o.flags&f == f }

// AddFlag sets flags
func (o *Option) AddFlag(f Flag) { o.flags |= f }

// RemoveFlag clears flags
func (o *Option) RemoveFlag(f Flag) { o.flags &^= f }

// Help returns the help text
func (o *Option) Help() string { return o.help }

// SetHelp replaces the help text
func (o *Option) SetHelp(help string) { o.help = help }

// Default returns the default value, empty when there is none
func (o *Option) Default() string { return o.defaultValue }

// HasDefault reports whether a default was set
func (o *Option) HasDefault() bool { return o.flags&FlagHasDefault != 0 }

// SetDefault sets the default value
func (o *Option) SetDefault(value string) {
	o.defaultValue = value
	o.flags |= FlagHasDefault
}

// RemoveDefault clears the default value
func (o *Option) RemoveDefault() {
	o.defaultValue = ""
	o.flags &^= FlagHasDefault
}

// Validator returns the validator, nil when values are not checked
func (o *Option) Validator() Validator { return o.validator }

// SetValidator replaces the validator; nil removes it
func (o *Option) SetValidator(v Validator) { o.validator = v }

// SetValidatorSpec builds the validator from a specification string
func (o *Option) SetValidatorSpec(spec string) error {
	if spec == "" {
		o.validator = nil
		return nil
	}
	v, err := NewValidator(spec)
	if err != nil {
		return errors.Errorf("option %q: %w", o.name, err)
	}
	o.validator = v
	return nil
}

// Separators returns the multi-value separators
func (o *Option) Separators() []string { return o.separators }

// SetSeparators replaces the multi-value separators
func (o *Option) SetSeparators(separators []string) {
	o.separators = append([]string(nil), separators...)
}

// EnvironmentVariableName returns the per-option environment variable
// override, empty for the registry default
func (o *Option) EnvironmentVariableName() string { return o.environmentVariableName }

// SetEnvironmentVariableName sets the per-option environment variable
func (o *Option) SetEnvironmentVariableName(name string) { o.environmentVariableName = name }

// SetVariables attaches the table used with FlagProcessVariables
func (o *Option) SetVariables(v *Variables) { o.variables = v }

// SetSink replaces where value errors are reported; nil discards them
func (o *Option) SetSink(sink logsink.Sink) {
	if sink == nil {
		sink = logsink.Discard()
	}
	o.sink = sink
}

// AliasDestination returns the linked destination of an alias, nil otherwise
func (o *Option) AliasDestination() *Option { return o.alias }

// SetAliasDestination links an alias to the option it forwards to
func (o *Option) SetAliasDestination(dest *Option) error {
	if o.flags&FlagAlias == 0 {
		return logicf("option %q is not an alias", o.name)
	}
	if dest == nil {
		return logicf("alias %q needs a destination", o.name)
	}
	if dest.flags&FlagAlias != 0 {
		return logicf("alias %q cannot point to alias %q", o.name, dest.name)
	}
	o.alias = dest
	return nil
}

// target resolves the option holding the values
func (o *Option) target() (*Option, error) {
	if o.flags&FlagAlias == 0 {
		return o, nil
	}
	if o.alias == nil {
		return nil, logicf("alias %q was not linked to its destination", o.name)
	}
	return o.alias, nil
}

// IsDefined reports whether at least one value was accepted
func (o *Option) IsDefined() bool {
	t, err := o.target()
	return err == nil && len(t.values) > 0
}

// Size returns the number of values
func (o *Option) Size() int {
	t, err := o.target()
	if err != nil {
		return 0
	}
	return len(t.values)
}

// Value returns the value at idx. Without values, index 0 returns the
// default.
func (o *Option) Value(idx int) (string, error) {
	t, err := o.target()
	if err != nil {
		return "", err
	}
	if len(t.values) == 0 && idx == 0 {
		if t.HasDefault() {
			return t.defaultValue, nil
		}
		return "", errors.Errorf("%w: --%s", ErrUndefined, t.name)
	}
	if idx < 0 || idx >= len(t.values) {
		return "", logicf("index %d out of range for --%s (%d values)", idx, t.name, len(t.values))
	}
	return t.values[idx], nil
}

// Values returns a copy of every value
func (o *Option) Values() []string {
	t, err := o.target()
	if err != nil {
		return nil
	}
	return append([]string(nil), t.values...)
}

// Source returns where the last accepted value came from
func (o *Option) Source() Source {
	t, err := o.target()
	if err != nil {
		return SourceUndefined
	}
	return t.source
}

// Trace returns the provenance of every accepted value
func (o *Option) Trace() []string {
	t, err := o.target()
	if err != nil {
		return nil
	}
	return append([]string(nil), t.trace...)
}

// IsLocked reports whether mutations are currently ignored
func (o *Option) IsLocked() bool {
	t, err := o.target()
	if err != nil {
		return false
	}
	return t.locked || t.flags&FlagLock != 0
}

// Lock ignores further mutations. Unless always is true the option is only
// locked when it already has a value.
func (o *Option) Lock(always bool) {
	t, err := o.target()
	if err != nil {
		return
	}
	if always || len(t.values) > 0 {
		t.locked = true
	}
}

// Unlock accepts mutations again. FlagLock must be removed separately.
func (o *Option) Unlock() {
	if t, err := o.target(); err == nil {
		t.locked = false
	}
}

// Reset drops the values and their provenance. The schema is kept.
func (o *Option) Reset() {
	t, err := o.target()
	if err != nil {
		return
	}
	t.values = nil
	t.trace = nil
	t.source = SourceUndefined
}

// AddValue appends value to a FlagMultiple option and replaces the value of
// any other option.
func (o *Option) AddValue(value string, src Source) (Status, error) {
	return o.assign(-1, value, src, "")
}

// SetValue sets the value at idx. Multiple options may only grow by one
// value at a time.
func (o *Option) SetValue(idx int, value string, src Source) (Status, error) {
	if idx < 0 {
		return StatusRejected, logicf("negative index %d for --%s", idx, o.name)
	}
	return o.assign(idx, value, src, "")
}

// assign stores value at idx, or at the natural position when idx is -1.
// where is recorded in the trace.
func (o *Option) assign(idx int, value string, src Source, where string) (Status, error) {
	t, err := o.target()
	if err != nil {
		return StatusRejected, err
	}

	multiple := t.flags&FlagMultiple != 0
	if idx < 0 {
		idx = 0
		if multiple {
			idx = len(t.values)
		}
	}
	if !multiple && idx != 0 {
		return StatusRejected, logicf("--%s accepts a single value, index %d is invalid", t.name, idx)
	}
	if multiple && idx > len(t.values) {
		return StatusRejected, logicf("--%s has %d values, index %d would leave a gap", t.name, len(t.values), idx)
	}

	if t.IsLocked() {
		return StatusLocked, nil
	}

	if t.flags&FlagProcessVariables != 0 && t.variables != nil {
		value = t.variables.Process(value)
	}

	if t.validator != nil && !t.validator.Validate(value) {
		t.sink.Emit(logsink.SeverityError,
			fmt.Sprintf("input %q given to parameter --%s is not considered valid (%s).", value, t.name, t.validator.Name()))
		t.source = SourceUndefined
		return StatusRejected, nil
	}

	if idx == len(t.values) {
		t.values = append(t.values, value)
	} else {
		t.values[idx] = value
	}
	t.source = src

	entry := value + " [" + string(src)
	if where != "" {
		entry += " " + where
	}
	t.trace = append(t.trace, entry+"]")

	return StatusAccepted, nil
}

// SetMultipleValues strips one pair of brackets from s, splits it on the
// option separators and adds every piece. It returns false when at least one
// piece was not stored; the accepted pieces are kept.
func (o *Option) SetMultipleValues(s string, src Source) (bool, error) {
	return o.assignMultiple(s, src, "")
}

func (o *Option) assignMultiple(s string, src Source, where string) (bool, error) {
	t, err := o.target()
	if err != nil {
		return false, err
	}

	s = textutil.Unquote(strings.TrimSpace(s), "[]")
	pieces := textutil.SplitQuoted(s, t.separators)
	if t.flags&FlagMultiple == 0 && len(pieces) > 1 {
		return false, logicf("--%s accepts a single value, got %d", t.name, len(pieces))
	}

	ok := true
	for _, piece := range pieces {
		status, err := t.assign(-1, piece, src, where)
		if err != nil {
			return false, err
		}
		if status != StatusAccepted {
			ok = false
		}
	}
	return ok, nil
}

// Long converts the value at idx. Failures are reported and return -1.
func (o *Option) Long(idx int) int64 {
	v, err := o.Value(idx)
	if err != nil {
		o.sink.Emit(logsink.SeverityError, err.Error())
		return -1
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		o.sink.Emit(logsink.SeverityError,
			fmt.Sprintf("invalid number (%s) in parameter --%s at offset %d.", v, o.name, idx))
		return -1
	}
	return n
}

// Double converts the value at idx. Failures are reported and return -1.
func (o *Option) Double(idx int) float64 {
	v, err := o.Value(idx)
	if err != nil {
		o.sink.Emit(logsink.SeverityError, err.Error())
		return -1
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		o.sink.Emit(logsink.SeverityError,
			fmt.Sprintf("invalid number (%s) in parameter --%s at offset %d.", v, o.name, idx))
		return -1
	}
	return n
}

// display returns the name as typed on the command line
func (o *Option) display() string {
	if o.flags&FlagDefaultOption != 0 && o.name == DefaultOptionName {
		return "[default argument]"
	}
	return "--" + o.name
}
