// FILE: lixenwraith/getopt/type.go
package getopt

import (
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/lixenwraith/getopt/internal/textutil"
)

// parsedOption returns the option called name once parsing finished.
// The caller holds the read lock.
func (g *Getopt) parsedOption(name string) (*Option, error) {
	if !g.parsed {
		return nil, errors.Errorf("%w: cannot read --%s", ErrNotParsed, name)
	}
	o, ok := g.options[textutil.OptionWithDashes(name)]
	if !ok {
		return nil, errors.Errorf("%w: --%s", ErrUnknownOption, name)
	}
	return o, nil
}

func index(idx []int) int {
	if len(idx) == 0 {
		return 0
	}
	return idx[0]
}

// IsDefined reports whether the option received a value. Defaults do not
// count.
func (g *Getopt) IsDefined(name string) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	o, err := g.parsedOption(name)
	if err != nil {
		return false, err
	}
	return o.IsDefined(), nil
}

// Size returns the number of values of the option
func (g *Getopt) Size(name string) (int, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	o, err := g.parsedOption(name)
	if err != nil {
		return 0, err
	}
	return o.Size(), nil
}

// String returns the value at idx (0 when omitted). An option without value
// returns its default; without default the error wraps ErrUndefined.
func (g *Getopt) String(name string, idx ...int) (string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	o, err := g.parsedOption(name)
	if err != nil {
		return "", err
	}
	return o.Value(index(idx))
}

// Long returns the value at idx converted to an integer
func (g *Getopt) Long(name string, idx ...int) (int64, error) {
	s, err := g.String(name, idx...)
	if err != nil {
		return -1, err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return -1, errors.Errorf("invalid number (%s) in parameter --%s: %w", s, name, err)
	}
	return n, nil
}

// Double returns the value at idx converted to a floating point number
func (g *Getopt) Double(name string, idx ...int) (float64, error) {
	s, err := g.String(name, idx...)
	if err != nil {
		return -1, err
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return -1, errors.Errorf("invalid number (%s) in parameter --%s: %w", s, name, err)
	}
	return n, nil
}

// Bool reports whether a flag was given, or whether the value of any other
// option is a true keyword
func (g *Getopt) Bool(name string) (bool, error) {
	g.mu.RLock()
	o, err := g.parsedOption(name)
	g.mu.RUnlock()
	if err != nil {
		return false, err
	}
	if o.Has(FlagFlag) {
		return o.IsDefined(), nil
	}

	s, err := g.String(name)
	if err != nil {
		return false, err
	}
	switch {
	case textutil.IsTrue(s):
		return true, nil
	case textutil.IsFalse(s), s == "":
		return false, nil
	default:
		return false, errors.Errorf("value %q of --%s is not a boolean", s, name)
	}
}

// Default returns the default value of the option
func (g *Getopt) Default(name string) (string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	o, err := g.parsedOption(name)
	if err != nil {
		return "", err
	}
	if t, err := o.target(); err == nil {
		o = t
	}
	if !o.HasDefault() {
		return "", errors.Errorf("%w: --%s has no default", ErrUndefined, name)
	}
	return o.defaultValue, nil
}

// Values returns every value of the option, or its default when undefined
func (g *Getopt) Values(name string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	o, err := g.parsedOption(name)
	if err != nil {
		return nil, err
	}
	if o.IsDefined() {
		return o.Values(), nil
	}
	v, err := o.Value(0)
	if err != nil {
		return nil, err
	}
	return []string{v}, nil
}

// Source returns where the current value of the option came from
func (g *Getopt) Source(name string) (Source, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	o, err := g.parsedOption(name)
	if err != nil {
		return SourceUndefined, err
	}
	return o.Source(), nil
}
