package getopt

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/lixenwraith/getopt/internal/textutil"
)

// Validator accepts or rejects option values
type Validator interface {
	Name() string
	Validate(value string) bool
}

// ValidatorFactory creates a validator from the parameters written between
// parentheses in a validator specification.
type ValidatorFactory func(params []string) (Validator, error)

var (
	validatorsMu sync.RWMutex
	validators   = map[string]ValidatorFactory{
		"integer":  newIntegerValidator,
		"double":   newDoubleValidator,
		"regex":    newRegexValidator,
		"keywords": newKeywordsValidator,
	}
)

// RegisterValidator makes a validator available to NewValidator and to
// options definitions files. Registering an existing name replaces it.
func RegisterValidator(name string, factory ValidatorFactory) error {
	if name == "" || factory == nil {
		return logicf("a validator needs a name and a factory")
	}
	validatorsMu.Lock()
	defer validatorsMu.Unlock()
	validators[name] = factory
	return nil
}

// ValidatorNames returns the sorted list of registered validators
func ValidatorNames() []string {
	validatorsMu.RLock()
	defer validatorsMu.RUnlock()
	names := make([]string, 0, len(validators))
	for name := range validators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewValidator parses a specification such as "integer(1...10)",
// "keywords(low, high)" or "/^[a-z]+$/i" and builds the validator.
func NewValidator(spec string) (Validator, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, logicf("empty validator specification")
	}

	if spec[0] == '/' {
		end := strings.LastIndexByte(spec, '/')
		if end == 0 {
			return nil, logicf("regular expression %q is missing its closing '/'", spec)
		}
		return compileRegex(spec[1:end], spec[end+1:])
	}

	name, params := spec, []string(nil)
	if open := strings.IndexByte(spec, '('); open >= 0 {
		if !strings.HasSuffix(spec, ")") {
			return nil, logicf("validator %q is missing its closing ')'", spec)
		}
		name = strings.TrimSpace(spec[:open])
		params = textutil.SplitQuoted(spec[open+1:len(spec)-1], []string{","})
	}

	validatorsMu.RLock()
	factory, ok := validators[name]
	validatorsMu.RUnlock()
	if !ok {
		return nil, logicf("unknown validator %q", name)
	}
	return factory(params)
}

type integerRange struct {
	min, max int64
}

type integerValidator struct {
	ranges []integerRange
}

func newIntegerValidator(params []string) (Validator, error) {
	v := &integerValidator{}
	for _, p := range params {
		lo, hi, isRange := strings.Cut(p, "...")
		min, err := strconv.ParseInt(strings.TrimSpace(lo), 10, 64)
		if err != nil {
			return nil, logicf("invalid integer validator parameter %q", p)
		}
		max := min
		if isRange {
			if max, err = strconv.ParseInt(strings.TrimSpace(hi), 10, 64); err != nil {
				return nil, logicf("invalid integer validator parameter %q", p)
			}
		}
		if min > max {
			return nil, logicf("integer range %q has its minimum above its maximum", p)
		}
		v.ranges = append(v.ranges, integerRange{min, max})
	}
	return v, nil
}

func (v *integerValidator) Name() string { return "integer" }

func (v *integerValidator) Validate(value string) bool {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return false
	}
	if len(v.ranges) == 0 {
		return true
	}
	for _, r := range v.ranges {
		if n >= r.min && n <= r.max {
			return true
		}
	}
	return false
}

type doubleRange struct {
	min, max float64
}

type doubleValidator struct {
	ranges []doubleRange
}

func newDoubleValidator(params []string) (Validator, error) {
	v := &doubleValidator{}
	for _, p := range params {
		lo, hi, isRange := strings.Cut(p, "...")
		min, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
		if err != nil {
			return nil, logicf("invalid double validator parameter %q", p)
		}
		max := min
		if isRange {
			if max, err = strconv.ParseFloat(strings.TrimSpace(hi), 64); err != nil {
				return nil, logicf("invalid double validator parameter %q", p)
			}
		}
		if min > max {
			return nil, logicf("double range %q has its minimum above its maximum", p)
		}
		v.ranges = append(v.ranges, doubleRange{min, max})
	}
	return v, nil
}

func (v *doubleValidator) Name() string { return "double" }

func (v *doubleValidator) Validate(value string) bool {
	n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(n) {
		return false
	}
	if len(v.ranges) == 0 {
		return true
	}
	for _, r := range v.ranges {
		if n >= r.min && n <= r.max {
			return true
		}
	}
	return false
}

type regexValidator struct {
	re *regexp.Regexp
}

func newRegexValidator(params []string) (Validator, error) {
	if len(params) != 1 {
		return nil, logicf("the regex validator takes exactly one pattern, got %d", len(params))
	}
	p := params[0]
	if len(p) >= 2 && p[0] == '/' {
		if end := strings.LastIndexByte(p, '/'); end > 0 {
			return compileRegex(p[1:end], p[end+1:])
		}
	}
	return compileRegex(p, "")
}

func compileRegex(pattern, flags string) (Validator, error) {
	for _, f := range flags {
		if f != 'i' {
			return nil, logicf("unsupported regular expression flag %q", f)
		}
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, logicf("invalid regular expression %q: %v", pattern, err)
	}
	return &regexValidator{re: re}, nil
}

func (v *regexValidator) Name() string { return "regex" }

func (v *regexValidator) Validate(value string) bool { return v.re.MatchString(value) }

type keywordsValidator struct {
	keywords map[string]struct{}
}

func newKeywordsValidator(params []string) (Validator, error) {
	if len(params) == 0 {
		return nil, logicf("the keywords validator needs at least one keyword")
	}
	v := &keywordsValidator{keywords: make(map[string]struct{}, len(params))}
	for _, p := range params {
		v.keywords[p] = struct{}{}
	}
	return v, nil
}

func (v *keywordsValidator) Name() string { return "keywords" }

func (v *keywordsValidator) Validate(value string) bool {
	_, ok := v.keywords[value]
	return ok
}

// String renders the keyword list for help output
func (v *keywordsValidator) String() string {
	keys := make([]string, 0, len(v.keywords))
	for k := range v.keywords {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("one of %s", strings.Join(keys, ", "))
}
