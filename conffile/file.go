// Package conffile reads and writes section-aware configuration files.
//
// The syntax of a file is described by a Dialect: how lines continue, which
// comment introducers and assignment operators are accepted and how sections
// are written. Files are obtained from a Cache so that every user of the same
// file in a process shares one instance.
package conffile

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"

	"github.com/lixenwraith/getopt/internal/textutil"
	"github.com/lixenwraith/getopt/logsink"
)

var (
	ErrInvalidSetup  = errors.Base("invalid configuration file setup")
	ErrSetupMismatch = errors.Base("configuration file already loaded with a different setup")
	ErrRead          = errors.Base("could not read configuration file")
	ErrWrite         = errors.Base("could not write configuration file")
)

// Operator is the assignment operator a parameter was set with
type Operator int

const (
	OperatorNone     Operator = iota // set programmatically
	OperatorSet                      // =, : or space
	OperatorOptional                 // ?=
	OperatorAppend                   // +=
	OperatorNew                      // :=
)

func (o Operator) String() string {
	switch o {
	case OperatorSet:
		return "="
	case OperatorOptional:
		return "?="
	case OperatorAppend:
		return "+="
	case OperatorNew:
		return ":="
	default:
		return ""
	}
}

// Parameter is one value of a configuration file
type Parameter struct {
	Value    string
	Comment  string // comment lines found before the parameter, newline terminated
	Line     int    // 0 when set programmatically
	Operator Operator
}

// Action tells a callback what happened to a parameter
type Action int

const (
	ActionCreated Action = iota
	ActionUpdated
	ActionErased
	ActionReloaded
)

func (a Action) String() string {
	switch a {
	case ActionCreated:
		return "created"
	case ActionUpdated:
		return "updated"
	case ActionErased:
		return "erased"
	case ActionReloaded:
		return "reloaded"
	default:
		return "unknown"
	}
}

// Callback receives change notifications. It is invoked without any lock
// held and may call back into the file.
type Callback func(f *File, action Action, name, value string)

// CallbackID identifies a registered callback
type CallbackID int64

// File is a parsed configuration file. Files are created by a Cache and share
// its mutex.
type File struct {
	mu    *sync.Mutex
	setup Setup
	fs    afero.Fs
	sink  logsink.Sink

	exists   bool
	reading  bool
	modified bool

	parameters map[string]Parameter
	sections   map[string]struct{}

	callbacks      map[CallbackID]Callback
	nextCallbackID CallbackID

	errorCount int
}

func newFile(mu *sync.Mutex, setup Setup, fs afero.Fs, sink logsink.Sink) *File {
	return &File{
		mu:         mu,
		setup:      setup,
		fs:         fs,
		sink:       sink,
		parameters: make(map[string]Parameter),
		sections:   make(map[string]struct{}),
		callbacks:  make(map[CallbackID]Callback),
	}
}

type notification struct {
	action      Action
	name, value string
}

// Filename returns the canonical filename
func (f *File) Filename() string { return f.setup.Filename }

// Setup returns the setup the file was loaded with
func (f *File) Setup() Setup { return f.setup }

// Exists reports whether the file existed when it was last read or saved
func (f *File) Exists() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exists
}

// WasModified reports whether parameters changed since the last read or save
func (f *File) WasModified() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.modified
}

// ErrorCount returns the number of errors found in the file
func (f *File) ErrorCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errorCount
}

// Sections returns the sorted section names
func (f *File) Sections() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.sections))
	for name := range f.sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (f *File) HasSection(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.sections[normalizeName(name)]
	return ok
}

// Parameters returns a copy of the parameters
func (f *File) Parameters() map[string]Parameter {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]Parameter, len(f.parameters))
	for name, p := range f.parameters {
		out[name] = p
	}
	return out
}

// ParameterNames returns the sorted fully qualified parameter names
func (f *File) ParameterNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sortedNames()
}

func (f *File) sortedNames() []string {
	names := make([]string, 0, len(f.parameters))
	for name := range f.parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (f *File) HasParameter(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.parameters[normalizeName(name)]
	return ok
}

// GetParameter returns the value of name, or "" when undefined
func (f *File) GetParameter(name string) string {
	p, _ := f.GetParameterDetails(name)
	return p.Value
}

func (f *File) GetParameterDetails(name string) (Parameter, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.parameters[normalizeName(name)]
	return p, ok
}

// AddCallback registers cb and returns its identifier
func (f *File) AddCallback(cb Callback) CallbackID {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextCallbackID++
	f.callbacks[f.nextCallbackID] = cb
	return f.nextCallbackID
}

func (f *File) RemoveCallback(id CallbackID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.callbacks, id)
}

// callbackList copies the callbacks in registration order; must hold f.mu
func (f *File) callbackList() []Callback {
	ids := make([]CallbackID, 0, len(f.callbacks))
	for id := range f.callbacks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Callback, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.callbacks[id])
	}
	return out
}

func (f *File) notify(callbacks []Callback, events []notification) {
	for _, ev := range events {
		for _, cb := range callbacks {
			cb(f, ev.action, ev.name, ev.value)
		}
	}
}

// SetParameter sets name (relative to section) to value. Errors are reported
// to the sink; the return value tells whether the parameter was accepted.
func (f *File) SetParameter(section, name, value string, op Operator, comment string) bool {
	f.mu.Lock()
	accepted, events := f.setParameter(section, name, value, op, comment, 0)
	callbacks := f.callbackList()
	f.mu.Unlock()

	f.notify(callbacks, events)
	return accepted
}

// setParameter implements SetParameter; must hold f.mu
func (f *File) setParameter(section, name, value string, op Operator, comment string, line int) (bool, []notification) {
	d := f.setup.Dialect.normalized()

	var parts []string
	if strings.HasPrefix(name, "::") {
		name = name[2:]
	} else if section != "" {
		parts = append(parts, strings.Split(section, "::")...)
	}
	parts = append(parts, f.splitName(name)...)

	for i, part := range parts {
		parts[i] = textutil.OptionWithDashes(part)
		if err := validateComponent(d, parts[i]); err != "" {
			f.errorf(line, "parameter %q %s", name, err)
			return false, nil
		}
	}
	if len(parts) > 1 && d.SectionOperator&sectionOperators == 0 {
		f.errorf(line, "parameter %q has a section but this file has no section syntax", name)
		return false, nil
	}
	if d.hasSection(SectionOneSection) && len(parts) > 2 {
		f.errorf(line, "parameter %q has more than one section level", name)
		return false, nil
	}

	full := strings.Join(parts, "::")
	existing, exists := f.parameters[full]

	switch op {
	case OperatorOptional:
		if exists {
			return true, nil
		}
	case OperatorNew:
		if exists {
			f.errorf(line, "parameter %q is already defined", full)
			return false, nil
		}
	case OperatorAppend:
		if exists {
			value = existing.Value + value
		}
	default:
		if exists && f.reading {
			f.warnf(line, "parameter %q redefined (previously defined on line %d)", full, existing.Line)
		}
	}

	if comment == "" && exists {
		comment = existing.Comment
	}
	f.parameters[full] = Parameter{Value: value, Comment: comment, Line: line, Operator: op}

	for i := 1; i < len(parts); i++ {
		f.sections[strings.Join(parts[:i], "::")] = struct{}{}
	}

	if f.reading {
		return true, nil
	}
	if exists && existing.Value == value {
		return true, nil
	}
	f.modified = true

	action := ActionCreated
	if exists {
		action = ActionUpdated
	}
	return true, []notification{{action: action, name: full, value: value}}
}

// splitName cuts a name on "::", the separator of stored names, and on
// "." when C sections are enabled
func (f *File) splitName(name string) []string {
	d := f.setup.Dialect.normalized()

	parts := strings.Split(name, "::")
	if d.hasSection(SectionC) {
		var out []string
		for _, p := range parts {
			out = append(out, strings.Split(p, ".")...)
		}
		parts = out
	}
	return parts
}

// validateComponent returns a description of what is wrong with part, or "".
func validateComponent(d Dialect, part string) string {
	if part == "" {
		return "has an empty name component"
	}
	if d.hasComment(CommentCPP) && strings.Contains(part, "//") {
		return "contains a comment introducer"
	}
	for _, r := range part {
		switch {
		case unicode.IsControl(r):
			return "contains a control character"
		case unicode.IsSpace(r):
			return "contains a space"
		case r == '"' || r == '\'':
			return "contains a quote"
		case r == '=':
			return "contains an assignment operator"
		case r == ';' && d.hasComment(CommentINI), r == '#' && d.hasComment(CommentShell):
			return "contains a comment introducer"
		case r == ':' && d.hasAssignment(AssignmentColon):
			return "contains an assignment operator"
		case r == ':':
			return "contains a section separator"
		case (r == '{' || r == '}') && d.hasSection(SectionBlock):
			return "contains a block delimiter"
		case (r == '[' || r == ']') && d.hasSection(SectionINI):
			return "contains a section delimiter"
		}
	}
	return ""
}

// EraseParameter removes name and any section left without parameters. It
// reports whether the parameter existed.
func (f *File) EraseParameter(name string) bool {
	f.mu.Lock()
	name = normalizeName(name)
	p, ok := f.parameters[name]
	if ok {
		delete(f.parameters, name)
		f.pruneSections()
		f.modified = true
	}
	callbacks := f.callbackList()
	f.mu.Unlock()

	if ok {
		f.notify(callbacks, []notification{{action: ActionErased, name: name, value: p.Value}})
	}
	return ok
}

// EraseAllParameters removes every parameter
func (f *File) EraseAllParameters() {
	f.mu.Lock()
	var events []notification
	for _, name := range f.sortedNames() {
		events = append(events, notification{action: ActionErased, name: name, value: f.parameters[name].Value})
	}
	if len(events) > 0 {
		f.parameters = make(map[string]Parameter)
		f.sections = make(map[string]struct{})
		f.modified = true
	}
	callbacks := f.callbackList()
	f.mu.Unlock()

	f.notify(callbacks, events)
}

// pruneSections keeps only the sections still holding a parameter; must
// hold f.mu
func (f *File) pruneSections() {
	sections := make(map[string]struct{}, len(f.sections))
	for name := range f.parameters {
		parts := strings.Split(name, "::")
		for i := 1; i < len(parts); i++ {
			sections[strings.Join(parts[:i], "::")] = struct{}{}
		}
	}
	f.sections = sections
}

func normalizeName(name string) string {
	return textutil.OptionWithDashes(strings.TrimPrefix(name, "::"))
}

func (f *File) errorf(line int, format string, args ...any) {
	f.errorCount++
	f.emit(logsink.SeverityError, line, format, args...)
}

func (f *File) warnf(line int, format string, args ...any) {
	f.emit(logsink.SeverityWarning, line, format, args...)
}

func (f *File) emit(severity logsink.Severity, line int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if line > 0 {
		f.sink.Emit(severity, fmt.Sprintf("%s:%d: %s", f.setup.Filename, line, msg))
		return
	}
	f.sink.Emit(severity, fmt.Sprintf("%s: %s", f.setup.Filename, msg))
}
