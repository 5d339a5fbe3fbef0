package conffile

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Continuation selects how physical lines are joined into logical lines
type Continuation int

const (
	ContinuationSingleLine Continuation = iota // one physical line per logical line
	ContinuationRFC822                         // next line starting with space or tab continues
	ContinuationMSDOS                          // '&' at the end of the line
	ContinuationUnix                           // '\' at the end of the line
	ContinuationFortran                        // '&' at the start of the next line
	ContinuationSemicolon                      // logical line ends at an unquoted ';'
)

var continuationNames = map[Continuation]string{
	ContinuationSingleLine: "single-line",
	ContinuationRFC822:     "rfc-822",
	ContinuationMSDOS:      "msdos",
	ContinuationUnix:       "unix",
	ContinuationFortran:    "fortran",
	ContinuationSemicolon:  "semicolon",
}

func (c Continuation) String() string {
	if name, ok := continuationNames[c]; ok {
		return name
	}
	return fmt.Sprintf("continuation(%d)", int(c))
}

// Assignment is a bitmask of accepted assignment operators
type Assignment uint8

const (
	AssignmentEquals   Assignment = 1 << iota // name = value
	AssignmentColon                           // name: value
	AssignmentSpace                           // name value
	AssignmentExtended                        // +=, ?= and := (implies =)

	assignmentAll = AssignmentEquals | AssignmentColon | AssignmentSpace | AssignmentExtended
)

// Comment is a bitmask of accepted comment introducers
type Comment uint8

const (
	CommentINI   Comment = 1 << iota // ;
	CommentShell                     // #
	CommentCPP                       // //
	CommentSave                      // keep comments and write them back

	commentAll    = CommentINI | CommentShell | CommentCPP | CommentSave
	commentStyles = CommentINI | CommentShell | CommentCPP
)

// Section is a bitmask of accepted section syntaxes
type Section uint8

const (
	SectionC          Section = 1 << iota // a.b
	SectionCPP                            // a::b
	SectionBlock                          // a { b = ... }
	SectionINI                            // [a]
	SectionOneSection                     // at most one section level

	sectionAll       = SectionC | SectionCPP | SectionBlock | SectionINI | SectionOneSection
	sectionOperators = SectionC | SectionCPP | SectionBlock | SectionINI
)

// NameSeparator selects the character used between words of a name on save
type NameSeparator int

const (
	NameSeparatorDashes NameSeparator = iota
	NameSeparatorUnderscores
)

func (n NameSeparator) String() string {
	switch n {
	case NameSeparatorDashes:
		return "dashes"
	case NameSeparatorUnderscores:
		return "underscores"
	default:
		return fmt.Sprintf("name-separator(%d)", int(n))
	}
}

// Dialect describes the syntax of a configuration file.
// The zero value stands for DefaultDialect.
type Dialect struct {
	LineContinuation   Continuation
	AssignmentOperator Assignment
	Comment            Comment
	SectionOperator    Section
	NameSeparator      NameSeparator
}

// DefaultDialect returns Unix continuation, '=' assignment, ';' and '#'
// comments, INI sections and dashes.
func DefaultDialect() Dialect {
	return Dialect{
		LineContinuation:   ContinuationUnix,
		AssignmentOperator: AssignmentEquals,
		Comment:            CommentINI | CommentShell,
		SectionOperator:    SectionINI,
		NameSeparator:      NameSeparatorDashes,
	}
}

// normalized maps the zero value onto the default dialect
func (d Dialect) normalized() Dialect {
	if d == (Dialect{}) {
		return DefaultDialect()
	}
	return d
}

// Validate checks that the dialect describes a usable syntax
func (d Dialect) Validate() error {
	d = d.normalized()

	if _, ok := continuationNames[d.LineContinuation]; !ok {
		return errors.Errorf("%w: unknown line continuation %d", ErrInvalidSetup, int(d.LineContinuation))
	}
	if d.AssignmentOperator == 0 {
		return errors.Errorf("%w: at least one assignment operator is required", ErrInvalidSetup)
	}
	if d.AssignmentOperator&^assignmentAll != 0 {
		return errors.Errorf("%w: unknown assignment operator bits 0x%x", ErrInvalidSetup, uint8(d.AssignmentOperator&^assignmentAll))
	}
	if d.Comment&^commentAll != 0 {
		return errors.Errorf("%w: unknown comment bits 0x%x", ErrInvalidSetup, uint8(d.Comment&^commentAll))
	}
	if d.SectionOperator&^sectionAll != 0 {
		return errors.Errorf("%w: unknown section operator bits 0x%x", ErrInvalidSetup, uint8(d.SectionOperator&^sectionAll))
	}
	if d.SectionOperator&SectionOneSection != 0 && d.SectionOperator&sectionOperators == 0 {
		return errors.Errorf("%w: one-section requires a section operator", ErrInvalidSetup)
	}
	if d.NameSeparator != NameSeparatorDashes && d.NameSeparator != NameSeparatorUnderscores {
		return errors.Errorf("%w: unknown name separator %d", ErrInvalidSetup, int(d.NameSeparator))
	}

	return nil
}

func (d Dialect) hasAssignment(a Assignment) bool {
	if a == AssignmentEquals && d.AssignmentOperator&AssignmentExtended != 0 {
		return true
	}
	return d.AssignmentOperator&a != 0
}

func (d Dialect) hasComment(c Comment) bool { return d.Comment&c != 0 }

func (d Dialect) hasSection(s Section) bool { return d.SectionOperator&s != 0 }

// isComment reports whether s (left trimmed) starts with an enabled comment introducer
func (d Dialect) isComment(s string) bool {
	switch {
	case d.hasComment(CommentINI) && strings.HasPrefix(s, ";"):
		return true
	case d.hasComment(CommentShell) && strings.HasPrefix(s, "#"):
		return true
	case d.hasComment(CommentCPP) && strings.HasPrefix(s, "//"):
		return true
	}
	return false
}

// commentIntroducer returns the first enabled comment introducer, or "".
func (d Dialect) commentIntroducer() string {
	switch {
	case d.hasComment(CommentShell):
		return "#"
	case d.hasComment(CommentINI):
		return ";"
	case d.hasComment(CommentCPP):
		return "//"
	}
	return ""
}

// assignmentString is the operator written on save
func (d Dialect) assignmentString() string {
	switch {
	case d.hasAssignment(AssignmentEquals):
		return "="
	case d.hasAssignment(AssignmentColon):
		return ": "
	default:
		return " "
	}
}

// bit names, lowest bit first
var (
	assignmentNames = []string{"equals", "colon", "space", "extended"}
	commentNames    = []string{"ini", "shell", "cpp", "save"}
	sectionNames    = []string{"c", "cpp", "block", "ini", "one-section"}
)

func bitNames[T ~uint8](bits T, names []string) string {
	var parts []string
	for i, name := range names {
		if bits&(T(1)<<i) != 0 {
			parts = append(parts, name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

// Setup binds a filename to the dialect used to read and write it
type Setup struct {
	Filename string
	Dialect  Dialect
}

// ConfigURL renders the setup as a URL covering every dialect parameter.
// Two setups describe the same file the same way when their URLs are equal.
func (s Setup) ConfigURL() string {
	d := s.Dialect.normalized()

	q := []string{
		"assignment-operator=" + bitNames(d.AssignmentOperator, assignmentNames),
		"comment=" + bitNames(d.Comment, commentNames),
		"line-continuation=" + d.LineContinuation.String(),
		"name-separator=" + d.NameSeparator.String(),
		"section-operator=" + bitNames(d.SectionOperator, sectionNames),
	}

	u := url.URL{Scheme: "file", Path: s.Filename}
	return u.String() + "?" + strings.Join(q, "&")
}

// parseBits turns a comma separated list of names into bits
func parseBits[T ~uint8](list, what string, names []string) (T, error) {
	var bits T
	for _, word := range strings.Split(list, ",") {
		word = strings.ToLower(strings.TrimSpace(word))
		if word == "" || word == "none" {
			continue
		}
		i := slices.Index(names, word)
		if i < 0 {
			return 0, errors.Errorf("%w: unknown %s %q (expected %s)", ErrInvalidSetup, what, word, strings.Join(names, ", "))
		}
		bits |= T(1) << i
	}
	return bits, nil
}

// ParseAssignment parses a list such as "equals,colon"
func ParseAssignment(list string) (Assignment, error) {
	return parseBits[Assignment](list, "assignment operator", assignmentNames)
}

// ParseComment parses a list such as "ini,shell,save"
func ParseComment(list string) (Comment, error) {
	return parseBits[Comment](list, "comment", commentNames)
}

// ParseSection parses a list such as "ini,cpp"
func ParseSection(list string) (Section, error) {
	return parseBits[Section](list, "section operator", sectionNames)
}

// ParseContinuation parses a line continuation name such as "unix"
func ParseContinuation(name string) (Continuation, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for c, n := range continuationNames {
		if n == name {
			return c, nil
		}
	}
	return 0, errors.Errorf("%w: unknown line continuation %q", ErrInvalidSetup, name)
}

// ParseNameSeparator parses "dashes" or "underscores"
func ParseNameSeparator(name string) (NameSeparator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dashes":
		return NameSeparatorDashes, nil
	case "underscores":
		return NameSeparatorUnderscores, nil
	}
	return 0, errors.Errorf("%w: unknown name separator %q", ErrInvalidSetup, name)
}
