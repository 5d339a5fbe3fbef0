package conffile

import (
	"os"
	"strings"

	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"

	"github.com/lixenwraith/getopt/internal/textutil"
)

// lineReader splits text into logical lines according to a dialect
type lineReader struct {
	text string
	pos  int
	line int // physical line of text[pos], 1 based
	d    Dialect
}

func newLineReader(text string, d Dialect) *lineReader {
	return &lineReader{text: text, line: 1, d: d}
}

// physical returns the next physical line without its terminator
func (r *lineReader) physical() (string, bool) {
	if r.pos >= len(r.text) {
		return "", false
	}
	rest := r.text[r.pos:]
	end := strings.IndexByte(rest, '\n')
	if end < 0 {
		r.pos = len(r.text)
		return strings.TrimSuffix(rest, "\r"), true
	}
	r.pos += end + 1
	r.line++
	return strings.TrimSuffix(rest[:end], "\r"), true
}

// peek returns the first byte of the next physical line
func (r *lineReader) peek() (byte, bool) {
	if r.pos >= len(r.text) {
		return 0, false
	}
	return r.text[r.pos], true
}

// next returns the next logical line and the physical line it started on
func (r *lineReader) next() (string, int, bool) {
	if r.d.LineContinuation == ContinuationSemicolon {
		return r.nextSemicolon()
	}

	start := r.line
	l, ok := r.physical()
	if !ok {
		return "", start, false
	}

	// comments never continue
	if r.d.isComment(strings.TrimLeft(l, " \t")) {
		return l, start, true
	}

	switch r.d.LineContinuation {
	case ContinuationUnix, ContinuationMSDOS:
		for continued(l, r.d.LineContinuation) {
			l = l[:len(l)-1]
			more, ok := r.physical()
			if !ok {
				break
			}
			l += more
		}
	case ContinuationRFC822:
		for {
			c, ok := r.peek()
			if !ok || (c != ' ' && c != '\t') {
				break
			}
			more, _ := r.physical()
			l += strings.TrimLeft(more, " \t")
		}
	case ContinuationFortran:
		for {
			c, ok := r.peek()
			if !ok || c != '&' {
				break
			}
			more, _ := r.physical()
			l += more[1:]
		}
	}

	return l, start, true
}

// continued reports whether l ends with the continuation marker. A
// backslash only continues when it is not itself escaped.
func continued(l string, c Continuation) bool {
	if c == ContinuationMSDOS {
		return strings.HasSuffix(l, "&")
	}
	n := len(l) - len(strings.TrimRight(l, "\\"))
	return n%2 == 1
}

// nextSemicolon reads up to the next unquoted ';'. Newlines stay part of
// the line. Comment lines end at the newline; block delimiters end a line
// when blocks are enabled.
func (r *lineReader) nextSemicolon() (string, int, bool) {
	for r.pos < len(r.text) {
		c := r.text[r.pos]
		if c != ' ' && c != '\t' && c != '\r' && c != '\n' {
			break
		}
		if c == '\n' {
			r.line++
		}
		r.pos++
	}
	if r.pos >= len(r.text) {
		return "", r.line, false
	}

	start := r.line
	if r.d.isComment(r.text[r.pos:]) {
		l, _ := r.physical()
		return l, start, true
	}

	blocks := r.d.hasSection(SectionBlock)
	var quote byte
	begin := r.pos
	for i := begin; i < len(r.text); i++ {
		c := r.text[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == ';':
			r.pos = i + 1
			return r.text[begin:i], start, true
		case blocks && c == '{':
			r.pos = i + 1
			return r.text[begin : i+1], start, true
		case blocks && c == '}':
			if strings.TrimSpace(r.text[begin:i]) == "" {
				r.pos = i + 1
				return "}", start, true
			}
			r.pos = i
			return r.text[begin:i], start, true
		}
		if c == '\n' {
			r.line++
		}
	}
	r.pos = len(r.text)
	return r.text[begin:], start, true
}

// read loads the file from disk; must hold f.mu
func (f *File) read() error {
	data, err := afero.ReadFile(f.fs, f.setup.Filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			f.exists = false
			return nil
		}
		f.errorf(0, "cannot read file: %v", err)
		return errors.Errorf("%w: %s: %v", ErrRead, f.setup.Filename, err)
	}
	f.exists = true
	f.parse(string(data))
	return nil
}

// parse feeds text through the logical line state machine
func (f *File) parse(text string) {
	d := f.setup.Dialect.normalized()

	f.reading = true
	defer func() { f.reading = false }()

	r := newLineReader(text, d)
	var (
		pending  string
		sections []string // INI section, then one entry per open block
		blocks   int
	)

	for {
		raw, line, ok := r.next()
		if !ok {
			break
		}
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}

		if d.isComment(s) {
			if d.hasComment(CommentSave) {
				pending += s + "\n"
			}
			continue
		}

		if d.hasSection(SectionBlock) && s[0] == '}' {
			if blocks == 0 {
				f.errorf(line, "'}' without a matching '{'")
				continue
			}
			blocks--
			sections = sections[:len(sections)-1]
			if !f.onlyComment(d, s[1:]) {
				f.errorf(line, "unexpected text after '}'")
			}
			continue
		}

		if d.hasSection(SectionINI) && s[0] == '[' {
			end := strings.IndexByte(s, ']')
			switch {
			case end < 0:
				f.errorf(line, "section name not terminated by ']'")
				continue
			case blocks > 0:
				f.errorf(line, "INI section not allowed inside a block")
				continue
			}
			name := strings.TrimSpace(s[1:end])
			if name == "" {
				f.errorf(line, "empty section name")
				continue
			}
			if !f.onlyComment(d, s[end+1:]) {
				f.errorf(line, "unexpected text after section name")
				continue
			}
			sections = []string{strings.Join(f.splitName(name), "::")}
			continue
		}

		name, rest, spaced := scanName(d, s)
		if name == "" {
			f.errorf(line, "expected a parameter name")
			continue
		}

		if d.hasSection(SectionBlock) && strings.HasPrefix(rest, "{") {
			if !f.onlyComment(d, rest[1:]) {
				f.errorf(line, "unexpected text after '{'")
				continue
			}
			sections = append(sections, strings.Join(f.splitName(name), "::"))
			blocks++
			continue
		}

		op, value, msg := assignment(d, rest, spaced)
		if msg != "" {
			f.errorf(line, "parameter %q: %s", name, msg)
			continue
		}
		value = unescape(textutil.Unquote(strings.TrimSpace(value), textutil.DefaultQuotes))

		f.setParameter(joinSections(sections), name, value, op, pending, line)
		pending = ""
	}

	if blocks > 0 {
		f.errorf(r.line, "%d block(s) not terminated by '}'", blocks)
	}
}

// onlyComment reports whether s is blank or a comment
func (f *File) onlyComment(d Dialect, s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || d.isComment(s)
}

func joinSections(sections []string) string {
	var parts []string
	for _, s := range sections {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "::")
}

// scanName returns the name at the start of s, the text after it (left
// trimmed) and whether whitespace followed the name.
func scanName(d Dialect, s string) (string, string, bool) {
	i := 0
scan:
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			break scan
		case c == '=':
			break scan
		case c == ':':
			if d.hasSection(SectionCPP) && i+1 < len(s) && s[i+1] == ':' {
				i += 2
				continue
			}
			break scan
		case (c == '+' || c == '?') && i+1 < len(s) && s[i+1] == '=':
			break scan
		case c == '{' && d.hasSection(SectionBlock):
			break scan
		}
		i++
	}

	spaced := i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\r' || s[i] == '\n')
	return s[:i], strings.TrimLeft(s[i:], " \t\r\n"), spaced
}

// assignment determines the operator at the start of rest and returns the
// value that follows it, or an error message.
func assignment(d Dialect, rest string, spaced bool) (Operator, string, string) {
	extended := d.hasAssignment(AssignmentExtended)

	switch {
	case strings.HasPrefix(rest, "+="):
		if !extended {
			return OperatorNone, "", "operator '+=' is not supported by this file"
		}
		return OperatorAppend, rest[2:], ""
	case strings.HasPrefix(rest, "?="):
		if !extended {
			return OperatorNone, "", "operator '?=' is not supported by this file"
		}
		return OperatorOptional, rest[2:], ""
	case strings.HasPrefix(rest, ":=") && extended:
		return OperatorNew, rest[2:], ""
	case strings.HasPrefix(rest, "="):
		if !d.hasAssignment(AssignmentEquals) {
			return OperatorNone, "", "operator '=' is not supported by this file"
		}
		return OperatorSet, rest[1:], ""
	case strings.HasPrefix(rest, ":"):
		if !d.hasAssignment(AssignmentColon) {
			return OperatorNone, "", "operator ':' is not supported by this file"
		}
		return OperatorSet, rest[1:], ""
	}

	if d.hasAssignment(AssignmentSpace) && (spaced || rest == "") {
		return OperatorSet, rest, ""
	}
	if rest == "" {
		return OperatorNone, "", "no assignment operator and no value"
	}
	return OperatorNone, "", "expected an assignment operator"
}

// unescape converts \\, \r, \n and \t; other backslashes are kept
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '\\':
				b.WriteByte('\\')
				i++
				continue
			case 'r':
				b.WriteByte('\r')
				i++
				continue
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case 't':
				b.WriteByte('\t')
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// escape is the reverse of unescape
func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "\r", `\r`, "\n", `\n`, "\t", `\t`)
	return r.Replace(s)
}
