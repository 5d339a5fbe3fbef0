// Package textutil holds the small string helpers shared by the option
// registry and the configuration file reader.
package textutil

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/mitchellh/go-wordwrap"
)

// DefaultQuotes lists the open/close pairs Unquote removes by default.
const DefaultQuotes = `""''`

// OptionWithDashes converts underscores to dashes, the canonical option form.
func OptionWithDashes(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}

// OptionWithUnderscores converts dashes to underscores.
func OptionWithUnderscores(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// Unquote removes one layer of matching quotes. pairs is a sequence of
// open/close characters, e.g. `""''` or "[]".
func Unquote(s, pairs string) string {
	if len(s) < 2 {
		return s
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		if s[0] == pairs[i] && s[len(s)-1] == pairs[i+1] {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// IsTrue reports whether s is one of the accepted "true" keywords.
func IsTrue(s string) bool {
	return strings.EqualFold(s, "true") ||
		strings.EqualFold(s, "on") ||
		strings.EqualFold(s, "yes") ||
		s == "1"
}

// IsFalse reports whether s is one of the accepted "false" keywords.
func IsFalse(s string) bool {
	return strings.EqualFold(s, "false") ||
		strings.EqualFold(s, "off") ||
		strings.EqualFold(s, "no") ||
		s == "0"
}

// SplitQuoted cuts s on any of the separators, ignoring separators found
// inside single or double quotes. Pieces are trimmed and unquoted; empty
// pieces are dropped. Without separators the whole string is one piece.
func SplitQuoted(s string, separators []string) []string {
	var result []string
	add := func(piece string) {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			return
		}
		result = append(result, Unquote(piece, DefaultQuotes))
	}

	if len(separators) == 0 {
		add(s)
		return result
	}

	var quote byte
	start := 0
	for i := 0; i < len(s); {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			i++
			continue
		}
		if c == '"' || c == '\'' {
			quote = c
			i++
			continue
		}
		matched := 0
		for _, sep := range separators {
			if sep != "" && strings.HasPrefix(s[i:], sep) && len(sep) > matched {
				matched = len(sep)
			}
		}
		if matched > 0 {
			add(s[start:i])
			i += matched
			start = i
			continue
		}
		i++
	}
	add(s[start:])

	return result
}

// SplitArgs splits s the way a shell splits a simple command line: words are
// separated by whitespace, single and double quotes group characters and are
// removed. Backslashes have no special meaning.
func SplitArgs(s string) []string {
	var (
		args    []string
		current strings.Builder
		inWord  bool
		quote   rune
	)

	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inWord = true
		case unicode.IsSpace(r):
			if inWord {
				args = append(args, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}
	if inWord {
		args = append(args, current.String())
	}

	return args
}

// DefaultScreenWidth is used when the terminal width is unknown.
const DefaultScreenWidth = 80

// ScreenWidth parses a COLUMNS style value, falling back to
// DefaultScreenWidth when it is missing or unusable.
func ScreenWidth(columns string) int {
	n, err := strconv.Atoi(strings.TrimSpace(columns))
	if err != nil || n < 20 {
		return DefaultScreenWidth
	}
	return n
}

// Wrap breaks s into lines no longer than width where spaces allow.
// Words longer than width stay whole on their own line.
func Wrap(s string, width int) []string {
	if width <= 0 {
		return []string{s}
	}
	return strings.Split(wordwrap.WrapString(s, uint(width)), "\n")
}
