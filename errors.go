package getopt

import (
	"fmt"

	"gitlab.com/tozd/go/errors"
)

var (
	// ErrLogic marks schema or usage mistakes made by the embedding application
	ErrLogic = errors.Base("getopt logic error")

	// ErrNotParsed is returned by value accessors called before parsing completed
	ErrNotParsed = errors.Base("options were not parsed yet")

	// ErrUndefined is returned when an option has neither a value nor a default
	ErrUndefined = errors.Base("option is not defined")

	// ErrUnknownOption is returned for names missing from the schema
	ErrUnknownOption = errors.Base("unknown option")

	// ErrDefinitions wraps failures reading an options definitions file
	ErrDefinitions = errors.Base("invalid options definitions")
)

// ExitError asks the caller to stop and exit with Code. Code 0 means a system
// command such as --help was handled; any other code means parsing failed.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Message
}

// logicf builds an error wrapping ErrLogic
func logicf(format string, args ...any) error {
	return errors.Errorf("%w: %s", ErrLogic, fmt.Sprintf(format, args...))
}
