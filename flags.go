package getopt

import "strings"

// Flag is the capability bitmask of an option
type Flag uint64

const (
	FlagCommandLine Flag = 1 << iota
	FlagEnvironmentVariable
	FlagConfigurationFile
	FlagDynamicConfiguration
	FlagAlias
	FlagFlag
	FlagRequired
	FlagMultiple
	FlagDefaultOption
	FlagHasDefault
	FlagProcessVariables
	FlagShowUsageOnError
	FlagLock
	FlagDynamic
	FlagCommand
	FlagShowMost
	FlagShowAll
	FlagShowSystem
	FlagGroup1
	FlagGroup2
)

const (
	// FlagSourceMask selects the flags naming where values may come from
	FlagSourceMask = FlagCommandLine | FlagEnvironmentVariable | FlagConfigurationFile | FlagDynamicConfiguration

	// FlagSourceAll accepts every source
	FlagSourceAll = FlagCommandLine | FlagEnvironmentVariable | FlagConfigurationFile

	// FlagShowMask selects the help visibility flags
	FlagShowMask = FlagShowMost | FlagShowAll | FlagShowSystem | FlagGroup1 | FlagGroup2

	// flagArgumentMask must match between an alias and its destination
	flagArgumentMask = FlagFlag | FlagRequired | FlagMultiple | FlagDefaultOption
)

var flagNames = []string{
	"command-line",
	"environment-variable",
	"configuration-file",
	"dynamic-configuration",
	"alias",
	"flag",
	"required",
	"multiple",
	"default-option",
	"has-default",
	"process-variables",
	"show-usage-on-error",
	"lock",
	"dynamic",
	"command",
	"show-most",
	"show-all",
	"show-system",
	"group1",
	"group2",
}

// String lists the set flags separated by '|'
func (f Flag) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for i, name := range flagNames {
		if f&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseFlags converts a list of flag names, as found in definitions files,
// back to a bitmask. Separators may be commas, '|' or whitespace.
func ParseFlags(s string) (Flag, error) {
	var f Flag
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '|' || r == ' ' || r == '\t'
	})
	for _, field := range fields {
		name := strings.ReplaceAll(strings.ToLower(field), "_", "-")
		found := false
		for i, n := range flagNames {
			if n == name {
				f |= 1 << i
				found = true
				break
			}
		}
		if !found {
			return 0, logicf("unknown option flag %q", field)
		}
	}
	return f, nil
}

// Source identifies where the last accepted value of an option came from
type Source string

const (
	SourceUndefined           Source = "undefined"
	SourceDirect              Source = "direct"
	SourceCommandLine         Source = "command-line"
	SourceEnvironmentVariable Source = "environment-variable"
	SourceConfiguration       Source = "configuration"
	SourceDynamic             Source = "dynamic"
)

// Status reports the outcome of a value assignment
type Status int

const (
	StatusAccepted Status = iota
	StatusLocked
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusAccepted:
		return "accepted"
	case StatusLocked:
		return "locked"
	case StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// NoShortName is the ShortName of options without a one letter form
const NoShortName rune = 0

// DefaultOptionName is the reserved name of the option receiving bare arguments
const DefaultOptionName = "--"
