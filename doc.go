// File: lixenwraith/getopt/doc.go

// Package getopt resolves program options from three sources: configuration
// files, environment variables and the command line. One schema of named
// options, described by an Environment, drives all three.
//
// Features:
//   - GNU style command lines: --name, --name=value, bundled -xyz, "--"
//   - Per-option and whole-command-line environment variables, with an
//     optional .env overlay
//   - Configuration files in several dialects (see package conffile), found
//     in explicit paths, configuration directories, XDG directories,
//     --config-dir and <project>.d drop-ins
//   - Options definitions files (.ini, .toml, .yaml, .json, .jsonc, .hcl)
//   - Validators, ${variable} expansion, aliases and a default option
//   - Provenance: every value records its source and a trace
//   - System options (--help, --version, --show-option-sources, ...)
//   - Dynamic configuration: options follow edits of watched files
//   - Struct decoding with Scan and TOML export with Dump
//
// Quick Start:
//
//	defs := []getopt.OptionDefinition{
//	    {Name: "verbose", ShortName: 'v', Flags: getopt.FlagCommandLine | getopt.FlagFlag},
//	    {Name: "level", Flags: getopt.FlagSourceAll | getopt.FlagRequired, Default: "1",
//	        Validator: "integer(0...9)"},
//	    {Name: "--", Flags: getopt.FlagCommandLine | getopt.FlagMultiple},
//	}
//
//	g, err := getopt.Quick("myapp", defs, os.Args)
//	if err != nil {
//	    var exit *getopt.ExitError
//	    if errors.As(err, &exit) {
//	        os.Exit(exit.Code)
//	    }
//	    log.Fatal(err)
//	}
//
//	level, _ := g.Long("level")
//
// Precedence (last assignment wins, lowest to highest):
//  1. Default values
//  2. Configuration files, in discovery order
//  3. Per-option environment variables, then the options variable
//  4. Command-line arguments
//
// Options flagged FlagMultiple accumulate values across the same order
// instead of replacing them.
//
// Thread Safety:
// A Getopt guards its option table with a read-write mutex so dynamic
// updates from watched files and readers can coexist. Parse itself is not
// meant to run concurrently with other calls on the same registry.
package getopt
