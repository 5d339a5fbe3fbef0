package main

import (
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/lixenwraith/getopt/conffile"
	"github.com/lixenwraith/getopt/logsink"
)

// rootOpts holds the flags shared by every subcommand
type rootOpts struct {
	continuation  string
	assignment    string
	comment       string
	section       string
	nameSeparator string
	noColor       bool
	verbose       bool

	cache *conffile.Cache
	sink  *logsink.Counter
}

// dialect builds the dialect selected on the command line
func (o *rootOpts) dialect() (conffile.Dialect, error) {
	var (
		d   conffile.Dialect
		err error
	)
	if d.LineContinuation, err = conffile.ParseContinuation(o.continuation); err != nil {
		return d, err
	}
	if d.AssignmentOperator, err = conffile.ParseAssignment(o.assignment); err != nil {
		return d, err
	}
	if d.Comment, err = conffile.ParseComment(o.comment); err != nil {
		return d, err
	}
	if d.SectionOperator, err = conffile.ParseSection(o.section); err != nil {
		return d, err
	}
	if d.NameSeparator, err = conffile.ParseNameSeparator(o.nameSeparator); err != nil {
		return d, err
	}
	return d, d.Validate()
}

// open loads filename with the selected dialect
func (o *rootOpts) open(filename string) (*conffile.File, error) {
	d, err := o.dialect()
	if err != nil {
		return nil, err
	}
	f, err := o.cache.Get(conffile.Setup{Filename: filename, Dialect: d})
	if err != nil {
		return nil, err
	}
	if n := o.sink.Errors(); n > 0 {
		return nil, errors.Errorf("%d error(s) found reading %s", n, f.Filename())
	}
	return f, nil
}

// newRootCmd creates the command tree writing to out and reporting to errOut
func newRootCmd(out, errOut io.Writer) *cobra.Command {
	opts := &rootOpts{}

	cmd := &cobra.Command{
		Use:   "confedit",
		Short: "Inspect and edit configuration files",
		Long: `confedit reads and writes the configuration files understood by getopt.

The dialect flags describe the file syntax. The defaults match the
getopt default dialect: '=' assignments, ';' and '#' comments, INI
sections and backslash line continuation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			color.NoColor = color.NoColor || opts.noColor

			var sink logsink.Sink = logsink.New(errOut, true)
			if !opts.verbose {
				sink = warningsOnly(sink)
			}
			opts.sink = logsink.NewCounter(sink)
			opts.cache = conffile.NewCache(conffile.WithSink(opts.sink))
			return nil
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.continuation, "continuation", "unix", "line continuation (single-line, rfc-822, msdos, unix, fortran, semicolon)")
	flags.StringVar(&opts.assignment, "assignment", "equals", "accepted assignment operators (equals, colon, space, extended)")
	flags.StringVar(&opts.comment, "comment-style", "ini,shell", "accepted comments (ini, shell, cpp, save)")
	flags.StringVar(&opts.section, "section-style", "ini", "accepted sections (c, cpp, block, ini, one-section)")
	flags.StringVar(&opts.nameSeparator, "name-separator", "dashes", "word separator used on save (dashes, underscores)")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "report debug and info messages")

	cmd.AddCommand(
		newGetCmd(opts),
		newListCmd(opts),
		newSetCmd(opts),
		newEraseCmd(opts),
		newURLCmd(opts),
		newWatchCmd(opts),
	)
	return cmd
}

// warningsOnly drops messages below warning severity
func warningsOnly(sink logsink.Sink) logsink.Sink {
	return logsink.SinkFunc(func(severity logsink.Severity, message string) {
		if severity >= logsink.SeverityWarning {
			sink.Emit(severity, message)
		}
	})
}
