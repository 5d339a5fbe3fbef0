package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/lixenwraith/getopt/conffile"
)

var (
	nameColor    = color.New(color.FgCyan)
	valueColor   = color.New(color.FgGreen)
	commentColor = color.New(color.FgHiBlack)
	eventColor   = color.New(color.FgYellow)
)

func newGetCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "get FILE NAME...",
		Short: "Print the value of parameters",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.open(args[0])
			if err != nil {
				return err
			}
			var missing []string
			for _, name := range args[1:] {
				if !f.HasParameter(name) {
					missing = append(missing, name)
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), f.GetParameter(name))
			}
			if len(missing) > 0 {
				return errors.Errorf("parameter(s) not found in %s: %s", f.Filename(), strings.Join(missing, ", "))
			}
			return nil
		},
	}
}

func newListCmd(opts *rootOpts) *cobra.Command {
	var withComments, withLines bool

	cmd := &cobra.Command{
		Use:   "list FILE",
		Short: "List every parameter of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.open(args[0])
			if err != nil {
				return err
			}
			if !f.Exists() {
				return errors.Errorf("%s does not exist", f.Filename())
			}

			w := cmd.OutOrStdout()
			params := f.Parameters()
			for _, name := range f.ParameterNames() {
				p := params[name]
				if withComments && p.Comment != "" {
					commentColor.Fprint(w, p.Comment)
				}
				if withLines && p.Line > 0 {
					commentColor.Fprintf(w, "%4d ", p.Line)
				}
				fmt.Fprintf(w, "%s = %s\n", nameColor.Sprint(name), valueColor.Sprint(p.Value))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&withComments, "comments", "c", false, "print the comments attached to parameters")
	cmd.Flags().BoolVarP(&withLines, "lines", "l", false, "print the line where parameters were defined")
	return cmd
}

func newSetCmd(opts *rootOpts) *cobra.Command {
	var (
		section string
		comment string
		backup  string
		banner  bool
	)

	cmd := &cobra.Command{
		Use:   "set FILE NAME VALUE",
		Short: "Create or update a parameter and save the file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.open(args[0])
			if err != nil {
				return err
			}
			if comment != "" && !strings.HasSuffix(comment, "\n") {
				comment += "\n"
			}
			if !f.SetParameter(section, args[1], args[2], conffile.OperatorSet, comment) {
				return errors.Errorf("%s refused parameter %q", f.Filename(), args[1])
			}
			return f.Save(conffile.SaveOptions{BackupExtension: backup, ReplaceBackup: true, PrependWarning: banner})
		},
	}
	cmd.Flags().StringVarP(&section, "section", "s", "", "section receiving the parameter")
	cmd.Flags().StringVar(&comment, "comment", "", "comment written before the parameter (needs --comment-style save)")
	cmd.Flags().StringVar(&backup, "backup", "", "keep the previous file with this extension")
	cmd.Flags().BoolVar(&banner, "banner", false, "write a generated file banner")
	return cmd
}

func newEraseCmd(opts *rootOpts) *cobra.Command {
	var backup string

	cmd := &cobra.Command{
		Use:   "erase FILE NAME...",
		Short: "Remove parameters and save the file",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.open(args[0])
			if err != nil {
				return err
			}
			for _, name := range args[1:] {
				if !f.EraseParameter(name) {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: no parameter %q\n", f.Filename(), name)
				}
			}
			return f.Save(conffile.SaveOptions{BackupExtension: backup, ReplaceBackup: true})
		},
	}
	cmd.Flags().StringVar(&backup, "backup", "", "keep the previous file with this extension")
	return cmd
}

func newURLCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "url FILE",
		Short: "Print the URL identifying a file and its dialect",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := opts.open(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), f.Setup().ConfigURL())
			return nil
		},
	}
}

func newWatchCmd(opts *rootOpts) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch FILE...",
		Short: "Print parameter changes until interrupted",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files := make([]*conffile.File, 0, len(args))
			for _, path := range args {
				f, err := opts.open(path)
				if err != nil {
					return err
				}
				f.AddCallback(func(f *conffile.File, action conffile.Action, name, value string) {
					if action == conffile.ActionReloaded {
						return
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s = %s\n",
						eventColor.Sprint(action), f.Filename(), nameColor.Sprint(name), valueColor.Sprint(value))
				})
				files = append(files, f)
			}

			w, err := conffile.NewWatcher(conffile.WatchOptions{Debounce: debounce}, files...)
			if err != nil {
				return err
			}
			defer w.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return waitChanges(ctx, w)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", conffile.DefaultDebounce, "delay before a changed file is reloaded")
	return cmd
}

// waitChanges drains the watcher until ctx is done or the watcher stops
func waitChanges(ctx context.Context, w *conffile.Watcher) error {
	changes := w.Changes()
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return errors.New("watcher stopped")
			}
		}
	}
}
