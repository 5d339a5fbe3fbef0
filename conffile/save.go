package conffile

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"

	"github.com/lixenwraith/getopt/internal/textutil"
)

// SaveOptions configures Save
type SaveOptions struct {
	// BackupExtension names the backup of the previous file; empty disables backups
	BackupExtension string

	// ReplaceBackup overwrites an existing backup
	ReplaceBackup bool

	// PrependWarning writes a banner telling readers the file is generated
	PrependWarning bool
}

// DefaultSaveOptions returns a ".bak" backup, never replaced, and the banner
func DefaultSaveOptions() SaveOptions {
	return SaveOptions{
		BackupExtension: "bak",
		ReplaceBackup:   false,
		PrependWarning:  true,
	}
}

const fileMode os.FileMode = 0644

const banner = "This file was generated when the configuration was saved.\n" +
	"Comments other than those attached to parameters are lost on the next save.\n"

// Save writes the parameters back to disk. Nothing happens unless the file
// was modified.
func (f *File) Save(opts SaveOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.modified {
		return nil
	}

	data := f.render(opts.PrependWarning)

	if opts.BackupExtension != "" {
		if err := f.backup(opts); err != nil {
			return err
		}
	}

	if err := atomicWriteFile(f.fs, f.setup.Filename, []byte(data)); err != nil {
		f.errorf(0, "save failed: %v", err)
		return errors.Errorf("%w: %s: %v", ErrWrite, f.setup.Filename, err)
	}

	f.modified = false
	f.exists = true
	return nil
}

// backup renames the current file to its backup name; must hold f.mu
func (f *File) backup(opts SaveOptions) error {
	exists, err := afero.Exists(f.fs, f.setup.Filename)
	if err != nil || !exists {
		return nil
	}

	backup := f.setup.Filename + "." + strings.TrimPrefix(opts.BackupExtension, ".")
	backupExists, _ := afero.Exists(f.fs, backup)
	if backupExists {
		if !opts.ReplaceBackup {
			return nil
		}
		if err := f.fs.Remove(backup); err != nil {
			return errors.Errorf("%w: removing backup '%s': %v", ErrWrite, backup, err)
		}
	}

	if err := f.fs.Rename(f.setup.Filename, backup); err != nil {
		return errors.Errorf("%w: creating backup '%s': %v", ErrWrite, backup, err)
	}
	return nil
}

// atomicWriteFile writes data to a temporary file then renames it over path
func atomicWriteFile(fs afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return errors.Errorf("creating directory '%s': %w", dir, err)
	}

	tempFile, err := afero.TempFile(fs, dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Errorf("creating temporary file: %w", err)
	}

	tempPath := tempFile.Name()
	renamed := false
	defer func() {
		if !renamed {
			_ = fs.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return errors.Errorf("writing temporary file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return errors.Errorf("syncing temporary file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return errors.Errorf("closing temporary file: %w", err)
	}

	if err := fs.Chmod(tempPath, fileMode); err != nil {
		return errors.Errorf("setting permissions: %w", err)
	}

	if err := fs.Rename(tempPath, path); err != nil {
		return errors.Errorf("renaming temporary file: %w", err)
	}
	renamed = true

	return nil
}

// entry is one parameter ready to be written
type entry struct {
	parts []string // section components followed by the name
	Parameter
}

func (e entry) section() string { return strings.Join(e.parts[:len(e.parts)-1], "::") }

// render produces the file content; must hold f.mu
func (f *File) render(prependWarning bool) string {
	d := f.setup.Dialect.normalized()

	entries := make([]entry, 0, len(f.parameters))
	for _, name := range f.sortedNames() {
		parts := strings.Split(name, "::")
		if d.NameSeparator == NameSeparatorUnderscores {
			for i := range parts {
				parts[i] = textutil.OptionWithUnderscores(parts[i])
			}
		}
		entries = append(entries, entry{parts: parts, Parameter: f.parameters[name]})
	}

	var b strings.Builder

	switch {
	case d.hasSection(SectionBlock):
		f.renderBlocks(&b, d, entries, prependWarning)
	case d.hasSection(SectionINI):
		f.renderINI(&b, d, entries, prependWarning)
	default:
		sep := "::"
		if !d.hasSection(SectionCPP) && d.hasSection(SectionC) {
			sep = "."
		}
		writeBanner(&b, d, entries, prependWarning)
		for _, e := range entries {
			writeParameter(&b, d, "", strings.Join(e.parts, sep), e.Parameter)
		}
	}

	return b.String()
}

func (f *File) renderBlocks(b *strings.Builder, d Dialect, entries []entry, prependWarning bool) {
	writeBanner(b, d, entries, prependWarning)

	var open []string
	for _, e := range entries {
		path := e.parts[:len(e.parts)-1]

		common := 0
		for common < len(open) && common < len(path) && open[common] == path[common] {
			common++
		}
		for len(open) > common {
			open = open[:len(open)-1]
			b.WriteString(strings.Repeat("  ", len(open)) + "}\n")
		}
		for _, p := range path[common:] {
			b.WriteString(strings.Repeat("  ", len(open)) + p + " {\n")
			open = append(open, p)
		}

		writeParameter(b, d, strings.Repeat("  ", len(open)), e.parts[len(e.parts)-1], e.Parameter)
	}
	for len(open) > 0 {
		open = open[:len(open)-1]
		b.WriteString(strings.Repeat("  ", len(open)) + "}\n")
	}
}

func (f *File) renderINI(b *strings.Builder, d Dialect, entries []entry, prependWarning bool) {
	ordered := make([]entry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		si, sj := ordered[i].section(), ordered[j].section()
		if (si == "") != (sj == "") {
			return si == ""
		}
		return si < sj
	})

	writeBanner(b, d, ordered, prependWarning)

	current := ""
	for _, e := range ordered {
		if section := e.section(); section != current {
			b.WriteString("\n[" + section + "]\n")
			current = section
		}
		writeParameter(b, d, "", e.parts[len(e.parts)-1], e.Parameter)
	}
}

func writeBanner(b *strings.Builder, d Dialect, entries []entry, prependWarning bool) {
	intro := d.commentIntroducer()
	if !prependWarning || intro == "" {
		return
	}
	if len(entries) > 0 && entries[0].Comment != "" {
		return
	}
	for _, l := range strings.Split(strings.TrimSuffix(banner, "\n"), "\n") {
		b.WriteString(intro + " " + l + "\n")
	}
}

func writeParameter(b *strings.Builder, d Dialect, indent, name string, p Parameter) {
	if p.Comment != "" {
		for _, l := range strings.SplitAfter(p.Comment, "\n") {
			if l != "" {
				b.WriteString(indent + l)
			}
		}
		if !strings.HasSuffix(p.Comment, "\n") {
			b.WriteString("\n")
		}
	}

	b.WriteString(indent + name + d.assignmentString() + quoteValue(d, escape(p.Value)))
	if d.LineContinuation == ContinuationSemicolon {
		b.WriteString(";")
	}
	b.WriteString("\n")
}

// quoteValue wraps v in quotes when reading it back would alter it
func quoteValue(d Dialect, v string) string {
	needs := v != strings.TrimSpace(v) ||
		(len(v) >= 2 && textutil.Unquote(v, textutil.DefaultQuotes) != v)

	switch d.LineContinuation {
	case ContinuationUnix:
		needs = needs || strings.HasSuffix(v, `\`)
	case ContinuationMSDOS:
		needs = needs || strings.HasSuffix(v, "&")
	case ContinuationSemicolon:
		needs = needs || strings.ContainsAny(v, `;"'{}`)
	}

	if !needs {
		return v
	}
	if strings.Contains(v, `"`) && !strings.Contains(v, "'") {
		return "'" + v + "'"
	}
	return `"` + v + `"`
}
