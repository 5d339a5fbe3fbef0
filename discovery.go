// FILE: lixenwraith/getopt/discovery.go
package getopt

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// ConfigurationFilenames lists the configuration files in the order they
// are read. With existing set only the files present on the filesystem are
// returned. --config-dir values from the last parse are included.
func (g *Getopt) ConfigurationFilenames(existing bool) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.discoverConfigurationFiles(existing)
}

// ConfigurationFilesRead returns the files applied during the last parse
func (g *Getopt) ConfigurationFilesRead() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	names := make([]string, 0, len(g.configFiles))
	for _, f := range g.configFiles {
		names = append(names, f.Filename())
	}
	return names
}

// discoverConfigurationFiles builds the search list: explicit files first,
// then the configuration filename in every configuration directory, the XDG
// directories and the --config-dir directories. Every file is followed by
// its drop-in files. The caller holds the lock.
func (g *Getopt) discoverConfigurationFiles(existing bool) []string {
	var (
		result []string
		seen   = make(map[string]bool)
	)
	add := func(path string) {
		path = filepath.Clean(g.expandHome(path))
		if seen[path] {
			return
		}
		seen[path] = true
		if !existing || g.exists(path) {
			result = append(result, path)
		}
		for _, dropIn := range g.dropIns(path) {
			if !seen[dropIn] {
				seen[dropIn] = true
				result = append(result, dropIn)
			}
		}
	}

	for _, path := range g.env.ConfigurationFiles {
		add(path)
	}

	name := g.env.ConfigurationFilename
	if name == "" {
		return result
	}
	if strings.ContainsRune(name, filepath.Separator) {
		add(name)
		return result
	}

	dirs := append([]string(nil), g.env.ConfigurationDirectories...)
	if g.env.Has(EnvironmentFlagXDG) && g.env.ProjectName != "" {
		dirs = append(dirs, g.xdgConfigPaths(g.env.ProjectName)...)
	}
	dirs = append(dirs, g.configDirs...)

	for _, dir := range dirs {
		add(filepath.Join(dir, name))
	}
	return result
}

// dropIns returns the files named ??-<basename> in <dir>/<project>.d, sorted
func (g *Getopt) dropIns(path string) []string {
	if g.env.ProjectName == "" {
		return nil
	}
	dir := filepath.Join(filepath.Dir(path), g.env.ProjectName+".d")
	entries, err := afero.ReadDir(g.fs, dir)
	if err != nil {
		return nil
	}

	pattern := "??-" + filepath.Base(path)
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ok, _ := doublestar.Match(pattern, entry.Name()); ok {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files
}

func (g *Getopt) exists(path string) bool {
	ok, err := afero.Exists(g.fs, path)
	return err == nil && ok
}

// expandHome replaces a leading "~/" with $HOME
func (g *Getopt) expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, found := g.getenv("HOME")
	if !found || home == "" {
		return path
	}
	return filepath.Join(home, rest)
}

// xdgConfigPaths returns XDG-compliant config search paths, most general
// first so that the user directory overrides the system ones
func (g *Getopt) xdgConfigPaths(appName string) []string {
	var paths []string

	// XDG_CONFIG_DIRS
	if xdgDirs, _ := g.getenv("XDG_CONFIG_DIRS"); xdgDirs != "" {
		dirs := filepath.SplitList(xdgDirs)
		for i := len(dirs) - 1; i >= 0; i-- {
			paths = append(paths, filepath.Join(dirs[i], appName))
		}
	} else {
		paths = append(paths, filepath.Join("/etc/xdg", appName))
	}

	// XDG_CONFIG_HOME
	if xdgHome, _ := g.getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		paths = append(paths, filepath.Join(xdgHome, appName))
	} else if home, _ := g.getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", appName))
	}

	return paths
}
