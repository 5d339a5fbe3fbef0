// FILE: lixenwraith/getopt/watch.go
package getopt

import (
	"gitlab.com/tozd/go/errors"

	"github.com/lixenwraith/getopt/conffile"
)

// Watch reloads the configuration files read by the last Parse whenever
// they change on disk. Options flagged FlagDynamicConfiguration take the
// new values with SourceDynamic. The caller closes the returned watcher.
func (g *Getopt) Watch(opts conffile.WatchOptions) (*conffile.Watcher, error) {
	g.mu.RLock()
	if !g.parsed {
		g.mu.RUnlock()
		return nil, errors.Errorf("%w: nothing to watch", ErrNotParsed)
	}
	files := append([]*conffile.File(nil), g.configFiles...)
	g.mu.RUnlock()

	if len(files) == 0 {
		return nil, errors.New("no configuration file was read")
	}
	return conffile.NewWatcher(opts, files...)
}

// AutoUpdate is Watch with conffile.DefaultWatchOptions
func (g *Getopt) AutoUpdate() (*conffile.Watcher, error) {
	return g.Watch(conffile.DefaultWatchOptions())
}
