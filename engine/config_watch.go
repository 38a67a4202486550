package engine

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/emberforge/ember/engine/core"
)

// configWatcher reloads the config file when it changes on disk and hands
// the parsed result to the frame loop through a channel. Only the runtime
// tunables (log level, target FPS) are applied; everything else needs a
// restart.
type configWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	updates chan *ApplicationConfig
}

func newConfigWatcher(path string) (*configWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory, not the file: editors replace files on save and
	// a file watch dies with the old inode.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	cw := &configWatcher{
		watcher: watcher,
		path:    path,
		updates: make(chan *ApplicationConfig, 1),
	}
	go cw.run()
	return cw, nil
}

func (cw *configWatcher) run() {
	target := filepath.Clean(cw.path)
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := LoadApplicationConfig(cw.path)
			if err != nil {
				core.LogWarn("config reload failed: %s", err)
				continue
			}
			select {
			case cw.updates <- cfg:
			default:
				// an unapplied update is already pending, replace it
				select {
				case <-cw.updates:
				default:
				}
				cw.updates <- cfg
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			core.LogWarn("config watcher error: %s", err)
		}
	}
}

// poll returns the latest pending config update, or nil.
func (cw *configWatcher) poll() *ApplicationConfig {
	select {
	case cfg := <-cw.updates:
		return cfg
	default:
		return nil
	}
}

func (cw *configWatcher) close() {
	cw.watcher.Close()
}
