package watcher

import (
	"log"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// Loader is anything that can (re)load itself from a file.
type Loader interface {
	Load(path string) error
}

// Watcher reloads a Loader whenever the watched file is rewritten.
type Watcher struct {
	stop chan struct{}
	done chan error
}

// LoadAndWatch loads the file once and then keeps reloading it on
// every write until Close is called. A failed reload keeps the
// previously loaded state.
func LoadAndWatch(path string, loader Loader) (*Watcher, error) {
	if err := loader.Load(path); err != nil {
		return nil, errors.Wrap(err, "failed to load file")
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create watcher")
	}
	if err = fsWatcher.Add(path); err != nil {
		return nil, errors.Wrap(err, "failed to add file to watcher")
	}
	w := &Watcher{
		stop: make(chan struct{}),
		done: make(chan error),
	}
	go w.watch(path, loader, fsWatcher)
	return w, nil
}

func (w *Watcher) watch(path string, loader Loader, fsWatcher *fsnotify.Watcher) {
	for {
		select {
		case event := <-fsWatcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := loader.Load(path); err != nil {
				log.Println(errors.Wrap(err, "failed to reload file"))
			}
		case err := <-fsWatcher.Errors:
			log.Println(errors.Wrap(err, "failed to watch file"))
		case <-w.stop:
			w.done <- fsWatcher.Close()
			return
		}
	}
}

func (w *Watcher) Close() error {
	close(w.stop)
	return <-w.done
}
