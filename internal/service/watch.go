package service

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// fileWatcher recursively watches a set of directories with fsnotify
// and invokes onChange with the path of any watched-extension file
// that was written, created, or removed. Grounded on the teacher's
// internal/watcher.fileWatcher, narrowed to the pieces the facade
// needs: recursive directory registration and extension filtering —
// debouncing lives in the Service, not here.
type fileWatcher struct {
	watcher  *fsnotify.Watcher
	ext      map[string]bool
	onChange func(path string)

	closeOnce sync.Once
	done      chan struct{}
}

func newFileWatcher(dirs []string, extensions []string, onChange func(path string)) (*fileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	extMap := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		extMap[strings.ToLower(e)] = true
	}

	fw := &fileWatcher{watcher: w, ext: extMap, onChange: onChange, done: make(chan struct{})}

	for _, dir := range dirs {
		if err := fw.addRecursive(dir); err != nil {
			w.Close()
			return nil, err
		}
	}

	go fw.loop()
	return fw, nil
}

func (fw *fileWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if name == ".git" || name == "node_modules" || name == ".xindex" {
			return filepath.SkipDir
		}
		return fw.watcher.Add(path)
	})
}

func (fw *fileWatcher) loop() {
	defer close(fw.done)
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fw.addRecursive(event.Name); err != nil {
						log.Printf("service: failed to watch new directory %s: %v", event.Name, err)
					}
				}
			}
			if fw.shouldNotify(event) {
				fw.onChange(event.Name)
			}
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("service: file watcher error: %v", err)
		}
	}
}

func (fw *fileWatcher) shouldNotify(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
		return false
	}
	ext := strings.ToLower(filepath.Ext(event.Name))
	return fw.ext[ext]
}

func (fw *fileWatcher) close() {
	fw.closeOnce.Do(func() {
		fw.watcher.Close()
		<-fw.done
	})
}
