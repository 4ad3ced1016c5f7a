package suite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"mcpprobe/pkg/logging"
)

const watchSubsystem = "ScenarioWatcher"

// DefaultDebounce is how long Watch waits for further changes before firing.
const DefaultDebounce = 500 * time.Millisecond

// Watch calls fn every time a scenario YAML file under path changes, until
// ctx is done. Bursts of events within debounce collapse into one call. fn
// runs on the watching goroutine, so changes made while it runs are picked up
// once it returns.
func Watch(ctx context.Context, path string, debounce time.Duration, fn func()) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot watch %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	onlyFile := ""
	if info.IsDir() {
		err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return watcher.Add(p)
			}
			return nil
		})
	} else {
		// Editors replace files on save, so watch the parent and filter.
		onlyFile = filepath.Clean(path)
		err = watcher.Add(filepath.Dir(path))
	}
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	logging.Info(watchSubsystem, "Watching %s for scenario changes", path)

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create == fsnotify.Create && onlyFile == "" {
				if st, err := os.Stat(event.Name); err == nil && st.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						logging.Warn(watchSubsystem, "Failed to watch new directory %s: %v", event.Name, err)
					}
					continue
				}
			}
			if !relevant(event, onlyFile) {
				continue
			}
			logging.Debug(watchSubsystem, "Change detected: %s %s", event.Op, event.Name)
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Error(watchSubsystem, err, "Filesystem watcher error")

		case <-timer.C:
			fn()
		}
	}
}

func relevant(event fsnotify.Event, onlyFile string) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if onlyFile != "" {
		return filepath.Clean(event.Name) == onlyFile
	}
	return isYAMLFile(event.Name)
}
