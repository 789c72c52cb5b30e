package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"toolhub/pkg/logging"
)

// DefaultDebounceInterval is the quiet period after the last change to
// config.yaml before it is reloaded.
const DefaultDebounceInterval = 250 * time.Millisecond

// Watch reloads the configuration whenever config.yaml in dir changes and
// passes every valid result to onChange. Invalid files are logged and
// ignored. It blocks until ctx is cancelled.
func Watch(ctx context.Context, dir string, v *viper.Viper, onChange func(Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file instead of
	// writing it in place.
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	logging.Info("ConfigWatcher", "Watching %s for changes", FilePath(dir))

	var (
		mu       sync.Mutex
		debounce *time.Timer
		wg       sync.WaitGroup
	)
	reload := func() {
		defer wg.Done()
		if ctx.Err() != nil {
			return
		}
		cfg, err := Load(dir, v)
		if err != nil {
			logging.Warn("ConfigWatcher", "Ignoring invalid configuration: %v", err)
			return
		}
		logging.Info("ConfigWatcher", "Configuration reloaded")
		onChange(cfg)
	}
	defer func() {
		mu.Lock()
		if debounce != nil && debounce.Stop() {
			wg.Done()
		}
		mu.Unlock()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != configFileName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			mu.Lock()
			if debounce != nil && debounce.Stop() {
				wg.Done()
			}
			wg.Add(1)
			debounce = time.AfterFunc(DefaultDebounceInterval, reload)
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Error("ConfigWatcher", err, "fsnotify error")
		}
	}
}
