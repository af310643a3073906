package upload

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/synergyreader/synergy/pkg/extract"
	"github.com/synergyreader/synergy/pkg/logger"
)

// DefaultSettle is how long a file must go without writes before it is
// uploaded.
const DefaultSettle = 500 * time.Millisecond

// Watcher enqueues supported files created or written in a directory.
type Watcher struct {
	Dir    string
	Pool   *Pool
	Settle time.Duration
	Logger *slog.Logger
}

// Watch blocks, enqueuing supported files in dir on pool, until ctx is
// cancelled.
func Watch(ctx context.Context, dir string, pool *Pool) error {
	w := &Watcher{Dir: dir, Pool: pool}
	return w.Run(ctx)
}

// Run watches until ctx is cancelled. Editors and copy tools write a file
// in several steps, so each file is enqueued once it has settled.
func (w *Watcher) Run(ctx context.Context) error {
	log := w.Logger
	if log == nil {
		log = logger.Nop()
	}
	settle := w.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.Dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.Dir, err)
	}
	log.Info("watching for documents", "dir", w.Dir)

	var (
		mu       sync.Mutex
		stopped  bool
		inflight sync.WaitGroup
	)
	timers := map[string]*time.Timer{}

	// A timer that already fired cannot be stopped, so Run waits for those
	// callbacks; none of them enqueues once stopped is set.
	defer func() {
		mu.Lock()
		stopped = true
		for _, t := range timers {
			t.Stop()
		}
		mu.Unlock()
		inflight.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !extract.Supported(ev.Name) {
				log.Debug("ignoring unsupported file", "path", ev.Name)
				continue
			}

			path := ev.Name
			mu.Lock()
			if t, ok := timers[path]; ok {
				t.Reset(settle)
			} else {
				timers[path] = time.AfterFunc(settle, func() {
					mu.Lock()
					delete(timers, path)
					if stopped || ctx.Err() != nil {
						mu.Unlock()
						return
					}
					inflight.Add(1)
					mu.Unlock()

					defer inflight.Done()
					w.Pool.Enqueue(path)
				})
			}
			mu.Unlock()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)
		}
	}
}
