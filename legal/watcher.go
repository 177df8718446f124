package legal

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is how long the watcher waits for more changes before
// reindexing. Corpus edits usually touch several files at once.
const defaultDebounce = 500 * time.Millisecond

// Watcher reindexes the legal corpus when its files change.
type Watcher struct {
	retriever *Retriever
	dir       string
	debounce  time.Duration
	logger    *slog.Logger
}

// NewWatcher creates a corpus watcher for the given directory.
func NewWatcher(retriever *Retriever, dir string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		retriever: retriever,
		dir:       dir,
		debounce:  defaultDebounce,
		logger:    logger,
	}
}

// Run watches the corpus directory until ctx is cancelled. File change
// bursts are debounced into a single reindex. Reindex failures are logged
// and the previous index stays in place.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return err
	}

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isCorpusFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Corpus watcher error", "error", err)

		case <-timerC:
			timer = nil
			timerC = nil
			w.logger.Info("Legal corpus changed, reindexing", "dir", w.dir)
			if err := w.retriever.LoadCorpus(ctx, w.dir); err != nil {
				w.logger.Warn("Corpus reindex failed, keeping previous index", "error", err)
			}
		}
	}
}

func isCorpusFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
