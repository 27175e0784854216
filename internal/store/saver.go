package store

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/tomz197/phoalbum/internal/logging"
)

// saveTimeout bounds a single background save.
const saveTimeout = 5 * time.Second

// Saver saves in the background so callers on the frame loop never block.
// Only the newest pending list is kept; older unsaved lists are superseded.
type Saver struct {
	store  Store
	logger *log.Logger

	mu      sync.Mutex
	pending []ContentItem
	queued  bool
	wake    chan struct{}
	idle    *sync.Cond
	busy    bool
	closed  bool
	done    chan struct{}
}

// NewSaver starts the background worker. Call Close to flush and stop it.
func NewSaver(s Store, logger *log.Logger) *Saver {
	sv := &Saver{
		store:  s,
		logger: logging.For(logger, "saver"),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	sv.idle = sync.NewCond(&sv.mu)
	go sv.run()
	return sv
}

// Save queues items for saving and returns immediately.
func (sv *Saver) Save(items []ContentItem) {
	sv.mu.Lock()
	if sv.closed {
		sv.mu.Unlock()
		return
	}
	sv.pending = Clone(items)
	if sv.pending == nil {
		sv.pending = []ContentItem{}
	}
	sv.queued = true
	select {
	case sv.wake <- struct{}{}:
	default:
	}
	sv.mu.Unlock()
}

// Flush blocks until every queued list has been written.
func (sv *Saver) Flush() {
	sv.mu.Lock()
	for sv.queued || sv.busy {
		sv.idle.Wait()
	}
	sv.mu.Unlock()
}

// Close flushes and stops the worker. Later Saves are dropped.
func (sv *Saver) Close() {
	sv.Flush()
	sv.mu.Lock()
	if sv.closed {
		sv.mu.Unlock()
		return
	}
	sv.closed = true
	close(sv.wake)
	sv.mu.Unlock()
	<-sv.done
}

func (sv *Saver) run() {
	defer close(sv.done)
	for range sv.wake {
		for {
			sv.mu.Lock()
			if !sv.queued {
				sv.idle.Broadcast()
				sv.mu.Unlock()
				break
			}
			items := sv.pending
			sv.pending, sv.queued, sv.busy = nil, false, true
			sv.mu.Unlock()

			sv.write(items)

			sv.mu.Lock()
			sv.busy = false
			sv.mu.Unlock()
		}
	}
}

func (sv *Saver) write(items []ContentItem) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	start := time.Now()
	if err := sv.store.Save(ctx, items); err != nil {
		sv.logger.Warn("save failed", "items", humanize.Comma(int64(len(items))), "err", err)
		return
	}
	sv.logger.Debug("saved",
		"items", humanize.Comma(int64(len(items))),
		"size", humanize.Bytes(payloadSize(items)),
		"took", time.Since(start))
}
