package session

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/phoalbum/internal/logging"
	"github.com/tomz197/phoalbum/internal/physics"
	"github.com/tomz197/phoalbum/internal/store"
)

// Manager runs one session per connection against a shared store. Sessions
// share a single saver so content writes are serialized.
type Manager struct {
	opts   Options
	saver  *store.Saver
	logger *log.Logger

	mu       sync.Mutex
	sessions map[int]*handle
	nextID   int
	wg       sync.WaitGroup
	closed   bool
}

// handle tracks a running session.
type handle struct {
	session *Session
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewManager creates a manager. opts is the template for every session;
// its Store is shared and its Saver is replaced by the manager's own.
func NewManager(opts Options) *Manager {
	m := &Manager{
		opts:     opts,
		logger:   logging.For(opts.Logger, "sessions"),
		sessions: make(map[int]*handle),
	}
	if opts.Store != nil {
		m.saver = store.NewSaver(opts.Store, opts.Logger)
	}
	m.opts.Saver = m.saver
	return m
}

// Start creates a session for a viewport and runs it until ctx is done or the
// returned stop function is called. stop blocks until the loop has exited.
func (m *Manager) Start(ctx context.Context, vp physics.Viewport) (s *Session, stop func(), err error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, nil, ErrShutdown
	}
	m.nextID++
	id := m.nextID
	m.wg.Add(1)
	m.mu.Unlock()

	// Earlier sessions may still have content in flight.
	if m.saver != nil {
		m.saver.Flush()
	}

	opts := m.opts
	opts.Viewport = vp
	opts.Logger = m.logger.With("session", id)
	s = New(ctx, opts)

	runCtx, cancel := context.WithCancel(ctx)
	h := &handle{session: s, cancel: cancel, done: make(chan struct{})}
	m.mu.Lock()
	m.sessions[id] = h
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		defer close(h.done)
		if err := s.Run(runCtx); err != nil {
			m.logger.Error("session failed", "session", id, "err", err)
		}
		s.Close()
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
	}()

	m.logger.Info("session opened", "session", id, "viewport", vp)
	var once sync.Once
	stop = func() {
		once.Do(func() {
			cancel()
			<-h.done
			m.logger.Info("session closed", "session", id)
		})
	}
	return s, stop, nil
}

// Len returns the number of running sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown stops every session and waits up to timeout for them to exit, then
// flushes pending saves. Returns false if sessions were still running.
func (m *Manager) Shutdown(timeout time.Duration) bool {
	m.mu.Lock()
	m.closed = true
	for _, h := range m.sessions {
		h.cancel()
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	ok := true
	select {
	case <-done:
	case <-time.After(timeout):
		m.logger.Warn("sessions still running at shutdown", "count", m.Len())
		ok = false
	}
	if m.saver != nil {
		m.saver.Close()
	}
	return ok
}
