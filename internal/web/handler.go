// Package web streams sessions to browser renderers over websockets and
// serves the stored board content.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/tomz197/phoalbum/internal/event"
	"github.com/tomz197/phoalbum/internal/logging"
	"github.com/tomz197/phoalbum/internal/loop/config"
	"github.com/tomz197/phoalbum/internal/loop/session"
	"github.com/tomz197/phoalbum/internal/physics"
	"github.com/tomz197/phoalbum/internal/store"
)

// forwarded are the session events relayed to browsers.
var forwarded = []event.Type{
	event.TierChanged,
	event.SectionChanged,
	event.IdeasChanged,
	event.ModeChanged,
	event.ContentChanged,
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // The page may be served from another host
	},
}

// Options configures a Handler.
type Options struct {
	Page     string           // HTML served at /, empty for none
	Viewport physics.Viewport // Used when the browser sends no size
	Logger   *log.Logger
}

// Handler serves /ws, /api/items and the page.
type Handler struct {
	manager  *session.Manager
	store    store.Store
	page     string
	viewport physics.Viewport
	logger   *log.Logger
	mux      *http.ServeMux

	mu    sync.Mutex
	conns map[*conn]struct{}
}

// NewHandler creates a handler starting sessions on m. st backs /api/items
// and may be nil.
func NewHandler(m *session.Manager, st store.Store, opts Options) *Handler {
	vp := opts.Viewport
	if !vp.Valid() {
		vp = physics.Viewport{Width: config.ViewWidth, Height: config.ViewHeight}
	}
	h := &Handler{
		manager:  m,
		store:    st,
		page:     opts.Page,
		viewport: vp,
		logger:   logging.For(opts.Logger, "web"),
		mux:      http.NewServeMux(),
		conns:    make(map[*conn]struct{}),
	}
	h.mux.HandleFunc("/ws", h.handleWebSocket)
	h.mux.HandleFunc("/api/items", h.handleItems)
	if h.page != "" {
		h.mux.HandleFunc("/", h.servePage)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Close drops every websocket connection. Their sessions stop as the read
// loops exit.
func (h *Handler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		c.ws.Close()
	}
}

// servePage serves the page at / and at the deep links.
func (h *Handler) servePage(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/", "/videos", "/ideas":
	default:
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(h.page))
}

// handleItems returns the stored board content.
func (h *Handler) handleItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	items := store.DefaultItems()
	if h.store != nil {
		loaded, err := h.store.Load(r.Context())
		switch {
		case errors.Is(err, store.ErrNoItems):
		case err != nil:
			h.logger.Warn("items load failed", "err", err)
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		default:
			items = loaded
		}
	}
	writeJSON(w, items)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

// viewportFrom reads ?w= and ?h=, falling back to the default viewport.
func (h *Handler) viewportFrom(r *http.Request) physics.Viewport {
	vp := h.viewport
	if v, err := strconv.ParseFloat(r.URL.Query().Get("w"), 64); err == nil && v > 0 {
		vp.Width = v
	}
	if v, err := strconv.ParseFloat(r.URL.Query().Get("h"), 64); err == nil && v > 0 {
		vp.Height = v
	}
	return vp
}

// conn is one browser connection. Writes are serialized by mu.
type conn struct {
	ws     *websocket.Conn
	mu     sync.Mutex
	events chan event.Event
}

func (c *conn) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(time.Second))
	return c.ws.WriteJSON(v)
}

// handleWebSocket runs a session for the connection: inbound messages become
// session commands, snapshots and events stream back.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer ws.Close()

	s, stop, err := h.manager.Start(context.Background(), h.viewportFrom(r))
	if err != nil {
		h.logger.Warn("session refused", "err", err)
		_ = ws.WriteJSON(Failure{Type: "error", Error: err.Error()})
		return
	}
	defer stop()

	c := &conn{ws: ws, events: make(chan event.Event, 64)}
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.conns, c)
		h.mu.Unlock()
	}()

	for _, t := range forwarded {
		unsubscribe := s.Subscribe(t, func(e event.Event) {
			select {
			case c.events <- e:
			default:
			}
		})
		defer unsubscribe()
	}

	done := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(c, s, done)
	}()

	h.readLoop(c, s)
	close(done)
	<-writerDone
}

// readLoop applies inbound messages until the connection closes.
func (h *Handler) readLoop(c *conn, s *session.Session) {
	for {
		var msg Message
		if err := c.ws.ReadJSON(&msg); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				_ = c.send(Failure{Type: "error", Error: err.Error()})
				continue
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket read ended", "err", err)
			}
			return
		}
		if err := apply(s, msg); err != nil {
			h.logger.Debug("message rejected", "type", msg.Type, "err", err)
			if err := c.send(Failure{Type: "error", Error: err.Error()}); err != nil {
				return
			}
		}
	}
}

// writeLoop streams new snapshots at the snapshot rate and relays events.
func (h *Handler) writeLoop(c *conn, s *session.Session, done <-chan struct{}) {
	ticker := time.NewTicker(config.SnapshotTime)
	defer ticker.Stop()

	var last uint64
	sent := false
	for {
		select {
		case <-done:
			return
		case e := <-c.events:
			if err := c.send(newNotice(e)); err != nil {
				c.ws.Close()
				return
			}
		case <-ticker.C:
			snap := s.Snapshot()
			if sent && snap.Frame == last {
				continue
			}
			if err := c.send(newFrame(snap)); err != nil {
				c.ws.Close()
				return
			}
			last, sent = snap.Frame, true
		}
	}
}
