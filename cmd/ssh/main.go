package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/logging"

	"github.com/tomz197/phoalbum/internal/config"
	"github.com/tomz197/phoalbum/internal/draw"
	applog "github.com/tomz197/phoalbum/internal/logging"
	"github.com/tomz197/phoalbum/internal/loop/client"
	loopconfig "github.com/tomz197/phoalbum/internal/loop/config"
	"github.com/tomz197/phoalbum/internal/loop/session"
	"github.com/tomz197/phoalbum/internal/store"
)

const (
	defaultHost        = "::"
	defaultPort        = "2222"
	defaultHostKeyPath = "/app/keys/host_key"
)

func main() {
	logger := applog.New(os.Stderr)

	host := config.GetEnv("SSH_HOST", defaultHost)
	port := config.GetEnv("SSH_PORT", defaultPort)
	hostKeyPath := config.GetEnv("SSH_HOST_KEY", defaultHostKeyPath)
	workingDir, workErr := os.Getwd()
	if workErr != nil {
		logger.Warn("failed to get working directory", "err", workErr)
	}
	logger.Info("ssh config", "host", host, "port", port, "hostKeyPath", hostKeyPath, "workingDir", workingDir)

	st, err := store.OpenEnv()
	if err != nil {
		logger.Fatal("failed to open store", "err", err)
	}
	if c, ok := st.(io.Closer); ok {
		defer c.Close()
	}

	// One session per connection, all sharing the store
	manager := session.NewManager(session.Options{
		Store:      st,
		NoiseDrift: config.GetEnvBool("NOISE_DRIFT", true),
		Logger:     logger,
	})

	opts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(host, port)),
		wish.WithMiddleware(
			pageMiddleware(manager, logger),
			activeterm.Middleware(),
			logging.StructuredMiddlewareWithLogger(logger, log.InfoLevel),
		),
		// Set TCP_NODELAY to reduce latency for pointer input
		ssh.WrapConn(func(ctx ssh.Context, conn net.Conn) net.Conn {
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn
		}),
	}

	if hostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(hostKeyPath))
	}

	s, err := wish.NewServer(opts...)
	if err != nil {
		logger.Fatal("failed to create server", "err", err)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("starting ssh server", "addr", net.JoinHostPort(host, port))
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			logger.Fatal("server error", "err", err)
		}
	}()

	<-done
	logger.Info("shutting down server")

	// Stop every session so clients see their page close, then flush saves
	if !manager.Shutdown(loopconfig.ShutdownTimeout) {
		logger.Warn("sessions did not stop in time")
	}

	ctx, cancel := context.WithTimeout(context.Background(), loopconfig.ShutdownTimeout)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}

// pageMiddleware runs a session and a terminal client for each SSH session.
func pageMiddleware(manager *session.Manager, logger *log.Logger) wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			pty, winCh, ok := sess.Pty()
			if !ok {
				fmt.Fprintln(sess, "Error: PTY required. Please connect with: ssh -t user@host")
				return
			}

			connLogger := logger.With("user", sess.User(), "remote", sess.RemoteAddr().String())
			connLogger.Info("new page session", "terminal", pty.Term,
				"size", fmt.Sprintf("%dx%d", pty.Window.Width, pty.Window.Height))

			// Create a terminal size tracker that updates on window changes
			sizeTracker := newSizeTracker(pty.Window.Width, pty.Window.Height)

			go func() {
				for win := range winCh {
					sizeTracker.update(win.Width, win.Height)
				}
			}()

			cols, rows, _ := sizeTracker.getSize()
			s, stop, err := manager.Start(sess.Context(), client.Viewport(cols, rows))
			if err != nil {
				fmt.Fprintln(sess, "Server is shutting down, please reconnect in a moment.")
				connLogger.Warn("session refused", "err", err)
				return
			}
			defer stop()

			c := client.NewClient(s, bufio.NewReader(sess), sess, client.ClientOptions{
				TermSizeFunc: sizeTracker.getSize,
				Logger:       connLogger,
			})
			if err := c.Run(sess.Context()); err != nil {
				connLogger.Error("client error", "err", err)
			}

			connLogger.Info("session ended")
			next(sess)
		}
	}
}

// sizeTracker tracks terminal size from SSH window change events.
type sizeTracker struct {
	mu     sync.RWMutex
	width  int
	height int
}

func newSizeTracker(width, height int) *sizeTracker {
	return &sizeTracker{width: width, height: height}
}

func (s *sizeTracker) update(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

func (s *sizeTracker) getSize() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height, nil
}

// Ensure sizeTracker.getSize satisfies draw.TermSizeFunc
var _ draw.TermSizeFunc = (*sizeTracker)(nil).getSize
