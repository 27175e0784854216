package main

import (
	"context"
	_ "embed"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomz197/phoalbum/internal/config"
	"github.com/tomz197/phoalbum/internal/logging"
	loopconfig "github.com/tomz197/phoalbum/internal/loop/config"
	"github.com/tomz197/phoalbum/internal/loop/session"
	"github.com/tomz197/phoalbum/internal/physics"
	"github.com/tomz197/phoalbum/internal/store"
	"github.com/tomz197/phoalbum/internal/web"
)

const (
	defaultHost = "0.0.0.0"
	defaultPort = "8080"
)

//go:embed index.html
var htmlPage string

func main() {
	logger := logging.New(os.Stderr)

	host := config.GetEnv("WEB_HOST", defaultHost)
	port := config.GetEnv("WEB_PORT", defaultPort)
	vp := physics.Viewport{
		Width:  config.GetEnvFloat("VIEW_WIDTH", loopconfig.ViewWidth),
		Height: config.GetEnvFloat("VIEW_HEIGHT", loopconfig.ViewHeight),
	}

	st, err := store.OpenEnv()
	if err != nil {
		logger.Fatal("failed to open store", "err", err)
	}
	if c, ok := st.(io.Closer); ok {
		defer c.Close()
	}

	manager := session.NewManager(session.Options{
		Store:      st,
		NoiseDrift: config.GetEnvBool("NOISE_DRIFT", true),
		Logger:     logger,
	})
	handler := web.NewHandler(manager, st, web.Options{
		Page:     htmlPage,
		Viewport: vp,
		Logger:   logger,
	})

	addr := net.JoinHostPort(host, port)
	srv := &http.Server{Addr: addr, Handler: handler}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("starting web server", "addr", "http://"+addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", "err", err)
		}
	}()

	<-done
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), loopconfig.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
	handler.Close()
	if !manager.Shutdown(loopconfig.ShutdownTimeout) {
		logger.Warn("sessions did not stop in time")
	}
}
