// Package loop runs the page in a local terminal.
package loop

import (
	"bufio"
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/tomz197/phoalbum/internal/loop/client"
	"github.com/tomz197/phoalbum/internal/loop/session"
	"github.com/tomz197/phoalbum/internal/store"
)

// Options configures a local run.
type Options struct {
	Store      store.Store // Nil keeps the board in memory with the defaults
	NoiseDrift bool
	Logger     *log.Logger
}

// Run starts a session and draws it to w, reading keys and mouse reports from
// r. Blocks until the user quits.
func Run(r *bufio.Reader, w io.Writer, opts Options) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := session.New(ctx, session.Options{
		Store:      opts.Store,
		NoiseDrift: opts.NoiseDrift,
		Logger:     opts.Logger,
	})
	defer s.Close()

	c := client.NewClient(s, r, w, client.ClientOptions{Logger: opts.Logger})

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	err := c.Run(ctx)
	cancel()
	if runErr := <-done; err == nil {
		err = runErr
	}
	return err
}
