// Package client renders a session to a terminal and turns keys and mouse
// reports into session commands.
package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/phoalbum/internal/draw"
	"github.com/tomz197/phoalbum/internal/event"
	"github.com/tomz197/phoalbum/internal/input"
	"github.com/tomz197/phoalbum/internal/logging"
	"github.com/tomz197/phoalbum/internal/loop/config"
	"github.com/tomz197/phoalbum/internal/loop/session"
	"github.com/tomz197/phoalbum/internal/physics"
	"github.com/tomz197/phoalbum/internal/tier"
)

// maxDialogText caps the add-item text in bytes.
const maxDialogText = 200

// Client handles rendering and input for a single connection.
type Client struct {
	session      *session.Session
	state        *ClientState
	canvas       *draw.Canvas
	chunkWriter  *draw.ChunkWriter // Accumulates a frame for chunked output
	writer       io.Writer
	inputStream  *input.Stream
	termSizeFunc draw.TermSizeFunc
	logger       *log.Logger
	events       chan string // Status messages from session events
	offsetCol    int
	offsetRow    int
}

// ClientOptions configures the client.
type ClientOptions struct {
	TermSizeFunc draw.TermSizeFunc
	Logger       *log.Logger
}

// NewClient creates a client for s and sizes the session to the terminal.
func NewClient(s *session.Session, r *bufio.Reader, w io.Writer, opts ClientOptions) *Client {
	termSizeFunc := opts.TermSizeFunc
	if termSizeFunc == nil {
		termSizeFunc = draw.DefaultTermSizeFunc
	}

	termWidth, termHeight, err := termSizeFunc()
	if err != nil {
		termWidth, termHeight = 80, 24
	}
	renderWidth, renderHeight, offsetCol, offsetRow := clampTermSize(termWidth, termHeight)
	vp := Viewport(renderWidth, renderHeight)
	canvas := draw.NewScaledCanvas(renderWidth, renderHeight, vp.Width, vp.Height)
	canvas.SetOffset(offsetCol, offsetRow)
	s.Resize(vp)

	return &Client{
		session:      s,
		state:        NewClientState(),
		canvas:       canvas,
		chunkWriter:  draw.NewChunkWriter(w, offsetCol, offsetRow),
		writer:       w,
		inputStream:  input.StartStream(r),
		termSizeFunc: termSizeFunc,
		logger:       logging.For(opts.Logger, "client"),
		events:       make(chan string, 16),
		offsetCol:    offsetCol,
		offsetRow:    offsetRow,
	}
}

// Viewport returns the page viewport covered by a render area of the given
// terminal size.
func Viewport(cols, rows int) physics.Viewport {
	return physics.Viewport{
		Width:  float64(cols) * config.CellWidth,
		Height: float64(rows) * config.CellHeight,
	}
}

// Run starts the client loop. Blocks until the user quits, the input closes
// or ctx is done.
func (c *Client) Run(ctx context.Context) error {
	draw.EnterScreen(c.writer)
	defer draw.LeaveScreen(c.writer)

	unsubTier := c.session.Subscribe(event.SectionChanged, func(e event.Event) {
		if p, ok := e.Payload.(*event.SectionChangedPayload); ok {
			c.notify(p.Section)
		}
	})
	defer unsubTier()
	unsubContent := c.session.Subscribe(event.ContentChanged, func(e event.Event) {
		p, ok := e.Payload.(*event.ContentChangedPayload)
		if !ok {
			return
		}
		switch {
		case p.Added != "":
			c.notify(fmt.Sprintf("added, %d items", p.Count))
		case p.Removed != "":
			c.notify(fmt.Sprintf("deleted, %d items", p.Count))
		}
	})
	defer unsubContent()

	lastTime := time.Now()

	for c.state.Running {
		select {
		case <-ctx.Done():
			c.state.Running = false
			continue
		default:
		}

		frameStart := time.Now()
		c.state.delta = frameStart.Sub(lastTime)
		lastTime = frameStart

		c.processInput()

		c.processSessionEvents()

		c.updateScreen()

		if err := c.drawFrame(); err != nil {
			return err
		}

		// Frame timing
		elapsed := time.Since(frameStart)
		if elapsed < config.ClientTargetFrameTime {
			time.Sleep(config.ClientTargetFrameTime - elapsed)
		}
	}

	if c.state.Dialog != nil {
		c.session.Modal(false)
	}
	c.logger.Debug("client stopped")
	return nil
}

// notify queues a status message. Called from the session goroutine.
func (c *Client) notify(msg string) {
	select {
	case c.events <- msg:
	default:
	}
}

// processSessionEvents shows queued session messages.
func (c *Client) processSessionEvents() {
	for {
		select {
		case msg := <-c.events:
			c.state.setStatus(msg, config.StatusDuration)
		default:
			return
		}
	}
}

// processInput reads input and forwards it to the session.
func (c *Client) processInput() {
	c.processInputFrom(input.ReadInput(c.inputStream))
}

func (c *Client) processInputFrom(in input.Input) {
	c.state.Input = in

	if len(in.Pressed) > 0 || len(in.Mouse) > 0 || in.Wheel != 0 || in.Enter || in.Backspace || in.Escape {
		c.state.lastInput = time.Now()
		c.state.isInactive = false
	} else if time.Since(c.state.lastInput) > config.InactivityDisconnectUser {
		c.state.Running = false
	} else if time.Since(c.state.lastInput) > config.InactivityWarnUser {
		c.state.isInactive = true
	}

	if in.Interrupt {
		c.state.Running = false
		return
	}

	if c.state.Dialog != nil {
		c.updateDialog(in)
		return
	}

	for _, ev := range in.Mouse {
		c.handleMouse(ev)
	}

	if in.Quit {
		c.state.Running = false
		return
	}

	if in.About || (in.Escape && c.state.Help) {
		c.state.Help = !c.state.Help
		c.session.Overlay(c.state.Help)
	}
	if in.Wheel != 0 {
		c.session.Wheel(in.Wheel)
	}
	if in.Home {
		c.session.Home()
	}
	if in.Tier >= 1 {
		c.session.Goto(tier.Tier(in.Tier - 1))
	}
	if in.Trigger {
		c.session.TriggerWords()
	}
	if in.Delete {
		c.deleteUnderPointer()
	}
	if in.AddItem {
		c.state.Dialog = &Dialog{}
		c.session.Modal(true)
	}
}

// handleMouse maps a terminal mouse report to pointer commands.
func (c *Client) handleMouse(ev input.MouseEvent) {
	p := c.canvas.TerminalToLogical(ev.X, ev.Y)
	c.state.Pointer = p
	c.state.HasPointer = true

	switch ev.Action {
	case input.MousePress:
		if ev.Button != 0 {
			return
		}
		c.state.Pressed = true
		c.session.PointerDown("", p)
	case input.MouseDrag, input.MouseMove:
		c.session.PointerMove(p)
	case input.MouseRelease:
		if c.state.Pressed {
			c.state.Pressed = false
			c.session.PointerUp()
		}
	}
}

// deleteUnderPointer deletes the board item under the mouse.
func (c *Client) deleteUnderPointer() {
	if !c.state.HasPointer {
		c.state.setStatus("point at a board item to delete it", config.StatusDuration)
		return
	}
	b, ok := c.session.Snapshot().BoardAt(c.state.Pointer)
	if !ok {
		c.state.setStatus("nothing to delete here", config.StatusDuration)
		return
	}
	c.session.DeleteItem(b.ID)
}

// updateDialog handles text entry while the add-item dialog is open.
func (c *Client) updateDialog(in input.Input) {
	d := c.state.Dialog
	if in.Escape {
		c.closeDialog()
		return
	}
	if len(d.Text)+len(in.Pressed) <= maxDialogText {
		d.Text = append(d.Text, in.Pressed...)
	}
	if in.Backspace {
		d.Backspace()
	}
	if !in.Enter {
		return
	}
	text := strings.TrimSpace(string(d.Text))
	if text != "" {
		c.session.AddItem(d.Type(), text)
	}
	c.closeDialog()
}

func (c *Client) closeDialog() {
	c.state.Dialog = nil
	c.session.Modal(false)
}

// updateScreen handles terminal resize, clamping to max render resolution.
// The session viewport follows the render area.
func (c *Client) updateScreen() {
	termWidth, termHeight, err := c.termSizeFunc()
	if err != nil {
		return
	}
	renderWidth, renderHeight, offsetCol, offsetRow := clampTermSize(termWidth, termHeight)

	if renderWidth == c.canvas.TerminalWidth() && renderHeight == c.canvas.TerminalHeight() &&
		offsetCol == c.offsetCol && offsetRow == c.offsetRow {
		return
	}

	vp := Viewport(renderWidth, renderHeight)
	c.canvas.Resize(renderWidth, renderHeight)
	c.canvas.SetLogicalSize(vp.Width, vp.Height)
	c.canvas.SetOffset(offsetCol, offsetRow)
	c.chunkWriter.SetOffset(offsetCol, offsetRow)
	c.offsetCol, c.offsetRow = offsetCol, offsetRow
	c.session.Resize(vp)
}

// clampTermSize clamps terminal dimensions to the max render resolution and computes
// the centering offset for the render area.
func clampTermSize(termWidth, termHeight int) (renderWidth, renderHeight, offsetCol, offsetRow int) {
	renderWidth = min(max(termWidth, 1), config.MaxTermWidth)
	renderHeight = min(max(termHeight, 1), config.MaxTermHeight)
	offsetCol = max((termWidth-renderWidth)/2, 0)
	offsetRow = max((termHeight-renderHeight)/2, 0)
	return
}
