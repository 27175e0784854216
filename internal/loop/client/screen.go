package client

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/tomz197/phoalbum/internal/draw"
	"github.com/tomz197/phoalbum/internal/loop/config"
	"github.com/tomz197/phoalbum/internal/loop/session"
	"github.com/tomz197/phoalbum/internal/physics"
	"github.com/tomz197/phoalbum/internal/tier"
)

// drawFrame draws the current frame.
func (c *Client) drawFrame() error {
	draw.ClearScreen(c.chunkWriter)
	c.canvas.Clear()

	snap := c.session.Snapshot()

	if snap.WordsVisible {
		c.drawLayout(snap.Layout, snap.Viewport)
		for _, b := range snap.Words {
			c.drawBody(b, 0)
		}
	}
	if snap.BoardVisible() {
		off := snap.Document.BoardOffset()
		for _, b := range snap.Board {
			c.drawBody(b, off)
		}
	}

	// Render canvas to terminal
	c.canvas.Render(c.chunkWriter)

	// Labels go on top of the shapes
	if snap.WordsVisible {
		for _, b := range snap.Words {
			c.drawLabel(b, 0)
		}
	}
	if snap.BoardVisible() {
		off := snap.Document.BoardOffset()
		for _, b := range snap.Board {
			c.drawLabel(b, off)
		}
	}

	c.drawUI(snap)

	return c.chunkWriter.Flush()
}

// drawLayout outlines the falling-words floor line and obstacle.
func (c *Client) drawLayout(l physics.Layout, vp physics.Viewport) {
	faint := draw.Intensity(0.2)
	c.canvas.DrawLine(
		draw.Point{X: 0, Y: l.FloorY},
		draw.Point{X: vp.Width - l.RightWallOffset, Y: l.FloorY},
		faint,
	)
	if o := l.Obstacle; o != nil {
		center := draw.Point{X: (o.MinX + o.MaxX) / 2, Y: (o.MinY + o.MaxY) / 2}
		c.canvas.DrawRect(center, o.MaxX-o.MinX, o.MaxY-o.MinY, 0, faint, 0)
	}
}

// drawBody draws a body outline shifted down by offsetY. Images are filled.
func (c *Client) drawBody(b physics.BodyState, offsetY float64) {
	center := draw.Point{X: b.Pos.X, Y: b.Pos.Y + offsetY}
	v := draw.Intensity(b.Opacity)
	var fill uint8
	if _, ok := b.Kind.(physics.Image); ok {
		fill = draw.Intensity(b.Opacity * 0.3)
	}
	if b.Dragged {
		v = draw.Intensity(1)
	}
	c.canvas.DrawRect(center, b.Width, b.Height, b.Angle, v, fill)
}

// drawLabel writes the body content centered on the body.
func (c *Client) drawLabel(b physics.BodyState, offsetY float64) {
	text := b.Content()
	if _, ok := b.Kind.(physics.Image); ok {
		text = "[" + path.Base(text) + "]"
	}
	cells := int(b.Width / config.CellWidth)
	col, row, s, ok := c.canvas.Label(draw.Point{X: b.Pos.X, Y: b.Pos.Y + offsetY}, text, cells)
	if !ok {
		return
	}

	style := draw.StylePlain
	switch {
	case b.Dragged:
		style = draw.StyleReverse
	case b.Opacity >= 0.8:
		style = draw.StyleBold
	case b.Opacity < 0.5:
		style = draw.StyleDim
	}
	c.chunkWriter.WriteStyled(col, row, style, s)
}

// drawUI draws headings, the status line and any dialog on top of the page.
func (c *Client) drawUI(snap *session.Snapshot) {
	termWidth := c.canvas.TerminalWidth()
	termHeight := c.canvas.TerminalHeight()
	centerX := termWidth / 2
	centerY := termHeight / 2

	if c.state.isInactive {
		c.drawInactivityScreen(centerX, centerY)
		return
	}

	if c.state.Help {
		c.drawAbout(centerX, centerY)
	} else {
		c.drawPage(snap, centerX, centerY)
	}

	c.drawStatus(snap, termWidth, termHeight)

	if c.state.Dialog != nil {
		c.drawDialog(termWidth, termHeight)
	}
}

// drawPage writes the headings of the page stage currently on screen.
func (c *Client) drawPage(snap *session.Snapshot, centerX, centerY int) {
	cw := c.chunkWriter
	switch snap.Scroll.Tier {
	case tier.Home:
		if len(snap.Words) == 0 && snap.WordsVisible {
			hint := "press F to drop the words"
			cw.WriteStyled(centerX-len(hint)/2, 2, draw.StyleDim, hint)
		}
	case tier.Phoalbum:
		writeCentered(cw, centerX, centerY, draw.StyleBold, "P H O A L B U M")
	case tier.Videos:
		writeCentered(cw, centerX, centerY-1, draw.StyleBold, "VIDEOS")
		writeCentered(cw, centerX, centerY+1, draw.StyleDim, "scroll on for my works")
	case tier.Works:
		doc := snap.Document
		if row, ok := c.pageRow(-doc.Scroll + config.CellHeight); ok {
			writeCentered(cw, centerX, row, draw.StyleBold, "MY WORKS")
		}
		if row, ok := c.pageRow(doc.IdeasTop - doc.Scroll + config.IdeasHeading/2); ok {
			writeCentered(cw, centerX, row, draw.StyleBold, "SOME IDEA")
		}
	}
}

// pageRow converts a viewport y to a 1-based canvas row above the status line.
func (c *Client) pageRow(y float64) (int, bool) {
	_, row := c.canvas.LogicalToTerminal(draw.Point{Y: y})
	return row, row >= 1 && row < c.canvas.TerminalHeight()
}

// drawStatus draws the reverse-video status line on the last row.
func (c *Client) drawStatus(snap *session.Snapshot, termWidth, termHeight int) {
	st := snap.Scroll
	left := fmt.Sprintf(" %s | %s %3.0f%% | %s items",
		st.Section, st.Current(), st.Progress*100, humanize.Comma(int64(snap.Items)))
	if msg := c.state.statusText(); msg != "" {
		left += " | " + msg
	}
	right := "h home  a add  x delete  ? about  q quit "
	pad := termWidth - runewidth.StringWidth(left) - runewidth.StringWidth(right)
	line := left + strings.Repeat(" ", max(pad, 1)) + right
	c.chunkWriter.WriteStyled(1, termHeight, draw.StyleReverse, draw.Fit(line, termWidth))
}

// drawDialog draws the add-item prompt above the status line.
func (c *Client) drawDialog(termWidth, termHeight int) {
	d := c.state.Dialog
	prompt := fmt.Sprintf(" add %s: %s_ ", d.Type(), d.Text)
	row := max(termHeight-2, 1)
	c.chunkWriter.WriteStyled(2, row, draw.StyleReverse, draw.Fit(prompt, termWidth-2))
	hint := "enter to add, esc to cancel"
	c.chunkWriter.WriteStyled(2, row+1, draw.StyleDim, draw.Fit(hint, termWidth-2))
}

// drawAbout draws the About overlay with the controls.
func (c *Client) drawAbout(centerX, centerY int) {
	lines := []string{
		"About meee^",
		"",
		"wheel / j k / space . . . scroll",
		"1-5 . . . . . . . . . . . jump to a page",
		"f . . . . . . . . . . . . drop the words",
		"mouse drag . . . . . . . . move board items",
		"a . . . . . . . . . . . . add to the board",
		"x . . . . . . . . . . . . delete under mouse",
		"h . . . . . . . . . . . . home",
		"? / esc . . . . . . . . . close",
	}
	top := centerY - len(lines)/2
	for i, line := range lines {
		style := draw.StylePlain
		if i == 0 {
			style = draw.StyleBold
		}
		writeCentered(c.chunkWriter, centerX, top+i, style, line)
	}
}

// drawInactivityScreen draws the inactivity warning screen.
func (c *Client) drawInactivityScreen(centerX, centerY int) {
	title := "INACTIVITY WARNING"
	writeCentered(c.chunkWriter, centerX, centerY-2, draw.StyleBold, title)

	left := config.InactivityDisconnectUser - time.Since(c.state.lastInput)
	msg := fmt.Sprintf("You will be disconnected in %d seconds.", int(left.Seconds()))
	writeCentered(c.chunkWriter, centerX, centerY, draw.StylePlain, msg)

	hint := "Press any key to continue"
	writeCentered(c.chunkWriter, centerX, centerY+2, draw.StyleDim, hint)
}

func writeCentered(cw *draw.ChunkWriter, centerX, row int, style draw.Style, s string) {
	col := max(centerX-runewidth.StringWidth(s)/2, 1)
	cw.WriteStyled(col, row, style, s)
}
