package draw

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// Terminal control sequences.
const (
	seqClear      = "\033[H\033[2J"
	seqHideCursor = "\033[?25l"
	seqShowCursor = "\033[?25h"
	seqAltScreen  = "\033[?1049h"
	seqMainScreen = "\033[?1049l"
	seqMouseOn    = "\033[?1000h\033[?1003h\033[?1006h" // Buttons, any motion, SGR encoding
	seqMouseOff   = "\033[?1006l\033[?1003l\033[?1000l"
	seqReset      = "\033[0m"
	seqReverse    = "\033[7m"
	seqDim        = "\033[2m"
	seqBold       = "\033[1m"
	seqClearToEOL = "\033[K"
)

// ChunkWriter accumulates a frame of terminal output and writes it in chunks
// (e.g. over SSH). Implements io.Writer for Canvas.Render.
type ChunkWriter struct {
	buf    strings.Builder
	bufw   *bufio.Writer // Buffers writes to underlying writer for fewer syscalls
	numBuf [20]byte      // Scratch buffer for allocation-free integer formatting
	offCol int
	offRow int
}

// NewChunkWriter creates a ChunkWriter that writes to w. offsetCol and offsetRow
// are added to all MoveCursor coordinates (for canvas centering).
func NewChunkWriter(w io.Writer, offsetCol, offsetRow int) *ChunkWriter {
	return &ChunkWriter{
		bufw:   bufio.NewWriterSize(w, 8192),
		offCol: offsetCol,
		offRow: offsetRow,
	}
}

// SetOffset updates the cursor offset (e.g. after terminal resize).
func (cw *ChunkWriter) SetOffset(offsetCol, offsetRow int) {
	cw.offCol = offsetCol
	cw.offRow = offsetRow
}

// MoveCursor appends an ANSI cursor position sequence. col and row are 1-based
// canvas coordinates; the offset is applied automatically.
func (cw *ChunkWriter) MoveCursor(col, row int) {
	cw.buf.WriteString("\033[")
	cw.buf.Write(strconv.AppendInt(cw.numBuf[:0], int64(row+cw.offRow), 10))
	cw.buf.WriteByte(';')
	cw.buf.Write(strconv.AppendInt(cw.numBuf[:0], int64(col+cw.offCol), 10))
	cw.buf.WriteByte('H')
}

// Write implements io.Writer.
func (cw *ChunkWriter) Write(p []byte) (n int, err error) {
	return cw.buf.Write(p)
}

// WriteString appends a string to the buffer.
func (cw *ChunkWriter) WriteString(s string) {
	cw.buf.WriteString(s)
}

// WriteAt writes s at a 1-based canvas position.
func (cw *ChunkWriter) WriteAt(col, row int, s string) {
	cw.MoveCursor(col, row)
	cw.buf.WriteString(s)
}

// WriteStyled writes s at a position wrapped in an SGR style.
func (cw *ChunkWriter) WriteStyled(col, row int, style Style, s string) {
	cw.MoveCursor(col, row)
	cw.buf.WriteString(style.seq())
	cw.buf.WriteString(s)
	cw.buf.WriteString(seqReset)
}

// ClearLine blanks a row from col to the end of the line.
func (cw *ChunkWriter) ClearLine(col, row int) {
	cw.MoveCursor(col, row)
	cw.buf.WriteString(seqClearToEOL)
}

// Ensure ChunkWriter satisfies io.Writer.
var _ io.Writer = (*ChunkWriter)(nil)

// Flush writes the accumulated buffer in chunks, then resets it.
func (cw *ChunkWriter) Flush() error {
	data := cw.buf.String()
	cw.buf.Reset()
	for len(data) > 0 {
		chunk := data
		if len(chunk) > maxChunkSize {
			chunk = data[:maxChunkSize]
		}
		if _, err := cw.bufw.WriteString(chunk); err != nil {
			return err
		}
		data = data[len(chunk):]
	}
	return cw.bufw.Flush()
}

// Style is a text style for status lines and overlays.
type Style int

const (
	StylePlain Style = iota
	StyleBold
	StyleDim
	StyleReverse
)

func (s Style) seq() string {
	switch s {
	case StyleBold:
		return seqBold
	case StyleDim:
		return seqDim
	case StyleReverse:
		return seqReverse
	default:
		return ""
	}
}

// TermSizeFunc is a function that returns the terminal dimensions.
type TermSizeFunc func() (width, height int, err error)

// DefaultTermSizeFunc returns terminal size from os.Stdout.
var DefaultTermSizeFunc TermSizeFunc = func() (int, int, error) {
	return term.GetSize(int(os.Stdout.Fd()))
}

// ClearScreen clears the terminal and moves cursor to top-left.
func ClearScreen(w io.Writer) {
	io.WriteString(w, seqClear)
}

// EnterScreen switches to the alternate screen, hides the cursor and turns on
// SGR mouse reporting.
func EnterScreen(w io.Writer) {
	io.WriteString(w, seqAltScreen+seqHideCursor+seqMouseOn+seqClear)
}

// LeaveScreen undoes EnterScreen.
func LeaveScreen(w io.Writer) {
	io.WriteString(w, seqMouseOff+seqReset+seqShowCursor+seqMainScreen)
}
