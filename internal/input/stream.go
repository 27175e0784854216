package input

import (
	"bufio"
	"strconv"
)

// WheelStep is the delta produced by one wheel notch or scroll key.
const WheelStep = 40.0

// MouseAction is what a terminal mouse report describes.
type MouseAction int

const (
	MousePress MouseAction = iota
	MouseDrag
	MouseRelease
	MouseMove
)

// MouseEvent is a decoded xterm SGR mouse report. X and Y are zero-based
// terminal cells.
type MouseEvent struct {
	Action MouseAction
	Button int
	X, Y   int
}

// Input represents the current frame's input.
type Input struct {
	Quit      bool
	Interrupt bool // Ctrl+C or closed input, quits even while typing
	Escape    bool
	Enter     bool
	Backspace bool
	Home      bool // Home reset
	AddItem   bool // Open the add-item dialog
	About     bool // Toggle the About overlay
	Trigger   bool // Start the falling words
	Delete    bool // Delete the body under the pointer
	Tier      int  // 1-5 for direct navigation, -1 when not pressed
	Wheel     float64
	Mouse     []MouseEvent
	Pressed   []byte // Printable bytes, for dialog text entry
}

// Stream delivers input bytes via a channel. Escape sequences split across
// reads are carried over to the next frame.
type Stream struct {
	ch      chan byte
	pending []byte
}

// StartStream spawns a goroutine that reads from r and sends bytes to the stream.
func StartStream(r *bufio.Reader) *Stream {
	s := &Stream{ch: make(chan byte, 256)}
	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

// ReadInput drains all available bytes from the stream (non-blocking) and
// decodes keys, arrow keys and SGR mouse reports. A closed stream reports Quit.
func ReadInput(s *Stream) Input {
	buf := s.pending
	s.pending = nil
	closed := false

	// Drain all available bytes
drain:
	for {
		select {
		case b, ok := <-s.ch:
			if !ok {
				closed = true
				break drain
			}
			buf = append(buf, b)
		default:
			break drain
		}
	}

	in, rest := Decode(buf)
	s.pending = rest
	if closed {
		in.Quit = true
		in.Interrupt = true
	}
	return in
}

// Decode parses buf. An incomplete trailing escape sequence is returned as
// rest so the caller can prepend it to the next read.
func Decode(buf []byte) (in Input, rest []byte) {
	in.Tier = -1

	for i := 0; i < len(buf); i++ {
		b := buf[i]

		if b == '\x1b' {
			if i+1 == len(buf) {
				// A lone ESC at the end is the Escape key
				in.Escape = true
				continue
			}
			if buf[i+1] == '[' {
				n, ok := decodeCSI(buf[i:], &in)
				if !ok {
					return in, append([]byte(nil), buf[i:]...)
				}
				if n > 0 {
					i += n - 1
					continue
				}
			}
			in.Escape = true
			continue
		}

		applyByte(&in, b)
	}
	return in, nil
}

// decodeCSI decodes a CSI sequence at the start of seq. It returns the bytes
// consumed (0 when unrecognized) and false when the sequence is incomplete.
func decodeCSI(seq []byte, in *Input) (int, bool) {
	if len(seq) < 3 {
		return 0, false
	}
	switch seq[2] {
	case 'A': // Up arrow
		in.Wheel -= WheelStep
		return 3, true
	case 'B': // Down arrow
		in.Wheel += WheelStep
		return 3, true
	case 'C', 'D':
		return 3, true
	case '<':
		return decodeSGRMouse(seq, in)
	}
	return 0, true
}

// decodeSGRMouse parses ESC [ < b ; x ; y (M|m).
func decodeSGRMouse(seq []byte, in *Input) (int, bool) {
	end := -1
	for j := 3; j < len(seq); j++ {
		if seq[j] == 'M' || seq[j] == 'm' {
			end = j
			break
		}
		if (seq[j] < '0' || seq[j] > '9') && seq[j] != ';' {
			return 0, true
		}
	}
	if end < 0 {
		return 0, false
	}

	var fields [3]int
	field, start := 0, 3
	for j := 3; j <= end; j++ {
		if seq[j] != ';' && j != end {
			continue
		}
		if field > 2 {
			return end + 1, true
		}
		v, err := strconv.Atoi(string(seq[start:j]))
		if err != nil {
			return end + 1, true
		}
		fields[field] = v
		field++
		start = j + 1
	}
	if field != 3 {
		return end + 1, true
	}

	code, x, y := fields[0], fields[1]-1, fields[2]-1
	switch {
	case code&64 != 0:
		if code&1 == 0 {
			in.Wheel -= WheelStep // Wheel up
		} else {
			in.Wheel += WheelStep
		}
		return end + 1, true
	}

	ev := MouseEvent{Button: code & 3, X: x, Y: y}
	switch {
	case seq[end] == 'm':
		ev.Action = MouseRelease
	case code&32 != 0 && ev.Button == 3:
		ev.Action = MouseMove
	case code&32 != 0:
		ev.Action = MouseDrag
	default:
		ev.Action = MousePress
	}
	in.Mouse = append(in.Mouse, ev)
	return end + 1, true
}

func applyByte(in *Input, b byte) {
	switch b {
	case '\n', '\r':
		in.Enter = true
		return
	case '\b', '\x7f':
		in.Backspace = true
		return
	case 3: // Ctrl+C
		in.Quit = true
		in.Interrupt = true
		return
	}
	if b >= 0x20 && b < 0x7f {
		in.Pressed = append(in.Pressed, b)
	} else if b >= 0x80 {
		// UTF-8 continuation and lead bytes belong to dialog text
		in.Pressed = append(in.Pressed, b)
		return
	}

	switch b {
	case 'q', 'Q':
		in.Quit = true
	case 'a', 'A':
		in.AddItem = true
	case 'h', 'H':
		in.Home = true
	case 'f', 'F':
		in.Trigger = true
	case 'x', 'X':
		in.Delete = true
	case '?':
		in.About = true
	case ' ', 'j', 'J':
		in.Wheel += WheelStep
	case 'k', 'K':
		in.Wheel -= WheelStep
	case '1', '2', '3', '4', '5':
		in.Tier = int(b - '0')
	}
}
