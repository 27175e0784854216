// Package draw renders body snapshots to a terminal using half-block cells.
package draw

import (
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/tomz197/phoalbum/internal/physics"
)

// Point is a logical coordinate (viewport pixels).
type Point = physics.Vec2

// Shade characters from lightest to darkest.
var Shades = []rune{' ', '░', '▒', '▓', '█'}

// Block characters for drawing.
const (
	BlockFull      = '█'
	BlockUpperHalf = '▀'
	BlockLowerHalf = '▄'
)

// ShadeLevel returns a shade character for a value between 0.0 (empty) and 1.0 (solid).
func ShadeLevel(intensity float64) rune {
	if intensity <= 0 {
		return Shades[0]
	}
	if intensity >= 1 {
		return Shades[len(Shades)-1]
	}
	idx := int(math.Ceil(intensity * float64(len(Shades)-1)))
	return Shades[idx]
}

// Canvas is a drawing buffer with 2x vertical resolution using half-block
// characters. Each sub-pixel keeps the strongest intensity drawn into it so
// body opacity shows up as shading. Drawing happens in logical coordinates
// that are scaled to the terminal.
type Canvas struct {
	termWidth      int
	termHeight     int
	subPixelHeight int     // termHeight * 2
	pixels         []uint8 // Flat slice: [y * termWidth + x]

	logicalWidth  float64
	logicalHeight float64
	scaleX        float64 // termWidth / logicalWidth
	scaleY        float64 // (termHeight*2) / logicalHeight

	// 0-based terminal offsets (columns/rows to skip) for centering.
	offsetCol int
	offsetRow int

	// Reusable buffers to reduce allocations
	renderBuf       strings.Builder
	numBuf          [20]byte
	scaledBuf       []Point
	intersectionBuf []float64
}

// NewScaledCanvas creates a canvas mapping a logical viewport onto the given
// terminal size.
func NewScaledCanvas(termWidth, termHeight int, logicalWidth, logicalHeight float64) *Canvas {
	c := &Canvas{logicalWidth: logicalWidth, logicalHeight: logicalHeight}
	c.Resize(termWidth, termHeight)
	return c
}

// Resize updates the canvas for new terminal dimensions while keeping the logical size.
func (c *Canvas) Resize(termWidth, termHeight int) {
	termWidth, termHeight = max(termWidth, 1), max(termHeight, 1)
	if termWidth != c.termWidth || termHeight != c.termHeight {
		c.termWidth = termWidth
		c.termHeight = termHeight
		c.subPixelHeight = termHeight * 2
		c.pixels = make([]uint8, c.subPixelHeight*termWidth)
	}
	c.rescale()
}

// SetLogicalSize changes the logical viewport, e.g. after the simulated
// viewport was resized.
func (c *Canvas) SetLogicalSize(width, height float64) {
	c.logicalWidth = width
	c.logicalHeight = height
	c.rescale()
}

func (c *Canvas) rescale() {
	c.scaleX, c.scaleY = 0, 0
	if c.logicalWidth > 0 {
		c.scaleX = float64(c.termWidth) / c.logicalWidth
	}
	if c.logicalHeight > 0 {
		c.scaleY = float64(c.subPixelHeight) / c.logicalHeight
	}
}

// SetOffset sets the column and row offset for centering the canvas.
func (c *Canvas) SetOffset(col, row int) {
	c.offsetCol = col
	c.offsetRow = row
}

// Clear resets all pixels in the canvas.
func (c *Canvas) Clear() {
	clear(c.pixels)
}

// plot sets a pixel at terminal sub-pixel coordinates, keeping the stronger value.
func (c *Canvas) plot(x, y int, v uint8) {
	if x < 0 || x >= c.termWidth || y < 0 || y >= c.subPixelHeight {
		return
	}
	if p := &c.pixels[y*c.termWidth+x]; v > *p {
		*p = v
	}
}

// Intensity converts an opacity in [0, 1] to a pixel value. Anything visible
// gets at least the lightest shade.
func Intensity(opacity float64) uint8 {
	if opacity <= 0 {
		return 0
	}
	return uint8(math.Max(1, math.Min(255, math.Round(opacity*255))))
}

// DrawLine draws a line in logical coordinates using Bresenham's algorithm.
func (c *Canvas) DrawLine(p1, p2 Point, v uint8) {
	x1 := int(math.Round(p1.X * c.scaleX))
	y1 := int(math.Round(p1.Y * c.scaleY))
	x2 := int(math.Round(p2.X * c.scaleX))
	y2 := int(math.Round(p2.Y * c.scaleY))

	dx, dy := abs(x2-x1), abs(y2-y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy
	for {
		c.plot(x1, y1, v)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// RectCorners returns the corners of a w x h rectangle centered at center and
// rotated by angle radians.
func RectCorners(center Point, w, h, angle float64) [4]Point {
	sin, cos := math.Sincos(angle)
	hw, hh := w/2, h/2
	local := [4]Point{{X: -hw, Y: -hh}, {X: hw, Y: -hh}, {X: hw, Y: hh}, {X: -hw, Y: hh}}
	var out [4]Point
	for i, p := range local {
		out[i] = Point{
			X: center.X + p.X*cos - p.Y*sin,
			Y: center.Y + p.X*sin + p.Y*cos,
		}
	}
	return out
}

// DrawRect draws a rotated rectangle outline with intensity v. When fill is
// non-zero the interior is filled with that intensity first.
func (c *Canvas) DrawRect(center Point, w, h, angle float64, v, fill uint8) {
	corners := RectCorners(center, w, h, angle)
	if fill > 0 {
		c.fillPolygon(corners[:], fill)
	}
	for i := range corners {
		c.DrawLine(corners[i], corners[(i+1)%len(corners)], v)
	}
}

// fillPolygon fills a polygon with a scanline pass in sub-pixel space.
func (c *Canvas) fillPolygon(points []Point, v uint8) {
	if cap(c.scaledBuf) < len(points) {
		c.scaledBuf = make([]Point, len(points))
	}
	scaled := c.scaledBuf[:len(points)]
	minY, maxY := math.Inf(1), math.Inf(-1)
	for i, p := range points {
		scaled[i] = Point{X: p.X * c.scaleX, Y: p.Y * c.scaleY}
		minY = math.Min(minY, scaled[i].Y)
		maxY = math.Max(maxY, scaled[i].Y)
	}

	yStart := max(int(math.Floor(minY)), 0)
	yEnd := min(int(math.Ceil(maxY)), c.subPixelHeight-1)
	for y := yStart; y <= yEnd; y++ {
		scanY := float64(y) + 0.5
		xs := c.intersectionBuf[:0]
		n := len(scaled)
		for i := 0; i < n; i++ {
			p1, p2 := scaled[i], scaled[(i+1)%n]
			if (p1.Y <= scanY && p2.Y > scanY) || (p2.Y <= scanY && p1.Y > scanY) {
				t := (scanY - p1.Y) / (p2.Y - p1.Y)
				xs = append(xs, p1.X+t*(p2.X-p1.X))
			}
		}
		c.intersectionBuf = xs
		slices.Sort(xs)

		for i := 0; i+1 < len(xs); i += 2 {
			for x := int(math.Ceil(xs[i])); x <= int(math.Floor(xs[i+1])); x++ {
				c.plot(x, y, v)
			}
		}
	}
}

// maxChunkSize is the maximum bytes to write at once for smooth SSH/network transmission.
const maxChunkSize = 1400

// cellRune picks the character for a cell from its two sub-pixels.
func cellRune(top, bottom uint8) (rune, bool) {
	switch {
	case top > 0 && bottom > 0:
		return ShadeLevel(float64(max(top, bottom)) / 255), true
	case top > 0:
		return BlockUpperHalf, true
	case bottom > 0:
		return BlockLowerHalf, true
	default:
		return 0, false
	}
}

// Render outputs the canvas to w. Empty cells are skipped, so the caller
// clears the screen between frames.
func (c *Canvas) Render(w io.Writer) {
	c.renderBuf.Reset()
	c.renderBuf.Grow(c.termWidth * c.termHeight * 4)

	for row := 0; row < c.termHeight; row++ {
		topOffset := row * 2 * c.termWidth
		bottomOffset := topOffset + c.termWidth
		for col := 0; col < c.termWidth; col++ {
			ch, ok := cellRune(c.pixels[topOffset+col], c.pixels[bottomOffset+col])
			if !ok {
				continue
			}
			c.renderBuf.WriteString("\033[")
			c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(row+1+c.offsetRow), 10))
			c.renderBuf.WriteByte(';')
			c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(col+1+c.offsetCol), 10))
			c.renderBuf.WriteByte('H')
			c.renderBuf.WriteRune(ch)
		}
	}

	data := c.renderBuf.String()
	for len(data) > 0 {
		chunk := data
		if len(chunk) > maxChunkSize {
			chunk = data[:maxChunkSize]
		}
		io.WriteString(w, chunk)
		data = data[len(chunk):]
	}
}

// TerminalWidth returns the terminal column count.
func (c *Canvas) TerminalWidth() int {
	return c.termWidth
}

// TerminalHeight returns the terminal row count.
func (c *Canvas) TerminalHeight() int {
	return c.termHeight
}

// LogicalToTerminal converts a logical point to a 1-based canvas cell (col, row).
func (c *Canvas) LogicalToTerminal(p Point) (col, row int) {
	px := int(math.Round(p.X * c.scaleX))
	py := int(math.Round(p.Y * c.scaleY))
	return px + 1, py/2 + 1
}

// TerminalToLogical converts a 0-based screen cell, as reported by mouse
// events, to the logical point at the cell's center.
func (c *Canvas) TerminalToLogical(col, row int) Point {
	if c.scaleX == 0 || c.scaleY == 0 {
		return Point{}
	}
	px := float64(col-c.offsetCol) + 0.5
	py := float64(row-c.offsetRow)*2 + 1
	return Point{X: px / c.scaleX, Y: py / c.scaleY}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
