package physics

import "errors"

var (
	// ErrBodyNotFound is returned by operations that reference an unknown body id.
	// The operation itself is a no-op.
	ErrBodyNotFound = errors.New("physics: body not found")

	// ErrDegenerateViewport reports a viewport with zero or negative size.
	// Step never returns it; boundary work is skipped for that frame instead.
	ErrDegenerateViewport = errors.New("physics: degenerate viewport")

	// ErrStaticBody is returned when a drag or force targets a static body.
	ErrStaticBody = errors.New("physics: body is static")
)
