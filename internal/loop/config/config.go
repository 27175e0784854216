// Package config centralizes the tunable parameters of the frame loop and the
// two physics scenes.
package config

import "time"

// View resolution - the logical viewport in CSS-like pixels.
// Terminal rendering scales it to fit.
const (
	ViewWidth  = 1200 // Default logical viewport width
	ViewHeight = 800  // Default logical viewport height
)

// Render limits for terminal clients. Each cell covers CellWidth by
// CellHeight page pixels.
const (
	MaxTermWidth  = 240
	MaxTermHeight = 80
	CellWidth     = 10.0
	CellHeight    = 20.0
)

// Session tick rate
const (
	TickRate = 60
	TickTime = time.Second / TickRate
)

// Client rendering
const (
	ClientTargetFPS       = 60
	ClientTargetFrameTime = time.Second / ClientTargetFPS
)

// Websocket snapshot stream
const (
	SnapshotRate = 30
	SnapshotTime = time.Second / SnapshotRate
)

// Inspiration board drift
const (
	DriftPeriod    = 100 * time.Millisecond
	NoiseFrequency = 0.01 // Cycles per tick for the opensimplex drift field
)

// Command queue
const (
	CommandBuffer = 256
)

// Falling words
const (
	WordsSpawnY      = 80.0
	WordsLeftColumn  = 0.2 // Fraction of the viewport width
	WordsRightColumn = 0.8
	WordsJitterX     = 100.0 // Total horizontal spawn jitter
	WordsRowGap      = 30.0
	WordsMinFont     = 88.0
	WordsMaxFont     = 130.0
	WordsMinOpacity  = 0.5
	WordsMaxOpacity  = 1.0
	WordsSpin        = 0.2 // Total initial angular velocity range
	WordsRightWall   = 200.0
	WordsFloatUntil  = 0.2 // Words float while page-one progress is below this
)

// Falling words floor line, derived from the hero layout:
// floorY = round(h * 0.5 + RevealOffset + BottomTextOffset + LineTopOffset).
const (
	RevealOffset     = -80.0
	BottomTextOffset = 270.0
	LineTopOffset    = -65.0
)

// Falling words obstacle (the centered portrait box).
const (
	ObstacleWidth        = 228.0
	ObstacleHeight       = 300.0
	ObstacleNarrowWidth  = 168.0
	ObstacleNarrowHeight = 220.0
	ObstacleBreakpoint   = 768.0 // Viewports at most this wide use the narrow box
	ObstacleCenterRatio  = 0.45  // Vertical center as a fraction of the height
)

// Inspiration board
const (
	BoardMinFont         = 37.0
	BoardMaxFont         = 160.0
	BoardMaxWidthRatio   = 0.9 // Text wider than this fraction of the viewport shrinks
	BoardTextMinOpacity  = 0.3
	BoardTextMaxOpacity  = 0.64
	BoardImageMinOpacity = 0.7
	BoardImageMaxOpacity = 0.95
	BoardSpawnSpeed      = 4.0  // Total initial velocity range per axis
	BoardSpawnSpin       = 0.05 // Total initial angular velocity range
	BoardRestitution     = 0.8
)

// Works page document, emulated for renderers without a native scroll
// container. The Ideas section starts IdeasTopRatio viewport heights down and
// holds a heading followed by the inspiration board.
const (
	IdeasTopRatio = 1.2
	IdeasHeading  = 40.0
	WorksSettle   = 800 * time.Millisecond // Works entry animation length
)

// Shutdown
const (
	ShutdownTimeout = 5 * time.Second
)

// Inactivity
const (
	InactivityWarnUser       = 25 * time.Minute
	InactivityDisconnectUser = 30 * time.Minute
)

// Terminal status messages
const (
	StatusDuration = 3 * time.Second
)
