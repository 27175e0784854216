package session

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/tomz197/phoalbum/internal/event"
	"github.com/tomz197/phoalbum/internal/loop/config"
	"github.com/tomz197/phoalbum/internal/physics"
	"github.com/tomz197/phoalbum/internal/tier"
)

// HeroWords are the falling words, in spawn order.
var HeroWords = []string{
	"Video", "Idea", "Life", "Sketch", "Journey",
	"Illustration", "Myself", "Design", "Photography",
}

// wordsLayout places the floor line, the right wall inset and the centered
// obstacle for a viewport.
func wordsLayout(vp physics.Viewport) physics.Layout {
	floor := math.Round(vp.Height*0.5 + config.RevealOffset + config.BottomTextOffset + config.LineTopOffset)
	w, h := config.ObstacleWidth, config.ObstacleHeight
	if vp.Width <= config.ObstacleBreakpoint {
		w, h = config.ObstacleNarrowWidth, config.ObstacleNarrowHeight
	}
	obstacle := physics.RectFrom(physics.Vec2{X: vp.Width / 2, Y: vp.Height * config.ObstacleCenterRatio}, w, h)
	return physics.Layout{
		FloorY:          floor,
		RightWallOffset: config.WordsRightWall,
		Obstacle:        &obstacle,
	}
}

// spread returns n values in [lo, hi] that always include both ends, shuffled.
func spread(rng *rand.Rand, n int, lo, hi float64) []float64 {
	out := make([]float64, 0, n)
	if n >= 1 {
		out = append(out, lo)
	}
	if n >= 2 {
		out = append(out, hi)
	}
	for len(out) < n {
		out = append(out, lo+rng.Float64()*(hi-lo))
	}
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// spawnWords builds the hero word bodies: alternating left and right columns,
// each pair stacked one row higher than the last.
func spawnWords(rng *rand.Rand, vp physics.Viewport, words []string) []*physics.Body {
	sizes := spread(rng, len(words), config.WordsMinFont, config.WordsMaxFont)
	opacities := spread(rng, len(words), config.WordsMinOpacity, config.WordsMaxOpacity)

	bodies := make([]*physics.Body, 0, len(words))
	for i, word := range words {
		b := physics.NewTextBody(fmt.Sprintf("word-%d", i), word, sizes[i], physics.FallingText)
		column := config.WordsLeftColumn
		if i%2 == 1 {
			column = config.WordsRightColumn
		}
		b.SetPosition(physics.Vec2{
			X: vp.Width*column + (rng.Float64()-0.5)*config.WordsJitterX,
			Y: config.WordsSpawnY - float64(i/2)*(b.Height+config.WordsRowGap),
		})
		b.Opacity = opacities[i]
		b.AngularVel = (rng.Float64() - 0.5) * config.WordsSpin
		b.FrictionAir = physics.FrictionFalling
		bodies = append(bodies, b)
	}
	return bodies
}

// wordsVisible reports whether the hero scene is on screen. It disappears
// from Videos onwards and under the About overlay.
func (s *Session) wordsVisible() bool {
	st := s.ctrl.State()
	return st.Tier < tier.Videos && !st.Overlay
}

// updateWords spawns the words once the trigger fired and the visitor is on
// the hero page, then keeps the simulation mode in step with the scroll:
// words float near the top of page one and fall further down.
func (s *Session) updateWords() {
	st := s.ctrl.State()
	if s.wordsFalling && !s.wordsSpawned && st.Tier == tier.Home && !st.Overlay {
		for _, b := range spawnWords(s.rng, s.viewport, HeroWords) {
			if s.words.Mode() == physics.ModeFloating {
				b.FrictionAir = physics.FrictionFloating
			}
			s.words.Add(b)
		}
		s.wordsSpawned = true
		s.logger.Debug("words spawned", "count", len(HeroWords))
	}

	want := physics.ModeFalling
	if s.wordsFalling && st.Progress < config.WordsFloatUntil {
		want = physics.ModeFloating
	}
	if from := s.words.Mode(); from != want {
		s.words.SetMode(want, wordsLayout(s.viewport))
		s.bus.Publish(event.ModeChanged, &event.ModeChangedPayload{From: from.String(), To: want.String()})
	}
}

// triggerWords starts the falling words. Later triggers are ignored.
func (s *Session) triggerWords() {
	if s.wordsFalling {
		return
	}
	s.wordsFalling = true
	s.logger.Info("words triggered")
}
