// Package viewer holds the zoom/pan state machine behind the full-screen
// image preview. Two states exist: fitted (scale 1, centered) and zoomed
// (scale 2, pannable). Panning can never reveal blank space beyond the
// image's scaled extent.
package viewer

import "math"

const (
	fittedScale = 1.0
	zoomedScale = 2.0

	// wheelDamping matches the original editor: half a pixel of pan per
	// pixel of wheel delta.
	wheelDamping = 0.5
)

// Point is a pan offset or pointer position in viewport pixels.
type Point struct {
	X float64
	Y float64
}

// Layout carries the measurements clamping needs: the image's rendered size
// at scale 1 and the viewport size.
type Layout struct {
	RenderedWidth  float64
	RenderedHeight float64
	ViewportWidth  float64
	ViewportHeight float64
}

// State is one viewer session. Sessions start fitted; closing the viewer
// means dropping the State, nothing persists across sessions.
type State struct {
	scale  float64
	offset Point
	image  string
}

// Open starts a session on the given image reference, fitted and centered.
func Open(image string) *State {
	return &State{scale: fittedScale, image: image}
}

func (s *State) Image() string { return s.image }

func (s *State) Scale() float64 { return s.scale }

func (s *State) Offset() Point { return s.offset }

func (s *State) Zoomed() bool { return s.scale > fittedScale }

// ToggleZoom flips fitted and zoomed. Both directions recenter: the offset
// resets to the origin.
func (s *State) ToggleZoom() {
	if s.Zoomed() {
		s.scale = fittedScale
	} else {
		s.scale = zoomedScale
	}
	s.offset = Point{}
}

// Wheel applies a damped vertical pan and returns the clamped offset.
// Wheel input is only processed while zoomed.
func (s *State) Wheel(deltaY float64, l Layout) Point {
	if !s.Zoomed() {
		return s.offset
	}
	s.offset.Y = clamp(s.offset.Y-deltaY*wheelDamping, maxOffsetY(l, s.scale))
	return s.offset
}

// DragSession is one press-move-release interaction. It captures the
// pointer's starting position relative to the current pan offset; each Move
// yields a candidate offset clamped on both axes. No momentum survives End.
type DragSession struct {
	state  *State
	layout Layout
	origin Point // pointer position minus the pan offset at press time
	ended  bool
}

// BeginDrag opens a drag session at pointer position p. Dragging only
// exists while zoomed; otherwise nil is returned.
func (s *State) BeginDrag(p Point, l Layout) *DragSession {
	if !s.Zoomed() {
		return nil
	}
	return &DragSession{
		state:  s,
		layout: l,
		origin: Point{X: p.X - s.offset.X, Y: p.Y - s.offset.Y},
	}
}

// Move advances the drag to pointer position p and returns the clamped
// offset now in effect.
func (d *DragSession) Move(p Point) Point {
	if d.ended {
		return d.state.offset
	}
	d.state.offset = Point{
		X: clamp(p.X-d.origin.X, maxOffsetX(d.layout, d.state.scale)),
		Y: clamp(p.Y-d.origin.Y, maxOffsetY(d.layout, d.state.scale)),
	}
	return d.state.offset
}

// End closes the session; further Move calls are ignored.
func (d *DragSession) End() {
	d.ended = true
}

// maxOffsetX is the pan bound for the horizontal axis: half of whatever
// part of the scaled width exceeds the viewport, never negative.
func maxOffsetX(l Layout, scale float64) float64 {
	return math.Max(0, (l.RenderedWidth*scale-l.ViewportWidth)/2)
}

func maxOffsetY(l Layout, scale float64) float64 {
	return math.Max(0, (l.RenderedHeight*scale-l.ViewportHeight)/2)
}

func clamp(v, bound float64) float64 {
	if v > bound {
		return bound
	}
	if v < -bound {
		return -bound
	}
	return v
}
