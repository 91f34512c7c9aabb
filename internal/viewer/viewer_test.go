package viewer

import "testing"

// layout: a 2000x1200 image rendered into an 800x600 viewport. At scale 2
// the pan bounds are ±(2000*2-800)/2 = ±1600 and ±(1200*2-600)/2 = ±900.
var wideLayout = Layout{
	RenderedWidth:  2000,
	RenderedHeight: 1200,
	ViewportWidth:  800,
	ViewportHeight: 600,
}

func TestOpenStartsFittedAndCentered(t *testing.T) {
	t.Parallel()

	s := Open("https://cdn.example/poster.jpg")
	if s.Zoomed() {
		t.Error("new session reports zoomed")
	}
	if s.Scale() != 1 {
		t.Errorf("scale = %v, want 1", s.Scale())
	}
	if s.Offset() != (Point{}) {
		t.Errorf("offset = %+v, want origin", s.Offset())
	}
	if s.Image() != "https://cdn.example/poster.jpg" {
		t.Errorf("image = %q", s.Image())
	}
}

func TestToggleZoomFlipsScaleAndRecenters(t *testing.T) {
	t.Parallel()

	s := Open("img")
	s.ToggleZoom()
	if !s.Zoomed() || s.Scale() != 2 {
		t.Fatalf("after toggle: zoomed=%v scale=%v", s.Zoomed(), s.Scale())
	}

	// Pan away from center, then toggle back: the offset must reset.
	s.Wheel(-100, wideLayout)
	if s.Offset().Y == 0 {
		t.Fatal("wheel had no effect while zoomed")
	}
	s.ToggleZoom()
	if s.Zoomed() || s.Scale() != 1 {
		t.Errorf("after second toggle: zoomed=%v scale=%v", s.Zoomed(), s.Scale())
	}
	if s.Offset() != (Point{}) {
		t.Errorf("offset not recentered: %+v", s.Offset())
	}

	// Zooming in again also starts centered.
	s.ToggleZoom()
	if s.Offset() != (Point{}) {
		t.Errorf("offset carried across zoom-in: %+v", s.Offset())
	}
}

func TestWheelIgnoredWhileFitted(t *testing.T) {
	t.Parallel()

	s := Open("img")
	if got := s.Wheel(-500, wideLayout); got != (Point{}) {
		t.Errorf("wheel moved a fitted image: %+v", got)
	}
}

func TestWheelDampingAndClamp(t *testing.T) {
	t.Parallel()

	s := Open("img")
	s.ToggleZoom()

	// deltaY -100 pans +50 after damping.
	if got := s.Wheel(-100, wideLayout); got.Y != 50 {
		t.Errorf("offset.Y = %v, want 50", got.Y)
	}

	// A huge scroll pins at the vertical bound, +900 for this layout.
	if got := s.Wheel(-1e6, wideLayout); got.Y != 900 {
		t.Errorf("offset.Y = %v, want clamp at 900", got.Y)
	}
	if got := s.Wheel(1e6, wideLayout); got.Y != -900 {
		t.Errorf("offset.Y = %v, want clamp at -900", got.Y)
	}
}

func TestWheelNoPanWhenImageFitsViewport(t *testing.T) {
	t.Parallel()

	small := Layout{RenderedWidth: 300, RenderedHeight: 200, ViewportWidth: 800, ViewportHeight: 600}

	s := Open("img")
	s.ToggleZoom()
	if got := s.Wheel(-100, small); got.Y != 0 {
		t.Errorf("offset.Y = %v, want 0 when the scaled image fits", got.Y)
	}
}

func TestBeginDragRequiresZoom(t *testing.T) {
	t.Parallel()

	s := Open("img")
	if d := s.BeginDrag(Point{X: 10, Y: 10}, wideLayout); d != nil {
		t.Error("drag session opened while fitted")
	}
}

func TestDragMovesAndClampsBothAxes(t *testing.T) {
	t.Parallel()

	s := Open("img")
	s.ToggleZoom()

	d := s.BeginDrag(Point{X: 400, Y: 300}, wideLayout)
	if d == nil {
		t.Fatal("no drag session while zoomed")
	}

	// Moving the pointer by (+30, -20) pans by the same delta.
	got := d.Move(Point{X: 430, Y: 280})
	if got.X != 30 || got.Y != -20 {
		t.Errorf("offset = %+v, want (30,-20)", got)
	}

	// Dragging far past the edge clamps to ±1600 / ±900.
	got = d.Move(Point{X: 400 + 5000, Y: 300 - 5000})
	if got.X != 1600 || got.Y != -900 {
		t.Errorf("offset = %+v, want (1600,-900)", got)
	}

	d.End()
	if after := d.Move(Point{X: 0, Y: 0}); after != got {
		t.Errorf("move after End changed offset: %+v", after)
	}
}

func TestDragResumesFromCurrentOffset(t *testing.T) {
	t.Parallel()

	s := Open("img")
	s.ToggleZoom()

	first := s.BeginDrag(Point{X: 100, Y: 100}, wideLayout)
	first.Move(Point{X: 150, Y: 100}) // offset now (50, 0)
	first.End()

	// A second drag starting elsewhere continues from (50, 0), it does not
	// snap back to the pointer.
	second := s.BeginDrag(Point{X: 700, Y: 500}, wideLayout)
	got := second.Move(Point{X: 710, Y: 500})
	if got.X != 60 || got.Y != 0 {
		t.Errorf("offset = %+v, want (60,0)", got)
	}
}
