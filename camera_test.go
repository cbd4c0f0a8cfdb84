package rowan

import (
	"math"
	"testing"

	"github.com/tanema/gween/ease"
)

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func TestCameraDefaults(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	if cam.Zoom != 1.0 {
		t.Errorf("Zoom = %f, want 1.0", cam.Zoom)
	}
	if !cam.CullEnabled {
		t.Error("CullEnabled = false, want true")
	}
	if r, ok := cam.CullRect(); !ok || r != cam.Viewport {
		t.Errorf("CullRect() = %v, %v, want viewport, true", r, ok)
	}
}

func TestCameraIdentityViewMatrix(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	sx, sy := cam.WorldToScreen(0, 0)
	if !approxEqual(sx, 400, epsilon) || !approxEqual(sy, 300, epsilon) {
		t.Errorf("WorldToScreen(0,0) = (%f,%f), want (400,300)", sx, sy)
	}
}

func TestCameraTranslation(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	cam.X = 100
	cam.Y = 50
	cam.MarkDirty()
	sx, sy := cam.WorldToScreen(100, 50)
	if !approxEqual(sx, 400, epsilon) || !approxEqual(sy, 300, epsilon) {
		t.Errorf("WorldToScreen(100,50) with cam at (100,50) = (%f,%f), want (400,300)", sx, sy)
	}
}

func TestCameraZoom(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	cam.Zoom = 2.0
	cam.MarkDirty()
	sx1, _ := cam.WorldToScreen(1, 0)
	sx0, _ := cam.WorldToScreen(0, 0)
	if !approxEqual(sx1-sx0, 2.0, epsilon) {
		t.Errorf("zoom 2x: 1 world unit = %f screen pixels, want 2.0", sx1-sx0)
	}
}

func TestCameraRotation90(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	cam.Rotation = math.Pi / 2
	cam.MarkDirty()
	sx, sy := cam.WorldToScreen(1, 0)
	// Rotate(-π/2) maps (1,0) to (0,-1) before the viewport-center offset.
	if !approxEqual(sx, 400, epsilon) || !approxEqual(sy, 299, epsilon) {
		t.Errorf("90° rotation: WorldToScreen(1,0) = (%f,%f), want (400,299)", sx, sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	cam.X = 42
	cam.Y = -17
	cam.Zoom = 1.5
	cam.Rotation = 0.3
	cam.MarkDirty()

	sx, sy := cam.WorldToScreen(123, -456)
	wx, wy := cam.ScreenToWorld(sx, sy)
	if !approxEqual(wx, 123, 1e-6) || !approxEqual(wy, -456, 1e-6) {
		t.Errorf("roundtrip: got (%f,%f), want (123,-456)", wx, wy)
	}
}

func TestVisibleBounds(t *testing.T) {
	tests := []struct {
		zoom float64
		want Rect
	}{
		{1, Rect{X: 0, Y: 0, Width: 800, Height: 600}},
		{2, Rect{X: 200, Y: 150, Width: 400, Height: 300}},
	}
	for _, tt := range tests {
		cam := NewCamera(Rect{Width: 800, Height: 600})
		cam.X, cam.Y = 400, 300
		cam.Zoom = tt.zoom
		cam.MarkDirty()
		b := cam.VisibleBounds()
		if !approxEqual(b.X, tt.want.X, 1e-6) || !approxEqual(b.Y, tt.want.Y, 1e-6) ||
			!approxEqual(b.Width, tt.want.Width, 1e-6) || !approxEqual(b.Height, tt.want.Height, 1e-6) {
			t.Errorf("zoom %v: VisibleBounds() = %+v, want %+v", tt.zoom, b, tt.want)
		}
	}
}

// placeUnder computes target's world transform through cam, as a Renderer would.
func placeUnder(cam *Camera, target *Node, x, y float64) {
	target.SetPosition(x, y)
	updateTransformsWithView(target, cam.ViewMatrix(), true)
}

func TestCameraFollow(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	target := NewSprite("target", nil)
	placeUnder(cam, target, 200, 150)

	cam.Follow(target, 0, 0, 1.0)
	cam.Update(1.0 / 60.0)
	if !approxEqual(cam.X, 200, epsilon) || !approxEqual(cam.Y, 150, epsilon) {
		t.Errorf("after follow snap: cam = (%f,%f), want (200,150)", cam.X, cam.Y)
	}
}

func TestCameraFollowLerpAndOffset(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	target := NewSprite("target", nil)
	placeUnder(cam, target, 100, 100)

	cam.Follow(target, 10, -20, 0.5)
	cam.Update(1.0 / 60.0)
	if !approxEqual(cam.X, 55, epsilon) || !approxEqual(cam.Y, 40, epsilon) {
		t.Errorf("follow lerp 0.5 with offset: cam = (%f,%f), want (55,40)", cam.X, cam.Y)
	}
}

func TestCameraUnfollow(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	target := NewSprite("target", nil)
	placeUnder(cam, target, 100, 100)

	cam.Follow(target, 0, 0, 1.0)
	cam.Update(1.0 / 60.0)
	cam.Unfollow()

	placeUnder(cam, target, 500, 100)
	cam.Update(1.0 / 60.0)
	if !approxEqual(cam.X, 100, epsilon) {
		t.Errorf("after unfollow: cam.X = %f, want 100", cam.X)
	}
}

func TestCameraScrollTo(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	cam.ScrollTo(100, 200, 1.0, ease.Linear)
	if !cam.Scrolling() {
		t.Fatal("Scrolling() = false after ScrollTo")
	}

	cam.Update(0.5)
	if !approxEqual(cam.X, 50, 1.0) || !approxEqual(cam.Y, 100, 1.0) {
		t.Errorf("scroll halfway: cam = (%f,%f), want ~(50,100)", cam.X, cam.Y)
	}
	cam.Update(0.5)
	if !approxEqual(cam.X, 100, 1.0) || !approxEqual(cam.Y, 200, 1.0) {
		t.Errorf("scroll end: cam = (%f,%f), want ~(100,200)", cam.X, cam.Y)
	}
	if cam.Scrolling() {
		t.Error("Scrolling() = true after completion")
	}
}

func TestCameraBounds(t *testing.T) {
	cam := NewCamera(Rect{Width: 100, Height: 100})
	cam.SetBounds(Rect{Width: 1000, Height: 1000})

	cam.Update(0)
	if cam.X < 50 || cam.Y < 50 {
		t.Errorf("bounds clamp min: cam = (%f,%f), want >= (50,50)", cam.X, cam.Y)
	}

	cam.X, cam.Y = 999, 999
	cam.Update(0)
	if cam.X > 950 || cam.Y > 950 {
		t.Errorf("bounds clamp max: cam = (%f,%f), want <= (950,950)", cam.X, cam.Y)
	}

	cam.ClearBounds()
	cam.X, cam.Y = -999, -999
	cam.Update(0)
	if cam.X != -999 || cam.Y != -999 {
		t.Errorf("after ClearBounds: cam = (%f,%f), want (-999,-999)", cam.X, cam.Y)
	}
}

func TestCameraBoundsSmallWorld(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	cam.SetBounds(Rect{Width: 100, Height: 100})
	cam.Update(0)
	if !approxEqual(cam.X, 50, epsilon) || !approxEqual(cam.Y, 50, epsilon) {
		t.Errorf("small world center: cam = (%f,%f), want (50,50)", cam.X, cam.Y)
	}
}

func TestCameraUpdateMarksDirty(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	before := cam.ViewMatrix()
	cam.X = 10
	cam.Update(0)
	if cam.ViewMatrix() == before {
		t.Error("view matrix unchanged after the camera moved")
	}
}
