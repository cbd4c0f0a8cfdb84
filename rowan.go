package rowan

import (
	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/math/f64"
)

// Vec2 is a 2D vector used for anchors, sizes and projection vectors.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Viewport is the width/height pair a frame is rendered into. It is turned
// into the projection vector (half extents) the vertex stage divides by.
type Viewport struct {
	Width, Height float64
}

// Projection returns the half-size projection vector used to map pixel
// coordinates into normalized device coordinates.
func (v Viewport) Projection() Vec2 {
	return Vec2{X: v.Width / 2, Y: v.Height / 2}
}

// identityAff3 is the identity affine matrix in f64.Aff3 layout
// [a, c, tx, b, d, ty].
var identityAff3 = f64.Aff3{1, 0, 0, 0, 1, 0}

// BlendMode selects a compositing operation. Blend mode is half of a batch
// key: elements with different blend modes never share a draw call.
type BlendMode uint8

const (
	BlendNormal BlendMode = iota // premultiplied source-over (ONE, ONE_MINUS_SRC_ALPHA)
	BlendScreen                  // screen (1 - (1-src)*(1-dst); only brightens)
)

// String returns the blend mode name used in logs and config files.
func (b BlendMode) String() string {
	switch b {
	case BlendNormal:
		return "normal"
	case BlendScreen:
		return "screen"
	default:
		return "unknown"
	}
}

// EbitenBlend returns the ebiten.Blend value corresponding to this BlendMode.
func (b BlendMode) EbitenBlend() ebiten.Blend {
	switch b {
	case BlendScreen:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorOne,
			BlendFactorSourceAlpha:      ebiten.BlendFactorOne,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceColor,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	default:
		return ebiten.BlendSourceOver
	}
}

// NodeType distinguishes rendering behavior for a Node.
type NodeType uint8

const (
	NodeTypeContainer NodeType = iota // group node with no visual output
	NodeTypeSprite                    // textured quad, batched by texture and blend mode
	NodeTypeCustom                    // opaque renderable drawn by its own RenderFunc
)
