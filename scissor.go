package rowan

import (
	"image"
	"math"
)

// ScissorStack is a stack of nested clip rectangles. Each push is
// intersected with the rectangle below it; the top of the stack is what the
// device clips to.
type ScissorStack struct {
	ctx   *RenderContext
	rects []image.Rectangle
}

// normalizeScissor rounds r to whole pixels and flips negative extents.
func normalizeScissor(r Rect) image.Rectangle {
	x := int(math.Round(r.X))
	y := int(math.Round(r.Y))
	w := int(math.Round(r.Width))
	h := int(math.Round(r.Height))
	if w < 0 {
		w = -w
		x -= w
	}
	if h < 0 {
		h = -h
		y -= h
	}
	return image.Rect(x, y, x+w, y+h)
}

// Push clips subsequent drawing to r intersected with the current clip.
// It returns false, and pushes nothing, when the resulting area is empty;
// callers should skip drawing in that case and must not Pop.
func (s *ScissorStack) Push(r Rect) bool {
	rect := normalizeScissor(r)
	if len(s.rects) == 0 {
		if rect.Dx() < 1 || rect.Dy() < 1 {
			return false
		}
	} else {
		parent := s.rects[len(s.rects)-1]
		rect = rect.Intersect(parent)
		if rect.Dx() < 1 || rect.Dy() < 1 {
			return false
		}
	}
	s.rects = append(s.rects, rect)
	s.ctx.Device.SetScissor(rect, true)
	return true
}

// Pop removes the top clip rectangle and restores the one below it.
// Popping an empty stack is a no-op.
func (s *ScissorStack) Pop() (image.Rectangle, bool) {
	if len(s.rects) == 0 {
		return image.Rectangle{}, false
	}
	old := s.rects[len(s.rects)-1]
	s.rects = s.rects[:len(s.rects)-1]
	if len(s.rects) == 0 {
		s.ctx.Device.SetScissor(image.Rectangle{}, false)
	} else {
		s.ctx.Device.SetScissor(s.rects[len(s.rects)-1], true)
	}
	return old, true
}

// Peek returns the active clip rectangle.
func (s *ScissorStack) Peek() (image.Rectangle, bool) {
	if len(s.rects) == 0 {
		return image.Rectangle{}, false
	}
	return s.rects[len(s.rects)-1], true
}

// Len returns the stack depth.
func (s *ScissorStack) Len() int {
	return len(s.rects)
}

// reset drops every rectangle without touching the device; used after a
// context restore when device state is already default.
func (s *ScissorStack) reset() {
	s.rects = s.rects[:0]
}
