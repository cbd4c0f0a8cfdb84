package rowan

import "fmt"

// RenderContext is the GPU-facing state shared by every part of a renderer:
// the device, compiled programs, the texture manager, the clip stack and the
// frame counters. It is threaded through accumulators and opaque
// renderables instead of living in package globals.
type RenderContext struct {
	Device   Device
	Textures *TextureManager
	Scissor  ScissorStack

	programs   [programKindCount]ProgramHandle
	projection Vec2
	stats      Stats
	sink       EventSink
	debug      bool
}

const programKindCount = 2

func newRenderContext(dev Device) *RenderContext {
	if dev == nil {
		panic("rowan: nil Device")
	}
	ctx := &RenderContext{Device: dev}
	ctx.Textures = newTextureManager(ctx)
	ctx.Scissor.ctx = ctx
	return ctx
}

// compilePrograms (re)creates the built-in shader programs.
func (c *RenderContext) compilePrograms() error {
	for k := ProgramKind(0); k < programKindCount; k++ {
		h, err := c.Device.CreateProgram(k)
		if err != nil {
			return fmt.Errorf("rowan: compile program %d: %w", k, err)
		}
		c.programs[k] = h
	}
	return nil
}

func (c *RenderContext) deletePrograms() {
	for k, h := range c.programs {
		if h != 0 {
			c.Device.DeleteProgram(h)
			c.programs[k] = 0
		}
	}
}

// Program returns the handle of a built-in program.
func (c *RenderContext) Program(kind ProgramKind) ProgramHandle {
	return c.programs[kind]
}

// Projection returns the projection vector of the frame being rendered.
func (c *RenderContext) Projection() Vec2 {
	return c.projection
}

// Stats returns the counters of the frame being rendered.
func (c *RenderContext) Stats() Stats {
	return c.stats
}

func (c *RenderContext) emit(ev RendererEvent) {
	if c.sink != nil {
		c.sink.EmitRendererEvent(ev)
	}
}
