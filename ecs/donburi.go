package ecs

import (
	"github.com/phanxgames/rowan"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// RendererEventType is the Donburi event type for rowan renderer events.
// Subscribe to this in your ECS systems to react to context loss or texture
// uploads.
var RendererEventType = events.NewEventType[rowan.RendererEvent]()

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates an EventSink backed by a Donburi world.
// Renderer events are published to RendererEventType and can be consumed
// with events.Subscribe and ProcessEvents.
func NewDonburiSink(world donburi.World) rowan.EventSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) EmitRendererEvent(event rowan.RendererEvent) {
	RendererEventType.Publish(s.world, event)
}
