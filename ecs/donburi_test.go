package ecs

import (
	"testing"

	"github.com/phanxgames/rowan"

	"github.com/yohamta/donburi"
)

func TestNewDonburiSink(t *testing.T) {
	world := donburi.NewWorld()
	sink := NewDonburiSink(world)
	if sink == nil {
		t.Fatal("NewDonburiSink returned nil")
	}
}

func TestDonburiSink_EmitRendererEvent(t *testing.T) {
	world := donburi.NewWorld()
	sink := NewDonburiSink(world)

	var received []rowan.RendererEvent
	RendererEventType.Subscribe(world, func(w donburi.World, e rowan.RendererEvent) {
		received = append(received, e)
	})

	sink.EmitRendererEvent(rowan.RendererEvent{Type: rowan.EventTextureUploaded, TextureID: 7})
	sink.EmitRendererEvent(rowan.RendererEvent{Type: rowan.EventContextLost})

	// Events are queued until processed.
	if len(received) != 0 {
		t.Fatalf("received %d events before ProcessEvents", len(received))
	}
	RendererEventType.ProcessEvents(world)

	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}
	if e := received[0]; e.Type != rowan.EventTextureUploaded || e.TextureID != 7 {
		t.Errorf("event 0: %+v", e)
	}
	if e := received[1]; e.Type != rowan.EventContextLost {
		t.Errorf("event 1: %+v", e)
	}
}

func TestDonburiSink_MultipleSubscribers(t *testing.T) {
	world := donburi.NewWorld()
	sink := NewDonburiSink(world)

	var count1, count2 int
	RendererEventType.Subscribe(world, func(w donburi.World, e rowan.RendererEvent) {
		count1++
	})
	RendererEventType.Subscribe(world, func(w donburi.World, e rowan.RendererEvent) {
		count2++
	})

	sink.EmitRendererEvent(rowan.RendererEvent{Type: rowan.EventRootAttached, NodeID: 1})
	RendererEventType.ProcessEvents(world)

	if count1 != 1 || count2 != 1 {
		t.Errorf("subscriber counts = %d, %d, want 1, 1", count1, count2)
	}
}
