// Package ecs provides ECS adapters for rowan's renderer lifecycle events.
//
// The primary adapter is [NewDonburiSink], which forwards renderer events
// (context lost and restored, texture uploads, root attachment) into a
// [Donburi] world as typed events. Subscribe to [RendererEventType] in your
// ECS systems to receive them.
//
// Usage:
//
//	sink := ecs.NewDonburiSink(world)
//	renderer.SetEventSink(sink)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
