package rowan

// RendererEventType identifies a renderer lifecycle event.
type RendererEventType uint8

const (
	EventContextLost     RendererEventType = iota // the GPU context went away; rendering is suspended
	EventContextRestored                          // GPU resources were recreated; rendering resumes
	EventTextureUploaded                          // a BaseTexture reached the GPU
	EventRootAttached                             // a new root was synchronized into the batch list
)

// String returns a short name for logs.
func (t RendererEventType) String() string {
	switch t {
	case EventContextLost:
		return "context-lost"
	case EventContextRestored:
		return "context-restored"
	case EventTextureUploaded:
		return "texture-uploaded"
	case EventRootAttached:
		return "root-attached"
	default:
		return "unknown"
	}
}

// RendererEvent carries lifecycle data to an EventSink.
type RendererEvent struct {
	Type      RendererEventType
	TextureID uint32 // valid for EventTextureUploaded
	NodeID    uint32 // valid for EventRootAttached
}

// EventSink is the interface for optional lifecycle observers (for example
// the Donburi adapter in rowan/ecs).
type EventSink interface {
	EmitRendererEvent(event RendererEvent)
}
