package rowan

import (
	"fmt"
	"log/slog"
	"time"
)

// Stats holds per-frame counters. They are reset at the start of every
// Renderer.Render call and can be read back with Renderer.Stats.
type Stats struct {
	DrawCalls int // indexed draw calls issued by the accumulator
	Quads     int // quads submitted across all draw calls
	Batches   int // RenderBatch slots visited
	Opaque    int // opaque renderables invoked
	Culled    int // elements rejected by the culling rectangle
	Skipped   int // quads dropped because their texture was not uploaded
	Uploads   int // textures uploaded before drawing

	RenderTime time.Duration
}

// LogValue implements slog.LogValuer.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("drawCalls", s.DrawCalls),
		slog.Int("quads", s.Quads),
		slog.Int("batches", s.Batches),
		slog.Int("opaque", s.Opaque),
		slog.Int("culled", s.Culled),
		slog.Int("skipped", s.Skipped),
		slog.Int("uploads", s.Uploads),
		slog.Duration("render", s.RenderTime),
	)
}

// globalDebug mirrors the most recently set Renderer debug flag so that node
// operations can run their checks without a renderer reference.
var globalDebug bool

// debugLog emits the frame counters at Debug level.
func debugLog(stats Stats) {
	Logger().Debug("rowan: frame", slog.Any("stats", stats))
}

// debugCheckDisposed panics with a descriptive message when a disposed node is
// used in a tree operation. Only called in debug mode.
func debugCheckDisposed(n *Node, op string) {
	if n.disposed {
		panic(fmt.Sprintf("rowan debug: %s on disposed node %q", op, n.Name))
	}
}

// debugCheckTreeDepth warns if tree depth exceeds the threshold.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.Parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		Logger().Warn("rowan: tree depth exceeds threshold",
			slog.Int("depth", depth), slog.Int("threshold", debugMaxTreeDepth), slog.String("node", n.Name))
	}
}

// debugCheckChildCount warns if a node has more than 1000 children.
const debugMaxChildCount = 1000

func debugCheckChildCount(n *Node) {
	if len(n.children) > debugMaxChildCount {
		Logger().Warn("rowan: child count exceeds threshold",
			slog.Int("children", len(n.children)), slog.Int("threshold", debugMaxChildCount), slog.String("node", n.Name))
	}
}

// Validate checks the batch list against the flattened order of its root:
// every renderable element appears exactly once, in order, and no two
// consecutive batches share a key. It returns the first violation found.
func (l *BatchList) Validate() error {
	var want []*Node
	if l.root != nil {
		for x := l.root; x != l.root.last.nextInOrder; x = x.nextInOrder {
			if x.batchable() || x.opaque() {
				want = append(want, x)
			}
		}
	}

	i := 0
	var prev *slot
	for s := l.head; s != nil; s = s.next {
		if s.prev != prev {
			return fmt.Errorf("rowan: slot %d has a broken back link", i)
		}
		switch s.kind {
		case SlotOpaque:
			if i >= len(want) || want[i] != s.node {
				return fmt.Errorf("rowan: opaque slot out of order at element %d", i)
			}
			i++
		case SlotBatch:
			b := s.batch
			if b.size == 0 {
				return fmt.Errorf("rowan: empty batch in list at element %d", i)
			}
			if prev != nil && prev.kind == SlotBatch && prev.batch.sameKey(b.texture, b.blend) {
				return fmt.Errorf("rowan: adjacent batches share key (texture %d, %s)", b.texture.ID, b.blend)
			}
			count := 0
			for n := b.head; n != nil; n = n.batchNext {
				if n.batch != b {
					return fmt.Errorf("rowan: element %q points at the wrong batch", n.Name)
				}
				if !b.sameKey(n.texture.Base, n.blendMode) {
					return fmt.Errorf("rowan: element %q does not match its batch key", n.Name)
				}
				if i >= len(want) || want[i] != n {
					return fmt.Errorf("rowan: batch member %q out of order at element %d", n.Name, i)
				}
				i++
				count++
			}
			if count != b.size {
				return fmt.Errorf("rowan: batch size %d, counted %d", b.size, count)
			}
		}
		prev = s
	}
	if prev != l.tail {
		return fmt.Errorf("rowan: tail does not match last slot")
	}
	if i != len(want) {
		return fmt.Errorf("rowan: batch list covers %d elements, want %d", i, len(want))
	}
	return nil
}
