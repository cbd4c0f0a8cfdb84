package rowan

import (
	"iter"
	"log/slog"
)

// SlotKind tags an entry of a BatchList.
type SlotKind uint8

const (
	SlotBatch  SlotKind = iota // a RenderBatch of same-key sprites
	SlotOpaque                 // one opaque renderable drawing itself
)

// String returns the slot kind name used in logs.
func (k SlotKind) String() string {
	switch k {
	case SlotBatch:
		return "batch"
	case SlotOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// slot is one entry of the intrusive list: either a batch or an opaque node.
type slot struct {
	kind  SlotKind
	batch *RenderBatch
	node  *Node
	prev  *slot
	next  *slot
}

// SlotView is a read-only view of one BatchList entry. Batch is set for
// SlotBatch entries, Node for SlotOpaque entries.
type SlotView struct {
	Kind  SlotKind
	Batch *RenderBatch
	Node  *Node
}

// BatchList mirrors the flattened drawing order of a root node as a list of
// maximal same-key sprite runs and opaque renderables.
//
// The list is built once by AttachRoot and then kept current incrementally:
// node tree mutations below the root call InsertSubtree and RemoveSubtree,
// and batch-key changes call Update. Each of these touches only the slots
// next to the affected nodes.
type BatchList struct {
	ctx  *RenderContext
	root *Node

	head  *slot
	tail  *slot
	slots int

	pool       batchPool
	opaqueFree []*slot

	cull Culler
}

// NewBatchList creates an empty list. ctx is used for texture tracking and
// rendering; a nil ctx gives a list that only maintains topology.
func NewBatchList(ctx *RenderContext) *BatchList {
	return &BatchList{ctx: ctx}
}

// Root returns the synchronized root, or nil.
func (l *BatchList) Root() *Node { return l.root }

// Len returns the number of slots.
func (l *BatchList) Len() int { return l.slots }

// All iterates the slots in drawing order.
func (l *BatchList) All() iter.Seq[SlotView] {
	return func(yield func(SlotView) bool) {
		for s := l.head; s != nil; s = s.next {
			if !yield(SlotView{Kind: s.kind, Batch: s.batch, Node: s.node}) {
				return
			}
		}
	}
}

// SetCullingRect enables culling against r in screen space, or disables it
// when r is nil.
func (l *BatchList) SetCullingRect(r *Rect) {
	l.cull.SetRect(r)
}

// --- Synchronization ---

// AttachRoot detaches any previous root and builds the list from root's
// flattened order in a single pass.
func (l *BatchList) AttachRoot(root *Node) {
	if root == nil {
		panic("rowan: AttachRoot with nil root")
	}
	if root.group != nil && root.group != l {
		panic("rowan: root is already synchronized with another batch list")
	}
	if l.root != nil {
		l.Detach()
	}
	l.root = root

	var prev *Node
	end := root.last.nextInOrder
	for x := root; x != end; x = x.nextInOrder {
		x.group = l
		if x.batchable() || x.opaque() {
			l.insertBetween(x, prev, nil)
			prev = x
		}
	}

	Logger().Info("rowan: root attached", slog.String("root", root.Name), slog.Int("slots", l.slots))
	if l.ctx != nil {
		l.ctx.emit(RendererEvent{Type: EventRootAttached, NodeID: root.ID})
	}
}

// Detach releases every slot and forgets the root. Nodes keep no reference
// to the list afterwards.
func (l *BatchList) Detach() {
	if l.root == nil {
		return
	}
	end := l.root.last.nextInOrder
	for x := l.root; x != end; x = x.nextInOrder {
		x.group = nil
		x.batch = nil
		x.batchPrev = nil
		x.batchNext = nil
		x.slot = nil
	}
	for s := l.head; s != nil; {
		next := s.next
		s.prev = nil
		s.next = nil
		if s.kind == SlotBatch {
			l.pool.release(s.batch)
		} else {
			l.releaseOpaque(s)
		}
		s = next
	}
	l.head = nil
	l.tail = nil
	l.slots = 0
	l.root = nil
}

// InsertSubtree adds n and its descendants, which must already be linked
// below the root. Nodes that were already synchronized are re-evaluated.
// It panics, before touching the list, when n is not below the root.
func (l *BatchList) InsertSubtree(n *Node) {
	if !l.contains(n) {
		panic("rowan: InsertSubtree on a node outside the synchronized root")
	}
	end := n.last.nextInOrder
	for x := n; x != end; x = x.nextInOrder {
		if x.synced() {
			l.removeNode(x)
		}
	}

	prev := l.prevSynced(n)
	next := l.nextSynced(n.last)
	for x := n; x != end; x = x.nextInOrder {
		x.group = l
		if x.batchable() || x.opaque() {
			l.insertBetween(x, prev, next)
			prev = x
		}
	}
}

// RemoveSubtree removes n and its descendants from the list. Removing the
// root is equivalent to Detach. It panics when n is not synchronized with l.
func (l *BatchList) RemoveSubtree(n *Node) {
	if n.group != l {
		panic("rowan: RemoveSubtree on a node not synchronized with this batch list")
	}
	if n == l.root {
		l.Detach()
		return
	}
	end := n.last.nextInOrder
	for x := n; x != end; x = x.nextInOrder {
		if x.synced() {
			l.removeNode(x)
		}
		x.group = nil
	}
}

// Update re-evaluates one node after its batch key or renderable flag
// changed: it is removed from its slot and inserted again where it now
// belongs.
func (l *BatchList) Update(n *Node) {
	if n.group != l {
		panic("rowan: Update on a node not synchronized with this batch list")
	}
	if n.synced() {
		l.removeNode(n)
	}
	if n.batchable() || n.opaque() {
		l.insertBetween(n, l.prevSynced(n), l.nextSynced(n))
	}
}

// contains reports whether n is the root or one of its descendants.
func (l *BatchList) contains(n *Node) bool {
	if l.root == nil || n == nil {
		return false
	}
	for p := n; p != nil; p = p.Parent {
		if p == l.root {
			return true
		}
	}
	return false
}

// prevSynced returns the nearest synchronized node before n, without leaving
// the root's range.
func (l *BatchList) prevSynced(n *Node) *Node {
	stop := l.root.prevInOrder
	for x := n.prevInOrder; x != nil && x != stop; x = x.prevInOrder {
		if x.synced() {
			return x
		}
	}
	return nil
}

// nextSynced returns the nearest synchronized node after n, without leaving
// the root's range.
func (l *BatchList) nextSynced(n *Node) *Node {
	stop := l.root.last.nextInOrder
	for x := n.nextInOrder; x != nil && x != stop; x = x.nextInOrder {
		if x.synced() {
			return x
		}
	}
	return nil
}

// insertBetween places n given its nearest synchronized neighbours:
//
//  1. prev's batch has n's key: append after prev.
//  2. next's batch has n's key: prepend before next.
//  3. prev and next share a batch: split it at next, then add a singleton
//     batch between the halves.
//  4. otherwise add a singleton batch after prev's slot, or at the head.
//
// Opaque nodes always get their own slot, splitting a batch if needed.
func (l *BatchList) insertBetween(n, prev, next *Node) {
	splitting := prev != nil && next != nil && prev.batch != nil && prev.batch == next.batch

	if n.opaque() {
		s := l.acquireOpaque(n)
		if splitting {
			l.split(prev.batch, next)
		}
		l.linkAfter(l.slotOf(prev), s)
		return
	}

	if l.ctx != nil {
		l.ctx.Textures.Track(n.texture.Base)
	}
	switch {
	case prev != nil && prev.batch != nil && prev.batch.accepts(n):
		prev.batch.insertAfter(prev, n)
	case next != nil && next.batch != nil && next.batch.accepts(n):
		next.batch.insertBefore(next, n)
	default:
		if splitting {
			l.split(prev.batch, next)
		}
		b := l.pool.acquire()
		b.init(n)
		l.linkAfter(l.slotOf(prev), b.slot)
	}
}

// split moves from..b.tail into a new batch placed right after b.
func (l *BatchList) split(b *RenderBatch, from *Node) {
	upper := l.pool.acquire()
	b.moveFrom(from, upper)
	l.linkAfter(b.slot, upper.slot)
}

// removeNode takes n out of its slot, dropping the slot when it empties and
// merging the neighbours that become adjacent with equal keys.
func (l *BatchList) removeNode(n *Node) {
	if s := n.slot; s != nil {
		before, after := s.prev, s.next
		l.unlink(s)
		l.releaseOpaque(s)
		n.slot = nil
		l.mergeAround(before, after)
		return
	}

	b := n.batch
	b.remove(n)
	if b.size == 0 {
		before, after := b.slot.prev, b.slot.next
		l.unlink(b.slot)
		l.pool.release(b)
		l.mergeAround(before, after)
	}
}

// mergeAround joins two now-adjacent batches that share a key.
func (l *BatchList) mergeAround(a, c *slot) {
	if a == nil || c == nil || a.kind != SlotBatch || c.kind != SlotBatch {
		return
	}
	if !a.batch.sameKey(c.batch.texture, c.batch.blend) {
		return
	}
	a.batch.absorb(c.batch)
	l.unlink(c)
	l.pool.release(c.batch)
}

func (l *BatchList) slotOf(n *Node) *slot {
	switch {
	case n == nil:
		return nil
	case n.batch != nil:
		return n.batch.slot
	default:
		return n.slot
	}
}

// linkAfter inserts s after prev, or at the head when prev is nil.
func (l *BatchList) linkAfter(prev, s *slot) {
	var next *slot
	if prev == nil {
		next = l.head
		l.head = s
	} else {
		next = prev.next
		prev.next = s
	}
	s.prev = prev
	s.next = next
	if next == nil {
		l.tail = s
	} else {
		next.prev = s
	}
	l.slots++
}

func (l *BatchList) unlink(s *slot) {
	if s.prev == nil {
		l.head = s.next
	} else {
		s.prev.next = s.next
	}
	if s.next == nil {
		l.tail = s.prev
	} else {
		s.next.prev = s.prev
	}
	s.prev = nil
	s.next = nil
	l.slots--
}

func (l *BatchList) acquireOpaque(n *Node) *slot {
	var s *slot
	if k := len(l.opaqueFree); k > 0 {
		s = l.opaqueFree[k-1]
		l.opaqueFree[k-1] = nil
		l.opaqueFree = l.opaqueFree[:k-1]
	} else {
		s = &slot{kind: SlotOpaque}
	}
	s.node = n
	n.slot = s
	return s
}

func (l *BatchList) releaseOpaque(s *slot) {
	s.node = nil
	l.opaqueFree = append(l.opaqueFree, s)
}
