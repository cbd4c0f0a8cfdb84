package rowan

import "iter"

// RenderBatch is a maximal run of consecutive renderable sprites, in drawing
// order, sharing one (BaseTexture, BlendMode) key. Members are chained through
// their batchPrev/batchNext fields from head to tail.
type RenderBatch struct {
	texture *BaseTexture
	blend   BlendMode
	head    *Node
	tail    *Node
	size    int
	slot    *slot
}

// Texture returns the BaseTexture every member samples.
func (b *RenderBatch) Texture() *BaseTexture { return b.texture }

// BlendMode returns the blend mode every member uses.
func (b *RenderBatch) BlendMode() BlendMode { return b.blend }

// Len returns the number of members.
func (b *RenderBatch) Len() int { return b.size }

// Head returns the first member in drawing order.
func (b *RenderBatch) Head() *Node { return b.head }

// Tail returns the last member in drawing order.
func (b *RenderBatch) Tail() *Node { return b.tail }

// Nodes iterates the members in drawing order.
func (b *RenderBatch) Nodes() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for n := b.head; n != nil; n = n.batchNext {
			if !yield(n) {
				return
			}
		}
	}
}

func (b *RenderBatch) sameKey(tex *BaseTexture, blend BlendMode) bool {
	return b.texture == tex && b.blend == blend
}

// accepts reports whether n's key matches the batch key.
func (b *RenderBatch) accepts(n *Node) bool {
	return b.sameKey(n.texture.Base, n.blendMode)
}

// init turns an empty batch into a singleton holding n.
func (b *RenderBatch) init(n *Node) {
	b.texture = n.texture.Base
	b.blend = n.blendMode
	b.head = n
	b.tail = n
	b.size = 1
	n.batch = b
	n.batchPrev = nil
	n.batchNext = nil
}

// insertAfter links n right after member prev.
func (b *RenderBatch) insertAfter(prev, n *Node) {
	next := prev.batchNext
	n.batchPrev = prev
	n.batchNext = next
	prev.batchNext = n
	if next != nil {
		next.batchPrev = n
	} else {
		b.tail = n
	}
	n.batch = b
	b.size++
}

// insertBefore links n right before member next.
func (b *RenderBatch) insertBefore(next, n *Node) {
	prev := next.batchPrev
	n.batchPrev = prev
	n.batchNext = next
	next.batchPrev = n
	if prev != nil {
		prev.batchNext = n
	} else {
		b.head = n
	}
	n.batch = b
	b.size++
}

// remove unlinks member n.
func (b *RenderBatch) remove(n *Node) {
	if n.batchPrev != nil {
		n.batchPrev.batchNext = n.batchNext
	} else {
		b.head = n.batchNext
	}
	if n.batchNext != nil {
		n.batchNext.batchPrev = n.batchPrev
	} else {
		b.tail = n.batchPrev
	}
	n.batch = nil
	n.batchPrev = nil
	n.batchNext = nil
	b.size--
}

// moveFrom transfers the members from..b.tail into the empty batch dst,
// which takes over b's key. Both halves are measured before any link is cut.
func (b *RenderBatch) moveFrom(from *Node, dst *RenderBatch) {
	moved := 0
	for n := from; n != nil; n = n.batchNext {
		moved++
	}

	dst.texture = b.texture
	dst.blend = b.blend
	dst.head = from
	dst.tail = b.tail
	dst.size = moved

	b.tail = from.batchPrev
	b.size -= moved
	if b.tail != nil {
		b.tail.batchNext = nil
	} else {
		b.head = nil
	}
	from.batchPrev = nil
	for n := from; n != nil; n = n.batchNext {
		n.batch = dst
	}
}

// absorb appends every member of o to b. o is left empty.
func (b *RenderBatch) absorb(o *RenderBatch) {
	for n := o.head; n != nil; n = n.batchNext {
		n.batch = b
	}
	if b.tail != nil {
		b.tail.batchNext = o.head
		o.head.batchPrev = b.tail
	} else {
		b.head = o.head
	}
	b.tail = o.tail
	b.size += o.size
	o.head = nil
	o.tail = nil
	o.size = 0
}

func (b *RenderBatch) reset() {
	b.texture = nil
	b.blend = BlendNormal
	b.head = nil
	b.tail = nil
	b.size = 0
}

// --- Batch pool ---

// batchPool is a free list of emptied batches and their list slots. After
// warmup, splitting and creating batches does not allocate.
type batchPool struct {
	free []*RenderBatch
}

// acquire returns an empty batch with a slot attached.
func (p *batchPool) acquire() *RenderBatch {
	if n := len(p.free); n > 0 {
		b := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		return b
	}
	b := &RenderBatch{}
	b.slot = &slot{kind: SlotBatch, batch: b}
	return b
}

// release returns b to the pool. b must already be unlinked from its list.
func (p *batchPool) release(b *RenderBatch) {
	b.reset()
	b.slot.prev = nil
	b.slot.next = nil
	p.free = append(p.free, b)
}

// Len returns the number of pooled batches.
func (p *batchPool) Len() int {
	return len(p.free)
}
