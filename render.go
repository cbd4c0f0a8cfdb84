package rowan

// RenderAll draws every slot in order. Each batch sets its blend mode once
// and pushes the quads of its visible members into acc; each opaque slot
// ends the accumulator's frame, draws itself and begins a new one.
//
// World transforms must be current.
func (l *BatchList) RenderAll(acc Accumulator, vp Viewport) {
	acc.Begin(vp)
	for s := l.head; s != nil; s = s.next {
		l.renderSlot(acc, vp, s, nil, nil)
	}
	acc.End()
}

// RenderRange draws only the part of the list spanning [first, last] in
// flattened order. When both ends fall in the same batch, only that member
// sub-range is drawn. Nodes without a slot at either end are skipped over to
// the nearest synchronized node inside the range.
func (l *BatchList) RenderRange(acc Accumulator, vp Viewport, first, last *Node) {
	start, end := l.resolveRange(first, last)
	if start == nil {
		return
	}
	ss, es := l.slotOf(start), l.slotOf(end)

	acc.Begin(vp)
	if ss == es {
		l.renderSlot(acc, vp, ss, start, end)
	} else {
		l.renderSlot(acc, vp, ss, start, nil)
		for s := ss.next; s != nil && s != es; s = s.next {
			l.renderSlot(acc, vp, s, nil, nil)
		}
		l.renderSlot(acc, vp, es, nil, end)
	}
	acc.End()
}

// RenderSubtree draws n and its descendants: the range from the first
// synchronized node at or after n through the last one in n's subtree.
func (l *BatchList) RenderSubtree(acc Accumulator, vp Viewport, n *Node) {
	l.RenderRange(acc, vp, n, n.last)
}

// resolveRange narrows [first, last] to its first and last synchronized
// nodes. It returns nil when the range holds none.
func (l *BatchList) resolveRange(first, last *Node) (start, end *Node) {
	if first.group != l || last.group != l {
		panic("rowan: RenderRange on a node not synchronized with this batch list")
	}
	for x := first; x != nil; x = x.nextInOrder {
		if x.synced() {
			start = x
			break
		}
		if x == last {
			return nil, nil
		}
	}
	if start == nil {
		return nil, nil
	}
	end = last
	for end != start && !end.synced() {
		end = end.prevInOrder
		if end == nil {
			return nil, nil
		}
	}
	return start, end
}

// renderSlot draws one slot. For batches, from and to bound the members
// drawn; nil means the batch's head or tail.
func (l *BatchList) renderSlot(acc Accumulator, vp Viewport, s *slot, from, to *Node) {
	switch s.kind {
	case SlotBatch:
		l.renderBatch(acc, s.batch, from, to)
	case SlotOpaque:
		l.renderOpaque(acc, vp, s.node)
	}
}

func (l *BatchList) renderBatch(acc Accumulator, b *RenderBatch, from, to *Node) {
	if from == nil {
		from = b.head
	}
	if to == nil {
		to = b.tail
	}
	l.ctx.stats.Batches++
	acc.SetBlendMode(b.blend)
	for n := from; n != nil; n = n.batchNext {
		l.drawSprite(acc, n)
		if n == to {
			break
		}
	}
}

// drawSprite projects n, culls it and hands the quad to acc.
func (l *BatchList) drawSprite(acc Accumulator, n *Node) {
	if !n.worldVisible {
		return
	}
	q := n.updateQuad()
	if l.cull.Culled(n, q) {
		l.ctx.stats.Culled++
		return
	}
	acc.DrawQuad(n.texture, q)
}

// renderOpaque runs an opaque renderable between two accumulator frames so
// it finds the device idle and leaves nothing pending behind it.
func (l *BatchList) renderOpaque(acc Accumulator, vp Viewport, n *Node) {
	if !n.worldVisible || n.RenderFunc == nil {
		return
	}
	acc.End()
	n.RenderFunc(l.ctx)
	l.ctx.stats.Opaque++
	acc.Begin(vp)
}
