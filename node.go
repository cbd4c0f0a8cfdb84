package rowan

import "golang.org/x/image/math/f64"

// nodeIDCounter is a plain counter. rowan is single-threaded.
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// Node is the fundamental scene graph element. A single flat struct is used for
// all node types to avoid interface dispatch on the hot path.
//
// Besides the child slice, every node sits in an intrusive doubly linked list
// holding the depth-first order of the whole tree. A subtree always occupies
// the contiguous range [n, n.last] of that list, so moving a subtree is a
// constant number of pointer splices plus a walk up the ancestors.
type Node struct {
	// Identity
	ID   uint32
	Name string
	Type NodeType

	// Hierarchy
	Parent   *Node
	children []*Node

	// Transform (local)
	X, Y         float64
	ScaleX       float64
	ScaleY       float64
	Rotation     float64
	SkewX, SkewY float64
	PivotX       float64
	PivotY       float64

	// Computed by UpdateTransforms
	worldTransform f64.Aff3
	worldAlpha     float64
	worldVisible   bool
	transformDirty bool

	// Visibility
	Alpha      float64
	Visible    bool
	renderable bool

	// Sprite fields (NodeTypeSprite)
	texture   *Texture
	blendMode BlendMode
	// Anchor is the normalized origin of the quad: (0,0) top-left, (1,1)
	// bottom-right. Initialized from the texture's anchor.
	Anchor Vec2
	// Width and Height override the display size; zero uses the frame size.
	Width, Height float64
	// CullingEnabled lets the renderer skip this sprite when its quad falls
	// outside the culling rectangle.
	CullingEnabled bool
	quad           Quad

	// Custom fields (NodeTypeCustom)
	RenderFunc func(ctx *RenderContext)

	// Metadata
	UserData any

	// Flattened order
	prevInOrder *Node
	nextInOrder *Node
	last        *Node

	// Batch membership, owned by the BatchList this node is synchronized with.
	group     *BatchList
	batch     *RenderBatch
	batchPrev *Node
	batchNext *Node
	slot      *slot

	disposed bool
}

// nodeDefaults sets the common default field values shared by all constructors.
func nodeDefaults(n *Node) {
	n.ID = nextNodeID()
	n.ScaleX = 1
	n.ScaleY = 1
	n.Alpha = 1
	n.Visible = true
	n.renderable = true
	n.CullingEnabled = true
	n.transformDirty = true
	n.last = n
}

// NewContainer creates a container node with no visual representation.
func NewContainer(name string) *Node {
	n := &Node{Name: name, Type: NodeTypeContainer}
	nodeDefaults(n)
	return n
}

// NewSprite creates a sprite node that renders a texture frame. A nil texture
// is allowed; the sprite is not batched until SetTexture is called.
func NewSprite(name string, tex *Texture) *Node {
	n := &Node{Name: name, Type: NodeTypeSprite, texture: tex}
	nodeDefaults(n)
	if tex != nil {
		n.Anchor = tex.Anchor
	}
	return n
}

// NewCustom creates an opaque renderable. It occupies its own slot in the
// batch list and draws itself with fn, outside any batch.
func NewCustom(name string, fn func(ctx *RenderContext)) *Node {
	n := &Node{Name: name, Type: NodeTypeCustom, RenderFunc: fn}
	nodeDefaults(n)
	return n
}

// --- Batch key ---

// Texture returns the sprite's texture.
func (n *Node) Texture() *Texture {
	return n.texture
}

// SetTexture replaces the sprite's texture. When the BaseTexture changes, a
// synchronized batch list re-evaluates the sprite's batch.
func (n *Node) SetTexture(tex *Texture) {
	old := n.texture
	n.texture = tex
	if n.group == nil {
		return
	}
	if old == nil || tex == nil || old.Base != tex.Base {
		n.group.Update(n)
	}
}

// BlendMode returns the sprite's blend mode.
func (n *Node) BlendMode() BlendMode {
	return n.blendMode
}

// SetBlendMode changes the blend mode, moving the sprite to a matching batch.
func (n *Node) SetBlendMode(mode BlendMode) {
	if n.blendMode == mode {
		return
	}
	n.blendMode = mode
	if n.group != nil {
		n.group.Update(n)
	}
}

// Renderable reports whether the node takes part in batching.
func (n *Node) Renderable() bool {
	return n.renderable
}

// SetRenderable adds the node to, or removes it from, the batch list. Unlike
// Visible, which is checked per frame, this changes batch membership.
func (n *Node) SetRenderable(r bool) {
	if n.renderable == r {
		return
	}
	n.renderable = r
	if n.group != nil {
		n.group.Update(n)
	}
}

// batchable reports whether n belongs in a RenderBatch.
func (n *Node) batchable() bool {
	return n.Type == NodeTypeSprite && n.renderable && n.texture != nil && n.texture.Base != nil
}

// opaque reports whether n occupies an opaque slot.
func (n *Node) opaque() bool {
	return n.Type == NodeTypeCustom && n.renderable
}

// synced reports whether n currently has a place in a batch list.
func (n *Node) synced() bool {
	return n.batch != nil || n.slot != nil
}

// --- Tree manipulation ---

// AddChild appends child to this node's children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil or child is an ancestor of this node (cycle).
func (n *Node) AddChild(child *Node) {
	if child == nil {
		panic("rowan: cannot add nil child")
	}
	if child.Parent == n {
		n.AddChildAt(child, len(n.children)-1)
		return
	}
	n.AddChildAt(child, len(n.children))
}

// AddChildAt inserts child at the given index.
// Same reparenting and cycle-check behavior as AddChild.
func (n *Node) AddChildAt(child *Node, index int) {
	if child == nil {
		panic("rowan: cannot add nil child")
	}
	if globalDebug {
		debugCheckDisposed(n, "AddChildAt (parent)")
		debugCheckDisposed(child, "AddChildAt (child)")
	}
	if isAncestor(child, n) {
		panic("rowan: adding child would create a cycle")
	}
	// index is counted after child leaves its current parent.
	limit := len(n.children)
	if child.Parent == n {
		limit--
	}
	if index < 0 || index > limit {
		panic("rowan: child index out of range")
	}
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}

	prev := n
	if index > 0 {
		prev = n.children[index-1].last
	}
	child.Parent = n
	n.children = append(n.children, nil)
	copy(n.children[index+1:], n.children[index:])
	n.children[index] = child
	n.linkSubtree(child, prev)
	markSubtreeDirty(child)

	if n.group != nil {
		n.group.InsertSubtree(child)
	}
	if globalDebug {
		debugCheckTreeDepth(child)
		debugCheckChildCount(n)
	}
}

// RemoveChild detaches child from this node.
// Panics if child.Parent != n.
func (n *Node) RemoveChild(child *Node) {
	if globalDebug {
		debugCheckDisposed(n, "RemoveChild (parent)")
		debugCheckDisposed(child, "RemoveChild (child)")
	}
	if child.Parent != n {
		panic("rowan: child's parent is not this node")
	}
	if n.group != nil {
		n.group.RemoveSubtree(child)
	}
	n.unlinkSubtree(child)
	n.removeChildByPtr(child)
	child.Parent = nil
	markSubtreeDirty(child)
}

// RemoveChildAt removes and returns the child at the given index.
func (n *Node) RemoveChildAt(index int) *Node {
	if index < 0 || index >= len(n.children) {
		panic("rowan: child index out of range")
	}
	child := n.children[index]
	n.RemoveChild(child)
	return child
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// RemoveChildren detaches all children from this node, last first.
// Children are NOT disposed.
func (n *Node) RemoveChildren() {
	for i := len(n.children) - 1; i >= 0; i-- {
		n.RemoveChild(n.children[i])
	}
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// ChildAt returns the child at the given index.
func (n *Node) ChildAt(index int) *Node {
	return n.children[index]
}

// SetChildIndex moves child to a new index among its siblings.
func (n *Node) SetChildIndex(child *Node, index int) {
	if child.Parent != n {
		panic("rowan: child's parent is not this node")
	}
	if index < 0 || index >= len(n.children) {
		panic("rowan: child index out of range")
	}
	if n.children[index] == child {
		return
	}
	n.RemoveChild(child)
	n.AddChildAt(child, index)
}

// --- Flattened order ---

// PrevInOrder returns the node drawn immediately before n, or nil.
func (n *Node) PrevInOrder() *Node { return n.prevInOrder }

// NextInOrder returns the node drawn immediately after n, or nil.
func (n *Node) NextInOrder() *Node { return n.nextInOrder }

// LastDescendant returns the last node of n's subtree in drawing order, n
// itself when it has no children.
func (n *Node) LastDescendant() *Node { return n.last }

// linkSubtree splices the range [child, child.last] after prev and extends
// the ranges of every ancestor that ended at prev.
func (n *Node) linkSubtree(child, prev *Node) {
	end := child.last
	next := prev.nextInOrder
	prev.nextInOrder = child
	child.prevInOrder = prev
	end.nextInOrder = next
	if next != nil {
		next.prevInOrder = end
	}
	for p := n; p != nil && p.last == prev; p = p.Parent {
		p.last = end
	}
}

// unlinkSubtree cuts the range [child, child.last] out of the order and
// shrinks the ranges of every ancestor that ended at child.last.
func (n *Node) unlinkSubtree(child *Node) {
	end := child.last
	prev := child.prevInOrder
	next := end.nextInOrder
	if prev != nil {
		prev.nextInOrder = next
	}
	if next != nil {
		next.prevInOrder = prev
	}
	for p := n; p != nil && p.last == end; p = p.Parent {
		p.last = prev
	}
	child.prevInOrder = nil
	end.nextInOrder = nil
}

// --- Disposal ---

// Dispose removes this node from its parent, marks it as disposed,
// and recursively disposes all descendants.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	if n.group != nil && n.group.root == n {
		n.group.Detach()
	}
	n.RemoveFromParent()
	n.dispose()
}

func (n *Node) dispose() {
	n.disposed = true
	n.ID = 0
	for _, child := range n.children {
		child.Parent = nil
		child.dispose()
	}
	n.children = nil
	n.Parent = nil
	n.prevInOrder = nil
	n.nextInOrder = nil
	n.last = n
	n.texture = nil
	n.RenderFunc = nil
	n.UserData = nil
}

// IsDisposed returns true if this node has been disposed.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

// --- Helpers ---

// isAncestor reports whether candidate is an ancestor of node.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.Parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}

// markSubtreeDirty sets transformDirty on node and all its descendants.
func markSubtreeDirty(node *Node) {
	node.transformDirty = true
	for _, child := range node.children {
		markSubtreeDirty(child)
	}
}
