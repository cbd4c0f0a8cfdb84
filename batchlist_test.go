package rowan

import (
	"math/rand/v2"
	"strings"
	"testing"
)

// describe renders the slot layout of l as e.g. "[a b] <custom> [c]".
func describe(l *BatchList) string {
	var parts []string
	for s := range l.All() {
		switch s.Kind {
		case SlotBatch:
			var names []string
			for n := range s.Batch.Nodes() {
				names = append(names, n.Name)
			}
			parts = append(parts, "["+strings.Join(names, " ")+"]")
		case SlotOpaque:
			parts = append(parts, "<"+s.Node.Name+">")
		}
	}
	return strings.Join(parts, " ")
}

func expectLayout(t *testing.T, l *BatchList, want string) {
	t.Helper()
	if got := describe(l); got != want {
		t.Errorf("layout = %q, want %q", got, want)
	}
	if err := l.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func expectPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
}

func testTexture() *Texture {
	return NewTextureFromBase(NewEmptyBaseTexture(8, 8))
}

// threeSprites builds root -> [a1, a2, a3], all sharing one texture.
func threeSprites() (root *Node, tex *Texture, sprites []*Node) {
	root = NewContainer("root")
	tex = testTexture()
	for _, name := range []string{"a1", "a2", "a3"} {
		s := NewSprite(name, tex)
		root.AddChild(s)
		sprites = append(sprites, s)
	}
	return root, tex, sprites
}

func TestBatchListEndToEnd(t *testing.T) {
	texA, texB := testTexture(), testTexture()
	root := NewContainer("root")
	a := NewSprite("A", texA)
	b := NewSprite("B", texA)
	c := NewSprite("C", texB)
	root.AddChild(a)
	root.AddChild(b)
	root.AddChild(c)

	l := NewBatchList(nil)
	l.AttachRoot(root)
	expectLayout(t, l, "[A B] [C]")

	root.RemoveChild(b)
	expectLayout(t, l, "[A] [C]")

	c.SetTexture(texA)
	expectLayout(t, l, "[A C]")
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}
}

func TestBatchListSplitMergeRoundTrip(t *testing.T) {
	root, tex, sprites := threeSprites()
	l := NewBatchList(nil)
	l.AttachRoot(root)
	expectLayout(t, l, "[a1 a2 a3]")

	x := NewSprite("x", testTexture())
	root.AddChildAt(x, 2)
	expectLayout(t, l, "[a1 a2] [x] [a3]")

	x.RemoveFromParent()
	expectLayout(t, l, "[a1 a2 a3]")

	b := l.head.batch
	if b.Texture() != tex.Base || b.BlendMode() != BlendNormal || b.Len() != 3 {
		t.Errorf("merged batch = (%v, %s, %d), want original key and 3 members", b.Texture(), b.BlendMode(), b.Len())
	}
	if b.Head() != sprites[0] || b.Tail() != sprites[2] {
		t.Errorf("merged batch spans %q..%q, want a1..a3", b.Head().Name, b.Tail().Name)
	}
}

func TestBatchListPoolReuse(t *testing.T) {
	root, _, _ := threeSprites()
	l := NewBatchList(nil)
	l.AttachRoot(root)

	x := NewSprite("x", testTexture())
	root.AddChildAt(x, 1)
	x.RemoveFromParent()
	if l.pool.Len() != 2 {
		t.Fatalf("pool.Len() = %d after split and merge, want 2", l.pool.Len())
	}
	root.AddChildAt(x, 1)
	if l.pool.Len() != 0 {
		t.Errorf("pool.Len() = %d after second split, want 0", l.pool.Len())
	}
	expectLayout(t, l, "[a1] [x] [a2 a3]")
}

func TestBatchListOpaqueSplitsBatch(t *testing.T) {
	root, _, _ := threeSprites()
	l := NewBatchList(nil)
	l.AttachRoot(root)

	custom := NewCustom("custom", func(*RenderContext) {})
	root.AddChildAt(custom, 1)
	expectLayout(t, l, "[a1] <custom> [a2 a3]")

	custom.RemoveFromParent()
	expectLayout(t, l, "[a1 a2 a3]")

	root.AddChild(custom)
	expectLayout(t, l, "[a1 a2 a3] <custom>")
	root.AddChildAt(custom, 0)
	expectLayout(t, l, "<custom> [a1 a2 a3]")
}

func TestBatchListAdjacentOpaques(t *testing.T) {
	root := NewContainer("root")
	root.AddChild(NewCustom("c1", nil))
	root.AddChild(NewCustom("c2", nil))
	l := NewBatchList(nil)
	l.AttachRoot(root)
	expectLayout(t, l, "<c1> <c2>")
}

func TestBatchListBlendModeChange(t *testing.T) {
	root, _, sprites := threeSprites()
	l := NewBatchList(nil)
	l.AttachRoot(root)

	sprites[1].SetBlendMode(BlendScreen)
	expectLayout(t, l, "[a1] [a2] [a3]")
	if got := l.head.next.batch.BlendMode(); got != BlendScreen {
		t.Errorf("middle batch blend = %s, want screen", got)
	}

	sprites[1].SetBlendMode(BlendNormal)
	expectLayout(t, l, "[a1 a2 a3]")
}

func TestBatchListRenderableToggle(t *testing.T) {
	root, _, sprites := threeSprites()
	l := NewBatchList(nil)
	l.AttachRoot(root)

	sprites[1].SetRenderable(false)
	expectLayout(t, l, "[a1 a3]")
	sprites[1].SetRenderable(true)
	expectLayout(t, l, "[a1 a2 a3]")

	sprites[0].SetRenderable(false)
	sprites[1].SetRenderable(false)
	sprites[2].SetRenderable(false)
	expectLayout(t, l, "")
	if l.Len() != 0 {
		t.Errorf("Len() = %d, want 0", l.Len())
	}
}

func TestBatchListNilTexture(t *testing.T) {
	root, tex, sprites := threeSprites()
	l := NewBatchList(nil)
	l.AttachRoot(root)

	sprites[1].SetTexture(nil)
	expectLayout(t, l, "[a1 a3]")
	sprites[1].SetTexture(tex)
	expectLayout(t, l, "[a1 a2 a3]")

	// A new frame of the same base texture keeps the sprite where it is.
	sprites[1].SetTexture(NewTexture(tex.Base, Rect{Width: 2, Height: 2}))
	expectLayout(t, l, "[a1 a2 a3]")
}

func TestBatchListNestedSubtree(t *testing.T) {
	texA, texB := testTexture(), testTexture()
	root := NewContainer("root")
	root.AddChild(NewSprite("a", texA))
	root.AddChild(NewSprite("b", texB))

	l := NewBatchList(nil)
	l.AttachRoot(root)
	expectLayout(t, l, "[a] [b]")

	group := NewContainer("group")
	group.AddChild(NewSprite("ga", texA))
	group.AddChild(NewSprite("gb", texB))
	root.AddChildAt(group, 1)
	expectLayout(t, l, "[a ga] [gb b]")

	group.RemoveFromParent()
	expectLayout(t, l, "[a] [b]")
	for x := group; x != nil; x = x.nextInOrder {
		if x.group != nil || x.synced() {
			t.Errorf("%q still synchronized after removal", x.Name)
		}
	}
}

func TestBatchListMoveBetweenParents(t *testing.T) {
	texA, texB := testTexture(), testTexture()
	root := NewContainer("root")
	left := NewContainer("left")
	right := NewContainer("right")
	root.AddChild(left)
	root.AddChild(right)
	s1 := NewSprite("s1", texA)
	s2 := NewSprite("s2", texB)
	s3 := NewSprite("s3", texA)
	left.AddChild(s1)
	left.AddChild(s2)
	right.AddChild(s3)

	l := NewBatchList(nil)
	l.AttachRoot(root)
	expectLayout(t, l, "[s1] [s2] [s3]")

	left.AddChild(s3)
	expectLayout(t, l, "[s1] [s2] [s3]")

	right.AddChild(s2)
	expectLayout(t, l, "[s1 s3] [s2]")

	root.SetChildIndex(right, 0)
	expectLayout(t, l, "[s2] [s1 s3]")
}

func TestBatchListAttachReplacesRoot(t *testing.T) {
	first, _, sprites := threeSprites()
	second, _, _ := threeSprites()

	l := NewBatchList(nil)
	l.AttachRoot(first)
	l.AttachRoot(second)

	if l.Root() != second {
		t.Error("Root() is not the second root")
	}
	for _, s := range sprites {
		if s.group != nil || s.batch != nil {
			t.Errorf("%q still references the list after re-attach", s.Name)
		}
	}
	expectLayout(t, l, "[a1 a2 a3]")

	// Mutating the old tree no longer touches the list.
	sprites[1].SetBlendMode(BlendScreen)
	expectLayout(t, l, "[a1 a2 a3]")
}

func TestBatchListDetach(t *testing.T) {
	root, _, _ := threeSprites()
	l := NewBatchList(nil)
	l.AttachRoot(root)
	l.Detach()

	if l.Len() != 0 || l.Root() != nil {
		t.Errorf("after Detach: Len() = %d, Root() = %v", l.Len(), l.Root())
	}
	if l.pool.Len() != 1 {
		t.Errorf("pool.Len() = %d, want 1", l.pool.Len())
	}
	// The tree is usable again with a fresh list.
	other := NewBatchList(nil)
	other.AttachRoot(root)
	expectLayout(t, other, "[a1 a2 a3]")
}

func TestBatchListRemoveRootDetaches(t *testing.T) {
	root, _, _ := threeSprites()
	l := NewBatchList(nil)
	l.AttachRoot(root)
	l.RemoveSubtree(root)
	if l.Root() != nil || l.Len() != 0 {
		t.Errorf("RemoveSubtree(root) left Root() = %v, Len() = %d", l.Root(), l.Len())
	}
}

func TestBatchListDisposeRoot(t *testing.T) {
	root, _, _ := threeSprites()
	l := NewBatchList(nil)
	l.AttachRoot(root)
	root.Dispose()
	if l.Root() != nil || l.Len() != 0 {
		t.Errorf("Dispose(root) left Root() = %v, Len() = %d", l.Root(), l.Len())
	}
}

func TestBatchListContractPanics(t *testing.T) {
	root, _, _ := threeSprites()
	l := NewBatchList(nil)
	l.AttachRoot(root)
	outsider := NewSprite("outsider", testTexture())

	expectPanic(t, "AttachRoot(nil)", func() { l.AttachRoot(nil) })
	expectPanic(t, "InsertSubtree outside root", func() { l.InsertSubtree(outsider) })
	expectPanic(t, "RemoveSubtree unsynchronized", func() { l.RemoveSubtree(outsider) })
	expectPanic(t, "Update unsynchronized", func() { l.Update(outsider) })
	expectPanic(t, "AttachRoot owned by another list", func() {
		NewBatchList(nil).AttachRoot(root)
	})

	// The failed calls left the list intact.
	expectLayout(t, l, "[a1 a2 a3]")
}

func TestBatchListTracksTextures(t *testing.T) {
	ctx, _ := newTestContext(t)
	root, tex, _ := threeSprites()
	l := NewBatchList(ctx)
	l.AttachRoot(root)

	if tex.Base.manager != ctx.Textures {
		t.Error("texture of an attached sprite was not tracked")
	}
	if ctx.Textures.Pending() != 0 {
		// Empty base textures have no pixels to upload yet.
		t.Errorf("Pending() = %d, want 0", ctx.Textures.Pending())
	}
}

// TestBatchListRandomMutations applies random tree mutations and checks the
// partition and adjacency invariants after every step.
func TestBatchListRandomMutations(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	texs := []*Texture{testTexture(), testTexture(), testTexture()}

	root := NewContainer("root")
	l := NewBatchList(nil)
	l.AttachRoot(root)

	nodes := func() []*Node {
		var out []*Node
		for x := root; x != root.last.nextInOrder; x = x.nextInOrder {
			out = append(out, x)
		}
		return out
	}
	containers := func() []*Node {
		var out []*Node
		for _, n := range nodes() {
			if n.Type == NodeTypeContainer {
				out = append(out, n)
			}
		}
		return out
	}

	for step := 0; step < 2000; step++ {
		all := nodes()
		switch op := rng.IntN(8); {
		case op <= 2 || len(all) < 2:
			parent := containers()[rng.IntN(len(containers()))]
			var n *Node
			switch rng.IntN(6) {
			case 0:
				n = NewContainer("c")
			case 1:
				n = NewCustom("o", nil)
			default:
				n = NewSprite("s", texs[rng.IntN(len(texs))])
			}
			parent.AddChildAt(n, rng.IntN(parent.NumChildren()+1))
		case op == 3:
			all[1+rng.IntN(len(all)-1)].RemoveFromParent()
		case op == 4:
			n := all[1+rng.IntN(len(all)-1)]
			cs := containers()
			target := cs[rng.IntN(len(cs))]
			if isAncestor(n, target) {
				continue
			}
			idx := target.NumChildren()
			if n.Parent == target {
				idx--
			}
			target.AddChildAt(n, rng.IntN(idx+1))
		case op == 5:
			n := all[rng.IntN(len(all))]
			if n.Type == NodeTypeSprite {
				if rng.IntN(5) == 0 {
					n.SetTexture(nil)
				} else {
					n.SetTexture(texs[rng.IntN(len(texs))])
				}
			}
		case op == 6:
			n := all[rng.IntN(len(all))]
			n.SetBlendMode(BlendMode(rng.IntN(2)))
		default:
			n := all[rng.IntN(len(all))]
			n.SetRenderable(!n.Renderable())
		}

		if err := l.Validate(); err != nil {
			t.Fatalf("step %d: %v\nlayout: %s", step, err, describe(l))
		}
	}
}
