package patchpath

import (
	"testing"

	"github.com/aretw0/arbor/pkg/boundary"
	"github.com/aretw0/arbor/pkg/diff"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mounted(t *testing.T, tree *domain.Node, opts ...boundary.Option) *Encoder {
	t.Helper()
	enc := New(boundary.New(opts...), nil)
	_, _, err := enc.Encode(domain.Mutation{Kind: domain.ChildInserted, Path: domain.Root, Node: tree})
	require.NoError(t, err)
	return enc
}

func encodeAll(t *testing.T, enc *Encoder, prev, next *domain.Node) []domain.Patch {
	t.Helper()
	muts, err := diff.New().Diff(prev, next)
	require.NoError(t, err)
	var out []domain.Patch
	for _, m := range muts {
		ps, _, err := enc.Encode(m)
		require.NoError(t, err, m.String())
		out = append(out, ps...)
	}
	require.NoError(t, enc.Partitioner().Rebind(next))
	return out
}

// assertContained checks that every step of the patch path stays inside the
// boundary: no intermediate node may open another boundary.
func assertContained(t *testing.T, part *boundary.Partitioner, p domain.Patch) {
	t.Helper()
	steps, _, err := Split(p.Path)
	require.NoError(t, err)
	cur := part.RootOf(p.BoundaryID)
	require.NotNil(t, cur, "boundary %d has no root", p.BoundaryID)
	for i, s := range steps {
		if i == len(steps)-1 && p.Op != domain.OpSet && p.Op != domain.OpDelete {
			// The final step of a structural patch names a slot of the
			// boundary's own child list.
			return
		}
		require.Less(t, s.Index, len(cur.Children()))
		cur = cur.Children()[s.Index]
		require.False(t, cur.IsBoundaryRoot(), "patch %s leaves boundary %d", p.Path, p.BoundaryID)
	}
}

func TestEncoder_MountEmitsOnePatchPerBoundary(t *testing.T) {
	enc := New(boundary.New(), nil)
	tree := dsl.New("page").Child(
		dsl.Text("title"),
		dsl.Boundary().Key("m").Child(dsl.Text("inside")),
	).Build()

	patches, change, err := enc.Encode(domain.Mutation{Kind: domain.ChildInserted, Path: domain.Root, Node: tree})
	require.NoError(t, err)
	require.Len(t, change.Created, 2)
	require.Len(t, patches, 2)

	page := patches[0]
	assert.Equal(t, domain.PageBoundary, page.BoundaryID)
	assert.Equal(t, domain.OpMount, page.Op)
	assert.Equal(t, "", page.Path)

	view := page.Value.(map[string]any)
	children := view["children"].([]any)
	require.Len(t, children, 2)
	stub := children[1].(map[string]any)
	assert.Equal(t, map[string]any{"kind": "boundary", "key": "m", "boundary": uint64(change.Created[1].ID)}, stub)

	inner := patches[1]
	assert.Equal(t, change.Created[1].ID, inner.BoundaryID)
	assert.Equal(t, domain.OpMount, inner.Op)
	innerView := inner.Value.(map[string]any)
	assert.Len(t, innerView["children"], 1)
}

func TestEncoder_PropPathIsRelativeToBoundary(t *testing.T) {
	prev := dsl.Chain("view", 20)
	enc := mounted(t, prev)

	// Level 18 sits two steps below the implicit boundary rooted at level 16.
	target := domain.Root
	for i := 0; i < 18; i++ {
		target = target.Child(0)
	}
	node, err := prev.At(target)
	require.NoError(t, err)
	next, err := prev.Replace(target, node.WithProp("level", "changed"))
	require.NoError(t, err)

	patches := encodeAll(t, enc, prev, next)
	require.Len(t, patches, 1)
	assert.Equal(t, domain.OpSet, patches[0].Op)
	assert.Equal(t, "children[0].children[0].props.level", patches[0].Path)
	assert.NotEqual(t, domain.PageBoundary, patches[0].BoundaryID)
	assertContained(t, enc.Partitioner(), patches[0])
}

func TestEncoder_PropOnBoundaryRootUsesDepthZero(t *testing.T) {
	prev := dsl.New("page").Prop("title", "a").Child(
		dsl.Boundary().Prop("color", "red"),
	).Build()
	schemaFree := mounted(t, prev)

	next := dsl.New("page").Prop("title", "b").Child(
		dsl.Boundary().Prop("color", "blue"),
	).Build()
	patches := encodeAll(t, schemaFree, prev, next)

	require.Len(t, patches, 2)
	assert.Equal(t, domain.PageBoundary, patches[0].BoundaryID)
	assert.Equal(t, "props.title", patches[0].Path)
	assert.NotEqual(t, domain.PageBoundary, patches[1].BoundaryID)
	assert.Equal(t, "props.color", patches[1].Path)
	assert.Equal(t, "blue", patches[1].Value)
}

func TestEncoder_StructuralPatchesTargetParentBoundary(t *testing.T) {
	prev := dsl.New("page").Child(
		dsl.Boundary().Key("list").Child(
			dsl.Text("a").Key("a"),
			dsl.Text("b").Key("b"),
			dsl.Text("c").Key("c"),
		),
	).Build()
	enc := mounted(t, prev)
	listID := enc.Partitioner().Boundaries()[1].ID

	next := dsl.New("page").Child(
		dsl.Boundary().Key("list").Child(
			dsl.Text("c").Key("c"),
			dsl.Text("a").Key("a"),
			dsl.Text("d").Key("d"),
		),
	).Build()
	patches := encodeAll(t, enc, prev, next)

	var got []string
	for _, p := range patches {
		assert.Equal(t, listID, p.BoundaryID)
		assertContained(t, enc.Partitioner(), p)
		got = append(got, string(p.Op)+" "+p.Path+" "+p.From)
	}
	assert.Equal(t, []string{
		"remove children[1] ",
		"move children[0] children[1]",
		"insert children[2] ",
	}, got)
}

func TestEncoder_RemovingBoundaryRootReportsDestroyed(t *testing.T) {
	prev := dsl.New("page").Child(
		dsl.Boundary().Key("m").Child(dsl.Text("x")),
	).Build()
	enc := mounted(t, prev)
	id := enc.Partitioner().Boundaries()[1].ID

	patches, change, err := enc.Encode(domain.Mutation{Kind: domain.ChildRemoved, Path: domain.Root.Child(0)})
	require.NoError(t, err)
	require.Len(t, patches, 1)
	assert.Equal(t, domain.PageBoundary, patches[0].BoundaryID)
	assert.Equal(t, "children[0]", patches[0].Path)
	require.Len(t, change.Destroyed, 1)
	assert.Equal(t, id, change.Destroyed[0].ID)
}

func TestEncoder_InsertedDeepSubtreeIsSplit(t *testing.T) {
	prev := dsl.New("page").Build()
	enc := mounted(t, prev, boundary.WithThreshold(4))

	next := &domain.Node{Kind: "page", Children: []*domain.Node{dsl.Chain("view", 10)}}
	patches := encodeAll(t, enc, prev, next)

	// One insert into the page plus a mount per implicit boundary (levels 4 and 8).
	require.Len(t, patches, 3)
	assert.Equal(t, domain.OpInsert, patches[0].Op)
	assert.Equal(t, domain.OpMount, patches[1].Op)
	assert.Equal(t, domain.OpMount, patches[2].Op)

	depth := 0
	for v := patches[0].Value.(map[string]any); ; depth++ {
		children, ok := v["children"].([]any)
		if !ok {
			break
		}
		v = children[0].(map[string]any)
	}
	assert.Equal(t, 3, depth, "payload stops at the nested boundary stub")
}

func TestEncoder_ViewFiltersUnrecognizedProps(t *testing.T) {
	reg := schema.Registry{"text": {"content": schema.String()}, "page": {}}
	enc := New(boundary.New(), reg)
	tree := dsl.New("page").Prop("debug", true).Child(dsl.Text("x").Prop("__source", "a.tpl")).Build()
	_, _, err := enc.Encode(domain.Mutation{Kind: domain.ChildInserted, Path: domain.Root, Node: tree})
	require.NoError(t, err)

	view := enc.View(domain.PageBoundary)
	assert.Empty(t, view["props"])
	child := view["children"].([]any)[0].(map[string]any)
	assert.Equal(t, map[string]any{"content": "x"}, child["props"])
}

func TestEncoder_RootReplacement(t *testing.T) {
	prev := dsl.New("view").Child(dsl.Boundary()).Build()
	enc := mounted(t, prev)

	patches := encodeAll(t, enc, prev, dsl.New("scroll").Build())
	require.Len(t, patches, 2)
	assert.Equal(t, domain.OpRemove, patches[0].Op)
	assert.Equal(t, "", patches[0].Path)
	assert.Equal(t, domain.OpMount, patches[1].Op)
	assert.Equal(t, domain.PageBoundary, patches[1].BoundaryID)
	assert.Len(t, enc.Partitioner().Boundaries(), 1)
}
