package runtime

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// normalize round-trips v through JSON so engine-side Go values and host-side
// decoded documents compare equal.
func normalize(t require.TestingT, v any) any {
	b, err := json.Marshal(v)
	require.NoError(t, err)
	var out any
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}

// fullView renders a tree the way a single boundary would see it.
func fullView(n *domain.Node) map[string]any {
	props := map[string]any{}
	for k, v := range n.Props {
		props[k] = v
	}
	children := make([]any, len(n.Children))
	for i, c := range n.Children {
		children[i] = fullView(c)
	}
	return map[string]any{"kind": string(n.Kind), "key": n.Key, "props": props, "children": children}
}

// stitch replaces every boundary stub with that boundary's view.
func stitch(t require.TestingT, views map[string]any, v map[string]any) map[string]any {
	if id, ok := v["boundary"]; ok {
		inner, ok := views[fmt.Sprint(id)].(map[string]any)
		require.True(t, ok, "no view for boundary %v", id)
		return stitch(t, views, inner)
	}
	children := v["children"].([]any)
	out := make([]any, len(children))
	for i, c := range children {
		out[i] = stitch(t, views, c.(map[string]any))
	}
	return map[string]any{"kind": v["kind"], "key": v["key"], "props": v["props"], "children": out}
}

var keyPool = []string{"a", "b", "c", "d"}

func genTree(t *rapid.T, depth int, label string) *domain.Node {
	n := &domain.Node{
		Kind:  rapid.SampledFrom([]domain.Kind{"view", "text", domain.KindBoundary}).Draw(t, label+".kind"),
		Props: domain.Props{"v": rapid.IntRange(0, 2).Draw(t, label+".v")},
	}
	if depth == 0 {
		return n
	}
	count := rapid.IntRange(0, 3).Draw(t, label+".n")
	keyed := rapid.Bool().Draw(t, label+".keyed")
	keys := rapid.Permutation(keyPool).Draw(t, label+".keys")
	for i := 0; i < count; i++ {
		c := genTree(t, depth-1, fmt.Sprintf("%s.%d", label, i))
		if keyed {
			c.Key = keys[i]
		}
		n.Children = append(n.Children, c)
	}
	return n
}
