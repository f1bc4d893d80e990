package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listABC = `
kind: list
children:
  - {kind: text, key: a, props: {content: A}}
  - {kind: text, key: b, props: {content: B}}
  - {kind: text, key: c, props: {content: C}}
`

const listAC = `
kind: list
children:
  - {kind: text, key: a, props: {content: A2}}
  - {kind: text, key: c, props: {content: C}}
`

const withMarker = `
kind: page
children:
  - kind: boundary
    key: side
    children: [{kind: text, props: {content: x}}]
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testOptions() Options {
	return Options{Config: config.Default()}
}

func TestRunDiff_Markdown(t *testing.T) {
	var out bytes.Buffer
	err := RunDiff(context.Background(), &out, DiffOptions{
		Options: testOptions(),
		Prev:    writeFile(t, "prev.yaml", listABC),
		Next:    writeFile(t, "next.yaml", listAC),
	})
	require.NoError(t, err)

	md := out.String()
	assert.Contains(t, md, "- **mutations**: 2")
	assert.Contains(t, md, "## boundary 0 (")
	assert.Contains(t, md, "set    children[0].props.content = A2\n")
	assert.Contains(t, md, "remove children[1]\n")
}

func TestRunDiff_JSONAndViews(t *testing.T) {
	prev := writeFile(t, "prev.yaml", listABC)
	next := writeFile(t, "next.yaml", listAC)

	var out bytes.Buffer
	require.NoError(t, RunDiff(context.Background(), &out, DiffOptions{Options: testOptions(), Prev: prev, Next: next, JSON: true}))
	var res diffResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, 2, res.Report.Mutations)
	require.Len(t, res.Calls, 1)
	assert.Equal(t, domain.PageBoundary, res.Calls[0].BoundaryID)

	out.Reset()
	require.NoError(t, RunDiff(context.Background(), &out, DiffOptions{Options: testOptions(), Prev: prev, Next: next, Views: true}))
	assert.Contains(t, out.String(), "--- boundary 0\n")
	assert.Contains(t, out.String(), `-         "content": "B"`)
}

func TestViewDiff(t *testing.T) {
	before := map[domain.BoundaryID]map[string]any{
		0: {"kind": "list"},
		1: {"kind": "text"},
	}
	after := map[domain.BoundaryID]map[string]any{
		0: {"kind": "page"},
		1: {"kind": "text"},
		2: {"kind": "card"},
	}
	out, err := viewDiff(before, after, false)
	require.NoError(t, err)

	assert.Contains(t, out, "--- boundary 0\n  {\n-   \"kind\": \"list\"\n+   \"kind\": \"page\"\n  }\n")
	assert.NotContains(t, out, "--- boundary 1")
	assert.Contains(t, out, "--- boundary 2\n+ {\n")
}

func TestRunPartition(t *testing.T) {
	path := writeFile(t, "tree.yaml", withMarker)

	var out bytes.Buffer
	require.NoError(t, RunPartition(context.Background(), &out, PartitionOptions{Options: testOptions(), Path: path, JSON: true, Views: true}))
	var res partitionResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	require.Len(t, res.Boundaries, 2)
	assert.Equal(t, domain.CausePage, res.Boundaries[0].Cause)
	assert.Equal(t, domain.CauseMarker, res.Boundaries[1].Cause)
	assert.Len(t, res.Views, 2)

	out.Reset()
	require.NoError(t, RunPartition(context.Background(), &out, PartitionOptions{Options: testOptions(), Path: path}))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[2], "marker")
	assert.Contains(t, lines[2], "children[0]")
}

func TestRunPartition_Threshold(t *testing.T) {
	tree := dsl.Chain("view", 5)
	data, err := json.Marshal(tree)
	require.NoError(t, err)
	path := writeFile(t, "chain.json", string(data))

	opts := testOptions()
	opts.Config.Threshold = 2
	var out bytes.Buffer
	require.NoError(t, RunPartition(context.Background(), &out, PartitionOptions{Options: opts, Path: path, JSON: true}))
	var res partitionResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	require.Greater(t, len(res.Boundaries), 1)
	assert.Equal(t, domain.CauseThreshold, res.Boundaries[1].Cause)
}

func TestRunGraph(t *testing.T) {
	prev := writeFile(t, "prev.yaml", withMarker)
	next := writeFile(t, "next.yaml", withMarker+"  - {kind: boundary, key: other}\n")

	var out bytes.Buffer
	require.NoError(t, RunGraph(context.Background(), &out, GraphOptions{Options: testOptions(), Path: prev}))
	assert.Contains(t, out.String(), "graph TD\n")
	assert.Contains(t, out.String(), "b0 -- \"children[0]\" --> b1")
	assert.NotContains(t, out.String(), "classDef")

	out.Reset()
	require.NoError(t, RunGraph(context.Background(), &out, GraphOptions{Options: testOptions(), Path: prev, Next: next}))
	assert.Contains(t, out.String(), "class b2 created;")
	assert.Contains(t, out.String(), "class b0 updated;")
}

func TestRunValidate(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RunValidate(&out, writeFile(t, "ok.yaml", listABC)))
	assert.Contains(t, out.String(), "is valid (4 nodes)")

	dup := writeFile(t, "dup.yaml", "kind: list\nchildren: [{kind: text, key: a}, {kind: text, key: a}]\n")
	err := RunValidate(&out, dup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Duplicate key \"a\"")
}

const stream = `
kind: list
children: [{kind: text, key: a}]
---
kind: list
children: [{kind: text, key: a}, {kind: text, key: b}]
---
kind: list
children: [{kind: text, key: a}, {kind: text, key: b}, {kind: text, key: c}]
`

func TestRunReplay(t *testing.T) {
	path := writeFile(t, "stream.yaml", stream)

	t.Run("sync", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, RunReplay(context.Background(), &out, ReplayOptions{Options: testOptions(), Path: path}))
		assert.Contains(t, out.String(), ">>> 3 documents, 3 passes, 3 host calls")
	})

	t.Run("deferred", func(t *testing.T) {
		opts := testOptions()
		opts.Config.Flush = scheduler.FlushDeferred
		var out bytes.Buffer
		require.NoError(t, RunReplay(context.Background(), &out, ReplayOptions{Options: opts, Path: path, JSON: true}))

		var reports []domain.PassReport
		require.NoError(t, json.Unmarshal(out.Bytes(), &reports))
		require.Len(t, reports, 2)
		assert.Equal(t, 2, reports[1].Renders)
		assert.Equal(t, 2, reports[1].Mutations)
		require.Len(t, reports[1].Calls, 1)
	})
}

func TestNewPageBackend_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	opts := testOptions()
	opts.Config.Redis.Addr = mr.Addr()

	ctx := context.Background()
	pb, err := newPageBackend(ctx, opts, nil)
	require.NoError(t, err)
	defer pb.Close()

	id, _, err := pb.Pages.Create(ctx, dsl.List("list", 2, true).Build())
	require.NoError(t, err)
	assert.True(t, mr.Exists("arbor:page:"+id))

	ids, err := pb.Pages.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)
}

func TestNewPageBackend_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	opts := testOptions()
	opts.Config.Redis.Addr = addr
	_, err := newPageBackend(context.Background(), opts, nil)
	assert.ErrorContains(t, err, "connect to redis")
}

func TestNewPageBackend_EncryptedFileStore(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions()
	opts.Config.Store.Dir = dir
	opts.Config.Store.EncryptionKey = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))

	ctx := context.Background()
	pb, err := newPageBackend(ctx, opts, nil)
	require.NoError(t, err)
	defer pb.Close()

	tree := dsl.New("page").Child(dsl.Text("top secret")).Build()
	id, _, err := pb.Pages.Create(ctx, tree)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, id+".json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "top secret")

	pb.Pages.Evict(id)
	snap, err := pb.Pages.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "top secret", snap.Tree.Children[0].Props["content"])
}
