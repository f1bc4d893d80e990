package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "arbor version "+strings.TrimSpace(arbor.Version)+"\n", out)
}

func TestValidateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.yaml")
	require.NoError(t, os.WriteFile(path, []byte("kind: page\nchildren: [{kind: text}]\n"), 0o644))

	out, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid (2 nodes)")
}

func TestPartitionCommand_ThresholdFlag(t *testing.T) {
	data, err := json.Marshal(dsl.Chain("view", 4))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "chain.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	out, err := execute(t, "partition", "--threshold", "2", "--json", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"cause": "threshold"`)
}

func TestConfigErrors(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "arbor.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("threshold: 4\nunknown_key: 1\n"), 0o644))

	_, err := execute(t, "partition", "--config", cfg, "missing.yaml")
	assert.ErrorContains(t, err, "decode config")
}
