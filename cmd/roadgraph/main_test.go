package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const graphML = `<?xml version='1.0' encoding='utf-8'?>
<graphml xmlns="http://graphml.graphdrawing.org/xmlns">
  <key id="d0" for="node" attr.name="y" attr.type="string"/>
  <key id="d1" for="node" attr.name="x" attr.type="string"/>
  <key id="d2" for="edge" attr.name="osmid" attr.type="string"/>
  <graph edgedefault="directed">
    <node id="A"><data key="d0">45.44</data><data key="d1">12.30</data></node>
    <node id="B"><data key="d0">45.45</data><data key="d1">12.31</data></node>
    <node id="C"/>
    <edge source="A" target="B"><data key="d2">7</data></edge>
    <edge source="B" target="C"/>
  </graph>
</graphml>`

// execute runs the root command in a scratch working directory with an empty
// home, so no user or project config leaks in.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "graph.graphml"), []byte(graphML), 0644))

	var stdout, stderr bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestConvertDefaults(t *testing.T) {
	stdout, _, err := execute(t, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, stdout, "graph.graphml -> output.ttl")

	data, err := os.ReadFile("output.ttl")
	require.NoError(t, err)
	assert.Contains(t, string(data), "POINT(12.30 45.44)")
	assert.Contains(t, string(data), "LINESTRING(12.3 45.44, 12.31 45.45)")
}

func TestConvertFlags(t *testing.T) {
	_, _, err := execute(t,
		"--log-level", "error",
		"--output", "roads.nt",
		"--format", "ntriples",
		"--link-upstream")
	require.NoError(t, err)

	data, err := os.ReadFile("roads.nt")
	require.NoError(t, err)
	assert.Contains(t, string(data), "<http://openstreetmap.org/way/7>")
	assert.Contains(t, string(data), "<http://www.pms.ifi.uni-muenchen.de/OTN#Road_Element/7_1>")
	assert.Contains(t, string(data), "<http://www.pms.ifi.uni-muenchen.de/OTN#Road_Element/_1>")
}

func TestConvertFailPolicy(t *testing.T) {
	_, _, err := execute(t, "--log-level", "error", "--missing-data", "fail")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete node")

	_, statErr := os.Stat("output.ttl")
	assert.True(t, os.IsNotExist(statErr))
}

func TestConvertInvalidFlag(t *testing.T) {
	_, _, err := execute(t, "--log-level", "error", "--dangling-refs", "maybe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dangling")
}

func TestConvertFlagOverridesInvalidEnv(t *testing.T) {
	t.Setenv("ROADGRAPH_FORMAT", "bogus")

	_, _, err := execute(t, "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format")

	_, _, err = execute(t, "--log-level", "error", "--format", "turtle")
	require.NoError(t, err)
	_, statErr := os.Stat("output.ttl")
	assert.NoError(t, statErr)
}

func TestConvertMissingInput(t *testing.T) {
	_, _, err := execute(t, "--log-level", "error", "--input", "nowhere.graphml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open graph file")
}

func TestConvertProjectConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("net.graphml", []byte(graphML), 0644))
	require.NoError(t, os.WriteFile("roadgraph.yaml", []byte("input: net.graphml\noutput: net.nt\nformat: ntriples\n"), 0644))

	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--log-level", "error"})
	require.NoError(t, cmd.Execute())

	_, err := os.Stat("net.nt")
	assert.NoError(t, err)
}

func TestCheck(t *testing.T) {
	stdout, _, err := execute(t, "check", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, stdout, "graph.graphml: 3 nodes, 2 roads, 2 road elements")
	assert.Contains(t, stdout, "1 nodes without coordinates")
	assert.Contains(t, stdout, "1 edges without geometry")
	assert.Contains(t, stdout, "1 edges without upstream id")

	_, statErr := os.Stat("output.ttl")
	assert.True(t, os.IsNotExist(statErr), "check must not write output")
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "roadgraph version "))
}
