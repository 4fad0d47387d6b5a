package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/ranroutes/pkg/catalog"
	"github.com/dd0wney/ranroutes/pkg/logging"
	"github.com/dd0wney/ranroutes/pkg/topology"
)

const testNodes = `{"nodes": [
	{"Number": 0, "Hardwares": [], "StaticPercentage": 0, "BaseStations": []},
	{"Number": 1, "Hardwares": [1], "StaticPercentage": 0, "BaseStations": []},
	{"Number": 2, "Hardwares": [1], "StaticPercentage": 0, "BaseStations": [0]}
]}`

const testLinks = `{"links": [
	{"Node1": 0, "Node2": 1, "PortCapacity": 10, "NumLinks": 1, "Delay": 1},
	{"Node1": 1, "Node2": 2, "PortCapacity": 10, "NumLinks": 1, "Delay": 2}
]}`

// writeFixture lays out a topology and a config in a temp dir and returns
// the config path
func writeFixture(t *testing.T, extra string) (dir, configPath string) {
	t.Helper()
	dir = t.TempDir()
	nodes := filepath.Join(dir, "nodes.json")
	links := filepath.Join(dir, "links.json")
	require.NoError(t, os.WriteFile(nodes, []byte(testNodes), 0o600))
	require.NoError(t, os.WriteFile(links, []byte(testLinks), 0o600))

	cfg := fmt.Sprintf("topology:\n  nodes_file: %s\n  links_file: %s\nlog:\n  level: error\n%s", nodes, links, extra)
	configPath = filepath.Join(dir, "routegen.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o600))
	return dir, configPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestGenerate(t *testing.T) {
	dir, cfg := writeFixture(t, "")
	out := filepath.Join(dir, "routes.json")
	metricsFile := filepath.Join(dir, "routegen.prom")

	stdout, err := run(t, "generate", "--config", cfg, "--out", out, "--workers", "2", "--metrics-file", metricsFile)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Routes:       4")
	assert.Contains(t, stdout, "Destinations: 1")
	assert.Contains(t, stdout, "3-stage:    1")

	cat, err := catalog.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, 4, cat.Len())

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "routegen_routes_total")
}

func TestGenerate_CompressedToFileStore(t *testing.T) {
	storeDir := filepath.Join(t.TempDir(), "store")
	dir, cfg := writeFixture(t, fmt.Sprintf(
		"output:\n  compress: true\nstorage:\n  backend: file\n  key: net-a\n  dir: %s\n", storeDir))
	out := filepath.Join(dir, "routes.json")

	_, err := run(t, "generate", "--config", cfg, "--out", out)
	require.NoError(t, err)

	_, err = os.Stat(out + catalog.CompressedSuffix)
	require.NoError(t, err)

	stdout, err := run(t, "inspect", "--config", cfg, "--key", "net-a")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Routes:       4")
}

func TestGenerate_Errors(t *testing.T) {
	_, err := run(t, "generate", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	dir := t.TempDir()
	cfg := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("log:\n  level: error\n"), 0o600))
	_, err = run(t, "generate", "--config", cfg)
	assert.ErrorContains(t, err, "nodes_file")

	_, err = run(t, "generate", "extra-arg")
	assert.Error(t, err)
}

func TestInspect(t *testing.T) {
	dir, cfg := writeFixture(t, "")
	out := filepath.Join(dir, "routes.json")
	_, err := run(t, "generate", "--config", cfg, "--out", out)
	require.NoError(t, err)

	stdout, err := run(t, "inspect", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Routes:       4")

	stdout, err = run(t, "inspect", out, "--id", "1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "1: node0 -- node2_bs1"), stdout)

	stdout, err = run(t, "inspect", out, "--target", "node2_bs1")
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(stdout, "Sequence:"))

	_, err = run(t, "inspect", out, "--id", "99")
	assert.ErrorContains(t, err, "99")
	_, err = run(t, "inspect", out, "--target", "node9_bs1")
	assert.Error(t, err)
	_, err = run(t, "inspect")
	assert.Error(t, err)
	_, err = run(t, "inspect", out, "--key", "k", "--config", cfg)
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	dir, cfg := writeFixture(t, "")
	out := filepath.Join(dir, "routes.json")
	_, err := run(t, "generate", "--config", cfg, "--out", out)
	require.NoError(t, err)

	stdout, err := run(t, "verify", out, "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, stdout, "OK: 4 routes")

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte("[]"), 0o600))
	stdout, err = run(t, "verify", empty, "--config", cfg)
	assert.True(t, errors.Is(err, errVerifyFailed))
	assert.Contains(t, stdout, "Stored catalog has 0 routes, rebuild has 4")
}

func TestMisplacedAnchors(t *testing.T) {
	topo := topology.New(topology.WithLogger(logging.NewNopLogger()))
	_, err := topo.AddNode(1, []int{1}, 0, nil)
	require.NoError(t, err)
	_, err = topo.AddNode(2, []int{1}, 0, []int{0})
	require.NoError(t, err)

	in := `[
		{"identifier":1,"source":"node0","target":"node2_bs1","sequence":["node0","node1_hw1","node2_bs1"],
		 "fronthaul":[["node1","node2"],["node2","node2_bs1"]],"midhaul":[["node0","node1"],["node1","node1_hw1"]],"backhaul":[]},
		{"identifier":2,"source":"node0","target":"node2_bs1","sequence":["node0","node1_hw9","node2_bs1"],
		 "fronthaul":[["node1","node2"],["node2","node2_bs1"]],"midhaul":[["node0","node1"],["node1","node1_hw9"]],"backhaul":[]}
	]`
	cat, err := catalog.Import(strings.NewReader(in))
	require.NoError(t, err)

	var out bytes.Buffer
	assert.Equal(t, 1, misplacedAnchors(&out, cat, topo))
	assert.Contains(t, out.String(), "route 2: unit node1_hw9 is not hosted at node1")
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "", outputPath("", true))
	assert.Equal(t, "a.json", outputPath("a.json", false))
	assert.Equal(t, "a.json.sz", outputPath("a.json", true))
	assert.Equal(t, "a.json.sz", outputPath("a.json.sz", true))
}
