package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/relgraph/pkg/layoutfile"
)

const papersJSON = `{
  "nodes": [
    {"id": "a", "title": "Attention Is All You Need", "tags": ["nlp"]},
    {"id": "b", "title": "BERT"},
    {"id": "c", "title": "GPT"},
    {"id": "a", "title": "duplicate"}
  ],
  "edges": [
    {"source": "a", "target": "b", "type": "extends"},
    {"source": "b", "target": "c", "type": "extends"},
    {"source": "a", "target": "c", "type": "compares"},
    {"source": "a", "target": "zz"}
  ],
  "clusters": [{"id": "c1", "name": "Transformers", "node_ids": ["a", "b"]}]
}`

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// run executes relgraph with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfg := filepath.Join(t.TempDir(), "config.toml")
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config", cfg, "--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeDoc(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "papers.json")
	require.NoError(t, os.WriteFile(path, []byte(papersJSON), 0o644))
	return path
}

func TestRender_SVGAndPNG(t *testing.T) {
	doc := writeDoc(t)
	dir := t.TempDir()

	svgPath := filepath.Join(dir, "out.svg")
	out, err := run(t, "render", doc, "-o", svgPath, "-W", "400", "-H", "300", "-t", "Papers")
	require.NoError(t, err)
	assert.Contains(t, out, "Written: "+svgPath)
	svg, err := os.ReadFile(svgPath)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(svg), "<circle"))
	assert.Contains(t, string(svg), `width="400" height="300"`)

	pngPath := filepath.Join(dir, "out.png")
	_, err = run(t, "render", doc, "-o", pngPath)
	require.NoError(t, err)
	data, err := os.ReadFile(pngPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestRender_DefaultOutputAndBadExtension(t *testing.T) {
	doc := writeDoc(t)
	_, err := run(t, "render", doc)
	require.NoError(t, err)
	assert.FileExists(t, strings.TrimSuffix(doc, ".json")+".png")

	_, err = run(t, "render", doc, "-o", filepath.Join(t.TempDir(), "out.gif"))
	assert.ErrorContains(t, err, "unknown output format")
}

func TestLayout_ThenRenderWithLayout(t *testing.T) {
	doc := writeDoc(t)
	layoutPath := filepath.Join(t.TempDir(), "papers.layout.toml")

	out, err := run(t, "layout", doc, "-o", layoutPath, "-W", "500", "-H", "400", "--ticks", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "(3 nodes)")

	l, err := layoutfile.Read(layoutPath)
	require.NoError(t, err)
	assert.Equal(t, 500.0, l.Width)
	assert.Len(t, l.Nodes, 3)

	svgPath := filepath.Join(t.TempDir(), "out.svg")
	_, err = run(t, "render", doc, "-o", svgPath, "-W", "500", "-H", "400", "--layout", layoutPath)
	require.NoError(t, err)
	svg, err := os.ReadFile(svgPath)
	require.NoError(t, err)
	a := l.Nodes["a"]
	assert.Contains(t, string(svg), fmt.Sprintf(`cx="%.2f" cy="%.2f"`, a.X, a.Y))
}

func TestDot(t *testing.T) {
	out, err := run(t, "dot", writeDoc(t))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph Papers {"))
	assert.Contains(t, out, "3 papers, 3 relationships")
	assert.Contains(t, out, `"a" -- "b"`)
	assert.Contains(t, out, "cluster_0")
}

func TestInfo(t *testing.T) {
	out, err := run(t, "info", writeDoc(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Papers:        3")
	assert.Contains(t, out, "Relationships: 3")
	assert.Contains(t, out, "Clusters:      1")
	assert.Contains(t, out, "Dropped:       2")
	assert.Contains(t, out, "Attention Is All…")
	assert.Contains(t, out, "extends")

	lines := strings.Split(out, "\n")
	var firstRow string
	for i, l := range lines {
		if strings.Contains(l, "ID") && strings.Contains(l, "DEGREE") {
			firstRow = lines[i+2]
			break
		}
	}
	assert.True(t, strings.HasPrefix(strings.TrimSpace(firstRow), "a "), "highest degree first: %q", firstRow)
}

func TestInfo_FromBackend(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/relationship", r.URL.Path)
		io.WriteString(w, `{"meta":{"state":"succeeded"},"graph":`+papersJSON+`}`)
	}))
	defer backend.Close()

	out, err := run(t, "info", backend.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Papers:        3")
}

func TestInfo_BackendWithoutGraph(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"meta":{"state":"running"},"graph":null}`)
	}))
	defer backend.Close()

	_, err := run(t, "info", backend.URL)
	assert.ErrorContains(t, err, "no relationship graph yet")
}

func TestValidate(t *testing.T) {
	doc := writeDoc(t)
	out, err := run(t, "validate", doc)
	require.NoError(t, err)
	assert.Contains(t, out, "nodes    3 of 4 kept")
	assert.Contains(t, out, "1 duplicate id")
	assert.Contains(t, out, "1 unknown endpoint")

	_, err = run(t, "validate", doc, "--strict")
	assert.ErrorContains(t, err, "2 entries dropped")
}

func TestValidate_DuplicateEdges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dup.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "nodes": [{"id": "a"}, {"id": "b"}],
  "edges": [{"source": "a", "target": "b"}, {"source": "b", "target": "a"}]
}`), 0o644))

	out, err := run(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "edges    1 of 2 kept")
	assert.Contains(t, out, "1 duplicate edge")

	_, err = run(t, "validate", path, "--strict")
	assert.ErrorContains(t, err, "1 entries dropped")
}

func TestMissingDocument(t *testing.T) {
	_, err := run(t, "info", filepath.Join(t.TempDir(), "none.json"))
	assert.Error(t, err)
}

func TestDefaultOutput(t *testing.T) {
	assert.Equal(t, "dir/papers.svg", defaultOutput("dir/papers.json", ".svg"))
	assert.Equal(t, "relationship.png", defaultOutput("http://localhost:8000", ".png"))
}
