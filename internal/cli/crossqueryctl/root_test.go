package crossqueryctl

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const validQuery = `{
  "name": "west inventory",
  "from": {"connection_id": "files", "table": "inventory"},
  "display": [
    {"table": {"connection_id": "files", "table": "inventory"}, "name": "sku", "kind": "string"}
  ],
  "criteria": [
    {"kind": "string", "criterion": {
      "field": {"table": {"connection_id": "files", "table": "inventory"}, "name": "region", "kind": "string"},
      "match": "exact",
      "value": "west"
    }}
  ]
}`

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	queryPath := writeFile(t, dir, "query.json", validQuery)

	var stdout, stderr bytes.Buffer
	root := NewRootCommand("test")
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs([]string{"validate", "--query", queryPath})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error = %v, stderr = %s", err, stderr.String())
	}
	if !strings.Contains(stdout.String(), "definition is valid") {
		t.Fatalf("stdout = %q", stdout.String())
	}
}

func TestValidateCommandRejectsBrokenDefinition(t *testing.T) {
	dir := t.TempDir()
	queryPath := writeFile(t, dir, "query.json",
		`{"from": {"connection_id": "files", "table": "inventory"}, "display": []}`)

	root := NewRootCommand("test")
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"validate", "--query", queryPath})

	if err := root.Execute(); err == nil {
		t.Fatal("Execute() should fail for a definition with no display fields")
	}
}

func TestPreviewCommandPrintsPerConnectionStatements(t *testing.T) {
	dir := t.TempDir()
	queryPath := writeFile(t, dir, "query.json", validQuery)
	connectionsPath := writeFile(t, dir, "connections.json",
		`{"connections": [{"id": "files", "dialect": "csv", "dir": "`+dir+`"}]}`)

	var stdout bytes.Buffer
	root := NewRootCommand("test")
	root.SetOut(&stdout)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"preview", "--query", queryPath, "--connections", connectionsPath})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "connection: files") {
		t.Fatalf("stdout = %q", stdout.String())
	}
	if !strings.Contains(stdout.String(), "csv file scan of inventory") {
		t.Fatalf("stdout = %q", stdout.String())
	}
}

func TestRunCommandAgainstCSVSource(t *testing.T) {
	dir := t.TempDir()
	queryPath := writeFile(t, dir, "query.json", validQuery)
	connectionsPath := writeFile(t, dir, "connections.json",
		`{"connections": [{"id": "files", "dialect": "csv", "dir": "`+dir+`"}]}`)
	writeFile(t, dir, "inventory.csv", "sku,region\nA-1,west\nB-2,east\n")

	var stdout bytes.Buffer
	root := NewRootCommand("test")
	root.SetOut(&stdout)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"run", "--query", queryPath, "--connections", connectionsPath})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "A-1") {
		t.Fatalf("stdout = %q", stdout.String())
	}
	if strings.Contains(stdout.String(), "B-2") {
		t.Fatalf("filtered row leaked into output: %q", stdout.String())
	}
	if !strings.Contains(stdout.String(), "(1 rows)") {
		t.Fatalf("stdout = %q", stdout.String())
	}
}
