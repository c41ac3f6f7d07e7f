package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSeedValidateExport(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("LOG_LEVEL", "error")
	dir := t.TempDir()
	db := "--db=file:" + filepath.Join(dir, "ctl.db") + "?_pragma=foreign_keys(1)"

	out, err := run(t, "migrate", db)
	require.NoError(t, err, out)
	assert.Contains(t, out, "migrations completed")

	out, err = run(t, "seed", db)
	require.NoError(t, err, out)
	assert.Contains(t, out, "role templates: 4")
	m := regexp.MustCompile(`imported robo_agravado -> ([0-9a-f-]{36})`).FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	id := m[1]

	out, err = run(t, "seed", db)
	require.NoError(t, err, out)
	assert.Contains(t, out, "skipped robo_agravado")

	out, err = run(t, "validate", id, db)
	require.NoError(t, err, out)
	assert.Contains(t, out, "ok")

	exported := filepath.Join(dir, "robo.json")
	_, err = run(t, "export", id, "--out", exported, db)
	require.NoError(t, err)

	out, err = run(t, "import", exported, db)
	require.NoError(t, err, out)
	assert.Regexp(t, `scenario [0-9a-f-]{36}: \d+ roles, 11 nodes`, out)
}

func TestImportReportsItems(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("LOG_LEVEL", "error")
	dir := t.TempDir()
	db := "--db=file:" + filepath.Join(dir, "ctl.db") + "?_pragma=foreign_keys(1)"
	_, err := run(t, "migrate", db)
	require.NoError(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"dialogo":{"nombre":"x"},"nodos":[{"id":"a","titulo":"A","contenido":"c","rol_nombre":"Juez","tipo":"inicio","es_inicial":true}],"conexiones":[{"desde":"a","hacia":"zz","texto":"t"}]}`), 0o644))

	out, err := run(t, "import", bad, "--auto-roles", db)
	require.Error(t, err)
	assert.Contains(t, out, "Connection 1: unknown target zz")

	_, err = run(t, "validate", "not-a-uuid", db)
	require.Error(t, err)
}
