package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--db", db, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestImportDemo_ThenStatement(t *testing.T) {
	// GIVEN: A fresh database file with the demo house
	db := filepath.Join(t.TempDir(), "settle.db")
	out, err := run(t, db, "import", "--demo")
	require.NoError(t, err, out)
	assert.Contains(t, out, "tenancies  5")

	// WHEN: Printing Berger's 2025 statement as JSON
	out, err = run(t, db, "statement", "--year", "2025", "--tenancy", "t-berger", "--json")

	// THEN: One snapshot with all 2025 lines
	require.NoError(t, err, out)
	var snaps []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &snaps))
	require.Len(t, snaps, 1)
	assert.Equal(t, "t-berger", snaps[0]["tenancy_id"])
	assert.Len(t, snaps[0]["rows"], 7)
}

func TestStatement_AllActiveTenancies(t *testing.T) {
	db := filepath.Join(t.TempDir(), "settle.db")
	_, err := run(t, db, "import", "--demo")
	require.NoError(t, err)

	out, err := run(t, db, "statement", "--year", "2025")

	require.NoError(t, err, out)
	for _, name := range []string{"Berger", "Yilmaz", "Novak", "Schmidt", "Okafor"} {
		assert.Contains(t, out, name)
	}
}

func TestMeters_Report(t *testing.T) {
	db := filepath.Join(t.TempDir(), "settle.db")
	_, err := run(t, db, "import", "--demo")
	require.NoError(t, err)

	out, err := run(t, db, "meters", "--year", "2025")

	require.NoError(t, err, out)
	assert.Contains(t, out, "m-haus-strom")
	assert.Contains(t, out, "m-wallbox")
	assert.Contains(t, out, "2120")
}

func TestImport_RequiresInput(t *testing.T) {
	db := filepath.Join(t.TempDir(), "settle.db")

	_, err := run(t, db, "import")

	assert.Error(t, err)
}

func TestMigrate_Version(t *testing.T) {
	db := filepath.Join(t.TempDir(), "settle.db")

	out, err := run(t, db, "migrate", "version")
	require.NoError(t, err)
	assert.Equal(t, "version 0\n", out)

	out, err = run(t, db, "migrate", "up")
	require.NoError(t, err)
	assert.Equal(t, "version 1\n", out)

	out, err = run(t, db, "migrate", "down")
	require.NoError(t, err)
	assert.Equal(t, "version 0\n", out)
}

func TestImport_DryRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "settle.db")
	file := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(file, []byte(`{
		"units": [{"id": "u1", "name": "EG", "area": "50", "base_rent": "500"}],
		"tenancies": [{"id": "t1", "unit_id": "ghost", "tenant_name": "A", "move_in": "2025-01-01"}]
	}`), 0o644))

	_, err := run(t, db, "import", "--dry-run", file)
	assert.Error(t, err)

	out, err := run(t, db, "import", "--dry-run", "--demo")
	require.NoError(t, err)
	assert.Contains(t, out, "units      4")

	// Neither run touched the database file
	out, err = run(t, db, "migrate", "version")
	require.NoError(t, err)
	assert.Equal(t, "version 0\n", out)
}
