package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/crm-dashboard/internal/models"
)

func run(t *testing.T, cmd interface {
	SetArgs([]string)
	SetOut(io.Writer)
	SetErr(io.Writer)
	Execute() error
}, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return out.String(), err
}

func TestDirectoryDefault(t *testing.T) {
	out, err := run(t, NewDirectoryCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "Nerik Lino (Closer)")
	assert.Contains(t, out, " 1. BASE (Entrada Inicial)")
	assert.Contains(t, out, "Revenue:   150000.00")
}

func TestDirectoryFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dir.yaml")
	require.NoError(t, os.WriteFile(path, []byte("users:\n  u-1: {name: Ana Lima, role: SDR}\n"), 0o600))

	out, err := run(t, NewDirectoryCmd(), "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Ana Lima (SDR) u-1")
	assert.NotContains(t, out, "Nerik")
}

func TestSnapshotCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id": 1, "title": "Silva", "stepName": "BASE", "createdAt": "2024-03-02T10:00:00Z"}]`)
	}))
	defer srv.Close()
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("DIRECTORY_FILE", "")
	t.Setenv("MISSING_DATE_POLICY", "")

	out, err := run(t, NewSnapshotCmd(), "--url", srv.URL, "--preset", "all")
	require.NoError(t, err)
	var snap models.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, 1, snap.Records)
	assert.Equal(t, models.PresetAll, snap.Filter.Preset)

	out, err = run(t, NewSnapshotCmd(), "--url", srv.URL, "--start", "2024-03-01", "--end", "2024-03-31", "--summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Window:     2024-03-01 .. 2024-03-31")
	assert.Contains(t, out, "Records:    1")

	_, err = run(t, NewSnapshotCmd(), "--url", srv.URL, "--start", "2024-03-01")
	assert.Error(t, err)
}
