package artifact

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scripts", "Elastic_test.zip")
	at := time.Date(2025, time.January, 5, 10, 0, 0, 0, time.UTC)

	require.NoError(t, Create(path, at, 1024))
	require.NoError(t, Verify(path))

	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	names := map[string]*zip.File{}
	for _, f := range r.File {
		names[f.Name] = f
	}
	require.Contains(t, names, ManifestName)
	require.Contains(t, names, PayloadName)
	assert.Equal(t, uint64(1024), names[PayloadName].UncompressedSize64)

	rc, err := names[ManifestName].Open()
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Contains(t, string(body), "created: 2025-01-05T10:00:00Z")
}

func TestCreateReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Elastic_test.zip")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))
	assert.Error(t, Verify(path))

	require.NoError(t, Create(path, time.Now(), 0))
	assert.NoError(t, Verify(path))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestVerifyRejectsForeignZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("readme.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	assert.ErrorIs(t, Verify(path), ErrNoManifest)
}

func TestVerifyMissingFile(t *testing.T) {
	assert.Error(t, Verify(filepath.Join(t.TempDir(), "missing.zip")))
}
