// Package artifact creates and checks the zip file the monitor transfers.
package artifact

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
)

// Entry names inside the artifact.
const (
	ManifestName = "sftpmon.txt"
	PayloadName  = "payload.bin"
)

// DefaultPayloadSize is the size of the random payload.
const DefaultPayloadSize = 64 * 1024

// ErrNoManifest means the file is a zip but not one created by Create.
var ErrNoManifest = errors.New("artifact has no manifest")

// Create writes a fresh artifact to path, replacing any existing file atomically.
func Create(path string, at time.Time, payloadSize int) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp, at, payloadSize); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close artifact: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set artifact permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move artifact into place: %w", err)
	}
	return nil
}

func write(f *os.File, at time.Time, payloadSize int) error {
	zw := zip.NewWriter(f)

	manifest, err := zw.CreateHeader(&zip.FileHeader{
		Name:     ManifestName,
		Method:   zip.Deflate,
		Modified: at,
	})
	if err != nil {
		return fmt.Errorf("failed to add manifest: %w", err)
	}
	if _, err := fmt.Fprintf(manifest, "sftpmon test artifact\nid: %s\ncreated: %s\n",
		uuid.NewString(), at.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	if payloadSize > 0 {
		payload, err := zw.CreateHeader(&zip.FileHeader{
			Name:     PayloadName,
			Method:   zip.Store, // random bytes don't compress
			Modified: at,
		})
		if err != nil {
			return fmt.Errorf("failed to add payload: %w", err)
		}
		buf := make([]byte, payloadSize)
		if _, err := rand.Read(buf); err != nil {
			return fmt.Errorf("failed to generate payload: %w", err)
		}
		if _, err := payload.Write(buf); err != nil {
			return fmt.Errorf("failed to write payload: %w", err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish zip: %w", err)
	}
	return nil
}

// Verify checks that path is a readable artifact.
func Verify(path string) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("failed to open artifact %s: %w", path, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != ManifestName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("failed to read manifest: %w", err)
		}
		return rc.Close()
	}
	return ErrNoManifest
}
