// Package manifest records which index file and records file belong together, with
// checksums, so a loader can tell a matched pair from a half-replaced one.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/grantseek/internal/storage"
)

// Version is the manifest format version written by this package.
const Version = 1

const recordSetPrefix = "records:"

// ErrChecksumMismatch is returned when an artifact on disk is not the one the manifest describes.
var ErrChecksumMismatch = errors.New("artifact checksum mismatch")

// Artifact is one file of the persisted pair. File is relative to the manifest directory.
type Artifact struct {
	File   string `json:"file"`
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
}

// Manifest describes one indexing run's artifacts.
type Manifest struct {
	Version      int       `json:"version"`
	RunID        string    `json:"run_id"`
	IndexedAt    time.Time `json:"indexed_at"`
	Index        Artifact  `json:"index"`
	IndexSidecar *Artifact `json:"index_sidecar,omitempty"`
	Records      Artifact  `json:"records"`
	// RecordSetID fingerprints the ordered record IDs.
	RecordSetID  string `json:"record_set_id"`
	Count        int    `json:"count"`
	Dimensions   int    `json:"dimensions"`
	Model        string `json:"model"`
	IndexType    string `json:"index_type"`
	Normalized   bool   `json:"normalized"`
	UsedFallback bool   `json:"used_fallback"`
}

// FileSHA256 returns the hex sha256 of the file at path.
func FileSHA256(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// RecordSetID returns a stable fingerprint of ids in order.
func RecordSetID(ids []string) string {
	h := sha256.Sum256([]byte(strings.Join(ids, "\n")))
	return recordSetPrefix + hex.EncodeToString(h[:])
}

// Describe hashes the file at path and returns its artifact entry relative to dir.
func Describe(dir, path string) (Artifact, error) {
	sum, size, err := FileSHA256(path)
	if err != nil {
		return Artifact{}, err
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return Artifact{}, fmt.Errorf("artifact %s is not under %s: %w", path, dir, err)
	}
	return Artifact{File: filepath.ToSlash(rel), SHA256: sum, Size: size}, nil
}

// Write stores m at path atomically.
func Write(path string, m *Manifest) error {
	if m.Version == 0 {
		m.Version = Version
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return storage.WriteFileAtomic(path, append(data, '\n'))
}

// Read loads the manifest at path.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if m.Version != Version {
		return nil, fmt.Errorf("unsupported manifest version %d", m.Version)
	}
	return &m, nil
}

// Path resolves an artifact file against the manifest directory.
func (m *Manifest) Path(dir string, a Artifact) string {
	return filepath.Join(dir, filepath.FromSlash(a.File))
}

// Verify recomputes the checksums of every artifact under dir.
func (m *Manifest) Verify(dir string) error {
	artifacts := []Artifact{m.Index, m.Records}
	if m.IndexSidecar != nil {
		artifacts = append(artifacts, *m.IndexSidecar)
	}
	for _, a := range artifacts {
		sum, _, err := FileSHA256(m.Path(dir, a))
		if err != nil {
			return fmt.Errorf("artifact %s: %w", a.File, err)
		}
		if sum != a.SHA256 {
			return fmt.Errorf("%w: %s", ErrChecksumMismatch, a.File)
		}
	}
	return nil
}
