package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func writeArtifacts(t *testing.T, dir string) *Manifest {
	t.Helper()
	indexPath := filepath.Join(dir, "grants.index")
	recordsPath := filepath.Join(dir, "grants.json")
	writeFile(t, indexPath, "GSVI index bytes")
	writeFile(t, recordsPath, `[{"id":"DEMO-001"}]`)

	index, err := Describe(dir, indexPath)
	if err != nil {
		t.Fatal(err)
	}
	records, err := Describe(dir, recordsPath)
	if err != nil {
		t.Fatal(err)
	}
	return &Manifest{
		RunID:       "run-1",
		IndexedAt:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Index:       index,
		Records:     records,
		RecordSetID: RecordSetID([]string{"DEMO-001"}),
		Count:       1,
		Dimensions:  384,
		Model:       "all-MiniLM-L6-v2",
		IndexType:   "flat",
	}
}

func TestWriteRead(t *testing.T) {
	dir := t.TempDir()
	m := writeArtifacts(t, dir)
	path := filepath.Join(dir, "manifest.json")
	if err := Write(path, m); err != nil {
		t.Fatal(err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != Version {
		t.Errorf("version = %d, want %d", got.Version, Version)
	}
	if got.Index.File != "grants.index" {
		t.Errorf("index file = %q, want grants.index", got.Index.File)
	}
	if want := int64(len("GSVI index bytes")); got.Index.Size != want {
		t.Errorf("index size = %d, want %d", got.Index.Size, want)
	}
	if got.RecordSetID != m.RecordSetID {
		t.Errorf("record set id = %q, want %q", got.RecordSetID, m.RecordSetID)
	}
	if !m.IndexedAt.Equal(got.IndexedAt) {
		t.Errorf("indexed at = %v, want %v", got.IndexedAt, m.IndexedAt)
	}
	if got.IndexSidecar != nil {
		t.Errorf("sidecar = %+v, want nil", got.IndexSidecar)
	}
	if err := got.Verify(dir); err != nil {
		t.Errorf("Verify() = %v", err)
	}
}

func TestVerify_DetectsSwappedFile(t *testing.T) {
	dir := t.TempDir()
	m := writeArtifacts(t, dir)
	writeFile(t, filepath.Join(dir, "grants.json"), `[{"id":"OTHER"}]`)

	if err := m.Verify(dir); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Verify() = %v, want ErrChecksumMismatch", err)
	}
}

func TestVerify_MissingFile(t *testing.T) {
	dir := t.TempDir()
	m := writeArtifacts(t, dir)
	if err := os.Remove(filepath.Join(dir, "grants.index")); err != nil {
		t.Fatal(err)
	}

	if err := m.Verify(dir); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Verify() = %v, want os.ErrNotExist", err)
	}
}

func TestVerify_Sidecar(t *testing.T) {
	dir := t.TempDir()
	m := writeArtifacts(t, dir)
	sidecarPath := filepath.Join(dir, "grants.index.faiss")
	writeFile(t, sidecarPath, "faiss")
	sidecar, err := Describe(dir, sidecarPath)
	if err != nil {
		t.Fatal(err)
	}
	m.IndexSidecar = &sidecar
	if err := m.Verify(dir); err != nil {
		t.Fatalf("Verify() = %v", err)
	}

	writeFile(t, sidecarPath, "other")
	if err := m.Verify(dir); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Verify() = %v, want ErrChecksumMismatch", err)
	}
}

func TestRead_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Read(filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: err = %v, want os.ErrNotExist", err)
	}

	bad := filepath.Join(dir, "bad.json")
	writeFile(t, bad, "{")
	if _, err := Read(bad); err == nil {
		t.Error("malformed file: expected an error")
	}

	future := filepath.Join(dir, "future.json")
	writeFile(t, future, `{"version": 99}`)
	if _, err := Read(future); err == nil {
		t.Error("unknown version: expected an error")
	}
}

func TestRecordSetID(t *testing.T) {
	a := RecordSetID([]string{"DEMO-001", "DEMO-002"})
	if b := RecordSetID([]string{"DEMO-001", "DEMO-002"}); a != b {
		t.Errorf("same ids gave %q and %q", a, b)
	}
	if b := RecordSetID([]string{"DEMO-002", "DEMO-001"}); a == b {
		t.Errorf("order change kept id %q", a)
	}
	if !strings.Contains(a, recordSetPrefix) {
		t.Errorf("id %q lacks prefix %q", a, recordSetPrefix)
	}
}

func TestFileSHA256(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	writeFile(t, path, "abc")
	sum, size, err := FileSHA256(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"; sum != want {
		t.Errorf("sum = %s, want %s", sum, want)
	}
	if size != 3 {
		t.Errorf("size = %d, want 3", size)
	}
}
