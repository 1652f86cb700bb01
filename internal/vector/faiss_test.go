//go:build faiss && cgo
// +build faiss,cgo

package vector

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFAISSIndex_BuildSearch(t *testing.T) {
	idx, err := NewFAISSIndex(3)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()

	vecs := [][]float32{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0, 1, 0},
	}
	if err := idx.Build(ctx, []string{"a", "b", "c"}, vecs); err != nil {
		t.Fatal(err)
	}
	results, err := idx.Search(ctx, []float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].ID != "a" || results[0].Distance != 0 {
		t.Errorf("top result: %+v", results[0])
	}
}

func TestFAISSIndex_MatchesFlat(t *testing.T) {
	ctx := context.Background()
	ids := []string{"a", "b", "c", "d"}
	vecs := [][]float32{{1, 2}, {3, 1}, {-1, 0}, {0.5, 0.5}}
	faiss, err := NewFAISSIndex(2)
	if err != nil {
		t.Fatal(err)
	}
	defer faiss.Close()
	flat, _ := NewFlatIndex(2)
	_ = faiss.Build(ctx, ids, vecs)
	_ = flat.Build(ctx, ids, vecs)

	got, _ := faiss.Search(ctx, []float32{0.4, 0.6}, 4)
	want, _ := flat.Search(ctx, []float32{0.4, 0.6}, 4)
	for i := range want {
		if got[i].ID != want[i].ID {
			t.Errorf("rank %d: faiss %s, flat %s", i, got[i].ID, want[i].ID)
		}
	}
}

func TestFAISSIndex_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grants.index")
	ctx := context.Background()
	idx, _ := NewFAISSIndex(2)
	defer idx.Close()
	_ = idx.Build(ctx, []string{"x", "y"}, [][]float32{{1, 0}, {0, 1}})
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, _ := NewFAISSIndex(2)
	defer loaded.Close()
	if err := loaded.Load(path); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded.IDs(), []string{"x", "y"}) {
		t.Errorf("IDs() = %v", loaded.IDs())
	}
	results, _ := loaded.Search(ctx, []float32{0, 1}, 1)
	if results[0].ID != "y" {
		t.Errorf("top = %s, want y", results[0].ID)
	}
}
