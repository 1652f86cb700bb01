package embedding

import (
	"testing"
)

func TestMeanPool(t *testing.T) {
	// batch 2, seq 3, dim 2; second sequence has its last position padded.
	hidden := []float32{
		1, 2, 3, 4, 5, 6,
		2, 2, 4, 4, 100, 100,
	}
	mask := []int64{1, 1, 1, 1, 1, 0}
	got, err := MeanPool(hidden, mask, 2, 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got[0][0] != 3 || got[0][1] != 4 {
		t.Errorf("first = %v, want [3 4]", got[0])
	}
	if got[1][0] != 3 || got[1][1] != 3 {
		t.Errorf("second = %v, want [3 3] (padding excluded)", got[1])
	}
}

func TestMeanPool_allMasked(t *testing.T) {
	got, err := MeanPool([]float32{1, 2}, []int64{0}, 1, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got[0][0] != 0 || got[0][1] != 0 {
		t.Errorf("expected zero vector, got %v", got[0])
	}
}

func TestMeanPool_shapeMismatch(t *testing.T) {
	if _, err := MeanPool([]float32{1, 2, 3}, []int64{1}, 1, 1, 2); err == nil {
		t.Error("expected error for hidden size mismatch")
	}
	if _, err := MeanPool([]float32{1, 2}, []int64{1, 1}, 1, 1, 2); err == nil {
		t.Error("expected error for mask size mismatch")
	}
}
