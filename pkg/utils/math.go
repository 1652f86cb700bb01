package utils

import "github.com/hupe1980/vecgo/distance"

// NormalizeL2 normalizes the slice in place to unit L2 norm.
// If the norm is zero, the slice is unchanged.
func NormalizeL2(x []float32) {
	distance.NormalizeL2InPlace(x)
}
