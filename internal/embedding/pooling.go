package embedding

import "fmt"

// MeanPool averages token vectors per sequence over the positions where mask is non-zero.
// hidden is row-major [batch, seqLen, dim]; mask is [batch, seqLen]. A sequence with no
// unmasked positions pools to the zero vector.
func MeanPool(hidden []float32, mask []int64, batch, seqLen, dim int) ([][]float32, error) {
	if len(hidden) != batch*seqLen*dim {
		return nil, fmt.Errorf("hidden state has %d values, expected %d", len(hidden), batch*seqLen*dim)
	}
	if len(mask) != batch*seqLen {
		return nil, fmt.Errorf("mask has %d values, expected %d", len(mask), batch*seqLen)
	}
	out := make([][]float32, batch)
	for b := 0; b < batch; b++ {
		sum := make([]float64, dim)
		count := 0
		for s := 0; s < seqLen; s++ {
			if mask[b*seqLen+s] == 0 {
				continue
			}
			count++
			row := hidden[(b*seqLen+s)*dim : (b*seqLen+s+1)*dim]
			for d, v := range row {
				sum[d] += float64(v)
			}
		}
		vec := make([]float32, dim)
		if count > 0 {
			for d := range vec {
				vec[d] = float32(sum[d] / float64(count))
			}
		}
		out[b] = vec
	}
	return out, nil
}
