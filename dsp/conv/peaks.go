package conv

// FindPeak returns the index and value of the largest sample, or -1 for
// an empty slice. Ties resolve to the first index.
func FindPeak(x []float64) (index int, value float64) {
	if len(x) == 0 {
		return -1, 0
	}

	index, value = 0, x[0]
	for i, v := range x {
		if v > value {
			index, value = i, v
		}
	}
	return index, value
}

// LocalMaxima returns the indices of samples above threshold that are
// larger than their left neighbor and not smaller than their right one.
// A plateau reports its first index.
func LocalMaxima(x []float64, threshold float64) []int {
	var out []int
	for i, v := range x {
		if v <= threshold {
			continue
		}
		if i > 0 && x[i-1] >= v {
			continue
		}
		if i < len(x)-1 && x[i+1] > v {
			continue
		}
		out = append(out, i)
	}
	return out
}
