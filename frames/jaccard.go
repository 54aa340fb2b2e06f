package frames

// Jaccard returns |a ∩ b| / |a ∪ b| for two pitch sets. Two empty sets are
// identical (1); one empty set against a non-empty set shares nothing (0).
func Jaccard(a, b map[int]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	inter := 0
	for p := range a {
		if b[p] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 1.0
	}
	return float64(inter) / float64(union)
}
