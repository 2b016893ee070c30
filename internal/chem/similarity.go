package chem

import "math/bits"

// Tanimoto returns |a AND b| / |a OR b| over packed fingerprint words.
// It is 0 when neither fingerprint has a bit set. Words past the end of
// the shorter slice count as zero.
func Tanimoto(a, b []uint32) float64 {
	if len(a) < len(b) {
		a, b = b, a
	}
	var and, or int
	for i, wa := range a {
		var wb uint32
		if i < len(b) {
			wb = b[i]
		}
		and += bits.OnesCount32(wa & wb)
		or += bits.OnesCount32(wa | wb)
	}
	if or == 0 {
		return 0
	}
	return float64(and) / float64(or)
}
