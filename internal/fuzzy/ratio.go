package fuzzy

import "math"

// Ratio returns the Indel similarity of a and b on a 0..100 scale:
// round(100 * (len(a)+len(b)-indel) / (len(a)+len(b))), rounding half to
// even. Lengths are in runes. Either side empty yields 0.
func Ratio(a, b string) int {
	return ratioRunes([]rune(a), []rune(b))
}

func ratioRunes(a, b []rune) int {
	lensum := len(a) + len(b)
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	// indel distance = lensum - 2*lcs, so the similarity reduces to 2*lcs.
	sim := 2 * lcs(a, b)
	return int(math.RoundToEven(100 * float64(sim) / float64(lensum)))
}

// lcs returns the length of the longest common subsequence.
func lcs(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
