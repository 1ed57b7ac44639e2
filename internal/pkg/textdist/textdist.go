// Package textdist computes Levenshtein distances, plain and infix
// (semi-global).
//
// For the infix distance the shorter string must be aligned entirely, while
// characters before and after the aligned window of the longer string are
// free. Lengths are counted in runes.
package textdist

// Infix returns the edit distance between s and the closest substring of t.
// When s is longer than t the arguments are swapped first.
func Infix(s, t string) int {
	a, b := []rune(s), []rune(t)
	if len(a) > len(b) {
		a, b = b, a
	}
	return infix(a, b)
}

func infix(short, long []rune) int {
	if len(short) == 0 {
		return 0
	}

	// prev[j] is the cost of aligning short[:i] so that it ends at long[j-1];
	// row zero is all zeros since any prefix of long may be skipped
	prev := make([]int, len(long)+1)
	cur := make([]int, len(long)+1)

	for i := 1; i <= len(short); i++ {
		cur[0] = i
		for j := 1; j <= len(long); j++ {
			sub := prev[j-1]
			if short[i-1] != long[j-1] {
				sub++
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, sub)
		}
		prev, cur = cur, prev
	}

	best := prev[0]
	for _, d := range prev[1:] {
		best = min(best, d)
	}
	return best
}

// Levenshtein returns the plain edit distance between s and t.
func Levenshtein(s, t string) int {
	a, b := []rune(s), []rune(t)
	if len(a) > len(b) {
		a, b = b, a
	}

	prev := make([]int, len(a)+1)
	cur := make([]int, len(a)+1)
	for i := range prev {
		prev[i] = i
	}
	for j := 1; j <= len(b); j++ {
		cur[0] = j
		for i := 1; i <= len(a); i++ {
			sub := prev[i-1]
			if a[i-1] != b[j-1] {
				sub++
			}
			cur[i] = min(prev[i]+1, cur[i-1]+1, sub)
		}
		prev, cur = cur, prev
	}
	return prev[len(a)]
}

// Normalized returns the infix distance divided by the rune length of the
// shorter string. Identical non-empty strings are 0 and an empty argument is
// always 1, the maximum distance.
func Normalized(s, t string) float64 {
	if s == "" || t == "" {
		return 1
	}
	if s == t {
		return 0
	}
	a, b := []rune(s), []rune(t)
	if len(a) > len(b) {
		a, b = b, a
	}
	d := float64(infix(a, b)) / float64(len(a))
	if d > 1 {
		return 1
	}
	return d
}

// Len returns the rune length of s.
func Len(s string) int {
	return len([]rune(s))
}
