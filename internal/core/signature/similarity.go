package signature

import "math"

// SeqRatio is the Ratcliff-Obershelp similarity of two strings: twice
// the number of matching characters over the combined length, computed
// over recursively located longest common substrings. Two empty strings
// compare as identical
func SeqRatio(a, b string) float64 {
	ar, br := []rune(a), []rune(b)
	total := len(ar) + len(br)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchTotal(ar, br)) / float64(total)
}

func matchTotal(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	ai, bi, n := longestMatch(a, b)
	if n == 0 {
		return 0
	}
	return n + matchTotal(a[:ai], b[:bi]) + matchTotal(a[ai+n:], b[bi+n:])
}

// longestMatch finds the longest common substring, preferring the
// earliest occurrence in a on ties
func longestMatch(a, b []rune) (ai, bi, n int) {
	// j2len[j] is the length of the common run ending at a[i], b[j]
	j2len := make(map[int]int, len(b))
	for i := range a {
		next := make(map[int]int, len(b))
		for j := range b {
			if a[i] != b[j] {
				continue
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > n {
				ai, bi, n = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}
	return ai, bi, n
}

// Cosine is the cosine similarity of two embedding vectors. Mismatched
// lengths or zero vectors score 0
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
