package textutil

import (
	"math/bits"
	"slices"
	"strings"
)

// Ratio returns the normalized indel similarity of a and b.
func Ratio(a, b string) float64 {
	return ratioRunes([]rune(a), []rune(b))
}

// PartialRatio aligns the shorter string against every window of the longer
// one and returns the best Ratio. Either string being empty scores 0 unless
// both are.
func PartialRatio(a, b string) float64 {
	s1, s2 := []rune(a), []rune(b)
	if len(s1) == 0 || len(s2) == 0 {
		if len(s1) == 0 && len(s2) == 0 {
			return 100
		}
		return 0
	}
	if len(s1) > len(s2) {
		s1, s2 = s2, s1
	}
	best := partialWindows(s1, s2)
	if len(s1) == len(s2) && best < 100 {
		best = max(best, partialWindows(s2, s1))
	}
	return best
}

func partialWindows(needle, hay []rune) float64 {
	n, m := len(needle), len(hay)
	p := newPattern(needle)
	best := 0.0
	consider := func(window []rune) bool {
		score := p.ratio(window)
		if score > best {
			best = score
		}
		return best >= 100
	}
	// Windows clipped at the left edge.
	for i := 1; i < n; i++ {
		if !p.contains(hay[i-1]) {
			continue
		}
		if consider(hay[:i]) {
			return best
		}
	}
	for i := 0; i+n <= m; i++ {
		if !p.contains(hay[i+n-1]) {
			continue
		}
		if consider(hay[i : i+n]) {
			return best
		}
	}
	// Windows clipped at the right edge.
	for i := m - n + 1; i < m; i++ {
		if !p.contains(hay[i]) {
			continue
		}
		if consider(hay[i:]) {
			return best
		}
	}
	return best
}

// TokenSetRatio compares the whitespace-separated token sets of a and b.
// Shared tokens are joined once in sorted order and compared against the
// shared tokens extended by each side's remainder. Comparison is case
// sensitive; callers normalize beforehand.
func TokenSetRatio(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	var intersection, diffAB, diffBA []string
	for token := range setA {
		if _, ok := setB[token]; ok {
			intersection = append(intersection, token)
		} else {
			diffAB = append(diffAB, token)
		}
	}
	for token := range setB {
		if _, ok := setA[token]; !ok {
			diffBA = append(diffBA, token)
		}
	}
	if len(intersection) > 0 && (len(diffAB) == 0 || len(diffBA) == 0) {
		return 100
	}
	slices.Sort(intersection)
	slices.Sort(diffAB)
	slices.Sort(diffBA)

	sect := []rune(strings.Join(intersection, " "))
	ab := []rune(strings.Join(diffAB, " "))
	ba := []rune(strings.Join(diffBA, " "))

	sectLen := len(sect)
	sep := 0
	if sectLen > 0 {
		sep = 1
	}
	sectABLen := sectLen + sep + len(ab)
	sectBALen := sectLen + sep + len(ba)

	// sect+ab against sect+ba only differs in the remainders.
	lcs := newPattern(ab).lcs(ba)
	dist := len(ab) + len(ba) - 2*lcs
	best := normalizedSimilarity(dist, sectABLen+sectBALen)
	if sectLen == 0 {
		return best
	}
	best = max(best, normalizedSimilarity(sep+len(ab), sectLen+sectABLen))
	best = max(best, normalizedSimilarity(sep+len(ba), sectLen+sectBALen))
	return best
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		set[field] = struct{}{}
	}
	return set
}

func normalizedSimilarity(distance, total int) float64 {
	if total == 0 {
		return 100
	}
	return 100 * (1 - float64(distance)/float64(total))
}

func ratioRunes(a, b []rune) float64 {
	return newPattern(a).ratio(b)
}

// pattern holds the per-rune match bitmasks of a string for bit-parallel LCS.
type pattern struct {
	length int
	words  int
	masks  map[rune][]uint64
}

func newPattern(s []rune) pattern {
	words := (len(s) + 63) / 64
	masks := make(map[rune][]uint64)
	for i, r := range s {
		m := masks[r]
		if m == nil {
			m = make([]uint64, words)
			masks[r] = m
		}
		m[i/64] |= 1 << (uint(i) % 64)
	}
	return pattern{length: len(s), words: words, masks: masks}
}

func (p pattern) contains(r rune) bool {
	_, ok := p.masks[r]
	return ok
}

func (p pattern) ratio(text []rune) float64 {
	total := p.length + len(text)
	if total == 0 {
		return 100
	}
	return 100 * float64(2*p.lcs(text)) / float64(total)
}

// lcs returns the length of the longest common subsequence between the
// pattern and text.
func (p pattern) lcs(text []rune) int {
	if p.length == 0 || len(text) == 0 {
		return 0
	}
	v := make([]uint64, p.words)
	for i := range v {
		v[i] = ^uint64(0)
	}
	for _, r := range text {
		m, ok := p.masks[r]
		if !ok {
			continue
		}
		var carry uint64
		for w := range v {
			u := v[w] & m[w]
			sum, c := bits.Add64(v[w], u, carry)
			carry = c
			v[w] = sum | (v[w] &^ m[w])
		}
	}
	count := 0
	for w, word := range v {
		zeros := ^word
		if w == p.words-1 {
			if rem := p.length % 64; rem != 0 {
				zeros &= (uint64(1) << uint(rem)) - 1
			}
		}
		count += bits.OnesCount64(zeros)
	}
	return count
}
