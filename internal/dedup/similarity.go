package dedup

import "strings"

// similarityThreshold is the minimum 4-gram Jaccard overlap for two
// descriptions to count as similar.
const similarityThreshold = 0.3

// normalizeDescription uppercases the text and strips everything that
// is not a letter, digit or CJK ideograph, so punctuation and spacing
// differences between sources never block a comparison.
func normalizeDescription(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		switch {
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 0x4e00 && r <= 0x9fff:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DescriptionsSimilar reports whether two merchant descriptions
// plausibly refer to the same merchant. One containing the other is an
// immediate yes; otherwise their 4-character grams must overlap by at
// least the threshold. This backs manual review tooling; the merge
// itself matches on date and amount only.
func DescriptionsSimilar(a, b string) bool {
	na, nb := normalizeDescription(a), normalizeDescription(b)
	if na == "" || nb == "" {
		return false
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}
	return gramJaccard(na, nb) >= similarityThreshold
}

func gramJaccard(a, b string) float64 {
	ga, gb := grams(a), grams(b)
	if len(ga) == 0 || len(gb) == 0 {
		return 0
	}

	intersection := 0
	for g := range ga {
		if gb[g] {
			intersection++
		}
	}
	union := len(ga) + len(gb) - intersection
	return float64(intersection) / float64(union)
}

// grams returns the set of 4-rune substrings of s.
func grams(s string) map[string]bool {
	runes := []rune(s)
	set := make(map[string]bool)
	for i := 0; i+4 <= len(runes); i++ {
		set[string(runes[i:i+4])] = true
	}
	return set
}
