// Package suggest offers "did you mean" hints for mistyped flags and values
// using Levenshtein distance.
package suggest

import (
	"sort"
	"strings"
)

// levenshtein calculates the edit distance between two strings
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// Closest returns up to three entries of valid within a few edits of input,
// best first. Matching ignores case and leading dashes.
func Closest(input string, valid []string) []string {
	input = normalize(input)
	if input == "" {
		return nil
	}

	type scored struct {
		value string
		dist  int
	}
	var candidates []scored
	maxDist := max(2, len(input)/2)
	for _, v := range valid {
		n := normalize(v)
		d := levenshtein(input, n)
		if strings.HasPrefix(n, input) && len(input) >= 3 {
			d = min(d, 1)
		}
		if d <= maxDist {
			candidates = append(candidates, scored{v, d})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].dist < candidates[j].dist })

	var out []string
	for i := 0; i < len(candidates) && i < 3; i++ {
		out = append(out, candidates[i].value)
	}
	return out
}

// DidYouMean formats Closest as a sentence, or "" when nothing is close.
func DidYouMean(input string, valid []string) string {
	matches := Closest(input, valid)
	if len(matches) == 0 {
		return ""
	}
	return "did you mean " + strings.Join(matches, " or ") + "?"
}

// flagAliases maps flags people commonly reach for to the ones that exist.
var flagAliases = map[string]string{
	"recipient":  "--for",
	"recipients": "--for",
	"person":     "--for (gifts) or --person (lists)",
	"purchaser":  "--buyer",
	"cost":       "--price",
	"link":       "--url",
	"note":       "--notes or --description",
	"desc":       "--description",
	"tag":        "--tags",
	"state":      "--status",
	"when":       "--date",
	"yearly":     "--recurring",
	"annual":     "--recurring",
	"v":          "use: giftwell version",
	"version":    "use: giftwell version",
}

// FlagHint returns a hint for a commonly misused flag, or "".
func FlagHint(flag string) string {
	return flagAliases[normalize(flag)]
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimLeft(strings.TrimSpace(s), "-"))
}
