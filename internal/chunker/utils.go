package chunker

import (
	"math"
	"unicode"
)

// overlapCount is the number of units of an n-unit chunk to repeat, capped
// at n-1 so the cursor always moves forward.
func overlapCount(n int, fraction float64) int {
	if n <= 1 || fraction <= 0 {
		return 0
	}
	ov := int(math.Floor(float64(n) * fraction))
	if ov > n-1 {
		ov = n - 1
	}
	return ov
}

// matchAt reports whether sep occurs in runes at position i.
func matchAt(runes []rune, i int, sep []rune) bool {
	if i < 0 || i+len(sep) > len(runes) {
		return false
	}
	for k, r := range sep {
		if runes[i+k] != r {
			return false
		}
	}
	return true
}

func hasContent(runes []rune) bool {
	for _, r := range runes {
		if !isSpaceRune(r) {
			return true
		}
	}
	return false
}

func isSpaceRune(r rune) bool {
	return unicode.IsSpace(r)
}
