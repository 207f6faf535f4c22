// Package similarity provides the string comparison primitives used by the
// duplicate matcher: whitespace normalization, Levenshtein similarity, a
// coarse phonetic key, and domain extraction.
package similarity

import (
	"net/url"
	"strings"
	"unicode"
)

// Normalize lowercases, trims, and collapses internal whitespace.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// LevenshteinDistance returns the edit distance between two strings using
// the two-row dynamic programming formulation.
func LevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	row := make([]int, len(b)+1)
	prevRow := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prevRow[j] = j
	}

	for i := 1; i <= len(a); i++ {
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			row[j] = min(min(row[j-1]+1, prevRow[j]+1), prevRow[j-1]+cost)
		}
		row, prevRow = prevRow, row
	}

	return prevRow[len(b)]
}

// Score returns normalized Levenshtein similarity in [0,1]:
// (maxLen - distance) / maxLen. Two empty strings score 0, not 1, so blank
// fields never count as a match.
func Score(a, b string) float64 {
	maxLen := max(len(a), len(b))
	if maxLen == 0 {
		return 0
	}
	dist := LevenshteinDistance(a, b)
	return float64(maxLen-dist) / float64(maxLen)
}

// PhoneticKey computes a coarse phonetic code: lowercase, strip vowels and
// non-letters, take the first 4 characters, pad with '0'. An input with no
// usable consonants yields an empty key.
func PhoneticKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if !unicode.IsLetter(r) {
			continue
		}
		switch r {
		case 'a', 'e', 'i', 'o', 'u':
			continue
		}
		b.WriteRune(r)
		if b.Len() >= 4 {
			break
		}
	}
	key := b.String()
	if key == "" {
		return ""
	}
	for len(key) < 4 {
		key += "0"
	}
	return key
}

// NormalizeDomain extracts a lowercase domain from a URL or email-like
// string. Email addresses split on '@'; URLs parse with an https default
// scheme and a leading "www." stripped. Returns "" when no host can be
// extracted.
func NormalizeDomain(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if at := strings.LastIndex(s, "@"); at >= 0 {
		return strings.ToLower(strings.TrimPrefix(s[at+1:], "www."))
	}

	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
