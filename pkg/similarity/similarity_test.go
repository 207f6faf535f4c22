package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"lowercases", "ACME Corp", "acme corp"},
		{"trims", "  acme  ", "acme"},
		{"collapses whitespace", "acme \t  corp\n inc", "acme corp inc"},
		{"only whitespace", "   \t ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{"both empty", "", "", 0},
		{"identical", "acme", "acme", 0},
		{"empty vs non-empty", "", "acme", 4},
		{"non-empty vs empty", "acme", "", 4},
		{"single substitution", "acme", "acne", 1},
		{"insertion", "acme", "acmes", 1},
		{"deletion", "acmes", "acme", 1},
		{"kitten sitting", "kitten", "sitting", 3},
		{"symmetric", "sitting", "kitten", 3},
		{"disjoint", "abc", "xyz", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LevenshteinDistance(tt.a, tt.b))
		})
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{"both empty scores zero", "", "", 0},
		{"identical", "john smith", "john smith", 1.0},
		{"empty vs non-empty", "", "john", 0},
		{"one edit in ten", "john smith", "john smyth", 0.9},
		{"completely different", "abc", "xyz", 0},
		{"kitten sitting", "kitten", "sitting", 4.0 / 7.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.a, tt.b), 0.0001)
		})
	}
}

func TestScoreSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"acme corp", "acme inc"},
		{"john smith", "jon smith"},
		{"", "x"},
	}
	for _, p := range pairs {
		assert.Equal(t, Score(p[0], p[1]), Score(p[1], p[0]))
	}
}

func TestPhoneticKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"vowels only", "aeiou", ""},
		{"non-letters only", "123 !?", ""},
		{"short name pads", "jon", "jn00"},
		{"truncates to four", "christopher", "chrs"},
		{"case insensitive", "SMITH", "smth"},
		{"same key for variants", "Smith", "smth"},
		{"smyth matches smith", "Smyth", "smth"},
		{"skips digits", "j0hn", "jhn0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PhoneticKey(tt.in))
		})
	}
}

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace", "   ", ""},
		{"bare domain", "acme.com", "acme.com"},
		{"full url", "https://acme.com/about", "acme.com"},
		{"http url", "http://acme.com", "acme.com"},
		{"strips www", "https://www.acme.com", "acme.com"},
		{"bare www", "www.acme.com", "acme.com"},
		{"uppercase host", "HTTPS://ACME.COM", "acme.com"},
		{"email", "j.smith@acme.com", "acme.com"},
		{"email with www", "j@www.acme.com", "acme.com"},
		{"port dropped", "https://acme.com:8443", "acme.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDomain(tt.in))
		})
	}
}
