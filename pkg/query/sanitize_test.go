package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoveLuceneChars(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "KitKat", "KitKat"},
		{"operators", "Kit+Kat (chunky)", "Kit Kat chunky"},
		{"all specials", `+-&|!(){}[]^"~*?:\/`, ""},
		{"whitespace runs", "  Nestlé \t\n  Aero  ", "Nestlé Aero"},
		{"url", "https://www.madewithnestle.ca/kitkat", "https www.madewithnestle.ca kitkat"},
		{"empty", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RemoveLuceneChars(tc.in))
		})
	}
}

func TestRemoveLuceneChars_Properties(t *testing.T) {
	inputs := []string{
		"What's in a KitKat?",
		"  (Smarties) && [Aero] ",
		"a\\b/c:d",
		"",
		"Café ~ crème",
	}

	for _, in := range inputs {
		out := RemoveLuceneChars(in)
		assert.False(t, strings.ContainsAny(out, luceneSpecialChars), "special char left in %q", out)
		assert.NotContains(t, out, "  ")
		assert.Equal(t, strings.TrimSpace(out), out)
		assert.Equal(t, out, RemoveLuceneChars(out), "not idempotent for %q", in)
	}
}

func TestGenerateFullTextQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"KitKat", "KitKat~2"},
		{"kit kat", "kit~2 AND kat~2"},
		{"Nestlé (Canada)!", "Nestlé~2 AND Canada~2"},
		{"???", ""},
		{"", ""},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, GenerateFullTextQuery(tc.in))
		})
	}
}
