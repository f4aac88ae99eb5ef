package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordFallbackFlagged(t *testing.T) {
	fallback := NewKeywordFallback()

	tests := []struct {
		name    string
		content string
		flagged bool
		keyword string
	}{
		{
			name:    "clean content approved",
			content: "This is a lovely post",
			flagged: false,
		},
		{
			name:    "denylisted word flags",
			content: "I hate this so much",
			flagged: true,
			keyword: "hate",
		},
		{
			name:    "matching is case insensitive",
			content: "you are an IDIOT",
			flagged: true,
			keyword: "idiot",
		},
		{
			name:    "substring inside a word matches",
			content: "the flagship product",
			flagged: true,
			keyword: "flag",
		},
		{
			name:    "empty content approved",
			content: "",
			flagged: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flagged, keyword := fallback.Flagged(tt.content)
			assert.Equal(t, tt.flagged, flagged)
			assert.Equal(t, tt.keyword, keyword)
		})
	}
}
