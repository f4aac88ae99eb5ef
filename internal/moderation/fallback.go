package moderation

import "strings"

// defaultDenylist is the fixed keyword set used when the external classifier
// is unavailable.
var defaultDenylist = []string{"bad", "flag", "hate", "kill", "stupid", "idiot", "attack"}

// KeywordFallback is the deterministic classifier used when the external
// service fails. It cannot itself fail: a comment is flagged iff its
// lower-cased content contains a denylisted substring.
type KeywordFallback struct {
	denylist []string
}

// NewKeywordFallback returns a fallback using the default denylist.
func NewKeywordFallback() *KeywordFallback {
	return &KeywordFallback{denylist: defaultDenylist}
}

// Flagged reports whether content matches the denylist, along with the first
// matching keyword.
func (f *KeywordFallback) Flagged(content string) (bool, string) {
	lowered := strings.ToLower(content)
	for _, word := range f.denylist {
		if strings.Contains(lowered, word) {
			return true, word
		}
	}
	return false, ""
}
