package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Dedupe keeps the first occurrence of each term in input order. Terms are
// compared exactly, so blank and whitespace-only terms survive like any other.
func Dedupe(vocab []string) []string {
	out := make([]string, 0, len(vocab))
	seen := make(map[string]struct{}, len(vocab))
	for _, term := range vocab {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		out = append(out, term)
	}
	return out
}

// CacheKey fingerprints a request by its text and deduplicated vocabulary.
func CacheKey(text string, vocab []string) string {
	if vocab == nil {
		vocab = []string{}
	}
	// encoding a string and a string slice cannot fail
	payload, _ := json.Marshal(struct {
		Text       string   `json:"t"`
		Vocabulary []string `json:"v"`
	}{text, vocab})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
