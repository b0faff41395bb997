package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// KeyFields holds the recognized request fields that participate in cache key
// derivation. An empty Emotion means the request carried no emotion; both
// emotion fields are then omitted from the key material entirely.
type KeyFields struct {
	Text            string
	Voice           string
	Speed           float64
	Format          string
	Language        string
	Emotion         string
	EmotionStrength float64
}

// GenerateKey derives a stable, collision-resistant key for a synthesis
// request. String fields are trimmed, voice/format/language are lowercased,
// and numeric fields are rounded to two decimal places so float noise does
// not fragment the cache. Identical requests after normalization always
// produce identical keys.
func GenerateKey(f KeyFields) string {
	fields := map[string]string{
		"format":   strings.ToLower(strings.TrimSpace(f.Format)),
		"language": strings.ToLower(strings.TrimSpace(f.Language)),
		"speed":    fmt.Sprintf("%.2f", f.Speed),
		"text":     strings.TrimSpace(f.Text),
		"voice":    strings.ToLower(strings.TrimSpace(f.Voice)),
	}

	if emotion := strings.TrimSpace(f.Emotion); emotion != "" {
		fields["emotion"] = emotion
		fields["emotion_strength"] = fmt.Sprintf("%.2f", f.EmotionStrength)
	}

	return digestFields(fields)
}

// TextKey derives a cache key for processed text from the original text and
// the normalization options that produced it. Options are folded in with
// sorted keys so map iteration order never leaks into the digest.
func TextKey(text string, options map[string]string) string {
	fields := map[string]string{"text": text}
	for k, v := range options {
		fields["opt:"+k] = v
	}
	return digestFields(fields)
}

// digestFields serializes a field map deterministically (fields sorted by
// name) and hashes it with SHA-256, returned as lowercase hex. Names and
// values are length-prefixed so the serialization is injective: a value
// containing separator characters cannot impersonate another field boundary,
// and distinct field maps always digest differently.
func digestFields(fields map[string]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		value := fields[name]
		fmt.Fprintf(&b, "%d:%s=%d:%s|", len(name), name, len(value), value)
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
