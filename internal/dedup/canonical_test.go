package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "Community Meeting", "community meeting"},
		{"trims", "  picnic  ", "picnic"},
		{"collapses whitespace", "picnic \t in\n the park", "picnic in the park"},
		{"strips punctuation", "meeting, tomorrow!? at: 5; ok.", "meeting tomorrow at 5 ok"},
		{"strips quotes", `"the 'big' one"`, "the big one"},
		{"hebrew passthrough", " יום שני ", "יום שני"},
		{"empty", "", ""},
		{"punctuation only", `.,!?;:'"`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonicalize(tt.input))
		})
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Community Meeting!",
		"  a . b  ",
		"שבת, בשעה 18:00",
		`"quoted" text`,
	}
	for _, in := range inputs {
		once := Canonicalize(in)
		assert.Equal(t, once, Canonicalize(once), "input %q", in)
	}
}

func TestFingerprintEquivalence(t *testing.T) {
	a := Fingerprint("Community Meeting", "Monday", "15:00", "Town Hall")
	b := Fingerprint("  community   MEETING! ", "monday.", `"15:00"`, "town hall")
	assert.Equal(t, a, b)
}

func TestFingerprintFieldSensitivity(t *testing.T) {
	base := Fingerprint("meeting", "monday", "15:00", "hall")
	assert.NotEqual(t, base, Fingerprint("dinner", "monday", "15:00", "hall"))
	assert.NotEqual(t, base, Fingerprint("meeting", "tuesday", "15:00", "hall"))
	assert.NotEqual(t, base, Fingerprint("meeting", "monday", "16:00", "hall"))
	assert.NotEqual(t, base, Fingerprint("meeting", "monday", "15:00", "park"))
}

func TestFingerprintFieldBoundaries(t *testing.T) {
	// Content shifted across field boundaries must not collide.
	assert.NotEqual(t,
		Fingerprint("a b", "c", "", ""),
		Fingerprint("a", "b c", "", ""))
}

func TestFingerprintShape(t *testing.T) {
	hash := Fingerprint("", "", "", "")
	assert.Len(t, hash, 64)
	assert.Regexp(t, "^[0-9a-f]+$", hash)
}
