// Package dedup decides whether an event has already been announced. An
// event's identity is a content fingerprint over its canonicalized fields,
// remembered in a time-bounded store for a configurable retention window.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// strippedRunes are the punctuation and quote marks that never contribute to
// an event's identity. Groups re-announce the same event with and without
// trailing punctuation all the time.
const strippedRunes = `.,!?;:'"`

// Canonicalize normalizes one identity field: lowercase, strip the
// punctuation set, collapse whitespace runs to a single space, trim. The
// result is stable under re-application and never contains a newline.
func Canonicalize(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(strippedRunes, r) {
			return -1
		}
		return r
	}, s)
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Fingerprint derives the dedup hash from the four identity fields. Fields
// are canonicalized independently and joined with a newline, which no
// canonical field can contain, so "a b"+"c" can never collide with "a"+"b c".
func Fingerprint(title, datePhrase, timePhrase, location string) string {
	canonical := strings.Join([]string{
		Canonicalize(title),
		Canonicalize(datePhrase),
		Canonicalize(timePhrase),
		Canonicalize(location),
	}, "\n")
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
