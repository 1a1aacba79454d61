// Package idgen provides unique event ID generation backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet defines the character set used for generated IDs. Alphanumeric
// only, so IDs are safe inside the "audit:<id>" and "audit:<id>:ref" key
// forms without escaping.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of characters generated.
var Length = 30

// Generate returns a new unique event ID.
func Generate() (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return id, nil
}

// GenerateWithPrefix returns a new unique ID with the given prefix, for
// callers that namespace their events (e.g. "deploy-").
func GenerateWithPrefix(prefix string) (string, error) {
	id, err := Generate()
	if err != nil {
		return "", err
	}
	return prefix + id, nil
}
