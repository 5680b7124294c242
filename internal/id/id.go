// Package id generates the random identifiers used outside the database: upload form tokens and client ids.
package id

import (
	"fmt"
	"regexp"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	tokenAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	tokenLength   = 40
)

// Form tokens end up in file names, so only a conservative character set is accepted.
var tokenPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// Generate creates a prefixed unique ID using NanoID
// Format: prefix-nanoid (e.g., "sse-V1StGXR8_Z5jdHi6B-myT")
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// NewFormToken returns a random token identifying one add-icon form session.
// The staged upload for that session is stored under this token.
func NewFormToken() (string, error) {
	token, err := gonanoid.Generate(tokenAlphabet, tokenLength)
	if err != nil {
		return "", fmt.Errorf("generate form token: %w", err)
	}
	return token, nil
}

// ValidFormToken reports whether token is safe to use as a staged file name.
func ValidFormToken(token string) bool {
	return tokenPattern.MatchString(token)
}
