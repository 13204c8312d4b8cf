// Package codegen produces the short join codes players type to find a party.
package codegen

import (
	"strings"

	"github.com/mcoot/partygame/internal/dependencies/random"
	"github.com/mcoot/partygame/internal/model"
)

const (
	// Alphabet omits 0, O, 1 and I so codes survive being read aloud.
	Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// Length is the number of symbols in a party code
	Length = 6
)

// Generator draws party codes from a Random source
type Generator struct {
	random random.Random
}

// New creates a Generator
func New(random random.Random) *Generator {
	return &Generator{random: random}
}

// Generate returns a fresh code of Length symbols drawn uniformly from Alphabet.
// Uniqueness is not checked here; the registry claims codes atomically in storage.
func (g *Generator) Generate() model.PartyCode {
	return model.PartyCode(g.random.String(Length, Alphabet))
}

// Normalize canonicalizes user input for lookup. Codes are case-insensitive
// and surrounding whitespace is ignored. The result is not validated against
// the alphabet.
func Normalize(code string) model.PartyCode {
	return model.PartyCode(strings.ToUpper(strings.TrimSpace(code)))
}

// IsWellFormed reports whether code is Length symbols drawn from Alphabet
func IsWellFormed(code model.PartyCode) bool {
	if len(code) != Length {
		return false
	}
	for _, c := range string(code) {
		if !strings.ContainsRune(Alphabet, c) {
			return false
		}
	}
	return true
}
