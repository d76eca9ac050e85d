package checkout

import (
	"crypto/rand"
	"fmt"
)

// refAlphabet deliberately omits 0/O, 1/I and lowercase so a guest can copy
// the code into a bank-transfer memo or read it out over the phone without
// ambiguity.
const refAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// ReferenceGenerator produces short human-readable payment reference codes.
// Collision safety comes from the store's active-reference unique index; the
// caller retries with a fresh code on a duplicate.
type ReferenceGenerator struct {
	Prefix string
	Length int
}

// NewReferenceGenerator returns the production generator: "VM-" plus eight
// alphabet characters, roughly 1.1e12 combinations.
func NewReferenceGenerator() *ReferenceGenerator {
	return &ReferenceGenerator{Prefix: "VM", Length: 8}
}

// Generate draws a fresh reference code.
func (g *ReferenceGenerator) Generate() (string, error) {
	buf := make([]byte, g.Length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate reference code: %w", err)
	}
	for i, b := range buf {
		buf[i] = refAlphabet[int(b)%len(refAlphabet)]
	}
	return g.Prefix + "-" + string(buf), nil
}
