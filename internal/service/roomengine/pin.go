package roomengine

import "math/rand"

const pinAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// generatePin produces a 6-character uppercase alphanumeric PIN (spec.md
// §6 "PIN format"). rng is pluggable so tests can fix the seed.
func generatePin(rng *rand.Rand) string {
	b := make([]byte, 6)
	for i := range b {
		b[i] = pinAlphabet[rng.Intn(len(pinAlphabet))]
	}
	return string(b)
}
