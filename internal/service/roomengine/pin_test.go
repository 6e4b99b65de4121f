package roomengine

import (
	"math/rand"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var pinFormat = regexp.MustCompile(`^[A-Z0-9]{6}$`)

func TestGeneratePin_Format(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		pin := generatePin(rng)
		assert.Regexp(t, pinFormat, pin)
	}
}

func TestGeneratePin_DeterministicForSeed(t *testing.T) {
	a := generatePin(rand.New(rand.NewSource(7)))
	b := generatePin(rand.New(rand.NewSource(7)))
	assert.Equal(t, a, b, "a fixed seed must reproduce the same pin (spec.md §9 RNG determinism)")
}
