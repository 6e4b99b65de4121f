package roomengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVotePercentages_Empty(t *testing.T) {
	pct := votePercentages(map[uint]string{})
	assert.Empty(t, pct)
}

func TestVotePercentages_SingleVoterIsHundred(t *testing.T) {
	pct := votePercentages(map[uint]string{1: "a"})
	assert.Equal(t, 100, pct["a"])
}

func TestVotePercentages_TruncatesRatherThanRounds(t *testing.T) {
	// 1/3 = 33.33...% must truncate to 33, not round to 33 either way here,
	// but with a split that would round up under round-half-even the
	// distinction matters: 2/3 = 66.67% must truncate to 66.
	pct := votePercentages(map[uint]string{1: "x", 2: "x", 3: "y"})
	assert.Equal(t, 66, pct["x"])
	assert.Equal(t, 33, pct["y"])
}
