package roomengine

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quizbattle/internal/domain/entity"
	apperrors "github.com/yourusername/quizbattle/internal/pkg/errors"
)

func newTestRegistry() *Registry {
	deps := Dependencies{Oracle: fakeOracle{}, Rand: rand.New(rand.NewSource(123))}
	return NewRegistry(deps, newTestConfig())
}

func TestRegistry_CreateRoom_Success(t *testing.T) {
	reg := newTestRegistry()

	room, host, err := reg.CreateRoom(context.Background(), "Host", "Go Trivia", entity.DifficultyMedium, 5, nil)
	require.NoError(t, err)
	require.NotNil(t, room)
	require.NotNil(t, host)

	assert.True(t, host.IsHost)
	assert.Len(t, room.pin, 6)

	got, ok := reg.Get(room.Pin())
	assert.True(t, ok)
	assert.Same(t, room, got)

	reg.Retire(room.Pin())
	_, ok = reg.Get(room.Pin())
	assert.False(t, ok)
}

func TestRegistry_CreateRoom_ValidatesTopicLength(t *testing.T) {
	reg := newTestRegistry()
	_, _, err := reg.CreateRoom(context.Background(), "Host", "x", entity.DifficultyMedium, 5, nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestRegistry_CreateRoom_ValidatesQuestionsPerTeam(t *testing.T) {
	reg := newTestRegistry()
	_, _, err := reg.CreateRoom(context.Background(), "Host", "Valid Topic", entity.DifficultyMedium, 4, nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, _, err = reg.CreateRoom(context.Background(), "Host", "Valid Topic", entity.DifficultyMedium, 8, nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestRegistry_CreateRoom_ValidatesDifficulty(t *testing.T) {
	reg := newTestRegistry()
	_, _, err := reg.CreateRoom(context.Background(), "Host", "Valid Topic", "nightmare", 5, nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestRegistry_CreateRoom_DefaultsDifficultyToMedium(t *testing.T) {
	reg := newTestRegistry()
	room, _, err := reg.CreateRoom(context.Background(), "Host", "Valid Topic", "", 5, nil)
	require.NoError(t, err)
	assert.Equal(t, entity.DifficultyMedium, room.difficulty)
}

func TestRegistry_AllocatePin_SkipsLiveCollision(t *testing.T) {
	reg := newTestRegistry()

	seed := int64(555)
	first := generatePin(rand.New(rand.NewSource(seed)))
	reg.rooms[first] = &Room{} // occupy the pin a fresh rng with the same seed would produce

	pin, err := reg.allocatePin(rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	assert.NotEqual(t, first, pin, "allocatePin must not hand out a pin already live in the registry")
}
