package roomengine

import (
	"context"
	"math/rand"
	"time"

	"github.com/yourusername/quizbattle/internal/domain/entity"
	"github.com/yourusername/quizbattle/internal/service/oracle"
)

// fakeOracle returns a fixed, deterministic set of questions so deck shape
// and scoring tests never depend on the real oracle.Client's network path
// or its fallback-pool shuffle.
type fakeOracle struct {
	prefix string
}

func (f fakeOracle) Fetch(_ context.Context, _, _ string, count int) ([]oracle.Question, error) {
	out := make([]oracle.Question, count)
	for i := range out {
		out[i] = oracle.Question{
			Text:          questionText(f.prefix, i),
			Options:       [4]string{"opt1", "opt2", "opt3", "opt4"},
			CorrectOption: 1, // 1-based; buildDeck converts to 0-based
		}
	}
	return out, nil
}

func questionText(prefix string, i int) string {
	if prefix == "" {
		prefix = "q"
	}
	return prefix + "-" + string(rune('a'+i))
}

// newTestConfig keeps the countdown short (still a real 1s sleep per tick,
// matching handleStart's documented cooperative yield point) so tests don't
// wait on the default 3s countdown unnecessarily.
func newTestConfig() Config {
	return Config{
		CountdownSeconds: 1,
		EasyTimeout:      35 * time.Second,
		MediumTimeout:    30 * time.Second,
		HardTimeout:      25 * time.Second,
	}
}

// newTestRoom builds a Room with a deterministic RNG and a running actor
// goroutine, bypassing the Registry (no repository, no real PIN
// allocation) so engine-level tests can drive it directly through the
// exported Command Dispatcher methods.
func newTestRoom(questionsPerTeam int, difficulty string, seed int64) *Room {
	return newTestRoomWithConfig(newTestConfig(), questionsPerTeam, difficulty, seed)
}

// newTestRoomWithConfig is newTestRoom with a caller-supplied Config, for
// tests that need a shortened question timeout (timer/pause scenarios).
func newTestRoomWithConfig(cfg Config, questionsPerTeam int, difficulty string, seed int64) *Room {
	rng := rand.New(rand.NewSource(seed))
	deps := Dependencies{Oracle: fakeOracle{}, Rand: rng}
	r := newRoom("TEST01", deps, cfg, rng)
	r.roomID = 1
	r.topic = "Testing"
	r.difficulty = difficulty
	r.questionsPerTeam = questionsPerTeam
	r.createdAt = time.Now()

	deck, err := buildDeck(context.Background(), deps.Oracle, r.roomID, r.topic, difficulty, questionsPerTeam, rng)
	if err != nil {
		panic(err)
	}
	r.installDeck(deck)

	go r.run()
	return r
}

// addPlayer injects a player directly into the room map, bypassing handleJoin
// so tests can set up a roster without running through the waiting-status
// gate (useful once a room has already started, e.g. a restart scenario).
func addPlayer(r *Room, id uint, name string, isHost bool) *entity.Player {
	p := &entity.Player{
		ID:       id,
		RoomID:   r.roomID,
		Name:     name,
		IsHost:   isHost,
		Active:   true,
		JoinedAt: time.Now(),
	}
	done := make(chan struct{})
	r.inbox <- func() {
		r.players[id] = p
		close(done)
	}
	<-done
	return p
}
