package roomengine

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/yourusername/quizbattle/internal/domain/entity"
	apperrors "github.com/yourusername/quizbattle/internal/pkg/errors"
)

// Registry maps a live PIN to its Room actor: the Room Registry component
// from spec.md §2. It is read on every join/lookup and mutated only on
// room create and retire; a plain RWMutex meets spec.md §5's "forbid torn reads"
// requirement without needing anything fancier.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	deps  Dependencies
	cfg   Config
}

// NewRegistry builds a Registry bound to deps/cfg, shared by every room it
// creates.
func NewRegistry(deps Dependencies, cfg Config) *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		deps:  deps,
		cfg:   cfg,
	}
}

// Get looks up a live Room by PIN. The lookup is exact; the HTTP and
// socket handlers uppercase the PIN before calling it.
func (reg *Registry) Get(pin string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room, ok := reg.rooms[pin]
	return room, ok
}

// CreateRoom allocates a fresh PIN, persists the Room and host Player rows,
// generates the question deck via the Oracle, and starts the Room's actor
// goroutine.
func (reg *Registry) CreateRoom(ctx context.Context, hostName, topic, difficulty string, questionsPerTeam int, hostUserID *uint) (*Room, *entity.Player, error) {
	if len(topic) < 2 || len(topic) > 255 {
		return nil, nil, apperrors.ErrValidation
	}
	if questionsPerTeam < 5 || questionsPerTeam > 7 {
		return nil, nil, apperrors.ErrValidation
	}
	if difficulty == "" {
		difficulty = entity.DifficultyMedium
	}
	switch difficulty {
	case entity.DifficultyEasy, entity.DifficultyMedium, entity.DifficultyHard:
	default:
		return nil, nil, apperrors.ErrValidation
	}

	rng := reg.deps.rng()

	pin, err := reg.allocatePin(rng)
	if err != nil {
		return nil, nil, err
	}

	roomRow := &entity.Room{
		Pin:              pin,
		Topic:            topic,
		Difficulty:       difficulty,
		QuestionsPerTeam: questionsPerTeam,
		Status:           entity.RoomStatusWaiting,
		Phase:            entity.PhaseGathering,
		CreatedAt:        time.Now(),
	}
	if reg.deps.Rooms != nil {
		if err := reg.deps.Rooms.Create(roomRow); err != nil {
			return nil, nil, err
		}
	}

	deck, err := buildDeck(ctx, reg.deps.Oracle, roomRow.ID, topic, difficulty, questionsPerTeam, rng)
	if err != nil {
		return nil, nil, apperrors.ErrUpstreamFailure
	}
	if reg.deps.Questions != nil {
		if err := reg.deps.Questions.CreateBatch(deck); err != nil {
			return nil, nil, err
		}
	}

	host := &entity.Player{
		RoomID:   roomRow.ID,
		UserID:   hostUserID,
		Name:     hostName,
		IsHost:   true,
		Active:   true,
		JoinedAt: time.Now(),
	}
	if reg.deps.Players != nil {
		if err := reg.deps.Players.Create(host); err != nil {
			return nil, nil, err
		}
	}

	room := newRoom(pin, reg.deps, reg.cfg, rng)
	room.roomID = roomRow.ID
	room.topic = topic
	room.difficulty = difficulty
	room.questionsPerTeam = questionsPerTeam
	room.createdAt = roomRow.CreatedAt
	room.installDeck(deck)
	room.players[host.ID] = host

	reg.mu.Lock()
	reg.rooms[pin] = room
	reg.mu.Unlock()

	go room.run()
	log.Printf("[Registry] created room pin=%s host=%q topic=%q", pin, hostName, topic)

	return room, host, nil
}

// allocatePin generates a PIN not already live in this registry or held by
// a non-finished row in the repository, retrying a bounded number of
// times.
func (reg *Registry) allocatePin(rng *rand.Rand) (string, error) {
	const maxAttempts = 10
	for attempt := 0; attempt < maxAttempts; attempt++ {
		pin := generatePin(rng)

		reg.mu.RLock()
		_, live := reg.rooms[pin]
		reg.mu.RUnlock()
		if live {
			continue
		}

		if reg.deps.Rooms != nil {
			inUse, err := reg.deps.Rooms.PinInUse(pin)
			if err != nil {
				return "", err
			}
			if inUse {
				continue
			}
		}
		return pin, nil
	}
	return "", fmt.Errorf("roomengine: could not allocate a unique pin after %d attempts", maxAttempts)
}

// Retire stops a Room's actor and removes it from the registry. Called
// when a finished room is evicted; QuizBattle keeps finished rooms live
// (a host may still restart them), so nothing calls this automatically
// today -- it exists for an operator-triggered cleanup sweep.
func (reg *Registry) Retire(pin string) {
	reg.mu.Lock()
	room, ok := reg.rooms[pin]
	if ok {
		delete(reg.rooms, pin)
	}
	reg.mu.Unlock()
	if ok {
		room.stop()
		log.Printf("[Registry] retired room pin=%s", pin)
	}
}
