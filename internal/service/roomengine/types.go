// Package roomengine is the authoritative game-session engine: the Room
// Registry, Room State Machine, Deadline Timer, Command Dispatcher and
// State Projector components. It is the core deliverable of this repository.
//
// The engine treats identity, question generation and persistence as opaque
// collaborators (Oracle, Broadcaster interfaces below, and the
// domain/repository interfaces), matching the boundary drawn by this
// repo's own quizmanager package against its repository/websocket layers.
package roomengine

import (
	"context"
	"math/rand"
	"time"

	"github.com/yourusername/quizbattle/internal/domain/repository"
	"github.com/yourusername/quizbattle/internal/service/oracle"
)

// Oracle requests a batch of questions for a topic+difficulty. Implemented
// concretely by oracle.Client; an interface here only so tests can fake it.
type Oracle interface {
	Fetch(ctx context.Context, topic, difficulty string, count int) ([]oracle.Question, error)
}

// Envelope is the websocket wire envelope from spec.md §4.4/§6:
// {"type": <kind>, "data": <body>}.
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Broadcaster fans an Envelope out to every connection registered under a
// PIN. Implemented by internal/websocket.Hub; the engine never imports that
// package, avoiding the import cycle Hub has in the other direction.
type Broadcaster interface {
	Broadcast(pin string, env Envelope)
}

// Config bundles the tunables this repo's quizmanager.Config hardcodes as
// package constants, pulled out for config-file/env overrides and test
// determinism.
type Config struct {
	CountdownSeconds int
	EasyTimeout      time.Duration
	MediumTimeout    time.Duration
	HardTimeout      time.Duration
}

func (c Config) baseTimeout(difficulty string) time.Duration {
	switch difficulty {
	case "easy":
		if c.EasyTimeout > 0 {
			return c.EasyTimeout
		}
		return 35 * time.Second
	case "hard":
		if c.HardTimeout > 0 {
			return c.HardTimeout
		}
		return 25 * time.Second
	default:
		if c.MediumTimeout > 0 {
			return c.MediumTimeout
		}
		return 30 * time.Second
	}
}

func (c Config) countdownSeconds() int {
	if c.CountdownSeconds > 0 {
		return c.CountdownSeconds
	}
	return 3
}

// Dependencies bundles every collaborator the engine needs, grounded on
// quizmanager.Dependencies' constructor-injection style.
type Dependencies struct {
	Rooms     repository.RoomRepository
	Players   repository.PlayerRepository
	Questions repository.QuestionRepository
	Results   repository.ResultRepository
	Oracle    Oracle
	Hub       Broadcaster
	Rand      *rand.Rand // nil means time-seeded; tests inject a fixed seed per spec.md §9
}

func (d Dependencies) rng() *rand.Rand {
	if d.Rand != nil {
		return d.Rand
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
