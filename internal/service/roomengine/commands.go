package roomengine

import "github.com/yourusername/quizbattle/internal/domain/entity"

// This file is the public face of the Command Dispatcher (spec.md §4.3):
// one exported method per command kind, each enqueuing a job onto the
// Room's inbox via submit and blocking for the resulting Snapshot. Callers
// are internal/handler: room_handler.go (HTTP) and ws_handler.go (socket
// messages and disconnects).

// Join admits a new player while the room is still gathering.
func (r *Room) Join(name string, userID *uint) (*entity.Player, Snapshot, error) {
	var player *entity.Player
	snap, err := r.submit(func() (bool, error) {
		p, err := r.handleJoin(name, userID)
		if err != nil {
			return false, err
		}
		player = p
		return true, nil
	})
	return player, snap, err
}

// Start begins the countdown, provided the caller is the host and the
// team-populated precondition holds.
func (r *Room) Start(hostPlayerID uint) (Snapshot, error) {
	return r.submit(func() (bool, error) {
		if err := r.handleStart(hostPlayerID); err != nil {
			return false, err
		}
		return true, nil
	})
}

// Answer submits a captain's choice for the current question. optionIndex
// is zero-based; callers convert from the client's 1-based wire value.
func (r *Room) Answer(playerID uint, optionIndex int) (Snapshot, error) {
	return r.submit(func() (bool, error) { return r.handleAnswer(playerID, optionIndex) })
}

// Vote records a non-captain teammate's advisory choice.
func (r *Room) Vote(playerID uint, choice string) (Snapshot, error) {
	return r.submit(func() (bool, error) { return r.handleVote(playerID, choice) })
}

// Skip lets the current captain forfeit the question without answering.
func (r *Room) Skip(playerID uint) (Snapshot, error) {
	return r.submit(func() (bool, error) { return r.handleSkip(playerID) })
}

// TransferCaptain atomically moves the captain flag to a teammate.
func (r *Room) TransferCaptain(fromPlayerID, toPlayerID uint) (Snapshot, error) {
	return r.submit(func() (bool, error) { return r.handleTransferCaptain(fromPlayerID, toPlayerID) })
}

// HostControl dispatches pause/resume/next_question/kick/restart. topic and
// difficulty are only consulted for "restart"; targetPlayerID only for
// "kick".
func (r *Room) HostControl(hostPlayerID uint, action string, targetPlayerID *uint, topic, difficulty string) (Snapshot, error) {
	return r.submit(func() (bool, error) {
		return r.handleHostControl(hostPlayerID, action, targetPlayerID, topic, difficulty)
	})
}

// Disconnect marks a player inactive, promoting a new captain if needed.
// It never finishes the room on its own (spec.md §9).
func (r *Room) Disconnect(playerID uint) (Snapshot, error) {
	return r.submit(func() (bool, error) { return r.handleDisconnect(playerID) })
}

// State returns the current snapshot without mutating anything, still
// routed through the inbox so it observes a consistent, non-torn view.
func (r *Room) State() Snapshot {
	snap, _ := r.submit(func() (bool, error) { return false, nil })
	return snap
}

// Pin returns the room's PIN.
func (r *Room) Pin() string { return r.pin }
