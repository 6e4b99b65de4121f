package roomengine

import (
	"context"
	"log"
	"math/rand"
	"sort"
	"time"

	"github.com/yourusername/quizbattle/internal/domain/entity"
	apperrors "github.com/yourusername/quizbattle/internal/pkg/errors"
)

// job is one unit of serialized work delivered to a Room's inbox. Every
// external command and the synthetic timeout are funnelled through jobs so
// that, for a single Room, at most one is executing at any moment --
// the Command Dispatcher's mutual-exclusion discipline from spec.md §4.3,
// implemented here as a single actor goroutine rather than a mutex.
type job func()

// Room is the authoritative in-memory actor for one PIN. All fields below
// are only ever touched from the goroutine running Room.run; external
// callers only ever reach them by enqueuing a job on inbox.
type Room struct {
	pin  string
	deps Dependencies
	cfg  Config
	rng  *rand.Rand

	roomID           uint
	topic            string
	difficulty       string
	questionsPerTeam int
	status           string
	phase            string
	currentTeam      string
	currentIndexA    int
	currentIndexB    int
	scoreA           int
	scoreB           int
	questionStartedAt *time.Time
	createdAt        time.Time
	countdownTick    int

	players map[uint]*entity.Player
	deck    map[string]map[int]*entity.Question

	votes     map[uint]string
	teamStats map[string]*TeamStats

	pausedRemaining time.Duration
	pausedElapsed   time.Duration

	timer *deadlineTimer
	inbox chan job
}

func newRoom(pin string, deps Dependencies, cfg Config, rng *rand.Rand) *Room {
	return &Room{
		pin:       pin,
		deps:      deps,
		cfg:       cfg,
		rng:       rng,
		status:    entity.RoomStatusWaiting,
		phase:     entity.PhaseGathering,
		players:   make(map[uint]*entity.Player),
		deck:      make(map[string]map[int]*entity.Question),
		votes:     make(map[uint]string),
		teamStats: newTeamStats(),
		timer:     newDeadlineTimer(pin),
		inbox:     make(chan job, 32),
	}
}

// run is the actor loop. It must be started exactly once, in its own
// goroutine, by the Registry.
func (r *Room) run() {
	log.Printf("[Room] actor started pin=%s", r.pin)
	for j := range r.inbox {
		j()
	}
	log.Printf("[Room] actor stopped pin=%s", r.pin)
}

// stop closes the inbox, ending run's range loop. Only the Registry calls
// this, after removing the Room from its map.
func (r *Room) stop() {
	r.timer.cancel()
	close(r.inbox)
}

// submit enqueues fn and blocks for its completion. On success (fn returns
// changed=true, err=nil) it projects a snapshot and broadcasts it, matching
// the dispatcher's "ask the Projector for a snapshot and enqueue a
// broadcast" completion step (spec.md §4.3). changed=false means the
// command was an accepted no-op (e.g. answering an already-answered
// question) and nothing is rebroadcast.
func (r *Room) submit(fn func() (bool, error)) (Snapshot, error) {
	type result struct {
		snap Snapshot
		err  error
	}
	done := make(chan result, 1)
	r.inbox <- func() {
		changed, err := fn()
		var snap Snapshot
		if err == nil {
			snap = r.project()
			if changed {
				r.broadcastState(snap)
			}
		}
		done <- result{snap, err}
	}
	res := <-done
	return res.snap, res.err
}

// enqueueTimeout delivers a synthetic timeout command. Called from the
// deadlineTimer's fire callback, which runs on its own goroutine -- routing
// it through inbox is what serializes it against every other command for
// this room, per spec.md §9 "Timer coupling".
func (r *Room) enqueueTimeout() {
	r.inbox <- func() {
		changed, err := r.handleTimeout()
		if err != nil {
			log.Printf("[Room] timeout handling error pin=%s: %v", r.pin, err)
			return
		}
		if changed {
			r.broadcastState(r.project())
		}
	}
}

func (r *Room) broadcastState(snap Snapshot) {
	if r.deps.Hub == nil {
		return
	}
	r.deps.Hub.Broadcast(r.pin, Envelope{Type: "state", Data: snap})
}

func (r *Room) broadcastAnswerResult(timeout, skip, correct bool, correctOption int, team string, questionID uint) {
	if r.deps.Hub == nil {
		return
	}
	r.deps.Hub.Broadcast(r.pin, Envelope{Type: "answer_result", Data: map[string]interface{}{
		"timeout":        timeout,
		"skip":           skip,
		"correct":        correct,
		"correct_option": correctOption,
		"team":           team,
		"question_id":    questionID,
	}})
}

func (r *Room) currentQuestion() *entity.Question {
	if r.currentTeam == "" {
		return nil
	}
	idx := r.currentIndexA
	if r.currentTeam == entity.TeamB {
		idx = r.currentIndexB
	}
	team, ok := r.deck[r.currentTeam]
	if !ok {
		return nil
	}
	return team[idx]
}

func (r *Room) activePlayersSortedByJoin() []*entity.Player {
	out := make([]*entity.Player, 0, len(r.players))
	for _, p := range r.players {
		if p.Active {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out
}

// earliestActiveOnTeam returns the earliest-joined active player on team,
// excluding one player ID. activePlayersSortedByJoin is ascending by
// JoinedAt so the first match is the answer.
func (r *Room) earliestActiveOnTeam(team string, exclude uint) *entity.Player {
	for _, p := range r.activePlayersSortedByJoin() {
		if p.ID != exclude && p.OnTeam(team) {
			return p
		}
	}
	return nil
}

// --- handleJoin ---

func (r *Room) handleJoin(name string, userID *uint) (*entity.Player, error) {
	if r.status != entity.RoomStatusWaiting {
		return nil, apperrors.ErrConflict
	}
	for _, p := range r.players {
		if !p.Active {
			continue
		}
		if userID != nil && p.UserID != nil && *p.UserID == *userID {
			return nil, apperrors.ErrConflict
		}
		if p.Name == name {
			return nil, apperrors.ErrConflict
		}
	}

	player := &entity.Player{
		RoomID:   r.roomID,
		UserID:   userID,
		Name:     name,
		Active:   true,
		JoinedAt: time.Now(),
	}
	if r.deps.Players != nil {
		if err := r.deps.Players.Create(player); err != nil {
			return nil, err
		}
	}
	if player.ID == 0 {
		player.ID = r.nextLocalPlayerID()
	}
	r.players[player.ID] = player
	return player, nil
}

// nextLocalPlayerID hands out an in-memory player ID when no repository is
// wired to assign one (the database normally does).
func (r *Room) nextLocalPlayerID() uint {
	var max uint
	for id := range r.players {
		if id > max {
			max = id
		}
	}
	return max + 1
}

// --- handleStart ---

func (r *Room) handleStart(hostPlayerID uint) error {
	if r.status != entity.RoomStatusWaiting {
		return apperrors.ErrConflict
	}
	host, ok := r.players[hostPlayerID]
	if !ok || !host.IsHost {
		return apperrors.ErrForbidden
	}

	active := r.activePlayersSortedByJoin()
	if len(active) < 2 {
		return apperrors.ErrValidation
	}

	shuffled := make([]*entity.Player, len(active))
	copy(shuffled, active)
	r.rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	for i, p := range shuffled {
		if i%2 == 0 {
			p.Team = entity.TeamA
		} else {
			p.Team = entity.TeamB
		}
		p.IsCaptain = false
	}

	for _, team := range []string{entity.TeamA, entity.TeamB} {
		var captain *entity.Player
		for _, p := range active {
			if p.Team != team {
				continue
			}
			if captain == nil || p.JoinedAt.Before(captain.JoinedAt) {
				captain = p
			}
		}
		if captain != nil {
			captain.IsCaptain = true
		} else {
			return apperrors.ErrValidation
		}
	}

	if r.deps.Players != nil {
		for _, p := range active {
			if err := r.deps.Players.Update(p); err != nil {
				log.Printf("[Room] failed to persist player %d team assignment pin=%s: %v", p.ID, r.pin, err)
			}
		}
	}

	r.status = entity.RoomStatusInProgress
	r.phase = entity.PhaseCountdown
	r.persistRoom()

	for tick := r.cfg.countdownSeconds(); tick >= 1; tick-- {
		r.countdownTick = tick
		r.broadcastState(r.project())
		time.Sleep(1 * time.Second)
	}
	r.countdownTick = 0

	now := time.Now()
	r.phase = entity.PhaseQuestion
	r.currentTeam = entity.TeamA
	r.questionStartedAt = &now
	r.persistRoom()

	r.armQuestionTimer()
	return nil
}

func (r *Room) armQuestionTimer() {
	d := r.cfg.baseTimeout(r.difficulty)
	r.timer.arm(d, r.enqueueTimeout)
}

func (r *Room) persistRoom() {
	if r.deps.Rooms == nil {
		return
	}
	room := &entity.Room{
		ID:                r.roomID,
		Pin:               r.pin,
		Topic:             r.topic,
		Difficulty:        r.difficulty,
		QuestionsPerTeam:  r.questionsPerTeam,
		Status:            r.status,
		Phase:             r.phase,
		CurrentTeam:       r.currentTeam,
		CurrentIndexA:     r.currentIndexA,
		CurrentIndexB:     r.currentIndexB,
		ScoreA:            r.scoreA,
		ScoreB:            r.scoreB,
		QuestionStartedAt: r.questionStartedAt,
		CreatedAt:         r.createdAt,
	}
	if err := r.deps.Rooms.Update(room); err != nil {
		log.Printf("[Room] failed to persist room pin=%s: %v", r.pin, err)
	}
}

// --- answer / skip / timeout commitment ---

func (r *Room) handleAnswer(playerID uint, optionIndex int) (bool, error) {
	if r.status != entity.RoomStatusInProgress || r.phase != entity.PhaseQuestion {
		return false, apperrors.ErrForbidden
	}
	player, ok := r.players[playerID]
	if !ok || !player.Active || !player.OnTeam(r.currentTeam) || !player.IsCaptain {
		return false, apperrors.ErrForbidden
	}
	if !entity.IsValidOption(optionIndex) {
		return false, apperrors.ErrValidation
	}

	q := r.currentQuestion()
	if q == nil || q.Answered {
		return false, nil
	}

	elapsed := 0
	if r.questionStartedAt != nil {
		elapsed = int(time.Since(*r.questionStartedAt).Seconds())
	}
	correct := q.IsCorrect(optionIndex)
	r.commitQuestion(q, r.currentTeam, correct, elapsed)
	r.broadcastAnswerResult(false, false, correct, q.CorrectOption, r.currentTeam, q.ID)
	r.advanceTurn(r.currentTeam)
	return true, nil
}

func (r *Room) handleSkip(playerID uint) (bool, error) {
	if r.status != entity.RoomStatusInProgress || r.phase != entity.PhaseQuestion {
		return false, apperrors.ErrForbidden
	}
	player, ok := r.players[playerID]
	if !ok || !player.Active || !player.OnTeam(r.currentTeam) || !player.IsCaptain {
		return false, apperrors.ErrForbidden
	}

	q := r.currentQuestion()
	if q == nil || q.Answered {
		return false, nil
	}

	team := r.currentTeam
	r.commitQuestion(q, team, false, 0)
	r.broadcastAnswerResult(false, true, false, q.CorrectOption, team, q.ID)
	r.advanceTurn(team)
	return true, nil
}

func (r *Room) handleTimeout() (bool, error) {
	if r.status != entity.RoomStatusInProgress || r.phase != entity.PhaseQuestion {
		return false, nil
	}
	q := r.currentQuestion()
	if q == nil || q.Answered {
		return false, nil
	}

	team := r.currentTeam
	q.Answered = true
	r.teamStats[team].Timeout++
	if r.deps.Questions != nil {
		if err := r.deps.Questions.Update(q); err != nil {
			log.Printf("[Room] failed to persist answered question pin=%s: %v", r.pin, err)
		}
	}
	r.broadcastAnswerResult(true, false, false, q.CorrectOption, team, q.ID)
	r.advanceTurn(team)
	return true, nil
}

// commitQuestion marks q answered, updates score/team stats for a non-timeout
// commitment (answer or skip) and persists the question row.
func (r *Room) commitQuestion(q *entity.Question, team string, correct bool, elapsedSeconds int) {
	q.Answered = true
	stats := r.teamStats[team]
	if correct {
		bonus := entity.SpeedBonus(elapsedSeconds)
		award := 1 + bonus
		if team == entity.TeamA {
			r.scoreA += award
		} else {
			r.scoreB += award
		}
		stats.Correct++
		stats.SpeedBonus += bonus
	} else {
		stats.Incorrect++
	}
	if r.deps.Questions != nil {
		if err := r.deps.Questions.Update(q); err != nil {
			log.Printf("[Room] failed to persist answered question pin=%s: %v", r.pin, err)
		}
	}
}

// advanceTurn implements the shared tail of answer/skip/timeout: the
// leaving team's index advances, the turn flips, votes clear, and either a
// new question is armed or the room finishes (spec.md §4.1).
func (r *Room) advanceTurn(leavingTeam string) {
	if leavingTeam == entity.TeamA {
		r.currentIndexA++
	} else {
		r.currentIndexB++
	}
	r.votes = make(map[uint]string)
	r.timer.cancel()

	if r.currentIndexA >= r.questionsPerTeam && r.currentIndexB >= r.questionsPerTeam {
		r.finish()
		return
	}

	r.currentTeam = entity.OtherTeam(leavingTeam)
	now := time.Now()
	r.questionStartedAt = &now
	r.persistRoom()
	r.armQuestionTimer()
}

func (r *Room) finish() {
	r.status = entity.RoomStatusFinished
	r.phase = entity.PhaseResults
	r.currentTeam = entity.TeamNone
	r.questionStartedAt = nil
	r.persistRoom()

	if r.deps.Results != nil {
		results := make([]entity.Result, 0, len(r.players))
		won := r.winner()
		for _, p := range r.players {
			score := r.scoreA
			if p.Team == entity.TeamB {
				score = r.scoreB
			}
			results = append(results, entity.Result{
				RoomID:     r.roomID,
				UserID:     p.UserID,
				PlayerName: p.Name,
				Team:       p.Team,
				Score:      score,
				Won:        p.Team != "" && p.Team == won,
				FinishedAt: time.Now(),
			})
		}
		if err := r.deps.Results.CreateBatch(results); err != nil {
			log.Printf("[Room] failed to persist results pin=%s: %v", r.pin, err)
		}
	}
}

func (r *Room) winner() string {
	switch {
	case r.scoreA > r.scoreB:
		return entity.TeamA
	case r.scoreB > r.scoreA:
		return entity.TeamB
	default:
		return "draw"
	}
}

// --- vote / transfer_captain / disconnect ---

func (r *Room) handleVote(playerID uint, choice string) (bool, error) {
	if r.phase != entity.PhaseQuestion {
		return false, apperrors.ErrForbidden
	}
	player, ok := r.players[playerID]
	if !ok || !player.Active || !player.OnTeam(r.currentTeam) || player.IsCaptain {
		return false, apperrors.ErrForbidden
	}
	r.votes[playerID] = choice
	return true, nil
}

func (r *Room) handleTransferCaptain(fromID, toID uint) (bool, error) {
	from, ok := r.players[fromID]
	if !ok || !from.Active || !from.IsCaptain {
		return false, apperrors.ErrForbidden
	}
	to, ok := r.players[toID]
	if !ok || !to.Active || to.Team != from.Team {
		return false, apperrors.ErrForbidden
	}
	from.IsCaptain = false
	to.IsCaptain = true
	if r.deps.Players != nil {
		r.deps.Players.Update(from)
		r.deps.Players.Update(to)
	}
	return true, nil
}

func (r *Room) handleDisconnect(playerID uint) (bool, error) {
	player, ok := r.players[playerID]
	if !ok || !player.Active {
		return false, nil
	}
	player.Active = false
	wasCaptain := player.IsCaptain
	player.IsCaptain = false
	if r.deps.Players != nil {
		r.deps.Players.Update(player)
	}
	if wasCaptain {
		r.promoteCaptain(player.Team, player.ID)
	}
	return true, nil
}

func (r *Room) promoteCaptain(team string, exclude uint) {
	next := r.earliestActiveOnTeam(team, exclude)
	if next == nil {
		return
	}
	next.IsCaptain = true
	if r.deps.Players != nil {
		r.deps.Players.Update(next)
	}
}

// --- host control ---

func (r *Room) handleHostControl(hostPlayerID uint, action string, targetPlayerID *uint, topic, difficulty string) (bool, error) {
	host, ok := r.players[hostPlayerID]
	if !ok || !host.IsHost {
		return false, apperrors.ErrForbidden
	}

	switch action {
	case "pause":
		return r.doPause()
	case "resume":
		return r.doResume()
	case "next_question":
		return r.doNextQuestion()
	case "kick":
		if targetPlayerID == nil {
			return false, apperrors.ErrValidation
		}
		return r.doKick(*targetPlayerID)
	case "restart":
		return r.doRestart(topic, difficulty)
	default:
		return false, apperrors.ErrValidation
	}
}

func (r *Room) doPause() (bool, error) {
	if r.status != entity.RoomStatusInProgress || r.phase != entity.PhaseQuestion {
		return false, apperrors.ErrForbidden
	}
	elapsed := time.Duration(0)
	if r.questionStartedAt != nil {
		elapsed = time.Since(*r.questionStartedAt)
	}
	remaining := r.cfg.baseTimeout(r.difficulty) - elapsed
	if remaining < time.Second {
		remaining = time.Second
	}
	r.pausedElapsed = elapsed
	r.pausedRemaining = remaining
	r.timer.cancel()
	r.phase = entity.PhasePaused
	r.persistRoom()
	return true, nil
}

func (r *Room) doResume() (bool, error) {
	if r.status != entity.RoomStatusInProgress || r.phase != entity.PhasePaused {
		return false, apperrors.ErrForbidden
	}
	now := time.Now().Add(-r.pausedElapsed)
	r.questionStartedAt = &now
	r.phase = entity.PhaseQuestion
	r.persistRoom()
	r.timer.arm(r.pausedRemaining, r.enqueueTimeout)
	return true, nil
}

func (r *Room) doNextQuestion() (bool, error) {
	if r.status != entity.RoomStatusInProgress || r.phase != entity.PhaseQuestion {
		return false, apperrors.ErrForbidden
	}
	q := r.currentQuestion()
	if q == nil || q.Answered {
		return false, nil
	}
	team := r.currentTeam
	r.commitQuestion(q, team, false, 0)
	r.broadcastAnswerResult(false, true, false, q.CorrectOption, team, q.ID)
	r.advanceTurn(team)
	return true, nil
}

func (r *Room) doKick(targetID uint) (bool, error) {
	target, ok := r.players[targetID]
	if !ok || !target.Active {
		return false, apperrors.ErrNotFound
	}
	target.Active = false
	wasCaptain := target.IsCaptain
	target.IsCaptain = false
	if r.deps.Players != nil {
		r.deps.Players.Update(target)
	}
	if wasCaptain {
		r.promoteCaptain(target.Team, target.ID)
	}
	return true, nil
}

func (r *Room) doRestart(topic, difficulty string) (bool, error) {
	if r.status != entity.RoomStatusFinished {
		return false, apperrors.ErrConflict
	}
	if topic != "" {
		r.topic = topic
	}
	if difficulty != "" {
		r.difficulty = difficulty
	}

	if r.deps.Questions != nil {
		if err := r.deps.Questions.DeleteByRoom(r.roomID); err != nil {
			log.Printf("[Room] failed to delete old deck pin=%s: %v", r.pin, err)
		}
	}
	deck, err := buildDeck(context.Background(), r.deps.Oracle, r.roomID, r.topic, r.difficulty, r.questionsPerTeam, r.rng)
	if err != nil {
		return false, err
	}
	if r.deps.Questions != nil {
		if err := r.deps.Questions.CreateBatch(deck); err != nil {
			return false, err
		}
	}
	r.installDeck(deck)

	for _, p := range r.players {
		if p.IsHost {
			continue
		}
		p.Team = entity.TeamNone
		p.IsCaptain = false
		if r.deps.Players != nil {
			r.deps.Players.Update(p)
		}
	}

	r.status = entity.RoomStatusWaiting
	r.phase = entity.PhaseGathering
	r.currentTeam = entity.TeamNone
	r.currentIndexA, r.currentIndexB = 0, 0
	r.scoreA, r.scoreB = 0, 0
	r.questionStartedAt = nil
	r.votes = make(map[uint]string)
	r.teamStats = newTeamStats()
	r.persistRoom()
	return true, nil
}

func (r *Room) installDeck(deck []entity.Question) {
	r.deck = make(map[string]map[int]*entity.Question)
	for i := range deck {
		q := &deck[i]
		if r.deck[q.Team] == nil {
			r.deck[q.Team] = make(map[int]*entity.Question)
		}
		r.deck[q.Team][q.OrderIndex] = q
	}
}
