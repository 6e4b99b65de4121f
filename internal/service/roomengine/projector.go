package roomengine

import "github.com/yourusername/quizbattle/internal/domain/entity"

// Snapshot is the client-safe projection of a Room, per spec.md §4.5. It
// never carries a question's correct_option; that only ever appears in an
// answer_result event after commitment.
type Snapshot struct {
	Pin               string            `json:"pin"`
	Topic             string            `json:"topic"`
	Difficulty        string            `json:"difficulty"`
	Status            string            `json:"status"`
	Phase             string            `json:"phase"`
	CountdownSeconds  int               `json:"countdown_seconds"`
	QuestionsPerTeam  int               `json:"questions_per_team"`
	CurrentTeam       string            `json:"current_team"`
	ScoreA            int               `json:"score_a"`
	ScoreB            int               `json:"score_b"`
	CurrentQuestion   *QuestionView     `json:"current_question"`
	Players           []PlayerView      `json:"players"`
	Winner            *string           `json:"winner"`
	TeamStats         map[string]*TeamStats `json:"team_stats"`
	VotePercentages   map[string]int    `json:"vote_percentages"`
	QuestionSecondsLeft *int            `json:"question_seconds_left"`
}

// QuestionView hides correct_option from the current-question projection.
type QuestionView struct {
	ID         uint     `json:"id"`
	Team       string   `json:"team"`
	OrderIndex int      `json:"order_index"`
	Text       string   `json:"text"`
	Options    []string `json:"options"`
}

// PlayerView is one player's public roster entry.
type PlayerView struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Team      string `json:"team"`
	IsHost    bool   `json:"is_host"`
	IsCaptain bool   `json:"is_captain"`
}

// project computes the current Snapshot. It is a pure read over the Room's
// fields and must only ever be called from the actor goroutine.
func (r *Room) project() Snapshot {
	snap := Snapshot{
		Pin:              r.pin,
		Topic:            r.topic,
		Difficulty:       r.difficulty,
		Status:           r.status,
		Phase:            r.phase,
		CountdownSeconds: r.countdownTick,
		QuestionsPerTeam: r.questionsPerTeam,
		CurrentTeam:      r.currentTeam,
		ScoreA:           r.scoreA,
		ScoreB:           r.scoreB,
		TeamStats:        copyTeamStats(r.teamStats),
		VotePercentages:  votePercentages(r.votes),
	}

	if q := r.currentQuestion(); q != nil && (r.phase == entity.PhaseQuestion || r.phase == entity.PhasePaused) {
		snap.CurrentQuestion = &QuestionView{
			ID:         q.ID,
			Team:       q.Team,
			OrderIndex: q.OrderIndex,
			Text:       q.Text,
			Options:    q.Options(),
		}
	}

	players := make([]PlayerView, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, PlayerView{
			ID:        p.ID,
			Name:      p.Name,
			Team:      p.Team,
			IsHost:    p.IsHost,
			IsCaptain: p.IsCaptain,
		})
	}
	snap.Players = players

	if r.status == entity.RoomStatusFinished {
		w := r.winner()
		snap.Winner = &w
	}

	snap.QuestionSecondsLeft = r.questionSecondsLeft()

	return snap
}

func (r *Room) questionSecondsLeft() *int {
	switch r.phase {
	case entity.PhaseQuestion:
		left := int(r.timer.remaining().Seconds())
		return &left
	case entity.PhasePaused:
		left := int(r.pausedRemaining.Seconds())
		return &left
	default:
		return nil
	}
}

// copyTeamStats snapshots the live counters so a caller marshaling the
// Snapshot off the actor goroutine never races the actor's increments.
func copyTeamStats(stats map[string]*TeamStats) map[string]*TeamStats {
	out := make(map[string]*TeamStats, len(stats))
	for team, s := range stats {
		c := *s
		out[team] = &c
	}
	return out
}

// votePercentages truncates each choice's share of the vote to an integer
// percent (spec.md §8 scenario S6).
func votePercentages(votes map[uint]string) map[string]int {
	out := make(map[string]int)
	total := len(votes)
	if total == 0 {
		return out
	}
	counts := make(map[string]int)
	for _, choice := range votes {
		counts[choice]++
	}
	for choice, count := range counts {
		out[choice] = (count * 100) / total
	}
	return out
}
