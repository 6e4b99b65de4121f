package roomengine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quizbattle/internal/domain/entity"
	apperrors "github.com/yourusername/quizbattle/internal/pkg/errors"
)

// currentCaptain returns the player who is both captain and on snap's
// current team, failing the test if none is found.
func currentCaptain(t *testing.T, snap Snapshot) PlayerView {
	t.Helper()
	for _, p := range snap.Players {
		if p.Team == snap.CurrentTeam && p.IsCaptain {
			return p
		}
	}
	t.Fatalf("no captain found for current team %q among %+v", snap.CurrentTeam, snap.Players)
	return PlayerView{}
}

func TestRoom_HappyPath_TwoPlayersAlternateAndFinish(t *testing.T) {
	// Arrange: 2 questions per team (4 total), 2 players so both teams have
	// exactly one captain each after the even/odd assignment.
	r := newTestRoom(2, entity.DifficultyMedium, 1)
	addPlayer(r, 1, "Host", true)
	_, _, err := r.Join("Player2", nil)
	require.NoError(t, err)

	snap, err := r.Start(1)
	require.NoError(t, err)
	assert.Equal(t, entity.RoomStatusInProgress, snap.Status)
	assert.Equal(t, entity.PhaseQuestion, snap.Phase)
	assert.Equal(t, entity.TeamA, snap.CurrentTeam)

	// Exactly one captain per team.
	captainsPerTeam := map[string]int{}
	for _, p := range snap.Players {
		if p.IsCaptain {
			captainsPerTeam[p.Team]++
		}
	}
	assert.Equal(t, 1, captainsPerTeam[entity.TeamA])
	assert.Equal(t, 1, captainsPerTeam[entity.TeamB])

	// Act: answer all 4 questions correctly (option 0, since fakeOracle's
	// CorrectOption=1 one-based converts to 0 zero-based), alternating teams.
	total := 2 * 2
	for i := 0; i < total; i++ {
		captain := currentCaptain(t, snap)
		snap, err = r.Answer(captain.ID, 0)
		require.NoError(t, err)
	}

	// Assert: finished, every correct answer at ~0s elapsed earns the max
	// speed bonus (1 base + 2 bonus = 3) per team's 2 correct answers.
	assert.Equal(t, entity.RoomStatusFinished, snap.Status)
	assert.Equal(t, entity.PhaseResults, snap.Phase)
	assert.Equal(t, entity.TeamNone, snap.CurrentTeam)
	assert.Equal(t, 6, snap.ScoreA)
	assert.Equal(t, 6, snap.ScoreB)
	require.NotNil(t, snap.Winner)
	assert.Equal(t, "draw", *snap.Winner)
}

func TestRoom_TeamAlternation_IndexAdvancesOneSideAtATime(t *testing.T) {
	r := newTestRoom(2, entity.DifficultyMedium, 2)
	addPlayer(r, 1, "Host", true)
	_, _, err := r.Join("Player2", nil)
	require.NoError(t, err)

	snap, err := r.Start(1)
	require.NoError(t, err)
	require.Equal(t, entity.TeamA, snap.CurrentTeam)

	captain := currentCaptain(t, snap)
	snap, err = r.Answer(captain.ID, 0)
	require.NoError(t, err)

	// Team flips to B; A's index advanced, B's stayed at 0.
	assert.Equal(t, entity.TeamB, snap.CurrentTeam)
	require.NotNil(t, snap.CurrentQuestion)
	assert.Equal(t, 0, snap.CurrentQuestion.OrderIndex)

	// Once B commits, A's current question is its order_index 1.
	captain = currentCaptain(t, snap)
	snap, err = r.Answer(captain.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, entity.TeamA, snap.CurrentTeam)
	require.NotNil(t, snap.CurrentQuestion)
	assert.Equal(t, 1, snap.CurrentQuestion.OrderIndex)
}

func TestRoom_AnswerCommitment_IsSingleShot(t *testing.T) {
	// Two identical answer submissions for the same question: the first
	// commits and scores, the second is a no-op (spec.md §8 round-trip
	// property).
	r := newTestRoom(1, entity.DifficultyMedium, 3)
	addPlayer(r, 1, "Host", true)
	_, _, err := r.Join("Player2", nil)
	require.NoError(t, err)

	snap, err := r.Start(1)
	require.NoError(t, err)
	captain := currentCaptain(t, snap)

	snap, err = r.Answer(captain.ID, 0)
	require.NoError(t, err)
	scoreAfterFirst := snap.ScoreA + snap.ScoreB

	// The turn has already flipped, so a second handleAnswer call can't be
	// driven through the public API against the same question anymore.
	// Exercise the single-shot guard directly: commitQuestion's caller
	// always checks Answered first, and that check must reject a second
	// commit against the same question regardless of who calls it.
	done := make(chan struct {
		changed bool
		err     error
	}, 1)
	r.inbox <- func() {
		// Re-target the now-stale first question directly.
		q := r.deck[entity.TeamA][0]
		changed, err := func() (bool, error) {
			if q.Answered {
				return false, nil
			}
			r.commitQuestion(q, entity.TeamA, true, 0)
			return true, nil
		}()
		done <- struct {
			changed bool
			err     error
		}{changed, err}
	}
	res := <-done
	assert.False(t, res.changed, "re-commit of an already-answered question must be a no-op")
	assert.NoError(t, res.err)

	final := r.State()
	assert.Equal(t, scoreAfterFirst, final.ScoreA+final.ScoreB, "score must not double-count")
}

func TestRoom_Timeout_AdvancesTurnWithoutScoring(t *testing.T) {
	cfg := newTestConfig()
	cfg.EasyTimeout = 200 * time.Millisecond
	r := newTestRoomWithConfig(cfg, 1, entity.DifficultyEasy, 4)
	addPlayer(r, 1, "Host", true)
	_, _, err := r.Join("Player2", nil)
	require.NoError(t, err)

	snap, err := r.Start(1)
	require.NoError(t, err)
	require.Equal(t, entity.TeamA, snap.CurrentTeam)

	// Act: let the deadline timer fire once without answering. The next
	// question (team B) is armed with the same 200ms window, so the state is
	// read before that second timeout could fire and finish the game.
	time.Sleep(300 * time.Millisecond)

	final := r.State()
	assert.Equal(t, entity.TeamB, final.CurrentTeam, "timeout must advance the turn")
	assert.Equal(t, 0, final.ScoreA, "a timeout never scores")
	assert.Equal(t, 1, final.TeamStats[entity.TeamA].Timeout)
}

func TestRoom_PauseResume_RestoresRemainingWindow(t *testing.T) {
	cfg := newTestConfig()
	cfg.MediumTimeout = 2 * time.Second
	r := newTestRoomWithConfig(cfg, 1, entity.DifficultyMedium, 5)
	addPlayer(r, 1, "Host", true)
	_, _, err := r.Join("Player2", nil)
	require.NoError(t, err)

	snap, err := r.Start(1)
	require.NoError(t, err)
	require.Equal(t, entity.PhaseQuestion, snap.Phase)

	time.Sleep(300 * time.Millisecond)

	snap, err = r.HostControl(1, "pause", nil, "", "")
	require.NoError(t, err)
	assert.Equal(t, entity.PhasePaused, snap.Phase)
	require.NotNil(t, snap.QuestionSecondsLeft)
	assert.LessOrEqual(t, *snap.QuestionSecondsLeft, 2)

	// Pause past the point where the original 2s deadline would have fired;
	// the timer must not fire while paused.
	time.Sleep(2 * time.Second)
	stillPaused := r.State()
	assert.Equal(t, entity.PhasePaused, stillPaused.Phase)

	snap, err = r.HostControl(1, "resume", nil, "", "")
	require.NoError(t, err)
	assert.Equal(t, entity.PhaseQuestion, snap.Phase)

	// The re-armed timer should still fire roughly at the original
	// deadline: wait past the (short) remaining window and confirm the
	// turn advances on its own.
	time.Sleep(2 * time.Second)
	final := r.State()
	assert.Equal(t, entity.TeamB, final.CurrentTeam)
}

func TestRoom_CaptainDisconnect_PromotesEarliestActiveTeammate(t *testing.T) {
	r := newTestRoom(1, entity.DifficultyMedium, 6)
	addPlayer(r, 1, "Host", true)
	_, _, err := r.Join("Player2", nil)
	require.NoError(t, err)
	_, _, err = r.Join("Player3", nil)
	require.NoError(t, err)
	_, _, err = r.Join("Player4", nil)
	require.NoError(t, err)

	snap, err := r.Start(1)
	require.NoError(t, err)
	captain := currentCaptain(t, snap)

	// Find another active player on the same team as the captain.
	var teammateID uint
	for _, p := range snap.Players {
		if p.Team == captain.Team && p.ID != captain.ID {
			teammateID = p.ID
			break
		}
	}
	require.NotZero(t, teammateID, "each team of 2 must have a non-captain teammate")

	snap, err = r.Disconnect(captain.ID)
	require.NoError(t, err)

	var promoted *PlayerView
	for i := range snap.Players {
		if snap.Players[i].ID == teammateID {
			promoted = &snap.Players[i]
		}
	}
	require.NotNil(t, promoted)
	assert.True(t, promoted.IsCaptain, "the remaining active teammate must be promoted")

	for _, p := range snap.Players {
		if p.ID == captain.ID {
			assert.False(t, p.IsCaptain)
		}
	}
}

func TestRoom_CaptainDisconnect_NoTeammateLeavesTeamCaptainless(t *testing.T) {
	// spec.md §9: a kicked/disconnected captain's team may be left without
	// any captain at all -- that is the specified behavior, not a bug.
	r := newTestRoom(1, entity.DifficultyMedium, 7)
	addPlayer(r, 1, "Host", true)
	_, _, err := r.Join("Player2", nil)
	require.NoError(t, err)

	snap, err := r.Start(1)
	require.NoError(t, err)
	captain := currentCaptain(t, snap)

	snap, err = r.Disconnect(captain.ID)
	require.NoError(t, err)

	for _, p := range snap.Players {
		if p.Team == captain.Team {
			assert.False(t, p.IsCaptain)
		}
	}
}

func TestRoom_Vote_DoesNotCommitAndIsClearedOnTransition(t *testing.T) {
	r := newTestRoom(1, entity.DifficultyMedium, 8)
	addPlayer(r, 1, "Host", true)
	_, _, err := r.Join("Player2", nil)
	require.NoError(t, err)
	_, _, err = r.Join("Player3", nil)
	require.NoError(t, err)
	_, _, err = r.Join("Player4", nil)
	require.NoError(t, err)

	snap, err := r.Start(1)
	require.NoError(t, err)
	captain := currentCaptain(t, snap)

	var voter uint
	for _, p := range snap.Players {
		if p.Team == captain.Team && !p.IsCaptain {
			voter = p.ID
			break
		}
	}
	require.NotZero(t, voter)

	snap, err = r.Vote(voter, "opt2")
	require.NoError(t, err)
	assert.Equal(t, 100, snap.VotePercentages["opt2"])

	// Commit the question; votes must clear.
	snap, err = r.Answer(captain.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, snap.VotePercentages)
}

func TestRoom_VotePercentages_TruncateDown(t *testing.T) {
	// spec.md §8 scenario S6: votes {1:"opt1", 2:"opt1", 3:"opt2"} yields
	// {"opt1": 66, "opt2": 33}, truncated.
	votes := map[uint]string{1: "opt1", 2: "opt1", 3: "opt2"}
	pct := votePercentages(votes)
	assert.Equal(t, 66, pct["opt1"])
	assert.Equal(t, 33, pct["opt2"])
}

func TestRoom_NonCaptain_CannotAnswer(t *testing.T) {
	r := newTestRoom(1, entity.DifficultyMedium, 9)
	addPlayer(r, 1, "Host", true)
	_, _, err := r.Join("Player2", nil)
	require.NoError(t, err)
	_, _, err = r.Join("Player3", nil)
	require.NoError(t, err)
	_, _, err = r.Join("Player4", nil)
	require.NoError(t, err)

	snap, err := r.Start(1)
	require.NoError(t, err)
	captain := currentCaptain(t, snap)

	var nonCaptainTeammate uint
	for _, p := range snap.Players {
		if p.Team == captain.Team && !p.IsCaptain {
			nonCaptainTeammate = p.ID
			break
		}
	}
	require.NotZero(t, nonCaptainTeammate)

	_, err = r.Answer(nonCaptainTeammate, 0)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = r.Answer(captain.ID+1000, 0) // unknown player
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestRoom_TransferCaptain_MovesFlagAtomically(t *testing.T) {
	r := newTestRoom(1, entity.DifficultyMedium, 10)
	addPlayer(r, 1, "Host", true)
	_, _, err := r.Join("Player2", nil)
	require.NoError(t, err)
	_, _, err = r.Join("Player3", nil)
	require.NoError(t, err)
	_, _, err = r.Join("Player4", nil)
	require.NoError(t, err)

	snap, err := r.Start(1)
	require.NoError(t, err)
	captain := currentCaptain(t, snap)

	var teammate uint
	for _, p := range snap.Players {
		if p.Team == captain.Team && !p.IsCaptain {
			teammate = p.ID
			break
		}
	}
	require.NotZero(t, teammate)

	snap, err = r.TransferCaptain(captain.ID, teammate)
	require.NoError(t, err)

	for _, p := range snap.Players {
		if p.ID == captain.ID {
			assert.False(t, p.IsCaptain)
		}
		if p.ID == teammate {
			assert.True(t, p.IsCaptain)
		}
	}
}

func TestRoom_TransferCaptain_RejectsCrossTeamTarget(t *testing.T) {
	r := newTestRoom(1, entity.DifficultyMedium, 11)
	addPlayer(r, 1, "Host", true)
	_, _, err := r.Join("Player2", nil)
	require.NoError(t, err)

	snap, err := r.Start(1)
	require.NoError(t, err)
	captain := currentCaptain(t, snap)

	var otherTeamID uint
	for _, p := range snap.Players {
		if p.Team != captain.Team && p.Team != "" {
			otherTeamID = p.ID
		}
	}
	require.NotZero(t, otherTeamID)

	_, err = r.TransferCaptain(captain.ID, otherTeamID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestRoom_HostControl_NextQuestion_ConsumesAsSkip(t *testing.T) {
	r := newTestRoom(1, entity.DifficultyMedium, 12)
	addPlayer(r, 1, "Host", true)
	_, _, err := r.Join("Player2", nil)
	require.NoError(t, err)

	snap, err := r.Start(1)
	require.NoError(t, err)
	require.Equal(t, entity.TeamA, snap.CurrentTeam)

	snap, err = r.HostControl(1, "next_question", nil, "", "")
	require.NoError(t, err)
	assert.Equal(t, entity.TeamB, snap.CurrentTeam)
	assert.Equal(t, 0, snap.ScoreA)
	assert.Equal(t, 1, snap.TeamStats[entity.TeamA].Incorrect)
}

func TestRoom_HostControl_Kick_PromotesCaptainAndDeactivates(t *testing.T) {
	r := newTestRoom(1, entity.DifficultyMedium, 13)
	addPlayer(r, 1, "Host", true)
	_, _, err := r.Join("Player2", nil)
	require.NoError(t, err)
	_, _, err = r.Join("Player3", nil)
	require.NoError(t, err)
	_, _, err = r.Join("Player4", nil)
	require.NoError(t, err)

	snap, err := r.Start(1)
	require.NoError(t, err)
	captain := currentCaptain(t, snap)
	target := captain.ID

	var teammate uint
	for _, p := range snap.Players {
		if p.Team == captain.Team && p.ID != captain.ID {
			teammate = p.ID
			break
		}
	}
	require.NotZero(t, teammate)

	snap, err = r.HostControl(1, "kick", &target, "", "")
	require.NoError(t, err)

	for _, p := range snap.Players {
		if p.ID == target {
			assert.False(t, p.IsCaptain, "kicked player must not remain captain")
		}
		if p.ID == teammate {
			assert.True(t, p.IsCaptain, "the remaining active teammate must be promoted")
		}
	}
}

func TestRoom_HostControl_RequiresHost(t *testing.T) {
	r := newTestRoom(1, entity.DifficultyMedium, 14)
	addPlayer(r, 1, "Host", true)
	player2, _, err := r.Join("Player2", nil)
	require.NoError(t, err)

	_, err = r.HostControl(player2.ID, "pause", nil, "", "")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestRoom_Restart_OnlyFromFinished(t *testing.T) {
	r := newTestRoom(1, entity.DifficultyMedium, 15)
	addPlayer(r, 1, "Host", true)
	_, _, err := r.Join("Player2", nil)
	require.NoError(t, err)
	_, err = r.Start(1)
	require.NoError(t, err)

	_, err = r.HostControl(1, "restart", nil, "", "")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestRoom_Restart_ResetsStateAndDeck(t *testing.T) {
	r := newTestRoom(1, entity.DifficultyMedium, 16)
	addPlayer(r, 1, "Host", true)
	_, _, err := r.Join("Player2", nil)
	require.NoError(t, err)

	snap, err := r.Start(1)
	require.NoError(t, err)
	for i := 0; i < 2; i++ { // 1 question per team = 2 commits to finish
		captain := currentCaptain(t, snap)
		snap, err = r.Answer(captain.ID, 0)
		require.NoError(t, err)
	}
	require.Equal(t, entity.RoomStatusFinished, snap.Status)

	snap, err = r.HostControl(1, "restart", nil, "Physics", entity.DifficultyHard)
	require.NoError(t, err)

	assert.Equal(t, entity.RoomStatusWaiting, snap.Status)
	assert.Equal(t, entity.PhaseGathering, snap.Phase)
	assert.Equal(t, 0, snap.ScoreA)
	assert.Equal(t, 0, snap.ScoreB)
	assert.Equal(t, entity.TeamNone, snap.CurrentTeam)
	assert.Equal(t, "Physics", r.topic)
	assert.Equal(t, entity.DifficultyHard, r.difficulty)

	for _, p := range snap.Players {
		if !p.IsHost {
			assert.Equal(t, entity.TeamNone, p.Team)
			assert.False(t, p.IsCaptain)
		}
	}
}

func TestRoom_Start_RejectsFewerThanTwoPlayers(t *testing.T) {
	r := newTestRoom(1, entity.DifficultyMedium, 17)
	addPlayer(r, 1, "Host", true)

	_, err := r.Start(1)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestRoom_Join_RejectsDuplicateName(t *testing.T) {
	r := newTestRoom(1, entity.DifficultyMedium, 18)
	addPlayer(r, 1, "Host", true)

	_, _, err := r.Join("Host", nil)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestRoom_Join_RejectsDuplicateUserID(t *testing.T) {
	r := newTestRoom(1, entity.DifficultyMedium, 19)
	uid := uint(42)
	host := addPlayer(r, 1, "Host", true)
	host.UserID = &uid

	_, _, err := r.Join("SomeoneElse", &uid)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestRoom_Join_RejectsAfterStart(t *testing.T) {
	r := newTestRoom(1, entity.DifficultyMedium, 20)
	addPlayer(r, 1, "Host", true)
	_, _, err := r.Join("Player2", nil)
	require.NoError(t, err)
	_, err = r.Start(1)
	require.NoError(t, err)

	_, _, err = r.Join("LateJoiner", nil)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestRoom_ScoreBounds_NeverExceedThreePerCorrectAnswer(t *testing.T) {
	r := newTestRoom(3, entity.DifficultyMedium, 21)
	addPlayer(r, 1, "Host", true)
	_, _, err := r.Join("Player2", nil)
	require.NoError(t, err)

	snap, err := r.Start(1)
	require.NoError(t, err)

	total := 2 * 3
	for i := 0; i < total; i++ {
		captain := currentCaptain(t, snap)
		snap, err = r.Answer(captain.ID, 0)
		require.NoError(t, err)
	}

	maxPossible := 3 * snap.TeamStats[entity.TeamA].Correct
	assert.LessOrEqual(t, snap.ScoreA, maxPossible)
	maxPossibleB := 3 * snap.TeamStats[entity.TeamB].Correct
	assert.LessOrEqual(t, snap.ScoreB, maxPossibleB)
}

func TestRoom_Projector_NeverLeaksCorrectOption(t *testing.T) {
	r := newTestRoom(1, entity.DifficultyMedium, 22)
	addPlayer(r, 1, "Host", true)
	_, _, err := r.Join("Player2", nil)
	require.NoError(t, err)

	snap, err := r.Start(1)
	require.NoError(t, err)
	require.NotNil(t, snap.CurrentQuestion)

	// QuestionView has no CorrectOption field at all -- the type itself
	// enforces this, but assert the marshaled snapshot carries no
	// correct_option key as a regression guard.
	assert.NotEmpty(t, snap.CurrentQuestion.Options)
	assert.Len(t, snap.CurrentQuestion.Options, 4)

	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "correct_option")
}
