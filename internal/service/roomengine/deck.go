package roomengine

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/yourusername/quizbattle/internal/domain/entity"
)

// buildDeck fetches 2*questionsPerTeam questions from the Oracle and splits
// them evenly between the two teams, each team's order_index covering
// [0, questionsPerTeam) (spec.md §3 invariant 8). correct_option is
// converted from the Oracle's 1-based contract to the storage-level
// 0-based representation at this single insertion point (spec.md §9).
func buildDeck(ctx context.Context, o Oracle, roomID uint, topic, difficulty string, questionsPerTeam int, rng *rand.Rand) ([]entity.Question, error) {
	total := 2 * questionsPerTeam
	fetched, err := o.Fetch(ctx, topic, difficulty, total)
	if err != nil {
		return nil, err
	}
	// A short batch would leave one team's order_index range with holes and
	// wedge the room once play reaches the first missing question, so an
	// under-delivering oracle is a hard error here, never a shorter deck.
	if len(fetched) < total {
		return nil, fmt.Errorf("roomengine: oracle delivered %d/%d questions for topic %q", len(fetched), total, topic)
	}
	fetched = fetched[:total]
	rng.Shuffle(len(fetched), func(i, j int) { fetched[i], fetched[j] = fetched[j], fetched[i] })

	deck := make([]entity.Question, 0, total)
	for i, q := range fetched {
		team := entity.TeamA
		orderIndex := i
		if i >= questionsPerTeam {
			team = entity.TeamB
			orderIndex = i - questionsPerTeam
		}
		question := entity.Question{
			RoomID:        roomID,
			Team:          team,
			OrderIndex:    orderIndex,
			Text:          q.Text,
			CorrectOption: q.CorrectOption - 1,
			Answered:      false,
		}
		question.SetOptions(q.Options[:])
		deck = append(deck, question)
	}
	return deck, nil
}
