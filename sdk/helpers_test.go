package sdk

import "math/rand"

func deterministicRNG() *rand.Rand {
	return rand.New(rand.NewSource(1))
}

// newRiggedGame builds a two-or-more player GameState already in Playing
// status, with its deck's draw order pinned to order (drawn in list order)
// and every player dealt the given starting NumberCards. Used by scenario
// tests that need to control exactly which cards come up next, rather than
// relying on StartRound's own (unrigged) initial deal.
func newRiggedGame(playerIDs []string, startingHands map[string][]int, order []Card) *GameState {
	players := make([]*Player, len(playerIDs))
	for i, id := range playerIDs {
		p := NewPlayer(id, id, false, DifficultyModerate)
		p.IsActive = true
		p.NumberCards = append([]int(nil), startingHands[id]...)
		players[i] = p
	}
	state := &GameState{
		Players:     players,
		Status:      GameStatusPlaying,
		Deck:        newRiggedDeck(order),
		RoundScores: make(map[string]int),
		TargetScore: DefaultTargetScore,
		Round:       1,
	}
	for _, p := range players {
		state.RoundScores[p.ID] = p.RoundScore()
	}
	return state
}
