package sdk

import (
	"math/rand"
	"testing"
)

// These tests drive full games with a simple scripted policy and check the
// invariants/testable properties after every single transition, rather than
// asserting one fixed scenario.

func TestPropertyFullGamePlayouts(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		runPropertyPlayout(t, seed)
	}
}

func runPropertyPlayout(t *testing.T, seed int64) {
	t.Helper()

	players := []*Player{
		NewPlayer("A", "A", false, DifficultyModerate),
		NewPlayer("B", "B", true, DifficultyModerate),
		NewPlayer("C", "C", true, DifficultyModerate),
	}
	state := NewGame(players, 100, seed)
	totalCards := len(state.Deck.AllCards())
	rng := rand.New(rand.NewSource(seed * 7919))

	const maxSteps = 5000
	for steps := 0; state.Status != GameStatusGameEnd; steps++ {
		if steps > maxSteps {
			t.Fatalf("seed %d: did not reach GameEnd within %d steps (P8 termination)", seed, maxSteps)
		}

		res := stepGame(state, rng)
		if res.Err != nil {
			t.Fatalf("seed %d: unexpected error at step %d: %v", seed, steps, res.Err)
		}
		state = res.NextState

		assertCardConservation(t, seed, state, totalCards) // P1
		assertNumberUniqueness(t, seed, state)              // P2
		assertTurnSafety(t, seed, state)                    // P3
	}

	assertRoundBookkeeping(t, seed, state) // P7
}

func TestPropertyDeterminismUnderSeed(t *testing.T) {
	run := func(seed int64) []RoundResult {
		players := []*Player{
			NewPlayer("A", "A", false, DifficultyModerate),
			NewPlayer("B", "B", true, DifficultyModerate),
			NewPlayer("C", "C", true, DifficultyModerate),
		}
		state := NewGame(players, 100, seed)
		rng := rand.New(rand.NewSource(seed * 7919))
		for state.Status != GameStatusGameEnd {
			res := stepGame(state, rng)
			if res.Err != nil {
				t.Fatalf("unexpected error: %v", res.Err)
			}
			state = res.NextState
		}
		return state.RoundHistory
	}

	a := run(123)
	b := run(123)
	if len(a) != len(b) {
		t.Fatalf("expected identical round counts for the same seed, got %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !roundResultsEqual(a[i], b[i]) {
			t.Fatalf("round %d diverged between two runs of the same seed: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func roundResultsEqual(a, b RoundResult) bool {
	if a.Round != b.Round || a.PlayerID != b.PlayerID || a.Score != b.Score || a.Busted != b.Busted {
		return false
	}
	if len(a.NumberCards) != len(b.NumberCards) {
		return false
	}
	for i := range a.NumberCards {
		if a.NumberCards[i] != b.NumberCards[i] {
			return false
		}
	}
	return true
}

// stepGame advances state by exactly one rules-engine call, picking whatever
// input the current status/pending fields require.
func stepGame(state *GameState, rng *rand.Rand) Result {
	switch state.Status {
	case GameStatusWaiting:
		return StartRound(state)
	case GameStatusRoundEnd:
		return StartNextRound(state)
	}

	if pac := state.PendingActionCard; pac != nil {
		target := pickTarget(state, rng)
		return ApplyPlayAction(state, pac.PlayerID, pac.CardID, target)
	}

	current := state.Players[state.CurrentPlayerIndex]
	if len(current.NumberCards) >= 4 && rng.Intn(2) == 0 {
		return ApplyStay(state, current.ID)
	}
	return ApplyHit(state, current.ID)
}

func pickTarget(state *GameState, rng *rand.Rand) string {
	active := state.ActivePlayers()
	if len(active) == 0 {
		return state.PendingActionCard.PlayerID
	}
	return active[rng.Intn(len(active))].ID
}

func assertCardConservation(t *testing.T, seed int64, state *GameState, total int) {
	t.Helper()
	held := 0
	for _, p := range state.Players {
		held += len(p.NumberCards) + len(p.ModifierCards) + len(p.ActionCards)
	}
	if got := held + state.Deck.DeckSize() + state.Deck.DiscardSize(); got != total {
		t.Fatalf("seed %d: card conservation violated: have %d, want %d", seed, got, total)
	}
}

func assertNumberUniqueness(t *testing.T, seed int64, state *GameState) {
	t.Helper()
	for _, p := range state.Players {
		seen := map[int]bool{}
		for _, v := range p.NumberCards {
			if seen[v] {
				t.Fatalf("seed %d: duplicate number %d in %s's hand", seed, v, p.ID)
			}
			seen[v] = true
		}
	}
}

func assertTurnSafety(t *testing.T, seed int64, state *GameState) {
	t.Helper()
	if state.Status != GameStatusPlaying {
		return
	}
	if state.PendingActionCard != nil || state.PendingFlipThreeRemaining != nil {
		return
	}
	if !state.Players[state.CurrentPlayerIndex].IsActive {
		t.Fatalf("seed %d: current player inactive while status is Playing", seed)
	}
}

func assertRoundBookkeeping(t *testing.T, seed int64, state *GameState) {
	t.Helper()
	totals := map[string]int{}
	for _, rr := range state.RoundHistory {
		totals[rr.PlayerID] += rr.Score
	}
	for _, p := range state.Players {
		if totals[p.ID] != p.Score {
			t.Fatalf("seed %d: %s running total %d does not match sum of roundHistory entries %d", seed, p.ID, p.Score, totals[p.ID])
		}
	}
}
