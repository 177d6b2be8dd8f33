// Package ai implements the AI Policy: a pure function from a game state
// and a seat to the decision that seat's bot makes next. It never touches
// a Room, a socket, or a clock - scheduling and timeouts are the Room's job.
package ai

import "flip7server/sdk"

// DecisionKind tags the three shapes a Decision can take.
type DecisionKind string

const (
	DecisionHit        DecisionKind = "hit"
	DecisionStay       DecisionKind = "stay"
	DecisionPlayAction DecisionKind = "play_action"
)

// Decision is what Decide returns; the Room translates it into the same
// ApplyHit/ApplyStay/ApplyPlayAction calls a human input would produce.
type Decision struct {
	Kind     DecisionKind
	CardID   string // set when Kind == DecisionPlayAction
	TargetID string // set when Kind == DecisionPlayAction
}

// Decide computes the next move for playerID, who must be an AI seat
// (isAI == true) and the one the engine is currently waiting on - either as
// the current player, or as the holder of a pending action card.
func Decide(state *sdk.GameState, playerID string) Decision {
	player := state.PlayerByID(playerID)
	if player == nil {
		return Decision{Kind: DecisionStay}
	}

	if pac := state.PendingActionCard; pac != nil && pac.PlayerID == playerID {
		return Decision{
			Kind:     DecisionPlayAction,
			CardID:   pac.CardID,
			TargetID: chooseTarget(state, player, pac.Kind),
		}
	}

	if shouldStay(state, player) {
		return Decision{Kind: DecisionStay}
	}
	return Decision{Kind: DecisionHit}
}

// chooseTarget picks a target for a pending Freeze or FlipThree.
func chooseTarget(state *sdk.GameState, actor *sdk.Player, kind sdk.ActionKind) string {
	if kind == sdk.ActionFlipThree {
		// Always target self: prevents griefing stalls and matches observed
		// behavior from comparable reference bots.
		return actor.ID
	}
	return chooseFreezeTarget(state, actor)
}

// chooseFreezeTarget targets the opposing active player with the highest
// provisional round score, breaking ties by more unique number cards held.
// Self-freezes only if no other active player exists.
func chooseFreezeTarget(state *sdk.GameState, actor *sdk.Player) string {
	var best *sdk.Player
	bestScore, bestUnique := -1, -1

	for _, p := range state.ActivePlayers() {
		if p.ID == actor.ID {
			continue
		}
		score, unique := p.RoundScore(), len(p.NumberCards)
		if score > bestScore || (score == bestScore && unique > bestUnique) {
			best, bestScore, bestUnique = p, score, unique
		}
	}
	if best == nil {
		return actor.ID
	}
	return best.ID
}

// shouldStay implements the Hit/Stay heuristic from the AI Policy.
// Difficulty biases every threshold by roughly 20%: conservative lowers
// them (stays sooner), aggressive raises them (stays later).
func shouldStay(state *sdk.GameState, player *sdk.Player) bool {
	unique := len(player.NumberCards)
	score := player.RoundScore()
	hasSecondChance := player.HasUnusedSecondChance()
	bustProbability := estimateBustProbability(state, player)

	f := difficultyFactor(player.Difficulty)

	if score >= scale(50, f) && unique >= scale(5, f) {
		return true
	}
	if unique >= scale(6, f) && !hasSecondChance {
		return true
	}
	if bustProbability >= 0.30*f {
		return true
	}
	if score >= scale(30, f) && player.HasMultiplier() && unique >= scale(3, f) {
		return true
	}
	return false
}

// estimateBustProbability is the share of the remaining draw pile whose
// value the player already holds.
func estimateBustProbability(state *sdk.GameState, player *sdk.Player) float64 {
	pile := state.Deck.DrawPileCards()
	if len(pile) == 0 {
		return 0
	}
	matches := 0
	for _, c := range pile {
		if c.Kind == sdk.CardKindNumber && player.HasNumber(c.NumberValue) {
			matches++
		}
	}
	return float64(matches) / float64(len(pile))
}

func difficultyFactor(d sdk.AIDifficulty) float64 {
	switch d {
	case sdk.DifficultyConservative:
		return 0.8
	case sdk.DifficultyAggressive:
		return 1.2
	default:
		return 1.0
	}
}

func scale(threshold int, factor float64) int {
	return int(float64(threshold) * factor)
}
