package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"flip7server/ai"
	"flip7server/sdk"
)

// A thin CLI that drives one full all-AI match through the Rules Engine and
// AI Policy directly, with no Room/Gateway involved - handy for eyeballing a
// played-out game without standing up the server.
func main() {
	fmt.Println("Flip 7 match simulator")
	fmt.Println("======================")
	fmt.Println()

	verbose := true
	if len(os.Args) > 1 && os.Args[1] == "-q" {
		verbose = false
	}

	seed := time.Now().UnixNano()
	if len(os.Args) > 2 {
		var parsed int64
		if _, err := fmt.Sscanf(os.Args[2], "%d", &parsed); err == nil {
			seed = parsed
		}
	}

	fmt.Printf("Simulating a match (seed=%d)...\n", seed)
	start := time.Now()

	state, err := simulateMatch(seed, verbose)
	if err != nil {
		log.Fatalf("simulation failed: %v", err)
	}

	fmt.Println()
	fmt.Println("Match complete.")
	fmt.Printf("Elapsed: %v\n", time.Since(start))
	fmt.Println()
	for _, p := range state.Players {
		fmt.Printf("  %-10s score=%d\n", p.Name, p.Score)
	}
}

func simulateMatch(seed int64, verbose bool) (*sdk.GameState, error) {
	players := []*sdk.Player{
		sdk.NewPlayer("p1", "Alice", true, sdk.DifficultyModerate),
		sdk.NewPlayer("p2", "Bob", true, sdk.DifficultyAggressive),
		sdk.NewPlayer("p3", "Cara", true, sdk.DifficultyConservative),
	}

	state := sdk.NewGame(players, sdk.DefaultTargetScore, seed)
	result := sdk.StartRound(state)
	if result.Err != nil {
		return nil, result.Err
	}
	state = result.NextState

	const maxSteps = 10000
	for step := 0; step < maxSteps; step++ {
		if state.Status == sdk.GameStatusGameEnd {
			return state, nil
		}
		if state.Status == sdk.GameStatusRoundEnd {
			if verbose {
				fmt.Printf("round %d ended\n", state.Round)
			}
			result = sdk.StartNextRound(state)
			if result.Err != nil {
				return nil, result.Err
			}
			state = result.NextState
			continue
		}

		actorID := currentActor(state)
		decision := ai.Decide(state, actorID)
		switch decision.Kind {
		case ai.DecisionHit:
			result = sdk.ApplyHit(state, actorID)
		case ai.DecisionStay:
			result = sdk.ApplyStay(state, actorID)
		case ai.DecisionPlayAction:
			result = sdk.ApplyPlayAction(state, actorID, decision.CardID, decision.TargetID)
		}
		if result.Err != nil {
			return nil, result.Err
		}
		state = result.NextState
		if verbose {
			for _, eff := range result.Effects {
				fmt.Printf("  %s\n", eff.Kind())
			}
		}
	}
	return nil, fmt.Errorf("simulation did not terminate within %d steps", maxSteps)
}

func currentActor(state *sdk.GameState) string {
	if pac := state.PendingActionCard; pac != nil {
		return pac.PlayerID
	}
	if state.PendingFlipThreeRemaining != nil {
		return state.FlipThreeTarget
	}
	return state.Players[state.CurrentPlayerIndex].ID
}
