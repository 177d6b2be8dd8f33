package ai

import (
	"testing"

	"flip7server/sdk"
)

func newAIState(targetScore int, difficulty sdk.AIDifficulty, numberCards []int) (*sdk.GameState, *sdk.Player) {
	players := []*sdk.Player{
		sdk.NewPlayer("bot", "bot", true, difficulty),
		sdk.NewPlayer("human", "human", false, sdk.DifficultyModerate),
	}
	state := sdk.NewGame(players, targetScore, 5)
	bot := state.PlayerByID("bot")
	bot.IsActive = true
	bot.NumberCards = numberCards
	state.Status = sdk.GameStatusPlaying
	return state, bot
}

func TestDecideHitsOnASafeHand(t *testing.T) {
	state, _ := newAIState(200, sdk.DifficultyModerate, []int{1, 2})
	d := Decide(state, "bot")
	if d.Kind != DecisionHit {
		t.Fatalf("expected Hit on a small safe hand, got %v", d.Kind)
	}
}

func TestDecideStaysOnHighScoreAndManyUniques(t *testing.T) {
	// Five distinct top values: 12+11+10+9+8 = 50, unique = 5.
	state, _ := newAIState(200, sdk.DifficultyModerate, []int{12, 11, 10, 9, 8})
	d := Decide(state, "bot")
	if d.Kind != DecisionStay {
		t.Fatalf("expected Stay once score>=50 and unique>=5, got %v", d.Kind)
	}
}

func TestDecideStaysOnSixUniquesWithoutSecondChance(t *testing.T) {
	state, _ := newAIState(200, sdk.DifficultyModerate, []int{1, 2, 3, 4, 5, 6})
	d := Decide(state, "bot")
	if d.Kind != DecisionStay {
		t.Fatalf("expected Stay with 6 uniques and no Second Chance, got %v", d.Kind)
	}
}

func TestDecideDifficultyBiasesThresholds(t *testing.T) {
	// Five low-value uniques (low bust probability, low score) so only the
	// "unique >= 6" threshold is in play: lowered ~20% for conservative
	// crosses at 5 uniques, raised ~20% for aggressive does not.
	hand := []int{1, 2, 3, 4, 5}

	consState, _ := newAIState(200, sdk.DifficultyConservative, append([]int(nil), hand...))
	aggroState, _ := newAIState(200, sdk.DifficultyAggressive, append([]int(nil), hand...))

	cons := Decide(consState, "bot")
	aggro := Decide(aggroState, "bot")

	if cons.Kind != DecisionStay {
		t.Fatalf("expected a conservative bot to stay at 5 low uniques, got %v", cons.Kind)
	}
	if aggro.Kind != DecisionHit {
		t.Fatalf("expected an aggressive bot to keep hitting at 5 low uniques, got %v", aggro.Kind)
	}
}

func TestDecideResolvesPendingFreezeAgainstHighestScorer(t *testing.T) {
	players := []*sdk.Player{
		sdk.NewPlayer("bot", "bot", true, sdk.DifficultyModerate),
		sdk.NewPlayer("low", "low", false, sdk.DifficultyModerate),
		sdk.NewPlayer("high", "high", false, sdk.DifficultyModerate),
	}
	state := sdk.NewGame(players, 200, 5)
	state.Status = sdk.GameStatusPlaying
	for _, p := range players {
		p.IsActive = true
	}
	state.PlayerByID("low").NumberCards = []int{1}
	state.PlayerByID("high").NumberCards = []int{9, 10}
	state.PendingActionCard = &sdk.PendingActionCard{PlayerID: "bot", CardID: "freeze-1", Kind: sdk.ActionFreeze}

	d := Decide(state, "bot")
	if d.Kind != DecisionPlayAction || d.TargetID != "high" {
		t.Fatalf("expected the bot to target the higher scorer, got %+v", d)
	}
}

func TestDecideAlwaysTargetsSelfForFlipThree(t *testing.T) {
	players := []*sdk.Player{
		sdk.NewPlayer("bot", "bot", true, sdk.DifficultyModerate),
		sdk.NewPlayer("other", "other", false, sdk.DifficultyModerate),
	}
	state := sdk.NewGame(players, 200, 5)
	state.Status = sdk.GameStatusPlaying
	for _, p := range players {
		p.IsActive = true
	}
	state.PendingActionCard = &sdk.PendingActionCard{PlayerID: "bot", CardID: "flip3-1", Kind: sdk.ActionFlipThree}

	d := Decide(state, "bot")
	if d.Kind != DecisionPlayAction || d.TargetID != "bot" {
		t.Fatalf("expected FlipThree to always target self, got %+v", d)
	}
}

func TestDecideSelfFreezesWhenNoOpponentIsActive(t *testing.T) {
	players := []*sdk.Player{
		sdk.NewPlayer("bot", "bot", true, sdk.DifficultyModerate),
		sdk.NewPlayer("other", "other", false, sdk.DifficultyModerate),
	}
	state := sdk.NewGame(players, 200, 5)
	state.Status = sdk.GameStatusPlaying
	state.PlayerByID("bot").IsActive = true
	state.PlayerByID("other").IsActive = false
	state.PendingActionCard = &sdk.PendingActionCard{PlayerID: "bot", CardID: "freeze-1", Kind: sdk.ActionFreeze}

	d := Decide(state, "bot")
	if d.TargetID != "bot" {
		t.Fatalf("expected a self-freeze when no opponent is active, got target %s", d.TargetID)
	}
}
