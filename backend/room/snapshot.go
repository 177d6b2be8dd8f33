package room

import "flip7server/sdk"

// Snapshot is the wire-friendly view broadcast as game:state / room:updated.
// It is rebuilt fresh on every broadcast rather than mutated incrementally,
// matching spec.md §4.4's "a fresh state snapshot is broadcast ... before
// the next input is processed".
type Snapshot struct {
	RoomCode      string     `json:"roomCode"`
	Status        Status     `json:"status"`
	Seq           int        `json:"seq"`
	HostSessionID string     `json:"hostSessionId"`
	Seats         []SeatView `json:"seats"`
	Game          *GameView  `json:"game,omitempty"`
}

type SeatView struct {
	SessionID  string `json:"sessionId"`
	PlayerID   string `json:"playerId"`
	Name       string `json:"name"`
	IsAI       bool   `json:"isAI"`
	Difficulty string `json:"difficulty,omitempty"`
	Connected  bool   `json:"connected"`
}

type GameView struct {
	Status                    sdk.GameStatus  `json:"status"`
	Round                     int             `json:"round"`
	TargetScore               int             `json:"targetScore"`
	CurrentPlayerID           string          `json:"currentPlayerId,omitempty"`
	DealerPlayerID            string          `json:"dealerPlayerId,omitempty"`
	DeckSize                  int             `json:"deckSize"`
	DiscardSize               int             `json:"discardSize"`
	Players                   []PlayerView    `json:"players"`
	PendingActionCard         *PendingView    `json:"pendingActionCard,omitempty"`
	PendingFlipThreeRemaining *int            `json:"pendingFlipThreeRemaining,omitempty"`
	FlipThreeTarget           string          `json:"flipThreeTarget,omitempty"`
	FlipThreeActor            string          `json:"flipThreeActor,omitempty"`
	RoundHistory              []sdk.RoundResult `json:"roundHistory,omitempty"`
}

type PendingView struct {
	PlayerID string        `json:"playerId"`
	CardID   string        `json:"cardId"`
	Kind     sdk.ActionKind `json:"kind"`
}

type PlayerView struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	IsAI          bool   `json:"isAI"`
	Score         int    `json:"score"`
	RoundScore    int    `json:"roundScore"`
	NumberCards   []int  `json:"numberCards"`
	ModifierCount int    `json:"modifierCount"`
	ActionCount   int    `json:"actionCount"`
	HasBusted     bool   `json:"hasBusted"`
	IsActive      bool   `json:"isActive"`
	FrozenBy      string `json:"frozenBy,omitempty"`
}

func newSnapshot(r *Room, seq int) *Snapshot {
	snap := &Snapshot{
		RoomCode:      r.Code,
		Status:        r.status,
		Seq:           seq,
		HostSessionID: r.hostSessionID,
	}
	snap.Seats = make([]SeatView, len(r.seats))
	for i, s := range r.seats {
		snap.Seats[i] = SeatView{
			SessionID:  s.SessionID,
			PlayerID:   s.PlayerID,
			Name:       s.Name,
			IsAI:       s.IsAI,
			Difficulty: string(s.Difficulty),
			Connected:  s.Connected,
		}
	}
	if r.state != nil {
		snap.Game = newGameView(r.state)
	}
	return snap
}

func newGameView(state *sdk.GameState) *GameView {
	view := &GameView{
		Status:                    state.Status,
		Round:                     state.Round,
		TargetScore:               state.TargetScore,
		DeckSize:                  state.Deck.DeckSize(),
		DiscardSize:               state.Deck.DiscardSize(),
		PendingFlipThreeRemaining: state.PendingFlipThreeRemaining,
		FlipThreeTarget:           state.FlipThreeTarget,
		FlipThreeActor:            state.FlipThreeActor,
		RoundHistory:              state.RoundHistory,
	}
	if state.CurrentPlayerIndex >= 0 && state.CurrentPlayerIndex < len(state.Players) {
		view.CurrentPlayerID = state.Players[state.CurrentPlayerIndex].ID
	}
	if state.DealerIndex >= 0 && state.DealerIndex < len(state.Players) {
		view.DealerPlayerID = state.Players[state.DealerIndex].ID
	}
	if state.PendingActionCard != nil {
		view.PendingActionCard = &PendingView{
			PlayerID: state.PendingActionCard.PlayerID,
			CardID:   state.PendingActionCard.CardID,
			Kind:     state.PendingActionCard.Kind,
		}
	}
	view.Players = make([]PlayerView, len(state.Players))
	for i, p := range state.Players {
		view.Players[i] = PlayerView{
			ID:            p.ID,
			Name:          p.Name,
			IsAI:          p.IsAI,
			Score:         p.Score,
			RoundScore:    p.RoundScore(),
			NumberCards:   append([]int(nil), p.NumberCards...),
			ModifierCount: len(p.ModifierCards),
			ActionCount:   len(p.ActionCards),
			HasBusted:     p.HasBusted,
			IsActive:      p.IsActive,
			FrozenBy:      p.FrozenBy,
		}
	}
	return view
}
