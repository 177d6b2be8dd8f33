package sdk

import "math/rand"

// StateDTO is the fully-exported mirror of GameState used by callers that
// need to carry a GameState across a process boundary (the REST fallback's
// client-carries-the-state contract, spec.md §6). sdk itself does no I/O -
// it never imports encoding/json - but every field here is exported and tag-
// friendly so a caller's own (de)serialization can round-trip it losslessly,
// deck contents included.
type StateDTO struct {
	Players                   []*Player
	CurrentPlayerIndex        int
	DealerIndex               int
	Round                     int
	DrawPile                  []Card
	DiscardPile               []Card
	DeckRNGSeed               int64
	Status                    GameStatus
	RoundScores               map[string]int
	PendingActionCard         *PendingActionCard
	PendingFlipThreeRemaining *int
	FlipThreeTarget           string
	FlipThreeActor            string
	RoundHistory              []RoundResult
	LargestRound              *RoundResult
	TargetScore               int
	FlipThreeFrames           []FlipThreeFrameDTO
}

// FlipThreeFrameDTO mirrors the unexported flipThreeFrame stack entry.
type FlipThreeFrameDTO struct {
	Target    string
	Actor     string
	Remaining int
}

// Export converts a GameState into its wire-friendly DTO. The deck's RNG
// stream position is not preserved across the round trip - only its seed is
// - so a reshuffle immediately after Import draws from a freshly-seeded
// shuffle rather than the exact in-memory sequence. Acceptable here: the
// REST fallback is single-player and stateless by contract, and the
// determinism property test keeps its GameState in memory rather than
// round-tripping it through a StateDTO.
func (s *GameState) Export(seed int64) StateDTO {
	frames := make([]FlipThreeFrameDTO, len(s.flipThreeFrames))
	for i, f := range s.flipThreeFrames {
		frames[i] = FlipThreeFrameDTO{Target: f.Target, Actor: f.Actor, Remaining: f.Remaining}
	}
	return StateDTO{
		Players:                   s.Players,
		CurrentPlayerIndex:        s.CurrentPlayerIndex,
		DealerIndex:               s.DealerIndex,
		Round:                     s.Round,
		DrawPile:                  s.Deck.DrawPileCards(),
		DiscardPile:               append([]Card(nil), s.Deck.discard...),
		DeckRNGSeed:               seed,
		Status:                    s.Status,
		RoundScores:               s.RoundScores,
		PendingActionCard:         s.PendingActionCard,
		PendingFlipThreeRemaining: s.PendingFlipThreeRemaining,
		FlipThreeTarget:           s.FlipThreeTarget,
		FlipThreeActor:            s.FlipThreeActor,
		RoundHistory:              s.RoundHistory,
		LargestRound:              s.LargestRound,
		TargetScore:               s.TargetScore,
		FlipThreeFrames:           frames,
	}
}

// Import reconstructs a GameState from a StateDTO previously produced by Export.
func Import(dto StateDTO) *GameState {
	frames := make([]flipThreeFrame, len(dto.FlipThreeFrames))
	for i, f := range dto.FlipThreeFrames {
		frames[i] = flipThreeFrame{Target: f.Target, Actor: f.Actor, Remaining: f.Remaining}
	}
	return &GameState{
		Players:            dto.Players,
		CurrentPlayerIndex: dto.CurrentPlayerIndex,
		DealerIndex:        dto.DealerIndex,
		Round:              dto.Round,
		Deck: Deck{
			draw:    append([]Card(nil), dto.DrawPile...),
			discard: append([]Card(nil), dto.DiscardPile...),
			rng:     rand.New(rand.NewSource(dto.DeckRNGSeed)),
		},
		Status:                    dto.Status,
		RoundScores:               dto.RoundScores,
		PendingActionCard:         dto.PendingActionCard,
		PendingFlipThreeRemaining: dto.PendingFlipThreeRemaining,
		FlipThreeTarget:           dto.FlipThreeTarget,
		FlipThreeActor:            dto.FlipThreeActor,
		RoundHistory:              dto.RoundHistory,
		LargestRound:              dto.LargestRound,
		TargetScore:               dto.TargetScore,
		flipThreeFrames:           frames,
	}
}
