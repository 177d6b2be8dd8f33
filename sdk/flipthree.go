package sdk

// resumeFlipThreeStack drives forced draws for the top FlipThree frame until
// it either exhausts its count, its target goes inactive, or a nested
// Freeze/FlipThree pauses resolution again (a new PendingActionCard is set).
// A frame that finishes cleanly is popped and control returns to its actor,
// then the next frame down (if any) resumes in the same way - this is how a
// FlipThree drawn during another FlipThree's forced draws gets resolved
// without losing track of the outer one's remaining count.
func resumeFlipThreeStack(state *GameState) ([]Effect, *GameError) {
	var effects []Effect

	for len(state.flipThreeFrames) > 0 {
		top := len(state.flipThreeFrames) - 1
		target := state.PlayerByID(state.flipThreeFrames[top].Target)

		for state.flipThreeFrames[top].Remaining > 0 && target != nil && target.IsActive {
			card, nextDeck, err := state.Deck.Draw()
			if err != nil {
				return effects, newGameError(ErrDeckExhaustedCode, "%v", err)
			}
			state.Deck = nextDeck
			state.flipThreeFrames[top].Remaining--
			effects = append(effects, CardDrawnEffect{PlayerID: target.ID, Card: card})

			more, paused, gerr := applyDrawnCard(state, target, card)
			if gerr != nil {
				return effects, gerr
			}
			effects = append(effects, more...)

			if paused {
				syncFlipThreeTop(state)
				return effects, nil
			}
			target = state.PlayerByID(state.flipThreeFrames[top].Target)
		}

		actorID := state.flipThreeFrames[top].Actor
		state.flipThreeFrames = state.flipThreeFrames[:top]
		resumeActorTurn(state, actorID)
	}

	syncFlipThreeTop(state)
	return effects, nil
}

// syncFlipThreeTop mirrors the top of the frame stack into the observable
// PendingFlipThreeRemaining/FlipThreeTarget/FlipThreeActor fields.
func syncFlipThreeTop(state *GameState) {
	if len(state.flipThreeFrames) == 0 {
		state.PendingFlipThreeRemaining = nil
		state.FlipThreeTarget = ""
		state.FlipThreeActor = ""
		return
	}
	top := state.flipThreeFrames[len(state.flipThreeFrames)-1]
	remaining := top.Remaining
	state.PendingFlipThreeRemaining = &remaining
	state.FlipThreeTarget = top.Target
	state.FlipThreeActor = top.Actor
}
