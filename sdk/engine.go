package sdk

// This file is the rules engine proper: the five entry points a Room calls
// (ApplyHit, ApplyStay, ApplyPlayAction, StartRound, StartNextRound) plus the
// private helpers they share. Every entry point clones its input state and
// returns a brand new one; nothing here ever mutates a caller's GameState.
//
// Freeze/FlipThree resolution is grounded on the give-away and nested-action
// semantics of a duplicate-push-your-luck reference engine studied during
// design: Second Chance is processed the instant it's drawn, Freeze and
// FlipThree instead publish a PendingActionCard and wait for a target, and a
// FlipThree that turns up another action card pauses rather than resolving
// it automatically.

// ApplyHit draws one card for playerId and resolves its immediate effect.
func ApplyHit(inState *GameState, playerId string) Result {
	state := inState.clone()

	player, gerr := validateActing(state, playerId)
	if gerr != nil {
		return errResult(inState, gerr)
	}

	card, nextDeck, err := state.Deck.Draw()
	if err != nil {
		return errResult(inState, newGameError(ErrDeckExhaustedCode, "%v", err))
	}
	state.Deck = nextDeck

	effects := []Effect{CardDrawnEffect{PlayerID: playerId, Card: card}}

	more, paused, gerr := applyDrawnCard(state, player, card)
	if gerr != nil {
		return errResult(inState, gerr)
	}
	effects = append(effects, more...)

	if !paused {
		if !player.IsActive {
			// The draw busted the holder or completed their Flip 7 - either
			// way bankPlayer already marked them inactive, so play must move
			// on the same as it does after a Stay.
			advanceTurn(state)
		}
		effects = append(effects, checkRoundEndAndMaybeTransition(state)...)
	}
	return Result{NextState: state, Effects: effects}
}

// ApplyStay banks playerId's current hand and ends their round.
func ApplyStay(inState *GameState, playerId string) Result {
	state := inState.clone()

	player, gerr := validateActing(state, playerId)
	if gerr != nil {
		return errResult(inState, gerr)
	}

	bankPlayer(state, player)
	advanceTurn(state)

	effects := checkRoundEndAndMaybeTransition(state)
	return Result{NextState: state, Effects: effects}
}

// ApplyPlayAction resolves the single outstanding PendingActionCard by
// naming its target. cardId must match the pending card exactly, guarding
// against a stale client request racing a newer pending action.
func ApplyPlayAction(inState *GameState, playerId, cardId, targetId string) Result {
	state := inState.clone()

	if state.Status == GameStatusGameEnd {
		return errResult(inState, newGameError(ErrGameAlreadyEnded, "game has already ended"))
	}
	if state.Status != GameStatusPlaying {
		return errResult(inState, newGameError(ErrWrongPhase, "game is not in Playing status"))
	}

	pac := state.PendingActionCard
	if pac == nil {
		return errResult(inState, newGameError(ErrPendingActionBlocks, "no pending action card to resolve"))
	}
	if pac.PlayerID != playerId {
		return errResult(inState, newGameError(ErrNotYourTurn, "player %s may not resolve this action", playerId))
	}
	if pac.CardID != cardId {
		return errResult(inState, newGameError(ErrUnknownCard, "card %s is not the pending action card", cardId))
	}

	target := state.PlayerByID(targetId)
	if target == nil || !target.IsActive {
		return errResult(inState, newGameError(ErrInvalidTarget, "target %s is not a valid active player", targetId))
	}

	card := pac.Card
	state.Deck = state.Deck.Discard(card)
	state.PendingActionCard = nil

	var effects []Effect
	switch pac.Kind {
	case ActionFreeze:
		target.FrozenBy = playerId
		banked := bankPlayer(state, target)
		effects = append(effects, PlayerFrozenEffect{By: playerId, Target: targetId, BankedScore: banked})

		if len(state.flipThreeFrames) > 0 {
			more, gerr := resumeFlipThreeStack(state)
			if gerr != nil {
				return errResult(inState, gerr)
			}
			effects = append(effects, more...)
		} else {
			actor := state.PlayerByID(playerId)
			if targetId == playerId || actor == nil || !actor.IsActive {
				advanceTurn(state)
			}
			// else: freezing an opponent does not end the actor's own turn.
		}

	case ActionFlipThree:
		state.flipThreeFrames = append(state.flipThreeFrames, flipThreeFrame{
			Target:    targetId,
			Actor:     playerId,
			Remaining: 3,
		})
		syncFlipThreeTop(state)
		effects = append(effects, FlipThreeBeganEffect{By: playerId, Target: targetId})

		more, gerr := resumeFlipThreeStack(state)
		if gerr != nil {
			return errResult(inState, gerr)
		}
		effects = append(effects, more...)

	default:
		return errResult(inState, newGameError(ErrUnknownCard, "pending action card has unsupported kind %q", pac.Kind))
	}

	if state.PendingActionCard == nil {
		effects = append(effects, checkRoundEndAndMaybeTransition(state)...)
	}
	return Result{NextState: state, Effects: effects}
}

// StartRound deals the first round of a freshly seated game.
func StartRound(inState *GameState) Result {
	state := inState.clone()

	if state.Status == GameStatusGameEnd {
		return errResult(inState, newGameError(ErrGameAlreadyEnded, "game has already ended"))
	}
	if state.Status != GameStatusWaiting {
		return errResult(inState, newGameError(ErrWrongPhase, "startRound requires Waiting status"))
	}
	if len(state.Players) == 0 {
		return errResult(inState, newGameError(ErrWrongPhase, "cannot start a game with no seated players"))
	}

	state.Round = 1
	beginRound(state)

	effects, gerr := dealInitialCards(state)
	if gerr != nil {
		return errResult(inState, gerr)
	}

	seatPlayLeadOff(state)
	effects = append(effects, checkRoundEndAndMaybeTransition(state)...)
	return Result{NextState: state, Effects: effects}
}

// StartNextRound checks for a game winner and either ends the game or deals
// the next round, advancing the dealer by one seat.
func StartNextRound(inState *GameState) Result {
	state := inState.clone()

	if state.Status == GameStatusGameEnd {
		return errResult(inState, newGameError(ErrGameAlreadyEnded, "game has already ended"))
	}
	if state.Status != GameStatusRoundEnd {
		return errResult(inState, newGameError(ErrWrongPhase, "startNextRound requires RoundEnd status"))
	}

	if winnerID, ok := findWinner(state); ok {
		state.Status = GameStatusGameEnd
		return Result{NextState: state, Effects: []Effect{GameEndedEffect{WinnerID: winnerID}}}
	}

	state.DealerIndex = (state.DealerIndex + 1) % len(state.Players)
	state.Round++
	beginRound(state)

	effects, gerr := dealInitialCards(state)
	if gerr != nil {
		return errResult(inState, gerr)
	}

	seatPlayLeadOff(state)
	effects = append(effects, checkRoundEndAndMaybeTransition(state)...)
	return Result{NextState: state, Effects: effects}
}

// findWinner reports the highest scorer at or above TargetScore, ties broken
// by seating order (lowest seat index wins).
func findWinner(state *GameState) (string, bool) {
	best := -1
	winner := ""
	for _, p := range state.Players {
		if p.Score >= state.TargetScore && p.Score > best {
			best = p.Score
			winner = p.ID
		}
	}
	return winner, winner != ""
}

// beginRound resets every seat for a new round and clears round-scoped state.
func beginRound(state *GameState) {
	for _, p := range state.Players {
		p.resetForRound()
	}
	state.RoundScores = make(map[string]int)
	state.Status = GameStatusPlaying
}

// seatPlayLeadOff sets CurrentPlayerIndex to the seat left of the dealer.
func seatPlayLeadOff(state *GameState) {
	state.CurrentPlayerIndex = (state.DealerIndex + 1) % len(state.Players)
	if !state.Players[state.CurrentPlayerIndex].IsActive {
		advanceTurn(state)
	}
}

// dealInitialCards deals one Number card to each seat, starting at the
// dealer. A non-Number card is returned to the bottom of the draw pile and
// redealt, bounded by a safety counter against a pathological deck.
func dealInitialCards(state *GameState) ([]Effect, *GameError) {
	var effects []Effect
	n := len(state.Players)
	const maxDealAttempts = 1000

	for i := 0; i < n; i++ {
		player := state.Players[(state.DealerIndex+i)%n]

		dealt := false
		for attempt := 0; attempt < maxDealAttempts; attempt++ {
			card, nextDeck, err := state.Deck.Draw()
			if err != nil {
				return effects, newGameError(ErrDeckExhaustedCode, "%v", err)
			}
			state.Deck = nextDeck

			if card.Kind != CardKindNumber {
				state.Deck = state.Deck.ReturnToBottom(card)
				continue
			}

			player.NumberCards = append(player.NumberCards, card.NumberValue)
			effects = append(effects, CardDrawnEffect{PlayerID: player.ID, Card: card})
			dealt = true
			break
		}
		if !dealt {
			return effects, newGameError(ErrInvariantViolatedCode,
				"could not deal a number card to %s after %d attempts", player.ID, maxDealAttempts)
		}
	}
	return effects, nil
}

// validateActing runs the Hit/Stay precondition chain from spec.md §4.2's
// error-conditions list, in priority order.
func validateActing(state *GameState, playerId string) (*Player, *GameError) {
	if state.Status == GameStatusGameEnd {
		return nil, newGameError(ErrGameAlreadyEnded, "game has already ended")
	}
	if state.Status != GameStatusPlaying {
		return nil, newGameError(ErrWrongPhase, "game is not in Playing status")
	}
	if state.PendingActionCard != nil {
		return nil, newGameError(ErrPendingActionBlocks, "a pending action card must be resolved first")
	}
	if state.PendingFlipThreeRemaining != nil {
		return nil, newGameError(ErrPendingFlipThree, "a FlipThree resolution is in progress")
	}
	if len(state.Players) == 0 || state.Players[state.CurrentPlayerIndex].ID != playerId {
		return nil, newGameError(ErrNotYourTurn, "it is not player %s's turn", playerId)
	}
	player := state.PlayerByID(playerId)
	if player == nil || !player.IsActive {
		return nil, newGameError(ErrPlayerInactive, "player %s is not active", playerId)
	}
	return player, nil
}

// applyDrawnCard resolves the immediate effect of a single drawn card for
// holder. paused reports whether an action card now awaits a target
// (PendingActionCard was just set), in which case the caller must stop and
// not advance the turn or check for round end.
func applyDrawnCard(state *GameState, holder *Player, card Card) (effects []Effect, paused bool, gerr *GameError) {
	switch card.Kind {
	case CardKindNumber:
		return applyNumberDraw(state, holder, card), false, nil

	case CardKindModifier:
		holder.ModifierCards = append(holder.ModifierCards, card)
		state.RoundScores[holder.ID] = holder.RoundScore()
		return nil, false, nil

	case CardKindAction:
		switch card.ActionKind {
		case ActionSecondChance:
			return applySecondChanceDraw(state, holder, card), false, nil
		case ActionFreeze, ActionFlipThree:
			state.PendingActionCard = &PendingActionCard{
				PlayerID: holder.ID,
				CardID:   card.ID,
				Kind:     card.ActionKind,
				Card:     card,
			}
			return nil, true, nil
		}
	}
	return nil, false, newGameError(ErrUnknownCard, "unrecognized card %s", card)
}

// applyNumberDraw handles the duplicate/bust/Second-Chance-save/Flip7 logic
// for a drawn Number card (spec.md §4.2 "Hit semantics").
func applyNumberDraw(state *GameState, holder *Player, card Card) []Effect {
	if holder.HasNumber(card.NumberValue) {
		if holder.HasUnusedSecondChance() {
			consumeFirstSecondChance(holder)
			state.Deck = state.Deck.Discard(card)
			return []Effect{SecondChanceConsumedEffect{PlayerID: holder.ID, SavedValue: card.NumberValue}}
		}
		holder.HasBusted = true
		bankPlayer(state, holder) // always banks 0; RoundScore() already accounts for HasBusted
		return []Effect{PlayerBustedEffect{PlayerID: holder.ID, Value: card.NumberValue}}
	}

	holder.NumberCards = append(holder.NumberCards, card.NumberValue)
	state.RoundScores[holder.ID] = holder.RoundScore()

	if len(holder.NumberCards) == 7 {
		banked := bankPlayer(state, holder)
		return []Effect{Flip7AchievedEffect{PlayerID: holder.ID, BankedScore: banked}}
	}
	return nil
}

// applySecondChanceDraw either keeps the card for holder, or - if holder
// already carries an unused one - hands it to a random other active player
// that doesn't already hold one, discarding it if no such player exists.
func applySecondChanceDraw(state *GameState, holder *Player, card Card) []Effect {
	if !holder.HasUnusedSecondChance() {
		holder.ActionCards = append(holder.ActionCards, card)
		return nil
	}

	var candidates []*Player
	for _, p := range state.ActivePlayers() {
		if p.ID != holder.ID && !p.HasUnusedSecondChance() {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		state.Deck = state.Deck.Discard(card)
		return []Effect{SecondChanceTransferredEffect{FromPlayerID: holder.ID}}
	}

	target := candidates[state.Deck.rng.Intn(len(candidates))]
	target.ActionCards = append(target.ActionCards, card)
	return []Effect{SecondChanceTransferredEffect{FromPlayerID: holder.ID, ToPlayerID: target.ID}}
}

// consumeFirstSecondChance removes one unused Second Chance card from
// holder's hand and records its id as used.
func consumeFirstSecondChance(holder *Player) {
	for i, c := range holder.ActionCards {
		if c.Kind == CardKindAction && c.ActionKind == ActionSecondChance {
			holder.UsedSecondChanceCardIDs[c.ID] = true
			holder.ActionCards = append(holder.ActionCards[:i:i], holder.ActionCards[i+1:]...)
			return
		}
	}
}

// bankPlayer banks holder's current round score into their running total and
// marks them inactive for the rest of the round.
func bankPlayer(state *GameState, holder *Player) int {
	holder.IsActive = false
	score := holder.RoundScore()
	holder.Score += score
	state.RoundScores[holder.ID] = score
	return score
}

// advanceTurn moves CurrentPlayerIndex to the next active seat after its
// current value, leaving it unchanged if no seat is active (round over).
func advanceTurn(state *GameState) {
	n := len(state.Players)
	if n == 0 {
		return
	}
	for i := 1; i <= n; i++ {
		next := (state.CurrentPlayerIndex + i) % n
		if state.Players[next].IsActive {
			state.CurrentPlayerIndex = next
			return
		}
	}
}

// resumeActorTurn returns control to actorID if still active, else advances
// to the next active seat from wherever play currently sits.
func resumeActorTurn(state *GameState, actorID string) {
	for i, p := range state.Players {
		if p.ID == actorID && p.IsActive {
			state.CurrentPlayerIndex = i
			return
		}
	}
	advanceTurn(state)
}

// checkRoundEndAndMaybeTransition closes out the round once every seat is
// inactive, appending one RoundHistory entry per player from the scores
// already banked by bankPlayer.
func checkRoundEndAndMaybeTransition(state *GameState) []Effect {
	if state.Status != GameStatusPlaying {
		return nil
	}
	if len(state.ActivePlayers()) > 0 {
		return nil
	}

	state.Status = GameStatusRoundEnd
	for _, p := range state.Players {
		entry := RoundResult{
			Round:       state.Round,
			PlayerID:    p.ID,
			Score:       state.RoundScores[p.ID],
			Busted:      p.HasBusted,
			NumberCards: append([]int(nil), p.NumberCards...),
		}
		state.RoundHistory = append(state.RoundHistory, entry)
		if state.LargestRound == nil || entry.Score > state.LargestRound.Score {
			cp := entry
			state.LargestRound = &cp
		}
	}
	return []Effect{RoundEndedEffect{Round: state.Round}}
}
