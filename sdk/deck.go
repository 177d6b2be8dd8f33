package sdk

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrDeckExhausted is returned when both the draw pile and the discard pile
// are empty. Reaching this in a real game is an invariant violation: a fixed
// multiset of cards always equals the sum of hands + draw + discard (I5).
var ErrDeckExhausted = errors.New("sdk: deck exhausted")

// Deck is a value type: Draw and Discard return a new Deck rather than
// mutating the receiver, matching spec.md's `draw(deck) -> (Card, Deck')`.
// The draw pile's top card is its last slice element so popping is O(1).
type Deck struct {
	draw    []Card
	discard []Card
	rng     *rand.Rand
}

// DeckSize reports the number of cards remaining in the draw pile.
func (d Deck) DeckSize() int { return len(d.draw) }

// DiscardSize reports the number of cards sitting in the discard pile.
func (d Deck) DiscardSize() int { return len(d.discard) }

// baseDeckComposition returns one base deck's worth of cards, without IDs
// assigned yet (IDs are minted per-build so multi-deck games stay unique).
func baseDeckComposition() []Card {
	var cards []Card

	// Number cards: one copy of 0, n copies of n for 1..12.
	cards = append(cards, numberCard("", 0))
	for n := 1; n <= 12; n++ {
		for i := 0; i < n; i++ {
			cards = append(cards, numberCard("", n))
		}
	}

	// Modifiers: three copies each of the five Add values, one Multiply2.
	addKinds := []ModifierKind{ModifierAdd2, ModifierAdd4, ModifierAdd6, ModifierAdd8, ModifierAdd10}
	for _, k := range addKinds {
		for i := 0; i < 3; i++ {
			cards = append(cards, modifierCard("", k))
		}
	}
	cards = append(cards, modifierCard("", ModifierMultiply2))

	// Actions: three copies each of Freeze, FlipThree, SecondChance.
	actionKinds := []ActionKind{ActionFreeze, ActionFlipThree, ActionSecondChance}
	for _, k := range actionKinds {
		for i := 0; i < 3; i++ {
			cards = append(cards, actionCard("", k))
		}
	}

	return cards
}

// BuildDeck produces a shuffled draw pile sized for playerCount seats: one
// base deck for every 10 players or fraction thereof, per spec.md's
// `ceil(P/10)` rule. Card IDs are minted fresh for this build. The RNG is
// seeded so tests can reproduce an exact shuffle.
func BuildDeck(playerCount int, seed int64) Deck {
	if playerCount < 1 {
		playerCount = 1
	}
	copies := (playerCount + 9) / 10 // ceil(playerCount/10)

	rng := rand.New(rand.NewSource(seed))

	var cards []Card
	seq := 0
	for c := 0; c < copies; c++ {
		for _, base := range baseDeckComposition() {
			base.ID = fmt.Sprintf("%s-%d", base.Kind, seq)
			seq++
			cards = append(cards, base)
		}
	}

	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})

	return Deck{draw: cards, rng: rng}
}

// Draw pops the top card, reshuffling the discard pile into a fresh draw
// pile first if the draw pile is empty. Returns ErrDeckExhausted only when
// both piles are empty, which should be unreachable in practice (I5).
func (d Deck) Draw() (Card, Deck, error) {
	if len(d.draw) == 0 {
		if len(d.discard) == 0 {
			return Card{}, d, ErrDeckExhausted
		}
		reshuffled := make([]Card, len(d.discard))
		copy(reshuffled, d.discard)
		d.rng.Shuffle(len(reshuffled), func(i, j int) {
			reshuffled[i], reshuffled[j] = reshuffled[j], reshuffled[i]
		})
		d.draw = reshuffled
		d.discard = nil
	}

	top := d.draw[len(d.draw)-1]
	next := d
	next.draw = d.draw[:len(d.draw)-1]
	return top, next, nil
}

// Discard appends cards to the discard pile and returns the updated Deck.
func (d Deck) Discard(cards ...Card) Deck {
	if len(cards) == 0 {
		return d
	}
	merged := make([]Card, len(d.discard), len(d.discard)+len(cards))
	copy(merged, d.discard)
	merged = append(merged, cards...)
	d.discard = merged
	return d
}

// ReturnToBottom reinserts a card at the bottom of the draw pile, used when
// dealing initial hands draws a non-Number card (spec.md §4.2 "Round
// transitions": such a card is returned to the bottom and redealt).
func (d Deck) ReturnToBottom(card Card) Deck {
	merged := make([]Card, 0, len(d.draw)+1)
	merged = append(merged, card)
	merged = append(merged, d.draw...)
	d.draw = merged
	return d
}

// DrawPileCards returns a copy of the cards remaining in the draw pile, in
// no particular guaranteed order beyond "next to be drawn is last". The ai
// package uses this to estimate bust probability without reaching into
// Deck's internals.
func (d Deck) DrawPileCards() []Card {
	cp := make([]Card, len(d.draw))
	copy(cp, d.draw)
	return cp
}

// AllCards returns every card currently held by the deck (draw + discard),
// used by property tests to verify card conservation (P1, I5).
func (d Deck) AllCards() []Card {
	all := make([]Card, 0, len(d.draw)+len(d.discard))
	all = append(all, d.draw...)
	all = append(all, d.discard...)
	return all
}
