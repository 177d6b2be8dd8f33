package sdk

import "fmt"

// CardKind tags the three variants a Card can be.
type CardKind string

const (
	CardKindNumber   CardKind = "number"
	CardKindModifier CardKind = "modifier"
	CardKindAction   CardKind = "action"
)

// ModifierKind distinguishes the two families of modifier card.
type ModifierKind string

const (
	ModifierAdd2      ModifierKind = "add2"
	ModifierAdd4      ModifierKind = "add4"
	ModifierAdd6      ModifierKind = "add6"
	ModifierAdd8      ModifierKind = "add8"
	ModifierAdd10     ModifierKind = "add10"
	ModifierMultiply2 ModifierKind = "multiply2"
)

// AddValue returns the point value of an Add modifier. Multiply2 has no add
// value and returns 0; callers branch on ModifierKind first.
func (m ModifierKind) AddValue() int {
	switch m {
	case ModifierAdd2:
		return 2
	case ModifierAdd4:
		return 4
	case ModifierAdd6:
		return 6
	case ModifierAdd8:
		return 8
	case ModifierAdd10:
		return 10
	default:
		return 0
	}
}

// ActionKind distinguishes the three action cards.
type ActionKind string

const (
	ActionFreeze       ActionKind = "freeze"
	ActionFlipThree    ActionKind = "flip_three"
	ActionSecondChance ActionKind = "second_chance"
)

// Card is an immutable value type. Every card minted by BuildDeck carries a
// stable, unique ID that follows it through the draw pile, discard, and
// reshuffle. A Number card in a hand is kept only as its value
// (Player.NumberCards), so its ID is not carried there.
type Card struct {
	ID           string
	Kind         CardKind
	NumberValue  int          // valid when Kind == CardKindNumber, 0..12
	ModifierKind ModifierKind // valid when Kind == CardKindModifier
	ActionKind   ActionKind   // valid when Kind == CardKindAction
}

func numberCard(id string, value int) Card {
	return Card{ID: id, Kind: CardKindNumber, NumberValue: value}
}

func modifierCard(id string, kind ModifierKind) Card {
	return Card{ID: id, Kind: CardKindModifier, ModifierKind: kind}
}

func actionCard(id string, kind ActionKind) Card {
	return Card{ID: id, Kind: CardKindAction, ActionKind: kind}
}

// String renders a short human-readable label, handy in logs and test
// failure messages.
func (c Card) String() string {
	switch c.Kind {
	case CardKindNumber:
		return fmt.Sprintf("Number(%d)", c.NumberValue)
	case CardKindModifier:
		if c.ModifierKind == ModifierMultiply2 {
			return "Modifier(x2)"
		}
		return fmt.Sprintf("Modifier(+%d)", c.ModifierKind.AddValue())
	case CardKindAction:
		return fmt.Sprintf("Action(%s)", c.ActionKind)
	default:
		return "Card(?)"
	}
}
