package sdk

// GameStatus is the game-level phase, distinct from the room-level state
// machine in the backend package.
type GameStatus string

const (
	GameStatusWaiting  GameStatus = "waiting"
	GameStatusPlaying  GameStatus = "playing"
	GameStatusRoundEnd GameStatus = "round_end"
	GameStatusGameEnd  GameStatus = "game_end"
)

const DefaultTargetScore = 200

// PendingActionCard records a Freeze/FlipThree awaiting a target, per
// invariant I3.
type PendingActionCard struct {
	PlayerID string
	CardID   string
	Kind     ActionKind
	Card     Card // full card value, so resolution can discard it without a deck lookup
}

// RoundResult is one immutable entry in RoundHistory, appended at each
// Playing -> RoundEnd transition. NumberCards is the supplemented detail
// (see SPEC_FULL.md) beyond the bare score spec.md itself requires.
type RoundResult struct {
	Round       int
	PlayerID    string
	Score       int
	Busted      bool
	NumberCards []int
}

// GameState is the single authoritative snapshot a Room owns. Every
// rules-engine entry point takes one GameState and returns a new one;
// nothing here is mutated in place by callers.
type GameState struct {
	Players                   []*Player
	CurrentPlayerIndex        int
	DealerIndex               int
	Round                     int
	Deck                      Deck
	Status                    GameStatus
	RoundScores               map[string]int // player id -> provisional round score, valid mid-round
	PendingActionCard         *PendingActionCard
	PendingFlipThreeRemaining *int // nil when none pending
	// FlipThreeTarget is the seat currently being forced to draw; only
	// meaningful while PendingFlipThreeRemaining != nil.
	FlipThreeTarget string
	// FlipThreeActor is the player who played the FlipThree, so control can
	// return to them once resolution completes (spec.md §4.2).
	FlipThreeActor string

	RoundHistory []RoundResult
	LargestRound *RoundResult

	TargetScore int

	// flipThreeFrames is the internal FlipThree resolution stack: one frame
	// per in-progress FlipThree, innermost (currently drawing) last. The top
	// frame is mirrored into PendingFlipThreeRemaining/FlipThreeTarget/
	// FlipThreeActor above for observability; frames below the top exist only
	// to resume an outer FlipThree once a nested Freeze/FlipThree resolves
	// (spec.md §4.2: "the remaining FlipThree count is preserved and resumed
	// after that nested action is resolved").
	flipThreeFrames []flipThreeFrame
}

type flipThreeFrame struct {
	Target    string
	Actor     string
	Remaining int
}

// Result is returned by every rules-engine entry point.
type Result struct {
	NextState *GameState
	Effects   []Effect
	Err       error
}

// errResult builds a Result reporting a failure with the original state
// unchanged, per spec.md §4.2: "Error conditions ... state unchanged".
func errResult(state *GameState, err error) Result {
	return Result{NextState: state, Effects: nil, Err: err}
}

// clone deep-copies the state so engine functions never mutate their input.
func (s *GameState) clone() *GameState {
	cp := *s
	cp.Players = make([]*Player, len(s.Players))
	for i, p := range s.Players {
		cp.Players[i] = p.clone()
	}
	cp.RoundScores = make(map[string]int, len(s.RoundScores))
	for k, v := range s.RoundScores {
		cp.RoundScores[k] = v
	}
	if s.PendingActionCard != nil {
		pac := *s.PendingActionCard
		cp.PendingActionCard = &pac
	}
	if s.PendingFlipThreeRemaining != nil {
		v := *s.PendingFlipThreeRemaining
		cp.PendingFlipThreeRemaining = &v
	}
	cp.RoundHistory = append([]RoundResult(nil), s.RoundHistory...)
	if s.LargestRound != nil {
		lr := *s.LargestRound
		cp.LargestRound = &lr
	}
	cp.flipThreeFrames = append([]flipThreeFrame(nil), s.flipThreeFrames...)
	return &cp
}

// PlayerByID finds a seat by id, or nil if absent.
func (s *GameState) PlayerByID(id string) *Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// ActivePlayers returns every seat currently eligible to act.
func (s *GameState) ActivePlayers() []*Player {
	var active []*Player
	for _, p := range s.Players {
		if p.IsActive {
			active = append(active, p)
		}
	}
	return active
}

// NewGame builds the initial Waiting-status state for a freshly seated room.
// Players are expected to already be constructed (NewPlayer); the deck is
// not built here since its size depends on final seat count at StartRound.
func NewGame(players []*Player, targetScore int, seed int64) *GameState {
	if targetScore <= 0 {
		targetScore = DefaultTargetScore
	}
	return &GameState{
		Players:     players,
		Status:      GameStatusWaiting,
		RoundScores: make(map[string]int),
		Deck:        BuildDeck(len(players), seed),
		TargetScore: targetScore,
	}
}
