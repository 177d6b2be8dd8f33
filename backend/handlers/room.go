package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"flip7server/ai"
	"flip7server/sdk"
)

// ErrorResponse is the REST fallback's uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// GameHandler serves the stateless single-player REST fallback described by
// spec.md §6: the client carries the full game state in every request and
// gets the updated state back. It is a thin wrapper over the same Rules
// Engine a Room uses - there is no server-side game registry here.
type GameHandler struct {
	targetScore int
	rngSeed     func() int64
}

// NewGameHandler builds a GameHandler. rngSeed is called once per StateDTO
// emitted (and once more by Start, to seed the new game's deck), so repeated
// calls to the same handler don't hand out the same deck-reshuffle seed.
func NewGameHandler(targetScore int, rngSeed func() int64) *GameHandler {
	return &GameHandler{targetScore: targetScore, rngSeed: rngSeed}
}

// stateResponse is the uniform success body for every REST fallback call.
type stateResponse struct {
	State   sdk.StateDTO `json:"state"`
	Effects []sdk.Effect `json:"effects,omitempty"`
}

// startRequest seeds a brand-new single-player game.
type startRequest struct {
	Players []playerSpec `json:"players"`
}

type playerSpec struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	IsAI       bool              `json:"isAI"`
	Difficulty sdk.AIDifficulty  `json:"difficulty,omitempty"`
}

// Start builds a fresh game from the requested roster and deals round one.
func (h *GameHandler) Start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Players) < 2 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "at least two players are required"})
		return
	}

	players := make([]*sdk.Player, len(req.Players))
	for i, p := range req.Players {
		players[i] = sdk.NewPlayer(p.ID, p.Name, p.IsAI, p.Difficulty)
	}
	state := sdk.NewGame(players, h.targetScore, h.rngSeed())
	result := sdk.StartRound(state)
	h.respond(c, result)
}

// stateRequest wraps a StateDTO for every post-Start operation.
type stateRequest struct {
	State sdk.StateDTO `json:"state"`
}

// RoundStart deals the next round onto an existing state (used for restarts
// where the caller wants to redeal without going through StartNextRound).
func (h *GameHandler) RoundStart(c *gin.Context) {
	h.applyStateOnly(c, sdk.StartRound)
}

// RoundNext advances from RoundEnd to the next round, or ends the game.
func (h *GameHandler) RoundNext(c *gin.Context) {
	h.applyStateOnly(c, sdk.StartNextRound)
}

type actorRequest struct {
	State    sdk.StateDTO `json:"state"`
	PlayerID string       `json:"playerId"`
}

// Hit applies a hit for the given player.
func (h *GameHandler) Hit(c *gin.Context) {
	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}
	state := sdk.Import(req.State)
	h.respond(c, sdk.ApplyHit(state, req.PlayerID))
}

// Stay applies a stay for the given player.
func (h *GameHandler) Stay(c *gin.Context) {
	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}
	state := sdk.Import(req.State)
	h.respond(c, sdk.ApplyStay(state, req.PlayerID))
}

type actionRequest struct {
	State    sdk.StateDTO `json:"state"`
	PlayerID string       `json:"playerId"`
	CardID   string       `json:"cardId"`
	TargetID string       `json:"targetId,omitempty"`
}

// PlayActionCard plays a Freeze / Flip Three / Second Chance card.
func (h *GameHandler) PlayActionCard(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}
	state := sdk.Import(req.State)
	h.respond(c, sdk.ApplyPlayAction(state, req.PlayerID, req.CardID, req.TargetID))
}

// AIDecision runs the heuristic policy for an AI seat without applying it,
// so a client-side caller (or test harness) can inspect the choice before
// deciding whether to submit it through Hit/Stay/PlayActionCard.
func (h *GameHandler) AIDecision(c *gin.Context) {
	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}
	state := sdk.Import(req.State)
	decision := ai.Decide(state, req.PlayerID)
	c.JSON(http.StatusOK, decision)
}

func (h *GameHandler) applyStateOnly(c *gin.Context, op func(*sdk.GameState) sdk.Result) {
	var req stateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}
	state := sdk.Import(req.State)
	h.respond(c, op(state))
}

func (h *GameHandler) respond(c *gin.Context, result sdk.Result) {
	if result.Err != nil {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "rules_rejected", Message: result.Err.Error()})
		return
	}
	c.JSON(http.StatusOK, stateResponse{
		State:   result.NextState.Export(h.rngSeed()),
		Effects: result.Effects,
	})
}

// RegisterRoutes wires the single-player REST fallback under /api/singleplayer.
func (h *GameHandler) RegisterRoutes(router *gin.Engine) {
	sp := router.Group("/api/singleplayer")
	{
		sp.POST("/start", h.Start)
		sp.POST("/round/start", h.RoundStart)
		sp.POST("/round-next", h.RoundNext)
		sp.POST("/hit", h.Hit)
		sp.POST("/stay", h.Stay)
		sp.POST("/action", h.PlayActionCard)
		sp.POST("/ai/decision", h.AIDecision)
	}
}
