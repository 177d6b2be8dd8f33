// Package room implements the per-game coordinator: it owns one Room's
// GameState, serializes every input (human and AI) through a single
// goroutine, and broadcasts a fresh snapshot after each one. It is the
// concurrency boundary between the Gateway's many socket goroutines and the
// single-writer Rules Engine.
package room

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"flip7server/ai"
	"flip7server/backend/collaborator"
	"flip7server/backend/metrics"
	"flip7server/sdk"
)

// Status is the room-level state machine, distinct from sdk.GameStatus.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusRoundEnd Status = "round_end"
	StatusClosed   Status = "closed"
)

// Outbound message type tags, matching spec.md §4.7's taxonomy.
const (
	OutRoomCreated         = "room:created"
	OutRoomJoined          = "room:joined"
	OutRoomUpdated         = "room:updated"
	OutGameState           = "game:state"
	OutHostMigrated        = "host:migrated"
	OutPlayerDisconnected  = "player:disconnected"
	OutError               = "error"
	OutPong                = "pong"
)

// Envelope is the shape every outbound message takes; Data is marshaled as-is.
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Socket is everything a Room needs from a transport-level connection. Send
// must never block the caller - implementations buffer internally and drop
// or disconnect under backpressure (spec.md §5).
type Socket interface {
	SessionID() string
	Send(Envelope)
}

// Config carries the environment-tunable timing knobs from spec.md §6.
type Config struct {
	TargetScore     int
	AIThinkDelay    time.Duration
	AIHardTimeout   time.Duration
	HostGraceWindow time.Duration
	RoomEmptyTTL    time.Duration
	RNGSeed         int64
}

// Seat is one occupant of the room, before and after the underlying
// sdk.Player exists.
type Seat struct {
	SessionID  string
	PlayerID   string
	Name       string
	IsAI       bool
	Difficulty sdk.AIDifficulty
	Connected  bool
	socket     Socket
}

type commandKind string

const (
	cmdJoin      commandKind = "join"
	cmdAddAI     commandKind = "addAI"
	cmdLeave     commandKind = "leave"
	cmdStart     commandKind = "start"
	cmdHit       commandKind = "hit"
	cmdStay      commandKind = "stay"
	cmdPlay      commandKind = "play"
	cmdNextRound commandKind = "nextRound"
	cmdRestore   commandKind = "restore"
	cmdDisconnect commandKind = "disconnect"
	cmdAIDecide  commandKind = "aiDecide"
	cmdAIFallback commandKind = "aiFallback"
	cmdClose     commandKind = "close"
)

type command struct {
	kind       commandKind
	sessionID  string
	name       string
	difficulty sdk.AIDifficulty
	playerID   string
	cardID     string
	targetID   string
	socket     Socket
	generation int
	reply      chan commandReply
}

type commandReply struct {
	err      *Error
	snapshot *Snapshot
}

// Room is the per-game coordinator described by spec.md §4.4.
type Room struct {
	Code     string
	cfg      Config
	logger   *zap.Logger
	recorder collaborator.Recorder
	registry *Registry

	inbox chan command
	done  chan struct{}

	mu            sync.Mutex
	status        Status
	seats         []*Seat
	hostSessionID string
	state         *sdk.GameState
	seq           int
	createdAt     time.Time
	lastActivity  time.Time
	aiGeneration  int
	hostGraceTimer *time.Timer
	emptyTimer     *time.Timer
	closed         bool
}

// New constructs a Room in Waiting status with no seats yet. Call Run in its
// own goroutine before issuing any command.
func New(code string, cfg Config, registry *Registry, recorder collaborator.Recorder) *Room {
	return &Room{
		Code:         code,
		cfg:          cfg,
		logger:       zap.NewNop(),
		recorder:     recorder,
		registry:     registry,
		inbox:        make(chan command, 64),
		done:         make(chan struct{}),
		status:       StatusWaiting,
		createdAt:    time.Now(),
		lastActivity: time.Now(),
	}
}

// WithLogger attaches a room-scoped logger (see backend/logging.ForRoom).
func (r *Room) WithLogger(l *zap.Logger) *Room {
	r.logger = l
	return r
}

// Run is the Room's single consumer goroutine; it must run for the Room's
// entire lifetime until Close fires.
func (r *Room) Run() {
	for {
		select {
		case cmd := <-r.inbox:
			r.handle(cmd)
		case <-r.done:
			return
		}
	}
}

func (r *Room) send(cmd command, reply commandReply) {
	if cmd.reply != nil {
		cmd.reply <- reply
	}
}

func (r *Room) submit(cmd command) (*Snapshot, *Error) {
	cmd.reply = make(chan commandReply, 1)
	select {
	case r.inbox <- cmd:
	case <-r.done:
		return nil, newError(ErrRoomClosed, "room is closed")
	}
	rep := <-cmd.reply
	return rep.snapshot, rep.err
}

// Join seats a new human player. The first joiner becomes host.
func (r *Room) Join(sessionID, name string, socket Socket) (*Snapshot, *Error) {
	return r.submit(command{kind: cmdJoin, sessionID: sessionID, name: name, socket: socket})
}

// AddAI pads the roster with a bot seat; only the host may call this, and
// only before the game starts.
func (r *Room) AddAI(sessionID string, difficulty sdk.AIDifficulty) (*Snapshot, *Error) {
	return r.submit(command{kind: cmdAddAI, sessionID: sessionID, difficulty: difficulty})
}

// Leave removes a seat from the room.
func (r *Room) Leave(sessionID string) (*Snapshot, *Error) {
	return r.submit(command{kind: cmdLeave, sessionID: sessionID})
}

// Start transitions Waiting -> Playing, dealing the first round.
func (r *Room) Start(sessionID string) (*Snapshot, *Error) {
	return r.submit(command{kind: cmdStart, sessionID: sessionID})
}

// Hit applies game:hit on behalf of playerID.
func (r *Room) Hit(sessionID, playerID string) (*Snapshot, *Error) {
	return r.submit(command{kind: cmdHit, sessionID: sessionID, playerID: playerID})
}

// Stay applies game:stay on behalf of playerID.
func (r *Room) Stay(sessionID, playerID string) (*Snapshot, *Error) {
	return r.submit(command{kind: cmdStay, sessionID: sessionID, playerID: playerID})
}

// PlayAction applies game:playActionCard on behalf of playerID.
func (r *Room) PlayAction(sessionID, playerID, cardID, targetID string) (*Snapshot, *Error) {
	return r.submit(command{kind: cmdPlay, sessionID: sessionID, playerID: playerID, cardID: cardID, targetID: targetID})
}

// NextRound applies game:nextRound; only the host may advance.
func (r *Room) NextRound(sessionID string) (*Snapshot, *Error) {
	return r.submit(command{kind: cmdNextRound, sessionID: sessionID})
}

// Restore re-binds a socket to its seat after a reconnect.
func (r *Room) Restore(sessionID string, socket Socket) (*Snapshot, *Error) {
	return r.submit(command{kind: cmdRestore, sessionID: sessionID, socket: socket})
}

// Disconnect detaches a socket from its seat without removing the seat,
// starting host-migration/empty-room timers as appropriate.
func (r *Room) Disconnect(sessionID string) {
	r.submit(command{kind: cmdDisconnect, sessionID: sessionID})
}

// Close terminates the room's worker and timers. Safe to call more than once.
func (r *Room) Close() {
	if r.IsClosed() {
		return
	}
	r.submit(command{kind: cmdClose})
}

// Snapshot returns the room's current view without going through the input
// queue - used by the Registry sweep and the Gateway's matchmaking reply.
// Reading it does not advance seq; only a broadcast does. Safe for
// concurrent use; it only takes the short-lived mutex, never the channel.
func (r *Room) Snapshot() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buildSnapshotLocked()
}

// IsClosed reports whether the room has transitioned to Closed.
func (r *Room) IsClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// ConnectedCount reports how many seats currently have a connected socket.
func (r *Room) ConnectedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.seats {
		if s.Connected {
			n++
		}
	}
	return n
}

// ---- command handling (runs only on the Room's own goroutine) ----

func (r *Room) handle(cmd command) {
	r.mu.Lock()
	r.lastActivity = time.Now()
	defer r.mu.Unlock()
	defer func() {
		if p := recover(); p != nil {
			if r.logger != nil {
				r.logger.Error("input handling panicked; closing room", zap.String("code", string(sdk.ErrInvariantViolatedCode)), zap.Any("panic", p))
			}
			r.closeLocked()
			if cmd.reply != nil {
				select {
				case cmd.reply <- commandReply{err: newError(ErrRoomClosed, "room closed after an internal error")}:
				default:
				}
			}
		}
	}()

	switch cmd.kind {
	case cmdJoin:
		r.handleJoin(cmd)
	case cmdAddAI:
		r.handleAddAI(cmd)
	case cmdLeave:
		r.handleLeave(cmd)
	case cmdStart:
		r.handleStart(cmd)
	case cmdHit:
		r.handleEngine(cmd, func(s *sdk.GameState) sdk.Result { return sdk.ApplyHit(s, cmd.playerID) })
	case cmdStay:
		r.handleEngine(cmd, func(s *sdk.GameState) sdk.Result { return sdk.ApplyStay(s, cmd.playerID) })
	case cmdPlay:
		r.handleEngine(cmd, func(s *sdk.GameState) sdk.Result {
			return sdk.ApplyPlayAction(s, cmd.playerID, cmd.cardID, cmd.targetID)
		})
	case cmdNextRound:
		r.handleNextRound(cmd)
	case cmdRestore:
		r.handleRestore(cmd)
	case cmdDisconnect:
		r.handleDisconnect(cmd)
	case cmdAIDecide:
		r.handleAIDecide(cmd)
	case cmdAIFallback:
		r.handleAIFallback(cmd)
	case cmdClose:
		r.handleClose(cmd)
	}
}

func (r *Room) seatBySession(sessionID string) *Seat {
	for _, s := range r.seats {
		if s.SessionID == sessionID {
			return s
		}
	}
	return nil
}

func (r *Room) seatByPlayer(playerID string) *Seat {
	for _, s := range r.seats {
		if s.PlayerID == playerID {
			return s
		}
	}
	return nil
}

func (r *Room) handleJoin(cmd command) {
	if r.closed {
		r.send(cmd, commandReply{err: newError(ErrRoomClosed, "room is closed")})
		return
	}
	if r.status != StatusWaiting {
		r.send(cmd, commandReply{err: newError(ErrRoomFull, "room is not accepting new players")})
		return
	}
	for _, s := range r.seats {
		if s.Name == cmd.name {
			r.send(cmd, commandReply{err: newError(ErrNameInUse, fmt.Sprintf("name %q is already taken in this room", cmd.name))})
			return
		}
	}
	seat := &Seat{SessionID: cmd.sessionID, PlayerID: newID(), Name: cmd.name, Connected: true, socket: cmd.socket}
	r.seats = append(r.seats, seat)
	if r.hostSessionID == "" {
		r.hostSessionID = cmd.sessionID
	}
	r.cancelEmptyTimerLocked()
	snap := r.broadcastLocked(OutRoomJoined)
	r.send(cmd, commandReply{snapshot: snap})
}

func (r *Room) handleAddAI(cmd command) {
	if r.closed {
		r.send(cmd, commandReply{err: newError(ErrRoomClosed, "room is closed")})
		return
	}
	if cmd.sessionID != r.hostSessionID {
		r.send(cmd, commandReply{err: newError(ErrNotHost, "only the host may add a bot seat")})
		return
	}
	if r.status != StatusWaiting {
		r.send(cmd, commandReply{err: newError(ErrRoomFull, "room is not accepting new players")})
		return
	}
	difficulty := cmd.difficulty
	if difficulty == "" {
		difficulty = sdk.DifficultyModerate
	}
	seat := &Seat{
		SessionID:  newID(),
		PlayerID:   newID(),
		Name:       fmt.Sprintf("Bot-%d", len(r.seats)+1),
		IsAI:       true,
		Difficulty: difficulty,
		Connected:  true,
	}
	r.seats = append(r.seats, seat)
	snap := r.broadcastLocked(OutRoomUpdated)
	r.send(cmd, commandReply{snapshot: snap})
}

func (r *Room) handleLeave(cmd command) {
	idx := -1
	for i, s := range r.seats {
		if s.SessionID == cmd.sessionID {
			idx = i
			break
		}
	}
	if idx == -1 {
		r.send(cmd, commandReply{err: newError(ErrNotInRoom, "player is not in this room")})
		return
	}
	r.seats = append(r.seats[:idx], r.seats[idx+1:]...)
	if r.hostSessionID == cmd.sessionID {
		r.promoteHostLocked()
	}
	if len(r.seats) == 0 {
		r.closeLocked()
		r.send(cmd, commandReply{})
		return
	}
	snap := r.broadcastLocked(OutRoomUpdated)
	r.send(cmd, commandReply{snapshot: snap})
}

func (r *Room) handleStart(cmd command) {
	if r.closed {
		r.send(cmd, commandReply{err: newError(ErrRoomClosed, "room is closed")})
		return
	}
	if cmd.sessionID != r.hostSessionID {
		r.send(cmd, commandReply{err: newError(ErrNotHost, "only the host may start the game")})
		return
	}
	if r.status != StatusWaiting {
		r.send(cmd, commandReply{err: newError(ErrRoomFull, "game has already started")})
		return
	}
	if len(r.seats) < 2 {
		// A single human host auto-fills one moderate bot, matching the
		// two-seat minimum exercised by scenario S1.
		r.seats = append(r.seats, &Seat{
			SessionID:  newID(),
			PlayerID:   newID(),
			Name:       "Bot-1",
			IsAI:       true,
			Difficulty: sdk.DifficultyModerate,
			Connected:  true,
		})
	}

	players := make([]*sdk.Player, len(r.seats))
	for i, s := range r.seats {
		players[i] = sdk.NewPlayer(s.PlayerID, s.Name, s.IsAI, s.Difficulty)
	}
	state := sdk.NewGame(players, r.cfg.TargetScore, r.cfg.RNGSeed)
	result := sdk.StartRound(state)
	if result.Err != nil {
		r.send(cmd, commandReply{err: engineError(result.Err)})
		return
	}
	r.state = result.NextState
	r.status = StatusPlaying
	r.logEffects(result.Effects)
	snap := r.broadcastLocked(OutGameState)
	r.send(cmd, commandReply{snapshot: snap})
	r.scheduleAILocked()
}

// handleEngine applies a rules-engine call that needs an existing GameState
// (Hit, Stay, PlayAction), shared by both human and AI-originated commands.
func (r *Room) handleEngine(cmd command, apply func(*sdk.GameState) sdk.Result) {
	if r.closed {
		r.send(cmd, commandReply{err: newError(ErrRoomClosed, "room is closed")})
		return
	}
	if r.state == nil {
		r.send(cmd, commandReply{err: newError(ErrRoomFull, "game has not started")})
		return
	}
	if cmd.sessionID != "" {
		seat := r.seatBySession(cmd.sessionID)
		if seat == nil || seat.PlayerID != cmd.playerID {
			r.send(cmd, commandReply{err: newError(ErrNotInRoom, "player is not in this room")})
			return
		}
	}
	result := apply(r.state)
	if result.Err != nil {
		r.send(cmd, commandReply{err: engineError(result.Err)})
		return
	}
	r.state = result.NextState
	r.applyRoundEndSideEffectsLocked(result.Effects)
	r.logEffects(result.Effects)
	snap := r.broadcastLocked(OutGameState)
	r.send(cmd, commandReply{snapshot: snap})
	r.scheduleAILocked()
}

// engineError forwards a rules-engine error under its own sdk.ErrorCode.
func engineError(err error) *Error {
	if ge, ok := err.(*sdk.GameError); ok {
		return newError(ErrorCode(ge.Code), ge.Message)
	}
	return newError(ErrBadMessage, err.Error())
}

func (r *Room) handleNextRound(cmd command) {
	if r.closed {
		r.send(cmd, commandReply{err: newError(ErrRoomClosed, "room is closed")})
		return
	}
	if r.state == nil {
		r.send(cmd, commandReply{err: newError(ErrRoomFull, "game has not started")})
		return
	}
	if cmd.sessionID != r.hostSessionID {
		r.send(cmd, commandReply{err: newError(ErrNotHost, "only the host may advance to the next round")})
		return
	}
	result := sdk.StartNextRound(r.state)
	if result.Err != nil {
		r.send(cmd, commandReply{err: engineError(result.Err)})
		return
	}
	r.state = result.NextState
	r.status = StatusPlaying
	r.logEffects(result.Effects)
	snap := r.broadcastLocked(OutGameState)
	r.send(cmd, commandReply{snapshot: snap})
	r.scheduleAILocked()
}

func (r *Room) handleRestore(cmd command) {
	seat := r.seatBySession(cmd.sessionID)
	if seat == nil || r.closed {
		r.send(cmd, commandReply{err: newError(ErrSessionRestoreFailed, "no such session in this room")})
		return
	}
	seat.Connected = true
	seat.socket = cmd.socket
	r.cancelEmptyTimerLocked()
	if r.hostSessionID == "" {
		r.hostSessionID = cmd.sessionID
	}
	snap := r.buildSnapshotLocked()
	cmd.socket.Send(Envelope{Type: OutGameState, Data: snap})
	r.send(cmd, commandReply{snapshot: snap})
}

func (r *Room) handleDisconnect(cmd command) {
	seat := r.seatBySession(cmd.sessionID)
	if seat == nil {
		r.send(cmd, commandReply{})
		return
	}
	seat.Connected = false
	seat.socket = nil
	r.broadcastExceptLocked(OutPlayerDisconnected, map[string]string{"sessionId": cmd.sessionID, "playerId": seat.PlayerID}, cmd.sessionID)

	if r.ConnectedCountLocked() == 0 {
		r.startEmptyTimerLocked()
	}
	if cmd.sessionID == r.hostSessionID {
		r.startHostGraceTimerLocked()
	}
	r.send(cmd, commandReply{})
}

func (r *Room) handleClose(cmd command) {
	r.closeLocked()
	r.send(cmd, commandReply{})
}

func (r *Room) closeLocked() {
	if r.closed {
		return
	}
	r.closed = true
	r.status = StatusClosed
	if r.hostGraceTimer != nil {
		r.hostGraceTimer.Stop()
	}
	if r.emptyTimer != nil {
		r.emptyTimer.Stop()
	}
	r.seq++
	r.broadcastToAllLocked(Envelope{Type: OutRoomUpdated, Data: r.buildSnapshotLocked()})
	if r.registry != nil {
		r.registry.forget(r.Code)
	}
	metrics.RoomsActive.Dec()
	close(r.done)
}

func (r *Room) ConnectedCountLocked() int {
	n := 0
	for _, s := range r.seats {
		if s.Connected {
			n++
		}
	}
	return n
}

func (r *Room) promoteHostLocked() {
	for _, s := range r.seats {
		if s.Connected {
			r.hostSessionID = s.SessionID
			r.broadcastToAllLocked(Envelope{Type: OutHostMigrated, Data: map[string]string{
				"newHostSessionId": s.SessionID,
				"newHostName":      s.Name,
			}})
			return
		}
	}
	r.hostSessionID = ""
}

func (r *Room) startHostGraceTimerLocked() {
	if r.hostGraceTimer != nil {
		r.hostGraceTimer.Stop()
	}
	sessionAtStart := r.hostSessionID
	r.hostGraceTimer = time.AfterFunc(r.cfg.HostGraceWindow, func() {
		tag := "__host_grace__:" + sessionAtStart
		select {
		case r.inbox <- command{kind: cmdAIFallback, sessionID: tag}:
		case <-r.done:
		}
	})
}

func (r *Room) startEmptyTimerLocked() {
	if r.emptyTimer != nil {
		r.emptyTimer.Stop()
	}
	r.emptyTimer = time.AfterFunc(r.cfg.RoomEmptyTTL, func() {
		r.Close()
	})
}

func (r *Room) cancelEmptyTimerLocked() {
	if r.emptyTimer != nil {
		r.emptyTimer.Stop()
		r.emptyTimer = nil
	}
}

// ---- AI driver ----

func (r *Room) scheduleAILocked() {
	r.aiGeneration++
	gen := r.aiGeneration

	if r.status != StatusPlaying || r.state == nil || r.state.Status != sdk.GameStatusPlaying {
		return
	}
	actor, thinkDelay := r.currentAIActorLocked()
	if actor == nil {
		return
	}

	playerID := actor.ID
	time.AfterFunc(thinkDelay, func() {
		r.submitAI(cmdAIDecide, playerID, gen)
	})
	time.AfterFunc(r.cfg.AIHardTimeout, func() {
		r.submitAI(cmdAIFallback, playerID, gen)
	})
}

func (r *Room) submitAI(kind commandKind, playerID string, gen int) {
	select {
	case r.inbox <- command{kind: kind, playerID: playerID, generation: gen}:
	case <-r.done:
	}
}

// currentAIActorLocked returns the AI seat the room is waiting on, and how
// long the "thinking" delay should be (zero if a pending action targets it).
func (r *Room) currentAIActorLocked() (*sdk.Player, time.Duration) {
	state := r.state
	if pac := state.PendingActionCard; pac != nil {
		p := state.PlayerByID(pac.PlayerID)
		if p != nil && p.IsAI {
			return p, 0
		}
		return nil, 0
	}
	if state.CurrentPlayerIndex < 0 || state.CurrentPlayerIndex >= len(state.Players) {
		return nil, 0
	}
	p := state.Players[state.CurrentPlayerIndex]
	if p.IsAI && p.IsActive && !p.HasBusted {
		return p, r.cfg.AIThinkDelay
	}
	return nil, 0
}

func (r *Room) handleAIDecide(cmd command) {
	if cmd.generation != r.aiGeneration || r.state == nil || r.state.Status != sdk.GameStatusPlaying {
		return
	}
	start := time.Now()
	decision := ai.Decide(r.state, cmd.playerID)
	r.applyAIDecisionLocked(decision, cmd.playerID)
	metrics.AIDecisionSeconds.Observe(time.Since(start).Seconds())
}

func (r *Room) handleAIFallback(cmd command) {
	if strings.HasPrefix(cmd.sessionID, "__host_grace__:") {
		// Host-grace-window fallback: promote a new host, not an AI input.
		r.handleHostGraceTimeout(cmd.sessionID)
		return
	}
	if cmd.generation != r.aiGeneration || r.state == nil || r.state.Status != sdk.GameStatusPlaying {
		return
	}
	metrics.AIDecisionTimeouts.Inc()
	decision := ai.Decide(r.state, cmd.playerID)
	r.applyAIDecisionLocked(decision, cmd.playerID)
}

func (r *Room) handleHostGraceTimeout(tag string) {
	const prefix = "__host_grace__:"
	sessionAtStart := tag[len(prefix):]
	if r.hostSessionID != sessionAtStart {
		return // host already changed or reconnected
	}
	seat := r.seatBySession(sessionAtStart)
	if seat != nil && seat.Connected {
		return // reconnected within the grace window
	}
	r.promoteHostLocked()
	r.broadcastLocked(OutRoomUpdated)
}

func (r *Room) applyAIDecisionLocked(decision ai.Decision, playerID string) {
	var result sdk.Result
	switch decision.Kind {
	case ai.DecisionHit:
		result = sdk.ApplyHit(r.state, playerID)
	case ai.DecisionStay:
		result = sdk.ApplyStay(r.state, playerID)
	case ai.DecisionPlayAction:
		result = sdk.ApplyPlayAction(r.state, playerID, decision.CardID, decision.TargetID)
	}
	if result.Err != nil {
		r.logger.Warn("AI decision rejected by engine", zap.String("player_id", playerID), zap.Error(result.Err))
		return
	}
	r.state = result.NextState
	r.applyRoundEndSideEffectsLocked(result.Effects)
	r.logEffects(result.Effects)
	r.broadcastLocked(OutGameState)
	r.scheduleAILocked()
}

// applyRoundEndSideEffectsLocked updates room status and records completed
// matches with the external collaborator.
func (r *Room) applyRoundEndSideEffectsLocked(effects []sdk.Effect) {
	for _, e := range effects {
		switch ev := e.(type) {
		case sdk.RoundEndedEffect:
			r.status = StatusRoundEnd
		case sdk.GameEndedEffect:
			r.recordMatch(ev.WinnerID)
		}
	}
}

func (r *Room) recordMatch(winnerID string) {
	if r.recorder == nil || r.state == nil {
		return
	}
	scores := make(map[string]int, len(r.state.Players))
	ids := make([]string, 0, len(r.state.Players))
	for _, p := range r.state.Players {
		scores[p.ID] = p.Score
		ids = append(ids, p.ID)
	}
	result := collaborator.MatchResult{
		RoomCode:    r.Code,
		WinnerID:    winnerID,
		TargetScore: r.state.TargetScore,
		Rounds:      r.state.Round,
		PlayerIDs:   ids,
		FinalScores: scores,
		EndedAt:     time.Now(),
	}
	go func() {
		if err := r.recorder.RecordMatch(context.Background(), result); err != nil {
			r.logger.Warn("RecordMatch failed", zap.Error(err))
		}
	}()
}

func (r *Room) logEffects(effects []sdk.Effect) {
	for _, e := range effects {
		r.logger.Info("effect", zap.String("kind", string(e.Kind())), zap.Any("effect", e))
	}
}

// ---- broadcasting ----

func (r *Room) broadcastLocked(eventType string) *Snapshot {
	r.seq++
	snap := r.buildSnapshotLocked()
	r.broadcastToAllLocked(Envelope{Type: eventType, Data: snap})
	return snap
}

func (r *Room) broadcastToAllLocked(env Envelope) {
	depth := 0
	for _, s := range r.seats {
		if s.Connected && s.socket != nil {
			s.socket.Send(env)
			depth++
		}
	}
	metrics.BroadcastQueueDepth.WithLabelValues(r.Code).Set(float64(depth))
}

func (r *Room) broadcastExceptLocked(eventType string, data interface{}, exceptSessionID string) {
	for _, s := range r.seats {
		if s.Connected && s.socket != nil && s.SessionID != exceptSessionID {
			s.socket.Send(Envelope{Type: eventType, Data: data})
		}
	}
}

func (r *Room) buildSnapshotLocked() *Snapshot {
	return newSnapshot(r, r.seq)
}

// ---- id generation ----

var idRand = rand.New(rand.NewSource(time.Now().UnixNano()))
var idMu sync.Mutex

// newID mints a process-unique, URL-safe identifier. The Gateway uses
// google/uuid for session ids handed to clients directly; this local
// generator backs every seat's player id (human and bot alike) and bot
// seats' session ids, where a full UUID would be overkill.
func newID() string {
	idMu.Lock()
	defer idMu.Unlock()
	return fmt.Sprintf("p_%x", idRand.Int63())
}
