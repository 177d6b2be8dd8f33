package gateway

import (
	"encoding/json"

	"github.com/google/uuid"

	"flip7server/backend/matchmaking"
	"flip7server/backend/room"
)

type pingData struct{}

type sessionRestoreData struct {
	SessionID string `json:"sessionId"`
	RoomCode  string `json:"roomCode"`
}

type roomCreateData struct {
	PlayerName string `json:"playerName"`
}

type roomJoinData struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type matchmakingJoinData struct {
	PlayerName string `json:"playerName"`
	MaxPlayers int    `json:"maxPlayers"`
}

type gameActorData struct {
	PlayerID string `json:"playerId"`
}

type gamePlayActionData struct {
	PlayerID       string `json:"playerId"`
	CardID         string `json:"cardId"`
	TargetPlayerID string `json:"targetPlayerId,omitempty"`
}

func (c *connection) dispatch(msg inboundMessage) {
	switch msg.Type {
	case InPing:
		c.Send(room.Envelope{Type: room.OutPong})

	case InSessionRestore:
		var data sessionRestoreData
		if err := unmarshal(msg.Data, &data); err != nil {
			c.badMessage("invalid session:restore payload")
			return
		}
		r, ok := c.gw.registry.Lookup(data.RoomCode)
		if !ok {
			c.replyErr(&room.Error{Code: room.ErrRoomNotFound, Message: "no room with that code"})
			return
		}
		snap, rerr := r.Restore(data.SessionID, c)
		if rerr != nil {
			c.replyErr(rerr)
			return
		}
		c.gw.registry.BindSession(data.SessionID, data.RoomCode)
		c.bind(data.SessionID, r)
		c.Send(room.Envelope{Type: room.OutGameState, Data: snap})

	case InRoomCreate:
		var data roomCreateData
		if err := unmarshal(msg.Data, &data); err != nil {
			c.badMessage("invalid room:create payload")
			return
		}
		r, sessionID, snap, rerr := c.gw.registry.CreateRoom(data.PlayerName)
		if rerr != nil {
			c.replyErr(rerr)
			return
		}
		if _, rerr := r.Restore(sessionID, c); rerr != nil {
			c.replyErr(rerr)
			return
		}
		c.bind(sessionID, r)
		c.Send(room.Envelope{Type: room.OutRoomCreated, Data: snap})

	case InRoomJoin:
		var data roomJoinData
		if err := unmarshal(msg.Data, &data); err != nil {
			c.badMessage("invalid room:join payload")
			return
		}
		r, sessionID, snap, rerr := c.gw.registry.JoinRoom(data.RoomCode, data.PlayerName)
		if rerr != nil {
			c.replyErr(rerr)
			return
		}
		if _, rerr := r.Restore(sessionID, c); rerr != nil {
			c.replyErr(rerr)
			return
		}
		c.bind(sessionID, r)
		c.Send(room.Envelope{Type: room.OutRoomJoined, Data: snap})

	case InRoomLeave:
		r := c.currentRoom()
		if r == nil {
			c.replyErr(&room.Error{Code: room.ErrNotInRoom, Message: "not in a room"})
			return
		}
		_, rerr := r.Leave(c.SessionID())
		c.bind("", nil)
		if rerr != nil {
			c.replyErr(rerr)
		}

	case InMatchmakingJoin:
		var data matchmakingJoinData
		if err := unmarshal(msg.Data, &data); err != nil {
			c.badMessage("invalid matchmaking:join payload")
			return
		}
		sessionID := uuid.NewString()
		c.bind(sessionID, nil)
		r, matched := c.gw.queue.Enqueue(data.MaxPlayers, matchmaking.Waiter{
			SessionID: sessionID,
			Name:      data.PlayerName,
			Socket:    c,
		})
		if !matched {
			c.Send(room.Envelope{Type: OutMatchmakingQueued, Data: map[string]string{"sessionId": sessionID}})
			return
		}
		c.bind(sessionID, r)
		c.Send(room.Envelope{Type: OutMatchmakingMatched, Data: r.Snapshot()})

	case InMatchmakingCancel:
		c.gw.queue.Cancel(c.SessionID())
		c.bind("", nil)

	case InGameStart:
		c.withRoom(func(r *room.Room) (*room.Snapshot, *room.Error) {
			return r.Start(c.SessionID())
		})

	case InGameHit:
		var data gameActorData
		if err := unmarshal(msg.Data, &data); err != nil {
			c.badMessage("invalid game:hit payload")
			return
		}
		c.withRoom(func(r *room.Room) (*room.Snapshot, *room.Error) {
			return r.Hit(c.SessionID(), data.PlayerID)
		})

	case InGameStay:
		var data gameActorData
		if err := unmarshal(msg.Data, &data); err != nil {
			c.badMessage("invalid game:stay payload")
			return
		}
		c.withRoom(func(r *room.Room) (*room.Snapshot, *room.Error) {
			return r.Stay(c.SessionID(), data.PlayerID)
		})

	case InGamePlayAction:
		var data gamePlayActionData
		if err := unmarshal(msg.Data, &data); err != nil {
			c.badMessage("invalid game:playActionCard payload")
			return
		}
		c.withRoom(func(r *room.Room) (*room.Snapshot, *room.Error) {
			return r.PlayAction(c.SessionID(), data.PlayerID, data.CardID, data.TargetPlayerID)
		})

	case InGameNextRound:
		c.withRoom(func(r *room.Room) (*room.Snapshot, *room.Error) {
			return r.NextRound(c.SessionID())
		})

	default:
		c.Send(room.Envelope{Type: room.OutError, Data: &room.Error{Code: room.ErrUnknownType, Message: "unrecognized message type: " + msg.Type}})
	}
}

// withRoom runs op against the connection's bound room, replying with the
// Session/Room-layer error if there's no bound room or the op itself fails.
// Success responses are delivered through the Room's own broadcast, not here.
func (c *connection) withRoom(op func(*room.Room) (*room.Snapshot, *room.Error)) {
	r := c.currentRoom()
	if r == nil {
		c.replyErr(&room.Error{Code: room.ErrNotInRoom, Message: "not in a room"})
		return
	}
	if _, rerr := op(r); rerr != nil {
		c.replyErr(rerr)
	}
}

func unmarshal(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}
