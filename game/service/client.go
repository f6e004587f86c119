package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wricardo/hexroom/game/engine"
)

// defaultJoinTimeout is the hard ceiling a join handshake waits for an
// opponent before giving up (spec.md §4.5).
const defaultJoinTimeout = 6 * time.Minute

// ErrBootedFromQueue is returned by JoinGame when the server gives up on a
// queued ticket before a room ever forms.
var ErrBootedFromQueue = errors.New("service: booted from queue")

// Client drives the join handshake over a Conn and hands back a live Game
// once the room has finished synchronizing initial state.
type Client struct {
	conn Conn
}

// NewClient wraps conn in a Client.
func NewClient(conn Conn) *Client {
	return &Client{conn: conn}
}

func joinKind(pref engine.Role) engine.ToServerKind {
	switch pref {
	case engine.RoleLeader:
		return engine.ToServerJoinLeaderQueue
	case engine.RoleFollower:
		return engine.ToServerJoinFollowerQueue
	default:
		return engine.ToServerJoinQueue
	}
}

// JoinGame requests admission with the given role preference and blocks
// until the room has delivered a join response plus every message needed to
// construct a fully-synchronized Game: a StateSync, a MapUpdate, a
// PropUpdate, and a GameState (spec.md §4.5).
func (c *Client) JoinGame(ctx context.Context, pref engine.Role) (*Game, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultJoinTimeout)
	defer cancel()

	if err := c.conn.Send(engine.ToServer(joinKind(pref), time.Now())); err != nil {
		return nil, fmt.Errorf("service: send join request: %w", err)
	}

	g := &Game{
		conn:     c.conn,
		actors:   make(map[int]*mirrorActor),
		feedback: make(chan string, 8),
	}

	var sawJoin, sawStateSync, sawMapUpdate, sawPropUpdate, sawGameState bool
	for {
		msg, err := c.conn.Recv(ctx)
		if err != nil {
			return nil, fmt.Errorf("service: join: %w", err)
		}

		if msg.Type == engine.FromServerRoomManagement && msg.RoomManagement != nil {
			resp := msg.RoomManagement
			if resp.BootedFromQueue {
				return nil, ErrBootedFromQueue
			}
			if resp.Joined {
				g.selfRole = resp.Role
				sawJoin = true
			}
			continue
		}

		g.handleMessage(msg)
		switch msg.Type {
		case engine.FromServerStateSync:
			sawStateSync = true
		case engine.FromServerMapUpdate:
			sawMapUpdate = true
		case engine.FromServerPropUpdate:
			sawPropUpdate = true
		case engine.FromServerGameState:
			sawGameState = true
		}

		if sawJoin && sawStateSync && sawMapUpdate && sawPropUpdate && sawGameState {
			g.resolveSelfID()
			return g, nil
		}
	}
}
