package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wricardo/hexroom/game/engine"
)

// defaultStepTimeout bounds how long a single Step waits for a tick in which
// the agent can act, absent a deadline already set on the caller's context.
const defaultStepTimeout = 60 * time.Second

// Game mirrors one room's truth as observed by a single connected client. It
// is turn-synchronous: Step blocks until the agent may act again.
type Game struct {
	conn Conn

	mu         sync.Mutex
	selfID     int
	selfRole   engine.Role
	actors     map[int]*mirrorActor
	turn       engine.TurnState
	objectives []engine.Objective
	mapUpdate  *engine.MapUpdate
	props      []engine.Prop

	pendingOutgoing []engine.MessageToServer
	feedback        chan string
}

// canActLocked reports whether the client's own role may act given the
// mirrored turn state: the role whose turn it is, or the Leader at any time
// (LeadFeedback crosses turns; spec.md P8).
func (g *Game) canActLocked() bool {
	return g.selfRole == g.turn.Turn || g.selfRole == engine.RoleLeader
}

// validateAction reports whether action may be submitted given the current
// mirrored role/turn state, and a human-readable reason when it may not.
func (g *Game) validateAction(kind ActionKind) (bool, string) {
	switch kind {
	case ActionKindPositiveFeedback, ActionKindNegativeFeedback:
		if g.selfRole != engine.RoleLeader {
			return false, "only the leader may send feedback"
		}
		if g.turn.Turn != engine.RoleFollower {
			return false, "feedback may only be sent during the follower's turn"
		}
	default:
		if g.selfRole != g.turn.Turn {
			return false, "not your turn"
		}
	}
	return true, ""
}

func (g *Game) encodeAction(action AgentAction) (engine.MessageToServer, error) {
	now := time.Now()
	switch action.Kind {
	case ActionKindTranslate:
		msg := engine.ToServer(engine.ToServerActions, now)
		msg.Actions = []engine.Action{engine.Translate(g.selfID, action.Displacement, 0.5)}
		return msg, nil
	case ActionKindRotate:
		msg := engine.ToServer(engine.ToServerActions, now)
		msg.Actions = []engine.Action{engine.Rotate(g.selfID, action.RotationDeg, 0.5)}
		return msg, nil
	case ActionKindEndTurn:
		return engine.ToServer(engine.ToServerTurnComplete, now), nil
	case ActionKindInterrupt:
		return engine.ToServer(engine.ToServerInterrupt, now), nil
	case ActionKindSendInstruction:
		msg := engine.ToServer(engine.ToServerInstruction, now)
		msg.InstructionText = action.InstructionText
		return msg, nil
	case ActionKindInstructionDone:
		msg := engine.ToServer(engine.ToServerObjectiveCompleted, now)
		msg.ObjectiveUUID = action.ObjectiveUUID
		return msg, nil
	case ActionKindPositiveFeedback:
		return engine.ToServer(engine.ToServerPositiveFeedback, now), nil
	case ActionKindNegativeFeedback:
		return engine.ToServer(engine.ToServerNegativeFeedback, now), nil
	default:
		return engine.MessageToServer{}, fmt.Errorf("service: unknown action kind %d", action.Kind)
	}
}

// Step submits action, then blocks until the next tick in which the agent
// may act, returning the mirrored state at that point (spec.md §4.5).
func (g *Game) Step(ctx context.Context, action AgentAction) (Observation, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultStepTimeout)
		defer cancel()
	}

	g.mu.Lock()
	ok, reason := g.validateAction(action.Kind)
	if !ok {
		g.mu.Unlock()
		return Observation{}, errors.New(reason)
	}
	msg, err := g.encodeAction(action)
	g.mu.Unlock()
	if err != nil {
		return Observation{}, err
	}

	if err := g.conn.Send(msg); err != nil {
		return Observation{}, fmt.Errorf("service: send action: %w", err)
	}
	if err := g.flushMaintenance(); err != nil {
		return Observation{}, fmt.Errorf("service: flush maintenance: %w", err)
	}

	for {
		if err := g.readUntilTick(ctx); err != nil {
			return Observation{}, err
		}
		g.mu.Lock()
		canAct := g.canActLocked()
		g.mu.Unlock()
		if canAct {
			break
		}
	}
	return g.observation(), nil
}

// flushMaintenance sends every message queued by handleMessage (PING
// replies) since the last flush.
func (g *Game) flushMaintenance() error {
	g.mu.Lock()
	pending := g.pendingOutgoing
	g.pendingOutgoing = nil
	g.mu.Unlock()

	for _, msg := range pending {
		if err := g.conn.Send(msg); err != nil {
			return err
		}
	}
	return nil
}

// readUntilTick reads and applies frames until a STATE_MACHINE_TICK marker
// arrives, matching one server tick's worth of mirrored updates.
func (g *Game) readUntilTick(ctx context.Context) error {
	for {
		msg, err := g.conn.Recv(ctx)
		if err != nil {
			return fmt.Errorf("service: recv: %w", err)
		}
		g.handleMessage(msg)
		if msg.Type == engine.FromServerStateMachineTick {
			return nil
		}
	}
}

// handleMessage applies one server message to the mirror, per spec.md §4.5's
// handler table.
func (g *Game) handleMessage(msg engine.MessageFromServer) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch msg.Type {
	case engine.FromServerActions:
		for _, a := range msg.Actions {
			if a.ID == g.selfID && (a.ActionType == engine.ActionTranslate || a.ActionType == engine.ActionRotate) {
				continue
			}
			g.applyActionLocked(a)
		}
	case engine.FromServerStateSync:
		if msg.StateSync != nil {
			g.resetFromStateSyncLocked(*msg.StateSync)
		}
	case engine.FromServerMapUpdate:
		g.mapUpdate = msg.MapUpdate
	case engine.FromServerPropUpdate:
		g.props = msg.PropUpdate
	case engine.FromServerGameState:
		if msg.TurnState != nil {
			g.turn = *msg.TurnState
		}
	case engine.FromServerObjective:
		g.objectives = msg.Objectives
	case engine.FromServerRoomManagement:
		// Handled by JoinGame directly; irrelevant once the game is live.
	case engine.FromServerPing:
		g.pendingOutgoing = append(g.pendingOutgoing, engine.ToServer(engine.ToServerPong, time.Now()))
	case engine.FromServerLiveFeedback:
		select {
		case g.feedback <- msg.LiveFeedback:
		default:
		}
	case engine.FromServerStateMachineTick:
		// No state change; readUntilTick handles the loop boundary.
	}
}

// applyActionLocked mirrors an action applied by the server to an actor
// other than the agent's own. TRANSLATE/ROTATE move the named actor; DEATH
// removes it; every other kind is presentational only.
func (g *Game) applyActionLocked(a engine.Action) {
	actor, ok := g.actors[a.ID]
	switch a.ActionType {
	case engine.ActionTranslate:
		if ok {
			actor.Location = actor.Location.Add(a.Displacement)
		}
	case engine.ActionRotate:
		if ok {
			actor.HeadingDeg += a.RotationDeg
		}
	case engine.ActionDeath:
		delete(g.actors, a.ID)
	}
}

func (g *Game) resetFromStateSyncLocked(sync engine.StateSync) {
	g.actors = make(map[int]*mirrorActor, len(sync.Actors))
	for _, snap := range sync.Actors {
		g.actors[snap.ActorID] = &mirrorActor{
			ActorID:    snap.ActorID,
			AssetID:    snap.AssetID,
			Role:       snap.Role,
			Location:   snap.Location,
			HeadingDeg: snap.HeadingDeg,
		}
	}
}

// resolveSelfID identifies the agent's own actor among the mirrored actors
// by role: a room seats at most one actor per role, so role uniquely
// identifies "me" once selfRole is known from the join response.
func (g *Game) resolveSelfID() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id, a := range g.actors {
		if a.Role == g.selfRole {
			g.selfID = id
			return
		}
	}
}

// observation builds the agent-facing view from the current mirror state.
func (g *Game) observation() Observation {
	g.mu.Lock()
	defer g.mu.Unlock()

	obs := Observation{Turn: g.turn, Objectives: g.objectives, Map: g.mapUpdate, Props: g.props}
	for id, a := range g.actors {
		view := ActorView{ActorID: id, AssetID: a.AssetID, Role: a.Role, Location: a.Location, HeadingDeg: a.HeadingDeg}
		if id == g.selfID {
			obs.Self = view
		} else {
			obs.Others = append(obs.Others, view)
		}
	}
	return obs
}

// PollFeedback returns the oldest undelivered live-feedback message, if any.
func (g *Game) PollFeedback() (string, bool) {
	select {
	case msg := <-g.feedback:
		return msg, true
	default:
		return "", false
	}
}

// Leave notifies the room and closes the underlying connection.
func (g *Game) Leave() error {
	_ = g.conn.Send(engine.ToServer(engine.ToServerLeave, time.Now()))
	return g.conn.Close()
}
