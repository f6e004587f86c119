package service

import (
	"context"
	"testing"
	"time"

	"github.com/wricardo/hexroom/game/engine"
	"github.com/wricardo/hexroom/hexgrid"
)

func newTestGame(conn *fakeConn, selfRole engine.Role, selfID int) *Game {
	return &Game{
		conn:     conn,
		selfRole: selfRole,
		selfID:   selfID,
		actors: map[int]*mirrorActor{
			1: {ActorID: 1, Role: engine.RoleLeader, Location: hexgrid.Origin()},
			2: {ActorID: 2, Role: engine.RoleFollower, Location: hexgrid.Coord{A: 0, R: 0, C: 1}},
		},
		turn:     engine.TurnState{Turn: engine.RoleLeader, MovesRemaining: engine.LeaderMovesPerTurn, TurnsLeft: 6},
		feedback: make(chan string, 8),
	}
}

func TestStepRejectsActionOutOfTurn(t *testing.T) {
	conn := newFakeConn()
	g := newTestGame(conn, engine.RoleFollower, 2)

	_, err := g.Step(context.Background(), AgentAction{Kind: ActionKindTranslate})
	if err == nil {
		t.Fatal("expected an error for acting out of turn")
	}
	if len(conn.sent) != 0 {
		t.Fatalf("no message should have been sent, got %d", len(conn.sent))
	}
}

func TestStepSendsActionAndWaitsForTick(t *testing.T) {
	conn := newFakeConn()
	g := newTestGame(conn, engine.RoleLeader, 1)
	conn.push(engine.MessageFromServer{Type: engine.FromServerStateMachineTick})

	obs, err := g.Step(context.Background(), AgentAction{Kind: ActionKindTranslate, Displacement: hexgrid.UnitDirections()[0]})
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(conn.sent) != 1 || conn.sent[0].Type != engine.ToServerActions {
		t.Fatalf("sent = %+v, want one ToServerActions message", conn.sent)
	}
	if obs.Self.ActorID != 1 || obs.Self.Role != engine.RoleLeader {
		t.Fatalf("observation self = %+v", obs.Self)
	}
	if len(obs.Others) != 1 || obs.Others[0].ActorID != 2 {
		t.Fatalf("observation others = %+v", obs.Others)
	}
}

func TestStepBlocksUntilAgentCanAct(t *testing.T) {
	conn := newFakeConn()
	g := newTestGame(conn, engine.RoleFollower, 2)
	g.turn.Turn = engine.RoleFollower // follower's own turn, so it may end it

	endedTurn := engine.TurnState{Turn: engine.RoleLeader, MovesRemaining: engine.LeaderMovesPerTurn, TurnsLeft: 6}
	conn.push(engine.MessageFromServer{Type: engine.FromServerGameState, TurnState: &endedTurn})
	conn.push(engine.MessageFromServer{Type: engine.FromServerStateMachineTick}) // still leader's turn, follower can't act
	flipBack := engine.TurnState{Turn: engine.RoleFollower, MovesRemaining: engine.FollowerMovesPerTurn, TurnsLeft: 5}
	conn.push(engine.MessageFromServer{Type: engine.FromServerGameState, TurnState: &flipBack})
	conn.push(engine.MessageFromServer{Type: engine.FromServerStateMachineTick})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	obs, err := g.Step(ctx, AgentAction{Kind: ActionKindEndTurn})
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if obs.Turn.Turn != engine.RoleFollower {
		t.Fatalf("expected Step to return once it was the follower's turn again, got %v", obs.Turn.Turn)
	}
}

func TestObservationIncludesMapAndProps(t *testing.T) {
	conn := newFakeConn()
	g := newTestGame(conn, engine.RoleLeader, 1)

	g.handleMessage(engine.MessageFromServer{Type: engine.FromServerMapUpdate, MapUpdate: &engine.MapUpdate{Rows: 2, Cols: 3}})
	g.handleMessage(engine.MessageFromServer{Type: engine.FromServerPropUpdate, PropUpdate: []engine.Prop{{ID: 9}}})

	obs := g.observation()
	if obs.Map == nil || obs.Map.Rows != 2 || obs.Map.Cols != 3 {
		t.Fatalf("observation map = %+v, want {Rows:2 Cols:3}", obs.Map)
	}
	if len(obs.Props) != 1 || obs.Props[0].ID != 9 {
		t.Fatalf("observation props = %+v, want one prop with ID 9", obs.Props)
	}
}

func TestHandleMessagePingQueuesPong(t *testing.T) {
	conn := newFakeConn()
	g := newTestGame(conn, engine.RoleLeader, 1)

	g.handleMessage(engine.MessageFromServer{Type: engine.FromServerPing})

	if len(g.pendingOutgoing) != 1 || g.pendingOutgoing[0].Type != engine.ToServerPong {
		t.Fatalf("pendingOutgoing = %+v, want one ToServerPong", g.pendingOutgoing)
	}
}

func TestHandleMessageLiveFeedbackIsPollable(t *testing.T) {
	conn := newFakeConn()
	g := newTestGame(conn, engine.RoleFollower, 2)

	g.handleMessage(engine.MessageFromServer{Type: engine.FromServerLiveFeedback, LiveFeedback: "nice move"})

	msg, ok := g.PollFeedback()
	if !ok || msg != "nice move" {
		t.Fatalf("PollFeedback = %q, %v", msg, ok)
	}
	if _, ok := g.PollFeedback(); ok {
		t.Fatal("expected feedback queue to be drained after one poll")
	}
}

func TestHandleMessageActionsMovesOtherActorButDiscardsOwnEcho(t *testing.T) {
	conn := newFakeConn()
	g := newTestGame(conn, engine.RoleLeader, 1)

	displacement := hexgrid.UnitDirections()[0]
	g.handleMessage(engine.MessageFromServer{Type: engine.FromServerActions, Actions: []engine.Action{
		engine.Translate(1, displacement, 0.5), // own action, echoed back, must be ignored
		engine.Translate(2, displacement, 0.5), // follower's action, must be mirrored
	}})

	if g.actors[1].Location != hexgrid.Origin() {
		t.Fatalf("own actor moved from an echoed action: %+v", g.actors[1].Location)
	}
	want := hexgrid.Coord{A: 0, R: 0, C: 1}.Add(displacement)
	if g.actors[2].Location != want {
		t.Fatalf("follower location = %+v, want %+v", g.actors[2].Location, want)
	}
}

func TestHandleMessageActionsRemovesActorOnDeath(t *testing.T) {
	conn := newFakeConn()
	g := newTestGame(conn, engine.RoleLeader, 1)

	g.handleMessage(engine.MessageFromServer{Type: engine.FromServerActions, Actions: []engine.Action{
		engine.Death(2),
	}})

	if _, ok := g.actors[2]; ok {
		t.Fatal("follower still mirrored after a DEATH action")
	}
}

func TestValidateActionFeedbackRequiresLeaderDuringFollowerTurn(t *testing.T) {
	conn := newFakeConn()
	g := newTestGame(conn, engine.RoleLeader, 1)
	g.turn.Turn = engine.RoleLeader

	if ok, _ := g.validateAction(ActionKindPositiveFeedback); ok {
		t.Fatal("feedback should be rejected during the leader's own turn")
	}

	g.turn.Turn = engine.RoleFollower
	if ok, reason := g.validateAction(ActionKindPositiveFeedback); !ok {
		t.Fatalf("feedback should be allowed during the follower's turn: %s", reason)
	}
}
