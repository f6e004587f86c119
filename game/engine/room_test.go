package engine

import (
	"testing"
	"time"

	"github.com/wricardo/hexroom/eventlog"
	"github.com/wricardo/hexroom/hexgrid"
)

func coordsFromOrigin() (e, w, ne, nw, sw hexgrid.Coord) {
	dirs := hexgrid.UnitDirections()
	o := hexgrid.Origin()
	return o.Add(dirs[0]), o.Add(dirs[1]), o.Add(dirs[2]), o.Add(dirs[3]), o.Add(dirs[4])
}

func newTestRoom(t *testing.T) (*Room, *InMemoryMapProvider) {
	t.Helper()
	room, provider, _ := newTestRoomWithSink(t, eventlog.NoopSink{})
	return room, provider
}

// recordingSink collects every emitted event for assertions; Emit never
// blocks the caller, matching the Sink contract's cheap-or-async guarantee.
type recordingSink struct {
	events []eventlog.Event
}

func (s *recordingSink) Emit(e eventlog.Event) error {
	s.events = append(s.events, e)
	return nil
}

func newTestRoomWithSink(t *testing.T, sink eventlog.Sink) (*Room, *InMemoryMapProvider, eventlog.Sink) {
	t.Helper()
	e, w, ne, nw, sw := coordsFromOrigin()
	cells := []hexgrid.Coord{
		hexgrid.Origin(), e, w, ne, nw, sw,
		{A: 0, R: 0, C: 2}, {A: 0, R: 0, C: -2}, {A: 0, R: 1, C: 0}, {A: 0, R: -1, C: 0},
	}
	tiles := make([]Tile, len(cells))
	for i, c := range cells {
		tiles[i] = Tile{Cell: c}
	}
	ids := NewIdAssigner()
	spawns := []hexgrid.Coord{hexgrid.Origin(), {A: 0, R: -1, C: 0}}
	provider := NewInMemoryMapProvider(5, 5, tiles, nil, spawns, MapMetadata{}, ids, 7)
	room := NewRoom("room-1", provider, NewIdAssigner(), sink)
	return room, provider, sink
}

func TestTickNotifyFiresOncePerTick(t *testing.T) {
	room, _ := newTestRoom(t)
	room.CreateActor(RoleLeader, 1)
	room.CreateActor(RoleFollower, 2)

	signal := room.TickNotify()
	room.Tick(time.Now())

	select {
	case <-signal:
	default:
		t.Fatal("TickNotify channel did not close after Tick")
	}

	next := room.TickNotify()
	select {
	case <-next:
		t.Fatal("next generation's channel should not yet be closed")
	default:
	}
}

func TestCreateActorAssignsDistinctRolesAndStartsOnSecond(t *testing.T) {
	room, _ := newTestRoom(t)
	leaderID, err := room.CreateActor(RoleLeader, 1)
	if err != nil {
		t.Fatalf("CreateActor(leader): %v", err)
	}
	if room.running {
		t.Fatalf("room started running with only one actor")
	}
	if _, err := room.CreateActor(RoleLeader, 2); err != ErrRoleTaken {
		t.Fatalf("second leader: got err %v, want ErrRoleTaken", err)
	}
	followerID, err := room.CreateActor(RoleFollower, 2)
	if err != nil {
		t.Fatalf("CreateActor(follower): %v", err)
	}
	if !room.running {
		t.Fatalf("room did not start running after second actor joined")
	}
	if leaderID == followerID {
		t.Fatalf("leader and follower got the same actor id")
	}
}

func TestDrainPriorityOrderOnJoin(t *testing.T) {
	room, _ := newTestRoom(t)
	leaderID, _ := room.CreateActor(RoleLeader, 1)
	room.CreateActor(RoleFollower, 2)

	msg, ok := room.Drain(leaderID)
	if !ok || msg.Type != FromServerMapUpdate {
		t.Fatalf("first drain = %+v, want MapUpdate", msg)
	}
	msg, ok = room.Drain(leaderID)
	if !ok || msg.Type != FromServerPropUpdate {
		t.Fatalf("second drain = %+v, want PropUpdate", msg)
	}
	msg, ok = room.Drain(leaderID)
	if !ok || msg.Type != FromServerStateSync {
		t.Fatalf("third drain = %+v, want StateSync", msg)
	}
	msg, ok = room.Drain(leaderID)
	if !ok || msg.Type != FromServerGameState {
		t.Fatalf("fourth drain = %+v, want GameState", msg)
	}
	if _, ok := room.Drain(leaderID); ok {
		t.Fatalf("drain returned a fifth message with nothing pending")
	}
}

func drainAll(room *Room, actorID int) []MessageFromServer {
	var out []MessageFromServer
	for {
		msg, ok := room.Drain(actorID)
		if !ok {
			return out
		}
		out = append(out, *msg)
	}
}

func TestOutOfTurnActionIsDroppedAndDesyncs(t *testing.T) {
	room, _ := newTestRoom(t)
	_, _ = room.CreateActor(RoleLeader, 1)
	followerID, _ := room.CreateActor(RoleFollower, 2)
	drainAll(room, followerID)
	if !room.IsSynced(followerID) {
		t.Fatalf("follower not synced after draining")
	}

	actor := room.actors[followerID]
	actor.AddAction(Translate(followerID, hexgrid.UnitDirections()[0], 0.5))
	room.Tick(time.Now())

	if actor.HasActions() {
		t.Fatalf("out-of-turn action was not dropped")
	}
	if room.IsSynced(followerID) {
		t.Fatalf("follower was not desynced after an out-of-turn action")
	}
}

func TestInvalidActionIsDroppedAndDesyncs(t *testing.T) {
	room, _ := newTestRoom(t)
	leaderID, _ := room.CreateActor(RoleLeader, 1)
	_, _ = room.CreateActor(RoleFollower, 2)
	drainAll(room, leaderID)

	actor := room.actors[leaderID]
	actor.AddAction(Translate(leaderID, hexgrid.Coord{A: 0, R: 5, C: 5}, 0.5))
	room.Tick(time.Now())

	if actor.HasActions() {
		t.Fatalf("invalid action was not dropped")
	}
	if room.IsSynced(leaderID) {
		t.Fatalf("leader was not desynced after an invalid action")
	}
}

func TestValidSetAwardsBonusTurnsAndRespawnsCards(t *testing.T) {
	room, provider := newTestRoom(t)
	leaderID, _ := room.CreateActor(RoleLeader, 1)
	_, _ = room.CreateActor(RoleFollower, 2)

	e, w, ne, nw, sw := coordsFromOrigin()
	provider.cards[100] = &Card{ID: 100, Location: e, Color: 0, Shape: 0, Count: 0}
	provider.cards[101] = &Card{ID: 101, Location: ne, Color: 1, Shape: 1, Count: 1}
	provider.cards[102] = &Card{ID: 102, Location: nw, Color: 2, Shape: 2, Count: 2}

	dirs := hexgrid.UnitDirections()
	path := []hexgrid.Coord{dirs[0], dirs[1], dirs[2], dirs[4], dirs[3]} // E, W, NE, SW, NW
	actor := room.actors[leaderID]
	for _, d := range path {
		actor.AddAction(Translate(leaderID, d, 0.5))
	}
	for range path {
		room.Tick(time.Now())
	}
	_ = w
	_ = sw

	if room.turn.SetsCollected != 1 {
		t.Fatalf("sets_collected = %d, want 1", room.turn.SetsCollected)
	}
	if room.turn.Score != 1 {
		t.Fatalf("score = %d, want 1", room.turn.Score)
	}
	wantTurnsLeft := initialTurnsLeft + bonusTurns(0)
	if room.turn.TurnsLeft != wantTurnsLeft {
		t.Fatalf("turns_left = %d, want %d", room.turn.TurnsLeft, wantTurnsLeft)
	}
	if room.currentSetInvalid {
		t.Fatalf("currentSetInvalid still set after a completed set")
	}
	for _, id := range []int{100, 101, 102} {
		if _, ok := provider.cards[id]; ok {
			t.Fatalf("collected card %d was not removed", id)
		}
	}
	if len(provider.cards) != 3 {
		t.Fatalf("expected 3 respawned cards, found %d", len(provider.cards))
	}
}

func TestValidSetEmitsMapAndPropUpdateEvents(t *testing.T) {
	room, provider, sink := newTestRoomWithSink(t, &recordingSink{})
	leaderID, _ := room.CreateActor(RoleLeader, 1)
	_, _ = room.CreateActor(RoleFollower, 2)

	e, _, ne, nw, _ := coordsFromOrigin()
	provider.cards[100] = &Card{ID: 100, Location: e, Color: 0, Shape: 0, Count: 0}
	provider.cards[101] = &Card{ID: 101, Location: ne, Color: 1, Shape: 1, Count: 1}
	provider.cards[102] = &Card{ID: 102, Location: nw, Color: 2, Shape: 2, Count: 2}

	dirs := hexgrid.UnitDirections()
	path := []hexgrid.Coord{dirs[0], dirs[3], dirs[1]} // E, NW, W: origin -> e -> ne -> nw
	actor := room.actors[leaderID]
	for _, d := range path {
		actor.AddAction(Translate(leaderID, d, 0.5))
	}
	for range path {
		room.Tick(time.Now())
	}

	rec := sink.(*recordingSink)
	var sawMapUpdate, sawPropUpdate bool
	for _, ev := range rec.events {
		switch ev.Type {
		case eventlog.EventMapUpdate:
			sawMapUpdate = true
		case eventlog.EventPropUpdate:
			sawPropUpdate = true
		}
	}
	if !sawMapUpdate {
		t.Fatal("expected an EventMapUpdate after collecting a valid set")
	}
	if !sawPropUpdate {
		t.Fatal("expected an EventPropUpdate after collecting a valid set")
	}
}

func TestInterruptEmitsInstructionCancelled(t *testing.T) {
	room, _, sink := newTestRoomWithSink(t, &recordingSink{})
	leaderID, _ := room.CreateActor(RoleLeader, 1)
	followerID, _ := room.CreateActor(RoleFollower, 2)

	if err := room.HandlePacket(leaderID, ToServer(ToServerInstruction, time.Now())); err != nil {
		t.Fatalf("HandlePacket(instruction): %v", err)
	}
	if err := room.HandlePacket(followerID, ToServer(ToServerInterrupt, time.Now())); err != nil {
		t.Fatalf("HandlePacket(interrupt): %v", err)
	}

	rec := sink.(*recordingSink)
	var found bool
	for _, ev := range rec.events {
		if ev.Type == eventlog.EventInstructionCancelled {
			found = true
		}
	}
	if !found {
		t.Fatal("expected an EventInstructionCancelled after INTERRUPT")
	}
}

func TestTurnExpiryFlipsRoleAndDecrementsTurnsLeft(t *testing.T) {
	room, _ := newTestRoom(t)
	_, _ = room.CreateActor(RoleLeader, 1)
	_, _ = room.CreateActor(RoleFollower, 2)

	room.turn.TurnEnd = time.Now().Add(-time.Millisecond)
	room.Tick(time.Now())

	if room.turn.Turn != RoleFollower {
		t.Fatalf("turn = %v, want FOLLOWER", room.turn.Turn)
	}
	if room.turn.MovesRemaining != FollowerMovesPerTurn {
		t.Fatalf("moves_remaining = %d, want %d", room.turn.MovesRemaining, FollowerMovesPerTurn)
	}
	if room.turn.TurnsLeft != initialTurnsLeft-1 {
		t.Fatalf("turns_left = %d, want %d", room.turn.TurnsLeft, initialTurnsLeft-1)
	}
}

func TestTerminalTurnsLeftEndsGame(t *testing.T) {
	room, _ := newTestRoom(t)
	_, _ = room.CreateActor(RoleLeader, 1)
	_, _ = room.CreateActor(RoleFollower, 2)

	room.turn.TurnsLeft = -1
	room.Tick(time.Now())

	if !room.done {
		t.Fatalf("room not marked done at turns_left == -1")
	}
	if !room.turn.GameOver {
		t.Fatalf("turn state not marked game over")
	}
}

func TestTurnCompleteEndsTurnEarly(t *testing.T) {
	room, _ := newTestRoom(t)
	leaderID, _ := room.CreateActor(RoleLeader, 1)
	_, _ = room.CreateActor(RoleFollower, 2)

	err := room.HandlePacket(leaderID, ToServer(ToServerTurnComplete, time.Now()))
	if err != nil {
		t.Fatalf("HandlePacket(TURN_COMPLETE): %v", err)
	}
	if room.turn.Turn != RoleFollower {
		t.Fatalf("turn = %v, want FOLLOWER after explicit TURN_COMPLETE", room.turn.Turn)
	}
}

func TestObjectiveLifecycle(t *testing.T) {
	room, _ := newTestRoom(t)
	leaderID, _ := room.CreateActor(RoleLeader, 1)
	followerID, _ := room.CreateActor(RoleFollower, 2)

	leaderMsg := ToServer(ToServerObjective, time.Now())
	leaderMsg.ObjectiveText = "go to the lake"
	if err := room.HandlePacket(leaderID, leaderMsg); err != nil {
		t.Fatalf("HandlePacket(OBJECTIVE): %v", err)
	}
	if len(room.objectives) != 1 {
		t.Fatalf("objectives = %d, want 1", len(room.objectives))
	}

	// A follower may not submit an objective.
	rogue := ToServer(ToServerObjective, time.Now())
	rogue.ObjectiveText = "not allowed"
	if err := room.HandlePacket(followerID, rogue); err != nil {
		t.Fatalf("HandlePacket(OBJECTIVE) from follower: %v", err)
	}
	if len(room.objectives) != 1 {
		t.Fatalf("follower-submitted objective was accepted")
	}

	completeMsg := ToServer(ToServerObjectiveCompleted, time.Now())
	completeMsg.ObjectiveUUID = room.objectives[0].UUID
	if err := room.HandlePacket(followerID, completeMsg); err != nil {
		t.Fatalf("HandlePacket(OBJECTIVE_COMPLETED): %v", err)
	}
	if !room.objectives[0].Completed {
		t.Fatalf("objective not marked completed")
	}
}

func TestFreeActorDesyncsSurvivors(t *testing.T) {
	room, _ := newTestRoom(t)
	leaderID, _ := room.CreateActor(RoleLeader, 1)
	followerID, _ := room.CreateActor(RoleFollower, 2)
	drainAll(room, leaderID)

	if err := room.FreeActor(followerID); err != nil {
		t.Fatalf("FreeActor: %v", err)
	}
	if _, ok := room.actors[followerID]; ok {
		t.Fatalf("follower still present after FreeActor")
	}
	if st, ok := room.stale[leaderID]; !ok || st.synced {
		t.Fatalf("surviving actor not desynced after a departure")
	}
}

func TestFreeActorQueuesDeathActionForSurvivors(t *testing.T) {
	room, _ := newTestRoom(t)
	leaderID, _ := room.CreateActor(RoleLeader, 1)
	followerID, _ := room.CreateActor(RoleFollower, 2)
	drainAll(room, leaderID)

	if err := room.FreeActor(followerID); err != nil {
		t.Fatalf("FreeActor: %v", err)
	}

	pending := room.outbox[leaderID]
	if len(pending) != 1 || pending[0].ActionType != ActionDeath || pending[0].ID != followerID {
		t.Fatalf("outbox[leader] = %+v, want one DEATH action for %d", pending, followerID)
	}
}
