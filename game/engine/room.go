package engine

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/wricardo/hexroom/eventlog"
	"github.com/wricardo/hexroom/hexgrid"
)

// ErrRoleTaken is returned by CreateActor when the requested role already
// has an actor in the room.
var ErrRoleTaken = errors.New("engine: role already occupied")

// ErrNoSpawnPoints is returned by CreateActor when the map has no spawn
// points left to hand out.
var ErrNoSpawnPoints = errors.New("engine: no spawn points available")

// ErrUnknownActor is returned by operations addressed to an actor id the
// room does not recognize.
var ErrUnknownActor = errors.New("engine: unknown actor id")

// staleBits tracks one client's known-divergence from room truth. All four
// bits are engine-owned; sessions read them only through Drain.
type staleBits struct {
	synced          bool
	mapStale        bool
	propStale       bool
	objectivesStale bool
}

// Room is a single room's authoritative state: the map, the actor table, the
// turn clock, and every per-client queue needed to drive the drain protocol.
// All mutation happens under mu, from either the tick loop (Run/Tick) or an
// input-submitting call (HandlePacket, CreateActor, FreeActor) — never both
// at once.
type Room struct {
	mu sync.Mutex

	id          string
	mapProvider MapProvider
	ids         *IdAssigner
	sink        eventlog.Sink

	spawnPoints []hexgrid.Coord

	actors     map[int]*Actor
	outbox     map[int][]Action
	stale      map[int]*staleBits
	turnQueue  map[int][]TurnState
	feedback   map[int][]string
	objectives []Objective

	turn              TurnState
	currentSetInvalid bool
	lastTick          time.Time
	tickCount         int64
	running           bool
	done              bool

	tickSignal chan struct{}
}

// NewRoom constructs an empty, non-running room. The room starts ticking
// once two actors have been admitted (see CreateActor).
func NewRoom(id string, mp MapProvider, ids *IdAssigner, sink eventlog.Sink) *Room {
	if sink == nil {
		sink = eventlog.NoopSink{}
	}
	return &Room{
		id:          id,
		mapProvider: mp,
		ids:         ids,
		sink:        sink,
		spawnPoints: append([]hexgrid.Coord(nil), mp.SpawnPoints()...),
		actors:      make(map[int]*Actor),
		outbox:      make(map[int][]Action),
		stale:       make(map[int]*staleBits),
		turnQueue:   make(map[int][]TurnState),
		feedback:    make(map[int][]string),
		tickSignal:  make(chan struct{}),
	}
}

// TickNotify returns a channel that closes the next time Tick completes,
// letting a write loop block between drains instead of polling. Each tick
// replaces it with a fresh channel, so callers must re-fetch after it fires.
func (rm *Room) TickNotify() <-chan struct{} {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.tickSignal
}

// ID returns the room's identifier.
func (rm *Room) ID() string { return rm.id }

// Run ticks the room at ~1ms granularity until ctx is cancelled or the room
// finishes. A panic escaping a single tick is the one fatal error case (§7e):
// it is recovered, the room is marked game-over, and Run returns.
func (rm *Room) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if rm.tickSafely(now) {
				return
			}
		}
	}
}

// tickSafely runs one tick, recovering a panic as the engine's one fatal
// error case, and reports whether the room is finished.
func (rm *Room) tickSafely(now time.Time) (finished bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("engine: room %s tick loop failed: %v", rm.id, r)
			rm.mu.Lock()
			rm.turn.GameOver = true
			rm.done = true
			rm.pushTurnStateToAllLocked()
			rm.mu.Unlock()
		}
	}()
	rm.Tick(now)
	return rm.Done()
}

// Done reports whether the room has finished (game over or fatal error).
func (rm *Room) Done() bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.done
}

// Empty reports whether the room currently holds no actors — a signal to
// the Room Manager that it may reclaim the room.
func (rm *Room) Empty() bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return len(rm.actors) == 0
}

// Tick performs one iteration of the tick loop: terminal check, heartbeat
// turn-state emit, turn expiry, and draining each actor's pending action, in
// that order (spec.md §4.4).
func (rm *Room) Tick(now time.Time) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	defer rm.signalTickLocked()

	if !rm.running || rm.done {
		return
	}

	if rm.turn.TurnsLeft == -1 {
		rm.turn.GameOver = true
		rm.done = true
		rm.pushTurnStateToAllLocked()
		return
	}

	if now.Sub(rm.lastTick) >= time.Second {
		rm.lastTick = now
		rm.pushTurnStateToAllLocked()
	}

	if !now.Before(rm.turn.TurnEnd) {
		rm.endTurnIfOverLocked(now, false)
	}

	rm.drainActorQueuesLocked(now)
	rm.tickCount++
}

// signalTickLocked wakes every goroutine blocked on TickNotify and arms a
// fresh channel for the next tick. Deferred unconditionally from Tick so a
// write loop is woken even on a tick that ended the game or hadn't started.
func (rm *Room) signalTickLocked() {
	close(rm.tickSignal)
	rm.tickSignal = make(chan struct{})
}

// sortedActorIDsLocked returns actor IDs in ascending order, used to give
// same-tick commits and emissions a deterministic order across clients.
func (rm *Room) sortedActorIDsLocked() []int {
	ids := make([]int, 0, len(rm.actors))
	for id := range rm.actors {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// drainActorQueuesLocked processes at most one pending action per actor.
func (rm *Room) drainActorQueuesLocked(now time.Time) {
	for _, id := range rm.sortedActorIDsLocked() {
		actor := rm.actors[id]
		if !actor.HasActions() {
			continue
		}
		pending, _ := actor.Peek()

		switch {
		case actor.Role != rm.turn.Turn:
			actor.Drop()
			rm.desyncLocked(id)
			log.Printf("engine: room %s actor %d submitted action out of turn", rm.id, id)
		case rm.turn.MovesRemaining == 0:
			actor.Drop()
			rm.desyncLocked(id)
		case !validAction(pending):
			actor.Drop()
			rm.desyncLocked(id)
			log.Printf("engine: room %s actor %d submitted invalid action %+v", rm.id, id, pending)
		default:
			committed := actor.Step()
			rm.appendToAllOutboxesLocked(committed)
			rm.turn.MovesRemaining--
			rm.sink.Emit(rm.event(eventlog.EventMove, now, roleOrigin(actor.Role), committed))
			if committed.ActionType == ActionTranslate {
				rm.handleCardStepOnLocked(id, now)
			}
		}
	}
}

// handleCardStepOnLocked toggles the card at an actor's new location (if
// any) and re-runs the set-collision/set-complete logic.
func (rm *Room) handleCardStepOnLocked(actorID int, now time.Time) {
	actor := rm.actors[actorID]
	card, ok := rm.mapProvider.CardByLocation(actor.Location)
	if !ok {
		return
	}
	newlySelected := !card.Selected
	rm.mapProvider.SetSelected(card.ID, newlySelected)

	color := colorBlue
	if rm.currentSetInvalid {
		color = colorRed
	}
	rm.appendToAllOutboxesLocked(outline(card.ID, color, 0.5))
	rm.sink.Emit(rm.event(eventlog.EventCardSelect, now, roleOrigin(actor.Role), card))

	rm.cardLogicLocked(now)
}

// cardLogicLocked runs the collision/valid-set/scoring logic that follows
// every committed move (spec.md §4.4 step 5).
func (rm *Room) cardLogicLocked(now time.Time) {
	collides := rm.mapProvider.SelectedCardsCollide()
	switch {
	case collides && !rm.currentSetInvalid:
		rm.currentSetInvalid = true
		rm.recolorSelectedLocked(colorRed)
	case !collides && rm.currentSetInvalid:
		rm.currentSetInvalid = false
		rm.recolorSelectedLocked(colorBlue)
	}

	if !rm.mapProvider.SelectedValidSet() {
		return
	}

	rm.currentSetInvalid = false
	bonus := bonusTurns(rm.turn.SetsCollected)
	rm.turn.TurnsLeft += bonus
	rm.turn.SetsCollected++
	rm.turn.Score++

	for _, c := range rm.mapProvider.SelectedCards() {
		rm.appendToAllOutboxesLocked(outline(c.ID, colorBlue, 0.2))
		rm.mapProvider.SetSelected(c.ID, false)
		rm.mapProvider.RemoveCard(c.ID)
		rm.sink.Emit(rm.event(eventlog.EventCardSet, now, eventlog.OriginServer, c))
	}
	for _, c := range rm.mapProvider.AddRandomCards(3) {
		rm.sink.Emit(rm.event(eventlog.EventCardSpawn, now, eventlog.OriginServer, c))
	}
	rm.markMapStaleAllLocked()
	full := rm.mapProvider.Map()
	rm.sink.Emit(rm.event(eventlog.EventMapUpdate, now, eventlog.OriginServer, full))
	rm.sink.Emit(rm.event(eventlog.EventPropUpdate, now, eventlog.OriginServer, full.Props))
	rm.pushTurnStateToAllLocked()
}

func (rm *Room) recolorSelectedLocked(c Color) {
	for _, card := range rm.mapProvider.SelectedCards() {
		rm.appendToAllOutboxesLocked(outline(card.ID, c, 0.2))
	}
}

// endTurnIfOverLocked flips the active role, resets the move allotment,
// decrements turns_left, and resets turn_end. Used both by natural turn
// expiry (force=false) and an explicit TURN_COMPLETE (force=true) — both
// paths are otherwise identical.
func (rm *Room) endTurnIfOverLocked(now time.Time, force bool) {
	_ = force // both call sites perform the identical transition
	next := RoleFollower
	if rm.turn.Turn == RoleFollower {
		next = RoleLeader
	}
	rm.turn.Turn = next
	rm.turn.MovesRemaining = movesPerTurn(next)
	rm.turn.TurnsLeft--
	rm.turn.TurnEnd = now.Add(turnDuration(next))
	rm.pushTurnStateToAllLocked()
	rm.sink.Emit(rm.event(eventlog.EventTurnState, now, eventlog.OriginServer, rm.turn))
}

func (rm *Room) appendToAllOutboxesLocked(a Action) {
	for id := range rm.actors {
		rm.outbox[id] = append(rm.outbox[id], a)
	}
}

func (rm *Room) markMapStaleAllLocked() {
	for _, st := range rm.stale {
		st.mapStale = true
		st.propStale = true
	}
}

func (rm *Room) desyncLocked(actorID int) {
	if st, ok := rm.stale[actorID]; ok {
		st.synced = false
	}
}

// Desync clears actorID's synced bit, forcing a StateSync on its next drain.
func (rm *Room) Desync(actorID int) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.desyncLocked(actorID)
}

func (rm *Room) desyncAllLocked() {
	for id := range rm.stale {
		rm.desyncLocked(id)
	}
}

func (rm *Room) desyncAllExceptLocked(except int) {
	for id := range rm.stale {
		if id != except {
			rm.desyncLocked(id)
		}
	}
}

func (rm *Room) pushTurnStateToAllLocked() {
	snapshot := rm.turn
	for id := range rm.turnQueue {
		rm.turnQueue[id] = append(rm.turnQueue[id], snapshot)
	}
}

// OpenRoles reports which of LEADER/FOLLOWER have no actor seated yet, in a
// fixed LEADER-then-FOLLOWER order. Used by the Room Manager to decide
// whether a waiting client can be matched into this room.
func (rm *Room) OpenRoles() []Role {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	taken := make(map[Role]bool, 2)
	for _, a := range rm.actors {
		taken[a.Role] = true
	}
	var open []Role
	for _, r := range []Role{RoleLeader, RoleFollower} {
		if !taken[r] {
			open = append(open, r)
		}
	}
	return open
}

// IsSynced reports whether actorID's worldview is currently believed
// current. Exposed mainly for tests.
func (rm *Room) IsSynced(actorID int) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	st, ok := rm.stale[actorID]
	return ok && st.synced
}

// CreateActor admits a new actor into the room under the given role,
// popping a spawn point and desyncing every existing actor because the cast
// changed. The room starts ticking once two actors are present.
func (rm *Room) CreateActor(role Role, assetID int) (int, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	for _, a := range rm.actors {
		if a.Role == role {
			return 0, ErrRoleTaken
		}
	}
	if len(rm.spawnPoints) == 0 {
		return 0, ErrNoSpawnPoints
	}
	spawn := rm.spawnPoints[0]
	rm.spawnPoints = rm.spawnPoints[1:]

	id := rm.ids.Request()
	rm.actors[id] = NewActor(id, assetID, role, spawn)
	rm.stale[id] = &staleBits{mapStale: true, propStale: true}
	rm.outbox[id] = nil
	rm.turnQueue[id] = nil
	rm.feedback[id] = nil

	rm.desyncAllExceptLocked(id)

	if len(rm.actors) == 2 {
		rm.startLocked(time.Now())
	}

	rm.sink.Emit(rm.event(eventlog.EventInitialState, time.Now(), roleOrigin(role), id))
	return id, nil
}

func (rm *Room) startLocked(now time.Time) {
	rm.turn = newTurnState(now)
	rm.lastTick = now
	rm.running = true
	rm.pushTurnStateToAllLocked()
}

// FreeActor removes actorID from the room, returns its ID to the assigner,
// and desyncs survivors so their next drain reflects the departure.
func (rm *Room) FreeActor(actorID int) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if _, ok := rm.actors[actorID]; !ok {
		return ErrUnknownActor
	}
	delete(rm.actors, actorID)
	delete(rm.stale, actorID)
	delete(rm.outbox, actorID)
	delete(rm.turnQueue, actorID)
	delete(rm.feedback, actorID)
	rm.ids.Free(actorID)
	rm.appendToAllOutboxesLocked(Death(actorID))
	rm.desyncAllLocked()
	return nil
}

// EndGame marks the room done; subsequent drains return nothing and Run
// exits on its next iteration.
func (rm *Room) EndGame() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.turn.GameOver = true
	rm.done = true
	rm.pushTurnStateToAllLocked()
}

// snapshotActorsLocked builds a StateSync of every actor's truth.
func (rm *Room) snapshotActorsLocked() *StateSync {
	snap := &StateSync{}
	for _, id := range rm.sortedActorIDsLocked() {
		a := rm.actors[id]
		snap.Actors = append(snap.Actors, ActorSnapshot{
			ActorID:    a.ActorID,
			AssetID:    a.AssetID,
			Role:       a.Role,
			Location:   a.Location,
			HeadingDeg: a.HeadingDeg,
		})
	}
	return snap
}

// Drain returns the next pending message for actorID, in the fixed priority
// order: MapUpdate? -> PropUpdate? -> StateSync? -> Actions? -> Objectives?
// -> TurnState? -> LiveFeedback? -> nothing. PropUpdate and LiveFeedback are
// extensions to the five named slots in spec.md §4.4: PropUpdate rides
// immediately after MapUpdate (both are needed to answer the join scenario's
// requirement for both messages), and LiveFeedback is lowest-priority and
// non-load-bearing for resync correctness.
func (rm *Room) Drain(actorID int) (*MessageFromServer, bool) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	st, ok := rm.stale[actorID]
	if !ok {
		return nil, false
	}

	now := time.Now()

	if st.mapStale {
		st.mapStale = false
		full := rm.mapProvider.Map()
		full.Props = nil
		msg := FromServer(FromServerMapUpdate, now)
		msg.MapUpdate = &full
		return &msg, true
	}

	if st.propStale {
		st.propStale = false
		full := rm.mapProvider.Map()
		msg := FromServer(FromServerPropUpdate, now)
		msg.PropUpdate = full.Props
		return &msg, true
	}

	if !st.synced {
		st.synced = true
		msg := FromServer(FromServerStateSync, now)
		msg.StateSync = rm.snapshotActorsLocked()
		return &msg, true
	}

	if len(rm.outbox[actorID]) > 0 {
		recipient := rm.actors[actorID].Role
		pending := rm.outbox[actorID]
		rm.outbox[actorID] = nil
		censored := make([]Action, len(pending))
		for i, a := range pending {
			censored[i] = censorForFollower(a, recipient)
		}
		msg := FromServer(FromServerActions, now)
		msg.Actions = censored
		return &msg, true
	}

	if st.objectivesStale {
		st.objectivesStale = false
		msg := FromServer(FromServerObjective, now)
		msg.Objectives = append([]Objective(nil), rm.objectives...)
		return &msg, true
	}

	if len(rm.turnQueue[actorID]) > 0 {
		ts := rm.turnQueue[actorID][0]
		rm.turnQueue[actorID] = rm.turnQueue[actorID][1:]
		msg := FromServer(FromServerGameState, now)
		msg.TurnState = &ts
		return &msg, true
	}

	if len(rm.feedback[actorID]) > 0 {
		text := rm.feedback[actorID][0]
		rm.feedback[actorID] = rm.feedback[actorID][1:]
		msg := FromServer(FromServerLiveFeedback, now)
		msg.LiveFeedback = text
		return &msg, true
	}

	return nil, false
}

// HandlePacket dispatches one client-submitted message into the room.
// Protocol violations (unknown kind) and rule violations (wrong role) are
// logged and dropped rather than returned as errors, per the error taxonomy
// in spec.md §7 — the one exception is an unknown actor id, which signals a
// session/engine wiring bug and is returned to the caller.
func (rm *Room) HandlePacket(actorID int, msg MessageToServer) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	actor, ok := rm.actors[actorID]
	if !ok {
		return ErrUnknownActor
	}

	switch msg.Type {
	case ToServerActions:
		for _, a := range msg.Actions {
			actor.AddAction(a)
		}

	case ToServerObjective, ToServerInstruction:
		if actor.Role != RoleLeader {
			log.Printf("engine: room %s non-leader actor %d submitted an objective", rm.id, actorID)
			return nil
		}
		text := msg.ObjectiveText
		if text == "" {
			text = msg.InstructionText
		}
		obj := newObjective(text)
		rm.objectives = append(rm.objectives, obj)
		rm.markObjectivesStaleLocked()
		rm.sink.Emit(rm.event(eventlog.EventInstructionSent, time.Now(), eventlog.OriginLeader, obj))

	case ToServerObjectiveCompleted, ToServerInstructionDone:
		if actor.Role != RoleFollower {
			log.Printf("engine: room %s non-follower actor %d completed an objective", rm.id, actorID)
			return nil
		}
		uuid := msg.ObjectiveUUID
		for i := range rm.objectives {
			if rm.objectives[i].UUID == uuid {
				rm.objectives[i].Completed = true
			}
		}
		rm.markObjectivesStaleLocked()
		rm.sink.Emit(rm.event(eventlog.EventInstructionDone, time.Now(), eventlog.OriginFollower, uuid))

	case ToServerTurnComplete:
		if actor.Role == rm.turn.Turn && !rm.turn.GameOver {
			rm.endTurnIfOverLocked(time.Now(), true)
		}

	case ToServerStateSyncRequest:
		rm.desyncLocked(actorID)

	case ToServerLeave:
		rm.freeActorUnlockedHelper(actorID)

	case ToServerPong:
		// keepalive acknowledgement; no room-state effect.

	case ToServerInterrupt:
		rm.cancelLatestObjectiveLocked(time.Now(), roleOrigin(actor.Role))

	case ToServerPositiveFeedback, ToServerNegativeFeedback:
		if actor.Role != RoleLeader {
			log.Printf("engine: room %s non-leader actor %d submitted feedback", rm.id, actorID)
			return nil
		}
		text := "positive"
		if msg.Type == ToServerNegativeFeedback {
			text = "negative"
		}
		rm.deliverLiveFeedbackLocked(text)
		rm.sink.Emit(rm.event(eventlog.EventLiveFeedback, time.Now(), eventlog.OriginLeader, text))

	default:
		log.Printf("engine: room %s received unknown message kind %d", rm.id, msg.Type)
	}

	return nil
}

func (rm *Room) markObjectivesStaleLocked() {
	for _, st := range rm.stale {
		st.objectivesStale = true
	}
}

func (rm *Room) cancelLatestObjectiveLocked(now time.Time, origin eventlog.Origin) {
	for i := len(rm.objectives) - 1; i >= 0; i-- {
		if !rm.objectives[i].Completed && !rm.objectives[i].Cancelled {
			rm.objectives[i].Cancelled = true
			rm.markObjectivesStaleLocked()
			rm.sink.Emit(rm.event(eventlog.EventInstructionCancelled, now, origin, rm.objectives[i]))
			return
		}
	}
}

func (rm *Room) deliverLiveFeedbackLocked(text string) {
	for id, a := range rm.actors {
		if a.Role == RoleFollower {
			rm.feedback[id] = append(rm.feedback[id], text)
		}
	}
}

// freeActorUnlockedHelper is called from within an already-locked HandlePacket
// to free an actor without re-entering the mutex.
func (rm *Room) freeActorUnlockedHelper(actorID int) {
	if _, ok := rm.actors[actorID]; !ok {
		return
	}
	delete(rm.actors, actorID)
	delete(rm.stale, actorID)
	delete(rm.outbox, actorID)
	delete(rm.turnQueue, actorID)
	delete(rm.feedback, actorID)
	rm.ids.Free(actorID)
	rm.desyncAllLocked()
}

func roleOrigin(r Role) eventlog.Origin {
	switch r {
	case RoleLeader:
		return eventlog.OriginLeader
	case RoleFollower:
		return eventlog.OriginFollower
	default:
		return eventlog.OriginNone
	}
}

func (rm *Room) event(t eventlog.EventType, now time.Time, origin eventlog.Origin, payload interface{}) eventlog.Event {
	return eventlog.Event{Type: t, RoomID: rm.id, Tick: rm.tickCount, Origin: origin, Payload: payload, Timestamp: now}
}
