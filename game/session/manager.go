package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wricardo/hexroom/eventlog"
	"github.com/wricardo/hexroom/game/engine"
)

// ErrJoinCancelled is returned by Ticket.Wait when ctx is cancelled before a
// match or boot occurs; the caller has not joined any room.
var ErrJoinCancelled = errors.New("session: join cancelled")

// MapFactory builds a fresh, fully-populated MapProvider for a new room.
// Each room owns its own provider, so a factory rather than a shared
// instance is required.
type MapFactory func() engine.MapProvider

// matchResult is delivered to a waiting Ticket once it is matched into a
// room or booted from the queue.
type matchResult struct {
	room    *engine.Room
	actorID int
	role    engine.Role
	booted  bool
}

// Ticket represents one client's place in the admission queue.
type Ticket struct {
	manager  *Manager
	role     engine.Role
	queuedAt time.Time
	result   chan matchResult
}

// PlaceInQueue returns the ticket's current 1-indexed position in the
// queue, or 0 if it has already been matched or removed.
func (t *Ticket) PlaceInQueue() int {
	t.manager.mu.Lock()
	defer t.manager.mu.Unlock()
	for i, qt := range t.manager.queue {
		if qt == t {
			return i + 1
		}
	}
	return 0
}

// Wait blocks until the ticket is matched into a room, booted from the
// queue after the manager's configured cap, or ctx is cancelled. On a
// successful match it returns the room, the assigned actor id, and the
// JoinResponse to relay to the client; on boot it returns a JoinResponse
// with BootedFromQueue set and a nil room.
func (t *Ticket) Wait(ctx context.Context) (*engine.Room, int, engine.JoinResponse, error) {
	var bootC <-chan time.Time
	if t.manager.bootAfter > 0 {
		timer := time.NewTimer(t.manager.bootAfter)
		defer timer.Stop()
		bootC = timer.C
	}
	select {
	case res := <-t.result:
		return t.toResponse(res)
	case <-bootC:
		if t.manager.removeFromQueue(t) {
			return nil, 0, engine.JoinResponse{BootedFromQueue: true}, nil
		}
		return t.toResponse(<-t.result)
	case <-ctx.Done():
		t.manager.removeFromQueue(t)
		return nil, 0, engine.JoinResponse{}, ErrJoinCancelled
	}
}

func (t *Ticket) toResponse(res matchResult) (*engine.Room, int, engine.JoinResponse, error) {
	if res.booted {
		return nil, 0, engine.JoinResponse{BootedFromQueue: true}, nil
	}
	return res.room, res.actorID, engine.JoinResponse{Joined: true, Role: res.role}, nil
}

func (t *Ticket) deliver(res matchResult) {
	t.result <- res
}

// Manager is a single process-wide FIFO admission queue matching waiting
// clients into open rooms, creating a new room when none has a free slot
// matching the request. Grounded on the teacher's mutex-guarded session map,
// generalized from a flat table keyed by session name to a queue plus a
// room table keyed by generated room id.
type Manager struct {
	mu sync.Mutex

	ctx          context.Context
	mapFactory   MapFactory
	sink         eventlog.Sink
	bootAfter    time.Duration
	maxOpenRooms int

	queue      []*Ticket
	rooms      []*engine.Room
	nextRoomID int
}

// NewManager constructs a Room Manager. ctx bounds the lifetime of every
// room's tick loop started by this manager; bootAfter is the queue wait cap
// after which a ticket is booted (0 disables booting); maxOpenRooms caps how
// many not-yet-full rooms may exist waiting for an opponent at once (0 means
// unlimited — a ticket with no matching open room always gets a fresh one
// immediately). A waiting ticket is retried against rooms as slots open by
// Run, which callers must start alongside the manager.
func NewManager(ctx context.Context, mapFactory MapFactory, sink eventlog.Sink, bootAfter time.Duration, maxOpenRooms int) *Manager {
	return &Manager{
		ctx:          ctx,
		mapFactory:   mapFactory,
		sink:         sink,
		bootAfter:    bootAfter,
		maxOpenRooms: maxOpenRooms,
	}
}

// Run periodically retries queued tickets against rooms whose slots have
// since opened up (an actor left, or a new room became available), until ctx
// is cancelled. The Room Manager has no way to be notified synchronously by
// a departure inside an engine.Room, so polling is the simplest faithful
// rendition of "the manager matches the head of the queue against any open
// room" as an ongoing process rather than a one-shot decision.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweepQueue()
		}
	}
}

func (m *Manager) sweepQueue() {
	m.mu.Lock()
	defer m.mu.Unlock()
	remaining := m.queue[:0]
	for _, t := range m.queue {
		if !m.tryMatchLocked(t) {
			remaining = append(remaining, t)
		}
	}
	m.queue = remaining
}

// Enqueue submits a join request with the given role preference
// (engine.RoleNone for no preference) and returns a Ticket. A ticket may
// already be matched by the time Enqueue returns, if an open room or slot
// was immediately available.
func (m *Manager) Enqueue(role engine.Role) *Ticket {
	t := &Ticket{manager: m, role: role, queuedAt: time.Now(), result: make(chan matchResult, 1)}

	m.mu.Lock()
	matched := m.tryMatchLocked(t)
	if !matched {
		m.queue = append(m.queue, t)
	}
	m.mu.Unlock()

	return t
}

// RoomCount reports the number of rooms the manager is currently tracking
// (including finished rooms not yet reaped).
func (m *Manager) RoomCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

// QueueLength reports how many tickets are currently waiting.
func (m *Manager) QueueLength() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// tryMatchLocked attempts to seat t into an existing open room, or to spin
// up a fresh one. Callers must hold m.mu.
func (m *Manager) tryMatchLocked(t *Ticket) bool {
	m.reapDoneRoomsLocked()

	for _, room := range m.rooms {
		open := room.OpenRoles()
		if len(open) == 0 {
			continue
		}
		assign, ok := pickRole(t.role, open)
		if !ok {
			continue
		}
		actorID, err := room.CreateActor(assign, 0)
		if err != nil {
			continue
		}
		t.deliver(matchResult{room: room, actorID: actorID, role: assign})
		return true
	}

	if m.maxOpenRooms > 0 && m.countOpenRoomsLocked() >= m.maxOpenRooms {
		return false
	}

	room := engine.NewRoom(fmt.Sprintf("room-%d", m.nextRoomID), m.mapFactory(), engine.NewIdAssigner(), m.sink)
	m.nextRoomID++

	assign := t.role
	if assign == engine.RoleNone {
		assign = engine.RoleLeader
	}
	actorID, err := room.CreateActor(assign, 0)
	if err != nil {
		// A freshly built room always has both roles open; this only fails
		// if the map has no spawn points at all, which is a configuration
		// error the caller should have caught before wiring the factory in.
		t.deliver(matchResult{booted: true})
		return true
	}
	m.rooms = append(m.rooms, room)
	go room.Run(m.ctx)

	t.deliver(matchResult{room: room, actorID: actorID, role: assign})
	return true
}

// pickRole resolves a preference against the set of currently-open roles.
func pickRole(pref engine.Role, open []engine.Role) (engine.Role, bool) {
	if pref == engine.RoleNone {
		if len(open) == 0 {
			return engine.RoleNone, false
		}
		return open[0], true
	}
	for _, r := range open {
		if r == pref {
			return r, true
		}
	}
	return engine.RoleNone, false
}

// countOpenRoomsLocked counts rooms that are not yet full. Callers must hold
// m.mu.
func (m *Manager) countOpenRoomsLocked() int {
	n := 0
	for _, room := range m.rooms {
		if len(room.OpenRoles()) > 0 {
			n++
		}
	}
	return n
}

// reapDoneRoomsLocked drops finished rooms from the tracked set so the
// manager doesn't keep scanning or growing unbounded over a long process
// lifetime. Callers must hold m.mu.
func (m *Manager) reapDoneRoomsLocked() {
	kept := m.rooms[:0]
	for _, room := range m.rooms {
		if !room.Done() {
			kept = append(kept, room)
		}
	}
	m.rooms = kept
}

// removeFromQueue removes t from the queue if still present, reporting
// whether it was found there (false means it was already matched).
func (m *Manager) removeFromQueue(t *Ticket) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, qt := range m.queue {
		if qt == t {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			return true
		}
	}
	return false
}
