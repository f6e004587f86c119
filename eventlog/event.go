// Package eventlog defines the external typed-event stream the room state
// engine emits and a file-backed sink that persists it. Persistence itself
// (replay, querying, leaderboard aggregation) is an external collaborator's
// concern; this package only ships the emission point and one concrete sink.
package eventlog

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType enumerates the external event stream kinds named in the wire
// interface spec. These are distinct from MessageFromServer kinds: a single
// committed move, for example, produces both an ACTIONS message to clients
// and a MOVE event to the sink.
type EventType int

const (
	EventMapUpdate EventType = iota
	EventInitialState
	EventTurnState
	EventPropUpdate
	EventCardSpawn
	EventCardSelect
	EventCardSet
	EventInstructionSent
	EventInstructionActivated
	EventInstructionDone
	EventInstructionCancelled
	EventMove
	EventLiveFeedback
)

func (t EventType) String() string {
	switch t {
	case EventMapUpdate:
		return "MAP_UPDATE"
	case EventInitialState:
		return "INITIAL_STATE"
	case EventTurnState:
		return "TURN_STATE"
	case EventPropUpdate:
		return "PROP_UPDATE"
	case EventCardSpawn:
		return "CARD_SPAWN"
	case EventCardSelect:
		return "CARD_SELECT"
	case EventCardSet:
		return "CARD_SET"
	case EventInstructionSent:
		return "INSTRUCTION_SENT"
	case EventInstructionActivated:
		return "INSTRUCTION_ACTIVATED"
	case EventInstructionDone:
		return "INSTRUCTION_DONE"
	case EventInstructionCancelled:
		return "INSTRUCTION_CANCELLED"
	case EventMove:
		return "MOVE"
	case EventLiveFeedback:
		return "LIVE_FEEDBACK"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON renders EventType as its wire name rather than its integer
// value; unlike protocol message kinds (which serialize as integers per
// spec.md §6), the persisted event stream is a debugging/analysis artifact
// and is kept human-readable.
func (t EventType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON parses the wire name written by MarshalJSON.
func (t *EventType) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	for et := EventMapUpdate; et <= EventLiveFeedback; et++ {
		if et.String() == name {
			*t = et
			return nil
		}
	}
	return fmt.Errorf("eventlog: unknown event type %q", name)
}

// Origin identifies who (or what) caused an event. Values are disjoint by
// design: the Python original this was distilled from assigned LEADER and
// FOLLOWER the same integer value in its EventOrigin enum, which the design
// notes flag as a probable bug. This rewrite keeps every role/origin value
// distinct.
type Origin int

const (
	OriginNone Origin = iota
	OriginLeader
	OriginFollower
	OriginServer
)

// Event is one entry in the external event stream.
type Event struct {
	Type      EventType   `json:"type"`
	RoomID    string      `json:"room_id"`
	Tick      int64       `json:"tick"`
	Origin    Origin      `json:"origin"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Sink is the interface the engine calls at each emission point named in
// spec.md §6. Implementations must not block the tick loop; Emit should be
// cheap or internally asynchronous.
type Sink interface {
	Emit(e Event) error
}

// NoopSink discards every event. It is the engine's default sink so that
// rooms run correctly with no persistence layer wired in at all.
type NoopSink struct{}

// Emit implements Sink by doing nothing.
func (NoopSink) Emit(Event) error { return nil }
