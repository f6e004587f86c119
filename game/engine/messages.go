package engine

import (
	"time"

	"github.com/wricardo/hexroom/hexgrid"
)

// ToServerKind discriminates MessageToServer's tagged union (spec.md §6).
type ToServerKind int

const (
	ToServerActions ToServerKind = iota
	ToServerObjective
	ToServerObjectiveCompleted
	ToServerTurnComplete
	ToServerStateSyncRequest
	ToServerJoinQueue
	ToServerJoinLeaderQueue
	ToServerJoinFollowerQueue
	ToServerLeave
	ToServerPong
	ToServerInstruction
	ToServerInstructionDone
	ToServerInterrupt
	ToServerPositiveFeedback
	ToServerNegativeFeedback
)

// MessageToServer is the single tagged-union type carrying every client→server
// message kind. Every message is wrapped with an ISO-8601 transmission
// timestamp (time.Time's default JSON marshaling); enum fields serialize as
// their integer values, per spec.md §6.
type MessageToServer struct {
	Type            ToServerKind `json:"type"`
	TransmitTime    time.Time    `json:"transmit_time"`
	Actions         []Action     `json:"actions,omitempty"`
	ObjectiveText   string       `json:"objective_text,omitempty"`
	ObjectiveUUID   string       `json:"objective_uuid,omitempty"`
	InstructionText string       `json:"instruction_text,omitempty"`
}

// ToServer builds a MessageToServer with the transmission timestamp set to
// now, stamping every outgoing-from-the-client's-perspective message the
// same way the wire format requires.
func ToServer(kind ToServerKind, now time.Time) MessageToServer {
	return MessageToServer{Type: kind, TransmitTime: now}
}

// FromServerKind discriminates MessageFromServer's tagged union.
type FromServerKind int

const (
	FromServerActions FromServerKind = iota
	FromServerStateSync
	FromServerMapUpdate
	FromServerPropUpdate
	FromServerGameState
	FromServerObjective
	FromServerRoomManagement
	FromServerPing
	FromServerLiveFeedback
	FromServerStateMachineTick
)

// ActorSnapshot is one actor's entry in a StateSync.
type ActorSnapshot struct {
	ActorID    int           `json:"actor_id"`
	AssetID    int           `json:"asset_id"`
	Role       Role          `json:"role"`
	Location   hexgrid.Coord `json:"location"`
	HeadingDeg float64       `json:"heading_deg"`
}

// StateSync is a full snapshot of every actor's position and heading,
// delivered whenever a client is desynced (§4.4). Applying a StateSync to a
// mirror that already matches it must be a no-op on observable state (R2).
type StateSync struct {
	Actors []ActorSnapshot `json:"actors"`
}

// JoinResponse answers a join-queue request.
type JoinResponse struct {
	Joined          bool `json:"joined"`
	Role            Role `json:"role"`
	PlaceInQueue    int  `json:"place_in_queue"`
	BootedFromQueue bool `json:"booted_from_queue"`
}

// MessageFromServer is the single tagged-union type carrying every
// server→client message kind. At most one payload field is populated,
// matching the kind named by Type.
type MessageFromServer struct {
	Type           FromServerKind `json:"type"`
	TransmitTime   time.Time      `json:"transmit_time"`
	Actions        []Action       `json:"actions,omitempty"`
	StateSync      *StateSync     `json:"state_sync,omitempty"`
	MapUpdate      *MapUpdate     `json:"map_update,omitempty"`
	PropUpdate     []Prop         `json:"prop_update,omitempty"`
	TurnState      *TurnState     `json:"turn_state,omitempty"`
	Objectives     []Objective    `json:"objectives,omitempty"`
	RoomManagement *JoinResponse  `json:"room_management,omitempty"`
	LiveFeedback   string         `json:"live_feedback,omitempty"`
}

// FromServer builds a MessageFromServer with the transmission timestamp set
// to now.
func FromServer(kind FromServerKind, now time.Time) MessageFromServer {
	return MessageFromServer{Type: kind, TransmitTime: now}
}
