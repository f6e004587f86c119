package service

import (
	"github.com/wricardo/hexroom/game/engine"
	"github.com/wricardo/hexroom/hexgrid"
)

// ActionKind enumerates the agent-facing actions a Game can Step with.
// Movement becomes a queued TRANSLATE/ROTATE on the wire; every other kind
// becomes its own message type (spec.md §4.5 step 2).
type ActionKind int

const (
	ActionKindTranslate ActionKind = iota
	ActionKindRotate
	ActionKindEndTurn
	ActionKindInterrupt
	ActionKindSendInstruction
	ActionKindInstructionDone
	ActionKindPositiveFeedback
	ActionKindNegativeFeedback
)

// AgentAction is one step's worth of agent intent.
type AgentAction struct {
	Kind            ActionKind
	Displacement    hexgrid.Coord
	RotationDeg     float64
	InstructionText string
	ObjectiveUUID   string
}

// ActorView is one actor's mirrored position, as observed by the client.
type ActorView struct {
	ActorID    int
	AssetID    int
	Role       engine.Role
	Location   hexgrid.Coord
	HeadingDeg float64
}

// Observation is what Step returns: the agent's own view plus the rest of
// the room's mirrored truth (spec.md §4.5: map, props, turn_state,
// objectives, actors).
type Observation struct {
	Self       ActorView
	Others     []ActorView
	Turn       engine.TurnState
	Objectives []engine.Objective
	Map        *engine.MapUpdate
	Props      []engine.Prop
}

type mirrorActor struct {
	ActorID    int
	AssetID    int
	Role       engine.Role
	Location   hexgrid.Coord
	HeadingDeg float64
}
