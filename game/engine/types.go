package engine

import (
	"time"

	"github.com/wricardo/hexroom/hexgrid"
)

// Role identifies a seat in a room.
type Role int

const (
	RoleNone Role = iota
	RoleLeader
	RoleFollower
)

func (r Role) String() string {
	switch r {
	case RoleLeader:
		return "LEADER"
	case RoleFollower:
		return "FOLLOWER"
	default:
		return "NONE"
	}
}

// ActionType enumerates every kind of Action the engine can produce or
// accept. Only ROTATE and TRANSLATE are ever client-submitted and validated;
// the rest are presentational kinds the engine emits to clients (spawn
// animation, card recolor, disconnect death animation).
type ActionType int

const (
	ActionInit ActionType = iota
	ActionInstant
	ActionRotate
	ActionTranslate
	ActionOutline
	ActionDeath
)

// AnimationType describes how a client should animate an Action's visual
// transition; presentational only, never validated by the engine.
type AnimationType int

const (
	AnimationNone AnimationType = iota
	AnimationWalking
	AnimationIdle
	AnimationTrace
)

// Color is a wire-format RGBA color in [0,1].
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

var (
	colorRed  = Color{R: 1, G: 0, B: 0, A: 1}
	colorBlue = Color{R: 0, G: 0, B: 1, A: 1}
)

// Action is an immutable instruction describing a single actor's movement or
// a presentational effect. TRANSLATE carries a unit-length displacement;
// ROTATE carries a rotation in degrees; every other kind carries
// presentational data only.
type Action struct {
	ID            int           `json:"id"`
	ActionType    ActionType    `json:"action_type"`
	AnimationType AnimationType `json:"animation_type"`
	Displacement  hexgrid.Coord `json:"displacement"`
	RotationDeg   float64       `json:"rotation"`
	BorderRadius  float64       `json:"border_radius"`
	BorderColor   Color         `json:"border_color"`
	DurationS     float64       `json:"duration_s"`
	Expiration    time.Time     `json:"expiration"`
}

// Translate builds a unit-step TRANSLATE action for actorID.
func Translate(actorID int, displacement hexgrid.Coord, durationS float64) Action {
	return Action{
		ID:           actorID,
		ActionType:   ActionTranslate,
		Displacement: displacement,
		DurationS:    durationS,
	}
}

// Rotate builds a ROTATE action for actorID.
func Rotate(actorID int, degrees, durationS float64) Action {
	return Action{
		ID:          actorID,
		ActionType:  ActionRotate,
		RotationDeg: degrees,
		DurationS:   durationS,
	}
}

// Death builds a presentational DEATH action for an actor that just left the
// room, so surviving clients can animate its disappearance.
func Death(actorID int) Action {
	return Action{ID: actorID, ActionType: ActionDeath}
}

// outline builds a presentational OUTLINE action recoloring a prop.
func outline(propID int, c Color, durationS float64) Action {
	return Action{
		ID:           propID,
		ActionType:   ActionOutline,
		BorderColor:  c,
		BorderRadius: 1,
		DurationS:    durationS,
	}
}

// Actor is one player's avatar: position, heading, role, and a FIFO of
// proposed-but-uncommitted actions. Mutated only by the engine, and only via
// Step/Drop after the engine has independently validated the head action.
type Actor struct {
	ActorID    int
	AssetID    int
	Role       Role
	Location   hexgrid.Coord
	HeadingDeg float64
	queue      []Action
}

// NewActor constructs an actor at the given spawn point.
func NewActor(actorID, assetID int, role Role, spawn hexgrid.Coord) *Actor {
	return &Actor{ActorID: actorID, AssetID: assetID, Role: role, Location: spawn}
}

// AddAction enqueues a proposed action.
func (a *Actor) AddAction(act Action) {
	a.queue = append(a.queue, act)
}

// HasActions reports whether the queue is non-empty.
func (a *Actor) HasActions() bool {
	return len(a.queue) > 0
}

// Peek returns the head action without removing it.
func (a *Actor) Peek() (Action, bool) {
	if len(a.queue) == 0 {
		return Action{}, false
	}
	return a.queue[0], true
}

// Drop discards the head action.
func (a *Actor) Drop() {
	if len(a.queue) == 0 {
		return
	}
	a.queue = a.queue[1:]
}

// Step dequeues the head action and applies it: TRANSLATE adds displacement
// to Location, ROTATE adds degrees to HeadingDeg. Callers must have already
// validated the action; Step performs no validation itself.
func (a *Actor) Step() Action {
	act := a.queue[0]
	a.queue = a.queue[1:]
	switch act.ActionType {
	case ActionTranslate:
		a.Location = a.Location.Add(act.Displacement)
	case ActionRotate:
		a.HeadingDeg += act.RotationDeg
	}
	return act
}

// Card is a selectable prop participating in set collection. A set is three
// selected cards whose (Color, Shape, Count) triples are pairwise distinct
// on every attribute.
type Card struct {
	ID       int
	Location hexgrid.Coord
	Color    int
	Shape    int
	Count    int
	Selected bool
}

// Moves-per-turn and turn-duration constants, ported from the tick-loop
// algorithm this engine reimplements.
const (
	LeaderMovesPerTurn   = 5
	FollowerMovesPerTurn = 10
)

// movesPerTurn returns the move allotment for a newly started turn.
func movesPerTurn(r Role) int {
	if r == RoleLeader {
		return LeaderMovesPerTurn
	}
	return FollowerMovesPerTurn
}

// turnDuration returns how long a turn lasts once it starts.
func turnDuration(r Role) time.Duration {
	if r == RoleLeader {
		return 60 * time.Second
	}
	return 45 * time.Second
}

// TurnState is the per-room turn clock and score. It is terminal once
// GameOver is true; no further turn transitions occur afterward.
type TurnState struct {
	Turn           Role      `json:"turn"`
	MovesRemaining int       `json:"moves_remaining"`
	TurnsLeft      int       `json:"turns_left"`
	TurnEnd        time.Time `json:"turn_end"`
	GameStart      time.Time `json:"game_start"`
	SetsCollected  int       `json:"sets_collected"`
	Score          int       `json:"score"`
	GameOver       bool      `json:"game_over"`
}

// initialTurnsLeft is the number of turn transitions before the game ends
// naturally with no sets collected.
const initialTurnsLeft = 6

func newTurnState(now time.Time) TurnState {
	return TurnState{
		Turn:           RoleLeader,
		MovesRemaining: movesPerTurn(RoleLeader),
		TurnsLeft:      initialTurnsLeft,
		TurnEnd:        now.Add(turnDuration(RoleLeader)),
		GameStart:      now,
	}
}
