package engine

import "math"

// translateTolerance and rotateTolerance bound action validation; both
// values absorb floating-point drift introduced by the Cartesian projection
// rather than requiring exact unit magnitudes.
const (
	translateTolerance = 1.001
	rotateTolerance    = 60.01
)

// validTranslate reports whether a TRANSLATE's displacement is a single-cell
// step: Cartesian norm no greater than translateTolerance.
func validTranslate(a Action) bool {
	return a.Displacement.CartesianNorm() <= translateTolerance
}

// validRotate reports whether a ROTATE's magnitude is within bounds.
func validRotate(a Action) bool {
	return math.Abs(a.RotationDeg) <= rotateTolerance
}

// validAction reports whether a client-submitted action may be committed.
// Only ROTATE and TRANSLATE are ever accepted from clients; every other
// action type is server-generated and rejected if a client attempts to
// submit one directly.
func validAction(a Action) bool {
	switch a.ActionType {
	case ActionTranslate:
		return validTranslate(a)
	case ActionRotate:
		return validRotate(a)
	default:
		return false
	}
}

// censorForFollower rewrites an OUTLINE action's true red (invalid-set)
// border color to the same blue used for the valid-in-progress case, when
// the action is bound for a Follower's outbox. The Leader alone sees the
// true invalid-set signal; this is part of the game's asymmetric-information
// design, not a bug to be fixed.
func censorForFollower(a Action, recipient Role) Action {
	if recipient != RoleFollower {
		return a
	}
	if a.ActionType != ActionOutline {
		return a
	}
	if a.BorderColor == colorRed {
		a.BorderColor = colorBlue
	}
	return a
}
