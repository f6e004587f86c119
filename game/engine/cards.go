package engine

// bonusTurns returns the turns_left bonus awarded for collecting a valid set,
// based on how many sets were already collected before this one.
//
// The source this was distilled from only specifies the table through the
// 5th set (0-indexed: 0,1,2,3,4); the bonus for the 6th+ set was an open
// question. This rewrite defaults the unspecified tail to +0, per the
// resolved design note.
func bonusTurns(setsCollectedBefore int) int {
	switch {
	case setsCollectedBefore == 0:
		return 5
	case setsCollectedBefore == 1 || setsCollectedBefore == 2:
		return 4
	case setsCollectedBefore == 3 || setsCollectedBefore == 4:
		return 3
	default:
		return 0
	}
}
