package engine

import (
	"testing"

	"github.com/wricardo/hexroom/hexgrid"
)

func TestValidActionAcceptsUnitTranslate(t *testing.T) {
	for _, disp := range hexgrid.UnitDirections() {
		a := Translate(1, disp, 0.5)
		if !validAction(a) {
			t.Fatalf("unit translate %+v rejected", disp)
		}
	}
}

func TestValidActionRejectsOverlongTranslate(t *testing.T) {
	a := Translate(1, hexgrid.Coord{A: 0, R: 5, C: 5}, 0.5)
	if validAction(a) {
		t.Fatalf("far translate accepted")
	}
}

func TestValidActionRejectsOverlargeRotate(t *testing.T) {
	if validAction(Rotate(1, 61, 0.5)) {
		t.Fatalf("61deg rotate accepted")
	}
	if !validAction(Rotate(1, 60, 0.5)) {
		t.Fatalf("60deg rotate rejected")
	}
}

func TestValidActionRejectsServerOnlyKinds(t *testing.T) {
	if validAction(outline(1, colorRed, 0.5)) {
		t.Fatalf("OUTLINE accepted as a client action")
	}
}

func TestCensorForFollowerRewritesRed(t *testing.T) {
	a := outline(1, colorRed, 0.5)
	got := censorForFollower(a, RoleFollower)
	if got.BorderColor != colorBlue {
		t.Fatalf("follower-bound red outline not censored: %+v", got)
	}
}

func TestCensorForFollowerLeavesLeaderUntouched(t *testing.T) {
	a := outline(1, colorRed, 0.5)
	got := censorForFollower(a, RoleLeader)
	if got.BorderColor != colorRed {
		t.Fatalf("leader-bound outline color changed: %+v", got)
	}
}

func TestCensorForFollowerLeavesNonOutlineUntouched(t *testing.T) {
	a := Translate(1, hexgrid.Coord{}, 0.5)
	got := censorForFollower(a, RoleFollower)
	if got != a {
		t.Fatalf("non-outline action mutated by censoring")
	}
}
