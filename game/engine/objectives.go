package engine

import "github.com/google/uuid"

// Objective is a structured in-game instruction submitted by the Leader and
// marked complete (or cancelled) by the Follower. It is the only form of
// in-room chat the system supports.
type Objective struct {
	Sender    Role   `json:"sender"`
	Text      string `json:"text"`
	UUID      string `json:"uuid"`
	Completed bool   `json:"completed"`
	Cancelled bool   `json:"cancelled"`
}

// newObjective assigns a fresh UUID to a Leader-submitted objective text.
func newObjective(text string) Objective {
	return Objective{Sender: RoleLeader, Text: text, UUID: uuid.NewString()}
}
