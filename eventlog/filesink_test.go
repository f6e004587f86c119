package eventlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestFileSinkEmitsOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewFileSinkWriter(&buf)

	events := []Event{
		{Type: EventMove, RoomID: "r1", Tick: 1, Origin: OriginLeader, Timestamp: time.Unix(0, 0).UTC()},
		{Type: EventCardSet, RoomID: "r1", Tick: 2, Origin: OriginServer, Timestamp: time.Unix(0, 0).UTC()},
	}
	for _, e := range events {
		if err := sink.Emit(e); err != nil {
			t.Fatalf("Emit: %v", err)
		}
	}

	scanner := bufio.NewScanner(&buf)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) != len(events) {
		t.Fatalf("got %d lines, want %d", len(lines), len(events))
	}

	var decoded Event
	if err := json.Unmarshal([]byte(lines[0]), &decoded); err != nil {
		t.Fatalf("unmarshal line: %v", err)
	}
	if decoded.RoomID != "r1" || decoded.Tick != 1 || decoded.Origin != OriginLeader {
		t.Errorf("decoded event mismatch: %+v", decoded)
	}
}

func TestEventTypeMarshalsAsName(t *testing.T) {
	b, err := json.Marshal(EventCardSet)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"CARD_SET"` {
		t.Errorf("got %s, want %q", b, "CARD_SET")
	}
}

func TestOriginValuesAreDisjoint(t *testing.T) {
	seen := map[Origin]bool{}
	for _, o := range []Origin{OriginNone, OriginLeader, OriginFollower, OriginServer} {
		if seen[o] {
			t.Fatalf("duplicate origin value %d", o)
		}
		seen[o] = true
	}
}

func TestNoopSinkNeverErrors(t *testing.T) {
	if err := (NoopSink{}).Emit(Event{}); err != nil {
		t.Errorf("NoopSink.Emit returned %v", err)
	}
}
