// Package engine implements the room state engine: the tick loop, turn
// state machine, action validation, card-set detection and scoring, and the
// desync/resync and message-drain protocols that keep two remote clients in
// sync with one authoritative room.
//
// A Room owns the MapProvider, the actor table, and the TurnState. One
// goroutine per room runs Room.Run, which ticks at ~1ms granularity. All
// mutation to room state happens under the room's mutex, either from that
// goroutine or from HandlePacket, CreateActor and FreeActor. Sessions call
// HandlePacket to submit input and Drain to pull the next pending message
// for their actor, both of which are safe to call concurrently with the
// tick loop.
//
// Usage:
//
//	room := engine.NewRoom("room-1", mapProvider, idAssigner, eventlog.NoopSink{})
//	go room.Run(ctx)
//	actorID, _ := room.CreateActor(engine.RoleLeader, assetID)
//	room.HandlePacket(actorID, engine.MessageToServer{...})
//	msg, ok := room.Drain(actorID)
package engine
