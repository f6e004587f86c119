// Package websocket provides the WebSocket Session/Transport Adapter
// (spec.md §4.6): it admits a connection through the Room Manager queue,
// then runs one independent read goroutine and one independent write
// goroutine per session for the lifetime of the connection.
//
// Architecture:
//
// Unlike a broadcast hub, each session talks to exactly one room and one
// actor. The read goroutine decodes client frames and feeds them straight
// into engine.Room.HandlePacket. The write goroutine repeatedly drains
// engine.Room.Drain(actorID) until it returns nothing to send, then blocks
// on the room's tick notification (or a ping ticker) before draining again.
// There is no shared broadcast state between sessions; the room is the only
// shared state, and it is already its own mutex boundary.
//
// Usage:
//
//	mux.HandleFunc("/ws", websocket.NewServer(manager).ServeHTTP)
package websocket
