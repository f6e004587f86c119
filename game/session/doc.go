// Package session implements the Room Manager: a single process-wide FIFO
// admission queue with role preference, matching waiting clients into open
// rooms (or spinning up a new room) and reporting queue position while a
// client waits.
//
// Usage:
//
//	mgr := session.NewManager(ctx, mapFactory, sink, 6*time.Minute, 0)
//	ticket := mgr.Enqueue(engine.RoleNone)
//	room, actorID, resp, err := ticket.Wait(ctx)
package session
