// Package service implements the Client Mirror: the client-side state
// machine that mirrors room truth over a connection, presents a
// turn-synchronous Step(action) -> Observation API to an agent, and drives
// the join/tick/disconnect handshake against the Session/Transport Adapter.
//
// Usage:
//
//	client := service.NewClient(conn)
//	game, err := client.JoinGame(ctx, engine.RoleNone)
//	if err != nil {
//		log.Fatal(err)
//	}
//	obs, err := game.Step(ctx, service.AgentAction{Kind: service.ActionKindEndTurn})
package service
