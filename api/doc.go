// Package api provides the HTTP surface surrounding the WebSocket transport:
// a health-check endpoint and the route that upgrades a connection into the
// Session/Transport Adapter. Admission into a room happens over the WS
// message protocol itself (JOIN_QUEUE/JOIN_LEADER_QUEUE/JOIN_FOLLOWER_QUEUE,
// spec.md §6), not a REST resource, so this package carries no session CRUD.
//
// Usage:
//
//	srv := api.NewServer(websocket.NewServer(manager))
//	http.ListenAndServe(":8080", srv)
package api
