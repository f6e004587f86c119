package service

import (
	"context"

	"github.com/wricardo/hexroom/game/engine"
)

// Conn is the transport the Client Mirror reads and writes typed messages
// over. transport/websocket satisfies it for a live connection; tests
// satisfy it with an in-memory fake.
type Conn interface {
	Send(msg engine.MessageToServer) error
	Recv(ctx context.Context) (engine.MessageFromServer, error)
	Close() error
}
