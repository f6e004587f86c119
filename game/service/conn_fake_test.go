package service

import (
	"context"

	"github.com/wricardo/hexroom/game/engine"
)

// fakeConn is an in-memory Conn for tests: Send appends to an outgoing
// buffer, Recv drains a pre-seeded incoming queue.
type fakeConn struct {
	sent   []engine.MessageToServer
	recv   chan engine.MessageFromServer
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{recv: make(chan engine.MessageFromServer, 64)}
}

func (f *fakeConn) Send(msg engine.MessageToServer) error {
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeConn) Recv(ctx context.Context) (engine.MessageFromServer, error) {
	select {
	case msg := <-f.recv:
		return msg, nil
	case <-ctx.Done():
		return engine.MessageFromServer{}, ctx.Err()
	}
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func (f *fakeConn) push(msg engine.MessageFromServer) {
	f.recv <- msg
}
