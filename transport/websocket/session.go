package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wricardo/hexroom/game/engine"
	"github.com/wricardo/hexroom/game/session"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server upgrades incoming HTTP requests to WebSocket connections and admits
// them through a Room Manager queue.
type Server struct {
	manager *session.Manager
}

// NewServer builds a Server backed by manager.
func NewServer(manager *session.Manager) *Server {
	return &Server{manager: manager}
}

func rolePreference(r *http.Request) engine.Role {
	switch r.URL.Query().Get("role") {
	case "leader":
		return engine.RoleLeader
	case "follower":
		return engine.RoleFollower
	default:
		return engine.RoleNone
	}
}

// ServeHTTP enqueues the request with the requested role preference, waits
// for admission, then upgrades the connection, sends the join response and —
// if admitted — runs its read/write pumps until the connection closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ticket := s.manager.Enqueue(rolePreference(r))

	room, actorID, resp, err := ticket.Wait(r.Context())
	if err != nil {
		log.Printf("websocket: join wait failed: %v", err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket: upgrade failed: %v", err)
		return
	}

	joinMsg := engine.FromServer(engine.FromServerRoomManagement, time.Now())
	joinMsg.RoomManagement = &resp
	if err := writeJSON(conn, joinMsg); err != nil {
		conn.Close()
		return
	}
	if !resp.Joined {
		conn.Close()
		return
	}

	sess := &clientSession{conn: conn, room: room, actorID: actorID}
	go sess.writePump()
	sess.readPump()
}

// clientSession runs one connection's lifetime: a read goroutine decoding
// client frames into the room, and a write goroutine draining the room's
// outbox for this actor.
type clientSession struct {
	conn    *websocket.Conn
	room    *engine.Room
	actorID int
}

// readPump decodes frames from the client and hands them to the room until
// the connection closes, at which point the actor is freed.
func (s *clientSession) readPump() {
	defer func() {
		s.room.FreeActor(s.actorID)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg engine.MessageToServer
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket: actor %d read error: %v", s.actorID, err)
			}
			return
		}
		if err := s.room.HandlePacket(s.actorID, msg); err != nil {
			log.Printf("websocket: actor %d packet rejected: %v", s.actorID, err)
			return
		}
	}
}

// writePump drains the room's outbox for this actor until empty, then
// blocks on the room's tick notification (or a keepalive ping) before
// draining again.
func (s *clientSession) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		drained := false
		for {
			msg, ok := s.room.Drain(s.actorID)
			if !ok {
				break
			}
			drained = true
			if err := writeJSON(s.conn, *msg); err != nil {
				return
			}
		}
		if drained {
			tick := engine.FromServer(engine.FromServerStateMachineTick, time.Now())
			if err := writeJSON(s.conn, tick); err != nil {
				return
			}
		}

		select {
		case <-s.room.TickNotify():
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
