package packetbus

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// frame is the wire format between a Peer and a Gateway. Packets travel
// inside frames as their flat wire records; the frame adds the control
// channel (join/bind/heartbeat) and the ref used to correlate a remote
// request with its reply frame.
type frame struct {
	Op     string          `json:"op"`
	Ref    string          `json:"ref,omitempty"`
	Peer   string          `json:"peer,omitempty"`
	Host   string          `json:"host,omitempty"`
	Port   int             `json:"port,omitempty"`
	Packet json.RawMessage `json:"packet,omitempty"`
	Error  string          `json:"error,omitempty"`
}

const (
	opJoin      = "join"
	opJoined    = "joined"
	opBind      = "bind"
	opBound     = "bound"
	opPacket    = "packet"
	opReply     = "reply"
	opHeartbeat = "heartbeat"
	opLeave     = "leave"
	opError     = "error"
)

// frameConn wraps a WebSocket connection with serialized frame writes.
// Reads stay single-goroutine (the owner's read loop).
type frameConn struct {
	conn *websocket.Conn
	mu   sync.Mutex // guards writes
}

func newFrameConn(conn *websocket.Conn) *frameConn {
	return &frameConn{conn: conn}
}

func (c *frameConn) writeFrame(f frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *frameConn) readFrame() (frame, error) {
	var f frame
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return f, err
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return f, err
	}
	return f, nil
}

func (c *frameConn) close() error {
	return c.conn.Close()
}
