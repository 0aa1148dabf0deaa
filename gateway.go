package packetbus

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Gateway admits remote peers to the in-process bus over WebSocket. It is
// an http.Handler: mount it wherever the process serves HTTP.
//
// A peer joins, binds (host, port) keys and exchanges packet frames. An
// inbound request frame carrying a ref gets an in-process reply target
// attached before routing; the response comes back to the peer as a reply
// frame with the same ref. Reply targets stay in-process on both sides —
// only the ref crosses the wire.
type Gateway struct {
	router   *Router
	co       *Coordinator
	verbs    []Verb
	timeout  time.Duration
	upgrader websocket.Upgrader
}

// NewGateway creates a Gateway routing into router. verbs is the candidate
// list used to decode every packet arriving from peers.
func NewGateway(router *Router, verbs []Verb) *Gateway {
	return &Gateway{
		router:  router,
		co:      NewCoordinator(router),
		verbs:   verbs,
		timeout: DefaultRequestTimeout,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	gc := &gatewayConn{
		g:        g,
		fc:       newFrameConn(conn),
		done:     make(chan struct{}),
		awaiting: make(map[string]*replyTarget),
	}
	gc.readLoop()
}

type gatewayConn struct {
	g      *Gateway
	fc     *frameConn
	peerID string
	done   chan struct{}

	rmu      sync.Mutex
	awaiting map[string]*replyTarget // ref → reply target of a request forwarded to the peer
}

func (c *gatewayConn) readLoop() {
	defer close(c.done)
	defer c.fc.close()

	for {
		f, err := c.fc.readFrame()
		if err != nil {
			return
		}

		switch f.Op {
		case opJoin:
			c.peerID = uuid.New().String()
			c.fc.writeFrame(frame{Op: opJoined, Ref: f.Ref, Peer: c.peerID})
		case opBind:
			c.handleBind(f)
		case opPacket:
			c.handlePacket(f)
		case opReply:
			c.handlePeerReply(f)
		case opHeartbeat:
			c.fc.writeFrame(frame{Op: opHeartbeat, Ref: f.Ref})
		case opLeave:
			return
		}
	}
}

func (c *gatewayConn) handleBind(f frame) {
	sub, err := c.g.router.Bind(f.Host, f.Port)
	if err != nil {
		c.fc.writeFrame(frame{Op: opError, Ref: f.Ref, Error: err.Error()})
		return
	}
	c.fc.writeFrame(frame{Op: opBound, Ref: f.Ref, Host: f.Host, Port: f.Port})
	go c.forward(sub)
}

// forward pushes every packet fanned out to the subscription over the
// socket. A request still carrying a live reply target gets a ref so the
// peer's eventual reply frame can find its way back to that target.
// Bindings have no teardown path, so after the connection dies the loop
// keeps draining the subscription until the Router is disposed.
func (c *gatewayConn) forward(sub *Subscription) {
	for p := range sub.Packets() {
		select {
		case <-c.done:
			continue
		default:
		}
		data, err := EncodePacket(p)
		if err != nil {
			continue
		}

		var ref string
		if p.ExpectsReply() {
			ref = uuid.New().String()
			c.trackAwaiting(ref, p.reply)
		}
		c.fc.writeFrame(frame{Op: opPacket, Ref: ref, Packet: data})
	}
}

func (c *gatewayConn) trackAwaiting(ref string, rt *replyTarget) {
	c.rmu.Lock()
	c.awaiting[ref] = rt
	c.rmu.Unlock()

	// The requester's own timer bounds the wait; this only reclaims the
	// table entry.
	time.AfterFunc(c.g.timeout, func() {
		c.rmu.Lock()
		delete(c.awaiting, ref)
		c.rmu.Unlock()
	})
}

// handlePeerReply delivers a peer's reply frame to the reply target of the
// forwarded request it answers. Unknown or expired refs are dropped; so is
// a second reply to a spent target.
func (c *gatewayConn) handlePeerReply(f frame) {
	c.rmu.Lock()
	rt, ok := c.awaiting[f.Ref]
	delete(c.awaiting, f.Ref)
	c.rmu.Unlock()
	if !ok {
		return
	}

	resp, err := DecodePacket(f.Packet, c.g.verbs)
	if err != nil {
		// A nil delivery surfaces as a protocol error at the waiter.
		rt.deliver(nil)
		return
	}
	rt.deliver(resp)
}

func (c *gatewayConn) handlePacket(f frame) {
	p, err := DecodePacket(f.Packet, c.g.verbs)
	if err != nil {
		c.fc.writeFrame(frame{Op: opError, Ref: f.Ref, Error: err.Error()})
		return
	}

	if f.Ref != "" && !p.IsResponse {
		// Remote request: stand in for the peer with a local reply target.
		rt := newReplyTarget()
		c.g.router.Route(withReply(p, rt))
		go c.awaitReply(f.Ref, rt)
		return
	}

	c.g.router.Route(p)
}

func (c *gatewayConn) awaitReply(ref string, rt *replyTarget) {
	defer rt.release()

	timer := time.NewTimer(c.g.timeout)
	defer timer.Stop()

	select {
	case resp := <-rt.ch:
		data, err := EncodePacket(resp)
		if err != nil {
			return
		}
		c.fc.writeFrame(frame{Op: opReply, Ref: ref, Packet: data})
	case <-timer.C:
		// The peer runs its own timer; nothing useful to send.
	case <-c.done:
	}
}
