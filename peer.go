package packetbus

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Peer is a remote handle to a bus reachable through a Gateway. It mirrors
// the in-process surface — Bind, Route, SendRequest — over the frame
// protocol, and redials with exponential backoff when the connection drops,
// re-binding its keys on reconnect.
type Peer struct {
	cfg   PeerConfig
	verbs []Verb

	mu          sync.Mutex // guards fc, pendingJoin, closed
	fc          *frameConn
	pendingJoin chan frame
	closed      bool

	peerID string

	pending sync.Map // ref → chan *Packet

	bmu   sync.Mutex
	binds map[addressKey]*broadcast

	done chan struct{}
}

// Dial connects to a gateway and joins the bus. verbs is the candidate
// list used to decode every packet pushed by the gateway.
func Dial(ctx context.Context, cfg PeerConfig, verbs []Verb) (*Peer, error) {
	resolved, err := resolvePeerConfig(cfg)
	if err != nil {
		return nil, err
	}

	p := &Peer{
		cfg:   resolved,
		verbs: verbs,
		binds: make(map[addressKey]*broadcast),
		done:  make(chan struct{}),
	}
	if err := p.connect(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// ID returns the peer identity assigned by the gateway on join.
func (p *Peer) ID() string {
	return p.peerID
}

func (p *Peer) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, p.cfg.GatewayURL, nil)
	if err != nil {
		return err
	}
	fc := newFrameConn(conn)

	joinCh := make(chan frame, 1)
	p.mu.Lock()
	p.fc = fc
	p.pendingJoin = joinCh
	p.mu.Unlock()

	go p.readLoop(fc)

	if err := fc.writeFrame(frame{Op: opJoin, Ref: uuid.New().String()}); err != nil {
		fc.close()
		return err
	}

	select {
	case f := <-joinCh:
		p.peerID = f.Peer
	case <-ctx.Done():
		fc.close()
		return ctx.Err()
	}

	go p.heartbeatLoop(fc)
	return nil
}

// Bind subscribes to (host, port) on the remote bus. The first bind of a
// key registers it with the gateway; later binds fan the same inbound
// stream out to additional local subscriptions.
func (p *Peer) Bind(host string, port int) (*Subscription, error) {
	key := bindKey(host, port)

	p.bmu.Lock()
	bc, known := p.binds[key]
	if !known {
		bc = newBroadcast(key)
		p.binds[key] = bc
	}
	sub := bc.attach()
	p.bmu.Unlock()

	if sub == nil {
		return nil, ErrPeerClosed
	}
	if !known {
		if err := p.writeFrame(frame{Op: opBind, Ref: uuid.New().String(), Host: host, Port: port}); err != nil {
			return nil, err
		}
	}
	return sub, nil
}

// Route sends a fire-and-forget packet to the remote bus. Returns once the
// frame is written; routing outcomes are not reported back.
func (p *Peer) Route(pkt *Packet) error {
	data, err := EncodePacket(pkt)
	if err != nil {
		return err
	}
	return p.writeFrame(frame{Op: opPacket, Packet: data})
}

// SendRequest performs a request/response exchange through the gateway.
// Semantics match Coordinator.SendRequest; correlation uses a frame ref
// instead of an in-process reply target.
func (p *Peer) SendRequest(ctx context.Context, verb Verb, addr Address, payload map[string]any, opts ...RequestOption) (any, error) {
	o := requestDefaults()
	for _, opt := range opts {
		opt(&o)
	}

	data, err := EncodePacket(NewRequest(verb, addr, payload))
	if err != nil {
		return nil, err
	}

	ref := uuid.New().String()
	ch := make(chan *Packet, 1)
	p.pending.Store(ref, ch)
	defer p.pending.Delete(ref)

	if err := p.writeFrame(frame{Op: opPacket, Ref: ref, Packet: data}); err != nil {
		return nil, err
	}

	timer := time.NewTimer(o.timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		return resolveResponse(resp)
	case <-timer.C:
		return nil, &TimeoutError{Verb: verbString(verb), Address: addr.String(), After: o.timeout}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close leaves the bus and shuts the connection down. Local subscriptions
// are closed. Idempotent.
func (p *Peer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	fc := p.fc
	p.mu.Unlock()

	close(p.done)

	p.bmu.Lock()
	for _, bc := range p.binds {
		bc.close()
	}
	p.bmu.Unlock()

	if fc != nil {
		fc.writeFrame(frame{Op: opLeave})
		return fc.close()
	}
	return nil
}

func (p *Peer) writeFrame(f frame) error {
	p.mu.Lock()
	fc := p.fc
	closed := p.closed
	p.mu.Unlock()

	if closed || fc == nil {
		return ErrPeerClosed
	}
	return fc.writeFrame(f)
}

func (p *Peer) readLoop(fc *frameConn) {
	for {
		f, err := fc.readFrame()
		if err != nil {
			select {
			case <-p.done:
			default:
				go p.reconnect()
			}
			return
		}
		p.handleFrame(f)
	}
}

func (p *Peer) handleFrame(f frame) {
	switch f.Op {
	case opJoined:
		p.mu.Lock()
		ch := p.pendingJoin
		p.mu.Unlock()
		if ch != nil {
			select {
			case ch <- f:
			default:
			}
		}
	case opPacket:
		pkt, err := DecodePacket(f.Packet, p.verbs)
		if err != nil {
			return
		}
		if f.Ref != "" && !pkt.IsResponse {
			// The gateway is waiting on this ref: give the local consumer
			// a live reply target whose consumption travels back as a
			// reply frame.
			rt := newReplyTarget()
			pkt = withReply(pkt, rt)
			go p.forwardReply(f.Ref, rt)
		}
		p.bmu.Lock()
		bc := p.binds[pkt.Address.key()]
		p.bmu.Unlock()
		if bc != nil {
			bc.publish(pkt)
		}
	case opReply, opError:
		ch, ok := p.pending.LoadAndDelete(f.Ref)
		if !ok {
			return
		}
		respCh := ch.(chan *Packet)
		var resp *Packet
		if f.Op == opReply {
			// A decode failure leaves resp nil, which the waiter reports
			// as a protocol error.
			resp, _ = DecodePacket(f.Packet, p.verbs)
		}
		select {
		case respCh <- resp:
		default:
		}
	}
}

// forwardReply waits for the local responder to consume the synthesized
// reply target and sends the response back to the gateway under ref. The
// wait is bounded; the remote requester runs its own timer anyway.
func (p *Peer) forwardReply(ref string, rt *replyTarget) {
	defer rt.release()

	timer := time.NewTimer(DefaultRequestTimeout)
	defer timer.Stop()

	select {
	case resp := <-rt.ch:
		data, err := EncodePacket(resp)
		if err != nil {
			return
		}
		p.writeFrame(frame{Op: opReply, Ref: ref, Packet: data})
	case <-timer.C:
	case <-p.done:
	}
}

func (p *Peer) heartbeatLoop(fc *frameConn) {
	ticker := time.NewTicker(p.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			if err := fc.writeFrame(frame{Op: opHeartbeat, Ref: uuid.New().String()}); err != nil {
				return
			}
		}
	}
}

// reconnect redials until it succeeds or the peer is closed, then
// re-registers every bound key with the gateway.
func (p *Peer) reconnect() {
	b := newBackoff(p.cfg.ReconnectInitial, p.cfg.ReconnectMax)
	for {
		select {
		case <-p.done:
			return
		case <-time.After(b.next()):
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := p.connect(ctx)
		cancel()
		if err != nil {
			continue
		}

		p.bmu.Lock()
		keys := make([]addressKey, 0, len(p.binds))
		for key := range p.binds {
			keys = append(keys, key)
		}
		p.bmu.Unlock()

		for _, key := range keys {
			p.writeFrame(frame{Op: opBind, Ref: uuid.New().String(), Host: key.host, Port: key.port})
		}
		return
	}
}
