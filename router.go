package packetbus

import "sync"

const defaultIngressBuffer = 128

// Router owns the address table and fans inbound packets out to whichever
// subscribers are bound to the packet's (host, port) key. All packets enter
// through Route and are dispatched by a single goroutine, so fan-out for
// any one packet happens in a fixed order and each subscriber observes
// packets in the order the Router processed them. No ordering is promised
// across packets from independent senders beyond ingress serialization.
//
// Routing is fire-and-forget: packets with a foreign scheme or no
// subscriber are dropped and reported to the Tracer, never surfaced to the
// sender. Reliability is the request/response layer's concern.
type Router struct {
	tracer  Tracer
	ingress chan *Packet
	done    chan struct{}

	mu       sync.Mutex
	table    map[addressKey]*broadcast
	disposed bool

	disposeOnce sync.Once
}

// NewRouter creates a Router and starts its dispatch loop.
func NewRouter(opts ...RouterOption) *Router {
	o := routerDefaults()
	for _, opt := range opts {
		opt(&o)
	}

	r := &Router{
		tracer:  o.tracer,
		ingress: make(chan *Packet, o.ingressBuffer),
		done:    make(chan struct{}),
		table:   make(map[addressKey]*broadcast),
	}
	go r.dispatchLoop()
	return r
}

// Bind attaches a new subscriber to (host, port), creating the broadcast
// for the key on first bind. Host matching is case-insensitive. The
// subscription receives only packets routed after it attached.
//
// Bindings have no teardown path short of Dispose: once a key exists it
// stays live for the Router's whole lifetime. This is intentional.
func (r *Router) Bind(host string, port int) (*Subscription, error) {
	key := bindKey(host, port)

	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return nil, ErrRouterDisposed
	}
	bc, ok := r.table[key]
	if !ok {
		bc = newBroadcast(key)
		r.table[key] = bc
	}
	r.mu.Unlock()

	sub := bc.attach()
	if sub == nil {
		// Disposed between table lookup and attach.
		return nil, ErrRouterDisposed
	}
	r.tracer.Bound(key.String())
	return sub, nil
}

// Route is the sole ingress. It hands the packet off and returns
// immediately; validation and fan-out happen on the dispatch goroutine.
func (r *Router) Route(p *Packet) {
	select {
	case <-r.done:
		r.tracer.Dropped(p.Address.key().String(), DropDisposed)
	case r.ingress <- p:
	}
}

// Dispose stops accepting bindings, closes every subscriber channel and
// releases the address table. Idempotent.
func (r *Router) Dispose() {
	r.disposeOnce.Do(func() {
		close(r.done)

		r.mu.Lock()
		r.disposed = true
		table := r.table
		r.table = nil
		r.mu.Unlock()

		for _, bc := range table {
			bc.close()
		}
	})
}

func (r *Router) dispatchLoop() {
	for {
		select {
		case <-r.done:
			return
		case p := <-r.ingress:
			r.dispatch(p)
		}
	}
}

func (r *Router) dispatch(p *Packet) {
	key := p.Address.key()

	if p.Address.Scheme != Scheme {
		r.tracer.Dropped(key.String(), DropBadScheme)
		return
	}

	r.mu.Lock()
	bc, ok := r.table[key]
	r.mu.Unlock()

	if !ok {
		r.tracer.Dropped(key.String(), DropNoSubscriber)
		return
	}

	bc.publish(p)
	r.tracer.Routed(key.String(), verbString(p.Verb))
}

func verbString(v Verb) string {
	if v == nil {
		return ""
	}
	return v.VerbSet() + "/" + v.VerbName()
}
