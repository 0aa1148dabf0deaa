package packetbus

import (
	"fmt"
	"sync"
)

// HandlerFunc is the signature for request handlers. The returned value
// becomes the result of a successful response; a non-nil error is sent back
// as a failed response carrying the error's message. Fire-and-forget
// packets ignore both.
type HandlerFunc func(req *Packet) (any, error)

// HandlerMux dispatches routed packets to handlers by URI path. The Router
// deliberately matches on (host, port) only; any finer dispatch is the
// subscriber's job, and HandlerMux is that job packaged up: bind a key,
// register paths, and let Serve answer requests.
type HandlerMux struct {
	co *Coordinator

	mu       sync.RWMutex
	handlers map[string]HandlerFunc // URI path → handler
}

// NewHandlerMux creates a mux answering through the given Coordinator.
func NewHandlerMux(co *Coordinator) *HandlerMux {
	return &HandlerMux{
		co:       co,
		handlers: make(map[string]HandlerFunc),
	}
}

// Handle registers a handler for the given URI path.
func (m *HandlerMux) Handle(path string, fn HandlerFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.handlers[path]; exists {
		return fmt.Errorf("handler already registered for path %q", path)
	}
	m.handlers[path] = fn
	return nil
}

// Bind attaches the mux to (host, port) on the given Router and starts
// serving its subscription. Serving stops when the Router is disposed.
func (m *HandlerMux) Bind(r *Router, host string, port int) error {
	sub, err := r.Bind(host, port)
	if err != nil {
		return err
	}
	go m.Serve(sub)
	return nil
}

// Serve consumes a subscription, dispatching each packet to the handler
// registered for its path. Handlers run concurrently. Serve returns when
// the subscription's channel is closed.
func (m *HandlerMux) Serve(sub *Subscription) {
	for p := range sub.Packets() {
		go m.serve(p)
	}
}

func (m *HandlerMux) serve(p *Packet) {
	if p.IsResponse {
		return
	}

	m.mu.RLock()
	fn, ok := m.handlers[p.Address.Path]
	m.mu.RUnlock()

	if !ok {
		// Answer instead of letting the requester run into its timeout.
		if p.ExpectsReply() {
			m.co.SendResponse(p, nil, false, fmt.Sprintf("no handler for path %q", p.Address.Path))
		}
		return
	}

	result, err := fn(p)
	if err != nil {
		if p.ExpectsReply() {
			m.co.SendResponse(p, nil, false, err.Error())
		}
		return
	}
	if p.ExpectsReply() {
		m.co.SendResponse(p, result, true, "")
	}
}
