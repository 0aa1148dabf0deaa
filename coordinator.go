package packetbus

import (
	"context"
	"time"
)

// DefaultRequestTimeout bounds SendRequest when no WithTimeout option is
// given.
const DefaultRequestTimeout = 30 * time.Second

// Coordinator layers a request/response exchange over the Router's one-way
// deliveries. A request travels through Router.Route like any packet; the
// response comes back on a private single-use reply target attached to the
// request, bypassing the address table entirely.
type Coordinator struct {
	router *Router
	tracer Tracer
}

// NewCoordinator creates a Coordinator sending through the given Router.
// Coordinator events go to the Router's tracer.
func NewCoordinator(router *Router) *Coordinator {
	return &Coordinator{router: router, tracer: router.tracer}
}

// SendRequest builds a request packet with a fresh reply target, routes it,
// and blocks until the first of: a response arrives (success resolves with
// its result, failure returns *OperationError carrying the responder's
// message), the timeout elapses (*TimeoutError), a non-response value
// arrives on the reply target (*ProtocolError), or ctx is cancelled. The
// reply target is released on every path, so a straggling response after
// the caller gave up is a silent no-op.
func (c *Coordinator) SendRequest(ctx context.Context, verb Verb, addr Address, payload map[string]any, opts ...RequestOption) (any, error) {
	o := requestDefaults()
	for _, opt := range opts {
		opt(&o)
	}

	rt := newReplyTarget()
	defer rt.release()

	req := withReply(NewRequest(verb, addr, payload), rt)

	c.tracer.RequestSent(verbString(verb), addr.String(), o.timeout)
	c.router.Route(req)

	timer := time.NewTimer(o.timeout)
	defer timer.Stop()

	select {
	case resp := <-rt.ch:
		if resp != nil && resp.IsResponse {
			c.tracer.ResponseReceived(resp.Success)
		}
		return resolveResponse(resp)
	case <-timer.C:
		return nil, &TimeoutError{Verb: verbString(verb), Address: addr.String(), After: o.timeout}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SendResponse answers a request by delivering a response packet directly
// to its reply target. The response derives verb and address from the
// request and is not re-routed or re-matched. Returns ErrNoReplyTarget if
// the request cannot be answered; delivering to an already-resolved target
// is a no-op.
func (c *Coordinator) SendResponse(req *Packet, result any, success bool, errorMessage string) error {
	return Respond(req, result, success, errorMessage)
}

// Respond is the free-function form of SendResponse, for responders that
// hold a request packet but no coordinator (e.g. consumers of a Peer
// subscription). Delivery goes straight to the request's reply target; the
// Router is not involved.
func Respond(req *Packet, result any, success bool, errorMessage string) error {
	if req.reply == nil {
		return ErrNoReplyTarget
	}
	req.reply.deliver(newResponse(req, result, success, errorMessage))
	return nil
}

// resolveResponse maps a response packet to the outcome SendRequest
// reports: result on success, *OperationError on an explicit failure,
// *ProtocolError for anything that is not a response packet.
func resolveResponse(resp *Packet) (any, error) {
	if resp == nil || !resp.IsResponse {
		return nil, &ProtocolError{Reason: "expected a response packet on the reply target"}
	}
	if !resp.Success {
		return nil, &OperationError{Message: resp.ErrorMessage}
	}
	return resp.Result, nil
}
