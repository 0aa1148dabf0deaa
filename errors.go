package packetbus

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for bus state.
var (
	// ErrRouterDisposed is returned by Bind after Dispose.
	ErrRouterDisposed = errors.New("router is disposed")

	// ErrNoReplyTarget is returned by SendResponse when the request packet
	// carries no reply target; such a request cannot be answered.
	ErrNoReplyTarget = errors.New("request has no reply target")

	// ErrPeerClosed is returned by Peer operations after Close.
	ErrPeerClosed = errors.New("peer is closed")
)

// UnknownVerbError reports a wire-level verb reference that matched no
// candidate during decoding.
type UnknownVerbError struct {
	Set  string
	Name string
}

func (e *UnknownVerbError) Error() string {
	return fmt.Sprintf("unknown verb [%s/%s]: no candidate matches", e.Set, e.Name)
}

// TimeoutError reports that a request produced no response within its
// timeout window.
type TimeoutError struct {
	Verb    string
	Address string
	After   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timeout [%s %s]: no response after %s", e.Verb, e.Address, e.After)
}

// OperationError reports that the responder explicitly answered with
// success=false. Message carries the responder's errorMessage verbatim.
type OperationError struct {
	Message string
}

func (e *OperationError) Error() string {
	return e.Message
}

// ProtocolError reports that a non-conforming value arrived where a
// response packet was expected.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: %s", e.Reason)
}

// DropReason classifies why the Router dropped a packet. Drops are reported
// to the Tracer only and never surfaced to the sender; routing is
// best-effort by design.
type DropReason int

const (
	DropBadScheme    DropReason = iota // address scheme is not the routing scheme
	DropNoSubscriber                   // nothing bound to (host, port)
	DropDisposed                       // packet routed after Dispose
)

var dropReasonNames = [...]string{
	DropBadScheme:    "DropBadScheme",
	DropNoSubscriber: "DropNoSubscriber",
	DropDisposed:     "DropDisposed",
}

func (r DropReason) String() string {
	if int(r) >= 0 && int(r) < len(dropReasonNames) {
		return dropReasonNames[r]
	}
	return fmt.Sprintf("DropReason(%d)", r)
}
