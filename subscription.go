package packetbus

import "sync"

// Subscription is one consumer attached to a (host, port) broadcast. Each
// call to Router.Bind on the same key attaches a fresh Subscription to the
// same ongoing broadcast; every subscription independently receives every
// packet routed to the key after it attached.
type Subscription struct {
	key addressKey
	in  chan *Packet
	out chan *Packet
}

func newSubscription(key addressKey) *Subscription {
	s := &Subscription{
		key: key,
		in:  make(chan *Packet),
		out: make(chan *Packet),
	}
	go s.pump()
	return s
}

// Packets returns the subscriber's packet stream. The channel is closed
// when the Router is disposed; packets still queued at that point are
// discarded.
func (s *Subscription) Packets() <-chan *Packet {
	return s.out
}

// Key returns the "host:port" key the subscription is bound to.
func (s *Subscription) Key() string {
	return s.key.String()
}

// pump decouples the Router's dispatch loop from the consumer: delivery
// into the subscription never blocks on a slow reader, and the queue
// between them is unbounded.
func (s *Subscription) pump() {
	var queue []*Packet
	for {
		if len(queue) == 0 {
			p, ok := <-s.in
			if !ok {
				close(s.out)
				return
			}
			queue = append(queue, p)
			continue
		}
		select {
		case p, ok := <-s.in:
			if !ok {
				close(s.out)
				return
			}
			queue = append(queue, p)
		case s.out <- queue[0]:
			queue = queue[1:]
		}
	}
}

// broadcast is the per-key fan-out point: every attached subscription gets
// every published packet. There is no per-subscriber detach; subscriptions
// live until the broadcast is closed by Router.Dispose.
type broadcast struct {
	key addressKey

	mu     sync.Mutex
	subs   []*Subscription
	closed bool
}

func newBroadcast(key addressKey) *broadcast {
	return &broadcast{key: key}
}

func (b *broadcast) attach() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	sub := newSubscription(b.key)
	b.subs = append(b.subs, sub)
	return sub
}

func (b *broadcast) publish(p *Packet) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, sub := range b.subs {
		sub.in <- p
	}
}

func (b *broadcast) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, sub := range b.subs {
		close(sub.in)
	}
}
