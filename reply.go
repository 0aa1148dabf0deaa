package packetbus

import "sync"

// replyTarget is a single-use, write-only delivery capability attached to a
// request packet. Exactly one value is ever delivered; whichever of
// deliver/release fires first wins and every later call is a no-op, so a
// response arriving after the waiter gave up cannot block or leak.
type replyTarget struct {
	ch   chan *Packet
	once sync.Once
}

func newReplyTarget() *replyTarget {
	return &replyTarget{ch: make(chan *Packet, 1)}
}

// deliver hands a response to the waiter. Reports whether this call
// consumed the target; false means the target was already spent.
func (t *replyTarget) deliver(p *Packet) bool {
	delivered := false
	t.once.Do(func() {
		t.ch <- p
		delivered = true
	})
	return delivered
}

// release invalidates the target without delivering. Called when the waiter
// times out or is cancelled.
func (t *replyTarget) release() {
	t.once.Do(func() {})
}
