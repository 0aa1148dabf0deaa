package packetbus

import (
	"errors"
	"testing"
	"time"
)

func receivePacket(t *testing.T, sub *Subscription) *Packet {
	t.Helper()
	select {
	case p, ok := <-sub.Packets():
		if !ok {
			t.Fatal("subscription closed unexpectedly")
		}
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for packet")
		return nil
	}
}

func assertSilent(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case p := <-sub.Packets():
		t.Fatalf("subscription should stay silent, got %+v", p)
	case <-time.After(150 * time.Millisecond):
	}
}

func waitForDrops(t *testing.T, tracer *recordingTracer, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for tracer.dropCount() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %d drops, have %d", n, tracer.dropCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRouter_BindAndRoute(t *testing.T) {
	router := NewRouter()
	defer router.Dispose()

	sub, err := router.Bind("test.host", 7)
	if err != nil {
		t.Fatalf("Bind() error: %v", err)
	}

	sent := NewRequest(Get, NewAddress("test.host", 7, "/items"), map[string]any{"k": "v"})
	router.Route(sent)

	got := receivePacket(t, sub)
	if got != sent {
		t.Errorf("received %+v, want the routed packet", got)
	}
}

func TestRouter_HostMatchingIsCaseInsensitive(t *testing.T) {
	router := NewRouter()
	defer router.Dispose()

	sub, err := router.Bind("Test.Host", 7)
	if err != nil {
		t.Fatalf("Bind() error: %v", err)
	}

	router.Route(NewRequest(Get, NewAddress("TEST.host", 7, "/x"), nil))
	receivePacket(t, sub)
}

func TestRouter_DifferentKeyNeverReceives(t *testing.T) {
	router := NewRouter()
	defer router.Dispose()

	target, _ := router.Bind("svc", 1)
	other, _ := router.Bind("svc", 2)

	router.Route(NewRequest(Get, NewAddress("svc", 1, "/x"), nil))

	receivePacket(t, target)
	assertSilent(t, other)
}

func TestRouter_FanOutToAllSubscribers(t *testing.T) {
	router := NewRouter()
	defer router.Dispose()

	first, _ := router.Bind("svc", 1)
	second, _ := router.Bind("svc", 1)

	sent := NewRequest(Put, NewAddress("svc", 1, "/x"), nil)
	router.Route(sent)

	if got := receivePacket(t, first); got != sent {
		t.Error("first subscriber should receive the packet")
	}
	if got := receivePacket(t, second); got != sent {
		t.Error("second subscriber should receive the packet")
	}
}

func TestRouter_LateJoinerSeesOnlyLaterPackets(t *testing.T) {
	router := NewRouter()
	defer router.Dispose()

	early, _ := router.Bind("svc", 1)

	first := NewRequest(Get, NewAddress("svc", 1, "/one"), nil)
	router.Route(first)
	receivePacket(t, early)

	late, _ := router.Bind("svc", 1)

	second := NewRequest(Get, NewAddress("svc", 1, "/two"), nil)
	router.Route(second)

	if got := receivePacket(t, late); got != second {
		t.Errorf("late joiner received %+v, want only the second packet", got)
	}
}

func TestRouter_SubscriberOrderMatchesRoutingOrder(t *testing.T) {
	router := NewRouter()
	defer router.Dispose()

	sub, _ := router.Bind("svc", 1)

	packets := make([]*Packet, 5)
	for i := range packets {
		packets[i] = NewRequest(Get, NewAddress("svc", 1, "/x"), map[string]any{"i": i})
		router.Route(packets[i])
	}

	for i := range packets {
		if got := receivePacket(t, sub); got != packets[i] {
			t.Fatalf("packet %d out of order", i)
		}
	}
}

func TestRouter_DropsForeignScheme(t *testing.T) {
	tracer := &recordingTracer{}
	router := NewRouter(WithTracer(tracer))
	defer router.Dispose()

	sub, _ := router.Bind("svc", 1)

	addr := Address{Scheme: "http", Host: "svc", Port: 1, Path: "/x"}
	router.Route(NewRequest(Get, addr, nil))

	waitForDrops(t, tracer, 1)
	if _, reason, _ := tracer.lastDrop(); reason != DropBadScheme {
		t.Errorf("drop reason = %v, want DropBadScheme", reason)
	}
	assertSilent(t, sub)
}

func TestRouter_DropsWhenNoSubscriber(t *testing.T) {
	tracer := &recordingTracer{}
	router := NewRouter(WithTracer(tracer))
	defer router.Dispose()

	router.Route(NewRequest(Get, NewAddress("nobody", 9, "/x"), nil))

	waitForDrops(t, tracer, 1)
	key, reason, _ := tracer.lastDrop()
	if reason != DropNoSubscriber {
		t.Errorf("drop reason = %v, want DropNoSubscriber", reason)
	}
	if key != "nobody:9" {
		t.Errorf("drop key = %q, want %q", key, "nobody:9")
	}
}

func TestRouter_TracesBindsAndRoutes(t *testing.T) {
	tracer := &recordingTracer{}
	router := NewRouter(WithTracer(tracer))
	defer router.Dispose()

	sub, _ := router.Bind("svc", 1)
	router.Route(NewRequest(Get, NewAddress("svc", 1, "/x"), nil))
	receivePacket(t, sub)

	tracer.mu.Lock()
	defer tracer.mu.Unlock()
	if len(tracer.bound) != 1 || tracer.bound[0] != "svc:1" {
		t.Errorf("bound = %v, want [svc:1]", tracer.bound)
	}
	if len(tracer.routed) != 1 || tracer.routed[0] != "svc:1 core/get" {
		t.Errorf("routed = %v, want [svc:1 core/get]", tracer.routed)
	}
}

func TestRouter_Dispose(t *testing.T) {
	router := NewRouter()

	sub, _ := router.Bind("svc", 1)

	router.Dispose()
	router.Dispose() // idempotent

	select {
	case _, ok := <-sub.Packets():
		if ok {
			t.Error("subscription channel should be closed, not deliver")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscription channel should close on Dispose")
	}

	if _, err := router.Bind("svc", 2); !errors.Is(err, ErrRouterDisposed) {
		t.Errorf("Bind() after Dispose = %v, want ErrRouterDisposed", err)
	}
}

func TestRouter_RouteAfterDisposeIsReportedDrop(t *testing.T) {
	tracer := &recordingTracer{}
	router := NewRouter(WithTracer(tracer))
	router.Dispose()

	router.Route(NewRequest(Get, NewAddress("svc", 1, "/x"), nil))

	waitForDrops(t, tracer, 1)
	if _, reason, _ := tracer.lastDrop(); reason != DropDisposed {
		t.Errorf("drop reason = %v, want DropDisposed", reason)
	}
}

func TestRouter_ConcurrentBindsOnSameKey(t *testing.T) {
	router := NewRouter()
	defer router.Dispose()

	const n = 16
	subs := make([]*Subscription, n)
	done := make(chan int, n)
	for i := 0; i < n; i++ {
		go func(idx int) {
			sub, err := router.Bind("svc", 1)
			if err != nil {
				t.Errorf("Bind() error: %v", err)
			}
			subs[idx] = sub
			done <- idx
		}(i)
	}
	for i := 0; i < n; i++ {
		<-done
	}

	sent := NewRequest(Get, NewAddress("svc", 1, "/x"), nil)
	router.Route(sent)

	for i := 0; i < n; i++ {
		if got := receivePacket(t, subs[i]); got != sent {
			t.Fatalf("subscriber %d missed the packet", i)
		}
	}
}

func TestSubscription_Key(t *testing.T) {
	router := NewRouter()
	defer router.Dispose()

	sub, _ := router.Bind("Svc", 3)
	if sub.Key() != "svc:3" {
		t.Errorf("Key() = %q, want %q", sub.Key(), "svc:3")
	}
}
