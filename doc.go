// Package packetbus provides a process-local, URI-addressed packet bus with
// a layered request/response protocol.
//
// A Router owns an address table keyed on (host, port) and fans routed
// packets out to every subscriber bound to the packet's address. A
// Coordinator layers a synchronous-looking request/response exchange on top
// of two one-way deliveries, correlated by a private single-use reply
// target. Verbs are drawn from an open set of enumerations so new domains
// can define their own operations without touching the bus.
//
// Basic usage:
//
//	router := packetbus.NewRouter()
//	defer router.Dispose()
//	co := packetbus.NewCoordinator(router)
//
//	sub, _ := router.Bind("inventory", 1)
//	go func() {
//	    for req := range sub.Packets() {
//	        co.SendResponse(req, map[string]any{"status": "ok"}, true, "")
//	    }
//	}()
//
//	addr, _ := packetbus.ParseAddress("bus://inventory:1/items")
//	result, err := co.SendRequest(ctx, packetbus.Get, addr, nil)
//
// Remote processes join the bus through a Gateway (an http.Handler that
// bridges WebSocket peers onto the Router) and the matching Peer client.
package packetbus
