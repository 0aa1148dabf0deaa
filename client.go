package packetbus

import "context"

// Client is verb-specific sugar over a Coordinator: each method parses a
// full URI, picks the matching core verb and delegates to SendRequest. Use
// the Coordinator directly for custom verb sets.
type Client struct {
	co *Coordinator
}

// NewClient creates a Client sending through the given Router.
func NewClient(router *Router) *Client {
	return &Client{co: NewCoordinator(router)}
}

// Coordinator exposes the underlying coordinator, e.g. for SendResponse.
func (c *Client) Coordinator() *Coordinator {
	return c.co
}

// Ping checks that something answers at the address.
func (c *Client) Ping(ctx context.Context, rawAddr string, opts ...RequestOption) error {
	_, err := c.request(ctx, Ping, rawAddr, nil, opts)
	return err
}

// Get requests a read of the addressed resource.
func (c *Client) Get(ctx context.Context, rawAddr string, payload map[string]any, opts ...RequestOption) (any, error) {
	return c.request(ctx, Get, rawAddr, payload, opts)
}

// Put requests a write to the addressed resource.
func (c *Client) Put(ctx context.Context, rawAddr string, payload map[string]any, opts ...RequestOption) (any, error) {
	return c.request(ctx, Put, rawAddr, payload, opts)
}

// Delete requests removal of the addressed resource.
func (c *Client) Delete(ctx context.Context, rawAddr string, payload map[string]any, opts ...RequestOption) (any, error) {
	return c.request(ctx, Delete, rawAddr, payload, opts)
}

// List requests an enumeration under the addressed resource.
func (c *Client) List(ctx context.Context, rawAddr string, payload map[string]any, opts ...RequestOption) (any, error) {
	return c.request(ctx, List, rawAddr, payload, opts)
}

// Notify routes a fire-and-forget request packet: no reply target, no
// outcome. Delivery is best-effort.
func (c *Client) Notify(verb Verb, rawAddr string, payload map[string]any) error {
	addr, err := ParseAddress(rawAddr)
	if err != nil {
		return err
	}
	c.co.router.Route(NewRequest(verb, addr, payload))
	return nil
}

func (c *Client) request(ctx context.Context, verb Verb, rawAddr string, payload map[string]any, opts []RequestOption) (any, error) {
	addr, err := ParseAddress(rawAddr)
	if err != nil {
		return nil, err
	}
	return c.co.SendRequest(ctx, verb, addr, payload, opts...)
}
