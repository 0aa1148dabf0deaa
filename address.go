package packetbus

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Scheme is the fixed routing scheme. The Router only accepts packets whose
// address carries this scheme; anything else is dropped and reported.
const Scheme = "bus"

// Address is the structured target of a packet:
//
//	bus://<host>:<port>/<path>?<query>
//
// Only host and port participate in routing; host matches
// case-insensitively, port is an integer sub-address within a host (not a
// network port). Path and query are opaque to the Router and available to
// the subscriber's own dispatch logic.
type Address struct {
	Scheme string
	Host   string
	Port   int
	Path   string
	Query  string // raw query string, without the leading "?"
}

// NewAddress builds a routable address on the fixed scheme.
func NewAddress(host string, port int, path string) Address {
	return Address{Scheme: Scheme, Host: host, Port: port, Path: path}
}

// ParseAddress parses a full URI into an Address. The scheme is preserved
// as written; validation against Scheme happens at routing time, so a
// packet with a foreign scheme can still be constructed (and then dropped).
func ParseAddress(raw string) (Address, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Address{}, fmt.Errorf("parse address: %w", err)
	}
	if u.Scheme == "" {
		return Address{}, fmt.Errorf("parse address %q: missing scheme", raw)
	}
	if u.Hostname() == "" {
		return Address{}, fmt.Errorf("parse address %q: missing host", raw)
	}
	portStr := u.Port()
	if portStr == "" {
		return Address{}, fmt.Errorf("parse address %q: missing port", raw)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Address{}, fmt.Errorf("parse address %q: invalid port: %w", raw, err)
	}
	return Address{
		Scheme: u.Scheme,
		Host:   u.Hostname(),
		Port:   port,
		Path:   u.Path,
		Query:  u.RawQuery,
	}, nil
}

// String reassembles the full URI form.
func (a Address) String() string {
	u := url.URL{
		Scheme:   a.Scheme,
		Host:     a.Host + ":" + strconv.Itoa(a.Port),
		Path:     a.Path,
		RawQuery: a.Query,
	}
	return u.String()
}

// addressKey is the routing key: lowercased host plus port. Path and query
// never participate.
type addressKey struct {
	host string
	port int
}

func (a Address) key() addressKey {
	return addressKey{host: strings.ToLower(a.Host), port: a.Port}
}

func bindKey(host string, port int) addressKey {
	return addressKey{host: strings.ToLower(host), port: port}
}

func (k addressKey) String() string {
	return k.host + ":" + strconv.Itoa(k.port)
}
