package packetbus

import "testing"

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("bus://Inventory.Main:7/items/42?expand=true")
	if err != nil {
		t.Fatalf("ParseAddress() error: %v", err)
	}
	if addr.Scheme != "bus" {
		t.Errorf("Scheme = %q, want %q", addr.Scheme, "bus")
	}
	if addr.Host != "Inventory.Main" {
		t.Errorf("Host = %q, want %q", addr.Host, "Inventory.Main")
	}
	if addr.Port != 7 {
		t.Errorf("Port = %d, want 7", addr.Port)
	}
	if addr.Path != "/items/42" {
		t.Errorf("Path = %q, want %q", addr.Path, "/items/42")
	}
	if addr.Query != "expand=true" {
		t.Errorf("Query = %q, want %q", addr.Query, "expand=true")
	}
}

func TestParseAddress_ForeignSchemePreserved(t *testing.T) {
	// Construction succeeds; the Router drops foreign schemes at routing time.
	addr, err := ParseAddress("http://host:1/x")
	if err != nil {
		t.Fatalf("ParseAddress() error: %v", err)
	}
	if addr.Scheme != "http" {
		t.Errorf("Scheme = %q, want %q", addr.Scheme, "http")
	}
}

func TestParseAddress_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing scheme", "host:notaport"},
		{"missing host", "bus://:7/x"},
		{"missing port", "bus://host/x"},
		{"non-numeric port", "bus://host:abc/x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseAddress(tt.raw); err == nil {
				t.Errorf("ParseAddress(%q) should fail", tt.raw)
			}
		})
	}
}

func TestAddress_String_RoundTrip(t *testing.T) {
	raw := "bus://inventory:7/items?expand=true"
	addr, err := ParseAddress(raw)
	if err != nil {
		t.Fatalf("ParseAddress() error: %v", err)
	}
	if got := addr.String(); got != raw {
		t.Errorf("String() = %q, want %q", got, raw)
	}
}

func TestAddress_Key_CaseInsensitiveHost(t *testing.T) {
	a := NewAddress("Test.Host", 3, "/a")
	b := NewAddress("test.HOST", 3, "/b")
	if a.key() != b.key() {
		t.Errorf("keys differ: %v vs %v", a.key(), b.key())
	}
	if a.key() == NewAddress("test.host", 4, "/a").key() {
		t.Error("different ports should produce different keys")
	}
}

func TestNewAddress_UsesRoutingScheme(t *testing.T) {
	addr := NewAddress("svc", 1, "/x")
	if addr.Scheme != Scheme {
		t.Errorf("Scheme = %q, want %q", addr.Scheme, Scheme)
	}
}

func TestAddressKey_String(t *testing.T) {
	key := bindKey("Test.Host", 9)
	if key.String() != "test.host:9" {
		t.Errorf("String() = %q, want %q", key.String(), "test.host:9")
	}
}
