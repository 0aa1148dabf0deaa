package packetbus

import (
	"testing"
	"time"
)

func TestResolvePeerConfig_Defaults(t *testing.T) {
	cfg, err := resolvePeerConfig(PeerConfig{GatewayURL: "ws://localhost:7331/bus"})
	if err != nil {
		t.Fatalf("resolvePeerConfig() error: %v", err)
	}
	if cfg.HeartbeatInterval != 30*time.Second {
		t.Errorf("HeartbeatInterval = %v, want 30s", cfg.HeartbeatInterval)
	}
	if cfg.ReconnectInitial != time.Second {
		t.Errorf("ReconnectInitial = %v, want 1s", cfg.ReconnectInitial)
	}
	if cfg.ReconnectMax != 30*time.Second {
		t.Errorf("ReconnectMax = %v, want 30s", cfg.ReconnectMax)
	}
}

func TestResolvePeerConfig_EnvFallback(t *testing.T) {
	t.Setenv("PACKETBUS_GATEWAY_URL", "ws://env-host:7331/bus")

	cfg, err := resolvePeerConfig(PeerConfig{})
	if err != nil {
		t.Fatalf("resolvePeerConfig() error: %v", err)
	}
	if cfg.GatewayURL != "ws://env-host:7331/bus" {
		t.Errorf("GatewayURL = %q, want env value", cfg.GatewayURL)
	}
}

func TestResolvePeerConfig_ExplicitBeatsEnv(t *testing.T) {
	t.Setenv("PACKETBUS_GATEWAY_URL", "ws://env-host:7331/bus")

	cfg, err := resolvePeerConfig(PeerConfig{GatewayURL: "ws://explicit:7331/bus"})
	if err != nil {
		t.Fatalf("resolvePeerConfig() error: %v", err)
	}
	if cfg.GatewayURL != "ws://explicit:7331/bus" {
		t.Errorf("GatewayURL = %q, want explicit value", cfg.GatewayURL)
	}
}

func TestResolvePeerConfig_MissingURL(t *testing.T) {
	t.Setenv("PACKETBUS_GATEWAY_URL", "")

	if _, err := resolvePeerConfig(PeerConfig{}); err == nil {
		t.Error("resolvePeerConfig() should error when GatewayURL is missing")
	}
}
