package packetbus

import (
	"fmt"
	"os"
	"time"
)

// PeerConfig holds the configuration for a Peer.
type PeerConfig struct {
	// GatewayURL is the WebSocket URL of the bus gateway.
	// Fallback: PACKETBUS_GATEWAY_URL environment variable.
	GatewayURL string

	// HeartbeatInterval between heartbeat frames. Default 30s.
	HeartbeatInterval time.Duration

	// ReconnectInitial and ReconnectMax bound the redial backoff.
	// Defaults 1s and 30s.
	ReconnectInitial time.Duration
	ReconnectMax     time.Duration
}

// resolvePeerConfig fills empty fields from the environment and defaults,
// then validates required fields.
func resolvePeerConfig(cfg PeerConfig) (PeerConfig, error) {
	if cfg.GatewayURL == "" {
		cfg.GatewayURL = os.Getenv("PACKETBUS_GATEWAY_URL")
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	if cfg.ReconnectInitial == 0 {
		cfg.ReconnectInitial = time.Second
	}
	if cfg.ReconnectMax == 0 {
		cfg.ReconnectMax = 30 * time.Second
	}

	if cfg.GatewayURL == "" {
		return cfg, fmt.Errorf("GatewayURL is required (set in PeerConfig or PACKETBUS_GATEWAY_URL env)")
	}
	return cfg, nil
}
