package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type busdConfig struct {
	ListenAddr  string
	GatewayPath string
	MetricsPath string
	LogLevel    string
}

func defaultConfig() busdConfig {
	return busdConfig{
		ListenAddr:  ":7331",
		GatewayPath: "/bus",
		MetricsPath: "/metrics",
		LogLevel:    "info",
	}
}

type fileConfig struct {
	ListenAddr  string `toml:"listen_addr"`
	GatewayPath string `toml:"gateway_path"`
	MetricsPath string `toml:"metrics_path"`
	LogLevel    string `toml:"log_level"`
}

func loadConfig(path string) (busdConfig, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return busdConfig{}, fmt.Errorf("load busd config: %w", err)
	}

	if meta.IsDefined("listen_addr") {
		if v := strings.TrimSpace(raw.ListenAddr); v != "" {
			cfg.ListenAddr = v
		}
	}
	if meta.IsDefined("gateway_path") {
		if v := strings.TrimSpace(raw.GatewayPath); v != "" {
			cfg.GatewayPath = v
		}
	}
	if meta.IsDefined("metrics_path") {
		if v := strings.TrimSpace(raw.MetricsPath); v != "" {
			cfg.MetricsPath = v
		}
	}
	if meta.IsDefined("log_level") {
		if v := strings.TrimSpace(raw.LogLevel); v != "" {
			cfg.LogLevel = v
		}
	}

	return cfg, nil
}
