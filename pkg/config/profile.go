package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CaptureProfile is a deployment-specific tuning profile for the capture
// engine, loaded from profiles/profile_<name>.yaml. Profiles let the same
// binary run with storefront-specific debounce and rate-limit settings.
type CaptureProfile struct {
	Name             string `yaml:"name" json:"name"`
	DebounceWindowMs int    `yaml:"debounce_window_ms" json:"debounce_window_ms"`
	RateLimitRPS     int    `yaml:"rate_limit_rps" json:"rate_limit_rps"`
	RateLimitBurst   int    `yaml:"rate_limit_burst" json:"rate_limit_burst"`
	// BeaconEndpoint is where embedded storefront clients send unload
	// flushes.
	BeaconEndpoint string `yaml:"beacon_endpoint" json:"beacon_endpoint"`
}

// LoadProfile loads a capture profile YAML by name from profilesDir.
func LoadProfile(profilesDir, name string) (*CaptureProfile, error) {
	name = strings.ToLower(name)
	path := filepath.Join(profilesDir, fmt.Sprintf("profile_%s.yaml", name))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load profile %q: %w", name, err)
	}

	var profile CaptureProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("parse profile %q: %w", name, err)
	}

	if profile.Name == "" {
		profile.Name = name
	}
	return &profile, nil
}

// Apply overlays the profile's settings onto cfg, leaving unset profile
// fields alone.
func (p *CaptureProfile) Apply(cfg *Config) {
	if p.DebounceWindowMs > 0 {
		cfg.DebounceWindow = time.Duration(p.DebounceWindowMs) * time.Millisecond
	}
	if p.RateLimitRPS > 0 {
		cfg.RateLimitRPS = p.RateLimitRPS
	}
	if p.RateLimitBurst > 0 {
		cfg.RateLimitBurst = p.RateLimitBurst
	}
	if p.BeaconEndpoint != "" {
		cfg.BeaconEndpoint = p.BeaconEndpoint
	}
}
