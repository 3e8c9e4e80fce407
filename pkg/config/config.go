// Package config loads the monitor configuration from YAML files.
//
// Two layouts exist: a single-target file for one monitor and a
// multi-target file that shares global defaults across a fleet of
// monitors. All intervals and thresholds are plain seconds.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults applied when a value is absent or non-positive.
const (
	DefaultPingInterval      = 5
	DefaultOfflineThreshold  = 60
	DefaultOnlineThreshold   = 60
	DefaultHeartbeatInterval = 300
	DefaultLogFile           = "monitor.log"
	DefaultLogPath           = "./logs"
)

// EnvWebhookURL overrides the configured Slack webhook URL, so the secret
// can stay out of the config file.
const EnvWebhookURL = "SLACK_WEBHOOK_URL"

// Target identifies the monitored device. At least one of IP and MAC must
// be set. When both are set the MAC is probed via the ARP table and the
// IP is pinged first to refresh it.
type Target struct {
	IP  string `yaml:"ip"`
	MAC string `yaml:"mac"`
}

// Slack configures the notification webhook.
type Slack struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
	Channel    string `yaml:"channel"`
}

// Config is the effective configuration of one monitor.
type Config struct {
	Target            Target `yaml:"target"`
	PingInterval      int    `yaml:"ping_interval"`
	OfflineThreshold  int    `yaml:"offline_threshold"`
	OnlineThreshold   int    `yaml:"online_threshold"`
	HeartbeatInterval int    `yaml:"heartbeat_interval"`
	LogFile           string `yaml:"log_file"`
	Slack             Slack  `yaml:"slack"`
}

// Load reads and validates a single-target configuration file.
func Load(path string) (*Config, error) {
	loadDotEnv()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	applyEnv(&cfg.Slack)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.PingInterval <= 0 {
		c.PingInterval = DefaultPingInterval
	}
	if c.OfflineThreshold <= 0 {
		c.OfflineThreshold = DefaultOfflineThreshold
	}
	if c.OnlineThreshold <= 0 {
		c.OnlineThreshold = DefaultOnlineThreshold
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.LogFile == "" {
		c.LogFile = DefaultLogFile
	}
}

func (c *Config) validate() error {
	if c.Target.IP == "" && c.Target.MAC == "" {
		return fmt.Errorf("config: target requires an ip or a mac address")
	}
	if c.Target.IP != "" && net.ParseIP(c.Target.IP) == nil {
		return fmt.Errorf("config: invalid target ip %q", c.Target.IP)
	}
	if c.Slack.Enabled && c.Slack.WebhookURL == "" {
		return fmt.Errorf("config: slack is enabled but no webhook url is set")
	}
	return nil
}

// TargetEntry is one device in a multi-target configuration. Zero fields
// fall back to the global values.
type TargetEntry struct {
	IP               string `yaml:"ip"`
	MAC              string `yaml:"mac"`
	Enable           *bool  `yaml:"enable"`
	PingInterval     int    `yaml:"ping_interval"`
	OfflineThreshold int    `yaml:"offline_threshold"`
	OnlineThreshold  int    `yaml:"online_threshold"`
}

// Enabled reports whether the entry should be monitored. Entries are
// enabled unless explicitly switched off.
func (t TargetEntry) Enabled() bool {
	return t.Enable == nil || *t.Enable
}

// MultiConfig is the multi-target configuration: a list of devices plus
// the global defaults they inherit.
type MultiConfig struct {
	Targets                 []TargetEntry `yaml:"targets"`
	GlobalPingInterval      int           `yaml:"global_ping_interval"`
	GlobalOfflineThreshold  int           `yaml:"global_offline_threshold"`
	GlobalHeartbeatInterval int           `yaml:"global_heartbeat_interval"`
	LogPath                 string        `yaml:"log_path"`
	Slack                   Slack         `yaml:"slack"`
}

// LoadMulti reads and validates a multi-target configuration file.
func LoadMulti(path string) (*MultiConfig, error) {
	loadDotEnv()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg MultiConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if cfg.GlobalPingInterval <= 0 {
		cfg.GlobalPingInterval = DefaultPingInterval
	}
	if cfg.GlobalOfflineThreshold <= 0 {
		cfg.GlobalOfflineThreshold = DefaultOfflineThreshold
	}
	if cfg.GlobalHeartbeatInterval <= 0 {
		cfg.GlobalHeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.LogPath == "" {
		cfg.LogPath = DefaultLogPath
	}
	applyEnv(&cfg.Slack)

	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("config: at least one target is required")
	}
	for i, t := range cfg.Targets {
		if t.IP == "" {
			return nil, fmt.Errorf("config: target %d has no ip", i)
		}
		if net.ParseIP(t.IP) == nil {
			return nil, fmt.Errorf("config: target %d has invalid ip %q", i, t.IP)
		}
	}
	if cfg.Slack.Enabled && cfg.Slack.WebhookURL == "" {
		return nil, fmt.Errorf("config: slack is enabled but no webhook url is set")
	}

	return &cfg, nil
}

// Resolve flattens one target entry into its effective single-target
// configuration. The per-target log file lives under LogPath and is named
// after the IP, dots replaced by underscores.
func (m *MultiConfig) Resolve(t TargetEntry) Config {
	cfg := Config{
		Target:            Target{IP: t.IP, MAC: t.MAC},
		PingInterval:      t.PingInterval,
		OfflineThreshold:  t.OfflineThreshold,
		OnlineThreshold:   t.OnlineThreshold,
		HeartbeatInterval: m.GlobalHeartbeatInterval,
		LogFile:           filepath.Join(m.LogPath, logName(t.IP)),
		Slack:             m.Slack,
	}

	if cfg.PingInterval <= 0 {
		cfg.PingInterval = m.GlobalPingInterval
	}
	if cfg.OfflineThreshold <= 0 {
		cfg.OfflineThreshold = m.GlobalOfflineThreshold
	}
	if cfg.OnlineThreshold <= 0 {
		cfg.OnlineThreshold = DefaultOnlineThreshold
	}

	return cfg
}

func logName(ip string) string {
	return "mon_" + strings.ReplaceAll(ip, ".", "_") + ".log"
}

// applyEnv lets the environment override the webhook secret.
func applyEnv(s *Slack) {
	if v := os.Getenv(EnvWebhookURL); v != "" {
		s.WebhookURL = v
	}
}

// loadDotEnv pulls a .env file from the working directory into the
// environment when one exists. Variables already set win.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
}
