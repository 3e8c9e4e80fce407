package config

import (
	"os"
	"path/filepath"
	"testing"
)

// writeConfig drops a config file into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
target:
  ip: 192.168.1.10
  mac: aa:bb:cc:dd:ee:ff
ping_interval: 10
offline_threshold: 30
online_threshold: 90
heartbeat_interval: 600
log_file: /var/log/mon/device.log
slack:
  enabled: true
  webhook_url: https://hooks.slack.com/services/T000/B000/XXX
  channel: "#network"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Target.IP != "192.168.1.10" {
		t.Errorf("unexpected ip: %q", cfg.Target.IP)
	}
	if cfg.Target.MAC != "aa:bb:cc:dd:ee:ff" {
		t.Errorf("unexpected mac: %q", cfg.Target.MAC)
	}
	if cfg.PingInterval != 10 {
		t.Errorf("expected ping_interval 10, got %d", cfg.PingInterval)
	}
	if cfg.OfflineThreshold != 30 {
		t.Errorf("expected offline_threshold 30, got %d", cfg.OfflineThreshold)
	}
	if cfg.OnlineThreshold != 90 {
		t.Errorf("expected online_threshold 90, got %d", cfg.OnlineThreshold)
	}
	if cfg.HeartbeatInterval != 600 {
		t.Errorf("expected heartbeat_interval 600, got %d", cfg.HeartbeatInterval)
	}
	if cfg.LogFile != "/var/log/mon/device.log" {
		t.Errorf("unexpected log_file: %q", cfg.LogFile)
	}
	if !cfg.Slack.Enabled || cfg.Slack.Channel != "#network" {
		t.Errorf("unexpected slack config: %+v", cfg.Slack)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
target:
  ip: 192.168.1.10
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.PingInterval != DefaultPingInterval {
		t.Errorf("expected default ping_interval, got %d", cfg.PingInterval)
	}
	if cfg.OfflineThreshold != DefaultOfflineThreshold {
		t.Errorf("expected default offline_threshold, got %d", cfg.OfflineThreshold)
	}
	if cfg.OnlineThreshold != DefaultOnlineThreshold {
		t.Errorf("expected default online_threshold, got %d", cfg.OnlineThreshold)
	}
	if cfg.HeartbeatInterval != DefaultHeartbeatInterval {
		t.Errorf("expected default heartbeat_interval, got %d", cfg.HeartbeatInterval)
	}
	if cfg.LogFile != DefaultLogFile {
		t.Errorf("expected default log_file, got %q", cfg.LogFile)
	}
	if cfg.Slack.Enabled {
		t.Error("expected slack to default to disabled")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "target: [this is not\n  a mapping")
	_, err := Load(path)
	if err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestLoad_MissingTarget(t *testing.T) {
	path := writeConfig(t, `
ping_interval: 5
`)
	_, err := Load(path)
	if err == nil {
		t.Error("expected error when neither ip nor mac is set")
	}
}

func TestLoad_InvalidIP(t *testing.T) {
	path := writeConfig(t, `
target:
  ip: not.an.ip.addr
`)
	_, err := Load(path)
	if err == nil {
		t.Error("expected error for invalid ip")
	}
}

func TestLoad_MACOnly(t *testing.T) {
	path := writeConfig(t, `
target:
  mac: AA:BB:CC:DD:EE:FF
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Target.MAC != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("unexpected mac: %q", cfg.Target.MAC)
	}
}

func TestLoad_SlackEnabledWithoutURL(t *testing.T) {
	path := writeConfig(t, `
target:
  ip: 192.168.1.10
slack:
  enabled: true
`)
	_, err := Load(path)
	if err == nil {
		t.Error("expected error when slack is enabled without a webhook url")
	}
}

func TestLoad_EnvOverridesWebhookURL(t *testing.T) {
	t.Setenv(EnvWebhookURL, "https://hooks.slack.com/services/ENV/OVERRIDE")

	path := writeConfig(t, `
target:
  ip: 192.168.1.10
slack:
  enabled: true
  webhook_url: https://hooks.slack.com/services/FROM/FILE
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Slack.WebhookURL != "https://hooks.slack.com/services/ENV/OVERRIDE" {
		t.Errorf("expected env to override webhook url, got %q", cfg.Slack.WebhookURL)
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	os.Unsetenv(EnvWebhookURL)
	dir := t.TempDir()
	t.Chdir(dir)
	defer os.Unsetenv(EnvWebhookURL)

	if err := os.WriteFile(".env", []byte(EnvWebhookURL+"=https://hooks.slack.com/services/DOT/ENV\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile("config.yaml", []byte("target:\n  ip: 192.168.1.10\nslack:\n  enabled: true\n  webhook_url: https://hooks.slack.com/services/FROM/FILE\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("config.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Slack.WebhookURL != "https://hooks.slack.com/services/DOT/ENV" {
		t.Errorf("expected .env to supply webhook url, got %q", cfg.Slack.WebhookURL)
	}
}

func TestLoadMulti_ResolvesGlobals(t *testing.T) {
	path := writeConfig(t, `
global_ping_interval: 7
global_offline_threshold: 45
global_heartbeat_interval: 120
log_path: /var/log/mon
targets:
  - ip: 192.168.1.10
  - ip: 192.168.1.11
    ping_interval: 2
    offline_threshold: 15
    online_threshold: 30
`)

	cfg, err := LoadMulti(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(cfg.Targets))
	}

	first := cfg.Resolve(cfg.Targets[0])
	if first.PingInterval != 7 {
		t.Errorf("expected inherited ping_interval 7, got %d", first.PingInterval)
	}
	if first.OfflineThreshold != 45 {
		t.Errorf("expected inherited offline_threshold 45, got %d", first.OfflineThreshold)
	}
	if first.OnlineThreshold != DefaultOnlineThreshold {
		t.Errorf("expected default online_threshold, got %d", first.OnlineThreshold)
	}
	if first.HeartbeatInterval != 120 {
		t.Errorf("expected global heartbeat_interval 120, got %d", first.HeartbeatInterval)
	}
	if first.LogFile != "/var/log/mon/mon_192_168_1_10.log" {
		t.Errorf("unexpected log file: %q", first.LogFile)
	}

	second := cfg.Resolve(cfg.Targets[1])
	if second.PingInterval != 2 || second.OfflineThreshold != 15 || second.OnlineThreshold != 30 {
		t.Errorf("expected per-target overrides, got %+v", second)
	}
	if second.LogFile != "/var/log/mon/mon_192_168_1_11.log" {
		t.Errorf("unexpected log file: %q", second.LogFile)
	}
}

func TestLoadMulti_Defaults(t *testing.T) {
	path := writeConfig(t, `
targets:
  - ip: 10.0.0.2
`)

	cfg, err := LoadMulti(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GlobalPingInterval != DefaultPingInterval {
		t.Errorf("expected default global ping interval, got %d", cfg.GlobalPingInterval)
	}
	if cfg.LogPath != DefaultLogPath {
		t.Errorf("expected default log path, got %q", cfg.LogPath)
	}
}

func TestLoadMulti_NoTargets(t *testing.T) {
	path := writeConfig(t, `
global_ping_interval: 5
`)
	_, err := LoadMulti(path)
	if err == nil {
		t.Error("expected error for empty target list")
	}
}

func TestLoadMulti_TargetWithoutIP(t *testing.T) {
	path := writeConfig(t, `
targets:
  - mac: aa:bb:cc:dd:ee:ff
`)
	_, err := LoadMulti(path)
	if err == nil {
		t.Error("expected error for target without ip")
	}
}

func TestTargetEntry_Enabled(t *testing.T) {
	var e TargetEntry
	if !e.Enabled() {
		t.Error("expected entries to default to enabled")
	}

	off := false
	e.Enable = &off
	if e.Enabled() {
		t.Error("expected explicitly disabled entry to be off")
	}

	on := true
	e.Enable = &on
	if !e.Enabled() {
		t.Error("expected explicitly enabled entry to be on")
	}
}
