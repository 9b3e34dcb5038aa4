package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dkeye/VoiceLink/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.EnableMic || cfg.EnableCam {
		t.Errorf("mic=%v cam=%v", cfg.EnableMic, cfg.EnableCam)
	}
	if cfg.Reconnect.BaseDelay != time.Second || cfg.Reconnect.MaxDelay != 30*time.Second || cfg.Reconnect.MaxRetries != 5 {
		t.Errorf("reconnect = %+v", cfg.Reconnect)
	}
	if cfg.PingPeriod != 30*time.Second {
		t.Errorf("ping period = %s", cfg.PingPeriod)
	}
	if cfg.ProtocolVersion != "1.0.0" {
		t.Errorf("protocol version = %q", cfg.ProtocolVersion)
	}
	if len(cfg.Devices) != 3 || cfg.Devices[0].Kind != domain.DeviceAudioInput {
		t.Errorf("devices = %+v", cfg.Devices)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	body := `
ws_url: ws://agent.local:9000/ws
enable_cam: true
reconnect:
  max_retries: 2
  base_delay: 500ms
devices:
  - id: usb
    kind: audioinput
    label: USB Mic
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("VOICELINK_LOG_LEVEL", "debug")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.WSURL != "ws://agent.local:9000/ws" || !cfg.EnableCam {
		t.Errorf("url=%q cam=%v", cfg.WSURL, cfg.EnableCam)
	}
	if cfg.Reconnect.MaxRetries != 2 || cfg.Reconnect.BaseDelay != 500*time.Millisecond {
		t.Errorf("reconnect = %+v", cfg.Reconnect)
	}
	if cfg.Reconnect.MaxDelay != 30*time.Second {
		t.Errorf("max delay default lost: %s", cfg.Reconnect.MaxDelay)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
	if len(cfg.Devices) != 1 || cfg.Devices[0].DeviceID != "usb" {
		t.Errorf("devices = %+v", cfg.Devices)
	}
}

func TestLoadFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.bad.yaml")
	if err := os.WriteFile(path, []byte("ws_url: [unclosed\nenable_mic: true\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if cfg, err := LoadFile(path); err == nil {
		t.Fatalf("expected parse error, got %+v", cfg)
	}
}
