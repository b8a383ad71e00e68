package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaultsForMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file must not be an error: %v", err)
	}
	if cfg.Camera.Width != 640 || cfg.Camera.Height != 480 || cfg.Camera.FPS != 30 {
		t.Errorf("camera defaults wrong: %+v", cfg.Camera)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("server default wrong: %q", cfg.Server.Addr)
	}
	if cfg.Network.Interface != "wlan0" || cfg.Network.AccessPoint.SSID != "StreamCam-AP" {
		t.Errorf("network defaults wrong: %+v", cfg.Network)
	}
	if cfg.Sensor.WaterGPIO != -1 {
		t.Errorf("water gpio must default to disabled, got %d", cfg.Sensor.WaterGPIO)
	}
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
network:
  client:
    ssid: home-net
    passphrase: secret123
  access_point:
    ssid: cam-ap
    passphrase: fallback1
  interface: wlan1
camera:
  width: 1280
  height: 720
sensor:
  water_gpio: 17
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Network.Client.SSID != "home-net" || cfg.Network.Client.Passphrase != "secret123" {
		t.Errorf("client credentials wrong: %+v", cfg.Network.Client)
	}
	if cfg.Network.Interface != "wlan1" {
		t.Errorf("interface wrong: %q", cfg.Network.Interface)
	}
	if cfg.Camera.Width != 1280 || cfg.Camera.Height != 720 {
		t.Errorf("camera config wrong: %+v", cfg.Camera)
	}
	if cfg.Camera.FPS != 30 {
		t.Errorf("unset fps must default, got %d", cfg.Camera.FPS)
	}
	if cfg.Sensor.WaterGPIO != 17 {
		t.Errorf("water gpio wrong: %d", cfg.Sensor.WaterGPIO)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("network:\n  client:\n    ssid: from-file\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("STREAMCAM_CLIENT_SSID", "from-env")
	t.Setenv("STREAMCAM_ADDR", ":9000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Network.Client.SSID != "from-env" {
		t.Errorf("env must override file, got %q", cfg.Network.Client.SSID)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("addr env override failed: %q", cfg.Server.Addr)
	}
}

func TestLoadRejectsShortAPPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("network:\n  access_point:\n    passphrase: short\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for a passphrase under 8 characters")
	}
}
