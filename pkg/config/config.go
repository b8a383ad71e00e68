package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full device configuration, loaded once at startup.
type Config struct {
	Network   NetworkConfig   `yaml:"network"`
	Camera    CameraConfig    `yaml:"camera"`
	Server    ServerConfig    `yaml:"server"`
	Sensor    SensorConfig    `yaml:"sensor"`
	Alert     AlertConfig     `yaml:"alert"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// NetworkConfig holds the immutable credential pairs for the two logical
// networks. The client network is joined as a member; the access point is
// always started and never torn down once up.
type NetworkConfig struct {
	Client      Credentials `yaml:"client"`
	AccessPoint Credentials `yaml:"access_point"`
	Interface   string      `yaml:"interface"`
}

type Credentials struct {
	SSID       string `yaml:"ssid"`
	Passphrase string `yaml:"passphrase"`
}

type CameraConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	FPS    int `yaml:"fps"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type SensorConfig struct {
	// WaterGPIO is the chip line offset of an onboard water-level input.
	// Negative disables the GPIO watcher; sensor values then come only
	// from POST /update-sensor.
	WaterGPIO int    `yaml:"water_gpio"`
	GPIOChip  string `yaml:"gpio_chip"`
}

type AlertConfig struct {
	// SoundFile is a .wav or .mp3 played when the water sensor trips.
	// Empty disables the audible alarm.
	SoundFile string `yaml:"sound_file"`
}

type TelemetryConfig struct {
	// Endpoint of the OTLP gRPC collector. Empty disables metrics export.
	Endpoint string `yaml:"endpoint"`
}

// Load reads the YAML config at path and applies defaults and environment
// overrides. A missing file is not an error; the device then runs entirely
// on defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv lets deployment environments inject or override credentials
// without writing them into the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("STREAMCAM_CLIENT_SSID"); v != "" {
		c.Network.Client.SSID = v
	}
	if v := os.Getenv("STREAMCAM_CLIENT_PASSPHRASE"); v != "" {
		c.Network.Client.Passphrase = v
	}
	if v := os.Getenv("STREAMCAM_AP_SSID"); v != "" {
		c.Network.AccessPoint.SSID = v
	}
	if v := os.Getenv("STREAMCAM_AP_PASSPHRASE"); v != "" {
		c.Network.AccessPoint.Passphrase = v
	}
	if v := os.Getenv("STREAMCAM_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("STREAMCAM_OTEL_ENDPOINT"); v != "" {
		c.Telemetry.Endpoint = v
	}
}

func (c *Config) applyDefaults() {
	if c.Camera.Width == 0 {
		c.Camera.Width = 640
	}
	if c.Camera.Height == 0 {
		c.Camera.Height = 480
	}
	if c.Camera.FPS == 0 {
		c.Camera.FPS = 30
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Network.Interface == "" {
		c.Network.Interface = "wlan0"
	}
	if c.Network.AccessPoint.SSID == "" {
		c.Network.AccessPoint.SSID = "StreamCam-AP"
	}
	if c.Sensor.GPIOChip == "" {
		c.Sensor.GPIOChip = "gpiochip0"
	}
	if c.Sensor.WaterGPIO == 0 {
		c.Sensor.WaterGPIO = -1
	}
}

func (c *Config) validate() error {
	if c.Network.AccessPoint.Passphrase != "" && len(c.Network.AccessPoint.Passphrase) < 8 {
		return fmt.Errorf("access point passphrase must be at least 8 characters")
	}
	return nil
}
