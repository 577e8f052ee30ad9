// Package config loads the YAML configuration that binds a podexchange
// run to a specific Pod and radio adapter, following the retrieved
// teacher's use of gopkg.in/yaml.v3 for its device-identification table.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration document.
type Config struct {
	Pod    PodConfig    `yaml:"pod"`
	Radio  RadioConfig  `yaml:"radio"`
	Log    LogConfig    `yaml:"log"`
	Resume ResumeConfig `yaml:"resume"`
}

// PodConfig identifies the paired Pod.
type PodConfig struct {
	// AddressHex is the Pod's 32-bit radio address, typically written in
	// config as a hex string like "0x1F00EE01".
	AddressHex string `yaml:"address"`
}

// RadioConfig selects and configures a radio.Driver implementation.
type RadioConfig struct {
	// Driver selects which radio/* implementation to use: "serial" or
	// "netbridge". cmd/podexchange rejects any other value, including
	// "simulator".
	Driver string `yaml:"driver"`

	// SerialDevice is the device path for the "serial" driver, e.g.
	// "/dev/ttyUSB0". Left empty to auto-discover via radio/usbdiscover.
	SerialDevice string `yaml:"serial_device"`

	// ResetGPIOChip and ResetGPIOLine optionally identify a GPIO reset
	// line to pulse via radio/gpioreset before opening the serial driver.
	ResetGPIOChip string `yaml:"reset_gpio_chip"`
	ResetGPIOLine int    `yaml:"reset_gpio_line"`

	// BridgeServiceName is the DNS-SD service name to browse for when
	// Driver is "netbridge"; empty means browse for any instance.
	BridgeServiceName string `yaml:"bridge_service_name"`
	// BridgeDiscoveryTimeout bounds how long to browse before giving up.
	BridgeDiscoveryTimeout time.Duration `yaml:"bridge_discovery_timeout"`
}

// LogConfig configures applog.
type LogConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

// ResumeConfig seeds the exchange engine's counters to resume a prior
// conversation, per spec.md §3's lifecycle note that the engine accepts
// optional seed values.
type ResumeConfig struct {
	MessageSequence *uint8 `yaml:"message_sequence"`
	PacketSequence  *uint8 `yaml:"packet_sequence"`
}

// Load reads and parses the YAML document at path, applying defaults for
// unset fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg := &Config{
		Radio: RadioConfig{
			Driver:                 "serial",
			BridgeDiscoveryTimeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
