// Package config loads the i2c-helper YAML configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mbalug7/go-i2c-helper/pkg/hal"
)

const (
	TransportPeriph = "periph"
	TransportBridge = "bridge"

	BackendGPIOD  = "gpiod"
	BackendPeriph = "periph"
)

type Config struct {
	Transport string         `yaml:"transport"` // periph or bridge
	Bus       string         `yaml:"bus"`       // periph bus name, empty selects the first bus
	Bridge    BridgeConfig   `yaml:"bridge"`
	Device    DeviceConfig   `yaml:"device"`
	Recovery  RecoveryConfig `yaml:"recovery"`
	LogLevel  string         `yaml:"log_level"`
}

// BridgeConfig describes the serial port of a UART to I2C bridge.
type BridgeConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

type DeviceConfig struct {
	Address uint8 `yaml:"address"`
}

// RecoveryConfig selects the pins used to clear a stuck bus at startup.
// With the gpiod backend SDA and SCL are line offsets on Chip, with the
// periph backend they are pin names. Empty SDA and SCL on the periph backend
// use the pins of the configured bus.
type RecoveryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Backend string `yaml:"backend"`
	Chip    string `yaml:"chip"`
	SDA     string `yaml:"sda"`
	SCL     string `yaml:"scl"`
	Settle  string `yaml:"settle"` // e.g. "2.5s"
}

func Default() *Config {
	return &Config{
		Transport: TransportPeriph,
		Bridge: BridgeConfig{
			Port: "/dev/ttyUSB0",
			Baud: 9600,
		},
		Device: DeviceConfig{
			Address: 0x42,
		},
		Recovery: RecoveryConfig{
			Backend: BackendGPIOD,
			Chip:    "gpiochip0",
			SDA:     "2",
			SCL:     "3",
			Settle:  "2.5s",
		},
		LogLevel: "info",
	}
}

// Load reads the YAML file at path, fills in defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	applyDefaults(&c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func applyDefaults(c *Config) {
	d := Default()
	if c.Transport == "" {
		c.Transport = d.Transport
	}
	if c.Bridge.Port == "" {
		c.Bridge.Port = d.Bridge.Port
	}
	if c.Bridge.Baud == 0 {
		c.Bridge.Baud = d.Bridge.Baud
	}
	if c.Device.Address == 0 {
		c.Device.Address = d.Device.Address
	}
	if c.Recovery.Backend == "" {
		c.Recovery.Backend = d.Recovery.Backend
	}
	if c.Recovery.Backend == BackendGPIOD {
		if c.Recovery.Chip == "" {
			c.Recovery.Chip = d.Recovery.Chip
		}
		if c.Recovery.SDA == "" && c.Recovery.SCL == "" {
			c.Recovery.SDA, c.Recovery.SCL = d.Recovery.SDA, d.Recovery.SCL
		}
	}
	if c.Recovery.Settle == "" {
		c.Recovery.Settle = d.Recovery.Settle
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

func (c *Config) Validate() error {
	switch c.Transport {
	case TransportPeriph, TransportBridge:
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if !hal.DeviceAddress(c.Device.Address).Valid() {
		return fmt.Errorf("device address 0x%02X does not fit in 7 bits", c.Device.Address)
	}
	if c.Transport == TransportBridge && c.Bridge.Baud <= 0 {
		return fmt.Errorf("invalid bridge baud rate %d", c.Bridge.Baud)
	}
	if _, err := c.Recovery.SettleDelay(); err != nil {
		return err
	}
	switch c.Recovery.Backend {
	case BackendGPIOD:
		if _, _, err := c.Recovery.LineOffsets(); err != nil {
			return err
		}
	case BackendPeriph:
		if (c.Recovery.SDA == "") != (c.Recovery.SCL == "") {
			return fmt.Errorf("recovery pins must be given together, got sda %q scl %q", c.Recovery.SDA, c.Recovery.SCL)
		}
	default:
		return fmt.Errorf("unknown recovery backend %q", c.Recovery.Backend)
	}
	return nil
}

// DeviceAddress returns the configured peripheral address.
func (c *Config) DeviceAddress() hal.DeviceAddress {
	return hal.DeviceAddress(c.Device.Address)
}

func (obj RecoveryConfig) SettleDelay() (time.Duration, error) {
	d, err := time.ParseDuration(obj.Settle)
	if err != nil {
		return 0, fmt.Errorf("failed to parse recovery settle delay: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative recovery settle delay %s", d)
	}
	return d, nil
}

// LineOffsets returns SDA and SCL as gpiod line offsets.
func (obj RecoveryConfig) LineOffsets() (sda int, scl int, err error) {
	sda, err = strconv.Atoi(obj.SDA)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid sda line offset %q: %w", obj.SDA, err)
	}
	scl, err = strconv.Atoi(obj.SCL)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid scl line offset %q: %w", obj.SCL, err)
	}
	if sda == scl {
		return 0, 0, fmt.Errorf("sda and scl share line offset %d", sda)
	}
	return sda, scl, nil
}
