package config

import "fmt"

const defaultTelnetPort = 23

type Config struct {
	Listen      string `yaml:"listen"`
	MetricsPath string `yaml:"metrics_path"`
	// Interval is the pause between full device sweeps, in seconds.
	Interval float64  `yaml:"interval"`
	Devices  []Device `yaml:"devices"`
}

func DefaultConfig() Config {
	return Config{
		Listen:      ":8111",
		MetricsPath: "/metrics",
		Interval:    60,
	}
}

func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	*c = DefaultConfig()

	type plain Config
	if err := unmarshal((*plain)(c)); err != nil {
		return err
	}

	for i := range c.Devices {
		if c.Devices[i].Port == 0 {
			c.Devices[i].Port = defaultTelnetPort
		}
	}

	return nil
}

func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", c.Interval)
	}
	if len(c.Devices) == 0 {
		return fmt.Errorf("no devices configured")
	}
	for i := range c.Devices {
		if err := c.Devices[i].Validate(); err != nil {
			return fmt.Errorf("device %d: %w", i, err)
		}
	}
	return nil
}

// Device describes one telnet target. Built once at startup, read-only afterwards.
type Device struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Addr is the label value under which this device's metrics are published.
func (d Device) Addr() string {
	return d.Host
}

func (d Device) Validate() error {
	if d.Host == "" {
		return fmt.Errorf("host is required")
	}
	if d.Port < 1 || d.Port > 65535 {
		return fmt.Errorf("port %d out of range", d.Port)
	}
	if d.Username == "" {
		return fmt.Errorf("username is required")
	}
	if d.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}
