package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"
)

var (
	configReloadSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gpon_exporter",
		Name:      "config_last_reload_successful",
		Help:      "GPON exporter config loaded successfully.",
	})

	configReloadSeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gpon_exporter",
		Name:      "config_last_reload_success_timestamp_seconds",
		Help:      "Timestamp of the last successful configuration reload.",
	})
)

func init() {
	prometheus.MustRegister(configReloadSuccess)
	prometheus.MustRegister(configReloadSeconds)
}

type SafeConfig struct {
	sync.RWMutex
	configFile string
	c          *Config
}

func New(configFile string) SafeConfig {
	return SafeConfig{
		c:          &Config{},
		configFile: configFile,
	}
}

func (sc *SafeConfig) Get() *Config {
	sc.RLock()
	defer sc.RUnlock()
	return sc.c
}

// LoadConfig reads the YAML config file, or falls back to the GPON_*
// environment variables when no file was given. On error the previously
// loaded config stays active.
func (sc *SafeConfig) LoadConfig() (err error) {
	defer func() {
		if err != nil {
			configReloadSuccess.Set(0)
		} else {
			configReloadSuccess.Set(1)
			configReloadSeconds.SetToCurrentTime()
		}
	}()

	var c *Config
	if sc.configFile == "" {
		c, err = FromEnv()
	} else {
		c, err = loadFile(sc.configFile)
	}
	if err != nil {
		return err
	}

	if err = c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	sc.Lock()
	sc.c = c
	sc.Unlock()

	return nil
}

func loadFile(path string) (*Config, error) {
	c := &Config{}

	yamlReader, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	defer yamlReader.Close()
	decoder := yaml.NewDecoder(yamlReader)
	decoder.KnownFields(true)

	err = decoder.Decode(c)
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return c, nil
}

// FromEnv builds a config from the GPON_HOSTNAMES, GPON_PORTS, GPON_USERS and
// GPON_PASSWORDS lists (comma-separated, equal lengths; ports default to 23),
// plus GPON_WEBSERVER_PORT and GPON_FETCH_INTERVAL.
func FromEnv() (*Config, error) {
	c := DefaultConfig()

	hosts := splitEnvList(os.Getenv("GPON_HOSTNAMES"))
	users := splitEnvList(os.Getenv("GPON_USERS"))
	passwords := splitEnvList(os.Getenv("GPON_PASSWORDS"))

	if len(hosts) == 0 {
		return nil, fmt.Errorf("GPON_HOSTNAMES is required when no config file is given")
	}

	ports, err := parsePorts(os.Getenv("GPON_PORTS"), len(hosts))
	if err != nil {
		return nil, err
	}

	if len(users) != len(hosts) || len(passwords) != len(hosts) || len(ports) != len(hosts) {
		return nil, fmt.Errorf("GPON_HOSTNAMES, GPON_PORTS, GPON_USERS and GPON_PASSWORDS must have the same length")
	}

	for i := range hosts {
		c.Devices = append(c.Devices, Device{
			Host:     hosts[i],
			Port:     ports[i],
			Username: users[i],
			Password: passwords[i],
		})
	}

	if v := os.Getenv("GPON_WEBSERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid GPON_WEBSERVER_PORT: %w", err)
		}
		c.Listen = fmt.Sprintf(":%d", port)
	}

	if v := os.Getenv("GPON_FETCH_INTERVAL"); v != "" {
		interval, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid GPON_FETCH_INTERVAL: %w", err)
		}
		c.Interval = interval
	}

	return &c, nil
}

func splitEnvList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parsePorts(value string, count int) ([]int, error) {
	if value == "" {
		// Unset ports default to the telnet well-known port for every host.
		ports := make([]int, count)
		for i := range ports {
			ports[i] = defaultTelnetPort
		}
		return ports, nil
	}

	parts := splitEnvList(value)
	ports := make([]int, 0, len(parts))
	for _, part := range parts {
		port, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid port %q in GPON_PORTS: %w", part, err)
		}
		ports = append(ports, port)
	}
	return ports, nil
}
