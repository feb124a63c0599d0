package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type appConfig struct {
	backend         string
	i2cDev          string
	i2cAddr         uint16
	serialDev       string
	baud            int
	serialReadTO    time.Duration
	listenAddr      string
	logFormat       string
	logLevel        string
	metricsAddr     string
	logMetricsEvery time.Duration
	maxClients      int
	clientReadTO    time.Duration
	maxFrame        int
	mdnsEnable      bool
	mdnsName        string
}

func parseFlags() (*appConfig, bool) {
	cfg := &appConfig{}
	backend := flag.String("backend", "i2c", "Device backend: i2c|serial")
	i2cDev := flag.String("i2c-dev", "/dev/i2c-1", "I2C bus device path")
	i2cAddr := flag.String("i2c-addr", "0x17", "I2C device address")
	serialDev := flag.String("serial", "/dev/ttyUSB0", "Serial device path (when --backend=serial)")
	baud := flag.Int("baud", 9600, "Serial baud rate")
	serialReadTO := flag.Duration("serial-read-timeout", 50*time.Millisecond, "Serial read timeout")
	listen := flag.String("listen", ":20100", "TCP listen address")
	logFormat := flag.String("log-format", "text", "Log format: text|json")
	logLevel := flag.String("log-level", "info", "Log level: debug|info|warn|error")
	metricsAddr := flag.String("metrics-addr", "", "Metrics HTTP listen address (e.g., :9100); empty disables")
	logMetricsEvery := flag.Duration("log-metrics-interval", 0, "If >0, periodically log metrics counters (for non-Prometheus setups)")
	maxClients := flag.Int("max-clients", 0, "Maximum simultaneous TCP clients (0 = unlimited)")
	clientReadTO := flag.Duration("client-read-timeout", 60*time.Second, "Per-connection read deadline")
	maxFrame := flag.Int("max-frame", 16*1024, "Maximum accepted request frame size in bytes")
	mdnsEnable := flag.Bool("mdns-enable", false, "Enable mDNS/Avahi advertisement")
	mdnsName := flag.String("mdns-name", "", "mDNS instance name (default note-gateway-<hostname>)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	// Track which flags were explicitly set to give them precedence over env.
	setFlags := map[string]struct{}{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = struct{}{} })
	cfg.backend = *backend
	cfg.i2cDev = *i2cDev
	cfg.serialDev = *serialDev
	cfg.baud = *baud
	cfg.serialReadTO = *serialReadTO
	cfg.listenAddr = *listen
	cfg.logFormat = *logFormat
	cfg.logLevel = *logLevel
	cfg.metricsAddr = *metricsAddr
	cfg.logMetricsEvery = *logMetricsEvery
	cfg.maxClients = *maxClients
	cfg.clientReadTO = *clientReadTO
	cfg.maxFrame = *maxFrame
	cfg.mdnsEnable = *mdnsEnable
	cfg.mdnsName = *mdnsName

	addr, err := parseI2CAddr(*i2cAddr)
	if err != nil {
		fmt.Printf("configuration error: %v\n", err)
		return nil, *showVersion
	}
	cfg.i2cAddr = addr

	if err := applyEnvOverrides(cfg, setFlags); err != nil {
		fmt.Printf("environment override error: %v\n", err)
		return nil, *showVersion
	}
	if err := cfg.validate(); err != nil {
		fmt.Printf("configuration error: %v\n", err)
		return nil, *showVersion
	}
	return cfg, *showVersion
}

// parseI2CAddr accepts decimal or 0x-prefixed 7-bit addresses.
func parseI2CAddr(s string) (uint16, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid i2c-addr %q: %w", s, err)
	}
	if n == 0 || n > 0x7F {
		return 0, fmt.Errorf("i2c-addr out of 7-bit range: 0x%X", n)
	}
	return uint16(n), nil
}

// validate performs basic semantic validation of the parsed configuration.
// It does not attempt to open devices or listeners – only checks values/ranges.
func (c *appConfig) validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	switch c.logFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log-format: %s", c.logFormat)
	}
	switch c.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level: %s", c.logLevel)
	}
	switch c.backend {
	case "i2c", "serial":
	default:
		return fmt.Errorf("invalid backend: %s", c.backend)
	}
	if c.i2cAddr == 0 || c.i2cAddr > 0x7F {
		return fmt.Errorf("i2c-addr out of 7-bit range: 0x%X", c.i2cAddr)
	}
	if c.baud <= 0 {
		return fmt.Errorf("baud must be > 0 (got %d)", c.baud)
	}
	if c.serialReadTO <= 0 {
		return fmt.Errorf("serial-read-timeout must be > 0")
	}
	if c.clientReadTO <= 0 {
		return fmt.Errorf("client-read-timeout must be > 0")
	}
	if c.maxClients < 0 {
		return fmt.Errorf("max-clients must be >= 0")
	}
	if c.maxFrame < 32 {
		return fmt.Errorf("max-frame must be >= 32 (got %d)", c.maxFrame)
	}
	return nil
}

// applyEnvOverrides maps NOTE_GATEWAY_* environment variables to config
// fields unless a corresponding flag was explicitly set. Empty values are
// ignored, except NOTE_GATEWAY_METRICS, where an empty value clears the
// metrics address. Durations accept Go time.ParseDuration format.
func applyEnvOverrides(c *appConfig, set map[string]struct{}) error {
	var firstErr error
	get := func(k string) (string, bool) { v, ok := os.LookupEnv(k); return strings.TrimSpace(v), ok }
	if _, ok := set["backend"]; !ok {
		if v, ok := get("NOTE_GATEWAY_BACKEND"); ok && v != "" {
			c.backend = v
		}
	}
	if _, ok := set["i2c-dev"]; !ok {
		if v, ok := get("NOTE_GATEWAY_I2C_DEV"); ok && v != "" {
			c.i2cDev = v
		}
	}
	if _, ok := set["i2c-addr"]; !ok {
		if v, ok := get("NOTE_GATEWAY_I2C_ADDR"); ok && v != "" {
			if addr, err := parseI2CAddr(v); err == nil {
				c.i2cAddr = addr
			} else if firstErr == nil {
				firstErr = fmt.Errorf("invalid NOTE_GATEWAY_I2C_ADDR: %w", err)
			}
		}
	}
	if _, ok := set["serial"]; !ok {
		if v, ok := get("NOTE_GATEWAY_SERIAL"); ok && v != "" {
			c.serialDev = v
		}
	}
	if _, ok := set["baud"]; !ok {
		if v, ok := get("NOTE_GATEWAY_BAUD"); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				c.baud = n
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid NOTE_GATEWAY_BAUD: %w", err)
			}
		}
	}
	if _, ok := set["serial-read-timeout"]; !ok {
		if v, ok := get("NOTE_GATEWAY_SERIAL_READ_TIMEOUT"); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil && d > 0 {
				c.serialReadTO = d
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid NOTE_GATEWAY_SERIAL_READ_TIMEOUT: %w", err)
			}
		}
	}
	if _, ok := set["listen"]; !ok {
		if v, ok := get("NOTE_GATEWAY_LISTEN"); ok && v != "" {
			c.listenAddr = v
		}
	}
	if _, ok := set["log-format"]; !ok {
		if v, ok := get("NOTE_GATEWAY_LOG_FORMAT"); ok && v != "" {
			c.logFormat = v
		}
	}
	if _, ok := set["log-level"]; !ok {
		if v, ok := get("NOTE_GATEWAY_LOG_LEVEL"); ok && v != "" {
			c.logLevel = v
		}
	}
	if _, ok := set["metrics-addr"]; !ok {
		if v, ok := get("NOTE_GATEWAY_METRICS"); ok {
			c.metricsAddr = v
		}
	}
	if _, ok := set["log-metrics-interval"]; !ok {
		if v, ok := get("NOTE_GATEWAY_LOG_METRICS_INTERVAL"); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil && d >= 0 {
				c.logMetricsEvery = d
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid NOTE_GATEWAY_LOG_METRICS_INTERVAL: %w", err)
			}
		}
	}
	if _, ok := set["max-clients"]; !ok {
		if v, ok := get("NOTE_GATEWAY_MAX_CLIENTS"); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				c.maxClients = n
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid NOTE_GATEWAY_MAX_CLIENTS: %w", err)
			}
		}
	}
	if _, ok := set["client-read-timeout"]; !ok {
		if v, ok := get("NOTE_GATEWAY_CLIENT_READ_TIMEOUT"); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil && d > 0 {
				c.clientReadTO = d
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid NOTE_GATEWAY_CLIENT_READ_TIMEOUT: %w", err)
			}
		}
	}
	if _, ok := set["max-frame"]; !ok {
		if v, ok := get("NOTE_GATEWAY_MAX_FRAME"); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				c.maxFrame = n
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid NOTE_GATEWAY_MAX_FRAME: %w", err)
			}
		}
	}
	if _, ok := set["mdns-enable"]; !ok {
		if v, ok := get("NOTE_GATEWAY_MDNS_ENABLE"); ok && v != "" {
			switch strings.ToLower(v) {
			case "1", "true", "yes", "on":
				c.mdnsEnable = true
			case "0", "false", "no", "off":
				c.mdnsEnable = false
			}
		}
	}
	if _, ok := set["mdns-name"]; !ok {
		if v, ok := get("NOTE_GATEWAY_MDNS_NAME"); ok && v != "" {
			c.mdnsName = v
		}
	}
	return firstErr
}
