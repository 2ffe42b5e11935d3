// Package config defines cellroute's process configuration. Every field
// can be set by environment variable or command-line flag, with flags
// taking precedence.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds every process tunable. Env vars are read before flags are
// parsed, so an explicit flag always wins over an inherited environment
// value.
type Config struct {
	Cluster          string
	IP               string
	ModemHost        string
	ModemTimeoutSecs int

	PortAPI        int
	PortSOCKS5     int
	PortPrometheus int

	PrometheusUsername string
	PrometheusPassword string

	IfacePrefixes        []string
	ControlIfacePrefixes []string
}

const (
	DefaultCluster        = "ua-1"
	DefaultIP             = "127.0.0.1"
	DefaultModemHost      = "192.168.8.1"
	DefaultModemTimeout   = 30
	DefaultPortAPI        = 4444
	DefaultPortSOCKS5     = 7777
	DefaultPortPrometheus = 8888
)

// Parse builds a Config from environment variables and then command-line
// flags (flags take precedence over env, env takes precedence over the
// defaults above). args is normally os.Args[1:].
func Parse(args []string) (Config, error) {
	fs := flag.NewFlagSet("cellroute", flag.ContinueOnError)

	cfg := Config{
		Cluster:              envOr("CLUSTER", DefaultCluster),
		IP:                   envOr("IP", DefaultIP),
		ModemHost:            envOr("IP_MODEM_API", DefaultModemHost),
		ModemTimeoutSecs:     envOrInt("MODEM_TIMEOUT_SECS", DefaultModemTimeout),
		PortAPI:              envOrInt("PORT_API", DefaultPortAPI),
		PortSOCKS5:           envOrInt("PORT_SOCKS5", DefaultPortSOCKS5),
		PortPrometheus:       envOrInt("PORT_PROMETHEUS", DefaultPortPrometheus),
		PrometheusUsername:   envOr("PROMETHEUS_USERNAME", ""),
		PrometheusPassword:   envOr("PROMETHEUS_PASSWORD", ""),
		IfacePrefixes:        envOrList("IFACE_PREFIXES", []string{"enx"}),
		ControlIfacePrefixes: envOrList("CONTROL_IFACE_PREFIXES", []string{"enx", "ppp", "wwan"}),
	}

	fs.StringVar(&cfg.Cluster, "cluster", cfg.Cluster, "cluster tag attached to logs and metrics")
	fs.StringVar(&cfg.IP, "ip", cfg.IP, "host IP label attached to logs and metrics")
	fs.StringVar(&cfg.ModemHost, "modem-host", cfg.ModemHost, "modem web interface host:port or host")
	fs.IntVar(&cfg.ModemTimeoutSecs, "modem-timeout-secs", cfg.ModemTimeoutSecs, "per-request timeout for modem HTTP calls, in seconds")
	fs.IntVar(&cfg.PortAPI, "port-api", cfg.PortAPI, "Control API listen port")
	fs.IntVar(&cfg.PortSOCKS5, "port-socks5", cfg.PortSOCKS5, "SOCKS5 listen port")
	fs.IntVar(&cfg.PortPrometheus, "port-prometheus", cfg.PortPrometheus, "Prometheus metrics listen port")
	fs.StringVar(&cfg.PrometheusUsername, "prometheus-username", cfg.PrometheusUsername, "HTTP Basic auth username for /metrics (empty disables auth)")
	fs.StringVar(&cfg.PrometheusPassword, "prometheus-password", cfg.PrometheusPassword, "HTTP Basic auth password for /metrics (empty disables auth)")

	var ifacePrefixesFlag, controlIfacePrefixesFlag string
	fs.StringVar(&ifacePrefixesFlag, "iface-prefixes", strings.Join(cfg.IfacePrefixes, ","), "comma-separated interface name prefixes offered as SOCKS5 egress choices")
	fs.StringVar(&controlIfacePrefixesFlag, "control-iface-prefixes", strings.Join(cfg.ControlIfacePrefixes, ","), "comma-separated interface name prefixes admitted by the Control API (independent of -iface-prefixes)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.IfacePrefixes = splitList(ifacePrefixesFlag)
	cfg.ControlIfacePrefixes = splitList(controlIfacePrefixesFlag)

	return cfg, nil
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envOrInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envOrList(key string, def []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	return splitList(v)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SOCKS5Addr returns the bind address for the SOCKS5 listener.
func (c Config) SOCKS5Addr() string { return fmt.Sprintf("0.0.0.0:%d", c.PortSOCKS5) }

// APIAddr returns the bind address for the Control API listener.
func (c Config) APIAddr() string { return fmt.Sprintf("0.0.0.0:%d", c.PortAPI) }

// PrometheusAddr returns the bind address for the metrics listener.
func (c Config) PrometheusAddr() string { return fmt.Sprintf("0.0.0.0:%d", c.PortPrometheus) }
