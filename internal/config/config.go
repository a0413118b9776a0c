package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Record store.
	StoreDriver    string
	DatabaseURL    string
	DBMaxConns     int32
	DBQueryTimeout time.Duration
	StoreSeedFile  string

	// Outbound services.
	RestURI         string
	SOAPURI         string
	SOAPNamespace   string
	UpstreamTimeout time.Duration

	CORSAllowedOrigins []string

	// Access log publishing; disabled when no brokers are set.
	AccessLogBrokers []string
	AccessLogTopic   string
}

// AccessLogEnabled reports whether request events should be published to Kafka.
func (c *Config) AccessLogEnabled() bool {
	return len(c.AccessLogBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	queryTimeout, err := parseDuration("DB_QUERY_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	upstreamTimeout, err := parseDuration("UPSTREAM_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	maxConns, err := parseMaxConns()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		StoreDriver:    sharedcfg.EnvOrDefault("STORE_DRIVER", StoreDriverPostgres),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DBMaxConns:     maxConns,
		DBQueryTimeout: queryTimeout,
		StoreSeedFile:  os.Getenv("STORE_SEED_FILE"),

		RestURI:         strings.TrimRight(sharedcfg.EnvOrDefault("REST_URI", "https://catalog.data.gov"), "/"),
		SOAPURI:         sharedcfg.EnvOrDefault("SOAP_URI", "http://www.webservicex.net/TranslateService.asmx"),
		SOAPNamespace:   sharedcfg.EnvOrDefault("SOAP_NAMESPACE", "http://www.webservicex.net/"),
		UpstreamTimeout: upstreamTimeout,

		CORSAllowedOrigins: splitList(sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),

		AccessLogBrokers: parseAccessLogBrokers(),
		AccessLogTopic:   sharedcfg.EnvOrDefault("ACCESS_LOG_TOPIC", "gateway-access-log"),
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required when STORE_DRIVER is postgres")
		}
	case StoreDriverMemory:
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: must be %s or %s", cfg.StoreDriver, StoreDriverPostgres, StoreDriverMemory)
	}

	if err := requireAbsoluteURL("REST_URI", cfg.RestURI); err != nil {
		return nil, err
	}
	if err := requireAbsoluteURL("SOAP_URI", cfg.SOAPURI); err != nil {
		return nil, err
	}
	if cfg.SOAPNamespace == "" {
		return nil, errors.New("SOAP_NAMESPACE is required")
	}
	if cfg.AccessLogEnabled() && cfg.AccessLogTopic == "" {
		return nil, errors.New("ACCESS_LOG_TOPIC is required when ACCESS_LOG_BROKERS is set")
	}

	return cfg, nil
}

// parseDuration reads a positive duration.
func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseMaxConns() (int32, error) {
	s := sharedcfg.EnvOrDefault("DB_MAX_CONNS", "10")
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid DB_MAX_CONNS %q: must be a positive integer", s)
	}
	return int32(n), nil
}

func requireAbsoluteURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid %s %q: must be an absolute URL", key, raw)
	}
	return nil
}

func parseAccessLogBrokers() []string {
	raw := strings.TrimSpace(os.Getenv("ACCESS_LOG_BROKERS"))
	if raw == "" {
		return nil
	}
	return sharedcfg.ParseBrokers(raw)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
