package observability

import (
	"os"
	"strconv"
	"strings"

	"github.com/dunamis-edu/dunamis/internal/config"
)

// Config holds observability configuration derived from environment variables.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
}

func LoadConfig(app config.Config) Config {
	return Config{
		ServiceName: app.AppName,
		Environment: app.Environment,
		Version:     app.AppVersion,

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "json"),

		OtelEnabled:          getenvBool("OTEL_ENABLED", false),
		OtelExporterEndpoint: strings.TrimSpace(getenv("OTEL_EXPORTER_ENDPOINT", "")),
		OtelExporterProtocol: strings.ToLower(getenv("OTEL_EXPORTER_PROTOCOL", "grpc")),
	}
}

func (c Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "debug") || c.Environment == "development"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return parsed
}
