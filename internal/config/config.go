// Package config loads the server's YAML configuration file,
// mirroring config.rs's shape (each section has its own defaults; the
// file is unmarshalled over them, since gopkg.in/yaml.v3 does not run
// Default impls the way serde(default) does).
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Tracing controls the logging package's encoder choice.
type Tracing struct {
	JSON bool `yaml:"json"`
}

func defaultTracing() Tracing {
	return Tracing{JSON: true}
}

// Ingest configures the upstream event source. Endpoint/XToken mirror
// ConfigGrpc; this repo's FixtureSource also reads FixturePath when
// set, standing in for the gRPC Geyser stream the original dials.
type Ingest struct {
	Endpoint    string `yaml:"endpoint"`
	XToken      string `yaml:"xToken"`
	FixturePath string `yaml:"fixturePath"`
}

func defaultIngest() Ingest {
	return Ingest{Endpoint: "http://127.0.0.1:10000"}
}

// Listen configures the public RPC/WebSocket listener.
type Listen struct {
	Bind string `yaml:"bind"`
}

func defaultListen() Listen {
	return Listen{Bind: "127.0.0.1:9000"}
}

// ListenAdmin configures the admin listener (healthz/metrics), kept
// separate from the public listener per ConfigListenAdmin.
type ListenAdmin struct {
	Bind string `yaml:"bind"`
}

func defaultListenAdmin() ListenAdmin {
	return ListenAdmin{Bind: "127.0.0.1:8000"}
}

// Request bounds the JSON-RPC request multiplexer (spec.md §4.5/§5).
type Request struct {
	CallsMax          int `yaml:"callsMax"`
	TimeoutSeconds    int `yaml:"timeoutSeconds"`
	QueueCapacity     int `yaml:"queueCapacity"`
	StreamsBufferSize int `yaml:"streamsBufferSize"`
}

func defaultRequest() Request {
	return Request{CallsMax: 10, TimeoutSeconds: 10, QueueCapacity: 1024, StreamsBufferSize: 1024}
}

// Config is the top-level server configuration.
type Config struct {
	Tracing     Tracing     `yaml:"tracing"`
	Ingest      Ingest      `yaml:"ingest"`
	Listen      Listen      `yaml:"listen"`
	ListenAdmin ListenAdmin `yaml:"listenAdmin"`
	Request     Request     `yaml:"request"`
}

// Default returns a Config populated the way each field's Rust
// counterpart's Default impl would.
func Default() Config {
	return Config{
		Tracing:     defaultTracing(),
		Ingest:      defaultIngest(),
		Listen:      defaultListen(),
		ListenAdmin: defaultListenAdmin(),
		Request:     defaultRequest(),
	}
}

// Load reads and parses path, applying defaults to any section the
// file omits entirely.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// ResolveBind resolves a bind value the way the original's
// deserialize_listen does: a literal "host:port" address, a bare port
// number (binds all interfaces), or "$ENV_VAR" read from the
// environment and interpreted as either shape in turn.
func ResolveBind(value string) (string, error) {
	if len(value) > 1 && value[0] == '$' {
		envVal, ok := os.LookupEnv(value[1:])
		if !ok {
			return "", fmt.Errorf("environment variable %s is not set", value[1:])
		}
		value = envVal
	}

	if _, _, err := net.SplitHostPort(value); err == nil {
		return value, nil
	}
	if port, err := strconv.Atoi(value); err == nil {
		return fmt.Sprintf("0.0.0.0:%d", port), nil
	}
	return "", fmt.Errorf("invalid bind address: %q", value)
}
