// Package config loads the gateway configuration from environment
// variables and guards the live bus configuration, which can be replaced
// at runtime through the Configure RPC.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
)

// BusOptions are the parameters of the bus connection. They seed the bus
// adapter and are merged with Configure patches at runtime.
type BusOptions struct {
	BrokerURL         string
	Namespace         string
	IdentityName      string
	IdentityID        string
	Username          string
	Password          string
	TLSCert           string
	TLSKey            string
	VerifyServerCert  bool
	FailFastIfOffline bool
}

// Config is the process configuration. The bus options are the initial
// values only; the live values move into a Manager.
type Config struct {
	AppEnv            string
	LogLevel          string
	GRPCPort          int
	MetricsPort       int
	Bus               BusOptions
	ConsensusDBFolder string
}

// Load reads the configuration from the environment, filling defaults for
// everything absent. The agent id defaults to a fresh uuid per process.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:   getenv("APP_ENV", "development"),
		LogLevel: getenv("LOG_LEVEL", "info"),
		Bus: BusOptions{
			BrokerURL:    os.Getenv("TNC_BROKER_URL"),
			Namespace:    getenv("TNC_NAMESPACE", "tnc"),
			IdentityName: getenv("TNC_AGENT_NAME", "FlowPro Agent"),
			IdentityID:   getenv("TNC_AGENT_ID", uuid.NewString()),
			Username:     os.Getenv("TNC_BROKER_USERNAME"),
			Password:     os.Getenv("TNC_BROKER_PASSWORD"),
			TLSCert:      os.Getenv("TNC_TLS_CERT"),
			TLSKey:       os.Getenv("TNC_TLS_KEY"),
		},
	}

	var err error
	if cfg.GRPCPort, err = getenvInt("TNC_GRPC_PORT", 50060); err != nil {
		return nil, err
	}
	if cfg.MetricsPort, err = getenvInt("TNC_METRICS_PORT", 0); err != nil {
		return nil, err
	}
	if cfg.Bus.VerifyServerCert, err = getenvBool("TNC_VERIFY_SERVER_CERT", true); err != nil {
		return nil, err
	}
	if cfg.Bus.FailFastIfOffline, err = getenvBool("TNC_FAIL_FAST_IF_OFFLINE", true); err != nil {
		return nil, err
	}

	cfg.ConsensusDBFolder = os.Getenv("TNC_CONSENSUS_DB_FOLDER")
	if cfg.ConsensusDBFolder == "" {
		if cfg.ConsensusDBFolder, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("resolve consensus db folder: %w", err)
		}
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
