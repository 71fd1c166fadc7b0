package config

import (
	"errors"
	"time"

	"github.com/DIMO-Network/shared/pkg/db"
)

const (
	// StoreBackendFile keeps one JSON file per account in AccountsDir.
	StoreBackendFile = "file"
	// StoreBackendPostgres keeps accounts in the accounts table.
	StoreBackendPostgres = "postgres"

	defaultPort           = 5000
	defaultMonPort        = 8888
	defaultLogLevel       = "info"
	defaultServiceName    = "webhook-router"
	defaultAccountsDir    = "."
	defaultForwardTimeout = 10 * time.Second
	defaultLogBufferSize  = 200
	defaultForwardTopic   = "webhook-router.forwards"
	defaultForwardWorkers = 64
)

// Settings contains the application config
type Settings struct {
	Port           int           `env:"PORT"`
	MonPort        int           `env:"MON_PORT"`
	EnablePprof    bool          `env:"ENABLE_PPROF"`
	LogLevel       string        `env:"LOG_LEVEL"`
	ServiceName    string        `env:"SERVICE_NAME"`
	VerifyToken    string        `env:"VERIFY_TOKEN"`
	AccountsDir    string        `env:"ACCOUNTS_DIR"`
	StoreBackend   string        `env:"STORE_BACKEND"`
	ForwardTimeout time.Duration `env:"FORWARD_TIMEOUT"`
	ForwardWorkers int           `env:"FORWARD_WORKERS"`
	LogBufferSize  int           `env:"LOG_BUFFER_SIZE"`
	KafkaBrokers   string        `env:"KAFKA_BROKERS"`
	ForwardTopic   string        `env:"FORWARD_TOPIC"`

	DB db.Settings `envPrefix:"DB_"`
}

// SetDefaults fills every unset optional field.
func (s *Settings) SetDefaults() {
	if s.Port == 0 {
		s.Port = defaultPort
	}
	if s.MonPort == 0 {
		s.MonPort = defaultMonPort
	}
	if s.LogLevel == "" {
		s.LogLevel = defaultLogLevel
	}
	if s.ServiceName == "" {
		s.ServiceName = defaultServiceName
	}
	if s.AccountsDir == "" {
		s.AccountsDir = defaultAccountsDir
	}
	if s.StoreBackend == "" {
		s.StoreBackend = StoreBackendFile
	}
	if s.ForwardTimeout <= 0 {
		s.ForwardTimeout = defaultForwardTimeout
	}
	if s.ForwardWorkers <= 0 {
		s.ForwardWorkers = defaultForwardWorkers
	}
	if s.LogBufferSize <= 0 {
		s.LogBufferSize = defaultLogBufferSize
	}
	if s.ForwardTopic == "" {
		s.ForwardTopic = defaultForwardTopic
	}
}

// Validate checks the settings that have no sensible default.
func (s *Settings) Validate() error {
	if s.VerifyToken == "" {
		return errors.New("VERIFY_TOKEN is required")
	}
	switch s.StoreBackend {
	case StoreBackendFile, StoreBackendPostgres:
	default:
		return errors.New("STORE_BACKEND must be 'file' or 'postgres', got '" + s.StoreBackend + "'")
	}
	return nil
}
