package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/feral-file/ff-ticket-market/internal/domain"
)

// Asset backends
const (
	AssetBackendMemory   = "memory"
	AssetBackendEthereum = "ethereum"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug       bool   `mapstructure:"debug"`
	SentryDSN   string `mapstructure:"sentry_dsn"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`     // Maximum number of open connections to the database
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`     // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // Maximum amount of time a connection may be reused (e.g., "5m", "1h")
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // Maximum amount of time a connection may be idle (e.g., "10m", "30m")
}

// NATSConfig holds NATS JetStream configuration. Publishing is disabled when URL is empty.
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
	MaxAge         time.Duration `mapstructure:"max_age"`
}

// EthereumConfig holds the chain settings of the ethereum asset backend
type EthereumConfig struct {
	RPCURL         string        `mapstructure:"rpc_url"`
	ChainID        int64         `mapstructure:"chain_id"`
	PrivateKey     string        `mapstructure:"private_key"` // hex-encoded key of the market account
	ReceiptTimeout time.Duration `mapstructure:"receipt_timeout"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTPublicKey string   `mapstructure:"jwt_public_key"`
	APIKeys      []string `mapstructure:"api_keys"`
}

// WorkerConfig holds the event dispatcher pool configuration
type WorkerConfig struct {
	WorkerPoolSize  int           `mapstructure:"pool_size"`
	WorkerQueueSize int           `mapstructure:"queue_size"`
	PublishRetries  uint64        `mapstructure:"publish_retries"`
	RetryInterval   time.Duration `mapstructure:"retry_interval"`
}

// SweeperConfig holds the auction settlement sweeper configuration
type SweeperConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`
}

// LedgerConfig holds the market identities and policies
type LedgerConfig struct {
	Operator string `mapstructure:"operator"`
	// Address is the market account sellers approve; derived from the private key on ethereum
	Address               string `mapstructure:"address"`
	AssetBackend          string `mapstructure:"asset_backend"`
	OfferRoyaltyBp        uint16 `mapstructure:"offer_royalty_bp"`
	OfferRoyaltyRecipient string `mapstructure:"offer_royalty_recipient"` // empty pays the accepting seller
}

// MarketConfig holds configuration for the market daemon
type MarketConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig   `mapstructure:"server"`
	Database   DatabaseConfig `mapstructure:"database"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Ethereum   EthereumConfig `mapstructure:"ethereum"`
	Auth       AuthConfig     `mapstructure:"auth"`
	Worker     WorkerConfig   `mapstructure:"worker"`
	Sweeper    SweeperConfig  `mapstructure:"sweeper"`
	Market     LedgerConfig   `mapstructure:"market"`
}

// LoadMarketConfig loads configuration for the market daemon
func LoadMarketConfig(configFile string, envPath string) (*MarketConfig, error) {
	v := configureViper("marketd", configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("environment", "development")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "MARKET_EVENTS")
	v.SetDefault("nats.connection_name", "marketd")
	v.SetDefault("nats.max_age", "168h")
	v.SetDefault("ethereum.receipt_timeout", "2m")
	v.SetDefault("ethereum.poll_interval", "1s")
	v.SetDefault("worker.pool_size", 4)
	v.SetDefault("worker.queue_size", 1024)
	v.SetDefault("worker.publish_retries", 3)
	v.SetDefault("worker.retry_interval", "200ms")
	v.SetDefault("sweeper.enabled", true)
	v.SetDefault("sweeper.interval", "30s")
	v.SetDefault("sweeper.batch_size", 50)
	v.SetDefault("market.asset_backend", AssetBackendMemory)
	v.SetDefault("market.offer_royalty_bp", domain.DefaultOfferRoyaltyBp)

	if err := v.ReadInConfig(); err != nil {
		var error viper.ConfigFileNotFoundError
		if errors.As(err, &error) {
			// Config file not found, use environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg MarketConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the fields the daemon cannot start without
func (c *MarketConfig) Validate() error {
	if _, err := c.OperatorAddress(); err != nil {
		return fmt.Errorf("market.operator: %w", err)
	}
	if c.Market.OfferRoyaltyBp > domain.MaxRoyaltyBp {
		return fmt.Errorf("market.offer_royalty_bp: %w", domain.ErrInvalidRoyalty)
	}
	if c.Market.OfferRoyaltyRecipient != "" {
		if _, err := domain.ParseAddress(c.Market.OfferRoyaltyRecipient); err != nil {
			return fmt.Errorf("market.offer_royalty_recipient: %w", err)
		}
	}

	if c.Sweeper.Enabled && (c.Sweeper.Interval <= 0 || c.Sweeper.BatchSize <= 0) {
		return errors.New("sweeper.interval and sweeper.batch_size must be positive")
	}

	switch c.Market.AssetBackend {
	case AssetBackendMemory:
		addr, err := domain.ParseAddress(c.Market.Address)
		if err != nil || addr.IsZero() {
			return fmt.Errorf("market.address: %w", domain.ErrInvalidAddress)
		}
	case AssetBackendEthereum:
		if c.Ethereum.RPCURL == "" {
			return errors.New("ethereum.rpc_url is required")
		}
		if c.Ethereum.ChainID <= 0 {
			return errors.New("ethereum.chain_id is required")
		}
		if c.Ethereum.PrivateKey == "" {
			return errors.New("ethereum.private_key is required")
		}
	default:
		return fmt.Errorf("unknown market.asset_backend %q", c.Market.AssetBackend)
	}

	return nil
}

// OperatorAddress returns the parsed operator identity
func (c *MarketConfig) OperatorAddress() (domain.Address, error) {
	addr, err := domain.ParseAddress(c.Market.Operator)
	if err != nil {
		return "", err
	}
	if addr.IsZero() {
		return "", domain.ErrInvalidAddress
	}
	return addr, nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search for config.yaml in multiple locations:
		// 1. Current directory
		v.AddConfigPath(".")
		// 2. Service-specific directory (e.g., cmd/marketd/)
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		// 3. Config directory
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("FF_MARKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		"environment",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		"nats.max_age",
		// Ethereum
		"ethereum.rpc_url",
		"ethereum.chain_id",
		"ethereum.private_key",
		"ethereum.receipt_timeout",
		"ethereum.poll_interval",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		// Auth
		"auth.jwt_public_key",
		"auth.api_keys",
		// Event dispatcher
		"worker.pool_size",
		"worker.queue_size",
		"worker.publish_retries",
		"worker.retry_interval",
		// Sweeper
		"sweeper.enabled",
		"sweeper.interval",
		"sweeper.batch_size",
		// Market
		"market.operator",
		"market.address",
		"market.asset_backend",
		"market.offer_royalty_bp",
		"market.offer_royalty_recipient",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
