package config

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET, required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`

	// DispatchWorkers is the number of session-event publishing workers.
	DispatchWorkers int `env:"DISPATCH_WORKERS, default=4"`

	Mongo     MongoConfig
	Redis     RedisConfig
	Bootstrap BootstrapConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=admin_console"`
}

type RedisConfig struct {
	Addr           string `env:"REDIS_ADDR,      default=localhost:6379"`
	DB             int    `env:"REDIS_DB,        default=0"`
	SessionChannel string `env:"SESSION_CHANNEL, default=console:session_events"`
}

// BootstrapConfig seeds the first administrator. Empty Email disables it.
type BootstrapConfig struct {
	Email    string `env:"BOOTSTRAP_ADMIN_EMAIL"`
	Password string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
}

// ConsoleConfig is read by the console binary.
type ConsoleConfig struct {
	APIURL   string        `env:"CONSOLE_API_URL,  default=http://localhost:8080"`
	Email    string        `env:"CONSOLE_EMAIL"`
	Password string        `env:"CONSOLE_PASSWORD"`
	LogLevel string        `env:"LOG_LEVEL,        default=warn"`
	Timeout  time.Duration `env:"CONSOLE_TIMEOUT, default=10s"`

	Redis RedisConfig
}

// IsDevelopment reports whether the server runs outside production.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
// A .env file in the working directory is applied first when present.
func Load() *Config {
	var cfg Config
	mustProcess(&cfg)
	return &cfg
}

// LoadConsole reads the console configuration.
func LoadConsole() *ConsoleConfig {
	var cfg ConsoleConfig
	mustProcess(&cfg)
	return &cfg
}

func mustProcess(target any) {
	_ = godotenv.Load()
	if err := envconfig.Process(context.Background(), target); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
}
