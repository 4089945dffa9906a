package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces environment overrides, e.g. PLEDGE_PORT. Unprefixed
// names (PORT, DB_PATH, ...) are accepted as fallbacks.
const EnvPrefix = "pledge"

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	FeedLocal    = "local"
	FeedPostgres = "postgres"
	FeedRedis    = "redis"
)

type Config struct {
	Port            string        `yaml:"port"            envconfig:"PORT"`
	DBDriver        string        `yaml:"dbDriver"        envconfig:"DB_DRIVER"`
	DBPath          string        `yaml:"dbPath"          envconfig:"DB_PATH"`
	DatabaseURL     string        `yaml:"databaseUrl"     envconfig:"DATABASE_URL"`
	FeedMode        string        `yaml:"feedMode"        envconfig:"FEED_MODE"`
	RedisAddr       string        `yaml:"redisAddr"       envconfig:"REDIS_ADDR"`
	RedisChannel    string        `yaml:"redisChannel"    envconfig:"REDIS_CHANNEL"`
	InstanceID      string        `yaml:"instanceId"      envconfig:"INSTANCE_ID"`
	LogMode         string        `yaml:"logMode"         envconfig:"LOG_MODE"`
	SubmitTimeout   time.Duration `yaml:"submitTimeout"   envconfig:"SUBMIT_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" envconfig:"SHUTDOWN_TIMEOUT"`
	FontPath        string        `yaml:"fontPath"        envconfig:"FONT_PATH"`
	FontBoldPath    string        `yaml:"fontBoldPath"    envconfig:"FONT_BOLD_PATH"`
	TracingStdout   bool          `yaml:"tracingStdout"   envconfig:"TRACING_STDOUT"`
	OTLPEndpoint    string        `yaml:"otlpEndpoint"    envconfig:"OTLP_ENDPOINT"`
	OTLPInsecure    bool          `yaml:"otlpInsecure"    envconfig:"OTLP_INSECURE"`
}

// Default returns the local-development configuration.
func Default() *Config {
	return &Config{
		Port:            "8080",
		DBDriver:        DriverSQLite,
		DBPath:          "pledges.db",
		LogMode:         "dev",
		SubmitTimeout:   10 * time.Second,
		ShutdownTimeout: 15 * time.Second,
	}
}

// Load builds the configuration in layers: defaults, then .env (if present),
// then the YAML file (if configFile is set), then environment variables.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg := Default()
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	c.FeedMode = strings.ToLower(strings.TrimSpace(c.FeedMode))
	if c.FeedMode == "" {
		if c.DBDriver == DriverPostgres {
			c.FeedMode = FeedPostgres
		} else {
			c.FeedMode = FeedLocal
		}
	}
	if c.InstanceID == "" {
		c.InstanceID = uuid.NewString()
	}
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("port must be set"))
	}
	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("sqlite driver requires DB_PATH"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("postgres driver requires DATABASE_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver))
	}
	switch c.FeedMode {
	case FeedLocal:
	case FeedPostgres:
		if c.DBDriver != DriverPostgres {
			errs = append(errs, errors.New("FEED_MODE=postgres requires DB_DRIVER=postgres"))
		}
	case FeedRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("FEED_MODE=redis requires REDIS_ADDR"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown FEED_MODE %q", c.FeedMode))
	}
	if c.SubmitTimeout <= 0 {
		errs = append(errs, errors.New("SUBMIT_TIMEOUT must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}
