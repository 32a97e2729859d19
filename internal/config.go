package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/kelseyhightower/envconfig"
)

const (
	// APIURLEnv overrides api.base_url in every config mode.
	APIURLEnv       = "VIA_KASHMIR_ADMIN_SERVER_API"
	DefaultAPIURL   = "https://via-kashmir-admin-panel-server.vercel.app"
	DefaultClientID = "via_kashmir"
)

type Config struct {
	Env           string              `mapstructure:"env" envconfig:"APP_ENV" default:"development" validate:"oneof=development production test"`
	Server        ServerConfig        `mapstructure:"http_server" envconfig:"HTTP_SERVER"`
	API           APIConfig           `mapstructure:"api" envconfig:"API"`
	Auth          AuthConfig          `mapstructure:"auth" envconfig:"AUTH"`
	Database      DatabaseConfig      `mapstructure:"database" envconfig:"DATABASE"`
	Cache         CacheConfig         `mapstructure:"cache" envconfig:"CACHE"`
	Security      SecurityConfig      `mapstructure:"security" envconfig:"SECURITY"`
	Observability ObservabilityConfig `mapstructure:"observability" envconfig:"OBSERVABILITY"`
	Views         ViewsConfig         `mapstructure:"views" envconfig:"VIEWS"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	AllowedOrigins    string        `mapstructure:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" envconfig:"READ_HEADER_TIMEOUT" default:"5s"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"30s"`
	RateLimit         int           `mapstructure:"rate_limit" envconfig:"RATE_LIMIT" default:"120" validate:"min=0"`
	RateWindow        time.Duration `mapstructure:"rate_window" envconfig:"RATE_WINDOW" default:"1m"`
	ValidateRequests  bool          `mapstructure:"validate_requests" envconfig:"VALIDATE_REQUESTS" default:"true"`
}

// APIConfig points at the upstream admin API.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url" envconfig:"BASE_URL" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" envconfig:"TIMEOUT" default:"30s"`
}

// AuthConfig holds the client credentials exchanged for an access token.
// They never leave this process.
type AuthConfig struct {
	ClientID     string        `mapstructure:"client_id" envconfig:"CLIENT_ID" default:"via_kashmir" validate:"required"`
	ClientSecret string        `mapstructure:"client_secret" envconfig:"CLIENT_SECRET"`
	MinValidity  time.Duration `mapstructure:"min_validity" envconfig:"MIN_VALIDITY" default:"30s"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl" envconfig:"DEFAULT_TTL" default:"15m"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" envconfig:"DRIVER" default:"sqlite" validate:"oneof=sqlite postgres"`
	Source          string        `mapstructure:"source" envconfig:"SOURCE" default:"admin-console.db" validate:"required"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" envconfig:"MAX_OPEN_CONNS" default:"10" validate:"min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" envconfig:"MAX_IDLE_CONNS" default:"5" validate:"min=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" envconfig:"CONN_MAX_LIFETIME" default:"30m"`
}

// CacheConfig selects where the upstream access token is kept. An empty
// RedisAddr keeps it in process memory.
type CacheConfig struct {
	RedisAddr     string `mapstructure:"redis_addr" envconfig:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"redis_password" envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"redis_db" envconfig:"REDIS_DB" default:"0" validate:"min=0"`
}

type SecurityConfig struct {
	JWTSecret            string        `mapstructure:"jwt_secret" envconfig:"JWT_SECRET"`
	JWTRefreshSecret     string        `mapstructure:"jwt_refresh_secret" envconfig:"JWT_REFRESH_SECRET"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration" envconfig:"ACCESS_TOKEN_DURATION" default:"15m"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration" envconfig:"REFRESH_TOKEN_DURATION" default:"168h"`
	BCryptCost           int           `mapstructure:"bcrypt_cost" envconfig:"BCRYPT_COST" default:"12" validate:"min=4,max=15"`
	Operators            Operators     `mapstructure:"operators" envconfig:"OPERATORS"`
}

// Operator is a console user allowed to sign in to the gateway.
type Operator struct {
	Email        string   `mapstructure:"email" json:"email" validate:"required,email"`
	PasswordHash string   `mapstructure:"password_hash" json:"password_hash" validate:"required"`
	Permissions  []string `mapstructure:"permissions" json:"permissions"`
}

type Operators []Operator

// Decode lets envconfig read SECURITY_OPERATORS as a JSON array.
func (o *Operators) Decode(value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var ops []Operator
	if err := json.Unmarshal([]byte(value), &ops); err != nil {
		return fmt.Errorf("operators must be a JSON array: %w", err)
	}
	*o = ops
	return nil
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics" envconfig:"METRICS"`
	Logging LoggingConfig `mapstructure:"logging" envconfig:"LOGGING"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" envconfig:"ENABLED" default:"true"`
	Path    string `mapstructure:"path" envconfig:"PATH" default:"/metrics" validate:"required_if=Enabled true"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" envconfig:"FORMAT" default:"text" validate:"oneof=json text"`
}

// ViewsConfig overrides per-entity page sizes, keyed by entity name.
type ViewsConfig struct {
	PageSizes map[string]int `mapstructure:"page_sizes" envconfig:"PAGE_SIZES"`
}

// LoadConfigFromEnv builds the config purely from the process environment.
func LoadConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills values that have no struct-tag default and applies the
// API URL override.
func (c *Config) ApplyDefaults() {
	c.API.BaseURL = getEnv(APIURLEnv, c.API.BaseURL)
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultAPIURL
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.Timeout <= 0 {
		c.API.Timeout = 30 * time.Second
	}
	if c.Auth.ClientID == "" {
		c.Auth.ClientID = DefaultClientID
	}
	if c.Auth.MinValidity <= 0 {
		c.Auth.MinValidity = 30 * time.Second
	}
	if c.Auth.DefaultTTL <= 0 {
		c.Auth.DefaultTTL = 15 * time.Minute
	}
	if c.Env == "" {
		c.Env = "development"
	}
	// platform-assigned port wins over the configured one
	c.Server.Port = getEnvAsInt("PORT", c.Server.Port)
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
	if c.Observability.Metrics.Path == "" {
		c.Observability.Metrics.Path = "/metrics"
	}
	if c.Security.BCryptCost == 0 {
		c.Security.BCryptCost = 12
	}
	if c.Security.AccessTokenDuration <= 0 {
		c.Security.AccessTokenDuration = 15 * time.Minute
	}
	if c.Security.RefreshTokenDuration <= 0 {
		c.Security.RefreshTokenDuration = 7 * 24 * time.Hour
	}
}

func (c *Config) IsProduction() bool {
	return c != nil && c.Env == "production"
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

var structValidator = validator.New()

func (c *Config) Validate() error {
	var errs []string

	if err := structValidator.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs = append(errs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

// Origins splits AllowedOrigins. A "*" entry, or no entries, means any
// origin.
func (c *ServerConfig) Origins() []string {
	var out []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			return nil
		}
		if origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *SecurityConfig) Validate() error {
	if len(c.Operators) == 0 {
		return nil
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("jwt_secret must be at least 32 characters when operators are configured")
	}
	seen := make(map[string]bool, len(c.Operators))
	for _, op := range c.Operators {
		if err := structValidator.Struct(op); err != nil {
			return fmt.Errorf("operator %q: %w", op.Email, err)
		}
		key := strings.ToLower(op.Email)
		if seen[key] {
			return fmt.Errorf("operator %q configured twice", op.Email)
		}
		seen[key] = true
	}
	return nil
}

// RefreshSecret falls back to the access secret when no separate one is set.
func (c *SecurityConfig) RefreshSecret() string {
	if c.JWTRefreshSecret != "" {
		return c.JWTRefreshSecret
	}
	return c.JWTSecret
}
