package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/viakashmir/admin-console/internal"
	"github.com/viakashmir/admin-console/internal/catalog"
	"github.com/viakashmir/admin-console/internal/console"
	"github.com/viakashmir/admin-console/pkg/logger"
)

var (
	configDir    string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "admin-console",
	Short: "Via Kashmir admin console",
	Long: `Browse and edit Via Kashmir platform records from the terminal, or serve
the console gateway used by the admin web app.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// errReported exits non-zero without printing again.
var errReported = errors.New("error already reported")

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		switch _, isAppErr := internal.IsAppError(err); {
		case errors.Is(err, errReported):
		case isAppErr:
			console.NewPrinter(os.Stderr, console.FormatTable).Failure(err)
		default:
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func loadConfig(path string) (*internal.Config, error) {
	var cfg *internal.Config
	if os.Getenv("APP_ENV") == "production" || os.Getenv("DOCKER_ENV") == "true" {
		envCfg, err := internal.LoadConfigFromEnv()
		if err != nil {
			return nil, err
		}
		cfg = envCfg
	} else {
		fileCfg, err := loadConfigFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error validating config: %w", err)
	}
	logger.InitTo(os.Stderr, cfg.Env, cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	return cfg, nil
}

// loadConfigFile reads config.yml from path when present. Without a file the
// defaults below plus ENV_* variables apply.
func loadConfigFile(path string) (*internal.Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix("ENV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("env", "development")
	v.SetDefault("api.base_url", internal.DefaultAPIURL)
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("auth.client_id", internal.DefaultClientID)
	v.SetDefault("auth.client_secret", "")
	v.SetDefault("auth.min_validity", "30s")
	v.SetDefault("auth.default_ttl", "15m")
	v.SetDefault("http_server.port", 8080)
	v.SetDefault("http_server.allowed_origins", "")
	v.SetDefault("http_server.read_header_timeout", "5s")
	v.SetDefault("http_server.read_timeout", "15s")
	v.SetDefault("http_server.idle_timeout", "60s")
	v.SetDefault("http_server.write_timeout", "30s")
	v.SetDefault("http_server.rate_limit", 120)
	v.SetDefault("http_server.rate_window", "1m")
	v.SetDefault("http_server.validate_requests", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.source", "admin-console.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("security.jwt_secret", "")
	v.SetDefault("security.jwt_refresh_secret", "")
	v.SetDefault("security.access_token_duration", "15m")
	v.SetDefault("security.refresh_token_duration", "168h")
	v.SetDefault("security.bcrypt_cost", 12)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.path", "/metrics")
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "text")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg internal.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func printer(cmd *cobra.Command) (*console.Printer, error) {
	format, err := console.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	return console.NewPrinter(cmd.OutOrStdout(), format), nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", ".", "directory holding config.yml")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table or json")

	rootCmd.AddCommand(httpServerCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(hashPasswordCmd)
	for _, e := range catalog.NewRegistry(nil).All() {
		rootCmd.AddCommand(newEntityCmd(e.Name, e.Label))
	}
}
