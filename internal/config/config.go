package config

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/ordmarket/orderbook-engine/common"
	ombconfig "github.com/ordmarket/orderbook-engine/modules/omb/config"
	"github.com/ordmarket/orderbook-engine/pkg/logger"
	"github.com/ordmarket/orderbook-engine/pkg/logger/slogx"
	"github.com/ordmarket/orderbook-engine/pkg/middleware/requestlogger"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	parseOnce sync.Once
	config    = &Config{
		Logger: logger.Config{
			Output: "TEXT",
		},
		HTTPServer: HTTPServer{
			Port: 8080,
		},
		BitcoinNode: BitcoinNode{
			User: "user",
			Pass: "pass",
		},
		Network: common.NetworkMainnet,
	}
)

type Config struct {
	Logger        logger.Config  `mapstructure:"logger"`
	HTTPServer    HTTPServer     `mapstructure:"http_server"`
	BitcoinNode   BitcoinNode    `mapstructure:"bitcoin_node"`
	Network       common.Network `mapstructure:"network"`
	EnableModules []string       `mapstructure:"enable_modules"`
	APIOnly       bool           `mapstructure:"api_only"`
	Modules       Modules        `mapstructure:"modules"`
}

type HTTPServer struct {
	Port   int                  `mapstructure:"port"`
	Logger requestlogger.Config `mapstructure:"logger"`
}

type BitcoinNode struct {
	Host       string `mapstructure:"host"`
	User       string `mapstructure:"user"`
	Pass       string `mapstructure:"pass"`
	DisableTLS bool   `mapstructure:"disable_tls"`
}

type Modules struct {
	Omb ombconfig.Config `mapstructure:"omb"`
}

// BindPFlag binds a command-line flag to a configuration key. Must be
// called before Parse.
func BindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		logger.Panic("failed to bind flag to configuration", slogx.String("key", key), slogx.Error(err))
	}
}

// Parse loads the configuration from the given file (or ./config.yaml
// when empty), environment variables, and bound flags, in ascending
// precedence. Subsequent calls return the first result.
func Parse(configFile string) Config {
	ctx := logger.WithContext(context.Background(), slog.String("package", "config"))
	parseOnce.Do(func() {
		if configFile != "" {
			viper.SetConfigFile(configFile)
		} else {
			viper.AddConfigPath("./")
			viper.SetConfigName("config")
		}

		viper.AutomaticEnv()
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		if err := viper.ReadInConfig(); err != nil {
			var errNotFound viper.ConfigFileNotFoundError
			if errors.As(err, &errNotFound) {
				logger.WarnContext(ctx, "config file not found, using defaults", slogx.Error(err))
			} else {
				logger.PanicContext(ctx, "invalid config file", slogx.Error(err))
			}
		}

		if err := viper.Unmarshal(&config); err != nil {
			logger.PanicContext(ctx, "failed to unmarshal config", slogx.Error(err))
		}
	})
	return *config
}

// Load returns the parsed configuration. Call Parse first; commands
// set up via cobra.OnInitialize can rely on that ordering.
func Load() Config {
	return *config
}
