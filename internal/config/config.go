// Package config loads the service configuration from an optional YAML file,
// a .env file and REPERTOIRE_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/karpatkey/defi-repertoire/chain"
)

type Config struct {
	App        AppConfig         `mapstructure:"app"`
	Server     ServerConfig      `mapstructure:"server"`
	Log        LogConfig         `mapstructure:"log"`
	RPC        map[string]string `mapstructure:"rpc"`
	Cache      CacheConfig       `mapstructure:"cache"`
	DataSource DataSourceConfig  `mapstructure:"datasource"`
	Swap       SwapConfig        `mapstructure:"swap"`
}

type AppConfig struct {
	Env  string `mapstructure:"env"`
	Name string `mapstructure:"name"`
}

type ServerConfig struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type CacheConfig struct {
	Fresh time.Duration `mapstructure:"fresh"`
	Stale time.Duration `mapstructure:"stale"`
}

type DataSourceConfig struct {
	BalancerAPI    string        `mapstructure:"balancer_api"`
	MinTVL         float64       `mapstructure:"min_tvl"`
	UniswapGateway string        `mapstructure:"uniswap_gateway"`
	TheGraphAPIKey string        `mapstructure:"thegraph_api_key"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type SwapConfig struct {
	MaxConcurrentQuotes int `mapstructure:"max_concurrent_quotes"`
}

// Load reads path when it is set and exists, then layers the environment on
// top. A missing .env file is not an error.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("REPERTOIRE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// Names kept for deployments that predate the prefix.
	_ = v.BindEnv("rpc.ethereum", "REPERTOIRE_RPC_ETHEREUM", "RPC_MAINNET_URL")
	_ = v.BindEnv("rpc.gnosis", "REPERTOIRE_RPC_GNOSIS", "RPC_GNOSIS_URL")
	_ = v.BindEnv("datasource.thegraph_api_key", "REPERTOIRE_DATASOURCE_THEGRAPH_API_KEY", "THEGRAPH_API_KEY")

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	// AutomaticEnv does not reach map keys viper has never seen.
	if cfg.RPC == nil {
		cfg.RPC = make(map[string]string)
	}
	for _, bc := range chain.Supported() {
		if url := v.GetString("rpc." + bc.Name); url != "" {
			cfg.RPC[bc.Name] = url
		}
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.name", "repertoire")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.request_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("cache.fresh", "5m")
	v.SetDefault("cache.stale", "1h")
	v.SetDefault("datasource.balancer_api", "https://api-v3.balancer.fi/graphql")
	v.SetDefault("datasource.min_tvl", 500000)
	v.SetDefault("datasource.uniswap_gateway", "https://gateway-arbitrum.network.thegraph.com")
	v.SetDefault("datasource.timeout", "15s")
	v.SetDefault("swap.max_concurrent_quotes", 4)
}

func (c Config) validate() error {
	if c.App.Name == "" {
		return errors.New("app name is required")
	}
	if c.Server.HTTPAddr == "" {
		return errors.New("server http_addr is required")
	}
	if c.Cache.Fresh <= 0 || c.Cache.Stale < c.Cache.Fresh {
		return fmt.Errorf("cache windows must satisfy 0 < fresh <= stale, got fresh=%s stale=%s", c.Cache.Fresh, c.Cache.Stale)
	}
	if c.Swap.MaxConcurrentQuotes <= 0 {
		return errors.New("swap max_concurrent_quotes must be positive")
	}
	for name := range c.RPC {
		if _, err := chain.ByName(name); err != nil {
			return fmt.Errorf("rpc.%s: %w", name, err)
		}
	}
	return nil
}

// RPCURL returns the endpoint configured for bc.
func (c Config) RPCURL(bc chain.Blockchain) (string, bool) {
	url, ok := c.RPC[bc.Name]
	return url, ok && url != ""
}
