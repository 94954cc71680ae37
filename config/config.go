package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Driver  DriverConfig  `mapstructure:"driver"`
}

type ServerConfig struct {
	HTTPAddress    string        `mapstructure:"http_address"`
	WSPath         string        `mapstructure:"ws_path"`
	RPCAddress     string        `mapstructure:"rpc_address"`
	MetricsAddress string        `mapstructure:"metrics_address"`
	Heartbeat      time.Duration `mapstructure:"heartbeat"`
}

type StorageConfig struct {
	// Driver is one of "memory", "postgres" (lib/pq) or "gorm".
	Driver   string         `mapstructure:"driver"`
	GameTTL  time.Duration  `mapstructure:"game_ttl"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// DriverConfig paces the background loop that plays automated seats.
type DriverConfig struct {
	Tick       time.Duration `mapstructure:"tick"`
	AgentDelay time.Duration `mapstructure:"agent_delay"`
	ShowDelay  time.Duration `mapstructure:"show_delay"`
	IdleTTL    time.Duration `mapstructure:"idle_ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_address", ":8080")
	v.SetDefault("server.ws_path", "/ws")
	v.SetDefault("server.rpc_address", ":8081")
	v.SetDefault("server.metrics_address", "")
	v.SetDefault("server.heartbeat", time.Minute)

	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.game_ttl", 24*time.Hour)
	v.SetDefault("storage.postgres.host", "localhost")
	v.SetDefault("storage.postgres.port", 5432)
	v.SetDefault("storage.postgres.user", "postgres")
	v.SetDefault("storage.postgres.password", "")
	v.SetDefault("storage.postgres.dbname", "clue")

	v.SetDefault("driver.tick", 100*time.Millisecond)
	v.SetDefault("driver.agent_delay", 1500*time.Millisecond)
	v.SetDefault("driver.show_delay", time.Second)
	v.SetDefault("driver.idle_ttl", 30*time.Minute)
}

// LoadConfig reads config.yaml from path. A missing file is not an error;
// every key has a default and can be overridden with CLUE_* environment
// variables (CLUE_STORAGE_DRIVER, CLUE_SERVER_HTTP_ADDRESS, ...).
func LoadConfig(path string) (config *Config, err error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("clue")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	err = v.Unmarshal(&config)
	return
}
