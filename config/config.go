package config

import (
	"errors"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Limits   LimitsConfig   `mapstructure:"limits"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	HTTPAddress    string   `mapstructure:"http_address"`
	RPCAddress     string   `mapstructure:"rpc_address"`
	TickRate       int      `mapstructure:"tick_rate"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	// Driver selects the round-history store: "none", "gorm" or "pq".
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// LimitsConfig bounds how many position/dig packets one session may send.
type LimitsConfig struct {
	PacketsPerSecond float64 `mapstructure:"packets_per_second"`
	Burst            int     `mapstructure:"burst"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_address", ":8080")
	v.SetDefault("server.rpc_address", ":8081")
	v.SetDefault("server.tick_rate", 20)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("database.driver", "none")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.dbname", "fallarena")

	v.SetDefault("limits.packets_per_second", 40)
	v.SetDefault("limits.burst", 80)

	v.SetDefault("log.level", "info")
}

// LoadConfig reads config.yaml from path. A missing file is not an error;
// defaults and environment variables (SERVER_HTTP_ADDRESS, ...) still apply.
func LoadConfig(path string) (config *Config, err error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	config = &Config{}
	err = v.Unmarshal(config)
	return
}
