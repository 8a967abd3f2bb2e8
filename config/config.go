package config

import (
	"log/slog"

	"github.com/spf13/viper"
)

// Settings holds everything the process needs at startup. Values come from
// config.yaml when present; environment variables always win.
type Settings struct {
	Port      string
	DBURL     string
	RedisAddr string
	JwtSecret string
}

var App Settings

// JwtKey is the HMAC key used for signing and verifying auth tokens.
var JwtKey []byte

func Load() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetDefault("port", "8080")
	viper.SetDefault("db_url", "")
	viper.SetDefault("redis_addr", "")
	viper.SetDefault("jwt_secret", "")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("Failed to read config file", "error", err)
		}
	}

	App = Settings{
		Port:      viper.GetString("port"),
		DBURL:     viper.GetString("db_url"),
		RedisAddr: viper.GetString("redis_addr"),
		JwtSecret: viper.GetString("jwt_secret"),
	}
	JwtKey = []byte(App.JwtSecret)
}
