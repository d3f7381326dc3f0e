package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Game     GameConfig     `mapstructure:"game"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Expire int    `mapstructure:"expire"` // hours
}

// GameConfig holds table defaults applied to newly created rooms.
type GameConfig struct {
	TurnTimeLimitSeconds int `mapstructure:"turnTimeLimitSeconds"` // 0 = unlimited
	SequencesToWin       int `mapstructure:"sequencesToWin"`
	SequenceLength       int `mapstructure:"sequenceLength"`
	SessionTTLHours      int `mapstructure:"sessionTTLHours"`
}

var GlobalConfig *Config

func LoadConfig(path string) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	viper.SetDefault("game.turnTimeLimitSeconds", 60)
	viper.SetDefault("game.sequencesToWin", 2)
	viper.SetDefault("game.sequenceLength", 5)
	viper.SetDefault("game.sessionTTLHours", 24)

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file, %s", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
	GlobalConfig = &cfg
}
