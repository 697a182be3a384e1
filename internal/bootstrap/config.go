package bootstrap

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	EngineUrl          string        `mapstructure:"ENGINE_URL"`
	AuthorizationToken string        `mapstructure:"AUTHORIZATION_TOKEN"`
	HostUrl            string        `mapstructure:"HOST_URL"`
	Opponent           string        `mapstructure:"OPPONENT"`
	BoardSize          int           `mapstructure:"BOARD_SIZE"`
	ReadyAttempts      int           `mapstructure:"READY_ATTEMPTS"`
	ReadyInterval      time.Duration `mapstructure:"READY_INTERVAL"`
	SettleDelay        time.Duration `mapstructure:"SETTLE_DELAY"`
	TurnDelay          time.Duration `mapstructure:"TURN_DELAY"`
	DiscoveryDelay     time.Duration `mapstructure:"DISCOVERY_DELAY"`
	RedisUrl           string        `mapstructure:"REDIS_URL"`
	MongoUri           string        `mapstructure:"MONGO_URI"`
	MongoDatabase      string        `mapstructure:"MONGO_DATABASE"`
	ServerPort         string        `mapstructure:"SERVER_PORT"`
	GrpcPort           string        `mapstructure:"GRPC_PORT"`
	KatagoPath         string        `mapstructure:"KATAGO_PATH"`
	KatagoArgs         []string      `mapstructure:"KATAGO_ARGS"`
}

var defaults = map[string]any{
	"ENGINE_URL":          "http://localhost:8080",
	"AUTHORIZATION_TOKEN": "",
	"HOST_URL":            "ws://localhost:12525/go",
	"OPPONENT":            "Netburners",
	"BOARD_SIZE":          5,
	"READY_ATTEMPTS":      60,
	"READY_INTERVAL":      time.Second,
	"SETTLE_DELAY":        5 * time.Second,
	"TURN_DELAY":          500 * time.Millisecond,
	"DISCOVERY_DELAY":     10 * time.Millisecond,
	"REDIS_URL":           "",
	"MONGO_URI":           "",
	"MONGO_DATABASE":      "ipvgo",
	"SERVER_PORT":         ":8080",
	"GRPC_PORT":           ":8082",
	"KATAGO_PATH":         "katago",
	"KATAGO_ARGS":         []string{"gtp"},
}

// Flags registers the command line options shared by both binaries.
func Flags(name string) *pflag.FlagSet {
	set := pflag.NewFlagSet(name, pflag.ContinueOnError)
	set.String("opponent", "Netburners", "host opponent to play against")
	set.Int("size", 5, "board edge length")
	set.String("config", ".env", "path to the env config file")
	return set
}

// Setup reads cfgPath (missing file is fine), then the environment, then flags.
func Setup(cfgPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
		v.SetConfigType("env")
		err := v.ReadInConfig()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	v.AutomaticEnv()

	if flags != nil {
		if f := flags.Lookup("opponent"); f != nil && f.Changed {
			if err := v.BindPFlag("OPPONENT", f); err != nil {
				return nil, err
			}
		}
		if f := flags.Lookup("size"); f != nil && f.Changed {
			if err := v.BindPFlag("BOARD_SIZE", f); err != nil {
				return nil, err
			}
		}
	}

	var cfg Config

	err := v.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
