package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string `yaml:"log-level" env-default:"info"`
	HTTPPort   string `yaml:"http-port" env-default:"9090"`
	SocketPort string `yaml:"socket-port" env-default:"8080"`
	Redis      Redis  `yaml:"redis"`
	Game       Game   `yaml:"game"`
}

type Redis struct {
	Host string `yaml:"host" env-default:"localhost"`
	Port string `yaml:"port" env-default:"6379"`
}

// Game holds the board geometry and the disconnect policy. A single
// configured geometry applies to every match in the process.
type Game struct {
	BoardWidth  int `yaml:"board-width" env-default:"3"`
	BoardHeight int `yaml:"board-height" env-default:"3"`
	WinLength   int `yaml:"win-length" env-default:"3"`

	GracePeriod  time.Duration `env:"GAME_GRACE_PERIOD" env-default:"10s"`
	RequeueDelay time.Duration `env:"GAME_REQUEUE_DELAY" env-default:"2s"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
