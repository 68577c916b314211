package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
}

type ServerConfig struct {
	TCPAddress     string `mapstructure:"tcp_address"`
	WSAddress      string `mapstructure:"ws_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
}

type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"` // "gorm" or "pq"
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// GameConfig carries the phase timing knobs. All values are seconds in the
// config file.
type GameConfig struct {
	RoleCardSeconds        int `mapstructure:"role_card_seconds"`
	SeerSeconds            int `mapstructure:"seer_seconds"`
	GuardSeconds           int `mapstructure:"guard_seconds"`
	WolfSeconds            int `mapstructure:"wolf_seconds"`
	DaySeconds             int `mapstructure:"day_seconds"`
	TieBreakSeconds        int `mapstructure:"tie_break_seconds"`
	DisconnectGraceSeconds int `mapstructure:"disconnect_grace_seconds"`
}

func (g GameConfig) RoleCard() time.Duration        { return time.Duration(g.RoleCardSeconds) * time.Second }
func (g GameConfig) Seer() time.Duration            { return time.Duration(g.SeerSeconds) * time.Second }
func (g GameConfig) Guard() time.Duration           { return time.Duration(g.GuardSeconds) * time.Second }
func (g GameConfig) Wolf() time.Duration            { return time.Duration(g.WolfSeconds) * time.Second }
func (g GameConfig) Day() time.Duration             { return time.Duration(g.DaySeconds) * time.Second }
func (g GameConfig) TieBreak() time.Duration        { return time.Duration(g.TieBreakSeconds) * time.Second }
func (g GameConfig) DisconnectGrace() time.Duration {
	return time.Duration(g.DisconnectGraceSeconds) * time.Second
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.tcp_address", ":5000")
	viper.SetDefault("server.ws_address", ":5001")
	viper.SetDefault("server.metrics_address", ":9100")
	viper.SetDefault("server.rpc_address", ":5002")
	viper.SetDefault("database.driver", "gorm")
	viper.SetDefault("game.role_card_seconds", 30)
	viper.SetDefault("game.seer_seconds", 30)
	viper.SetDefault("game.guard_seconds", 30)
	viper.SetDefault("game.wolf_seconds", 30)
	viper.SetDefault("game.day_seconds", 60)
	viper.SetDefault("game.tie_break_seconds", 30)
	viper.SetDefault("game.disconnect_grace_seconds", 120)

	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
