package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// CarrierTimeout bounds a single carrier's quote; AggregateTimeout bounds
	// the whole fan-out.
	CarrierTimeout   time.Duration `env:"CARRIER_TIMEOUT,   default=20s"`
	AggregateTimeout time.Duration `env:"AGGREGATE_TIMEOUT, default=30s"`

	Mongo MongoConfig
	Redis RedisConfig
	Data  DataConfig

	Dellin DellinConfig
	Pecom  PecomConfig
	GTD    GTDConfig
	Baikal BaikalConfig
	Nrgtk  NrgtkConfig
	DPD    DPDConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=freightcalc"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// DataConfig points at the static reference exports loaded once at startup.
type DataConfig struct {
	TerminalsPath    string `env:"DATA_TERMINALS_PATH,     default=assets/data/terminals_v3.json"`
	GeographyPath    string `env:"DATA_GEOGRAPHY_PATH,     default=assets/data/dpd-geography.csv"`
	DPDTerminalsPath string `env:"DATA_DPD_TERMINALS_PATH, default=assets/data/dpd-terminals.xml"`
}

type DellinConfig struct {
	Appkey   string `env:"DELLIN_APPKEY"`
	Login    string `env:"DELLIN_LOGIN"`
	Password string `env:"DELLIN_PASS"`
}

type PecomConfig struct {
	Login  string `env:"PECOM_LOGIN"`
	APIKey string `env:"PECOM_APIKEY"`
}

type GTDConfig struct {
	APIKey string `env:"GTD_APIKEY"`
}

type BaikalConfig struct {
	APIKey string `env:"BAIKAL_APIKEY"`
}

type NrgtkConfig struct {
	DevToken string `env:"NRGTK_DEV_TOKEN"`
	Login    string `env:"NRGTK_LOGIN"`
	Password string `env:"NRGTK_PASS"`
}

type DPDConfig struct {
	ClientNumber string `env:"DPD_CLIENT_NUM"`
	ClientKey    string `env:"DPD_CLIENT_KEY"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
