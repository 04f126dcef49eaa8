package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const defaultConfigPath = "src/internal/config/cfg.yml"

type Configuration struct {
	Logs      LogsSettings     `mapstructure:"logs"`
	App       Application      `mapstructure:"app"`
	Backend   BackendSettings  `mapstructure:"backend"`
	Session   SessionSettings  `mapstructure:"session"`
	Database  Database         `mapstructure:"database"`
	Messaging MessagingConfig  `mapstructure:"messaging"`
	Redis     Redis            `mapstructure:"redis"`
	Security  SecuritySettings `mapstructure:"security"`
	Server    ServerSettings   `mapstructure:"server"`
}

type LogsSettings struct {
	Level            string `mapstructure:"level"`
	Path             string `mapstructure:"log-path"`
	EnableJSONOutput bool   `mapstructure:"enable-json-output"`
}

type Application struct {
	Name    string `mapstructure:"name"`
	Timeout int    `mapstructure:"timeout"`
	Version string `mapstructure:"version"`
}

// BackendSettings points at the remote SIGEA REST API.
type BackendSettings struct {
	URL        string `mapstructure:"url"`
	Timeout    int    `mapstructure:"timeout"`
	PaymentURL string `mapstructure:"payment-url"`
}

type SessionSettings struct {
	// Store is one of "memory", "redis" or "mongo".
	Store             string `mapstructure:"store"`
	CookieName        string `mapstructure:"cookie-name"`
	KeyPrefix         string `mapstructure:"key-prefix"`
	ExpirationMinutes int    `mapstructure:"expiration-minutes"`
	SecureCookie      bool   `mapstructure:"secure-cookie"`
}

type Database struct {
	Url               string `mapstructure:"url"`
	DbName            string `mapstructure:"dbname"`
	SessionCollection string `mapstructure:"session-collection"`
	Timeout           int    `mapstructure:"timeout"`
}

type MessagingConfig struct {
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
}

type RabbitMQConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Url          string `mapstructure:"url"`
	Exchange     string `mapstructure:"exchange"`
	ExchangeType string `mapstructure:"exchange-type"`
	RoutingKey   string `mapstructure:"routing-key"`
	Durable      bool   `mapstructure:"durable"`
	AutoDelete   bool   `mapstructure:"auto-delete"`
	Internal     bool   `mapstructure:"internal"`
	NoWait       bool   `mapstructure:"no-wait"`
}

type Redis struct {
	Url      string `mapstructure:"url"`
	Password string `mapstructure:"password"`
	Db       int    `mapstructure:"db"`
}

type SecuritySettings struct {
	DashboardRoles []string `mapstructure:"dashboard-roles"`
	AllowedOrigins []string `mapstructure:"allowed-origins"`
}

type ServerSettings struct {
	Port         string `mapstructure:"port"`
	Mode         string `mapstructure:"mode"`
	ReadTimeout  int    `mapstructure:"read-timeout"`
	WriteTimeout int    `mapstructure:"write-timeout"`
	IdleTimeout  int    `mapstructure:"idle-timeout"`
}

func Load() *Configuration {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using process environment")
	}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := read(path)
	if err != nil {
		logrus.Panicf("Error reading config file, %s", err)
	}
	logrus.Info("Configuration loaded")

	applyEnv(cfg)
	return cfg
}

// applyEnv overrides file settings with environment variables.
func applyEnv(cfg *Configuration) {
	if apiURL := os.Getenv("SIGEA_API_URL"); apiURL != "" {
		cfg.Backend.URL = strings.TrimRight(apiURL, "/")
	}

	if timeout := os.Getenv("SIGEA_API_TIMEOUT"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			cfg.Backend.Timeout = t
		} else {
			logrus.WithField("value", timeout).Warn("Invalid SIGEA_API_TIMEOUT, keeping configured value")
		}
	}

	if paymentURL := os.Getenv("SIGEA_PAYMENT_URL"); paymentURL != "" {
		cfg.Backend.PaymentURL = paymentURL
	}

	if store := os.Getenv("SESSION_STORE"); store != "" {
		cfg.Session.Store = store
	}

	mongoUri := os.Getenv("MONGODB_URL")
	if mongoUri != "" {
		cfg.Database.Url = mongoUri
	}

	dbName := os.Getenv("DB_NAME")
	if dbName != "" {
		cfg.Database.DbName = dbName
	}

	redisUrl := os.Getenv("REDIS_URL")
	if redisUrl != "" {
		cfg.Redis.Url = redisUrl
	}

	redisDB := os.Getenv("REDIS_DB")
	if redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			cfg.Redis.Db = db
		}
	}

	rabbitmqUrl := os.Getenv("RABBITMQ_URL")
	if rabbitmqUrl != "" {
		cfg.Messaging.RabbitMQ.Url = rabbitmqUrl
		cfg.Messaging.RabbitMQ.Enabled = true
	}
}

func read(path string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yml")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Backend.URL = strings.TrimRight(config.Backend.URL, "/")
	return &config, nil
}
