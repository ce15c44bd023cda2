// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	SQLitePath              string `yaml:"sqlite_path" env:"SQLITE_PATH" env-default:"subscription-admin.db"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	Admin                   `yaml:"admin"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env:"HTTP_TIMEOUT" env-default:"30s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis.
// Пустой адрес означает работу без кеша.
type RedisConnection struct {
	Addr        string        `yaml:"addr" env:"REDIS_ADDR"`
	Password    string        `yaml:"password" env:"REDIS_PASSWORD"`
	User        string        `yaml:"user" env:"REDIS_USER"`
	DB          int           `yaml:"db" env:"REDIS_DB"`
	MaxRetries  int           `yaml:"max_retries" env:"REDIS_MAX_RETRIES" env-default:"3"`
	DialTimeout time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
	Timeout     time.Duration `yaml:"timeout" env:"REDIS_TIMEOUT" env-default:"3s"`
}

// Admin структура с настройками административной поверхности:
// телеграм-бот, список администраторов и общий секрет REST API.
type Admin struct {
	BotToken          string  `yaml:"bot_token" env:"ADMIN_BOT_TOKEN"`
	BotUsername       string  `yaml:"bot_username" env:"ADMIN_BOT_USERNAME" env-default:"subscriptionadminbot"`
	ServiceBotUsername string `yaml:"service_bot_username" env:"BOT_USERNAME" env-default:"servicebot"`
	AdminIDs          []int64 `yaml:"admin_ids" env:"ADMIN_USER_IDS"`
	APIKey            string  `yaml:"api_key" env:"ADMIN_API_KEY"`
	SubscriptionPrice float64 `yaml:"subscription_price" env:"SUBSCRIPTION_PRICE" env-default:"399"`
	SubscriptionDays  int     `yaml:"subscription_days" env:"SUBSCRIPTION_DAYS" env-default:"21"`
	Currency          string  `yaml:"currency" env:"SUBSCRIPTION_CURRENCY" env-default:"PKR"`
}

// MustLoad функция для загрузки конфига. Читает yaml по пути из CONFIG_PATH
// с переопределением из окружения; без CONFIG_PATH читает только окружение.
func MustLoad() *Config {
	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("cannot read config from environment: %s", err)
		}
		return &cfg
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

// IsAdmin сообщает, входит ли идентификатор в список администраторов.
func (a Admin) IsAdmin(id int64) bool {
	for _, adminID := range a.AdminIDs {
		if adminID == id {
			return true
		}
	}
	return false
}
