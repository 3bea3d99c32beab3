// config - источник загрузки конфигурации клиента портфолио.
//
// Источники (по убыванию приоритета):
//  1. явный путь --config;
//  2. CONFIG_PATH;
//  3. ./local.yaml;
//  4. только ENV (cleanenv).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Допустимые бэкенды хранилищ.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"

	ChatMemory = "memory"
	ChatMongo  = "mongo"
)

type Config struct {
	Env      string        `yaml:"env" env:"ENV" env-default:"local"`
	API      APIConfig     `yaml:"api"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
	Store    StoreConfig   `yaml:"store"`
	Chat     ChatConfig    `yaml:"chat"`
	Export   ExportConfig  `yaml:"export"`
	Metrics  MetricsConfig `yaml:"metrics"`
}

// APIConfig — адрес REST-бэкенда и пути эндпойнтов.
type APIConfig struct {
	BaseURL   string     `yaml:"base_url"   env:"API_BASE_URL"   env-default:"http://localhost:8000/api"`
	UserAgent string     `yaml:"user_agent" env:"API_USER_AGENT" env-default:"portfolio-cli"`
	Paths     PathConfig `yaml:"paths"`
}

// PathConfig — пути эндпойнтов относительно BaseURL.
// Login/Register/Logout/Refresh никогда не запускают обновление токена.
type PathConfig struct {
	Login        string `yaml:"login"         env:"API_PATH_LOGIN"         env-default:"/auth/login/"`
	Register     string `yaml:"register"      env:"API_PATH_REGISTER"      env-default:"/auth/register/"`
	Logout       string `yaml:"logout"        env:"API_PATH_LOGOUT"        env-default:"/auth/logout/"`
	Refresh      string `yaml:"refresh"       env:"API_PATH_REFRESH"       env-default:"/auth/token/refresh/"`
	Me           string `yaml:"me"            env:"API_PATH_ME"            env-default:"/auth/me/"`
	Resumes      string `yaml:"resumes"       env:"API_PATH_RESUMES"       env-default:"/resumes/"`
	ResumeUpload string `yaml:"resume_upload" env:"API_PATH_RESUME_UPLOAD" env-default:"/resumes/upload/"`
	Portfolio    string `yaml:"portfolio"     env:"API_PATH_PORTFOLIO"     env-default:"/portfolio/"`
	CoverLetters string `yaml:"cover_letters" env:"API_PATH_COVER_LETTERS" env-default:"/cover-letters/"`
	Generate     string `yaml:"generate"      env:"API_PATH_GENERATE"      env-default:"/cover-letters/generate/"`
	Chat         string `yaml:"chat"          env:"API_PATH_CHAT"          env-default:"/chat/"`
}

// TimeoutConfig — таймауты исходящих вызовов.
// Request навешивается на каждый запрос без собственного дедлайна,
// Refresh ограничивает вызов обновления токена.
type TimeoutConfig struct {
	Request time.Duration `yaml:"request" env:"TIMEOUT_REQUEST" env-default:"30s"`
	Refresh time.Duration `yaml:"refresh" env:"TIMEOUT_REFRESH" env-default:"10s"`
}

// StoreConfig — где хранится пара токенов и запись пользователя.
type StoreConfig struct {
	Backend     string `yaml:"backend"      env:"STORE_BACKEND"      env-default:"file"`
	Path        string `yaml:"path"         env:"STORE_PATH"`
	RedisURL    string `yaml:"redis_url"    env:"STORE_REDIS_URL"`
	RedisPrefix string `yaml:"redis_prefix" env:"STORE_REDIS_PREFIX" env-default:"portfolio:session:"`
}

// ChatConfig — хранилище истории диалога с ассистентом.
type ChatConfig struct {
	Backend    string `yaml:"backend"    env:"CHAT_BACKEND"    env-default:"memory"`
	MongoURL   string `yaml:"mongo_url"  env:"CHAT_MONGO_URL"`
	Collection string `yaml:"collection" env:"CHAT_COLLECTION" env-default:"chat_messages"`
	MaxHistory int    `yaml:"max_history" env:"CHAT_MAX_HISTORY" env-default:"20"`
}

// ExportConfig — печать сопроводительных писем в PDF и выгрузка в S3.
type ExportConfig struct {
	ChromePath string        `yaml:"chrome_path" env:"CHROME_PATH"`
	Template   string        `yaml:"template"    env:"EXPORT_TEMPLATE" env-default:"classic"`
	Timeout    time.Duration `yaml:"timeout"     env:"EXPORT_TIMEOUT"  env-default:"60s"`
	S3         S3Config      `yaml:"s3"`
}

// S3Config — опциональная выгрузка PDF в MinIO/S3. Пустой Endpoint отключает выгрузку.
type S3Config struct {
	Endpoint     string        `yaml:"endpoint"      env:"S3_ENDPOINT"`
	Bucket       string        `yaml:"bucket"        env:"S3_BUCKET"      env-default:"cover-letters"`
	RootUser     string        `yaml:"root_user"     env:"S3_ROOT_USER"`
	RootPassword string        `yaml:"root_password" env:"S3_ROOT_PASSWORD"`
	PublicURL    string        `yaml:"public_url"    env:"S3_PUBLIC_URL"`
	PresignTTL   time.Duration `yaml:"presign_ttl"   env:"S3_PRESIGN_TTL" env-default:"24h"`
}

// MetricsConfig — адрес для /metrics. Пустой адрес отключает сервер метрик.
type MetricsConfig struct {
	Addr string `yaml:"addr" env:"METRICS_ADDR"`
}

// MustLoad — паника при ошибке загрузки.
func MustLoad(path string) *Config {
	cfg, err := Load(path)

	if err != nil {
		panic(err)
	}

	return cfg
}

func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		return validated(&cfg)
	}

	// 1) --config
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml
	if _, err := os.Stat("local.yaml"); err == nil {
		if err := cleanenv.ReadConfig("local.yaml", &cfg); err != nil {
			return nil, fmt.Errorf("failed to read local.yaml: %w", err)
		}

		return validated(&cfg)
	}

	// 4) только ENV
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return validated(&cfg)
}

// validated проверяет сочетания полей, которые cleanenv проверить не может.
func validated(cfg *Config) (*Config, error) {
	switch cfg.Store.Backend {
	case StoreMemory, StoreFile:
	case StoreRedis:
		if cfg.Store.RedisURL == "" {
			return nil, fmt.Errorf("store.redis_url is required for redis backend")
		}
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	switch cfg.Chat.Backend {
	case ChatMemory:
	case ChatMongo:
		if cfg.Chat.MongoURL == "" {
			return nil, fmt.Errorf("chat.mongo_url is required for mongo backend")
		}
	default:
		return nil, fmt.Errorf("unknown chat backend %q", cfg.Chat.Backend)
	}

	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("api.base_url is empty")
	}

	return cfg, nil
}
