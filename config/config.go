package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath = "config/config.yaml"
	defaultPort       = 8080
	DefaultBucket     = "camera-validation-images"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	DB      DBConfig      `yaml:"db"`
	Redis   RedisConfig   `yaml:"redis"`
	Log     LogConfig     `yaml:"log"`
	Auth    AuthConfig    `yaml:"auth"`
	Storage StorageConfig `yaml:"storage"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
	// PublicBaseURL 用于拼接对象的公开地址和签名地址
	PublicBaseURL string `yaml:"public_base_url"`
}

type DBConfig struct {
	Driver   string `yaml:"driver"` // postgres | mysql | sqlite
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	// DSN 非空时直接使用，sqlite 时为文件路径
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	Password            string `yaml:"password"`
	DB                  int    `yaml:"db"`
	SignedURLTTLSeconds int    `yaml:"signed_url_ttl_seconds"`
}

type LogConfig struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Audience  string `yaml:"audience"`
}

type StorageConfig struct {
	Backend       string     `yaml:"backend"` // local | sftp
	Bucket        string     `yaml:"bucket"`
	LocalRoot     string     `yaml:"local_root"`
	SigningSecret string     `yaml:"signing_secret"`
	SFTP          SFTPConfig `yaml:"sftp"`
}

type SFTPConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	PrivateKeyPath string `yaml:"private_key_path"`
	KnownHostsPath string `yaml:"known_hosts_path"`
	Root           string `yaml:"root"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

var AppConfig *Config

func configPath() string {
	if path := strings.TrimSpace(os.Getenv("CONFIG_PATH")); path != "" {
		return path
	}
	return defaultConfigPath
}

// InitConfig 读取 yaml 配置，再用 .env / 环境变量覆盖敏感字段
func InitConfig() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env failed: %v", err)
	}

	path := configPath()
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed (%s): %v", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return err
	}

	AppConfig = cfg
	return nil
}

// Parse 解析配置内容并补齐默认值，测试中可直接使用
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %v", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate 签名地址有效期为一小时，缓存时间必须更短
func validate(cfg *Config) error {
	if cfg.Redis.SignedURLTTLSeconds >= 3600 {
		return fmt.Errorf("redis.signed_url_ttl_seconds must be less than 3600, got %d", cfg.Redis.SignedURLTTLSeconds)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.DB.Password, "DB_PASSWORD")
	overrideString(&cfg.DB.DSN, "DB_DSN")
	overrideString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	overrideString(&cfg.Storage.SigningSecret, "STORAGE_SIGNING_SECRET")
	overrideString(&cfg.Redis.Password, "REDIS_PASSWORD")

	if raw := strings.TrimSpace(os.Getenv("PORT")); raw != "" {
		if port, err := strconv.Atoi(raw); err == nil {
			cfg.Server.Port = port
		}
	}
}

func overrideString(target *string, key string) {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}
	if strings.TrimSpace(cfg.Server.PublicBaseURL) == "" {
		cfg.Server.PublicBaseURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}
	cfg.Server.PublicBaseURL = strings.TrimRight(cfg.Server.PublicBaseURL, "/")

	if strings.TrimSpace(cfg.DB.Driver) == "" {
		cfg.DB.Driver = "postgres"
	}
	if strings.TrimSpace(cfg.DB.SSLMode) == "" {
		cfg.DB.SSLMode = "disable"
	}

	if cfg.Redis.SignedURLTTLSeconds <= 0 {
		cfg.Redis.SignedURLTTLSeconds = 3000
	}

	if strings.TrimSpace(cfg.Storage.Backend) == "" {
		cfg.Storage.Backend = "local"
	}
	if strings.TrimSpace(cfg.Storage.Bucket) == "" {
		cfg.Storage.Bucket = DefaultBucket
	}
	if strings.TrimSpace(cfg.Storage.LocalRoot) == "" {
		cfg.Storage.LocalRoot = "data/storage"
	}
	if strings.TrimSpace(cfg.Storage.SigningSecret) == "" {
		cfg.Storage.SigningSecret = cfg.Auth.JWTSecret
	}
	if cfg.Storage.SFTP.Port == 0 {
		cfg.Storage.SFTP.Port = 22
	}
	if cfg.Storage.SFTP.TimeoutSeconds <= 0 {
		cfg.Storage.SFTP.TimeoutSeconds = 15
	}
}
