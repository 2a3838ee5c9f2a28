package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full process configuration, loaded from YAML and then
// overridden from the environment.
type Config struct {
	Server ServerConfig `yaml:"server"`
	DB     DBConfig     `yaml:"db"`
	MQ     MQConfig     `yaml:"mq"`
	Redis  RedisConfig  `yaml:"redis"`
	JWT    JWTConfig    `yaml:"jwt"`
	Mail   MailConfig   `yaml:"mail"`
	App    AppConfig    `yaml:"app"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type MQConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// MailConfig configures the outgoing mail transport. Driver is either
// "smtp" or "log"; the log driver only writes the message to the logger.
type MailConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// AppConfig holds application-level settings: the public base URL used in
// verification links and the timezone reminder triggers are evaluated in.
type AppConfig struct {
	BaseURL  string `yaml:"base_url"`
	Timezone string `yaml:"timezone"`
}

// Load reads the YAML file at path and applies environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideFromEnv()
	return &cfg, nil
}

func (c *Config) overrideFromEnv() {
	setString(&c.Server.Port, "SERVER_PORT")
	setString(&c.DB.Host, "DB_HOST")
	setInt(&c.DB.Port, "DB_PORT")
	setString(&c.DB.User, "DB_USER")
	setString(&c.DB.Password, "DB_PASSWORD")
	setString(&c.DB.Name, "DB_NAME")
	setString(&c.MQ.URL, "MQ_URL")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setInt(&c.Redis.DB, "REDIS_DB")
	setString(&c.JWT.Secret, "JWT_SECRET")
	setString(&c.Mail.Driver, "MAIL_DRIVER")
	setString(&c.Mail.Host, "MAIL_HOST")
	setInt(&c.Mail.Port, "MAIL_PORT")
	setString(&c.Mail.Username, "MAIL_USERNAME")
	setString(&c.Mail.Password, "MAIL_PASSWORD")
	setString(&c.Mail.From, "MAIL_FROM")
	setString(&c.App.BaseURL, "APP_BASE_URL")
	setString(&c.App.Timezone, "APP_TIMEZONE")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// Path returns the config file path from CONFIG_PATH, or the default.
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config/base.yaml"
}
