package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Automation AutomationConfig `yaml:"automation"`
	Platforms  []PlatformConfig `yaml:"platforms"`
	Store      StoreConfig      `yaml:"store"`
	Minio      MinioConfig      `yaml:"minio"`
	LLM        LLMConfig        `yaml:"llm"`
	Auth       AuthConfig       `yaml:"auth"`
	Users      []User           `yaml:"users"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// AutomationConfig governs pacing, retry, and rotation policy for
// application runs. Durations accept Go duration strings ("5m", "30s").
type AutomationConfig struct {
	ApplicationsPerDay       int           `yaml:"applications_per_day"`
	DelayBetweenApplications time.Duration `yaml:"delay_between_applications"`
	MinConfidenceThreshold   float64       `yaml:"min_confidence_threshold"`
	MaxRetryAttempts         int           `yaml:"max_retry_attempts"`
	RotationAfterActions     int           `yaml:"rotation_after_actions"`
	RotationInterval         time.Duration `yaml:"rotation_interval"`
	Proxies                  []ProxyConfig `yaml:"proxies"`
}

// PlatformConfig describes one job board the service applies through.
type PlatformConfig struct {
	Name     string `yaml:"name"`
	BaseURL  string `yaml:"base_url"`
	APIToken string `yaml:"api_token"`
}

type ProxyConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Protocol string `yaml:"protocol"`
}

type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

type MinioConfig struct {
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Bucket     string `yaml:"bucket"`
	UseSSL     bool   `yaml:"use_ssl"`
	ExpireDays int    `yaml:"expire_days"`
}

type LLMConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

var GlobalConfig *Config

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Automation.ApplicationsPerDay == 0 {
		cfg.Automation.ApplicationsPerDay = 20
	}
	if cfg.Automation.DelayBetweenApplications == 0 {
		cfg.Automation.DelayBetweenApplications = 5 * time.Minute
	}
	if cfg.Automation.MinConfidenceThreshold == 0 {
		cfg.Automation.MinConfidenceThreshold = 0.7
	}
	if cfg.Automation.MaxRetryAttempts == 0 {
		cfg.Automation.MaxRetryAttempts = 3
	}
	if cfg.Automation.RotationAfterActions == 0 {
		cfg.Automation.RotationAfterActions = 10
	}
	if cfg.Automation.RotationInterval == 0 {
		cfg.Automation.RotationInterval = 30 * time.Minute
	}
	if cfg.Store.DatabasePath == "" {
		cfg.Store.DatabasePath = "jobdroid.db"
	}
	if cfg.Minio.ExpireDays == 0 {
		cfg.Minio.ExpireDays = 7
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gemini-2.5-flash"
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "GEMINI_API_KEY"
	}
	if cfg.Auth.TokenExpireHours == 0 {
		cfg.Auth.TokenExpireHours = 24
	}

	GlobalConfig = &cfg
	return &cfg, nil
}

// FindUser finds a user by username
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}
