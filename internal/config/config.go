package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	OpenAI struct {
		APIKey          string `yaml:"apiKey"`
		Model           string `yaml:"model"`
		TranscribeModel string `yaml:"transcribeModel"`
	} `yaml:"openai"`

	Captions struct {
		BaseURL           string `yaml:"baseURL"`
		PreferredLanguage string `yaml:"preferredLanguage"`
	} `yaml:"captions"`

	Analysis struct {
		FrameIntervalSeconds   float64  `yaml:"frameIntervalSeconds"`
		MaxDurationSeconds     float64  `yaml:"maxDurationSeconds"`
		AudioWindowSeconds     float64  `yaml:"audioWindowSeconds"`
		AnchorWaitSeconds      int      `yaml:"anchorWaitSeconds"`
		AnchorPollSeconds      int      `yaml:"anchorPollSeconds"`
		FullWaitSeconds        int      `yaml:"fullWaitSeconds"`
		FullPollSeconds        int      `yaml:"fullPollSeconds"`
		TargetedLeadSeconds    float64  `yaml:"targetedLeadSeconds"`
		TargetedWindowSeconds  float64  `yaml:"targetedWindowSeconds"`
		TargetedStepSeconds    float64  `yaml:"targetedStepSeconds"`
		MaxTargetedConcurrency int      `yaml:"maxTargetedConcurrency"`
		LaughterKeywords       []string `yaml:"laughterKeywords"`
		SuspiciousKeywords     []string `yaml:"suspiciousKeywords"`
	} `yaml:"analysis"`

	// APIKeys maps channel id to its bearer key. Auth is disabled when empty.
	APIKeys map[string]string `yaml:"apiKeys"`
}

// Load reads config.yaml and applies defaults for unset tuning knobs.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	a := &c.Analysis
	if a.FrameIntervalSeconds <= 0 {
		a.FrameIntervalSeconds = 10
	}
	if a.MaxDurationSeconds <= 0 {
		a.MaxDurationSeconds = 600
	}
	if a.AudioWindowSeconds <= 0 {
		a.AudioWindowSeconds = 30
	}
	if a.AnchorWaitSeconds <= 0 {
		a.AnchorWaitSeconds = 300
	}
	if a.AnchorPollSeconds <= 0 {
		a.AnchorPollSeconds = 1
	}
	if a.FullWaitSeconds <= 0 {
		a.FullWaitSeconds = 600
	}
	if a.FullPollSeconds <= 0 {
		a.FullPollSeconds = 2
	}
	if a.TargetedLeadSeconds <= 0 {
		a.TargetedLeadSeconds = 5
	}
	if a.TargetedWindowSeconds <= 0 {
		a.TargetedWindowSeconds = 60
	}
	if a.TargetedStepSeconds <= 0 {
		a.TargetedStepSeconds = 0.5
	}
	if a.MaxTargetedConcurrency <= 0 {
		a.MaxTargetedConcurrency = 8
	}
	if len(a.LaughterKeywords) == 0 {
		a.LaughterKeywords = []string{"[laughter]", "[laughing]", "haha", "hahaha", "lol", "lmao"}
	}
	if len(a.SuspiciousKeywords) == 0 {
		a.SuspiciousKeywords = []string{"gift card", "giveaway", "redeem", "free money", "claim your"}
	}
}

// MySQLDSN builds the MySQL connection string.
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds the Postgres connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}
