package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Enabled       bool   `yaml:"enabled"`
		Endpoint      string `yaml:"endpoint"`
		AccessKey     string `yaml:"accessKey"`
		SecretKey     string `yaml:"secretKey"`
		BucketName    string `yaml:"bucketName"`
		Region        string `yaml:"region"`
		UseSSL        bool   `yaml:"useSSL"`
		Presign       bool   `yaml:"presign"`
		PresignExpiry int    `yaml:"presignExpiryMinutes"`
	} `yaml:"minio"`

	Storage struct {
		// Base URL attachments are composed from when MinIO is disabled:
		// <attachmentBaseURL>/<incidentID>/<filename>
		AttachmentBaseURL string `yaml:"attachmentBaseURL"`
	} `yaml:"storage"`

	AI struct {
		OCR struct {
			Provider       string `yaml:"provider"` // http | openai
			BaseURL        string `yaml:"baseURL"`
			TimeoutSeconds int    `yaml:"timeoutSeconds"`
			OpenAIAPIKey   string `yaml:"openaiApiKey"`
			OpenAIModel    string `yaml:"openaiModel"`
		} `yaml:"ocr"`
		Classifier struct {
			BaseURL        string `yaml:"baseURL"`
			TimeoutSeconds int    `yaml:"timeoutSeconds"`
		} `yaml:"classifier"`
	} `yaml:"ai"`

	Auth struct {
		Clients []struct {
			Tenant string `yaml:"tenant"`
			APIKey string `yaml:"apiKey"`
			Role   string `yaml:"role"`
		} `yaml:"clients"`
		AllowedRoles []string `yaml:"allowedRoles"`
	} `yaml:"auth"`

	RateLimit struct {
		Capacity   int `yaml:"capacity"`
		RefillRate int `yaml:"refillRate"`
	} `yaml:"rateLimit"`
}

// Load reads the yaml config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Helper to build MySQL DSN
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper to build Postgres DSN
func (c *Config) PostgresDSN() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		sslMode,
	)
}

// OCRTimeout returns the OCR client timeout, defaulting to 30s
func (c *Config) OCRTimeout() time.Duration {
	if c.AI.OCR.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.AI.OCR.TimeoutSeconds) * time.Second
}

// ClassifierTimeout returns the classifier client timeout, defaulting to 30s
func (c *Config) ClassifierTimeout() time.Duration {
	if c.AI.Classifier.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.AI.Classifier.TimeoutSeconds) * time.Second
}
