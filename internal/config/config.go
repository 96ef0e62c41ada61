package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/scoring"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	SES       SESConfig       `yaml:"ses"`
	Sequencer SequencerConfig `yaml:"sequencer"`
	Calendar  CalendarConfig  `yaml:"calendar"`
	Scoring   scoring.Config  `yaml:"scoring"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with environment override
func (c ServerConfig) GetHost() string {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds the Postgres connection settings
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds the Redis connection used for booking locks
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Enabled  bool   `yaml:"enabled"`
}

// SESConfig holds AWS SES credentials for outbound email
type SESConfig struct {
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	FromName  string `yaml:"from_name"`
	FromEmail string `yaml:"from_email"`
	// OwnerEmail receives task and alert notifications that name no assignee.
	OwnerEmail string `yaml:"owner_email"`
	Enabled    bool   `yaml:"enabled"`
}

// SequencerConfig holds campaign poll-loop settings
type SequencerConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
	BatchSize       int `yaml:"batch_size"`
}

// Interval returns the poll interval as a duration
func (c SequencerConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// CalendarConfig holds scheduling settings
type CalendarConfig struct {
	CalendarID            string `yaml:"calendar_id"`
	StartHour             int    `yaml:"start_hour"`
	EndHour               int    `yaml:"end_hour"`
	BufferMinutes         int    `yaml:"buffer_minutes"`
	ReminderLeadHours     int    `yaml:"reminder_lead_hours"`
	ReminderIntervalMins  int    `yaml:"reminder_interval_mins"`
}

// ReminderLead returns how far ahead of a meeting reminders fire.
func (c CalendarConfig) ReminderLead() time.Duration {
	return time.Duration(c.ReminderLeadHours) * time.Hour
}

// ReminderInterval returns the reminder poll cadence.
func (c CalendarConfig) ReminderInterval() time.Duration {
	return time.Duration(c.ReminderIntervalMins) * time.Minute
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Scoring starts from the reference tuning so a partial scoring
	// section in config.yaml overrides only what it names.
	cfg := Config{Scoring: scoring.DefaultConfig()}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Database.URL == "" {
		cfg.Database.URL = "postgres://localhost:5432/crm?sslmode=disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.SES.Region == "" {
		cfg.SES.Region = "us-east-1"
	}
	if cfg.SES.FromName == "" {
		cfg.SES.FromName = "Sales Team"
	}
	if cfg.Sequencer.IntervalSeconds == 0 {
		cfg.Sequencer.IntervalSeconds = 30
	}
	if cfg.Sequencer.BatchSize == 0 {
		cfg.Sequencer.BatchSize = 100
	}
	if cfg.Calendar.CalendarID == "" {
		cfg.Calendar.CalendarID = "primary"
	}
	if cfg.Calendar.StartHour == 0 {
		cfg.Calendar.StartHour = 9
	}
	if cfg.Calendar.EndHour == 0 {
		cfg.Calendar.EndHour = 17
	}
	if cfg.Calendar.BufferMinutes == 0 {
		cfg.Calendar.BufferMinutes = 15
	}
	if cfg.Calendar.ReminderLeadHours == 0 {
		cfg.Calendar.ReminderLeadHours = 24
	}
	if cfg.Calendar.ReminderIntervalMins == 0 {
		cfg.Calendar.ReminderIntervalMins = 15
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file (if present) is read first, so secrets can live in .env
// locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
		cfg.Redis.Enabled = true
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	if accessKey := os.Getenv("AWS_SES_ACCESS_KEY"); accessKey != "" {
		cfg.SES.AccessKey = accessKey
		cfg.SES.Enabled = true
	}
	if secretKey := os.Getenv("AWS_SES_SECRET_KEY"); secretKey != "" {
		cfg.SES.SecretKey = secretKey
	}
	if region := os.Getenv("AWS_SES_REGION"); region != "" {
		cfg.SES.Region = region
	}
	if from := os.Getenv("SES_FROM_EMAIL"); from != "" {
		cfg.SES.FromEmail = from
	}
	if owner := os.Getenv("OWNER_EMAIL"); owner != "" {
		cfg.SES.OwnerEmail = owner
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	return cfg, nil
}
