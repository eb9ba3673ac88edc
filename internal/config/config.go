package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Kafka struct {
		Brokers        []string
		RiskTopic      string
		SensorTopic    string
		GroupID        string
		ReconnectDelay time.Duration
	}
	DB struct {
		DSN string
	}
	API struct {
		Port     string
		BasePath string
	}
	Logging struct {
		Dir   string
		Level string
	}
	Email struct {
		SMTPServer string
		SMTPPort   int
		Username   string
		Password   string
	}
	SMS struct {
		AccountSID string
		AuthToken  string
		FromNumber string
	}
	Webhook struct {
		URL     string
		Timeout time.Duration
	}
	Notify struct {
		Recipients        []string
		EmergencyContacts []string
		MaxRetries        int
	}
	Escalation struct {
		Enabled            bool
		CheckInterval      time.Duration
		MaxLevel           int
		BusinessHoursOnly  bool
		BusinessHoursStart int
		BusinessHoursEnd   int
		WeekendEscalation  bool
	}
	Actions struct {
		HourlyOperationalCost float64
		SafetyMultiplier      float64
	}
}

// Load reads environment variables, applies defaults, and returns a Config.
func Load() (Config, error) {
	// Load .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config

	// Kafka settings
	cfg.Kafka.Brokers = splitCSV(os.Getenv("KAFKA_BROKERS"))
	cfg.Kafka.RiskTopic = getEnv("KAFKA_TOPIC_RISK", "risk.assessments")
	cfg.Kafka.SensorTopic = getEnv("KAFKA_TOPIC_SENSOR", "sensor.events")
	cfg.Kafka.GroupID = getEnv("KAFKA_GROUP_ID", "alert-service")
	cfg.Kafka.ReconnectDelay = time.Duration(getEnvInt("KAFKA_RECONNECT_DELAY_SECONDS", 5)) * time.Second

	// Database DSN
	cfg.DB.DSN = os.Getenv("DB_DSN")

	// API settings
	cfg.API.Port = getEnv("API_PORT", ":8080")
	cfg.API.BasePath = getEnv("API_BASE_PATH", "/api/v1")

	// Logging
	cfg.Logging.Dir = getEnv("LOG_DIR", "logs")
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")

	// Email settings
	cfg.Email.SMTPServer = os.Getenv("EMAIL_SMTP_SERVER")
	cfg.Email.SMTPPort = getEnvInt("EMAIL_SMTP_PORT", 587)
	cfg.Email.Username = os.Getenv("EMAIL_USERNAME")
	cfg.Email.Password = os.Getenv("EMAIL_PASSWORD")

	// SMS settings (Twilio)
	cfg.SMS.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	cfg.SMS.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	cfg.SMS.FromNumber = os.Getenv("TWILIO_FROM_NUMBER")

	// Webhook settings
	cfg.Webhook.URL = os.Getenv("WEBHOOK_URL")
	cfg.Webhook.Timeout = time.Duration(getEnvInt("WEBHOOK_TIMEOUT_SECONDS", 10)) * time.Second

	// Notification fan-out
	cfg.Notify.Recipients = splitCSV(os.Getenv("NOTIFY_RECIPIENTS"))
	cfg.Notify.EmergencyContacts = splitCSV(os.Getenv("NOTIFY_EMERGENCY_CONTACTS"))
	cfg.Notify.MaxRetries = getEnvInt("NOTIFY_MAX_RETRIES", 3)

	// Escalation policy
	cfg.Escalation.Enabled = getEnvBool("ESCALATION_ENABLED", true)
	cfg.Escalation.CheckInterval = time.Duration(getEnvInt("ESCALATION_CHECK_INTERVAL_SECONDS", 60)) * time.Second
	cfg.Escalation.MaxLevel = getEnvInt("ESCALATION_MAX_LEVEL", 3)
	cfg.Escalation.BusinessHoursOnly = getEnvBool("ESCALATION_BUSINESS_HOURS_ONLY", false)
	cfg.Escalation.BusinessHoursStart = getEnvInt("ESCALATION_BUSINESS_HOURS_START", 8)
	cfg.Escalation.BusinessHoursEnd = getEnvInt("ESCALATION_BUSINESS_HOURS_END", 18)
	cfg.Escalation.WeekendEscalation = getEnvBool("ESCALATION_WEEKEND", true)

	// Recommendation engine economics
	cfg.Actions.HourlyOperationalCost = getEnvFloat("ACTION_HOURLY_OPERATIONAL_COST", 10000)
	cfg.Actions.SafetyMultiplier = getEnvFloat("ACTION_SAFETY_MULTIPLIER", 100)

	// Validate required settings
	missing := []string{}
	if len(cfg.Kafka.Brokers) == 0 {
		missing = append(missing, "KAFKA_BROKERS")
	}
	if cfg.DB.DSN == "" {
		missing = append(missing, "DB_DSN")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configurations: %v", missing)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
