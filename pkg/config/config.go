package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	DatabaseURL string
	JWTSecret   string
	Port        string
	Environment string
	LogLevel    string
	LogFormat   string
	// Voice AI tool endpoints authenticate with a shared key
	ToolAPIKey string
	// Analytics self-correction: "clamp" or "report"
	AnalyticsReconcileMode string

	// Alert email (SMTP relay, Resend by default)
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	AlertFromEmail string
	AlertEmailTo   string

	// Alert SMS (Twilio)
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	AlertSMSTo       string

	// Health monitor
	HealthPingTargets         string
	HealthProbeTimeoutSeconds int
	AlertDebounceMinutes      int

	// Batch jobs
	IntentBackfillLimit int
	FitWebsiteProbe     bool

	// Security configuration
	AllowedOrigins  string
	TrustedProxies  string
	EnableRateLimit bool
	RateLimitRPS    float64
	RateLimitBurst  int
	MaxRequestSize  int64
}

// New creates a new configuration instance from environment variables
func New() *Config {
	return &Config{
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		JWTSecret:              getEnv("JWT_SECRET", ""),
		Port:                   getEnv("PORT", "8080"),
		Environment:            getEnv("ENV", "development"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogFormat:              getEnv("LOG_FORMAT", ""),
		ToolAPIKey:             getEnv("TOOL_API_KEY", ""),
		AnalyticsReconcileMode: getEnv("ANALYTICS_RECONCILE_MODE", "clamp"),

		SMTPHost:       getEnv("SMTP_HOST", "smtp.resend.com"),
		SMTPPort:       getEnvAsInt("SMTP_PORT", 465),
		SMTPUsername:   getEnv("SMTP_USERNAME", "resend"),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		AlertFromEmail: getEnv("ALERT_FROM_EMAIL", ""),
		AlertEmailTo:   getEnv("ALERT_EMAIL_TO", ""),

		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: getEnv("TWILIO_FROM_NUMBER", ""),
		AlertSMSTo:       getEnv("ALERT_SMS_TO", ""),

		HealthPingTargets:         getEnv("HEALTH_PING_TARGETS", ""),
		HealthProbeTimeoutSeconds: getEnvAsInt("HEALTH_PROBE_TIMEOUT_SECONDS", 10),
		AlertDebounceMinutes:      getEnvAsInt("ALERT_DEBOUNCE_MINUTES", 5),

		IntentBackfillLimit: getEnvAsInt("INTENT_BACKFILL_LIMIT", 200),
		FitWebsiteProbe:     getEnv("FIT_WEBSITE_PROBE", "false") == "true",

		AllowedOrigins:  getEnv("ALLOWED_ORIGINS", ""),
		TrustedProxies:  getEnv("TRUSTED_PROXIES", ""),
		EnableRateLimit: getEnv("ENABLE_RATE_LIMIT", "true") == "true",
		RateLimitRPS:    getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:  getEnvAsInt("RATE_LIMIT_BURST", 20),
		MaxRequestSize:  getEnvAsInt64("MAX_REQUEST_SIZE", 10*1024*1024), // 10MB default
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HasEmailAlerts returns true if the alert email channel is configured
func (c *Config) HasEmailAlerts() bool {
	return c.SMTPPassword != "" && c.AlertFromEmail != "" && c.AlertEmailTo != ""
}

// HasSMSAlerts returns true if the alert SMS channel is configured
func (c *Config) HasSMSAlerts() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != "" && c.AlertSMSTo != ""
}

// AlertDebounce returns the minimum spacing between two alerts for the same service
func (c *Config) AlertDebounce() time.Duration {
	if c.AlertDebounceMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.AlertDebounceMinutes) * time.Minute
}

// HealthProbeTimeout returns the per-probe timeout
func (c *Config) HealthProbeTimeout() time.Duration {
	if c.HealthProbeTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.HealthProbeTimeoutSeconds) * time.Second
}

// GetPingTargets parses HEALTH_PING_TARGETS ("name=url,name=url") into a map.
// Entries without a name or url are ignored.
func (c *Config) GetPingTargets() map[string]string {
	targets := make(map[string]string)
	if c.HealthPingTargets == "" {
		return targets
	}
	for _, pair := range strings.Split(c.HealthPingTargets, ",") {
		name, url, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		name, url = strings.TrimSpace(name), strings.TrimSpace(url)
		if name == "" || url == "" {
			continue
		}
		targets[name] = url
	}
	return targets
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// GetAllowedOrigins returns a slice of allowed CORS origins
func (c *Config) GetAllowedOrigins() []string {
	if c.AllowedOrigins == "" {
		return []string{}
	}
	return strings.Split(c.AllowedOrigins, ",")
}

// GetTrustedProxies returns a slice of trusted proxy IPs
func (c *Config) GetTrustedProxies() []string {
	if c.TrustedProxies == "" {
		return []string{} // No trusted proxies by default
	}
	return strings.Split(c.TrustedProxies, ",")
}
