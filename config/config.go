package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Mail transports supported by the delivery client
const (
	MailTransportSMTP = "smtp"
	MailTransportSES  = "ses"
)

type Config struct {
	Port           string
	Environment    string
	AllowedOrigins []string
	// Mail account (Gmail app password by default)
	SMTPHost      string
	SMTPPort      string
	SMTPUsername  string
	SMTPPassword  string
	MailFrom      string // Sender address, defaults to SMTPUsername
	MailFromName  string // Display name used for both From and To
	BusinessEmail string // Inbox that receives contact submissions
	MailTransport string
	MailTimeout   time.Duration
	AWSRegion     string
	// reCAPTCHA
	RecaptchaSecret    string
	RecaptchaDisabled  bool
	RecaptchaVerifyURL string
	RecaptchaTimeout   time.Duration
	// Redis/Upstash Configuration
	UpstashRedisURL      string
	UpstashRedisPassword string
	// Contact rate limiting
	RateLimitWindow time.Duration
	RateLimitMax    int
	// Attachments
	AttachmentMaxBytes      int64
	AttachmentVerifyContent bool // Require jpeg/png magic bytes
	ClamAVAddress           string
}

func LoadConfig() (*Config, error) {
	// .env is only present locally
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    environment(),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "")),
		// SMTP Configuration
		SMTPHost:      getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUsername:  getEnv("SMTP_USERNAME", getEnv("GMAIL_USER", "")),
		SMTPPassword:  getEnv("SMTP_PASSWORD", getEnv("GMAIL_APP_PASSWORD", "")),
		MailFromName:  getEnv("MAIL_FROM_NAME", "Yeznas Upholstery"),
		BusinessEmail: getEnv("BUSINESS_EMAIL", ""),
		MailTransport: strings.ToLower(getEnv("MAIL_TRANSPORT", MailTransportSMTP)),
		MailTimeout:   getEnvDuration("MAIL_TIMEOUT_SECONDS", 15*time.Second),
		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		// reCAPTCHA Configuration
		RecaptchaSecret:    getEnv("RECAPTCHA_SECRET", ""),
		RecaptchaDisabled:  getEnvBool("RECAPTCHA_DISABLED", false),
		RecaptchaVerifyURL: getEnv("RECAPTCHA_VERIFY_URL", "https://www.google.com/recaptcha/api/siteverify"),
		RecaptchaTimeout:   getEnvDuration("RECAPTCHA_TIMEOUT_SECONDS", 5*time.Second),
		// Redis/Upstash Configuration
		UpstashRedisURL:      getEnv("UPSTASH_REDIS_URL", ""),
		UpstashRedisPassword: getEnv("UPSTASH_REDIS_PASSWORD", ""),
		// Rate Limiting Configuration
		RateLimitWindow: getEnvDuration("CONTACT_RATE_LIMIT_WINDOW_SECONDS", 15*time.Minute), // 15 minute window
		RateLimitMax:    getEnvInt("CONTACT_RATE_LIMIT_MAX", 5),                                // 5 submissions per window
		// Attachment Configuration
		AttachmentMaxBytes:      int64(getEnvInt("ATTACHMENT_MAX_BYTES", 2*1024*1024)),
		AttachmentVerifyContent: getEnvBool("ATTACHMENT_VERIFY_CONTENT", false),
		ClamAVAddress:           getEnv("CLAMAV_ADDRESS", ""),
	}
	cfg.MailFrom = getEnv("MAIL_FROM", cfg.SMTPUsername)

	if cfg.UpstashRedisURL == "" {
		log.Println("WARNING: UPSTASH_REDIS_URL not configured. Rate limiting will use in-memory counters.")
	}
	if cfg.RecaptchaDisabled {
		log.Println("WARNING: RECAPTCHA_DISABLED=true. CAPTCHA verification is bypassed.")
	}

	return cfg, nil
}

// Validate reports the required settings that are missing. The CAPTCHA secret is
// not checked here because a missing secret is surfaced per request.
func (c *Config) Validate() error {
	var errs []error
	if c.BusinessEmail == "" {
		errs = append(errs, errors.New("BUSINESS_EMAIL is required"))
	}
	if c.MailFrom == "" {
		errs = append(errs, errors.New("MAIL_FROM or SMTP_USERNAME is required"))
	}
	switch c.MailTransport {
	case MailTransportSMTP:
		if c.SMTPUsername == "" || c.SMTPPassword == "" {
			errs = append(errs, errors.New("SMTP_USERNAME and SMTP_PASSWORD are required for smtp transport"))
		}
	case MailTransportSES:
		if c.AWSRegion == "" {
			errs = append(errs, errors.New("AWS_REGION is required for ses transport"))
		}
	default:
		errs = append(errs, errors.New("MAIL_TRANSPORT must be smtp or ses"))
	}
	if c.RateLimitMax <= 0 {
		errs = append(errs, errors.New("CONTACT_RATE_LIMIT_MAX must be positive"))
	}
	if c.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("CONTACT_RATE_LIMIT_WINDOW_SECONDS must be positive"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether gin runs in release mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool returns a boolean environment variable or fallback if not set/invalid
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// getEnvDuration reads a whole number of seconds
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimRight(strings.TrimSpace(item), "/"); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func environment() string {
	if os.Getenv("GIN_MODE") == "release" {
		return "production"
	}
	return "development"
}
