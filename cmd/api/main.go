package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contact-relay/config"
	_ "contact-relay/docs" // Important for Swagger
	v1 "contact-relay/internal/delivery/http/v1"
	"contact-relay/internal/usecase"
	"contact-relay/pkg/captcha"
	"contact-relay/pkg/email"
	"contact-relay/pkg/logger"
	"contact-relay/pkg/ratelimit"
	"contact-relay/pkg/redis"
	"contact-relay/pkg/security"
	"contact-relay/pkg/security/antivirus"
	"contact-relay/pkg/validation"

	"github.com/gin-gonic/gin"
)

// @title           Contact Relay API
// @version         1.0
// @description     Relays website contact form submissions to the business inbox.
// @host            localhost:8080
// @BasePath        /v1
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Logger
	logger.Init()
	logger.Log.Info("Starting contact relay", "port", cfg.Port, "env", cfg.Environment)

	if err := cfg.Validate(); err != nil {
		logger.Log.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	secLog := security.NewSecurityLogger("contact-relay", cfg.Environment)
	defer func() { _ = secLog.Sync() }()

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	checks := map[string]usecase.HealthCheck{}

	// 3. Setup Rate Limiter Store
	var store ratelimit.Store
	redisClient, err := redis.NewClient(rootCtx, redis.Config{
		URL:      cfg.UpstashRedisURL,
		Password: cfg.UpstashRedisPassword,
	})
	switch {
	case err == nil:
		defer redisClient.Close()
		store = ratelimit.NewRedisStore(redisClient)
		checks["redis"] = func(ctx context.Context) error { return redis.HealthCheck(ctx, redisClient) }
		logger.Log.Info("Rate limiter using Redis")
	case cfg.IsProduction():
		// Counters must be shared across replicas
		logger.Log.Error("Redis is required in production", "error", err)
		os.Exit(1)
	default:
		logger.Log.Warn("Rate limiter using in-memory counters", "error", err)
		memStore := ratelimit.NewMemoryStore()
		memStore.StartSweeper(rootCtx, time.Minute)
		store = memStore
	}

	limiter := ratelimit.NewLimiter(store, ratelimit.Config{
		Limit:  cfg.RateLimitMax,
		Window: cfg.RateLimitWindow,
	})

	// 4. Setup CAPTCHA Verifier
	verifier := captcha.NewVerifier(captcha.Config{
		Secret:    cfg.RecaptchaSecret,
		Disabled:  cfg.RecaptchaDisabled,
		VerifyURL: cfg.RecaptchaVerifyURL,
		Timeout:   cfg.RecaptchaTimeout,
	})
	if cfg.RecaptchaSecret == "" && !cfg.RecaptchaDisabled {
		logger.Log.Warn("RECAPTCHA_SECRET not set - submissions will be rejected")
	}

	// 5. Setup Email Service
	var sender email.Sender
	switch cfg.MailTransport {
	case config.MailTransportSES:
		sesMailer, err := email.NewSESMailer(rootCtx, cfg.AWSRegion, cfg.MailTimeout)
		if err != nil {
			logger.Log.Error("Failed to configure SES", "error", err)
			os.Exit(1)
		}
		sender = sesMailer
	default:
		smtpMailer := email.NewSMTPMailer(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			Timeout:  cfg.MailTimeout,
		})
		checks["mail"] = func(ctx context.Context) error {
			if !smtpMailer.IsConfigured() {
				return errors.New("smtp not configured")
			}
			return nil
		}
		sender = smtpMailer
	}
	composer := email.NewComposer(
		email.Address{Name: cfg.MailFromName, Email: cfg.MailFrom},
		email.Address{Name: cfg.MailFromName, Email: cfg.BusinessEmail},
	)

	// 6. Setup Attachment Scanner
	var scanner antivirus.Scanner = antivirus.NewNoOpScanner()
	if cfg.ClamAVAddress != "" {
		scanner = antivirus.NewClamAVScanner(cfg.ClamAVAddress, 10*time.Second)
		logger.Log.Info("Attachment scanning enabled", "clamd", cfg.ClamAVAddress)
	}

	// 7. Setup UseCases
	contactUC := usecase.NewContactUsecase(validation.New(), verifier, composer, sender, secLog)
	healthUC := usecase.NewHealthUsecase(checks)

	// 8. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		ContactUC: contactUC,
		HealthUC:  healthUC,
		Limiter:   limiter,
		SecLog:    secLog,
		FormOptions: v1.FormOptions{
			MaxAttachmentBytes: cfg.AttachmentMaxBytes,
			VerifyContent:      cfg.AttachmentVerifyContent,
			Scanner:            scanner,
		},
		Config: cfg,
	})

	// 9. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", "error", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}
	stop()

	logger.Log.Info("Server exiting")
}
