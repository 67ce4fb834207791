package config

import (
	"fmt"
	"time"

	"nutrilens/models"
	"nutrilens/utils"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Settings is the process configuration, read from the environment.
type Settings struct {
	Port    string `env:"PORT" envDefault:"8080"`
	GinMode string `env:"GIN_MODE" envDefault:"release"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogDev   bool   `env:"LOG_DEV"`

	DatabaseURL string `env:"DATABASE_URL"`
	DBHost      string `env:"DB_HOST" envDefault:"localhost"`
	DBUser      string `env:"DB_USER"`
	DBPassword  string `env:"DB_PASSWORD"`
	DBName      string `env:"DB_NAME"`
	DBPort      string `env:"DB_PORT" envDefault:"5432"`
	DBSSLMode   string `env:"DB_SSLMODE" envDefault:"disable"`
	DBAttempts  int    `env:"DB_CONNECT_ATTEMPTS" envDefault:"10"`

	JWTSecret   string   `env:"JWT_SECRET"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	GeminiAPIKey string        `env:"GEMINI_API_KEY"`
	GeminiModel  string        `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	OCRProvider  string        `env:"OCR_PROVIDER" envDefault:"gemini"` // "gemini" | "rekognition"
	AITimeout    time.Duration `env:"AI_TIMEOUT" envDefault:"45s"`

	MailProvider string `env:"MAIL_PROVIDER" envDefault:"resend"` // "resend" | "ses" | "none"
	ResendAPIKey string `env:"RESEND_API_KEY"`
	MailFrom     string `env:"MAIL_FROM" envDefault:"NutriLens <onboarding@resend.dev>"`
	ContactInbox string `env:"CONTACT_INBOX"`
	SESEmail     string `env:"SES_EMAIL"`

	AWSRegion     string `env:"AWS_REGION" envDefault:"us-east-1"`
	S3Bucket      string `env:"S3_BUCKET"`
	S3Region      string `env:"S3_REGION"`
	CloudFrontURL string `env:"CLOUDFRONT_URL"`
	SNSFCMArn     string `env:"SNS_FCM_ARN"`
}

// Load reads .env (if present) and parses the environment into Settings.
func Load() (*Settings, error) {
	_ = godotenv.Load()

	s := &Settings{}
	if err := env.Parse(s); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if s.S3Region == "" {
		s.S3Region = s.AWSRegion
	}
	return s, nil
}

// DSN returns DATABASE_URL, or a key/value DSN built from the DB_* variables.
func (s *Settings) DSN() string {
	if s.DatabaseURL != "" {
		return s.DatabaseURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		s.DBHost, s.DBUser, s.DBPassword, s.DBName, s.DBPort, s.DBSSLMode)
}

// Validate checks the settings that serving cannot run without.
func (s *Settings) Validate() error {
	if s.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET not set")
	}
	if s.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY not set")
	}
	switch s.OCRProvider {
	case "gemini", "rekognition":
	default:
		return fmt.Errorf("unknown OCR_PROVIDER %q", s.OCRProvider)
	}
	switch s.MailProvider {
	case "resend":
		if s.ResendAPIKey == "" {
			return fmt.Errorf("RESEND_API_KEY not set")
		}
	case "ses":
		if s.SESEmail == "" {
			return fmt.Errorf("SES_EMAIL not set")
		}
	case "none":
	default:
		return fmt.Errorf("unknown MAIL_PROVIDER %q", s.MailProvider)
	}
	return nil
}

// GormConfig is shared by every connection. TranslateError maps driver
// unique violations to gorm.ErrDuplicatedKey.
func GormConfig(level logger.LogLevel) *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	}
}

// InitDB connects to Postgres, retrying with capped exponential backoff,
// and stores the handle in DB.
func InitDB(s *Settings) error {
	var (
		db  *gorm.DB
		err error
	)
	attempts := s.DBAttempts
	if attempts < 1 {
		attempts = 1
	}
	for i := 1; i <= attempts; i++ {
		db, err = gorm.Open(postgres.Open(s.DSN()), GormConfig(logger.Warn))
		if err == nil {
			sqlDB, _ := db.DB()
			if err = sqlDB.Ping(); err == nil {
				utils.Log.Info("database connected", zap.Int("attempt", i))
				DB = db
				return nil
			}
		}
		utils.Log.Warn("database connect failed", zap.Int("attempt", i), zap.Error(err))
		if i == attempts {
			break
		}
		wait := time.Duration(1<<uint(i-1)) * time.Second
		if wait > 10*time.Second {
			wait = 10 * time.Second
		}
		time.Sleep(wait)
	}
	return fmt.Errorf("connect to database after %d attempts: %w", attempts, err)
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	for _, m := range models.All() {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("migrate %T: %w", m, err)
		}
	}
	utils.Log.Info("database migrations completed")
	return nil
}
