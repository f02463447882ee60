package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	HTTP     HTTPConfig
	DB       DBConfig
	JWT      JWTConfig
	Google   GoogleConfig
	Payment  PaymentConfig
	Xendit   XenditConfig
	Stripe   StripeConfig
	Odoo     OdooConfig
	SMTP     SMTPConfig
	Redis    RedisConfig
	AMQP     AMQPConfig
	Telegram TelegramConfig
	S3       S3Config
}

type AppConfig struct {
	Env      string // development | production
	LogLevel string
	URL      string // public site URL used for redirects and email links
	APIURL   string
}

type HTTPConfig struct {
	Port       string
	CORSOrigin string
}

type DBConfig struct {
	URL string
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type GoogleConfig struct {
	ClientID         string
	ClientSecret     string
	RedirectURL      string
	FrontendRedirect string
}

type PaymentConfig struct {
	Provider     string // xendit | stripe
	Currency     string
	FallbackRate float64
	Timeout      time.Duration
}

type XenditConfig struct {
	SecretKey     string
	CallbackToken string
	BaseURL       string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

type OdooConfig struct {
	URL      string
	DB       string
	Username string
	APIKey   string
	Timeout  time.Duration
}

func (c OdooConfig) Enabled() bool {
	return c.URL != "" && c.DB != "" && c.Username != "" && c.APIKey != ""
}

type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	SalesInbox string
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AMQPConfig struct {
	URL   string
	Queue string
}

type TelegramConfig struct {
	BotToken  string
	SalesChat int64
}

type S3Config struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
	UsePathStyle  bool
}

func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found. Using system environment variables.")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Env:      v.GetString("APP_ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),
			URL:      strings.TrimRight(v.GetString("APP_URL"), "/"),
			APIURL:   strings.TrimRight(v.GetString("API_URL"), "/"),
		},
		HTTP: HTTPConfig{
			Port:       v.GetString("PORT"),
			CORSOrigin: v.GetString("CORS_ORIGIN"),
		},
		DB: DBConfig{URL: v.GetString("DB_URL")},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			TTL:    v.GetDuration("JWT_TTL"),
		},
		Google: GoogleConfig{
			ClientID:         v.GetString("GOOGLE_CLIENT_ID"),
			ClientSecret:     v.GetString("GOOGLE_CLIENT_SECRET"),
			RedirectURL:      v.GetString("GOOGLE_REDIRECT_URL"),
			FrontendRedirect: v.GetString("GOOGLE_FRONTEND_REDIRECT"),
		},
		Payment: PaymentConfig{
			Provider:     strings.ToLower(v.GetString("PAYMENT_PROVIDER")),
			Currency:     strings.ToUpper(v.GetString("PAYMENT_CURRENCY")),
			FallbackRate: v.GetFloat64("USD_IDR_FALLBACK_RATE"),
			Timeout:      v.GetDuration("PAYMENT_TIMEOUT"),
		},
		Xendit: XenditConfig{
			SecretKey:     v.GetString("XENDIT_SECRET_KEY"),
			CallbackToken: v.GetString("XENDIT_CALLBACK_TOKEN"),
			BaseURL:       strings.TrimRight(v.GetString("XENDIT_BASE_URL"), "/"),
		},
		Stripe: StripeConfig{
			SecretKey:     v.GetString("STRIPE_SECRET_KEY"),
			WebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),
		},
		Odoo: OdooConfig{
			URL:      strings.TrimRight(v.GetString("ODOO_URL"), "/"),
			DB:       v.GetString("ODOO_DB"),
			Username: v.GetString("ODOO_USERNAME"),
			APIKey:   v.GetString("ODOO_API_KEY"),
			Timeout:  v.GetDuration("ODOO_TIMEOUT"),
		},
		SMTP: SMTPConfig{
			Host:       v.GetString("SMTP_HOST"),
			Port:       v.GetInt("SMTP_PORT"),
			Username:   v.GetString("SMTP_USERNAME"),
			Password:   v.GetString("SMTP_PASSWORD"),
			From:       v.GetString("SMTP_FROM"),
			SalesInbox: v.GetString("SALES_INBOX"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		AMQP: AMQPConfig{
			URL:   v.GetString("AMQP_URL"),
			Queue: v.GetString("AMQP_QUEUE"),
		},
		Telegram: TelegramConfig{
			BotToken:  v.GetString("TELEGRAM_BOT_TOKEN"),
			SalesChat: v.GetInt64("TELEGRAM_SALES_CHAT_ID"),
		},
		S3: S3Config{
			Endpoint:      v.GetString("S3_ENDPOINT"),
			Region:        v.GetString("S3_REGION"),
			AccessKey:     v.GetString("S3_ACCESS_KEY"),
			SecretKey:     v.GetString("S3_SECRET_KEY"),
			Bucket:        v.GetString("S3_BUCKET"),
			PublicBaseURL: v.GetString("S3_PUBLIC_BASE_URL"),
			UsePathStyle:  v.GetBool("S3_USE_PATH_STYLE"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_URL", "http://localhost:3000")
	v.SetDefault("API_URL", "http://localhost:8080")
	v.SetDefault("PORT", "8080")
	v.SetDefault("CORS_ORIGIN", "http://localhost:3000")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("PAYMENT_PROVIDER", "xendit")
	v.SetDefault("PAYMENT_CURRENCY", "IDR")
	v.SetDefault("USD_IDR_FALLBACK_RATE", 15750)
	v.SetDefault("PAYMENT_TIMEOUT", "30s")
	v.SetDefault("XENDIT_BASE_URL", "https://api.xendit.co")
	v.SetDefault("ODOO_TIMEOUT", "20s")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("AMQP_QUEUE", "site.side_effects")
	v.SetDefault("S3_REGION", "ap-southeast-1")
}

func (c *Config) validate() error {
	if c.DB.URL == "" {
		return fmt.Errorf("missing required environment variable: DB_URL")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("missing required environment variable: JWT_SECRET")
	}
	switch c.Payment.Provider {
	case "xendit":
		if c.Xendit.SecretKey == "" || c.Xendit.CallbackToken == "" {
			return fmt.Errorf("xendit provider requires XENDIT_SECRET_KEY and XENDIT_CALLBACK_TOKEN")
		}
	case "stripe":
		if c.Stripe.SecretKey == "" || c.Stripe.WebhookSecret == "" {
			return fmt.Errorf("stripe provider requires STRIPE_SECRET_KEY and STRIPE_WEBHOOK_SECRET")
		}
	default:
		return fmt.Errorf("unsupported PAYMENT_PROVIDER %q", c.Payment.Provider)
	}
	if c.Payment.FallbackRate <= 0 {
		return fmt.Errorf("USD_IDR_FALLBACK_RATE must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
