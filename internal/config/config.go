package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Gemini   GeminiConfig
	KIE      KIEConfig
	Payment  PaymentConfig
	Admin    AdminConfig
	Billing  BillingConfig
}

type ServerConfig struct {
	Port    int
	Env     string // "development", "production"
	BaseURL string // public base URL used for payment callbacks
}

type DatabaseConfig struct {
	Host    string
	Port    string
	Name    string
	User    string
	Pass    string
	Charset string
}

type RedisConfig struct {
	Addr string
	Pass string
	DB   int
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type KIEConfig struct {
	APIKey  string
	BaseURL string
}

type PaymentConfig struct {
	ZarinPal ZarinPalConfig
	// Tokens credited per 1000 toman of recharge.
	TokensPerKiloToman int
}

type ZarinPalConfig struct {
	Merchant string
	Sandbox  bool
}

type AdminConfig struct {
	// Telegram chat that receives payment reports and billing alerts.
	BotToken string
	ChatID   string
}

type BillingConfig struct {
	// Deadline for one atomic debit call before it counts as unavailable.
	AtomicTimeout time.Duration
	// Fallback sequencer attempt cap.
	MaxAttempts int
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("APP_BASE_URL", "http://localhost:8080")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_CHARSET", "utf8mb4")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("JWT_EXPIRY", "24h")
	viper.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	viper.SetDefault("KIE_BASE_URL", "https://api.kie.ai")
	viper.SetDefault("ZARINPAL_SANDBOX", false)
	viper.SetDefault("TOKENS_PER_KILO_TOMAN", 10)
	viper.SetDefault("BILLING_ATOMIC_TIMEOUT", "30s")
	viper.SetDefault("BILLING_MAX_ATTEMPTS", 3)

	expiry, err := time.ParseDuration(viper.GetString("JWT_EXPIRY"))
	if err != nil {
		expiry = 24 * time.Hour
	}
	atomicTimeout, err := time.ParseDuration(viper.GetString("BILLING_ATOMIC_TIMEOUT"))
	if err != nil {
		atomicTimeout = 30 * time.Second
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:    viper.GetInt("APP_PORT"),
			Env:     viper.GetString("APP_ENV"),
			BaseURL: viper.GetString("APP_BASE_URL"),
		},
		Database: DatabaseConfig{
			Host:    viper.GetString("DB_HOST"),
			Port:    viper.GetString("DB_PORT"),
			Name:    viper.GetString("DB_NAME"),
			User:    viper.GetString("DB_USER"),
			Pass:    viper.GetString("DB_PASS"),
			Charset: viper.GetString("DB_CHARSET"),
		},
		Redis: RedisConfig{
			Addr: viper.GetString("REDIS_ADDR"),
			Pass: viper.GetString("REDIS_PASS"),
			DB:   viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
			Expiry: expiry,
		},
		Gemini: GeminiConfig{
			APIKey: viper.GetString("GEMINI_API_KEY"),
			Model:  viper.GetString("GEMINI_MODEL"),
		},
		KIE: KIEConfig{
			APIKey:  viper.GetString("KIE_API_KEY"),
			BaseURL: viper.GetString("KIE_BASE_URL"),
		},
		Payment: PaymentConfig{
			ZarinPal: ZarinPalConfig{
				Merchant: viper.GetString("ZARINPAL_MERCHANT"),
				Sandbox:  viper.GetBool("ZARINPAL_SANDBOX"),
			},
			TokensPerKiloToman: viper.GetInt("TOKENS_PER_KILO_TOMAN"),
		},
		Admin: AdminConfig{
			BotToken: viper.GetString("ADMIN_BOT_TOKEN"),
			ChatID:   viper.GetString("ADMIN_CHAT_ID"),
		},
		Billing: BillingConfig{
			AtomicTimeout: atomicTimeout,
			MaxAttempts:   viper.GetInt("BILLING_MAX_ATTEMPTS"),
		},
	}

	if cfg.Database.Name == "" {
		log.Println("WARNING: DB_NAME is not set")
	}
	if cfg.JWT.Secret == "" {
		log.Println("WARNING: JWT_SECRET is not set")
	}
	if cfg.Gemini.APIKey == "" {
		log.Println("WARNING: GEMINI_API_KEY is not set")
	}

	return cfg, nil
}

// DSN returns the MySQL DSN string for GORM.
func (d *DatabaseConfig) DSN() string {
	return d.User + ":" + d.Pass + "@tcp(" + d.Host + ":" + d.Port + ")/" + d.Name + "?charset=" + d.Charset + "&parseTime=True&loc=Local"
}
