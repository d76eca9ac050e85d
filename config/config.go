package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr       string `mapstructure:"REDIS_ADDR"`
	RedisPassword   string `mapstructure:"REDIS_PASSWORD"`
	RedisCheckoutDB int    `mapstructure:"REDIS_CHECKOUT_DB"`
	RedisLockDB     int    `mapstructure:"REDIS_LOCK_DB"`
	RedisSweepDB    int    `mapstructure:"REDIS_SWEEP_DB"`

	// Stripe.
	StripeKey string `mapstructure:"STRIPE_KEY"`

	// Checkout session behaviour.
	CheckoutSessionTTLMin int `mapstructure:"CHECKOUT_SESSION_TTL_MIN"`
	QuoteMaxAgeMin        int `mapstructure:"QUOTE_MAX_AGE_MIN"`

	// SEPA transfer instructions shown to guests.
	SepaExpiryDays    int    `mapstructure:"SEPA_EXPIRY_DAYS"`
	SepaIBAN          string `mapstructure:"SEPA_IBAN"`
	SepaBIC           string `mapstructure:"SEPA_BIC"`
	SepaAccountHolder string `mapstructure:"SEPA_ACCOUNT_HOLDER"`
	SepaBankName      string `mapstructure:"SEPA_BANK_NAME"`

	// Cash on arrival.
	CashPaymentLocation string `mapstructure:"CASH_PAYMENT_LOCATION"`

	// External collaborators.
	QuoteServiceURL string `mapstructure:"QUOTE_SERVICE_URL"`
	EmailWebhookURL string `mapstructure:"EMAIL_WEBHOOK_URL"`
	AutomationTopic string `mapstructure:"AUTOMATION_TOPIC"`
}

// FirebaseServiceAccountKeyPath points at the service account used for FCM.
var FirebaseServiceAccountKeyPath = "serviceAccountKey.json"

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CHECKOUT_DB", 0)
	viper.SetDefault("REDIS_LOCK_DB", 1)
	viper.SetDefault("REDIS_SWEEP_DB", 2)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("CHECKOUT_SESSION_TTL_MIN", 30)
	viper.SetDefault("QUOTE_MAX_AGE_MIN", 15)
	viper.SetDefault("SEPA_EXPIRY_DAYS", 7)
	viper.SetDefault("SEPA_BANK_NAME", "Banco Villa Mar")
	viper.SetDefault("CASH_PAYMENT_LOCATION", "Villa Mar reception desk")
	viper.SetDefault("AUTOMATION_TOPIC", "villamar-ops")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if p := viper.GetString("FIREBASE_SERVICE_ACCOUNT_KEY_PATH"); p != "" {
		FirebaseServiceAccountKeyPath = p
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
