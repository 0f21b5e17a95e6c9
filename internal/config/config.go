package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/flexprice/grants/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment   DeploymentConfig   `validate:"required"`
	Server       ServerConfig       `validate:"required"`
	Logging      LoggingConfig      `validate:"required"`
	Postgres     PostgresConfig     `validate:"required"`
	Chargebee    ChargebeeConfig    `mapstructure:"chargebee"`
	Email        EmailConfig        `mapstructure:"email"`
	Notification NotificationConfig `mapstructure:"notification"`
	Sentry       SentryConfig       `mapstructure:"sentry"`
	Billing      BillingConfig      `mapstructure:"billing"`
	Plans        []PlanConfig       `mapstructure:"plans" validate:"dive"`
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host                   string
	Port                   int
	User                   string
	Password               string
	DBName                 string `mapstructure:"dbname"`
	SSLMode                string `mapstructure:"sslmode"`
	MaxOpenConns           int    `mapstructure:"max_open_conns"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes"`
}

// ChargebeeConfig holds the credentials used for the customer lookup fallback
type ChargebeeConfig struct {
	Site             string        `mapstructure:"site"`
	APIKey           string        `mapstructure:"api_key"`
	CustomerCacheTTL time.Duration `mapstructure:"customer_cache_ttl"`
}

type EmailConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	APIKey       string `mapstructure:"api_key"`
	FromAddress  string `mapstructure:"from_address"`
	ReplyTo      string `mapstructure:"reply_to"`
	AdminAddress string `mapstructure:"admin_address"`
}

// NotificationConfig configures the in-process topic that carries post-grant side effects
type NotificationConfig struct {
	Topic           string           `mapstructure:"topic"`
	PubSub          types.PubSubType `mapstructure:"pubsub"`
	OutputBuffer    int64            `mapstructure:"output_buffer"`
	MaxRetries      int              `mapstructure:"max_retries"`
	InitialInterval time.Duration    `mapstructure:"initial_interval"`
	MaxInterval     time.Duration    `mapstructure:"max_interval"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type BillingConfig struct {
	FreePlanCode         string `mapstructure:"free_plan_code" validate:"required"`
	FreeRenewableCredits int64  `mapstructure:"free_renewable_credits" validate:"gte=0"`
	// DedupeEvents records provider event ids and skips redeliveries
	DedupeEvents bool `mapstructure:"dedupe_events"`
}

// PlanConfig is one row of the plan mapping table keyed by the provider price id
type PlanConfig struct {
	PriceID           string             `mapstructure:"price_id" validate:"required"`
	PlanCode          string             `mapstructure:"plan_code"`
	DisplayName       string             `mapstructure:"display_name"`
	IsAddon           bool               `mapstructure:"is_addon"`
	BillingModel      types.BillingModel `mapstructure:"billing_model" validate:"required"`
	RenewableCredits  int64              `mapstructure:"renewable_credits" validate:"gte=0"`
	PayAsYouGoCredits int64              `mapstructure:"payasyougo_credits" validate:"gte=0"`
	ExtraSlots        int64              `mapstructure:"extra_slots" validate:"gte=0"`
	Price             string             `mapstructure:"price"`
}

func NewConfig() (*Configuration, error) {
	// .env is optional and only used for local development
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/grants")

	v.SetEnvPrefix("GRANTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", types.ModeLocal)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", types.LogLevelInfo)
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime_minutes", 30)
	v.SetDefault("chargebee.customer_cache_ttl", 10*time.Minute)
	v.SetDefault("notification.topic", "billing_notifications")
	v.SetDefault("notification.pubsub", types.MemoryPubSub)
	v.SetDefault("notification.output_buffer", 100)
	v.SetDefault("notification.max_retries", 2)
	v.SetDefault("notification.initial_interval", time.Second)
	v.SetDefault("notification.max_interval", 10*time.Second)
	v.SetDefault("billing.free_plan_code", "free")
	v.SetDefault("billing.free_renewable_credits", 0)
	v.SetDefault("billing.dedupe_events", false)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or tests
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Chargebee:  ChargebeeConfig{CustomerCacheTTL: 10 * time.Minute},
		Notification: NotificationConfig{
			Topic:           "billing_notifications",
			PubSub:          types.MemoryPubSub,
			OutputBuffer:    100,
			MaxRetries:      2,
			InitialInterval: time.Second,
			MaxInterval:     10 * time.Second,
		},
		Billing: BillingConfig{FreePlanCode: "free"},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}

// GetURL returns the connection string in URL form, as expected by the migration tool
func (c PostgresConfig) GetURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.DBName,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}
