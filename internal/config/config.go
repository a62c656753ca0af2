package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const configPathEnv = "BILLING_CONFIG_PATH"

type BillingConfig struct {
	Env               string `yaml:"env" env:"BILLING_ENV" env-default:"local"`
	HTTPServer        `yaml:"http_server"`
	GRPCServer        `yaml:"grpc_server"`
	BillingDB         `yaml:"billing_db"`
	LogConfig         `yaml:"log_config"`
	KafkaService      `yaml:"kafka-service"`
	Redis             `yaml:"redis"`
	Stripe            `yaml:"stripe"`
	Paystack          `yaml:"paystack"`
	Mailer            `yaml:"mailer"`
	NotificationQueue `yaml:"notification_queue"`
	Reconciler        `yaml:"reconciler"`
}

type HTTPServer struct {
	Host            string        `yaml:"host" env-default:"0.0.0.0"`
	Port            string        `yaml:"port" env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
}

type GRPCServer struct {
	Host string `yaml:"host" env-default:"0.0.0.0"`
	Port string `yaml:"port" env-default:"50051"`
}

type BillingDB struct {
	Dsn            string `yaml:"dsn" env:"BILLING_DB_DSN" env-required:"true"`
	MigrationsPath string `yaml:"migrations_path" env-default:"migrations"`
	MaxOpenConns   int    `yaml:"max_open_conns" env-default:"20"`
	MaxIdleConns   int    `yaml:"max_idle_conns" env-default:"5"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env-default:"json"`
	LogOutput string `yaml:"log_output" env-default:"stdout"`
}

type KafkaService struct {
	Enabled          bool   `yaml:"enabled" env-default:"false"`
	Host             string `yaml:"host"`
	Port             string `yaml:"port"`
	Username         string `yaml:"username" env:"KAFKA_USERNAME"`
	Password         string `yaml:"password" env:"KAFKA_PASSWORD"`
	Mechanism        string `yaml:"mechanism"`
	TLSEnabled       bool   `yaml:"tls_enabled"`
	OrderEventsTopic string `yaml:"order_events_topic" env-default:"order-events"`
	WebhookTopic     string `yaml:"webhook_topic" env-default:"payment-webhooks"`
	GroupID          string `yaml:"group_id" env-default:"billing-service"`
}

func (k KafkaService) Brokers() []string {
	return []string{fmt.Sprintf("%s:%s", k.Host, k.Port)}
}

type Redis struct {
	Enabled       bool          `yaml:"enabled" env-default:"false"`
	Addr          string        `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	PoolSize      int           `yaml:"pool_size" env-default:"10"`
	VerifyLockTTL time.Duration `yaml:"verify_lock_ttl" env-default:"30s"`
}

type Stripe struct {
	SecretKey string `yaml:"secret_key" env:"STRIPE_SECRET_KEY"`
	Currency  string `yaml:"currency" env-default:"gbp"`
}

type Paystack struct {
	SecretKey   string        `yaml:"secret_key" env:"PAYSTACK_SECRET_KEY"`
	BaseURL     string        `yaml:"base_url" env-default:"https://api.paystack.co"`
	CallbackURL string        `yaml:"callback_url"`
	Timeout     time.Duration `yaml:"timeout" env-default:"15s"`
}

type Mailer struct {
	Host       string `yaml:"host" env:"SMTP_HOST"`
	Port       int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username   string `yaml:"username" env:"SMTP_USERNAME"`
	Password   string `yaml:"password" env:"SMTP_PASSWORD"`
	From       string `yaml:"from" env:"MAIL_FROM"`
	OwnerEmail string `yaml:"owner_email" env:"OWNER_EMAIL"`
	StoreName  string `yaml:"store_name" env-default:"Shvark Store"`
}

type NotificationQueue struct {
	MaxAttempts     int           `yaml:"max_attempts" env-default:"3"`
	BackoffUnit     time.Duration `yaml:"backoff_unit" env-default:"5s"`
	SweepInterval   time.Duration `yaml:"sweep_interval" env-default:"30s"`
	DeliveryTimeout time.Duration `yaml:"delivery_timeout" env-default:"30s"`
}

type Reconciler struct {
	Enabled   bool          `yaml:"enabled" env-default:"true"`
	Interval  time.Duration `yaml:"interval" env-default:"5m"`
	OlderThan time.Duration `yaml:"older_than" env-default:"15m"`
	BatchSize int           `yaml:"batch_size" env-default:"50"`
}

// Load reads the YAML file at path, letting environment variables
// override it.
func Load(path string) (*BillingConfig, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	var cfg BillingConfig
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return &cfg, nil
}

func MustLoad() *BillingConfig {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded")
	}

	configPath := os.Getenv(configPathEnv)
	if configPath == "" {
		log.Fatalf("%s was not found\n", configPathEnv)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	return cfg
}
