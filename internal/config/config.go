package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/nyaruka/phonenumbers"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/ayurcare/clinic-api/pkg/messaging/redis"
	"github.com/ayurcare/clinic-api/pkg/worker"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Booking      BookingConfig      `mapstructure:"booking"`
	Admin        AdminConfig        `mapstructure:"admin"`
	Catalog      CatalogConfig      `mapstructure:"catalog"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	CORS         CORSConfig         `mapstructure:"cors"`
	Outbox       OutboxConfig       `mapstructure:"outbox"`
	Notification NotificationConfig `mapstructure:"notification"`
	Log          LogConfig          `mapstructure:"log"`

	// Secrets come from the environment only.
	Secrets Secrets `mapstructure:"-"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	Channel      string        `mapstructure:"channel"`
	// Stream consumer settings for the worker.
	ConsumerGroup string        `mapstructure:"consumer_group"`
	ConsumerName  string        `mapstructure:"consumer_name"`
	StreamMaxLen  int64         `mapstructure:"stream_max_len"`
	ClaimIdle     time.Duration `mapstructure:"claim_idle"`
	MaxDeliveries int64         `mapstructure:"max_deliveries"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

type AuthConfig struct {
	BcryptCost       int           `mapstructure:"bcrypt_cost"`
	PasswordResetURL string        `mapstructure:"password_reset_url"`
	PasswordResetTTL time.Duration `mapstructure:"password_reset_ttl"`
}

type BookingConfig struct {
	Timezone  string `mapstructure:"timezone"`
	ClosedDay string `mapstructure:"closed_day"`
	// StrictTransitions rejects status changes outside the lifecycle graph.
	StrictTransitions bool `mapstructure:"strict_transitions"`
	// PhoneRegion is the CLDR region used for numbers without a leading +.
	PhoneRegion string `mapstructure:"phone_region"`
}

type AdminConfig struct {
	// BootstrapEmail enables first-sign-in admin provisioning for this
	// address. Leave empty in production and use clinicctl instead.
	BootstrapEmail string `mapstructure:"bootstrap_email"`
}

type CatalogConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type OutboxConfig struct {
	BatchSize     int           `mapstructure:"batch_size"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	MaxRetries    int           `mapstructure:"max_retries"`
	RetentionDays int           `mapstructure:"retention_days"`
	PurgeSchedule string        `mapstructure:"purge_schedule"`
}

type NotificationConfig struct {
	ClinicName  string `mapstructure:"clinic_name"`
	FromAddress string `mapstructure:"from_address"`
	AdminEmail  string `mapstructure:"admin_email"`
	SMSEnabled  bool   `mapstructure:"sms_enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Secrets are read with envconfig so they never live in config files.
type Secrets struct {
	SMTPHost               string `envconfig:"MAILER_HOST"`
	SMTPPort               int    `envconfig:"MAILER_PORT" default:"587"`
	SMTPUsername           string `envconfig:"MAILER_USERNAME"`
	SMTPPassword           string `envconfig:"MAILER_PASSWORD"`
	TwilioAccountSID       string `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken        string `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber       string `envconfig:"TWILIO_FROM_NUMBER"`
	AdminBootstrapPassword string `envconfig:"ADMIN_BOOTSTRAP_PASSWORD"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.request_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.max_body_bytes", 1<<20)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "ayurcare")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 0)
	v.SetDefault("redis.channel", "clinic.events")
	v.SetDefault("redis.consumer_group", "clinic-workers")
	v.SetDefault("redis.consumer_name", "")
	v.SetDefault("redis.stream_max_len", 100000)
	v.SetDefault("redis.claim_idle", time.Minute)
	v.SetDefault("redis.max_deliveries", 5)

	// Empty defaults register the keys so CLINIC_* overrides reach Unmarshal.
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "ayurcare-clinic-api")
	v.SetDefault("jwt.expiry_hours", 24)

	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.password_reset_url", "http://localhost:5173/reset-password")
	v.SetDefault("auth.password_reset_ttl", 30*time.Minute)

	v.SetDefault("booking.timezone", "Asia/Kolkata")
	v.SetDefault("booking.closed_day", "sunday")
	v.SetDefault("booking.strict_transitions", true)
	v.SetDefault("booking.phone_region", "IN")

	v.SetDefault("admin.bootstrap_email", "")

	v.SetDefault("catalog.cache_ttl", 10*time.Minute)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 2)
	v.SetDefault("rate_limit.burst", 10)

	v.SetDefault("cors.allowed_origins", []string{"*"})

	v.SetDefault("outbox.batch_size", 50)
	v.SetDefault("outbox.poll_interval", 2*time.Second)
	v.SetDefault("outbox.retry_attempts", 3)
	v.SetDefault("outbox.retry_delay", time.Second)
	v.SetDefault("outbox.max_retries", 5)
	v.SetDefault("outbox.retention_days", 14)
	v.SetDefault("outbox.purge_schedule", "0 3 * * *")

	v.SetDefault("notification.clinic_name", "AyurCare")
	v.SetDefault("notification.from_address", "no-reply@ayurcare.example")
	v.SetDefault("notification.admin_email", "")
	v.SetDefault("notification.sms_enabled", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// LoadConfig reads an optional .env file, then config.yml from the usual
// locations, then CLINIC_* environment overrides.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")
	v.AddConfigPath("/app/config")
	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
	}

	return load(v)
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix("CLINIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process("", &config.Secrets); err != nil {
		return nil, fmt.Errorf("failed to read secrets: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	var problems []string
	if c.JWT.Secret == "" {
		problems = append(problems, "jwt.secret is required")
	}
	if c.JWT.ExpiryHours <= 0 {
		problems = append(problems, "jwt.expiry_hours must be positive")
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		problems = append(problems, fmt.Sprintf("auth.bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if u, err := url.Parse(c.Auth.PasswordResetURL); err != nil || !u.IsAbs() {
		problems = append(problems, "auth.password_reset_url must be an absolute URL")
	}
	if phonenumbers.GetCountryCodeForRegion(strings.ToUpper(c.Booking.PhoneRegion)) == 0 {
		problems = append(problems, fmt.Sprintf("booking.phone_region %q is not a known region", c.Booking.PhoneRegion))
	}
	if _, err := c.Booking.Location(); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := c.Booking.ClosedWeekday(); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Outbox.BatchSize <= 0 || c.Outbox.RetryAttempts <= 0 {
		problems = append(problems, "outbox.batch_size and outbox.retry_attempts must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// URL is the form golang-migrate and other URL based tools expect.
func (c DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

func (c BookingConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("booking.timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func (c BookingConfig) ClosedWeekday() (time.Weekday, error) {
	day, ok := weekdays[strings.ToLower(strings.TrimSpace(c.ClosedDay))]
	if !ok {
		return time.Sunday, fmt.Errorf("booking.closed_day %q is not a weekday", c.ClosedDay)
	}
	return day, nil
}

func (c JWTConfig) Expiry() time.Duration {
	return time.Duration(c.ExpiryHours) * time.Hour
}

func (s Secrets) MailerConfigured() bool {
	return s.SMTPHost != ""
}

func (s Secrets) TwilioConfigured() bool {
	return s.TwilioAccountSID != "" && s.TwilioAuthToken != "" && s.TwilioFromNumber != ""
}

// Add conversion methods to convert config types
func (c *OutboxConfig) ToWorkerConfig(channel string) worker.OutboxProcessorConfig {
	return worker.OutboxProcessorConfig{
		Channel:       channel,
		BatchSize:     c.BatchSize,
		PollInterval:  c.PollInterval,
		RetryAttempts: c.RetryAttempts,
		RetryDelay:    c.RetryDelay,
		MaxRetries:    c.MaxRetries,
	}
}

func (c *RedisConfig) ToBrokerConfig() redis.Config {
	return redis.Config{
		URL:          c.URL,
		MaxRetries:   c.MaxRetries,
		RetryBackoff: c.RetryBackoff,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
		Streams: redis.StreamConfig{
			Group:         c.ConsumerGroup,
			Consumer:      c.ConsumerName,
			MaxLen:        c.StreamMaxLen,
			ClaimIdle:     c.ClaimIdle,
			MaxDeliveries: c.MaxDeliveries,
		},
	}
}
