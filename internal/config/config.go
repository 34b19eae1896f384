package config

import (
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Broker kinds.
const (
	BrokerMQTT  = "mqtt"
	BrokerRedis = "redis"
)

// Topic placeholders used when PUB_ROOT / PUB_SOURCE are unset.
const (
	DefaultRoot   = "MISSING_ROOT"
	DefaultSource = "MISSING_SOURCE"
)

// MQTTConfig holds MQTT connection settings.
type MQTTConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	ClientID  string
	KeepAlive time.Duration
}

// HasAuth reports whether credentials should be sent. Both halves are
// required; a lone username or password is ignored.
func (m MQTTConfig) HasAuth() bool {
	return m.Username != "" && m.Password != ""
}

// Address returns the paho broker URL.
func (m MQTTConfig) Address() string {
	return fmt.Sprintf("tcp://%s:%d", m.Host, m.Port)
}

func (m MQTTConfig) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Host, validation.Required),
		validation.Field(&m.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&m.ClientID, validation.Required),
		validation.Field(&m.KeepAlive, validation.Min(time.Duration(0))),
	)
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

func (r RedisConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Address, validation.Required),
		validation.Field(&r.DB, validation.Min(0)),
	)
}

// BrokerConfig selects and configures the publish/subscribe transport.
type BrokerConfig struct {
	Kind  string
	MQTT  MQTTConfig
	Redis RedisConfig
}

func (b BrokerConfig) Validate() error {
	rules := []*validation.FieldRules{
		validation.Field(&b.Kind, validation.Required, validation.In(BrokerMQTT, BrokerRedis)),
	}
	switch b.Kind {
	case BrokerMQTT:
		rules = append(rules, validation.Field(&b.MQTT))
	case BrokerRedis:
		rules = append(rules, validation.Field(&b.Redis))
	}
	return validation.ValidateStruct(&b, rules...)
}

// TopicConfig holds the leading segments of every published topic.
type TopicConfig struct {
	Root   string
	Source string
}

func (t TopicConfig) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Root, validation.Required),
		validation.Field(&t.Source, validation.Required),
	)
}

// Config is the root application configuration.
type Config struct {
	Interval     time.Duration
	ProbeTimeout time.Duration
	TargetDelay  time.Duration
	TargetsFile  string
	Broker       BrokerConfig
	Topics       TopicConfig
	Timezone     string
	LogLevel     string
	LogDir       string
	StatusAddr   string
	Targets      []Target
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Interval, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.ProbeTimeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.TargetDelay, validation.Min(time.Duration(0))),
		validation.Field(&c.TargetsFile, validation.Required),
		validation.Field(&c.Broker),
		validation.Field(&c.Topics),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
	)
}

// Load reads environment configuration, then the target registry it points at.
func Load() (*Config, error) {
	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	targets, err := LoadTargets(cfg.TargetsFile)
	if err != nil {
		return nil, err
	}
	cfg.Targets = targets

	return cfg, nil
}

// FromEnv builds a validated Config from the environment. A .env file in the
// working directory (or the file named by ENV_FILE) is loaded first; variables
// already present in the environment win.
func FromEnv() (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	v := newViper()

	cfg := &Config{
		Interval:     time.Duration(v.GetInt64("check_interval_ms")) * time.Millisecond,
		ProbeTimeout: time.Duration(v.GetFloat64("probe_timeout_seconds") * float64(time.Second)),
		TargetDelay:  time.Duration(v.GetInt64("target_delay_ms")) * time.Millisecond,
		TargetsFile:  v.GetString("targets_file"),
		Broker: BrokerConfig{
			Kind: v.GetString("broker_kind"),
			MQTT: MQTTConfig{
				Host:      v.GetString("mqtt_broker"),
				Port:      v.GetInt("mqtt_port"),
				Username:  v.GetString("mqtt_username"),
				Password:  v.GetString("mqtt_password"),
				ClientID:  v.GetString("mqtt_client_id"),
				KeepAlive: time.Duration(v.GetInt("mqtt_keepalive_seconds")) * time.Second,
			},
			Redis: RedisConfig{
				Address:  v.GetString("redis_address"),
				Password: v.GetString("redis_password"),
				DB:       v.GetInt("redis_db"),
			},
		},
		Topics: TopicConfig{
			Root:   v.GetString("pub_root"),
			Source: v.GetString("pub_source"),
		},
		Timezone:   v.GetString("tz"),
		LogLevel:   v.GetString("log_level"),
		LogDir:     v.GetString("log_dir"),
		StatusAddr: v.GetString("status_addr"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("check_interval_ms", 60000)
	v.SetDefault("probe_timeout_seconds", 10)
	v.SetDefault("target_delay_ms", 500)
	v.SetDefault("targets_file", "targets.yml")
	v.SetDefault("broker_kind", BrokerMQTT)
	v.SetDefault("mqtt_broker", "localhost")
	v.SetDefault("mqtt_port", 1883)
	v.SetDefault("mqtt_client_id", "sitepulse")
	v.SetDefault("mqtt_keepalive_seconds", 60)
	v.SetDefault("redis_address", "localhost:6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("pub_root", DefaultRoot)
	v.SetDefault("pub_source", DefaultSource)
	v.SetDefault("tz", "America/Los_Angeles")
	v.SetDefault("log_level", "info")

	v.AutomaticEnv()
	return v
}

// loadEnvFiles loads ENV_FILE if set, otherwise .env.local then .env.
// Missing files are not an error.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}
