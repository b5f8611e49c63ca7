// Package config loads jobflow's process configuration, adapted from
// the teacher's internal/config.Load: the same viper-backed
// SetDefault/BindEnv/ReadInConfig/Unmarshal pipeline, narrowed from the
// teacher's web-app configuration surface down to what a jobflow
// deployment actually needs — which store backend to dial, whether to
// publish completion notifications, and the runner/manager defaults.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is jobflow's process configuration.
type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogJSON     bool   `mapstructure:"log_json"`

	Store  Store  `mapstructure:"store"`
	Notify Notify `mapstructure:"notify"`
	Runner Runner `mapstructure:"runner"`

	// Manager holds the opaque manager_config bag read from configuration;
	// the core never interprets it (spec §6). Load does not copy it into
	// any job's ManagerConfig.
	Manager map[string]any `mapstructure:"manager"`
}

// Store selects and configures the persisted job-output backend.
type Store struct {
	// Backend is one of "mem", "mongo", "badger", "redis".
	Backend string      `mapstructure:"backend"`
	Mongo   MongoStore  `mapstructure:"mongo"`
	Badger  BadgerStore `mapstructure:"badger"`
	Redis   RedisStore  `mapstructure:"redis"`
}

type MongoStore struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type BadgerStore struct {
	Dir string `mapstructure:"dir"`
}

type RedisStore struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// Notify configures completion-notification publishing.
type Notify struct {
	NATS NATSNotify `mapstructure:"nats"`
}

type NATSNotify struct {
	Enabled       bool   `mapstructure:"enabled"`
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

// Runner configures the in-process dispatcher.
type Runner struct {
	Concurrency uint `mapstructure:"concurrency"`
	StopOnError bool `mapstructure:"stop_on_error"`
}

// Load reads jobflow configuration from built-in defaults,
// ./jobflow.yaml or ./config/jobflow.yaml (if present), and environment
// variables, in that order of increasing precedence.
func Load() (*Config, error) {
	viper.SetConfigName("jobflow")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_json", false)
	viper.SetDefault("store.backend", "mem")
	viper.SetDefault("store.mongo.database", "jobflow")
	viper.SetDefault("store.mongo.collection", "job_outputs")
	viper.SetDefault("store.badger.dir", "./jobflow-data")
	viper.SetDefault("store.redis.db", 0)
	viper.SetDefault("notify.nats.enabled", false)
	viper.SetDefault("notify.nats.subject_prefix", "jobflow.completions.")
	viper.SetDefault("runner.concurrency", 0)
	viper.SetDefault("runner.stop_on_error", false)

	viper.AutomaticEnv()

	viper.BindEnv("environment", "JOBFLOW_ENVIRONMENT")
	viper.BindEnv("log_level", "JOBFLOW_LOG_LEVEL")
	viper.BindEnv("log_json", "JOBFLOW_LOG_JSON")
	viper.BindEnv("store.backend", "JOBFLOW_STORE_BACKEND")
	viper.BindEnv("store.mongo.uri", "JOBFLOW_MONGO_URI")
	viper.BindEnv("store.mongo.database", "JOBFLOW_MONGO_DATABASE")
	viper.BindEnv("store.mongo.collection", "JOBFLOW_MONGO_COLLECTION")
	viper.BindEnv("store.badger.dir", "JOBFLOW_BADGER_DIR")
	viper.BindEnv("store.redis.addr", "JOBFLOW_REDIS_ADDR")
	viper.BindEnv("store.redis.password", "JOBFLOW_REDIS_PASSWORD")
	viper.BindEnv("store.redis.db", "JOBFLOW_REDIS_DB")
	viper.BindEnv("notify.nats.enabled", "JOBFLOW_NATS_ENABLED")
	viper.BindEnv("notify.nats.url", "JOBFLOW_NATS_URL")
	viper.BindEnv("runner.concurrency", "JOBFLOW_RUNNER_CONCURRENCY")
	viper.BindEnv("runner.stop_on_error", "JOBFLOW_RUNNER_STOP_ON_ERROR")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}
