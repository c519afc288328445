// Package config loads the Mesto server configuration from defaults, an
// optional YAML file, MESTO_* environment variables and bound flags.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes every environment variable, e.g. MESTO_JWT_SECRET.
const EnvPrefix = "MESTO"

// Store backends.
const (
	StoreMongo     = "mongo"
	StoreDatastore = "datastore"
	StorePostgres  = "postgres"
	StoreFS        = "fs"
)

type Mongo struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type Datastore struct {
	Project   string `mapstructure:"project"`
	Namespace string `mapstructure:"namespace"`
}

type Postgres struct {
	DSN string `mapstructure:"dsn"`
}

type FS struct {
	Path string `mapstructure:"path"`
}

// Config is the server configuration. It is loaded once and passed to
// constructors; nothing reads the environment afterwards.
type Config struct {
	Address        string        `mapstructure:"address"`
	Production     bool          `mapstructure:"production"`
	JWTSecret      string        `mapstructure:"jwt_secret"`
	BcryptCost     int           `mapstructure:"bcrypt_cost"`
	LogLevel       string        `mapstructure:"log_level"`
	Store          string        `mapstructure:"store"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`

	Mongo     Mongo     `mapstructure:"mongo"`
	Datastore Datastore `mapstructure:"datastore"`
	Postgres  Postgres  `mapstructure:"postgres"`
	FS        FS        `mapstructure:"fs"`

	// GeneratedSecret is set when JWTSecret was empty outside production
	// and a random key was generated for this process.
	GeneratedSecret bool `mapstructure:"-"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("address", ":3000")
	v.SetDefault("production", false)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("bcrypt_cost", 10)
	v.SetDefault("log_level", "info")
	v.SetDefault("store", StoreMongo)
	v.SetDefault("connect_timeout", 30*time.Second)
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "mestodb")
	v.SetDefault("datastore.project", "")
	v.SetDefault("datastore.namespace", "")
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("fs.path", "./data")
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file into v, decodes and validates the
// result. An empty path skips the file.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration and fills the signing key outside
// production.
func (c *Config) Validate() error {
	var errs []error
	if c.Address == "" {
		errs = append(errs, errors.New("address must not be empty"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("bcrypt_cost %d out of range 4..31", c.BcryptCost))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	switch c.Store {
	case StoreMongo:
		if c.Mongo.URI == "" || c.Mongo.Database == "" {
			errs = append(errs, errors.New("mongo.uri and mongo.database are required"))
		}
	case StoreDatastore:
		if c.Datastore.Project == "" {
			errs = append(errs, errors.New("datastore.project is required"))
		}
	case StorePostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("postgres.dsn is required"))
		}
	case StoreFS:
		if c.FS.Path == "" {
			errs = append(errs, errors.New("fs.path is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store %q", c.Store))
	}

	if c.JWTSecret == "" {
		if c.Production {
			errs = append(errs, errors.New("jwt_secret is required in production"))
		} else {
			secret, err := randomSecret()
			if err != nil {
				errs = append(errs, err)
			}
			c.JWTSecret = secret
			c.GeneratedSecret = true
		}
	}
	return errors.Join(errs...)
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating signing key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NewLogger builds the process logger: JSON in production, console
// otherwise.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	var zc zap.Config
	if c.Production {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
