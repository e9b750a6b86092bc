package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"imagestore/internal/auth"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageDriverLocal = "local"
	StorageDriverS3    = "s3"

	redacted = "********"
)

type Config struct {
	DB      DBConfig      `mapstructure:"db" yaml:"db"`
	JWT     JWTConfig     `mapstructure:"jwt" yaml:"jwt"`
	Auth    AuthConfig    `mapstructure:"auth" yaml:"auth"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	HTTP    HTTPConfig    `mapstructure:"http" yaml:"http"`
	AppHost string        `mapstructure:"host" yaml:"host"`
}

type DBConfig struct {
	Source string `mapstructure:"source" yaml:"source"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret" yaml:"secret"`
	TTL    time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

type AuthConfig struct {
	Argon2 auth.PasswordParams `mapstructure:"argon2" yaml:"argon2"`
}

type StorageConfig struct {
	Driver string   `mapstructure:"driver" yaml:"driver"`
	Path   string   `mapstructure:"path" yaml:"path"`
	S3     S3Config `mapstructure:"s3" yaml:"s3"`
}

type S3Config struct {
	Bucket       string `mapstructure:"bucket" yaml:"bucket"`
	Prefix       string `mapstructure:"prefix" yaml:"prefix"`
	Region       string `mapstructure:"region" yaml:"region"`
	Endpoint     string `mapstructure:"endpoint" yaml:"endpoint"`
	AccessKey    string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey    string `mapstructure:"secret_key" yaml:"secret_key"`
	UsePathStyle bool   `mapstructure:"use_path_style" yaml:"use_path_style"`
}

type HTTPConfig struct {
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	CORSOrigins     []string      `mapstructure:"cors_origins" yaml:"cors_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", ":3000")

	// Registered so AutomaticEnv can see them during Unmarshal.
	v.SetDefault("db.source", "")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.ttl", auth.DefaultTokenTTL)

	v.SetDefault("auth.argon2.memory", auth.DefaultPasswordParams.Memory)
	v.SetDefault("auth.argon2.iterations", auth.DefaultPasswordParams.Iterations)
	v.SetDefault("auth.argon2.parallelism", auth.DefaultPasswordParams.Parallelism)
	v.SetDefault("auth.argon2.salt_length", auth.DefaultPasswordParams.SaltLength)
	v.SetDefault("auth.argon2.key_length", auth.DefaultPasswordParams.KeyLength)

	v.SetDefault("storage.driver", StorageDriverLocal)
	v.SetDefault("storage.path", "./data/images")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.prefix", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key", "")
	v.SetDefault("storage.s3.secret_key", "")
	v.SetDefault("storage.s3.use_path_style", false)

	v.SetDefault("http.max_body_bytes", 10*1024*1024)
	v.SetDefault("http.cors_origins", []string{"*"})
	v.SetDefault("http.read_timeout", 30*time.Second)
	v.SetDefault("http.write_timeout", 60*time.Second)
	v.SetDefault("http.shutdown_timeout", 15*time.Second)
}

// Load reads settings.yml from the given directories (./configs and
// /configs when none are given). Environment variables override the file,
// with dots replaced by underscores: JWT_SECRET, DB_SOURCE, STORAGE_PATH.
// A .env file in the working directory is applied first when present.
func Load(paths ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	if len(paths) == 0 {
		paths = []string{"./configs", "/configs"}
	}

	v := viper.New()
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("settings")
	v.SetConfigType("yml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.DB.Source == "" {
		errs = append(errs, errors.New("db.source is required"))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret is required"))
	}
	if c.JWT.TTL <= 0 {
		errs = append(errs, errors.New("jwt.ttl must be positive"))
	}
	if err := c.Auth.Argon2.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("auth.argon2: %w", err))
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("http.max_body_bytes must be positive"))
	}

	switch c.Storage.Driver {
	case StorageDriverLocal:
		if c.Storage.Path == "" {
			errs = append(errs, errors.New("storage.path is required for the local driver"))
		}
	case StorageDriverS3:
		if c.Storage.S3.Bucket == "" {
			errs = append(errs, errors.New("storage.s3.bucket is required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}

	return errors.Join(errs...)
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.JWT.Secret != "" {
		c.JWT.Secret = redacted
	}
	if c.Storage.S3.SecretKey != "" {
		c.Storage.S3.SecretKey = redacted
	}
	if c.DB.Source != "" {
		c.DB.Source = redactDSN(c.DB.Source)
	}
	c.HTTP.CORSOrigins = append([]string(nil), c.HTTP.CORSOrigins...)
	return c
}

// redactDSN hides the password of a postgres URL, leaving key=value
// strings untouched apart from their password field.
func redactDSN(dsn string) string {
	if scheme, rest, ok := strings.Cut(dsn, "://"); ok {
		creds, host, ok := strings.Cut(rest, "@")
		if !ok {
			return dsn
		}
		user, _, hasPass := strings.Cut(creds, ":")
		if !hasPass {
			return dsn
		}
		return scheme + "://" + user + ":" + redacted + "@" + host
	}

	fields := strings.Fields(dsn)
	for i, f := range fields {
		if strings.HasPrefix(f, "password=") {
			fields[i] = "password=" + redacted
		}
	}
	return strings.Join(fields, " ")
}
