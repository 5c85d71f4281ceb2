package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"visiverse/internal/logger"
	"visiverse/internal/password"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "VISIVERSE"

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	DB         DBConfig         `mapstructure:"db"`
	Library    LibraryConfig    `mapstructure:"library"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Transcoder TranscoderConfig `mapstructure:"transcoder"`
	Auth       AuthConfig       `mapstructure:"auth"`
}

type ServerConfig struct {
	Port              string        `mapstructure:"port"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DBConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type LibraryConfig struct {
	MediaPath    string        `mapstructure:"media_path"`
	Include      []string      `mapstructure:"include"`
	ScanInterval time.Duration `mapstructure:"scan_interval"`
}

type StorageConfig struct {
	Path        string `mapstructure:"path"`
	ThumbSuffix string `mapstructure:"thumb_suffix"`
}

type TranscoderConfig struct {
	FFmpegPath  string        `mapstructure:"ffmpeg_path"`
	FFprobePath string        `mapstructure:"ffprobe_path"`
	ThumbSeek   time.Duration `mapstructure:"thumb_seek"`
	ThumbWidth  int           `mapstructure:"thumb_width"`
}

type AuthConfig struct {
	TokenSecret   string        `mapstructure:"token_secret"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	SessionSecret string        `mapstructure:"session_secret"`
	Hash          HashConfig    `mapstructure:"hash"`
}

// HashConfig holds the argon2id cost parameters for new password hashes.
type HashConfig struct {
	MemoryKiB     uint32 `mapstructure:"memory_kib"`
	Time          uint32 `mapstructure:"time"`
	Parallelism   uint8  `mapstructure:"parallelism"`
	SaltLength    uint32 `mapstructure:"salt_length"`
	KeyLength     uint32 `mapstructure:"key_length"`
	MaxConcurrent int    `mapstructure:"max_concurrent"`
}

// Params converts the section into hasher parameters.
func (h HashConfig) Params() password.Params {
	return password.Params{
		Time:        h.Time,
		Memory:      h.MemoryKiB,
		Parallelism: h.Parallelism,
		SaltLength:  h.SaltLength,
		KeyLength:   h.KeyLength,
	}
}

func setDefaults(v *viper.Viper) {
	hash := password.DefaultParams()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 0)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("log.level", logger.InfoLevel)
	v.SetDefault("log.format", logger.FormatConsole)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "visiverse.db")

	v.SetDefault("library.media_path", "./media")
	v.SetDefault("library.include", []string{"*"})
	v.SetDefault("library.scan_interval", 10*time.Minute)

	v.SetDefault("storage.path", "./storage")
	v.SetDefault("storage.thumb_suffix", "-thumb.jpg")

	v.SetDefault("transcoder.ffmpeg_path", "ffmpeg")
	v.SetDefault("transcoder.ffprobe_path", "ffprobe")
	v.SetDefault("transcoder.thumb_seek", 5*time.Second)
	v.SetDefault("transcoder.thumb_width", 720)

	v.SetDefault("auth.token_secret", "")
	v.SetDefault("auth.token_ttl", 12*time.Hour)
	v.SetDefault("auth.session_secret", "")
	v.SetDefault("auth.hash.memory_kib", hash.Memory)
	v.SetDefault("auth.hash.time", hash.Time)
	v.SetDefault("auth.hash.parallelism", hash.Parallelism)
	v.SetDefault("auth.hash.salt_length", hash.SaltLength)
	v.SetDefault("auth.hash.key_length", hash.KeyLength)
	v.SetDefault("auth.hash.max_concurrent", 0)
}

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"port":       "server.port",
	"log-level":  "log.level",
	"log-format": "log.format",
	"db-driver":  "db.driver",
	"db-dsn":     "db.dsn",
	"media-path": "library.media_path",
}

// RegisterFlags adds the flags Load understands to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("port", "", "HTTP listen port or address")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("log-format", "", "log format (console, json)")
	fs.String("db-driver", "", "database driver (sqlite, pgx)")
	fs.String("db-dsn", "", "database DSN or sqlite file")
	fs.String("media-path", "", "media library directory")
}

// Load reads configuration from file, then VISIVERSE_* environment variables, then
// any flags from RegisterFlags that were set on the command line.
// With an empty path it looks for configs/config.yml and carries on with defaults
// if there is none. The result is validated.
func Load(path string, flagSets ...*pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for _, fs := range flagSets {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs") // configs/config.yml
		v.AddConfigPath(".")
		v.SetConfigName("config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fails on values the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.DB.Driver {
	case "sqlite", "pgx", "postgres":
	default:
		errs = append(errs, fmt.Errorf("db.driver: unsupported %q", c.DB.Driver))
	}
	if c.DB.DSN == "" {
		errs = append(errs, errors.New("db.dsn: required"))
	}

	switch c.Log.Format {
	case logger.FormatConsole, logger.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("log.format: unsupported %q", c.Log.Format))
	}

	if c.Auth.TokenSecret == "" {
		errs = append(errs, errors.New("auth.token_secret: required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl: must be positive"))
	}
	if err := c.Auth.Hash.Params().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("auth.hash: %w", err))
	}
	if c.Auth.Hash.MaxConcurrent < 0 {
		errs = append(errs, errors.New("auth.hash.max_concurrent: must not be negative"))
	}

	if c.Library.MediaPath == "" {
		errs = append(errs, errors.New("library.media_path: required"))
	}
	if c.Library.ScanInterval < 0 {
		errs = append(errs, errors.New("library.scan_interval: must not be negative"))
	}
	if c.Storage.Path == "" {
		errs = append(errs, errors.New("storage.path: required"))
	}
	if c.Transcoder.ThumbWidth <= 0 {
		errs = append(errs, errors.New("transcoder.thumb_width: must be positive"))
	}
	if c.Server.ReadHeaderTimeout <= 0 {
		errs = append(errs, errors.New("server.read_header_timeout: must be positive"))
	}

	return errors.Join(errs...)
}
