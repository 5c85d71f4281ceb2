package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
db:
  driver: pgx
  dsn: postgres://localhost/visiverse
library:
  include: ["*.mp4", "*.jpg"]
auth:
  token_secret: s3cret
  hash:
    time: 4
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "pgx", cfg.DB.Driver)
	assert.Equal(t, []string{"*.mp4", "*.jpg"}, cfg.Library.Include)
	assert.Equal(t, uint32(4), cfg.Auth.Hash.Time)
	assert.Equal(t, uint32(64*1024), cfg.Auth.Hash.MemoryKiB)
	assert.Equal(t, uint8(4), cfg.Auth.Hash.Parallelism)
	assert.Equal(t, "./media", cfg.Library.MediaPath)
	assert.Equal(t, "-thumb.jpg", cfg.Storage.ThumbSuffix)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 10*time.Minute, cfg.Library.ScanInterval)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "auth:\n  token_secret: from-file\n")
	t.Setenv("VISIVERSE_AUTH_TOKEN_SECRET", "from-env")
	t.Setenv("VISIVERSE_SERVER_PORT", "9090")
	t.Setenv("VISIVERSE_AUTH_HASH_MEMORY_KIB", "131072")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.TokenSecret)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, uint32(131072), cfg.Auth.Hash.MemoryKiB)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestLoad_RejectsWeakHashParams(t *testing.T) {
	path := writeConfig(t, `
auth:
  token_secret: x
  hash:
    memory_kib: 1024
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.hash")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:     ServerConfig{Port: "8080", ReadHeaderTimeout: time.Second},
			Log:        LogConfig{Level: "info", Format: "json"},
			DB:         DBConfig{Driver: "sqlite", DSN: ":memory:"},
			Library:    LibraryConfig{MediaPath: "m"},
			Storage:    StorageConfig{Path: "s"},
			Transcoder: TranscoderConfig{ThumbWidth: 320},
			Auth: AuthConfig{
				TokenSecret: "x",
				TokenTTL:    time.Hour,
				Hash:        HashConfig{MemoryKiB: 8192, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32},
			},
		}
	}

	c := valid()
	require.NoError(t, c.Validate())

	tests := map[string]func(*Config){
		"unknown driver":    func(c *Config) { c.DB.Driver = "mysql" },
		"empty secret":      func(c *Config) { c.Auth.TokenSecret = "" },
		"zero ttl":          func(c *Config) { c.Auth.TokenTTL = 0 },
		"zero time cost":    func(c *Config) { c.Auth.Hash.Time = 0 },
		"too many lanes":    func(c *Config) { c.Auth.Hash.Parallelism = 255; c.Auth.Hash.MemoryKiB = 1000 },
		"negative workers":  func(c *Config) { c.Auth.Hash.MaxConcurrent = -1 },
		"bad log format":    func(c *Config) { c.Log.Format = "xml" },
		"no thumb width":    func(c *Config) { c.Transcoder.ThumbWidth = 0 },
		"negative interval": func(c *Config) { c.Library.ScanInterval = -time.Second },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoad_FlagsOverrideFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9000"
db:
  dsn: from-file.db
auth:
  token_secret: s3cret
`)
	t.Setenv("VISIVERSE_DB_DSN", "from-env.db")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--db-dsn", "from-flag.db"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, "from-flag.db", cfg.DB.DSN)
	assert.Equal(t, "9000", cfg.Server.Port, "unset flag must not clobber the file")
	assert.Equal(t, "./media", cfg.Library.MediaPath)
}
