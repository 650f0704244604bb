// Package conf loads settings for the arena client and the mock server.
// Precedence, lowest first: built-in defaults, the TOML file, .env,
// process environment.
package conf

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

type Client struct {
	APIURL           string        `toml:"api_url"`
	CredentialsPath  string        `toml:"credentials"`
	Autosave         string        `toml:"autosave"`
	AutosaveInterval time.Duration `toml:"-"`
	RequestTimeout   time.Duration `toml:"-"`
	LogFile          string        `toml:"log_file"`
	LogLevel         string        `toml:"log_level"`
	S3Region         string        `toml:"s3_region"`

	// durations as written in the file, e.g. "5s"
	AutosaveIntervalStr string `toml:"autosave_interval"`
	RequestTimeoutStr   string `toml:"request_timeout"`
}

type Server struct {
	Addr         string
	FixturesPath string
	JwtKey       []byte
	AccessTTL    time.Duration
}

// DefaultDir is where the client keeps credentials, drafts and logs.
func DefaultDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "arena")
	}
	return ".arena"
}

func defaultClient() Client {
	dir := DefaultDir()
	return Client{
		APIURL:           "http://localhost:8080",
		CredentialsPath:  filepath.Join(dir, "credentials.json"),
		Autosave:         "sqlite://" + filepath.Join(dir, "drafts.db"),
		AutosaveInterval: 5 * time.Second,
		RequestTimeout:   60 * time.Second,
		LogFile:          filepath.Join(dir, "arena.log"),
		LogLevel:         "info",
	}
}

// loadDotEnv reads .env if present. A missing file is fine.
func loadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// LoadClient reads the optional TOML file at path (empty skips it) and
// then applies the environment.
func LoadClient(path string) (Client, error) {
	c := defaultClient()

	if path != "" {
		content, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Client{}, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := toml.Unmarshal(content, &c); err != nil {
				return Client{}, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if err := loadDotEnv(); err != nil {
		return Client{}, err
	}

	setStr(&c.APIURL, "ARENA_API_URL")
	setStr(&c.CredentialsPath, "ARENA_CREDENTIALS")
	setStr(&c.Autosave, "ARENA_AUTOSAVE")
	setStr(&c.AutosaveIntervalStr, "ARENA_AUTOSAVE_INTERVAL")
	setStr(&c.RequestTimeoutStr, "ARENA_REQUEST_TIMEOUT")
	setStr(&c.LogFile, "ARENA_LOG_FILE")
	setStr(&c.LogLevel, "ARENA_LOG_LEVEL")
	setStr(&c.S3Region, "ARENA_S3_REGION")

	var err error
	if c.AutosaveInterval, err = duration(c.AutosaveIntervalStr, c.AutosaveInterval); err != nil {
		return Client{}, fmt.Errorf("invalid autosave interval: %w", err)
	}
	if c.RequestTimeout, err = duration(c.RequestTimeoutStr, c.RequestTimeout); err != nil {
		return Client{}, fmt.Errorf("invalid request timeout: %w", err)
	}
	if c.APIURL == "" {
		return Client{}, errors.New("api url is empty")
	}
	return c, nil
}

// LoadServer configures cmd/mockserver. The signing key comes from
// ARENA_JWT_KEY, or from the AWS secret named by ARENA_JWT_SECRET_NAME.
func LoadServer(ctx context.Context, fetch SecretFetcher) (Server, error) {
	if err := loadDotEnv(); err != nil {
		return Server{}, err
	}
	s := Server{
		Addr:         ":8080",
		FixturesPath: "fixtures.toml",
		AccessTTL:    15 * time.Minute,
	}
	setStr(&s.Addr, "ARENA_LISTEN_ADDR")
	setStr(&s.FixturesPath, "ARENA_FIXTURES")

	ttl, err := duration(os.Getenv("ARENA_ACCESS_TTL"), s.AccessTTL)
	if err != nil {
		return Server{}, fmt.Errorf("invalid access ttl: %w", err)
	}
	s.AccessTTL = ttl

	if key := os.Getenv("ARENA_JWT_KEY"); key != "" {
		s.JwtKey = []byte(key)
		return s, nil
	}
	secretName := os.Getenv("ARENA_JWT_SECRET_NAME")
	if secretName == "" {
		return Server{}, errors.New("ARENA_JWT_KEY or ARENA_JWT_SECRET_NAME must be set")
	}
	if fetch == nil {
		fetch = GetSecretFromAWS
	}
	if s.JwtKey, err = jwtKeyFromSecret(ctx, fetch, secretName); err != nil {
		return Server{}, err
	}
	return s, nil
}

func setStr(dst *string, env string) {
	if v, ok := os.LookupEnv(env); ok {
		*dst = v
	}
}

// duration accepts Go durations ("5s") or plain seconds ("5").
func duration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(s)
}
