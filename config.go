package tablekit

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Defaults applied when a Config leaves the knobs at zero.
const (
	DefaultPoolSize = 5
	DefaultTimeout  = 30 // seconds, dial timeout carried into the DSN
	DefaultPort     = 1433
)

// Config carries the connection target and tuning knobs for a DB.
// Zero fields fall back to the defaults above; credentials have no
// fallback and must come from the caller or the environment.
type Config struct {
	Server   string
	Port     int
	Database string
	User     string
	Password string

	// PoolSize caps the number of idle connections retained by the pool.
	// It is not a concurrency ceiling: when the pool is empty a new
	// connection is dialed instead of waiting.
	PoolSize int

	// Timeout is the dial timeout in seconds, passed to the driver.
	Timeout int

	// Patterns holds custom validation patterns registered on top of the
	// built-in table, keyed by pattern id.
	Patterns map[string]string
}

// FromEnv builds a Config from DB_SERVER, DB_PORT, DB_DATABASE, DB_USER
// and DB_PASSWORD. A .env file in the working directory is loaded first
// when present.
func FromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server:   os.Getenv("DB_SERVER"),
		Database: os.Getenv("DB_DATABASE"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
	}
	if p := os.Getenv("DB_PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("config: invalid DB_PORT %q", p)
		}
		cfg.Port = port
	}
	if cfg.Server == "" || cfg.Database == "" {
		return nil, fmt.Errorf("config: DB_SERVER and DB_DATABASE must be set")
	}
	return cfg, nil
}

// RegisterPattern adds a custom validation pattern under id. Entities
// built from this Config's DB may reference it like a built-in.
func (c *Config) RegisterPattern(id, pattern string) {
	if c.Patterns == nil {
		c.Patterns = map[string]string{}
	}
	c.Patterns[id] = pattern
}

func (c *Config) poolSize() int {
	if c.PoolSize > 0 {
		return c.PoolSize
	}
	return DefaultPoolSize
}

// DSN renders the sqlserver:// connection URL consumed by go-mssqldb.
func (c *Config) DSN() string {
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	timeout := c.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	q := url.Values{}
	q.Set("database", c.Database)
	q.Set("connection timeout", strconv.Itoa(timeout))
	q.Set("encrypt", "disable")
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Server, port),
		RawQuery: q.Encode(),
	}
	return u.String()
}
