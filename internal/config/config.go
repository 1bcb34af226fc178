// Package config loads cellarfeed settings from flags, CELLARFEED_*
// environment variables and an optional config file, in that priority order.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ib-77/cellarfeed/pkg/feed"
)

const EnvPrefix = "CELLARFEED"

const (
	DriverMemory   = "memory"
	DriverBolt     = "bolt"
	DriverPostgres = "postgres"
)

type Config struct {
	HTTP  HTTP
	Feed  Feed
	Store Store
	Log   Log
}

type HTTP struct {
	Addr string
}

type Feed struct {
	URL     string
	Timeout time.Duration
	Retries int
}

type Store struct {
	Driver   string
	Bolt     Bolt
	Postgres Postgres
}

type Bolt struct {
	Path string
}

type Postgres struct {
	DSN      string
	MaxConns int32
}

type Log struct {
	Level       string
	Development bool
}

// Flags registers every setting on fs with its default. Flag names are the
// config keys.
func Flags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "Configuration file to read from.")
	fs.String("http.addr", ":8080", "HTTP listen address.")
	fs.String("feed.url", feed.DefaultURL, "Listings feed URL.")
	fs.Duration("feed.timeout", 30*time.Second, "Wait for feed response headers.")
	fs.Int("feed.retries", 3, "Retries when connecting to the feed.")
	fs.String("store.driver", DriverMemory, "Store driver: memory, bolt or postgres.")
	fs.String("store.bolt.path", "data/cellarfeed.db", "bbolt database file.")
	fs.String("store.postgres.dsn", "", "PostgreSQL connection string.")
	fs.Int32("store.postgres.max_conns", 0, "PostgreSQL pool size, 0 for the driver default.")
	fs.String("log.level", "info", "Log level.")
	fs.Bool("log.development", false, "Human readable logs.")
}

// Load resolves the settings defined by Flags.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, errors.Wrap(err, "binding flags")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "reading configuration file '%s'", path)
		}
	}

	c := Config{
		HTTP: HTTP{Addr: v.GetString("http.addr")},
		Feed: Feed{
			URL:     v.GetString("feed.url"),
			Timeout: v.GetDuration("feed.timeout"),
			Retries: v.GetInt("feed.retries"),
		},
		Store: Store{
			Driver: strings.ToLower(v.GetString("store.driver")),
			Bolt:   Bolt{Path: v.GetString("store.bolt.path")},
			Postgres: Postgres{
				DSN:      v.GetString("store.postgres.dsn"),
				MaxConns: v.GetInt32("store.postgres.max_conns"),
			},
		},
		Log: Log{
			Level:       v.GetString("log.level"),
			Development: v.GetBool("log.development"),
		},
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	if c.Feed.URL == "" {
		return errors.New("feed.url is required")
	}
	if c.Feed.Retries < 0 {
		return errors.Errorf("feed.retries must not be negative, got %d", c.Feed.Retries)
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverBolt:
		if c.Store.Bolt.Path == "" {
			return errors.New("store.bolt.path is required for the bolt driver")
		}
	case DriverPostgres:
		if c.Store.Postgres.DSN == "" {
			return errors.New("store.postgres.dsn is required for the postgres driver")
		}
	default:
		return errors.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	return nil
}
