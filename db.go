package tablekit

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"

	_ "github.com/denisenkom/go-mssqldb"
	"github.com/jmoiron/sqlx"
)

// DB is the root handle: it owns the connection pool, the validation
// pattern registry, and the logger. Connections are dialed lazily; Open
// does not touch the network.
type DB struct {
	cfg      *Config
	sdb      *sqlx.DB
	pool     *Pool
	patterns *patternSet
	log      *slog.Logger
}

// Open prepares a DB for cfg. The legacy "mssql" driver name is used on
// purpose: its ordinal ? placeholders are what the SQL assembly emits.
func Open(cfg *Config) (*DB, error) {
	sdb, err := sqlx.Open("mssql", cfg.DSN())
	if err != nil {
		return nil, classify("open", err)
	}
	// The pool below owns connection retention; database/sql must not
	// keep a second idle layer underneath it.
	sdb.SetMaxIdleConns(0)

	db := &DB{
		cfg:      cfg,
		sdb:      sdb,
		patterns: newPatternSet(cfg.Patterns),
		log:      defaultLogger(),
	}
	db.pool = NewPool(cfg.poolSize(), db.dialConn)
	return db, nil
}

func (db *DB) dialConn() (Conn, error) {
	c, err := db.sdb.Conn(context.Background())
	if err != nil {
		return nil, classify("connect", err)
	}
	return &sqlConn{c: c}, nil
}

// Session returns a fresh execution context. Each concurrent caller gets
// its own Session; a Session and the entities bound to it must not be
// shared across goroutines.
func (db *DB) Session() *Session {
	return &Session{db: db}
}

// SetLogger overrides the logger used for statement tracing.
func (db *DB) SetLogger(l *slog.Logger) {
	if l != nil {
		db.log = l
	}
}

// Close drops the idle pool and the underlying handle.
func (db *DB) Close() error {
	if db.pool != nil {
		db.pool.Close()
	}
	return db.sdb.Close()
}

var (
	loggerOnce sync.Once
	baseLogger *slog.Logger
)

// defaultLogger builds a text logger levelled via LOG_LEVEL.
func defaultLogger() *slog.Logger {
	loggerOnce.Do(func() {
		level := slog.LevelInfo
		switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
		baseLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	})
	return baseLogger
}
