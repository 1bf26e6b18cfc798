package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/trade-ledger/internal/common"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver           string // postgres | sqlite
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// DB is a database/sql handle plus the ent dialect used to build queries for it.
type DB struct {
	sql     *sql.DB
	pool    *pgxpool.Pool
	dialect string
	logger  *slog.Logger
}

// Open connects to Postgres through a pgx pool (wrapped as *sql.DB) or opens
// a SQLite file with modernc.org/sqlite.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Driver {
	case DriverSQLite:
		return openSQLite(ctx, cfg, logger)
	case DriverPostgres, "":
		return openPostgres(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	logger.Info("connecting to database", "driver", DriverPostgres)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database dsn", "error", err)
		return nil, err
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "trade-ledger"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprint(cfg.StatementTimeout.Milliseconds())
	}

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	logger.Info("successfully connected to database", "driver", DriverPostgres)
	return &DB{sql: stdlib.OpenDBFromPool(pool), pool: pool, dialect: dialect.Postgres, logger: logger}, nil
}

func openSQLite(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = ":memory:"
	}
	logger.Info("opening database", "driver", DriverSQLite, "dsn", dsn)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One connection: SQLite serializes writers, and ":memory:" is per connection.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		logger.Error("failed to open database", "error", err)
		return nil, err
	}
	return &DB{sql: db, dialect: dialect.SQLite, logger: logger}, nil
}

// Dialect is the ent dialect name (dialect.Postgres or dialect.SQLite).
func (db *DB) Dialect() string { return db.dialect }

func (db *DB) builder() *entsql.DialectBuilder { return entsql.Dialect(db.dialect) }

// Close closes the database connections gracefully
func (db *DB) Close() {
	db.logger.Info("closing database connections")
	if err := db.sql.Close(); err != nil {
		db.logger.Error("failed to close database", "error", err)
	}
	if db.pool != nil {
		db.pool.Close()
	}
	db.logger.Info("database connections closed")
}

// HealthCheck pings the database to catch DSN issues early.
func (db *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if db.pool != nil {
		return db.pool.Ping(ctx)
	}
	return db.sql.PingContext(ctx)
}

type column struct {
	name string
	typ  string // type plus constraints
}

// createTable renders CREATE TABLE IF NOT EXISTS with identifiers quoted for the dialect.
func (db *DB) createTable(table string, columns []column, primaryKey string) string {
	b := db.builder()
	defs := make([]string, 0, len(columns)+1)
	for _, c := range columns {
		q, _ := b.Column(c.name).Type(c.typ).Query()
		defs = append(defs, q)
	}
	defs = append(defs, "PRIMARY KEY ("+b.String(func(sb *entsql.Builder) { sb.Ident(primaryKey) })+")")
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		b.String(func(sb *entsql.Builder) { sb.Ident(table) }), strings.Join(defs, ", "))
}

// Migrate creates the ledger tables when missing.
func (db *DB) Migrate(ctx context.Context) error {
	text, float, boolean := "TEXT", "DOUBLE PRECISION", "BOOLEAN"
	if db.dialect == dialect.SQLite {
		float, boolean = "REAL", "INTEGER"
	}
	notNull := func(t string) string { return t + " NOT NULL" }

	stmts := []string{
		db.createTable(tableInventoryItems, []column{
			{"id", notNull(text)},
			{"owner_id", notNull(text)},
			{"name", notNull(text)},
			{"unit", notNull(text)},
			{"quantity", notNull(float) + " DEFAULT 0"},
			{"unit_price", notNull(float) + " DEFAULT 0"},
			{"created_at", notNull(text)},
			{"updated_at", notNull(text)},
		}, "id"),
		db.createTable(tableTransactions, []column{
			{"id", notNull(text)},
			{"owner_id", notNull(text)},
			{"transaction_type", notNull(text)},
			{"tx_date", notNull(text)},
			{"total_amount", notNull(float)},
			{"customer_name", text},
			{"notes", text},
			{"payment_status", notNull(text)},
			{"confidence", notNull(text)},
			{"needs_review", notNull(boolean)},
			{"strategy", notNull(text)},
			{"model_name", text},
			{"language", notNull(text)},
			{"raw_text", notNull(text)},
			{"items", notNull(text)},
			{"created_at", notNull(text)},
		}, "id"),
		"CREATE UNIQUE INDEX IF NOT EXISTS inventory_items_owner_name ON inventory_items (owner_id, name)",
		"CREATE INDEX IF NOT EXISTS transactions_owner_date ON transactions (owner_id, tx_date)",
	}

	for _, q := range stmts {
		if _, err := db.sql.ExecContext(ctx, q); err != nil {
			db.logger.Error("migration failed", "statement", q, "error", err)
			return fmt.Errorf("migrate: %w", err)
		}
	}
	db.logger.Info("database migrated", "dialect", db.dialect)
	return nil
}

type txKey struct{}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn is the transaction carried by ctx, or the pool.
func (db *DB) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok && tx != nil {
		return tx
	}
	return db.sql
}

// InTx runs fn inside one database transaction. Repository calls made with the
// context passed to fn join it. Nested calls reuse the outer transaction.
func (db *DB) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		db.logger.Error("failed to begin transaction", "error", err)
		return common.DatabaseError("begin transaction", err)
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("failed to roll back transaction", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		db.logger.Error("failed to commit transaction", "error", err)
		return common.DatabaseError("commit transaction", err)
	}
	return nil
}

const (
	tableInventoryItems = "inventory_items"
	tableTransactions   = "transactions"
)

const timeLayout = time.RFC3339Nano
