package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/upb/storefront-assistant/config"
	"go.uber.org/zap"
)

// DB is the assistant's PostgreSQL pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// connectTimeout bounds the initial ping
const connectTimeout = 5 * time.Second

// NewDB opens the pool, applies the configured limits and pings once.
// The pool is closed again when the ping fails.
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", cfg.LogString(), err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()),
		zap.Int("max_open_conns", cfg.MaxOpenConns))

	return NewDBFromSQL(sqlDB, logger), nil
}

// NewDBFromSQL wraps an already opened pool. Used by tests with sqlmock.
func NewDBFromSQL(sqlDB *sql.DB, logger *zap.Logger) *DB {
	return &DB{DB: sqlDB, logger: logger}
}

func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// InitSchema creates the assistant tables. Catalog tables (products,
// inventories, categories, orders, order_items) belong to the storefront
// CRUD service and are only read here.
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
		-- Policy documents searched by the assistant
		CREATE TABLE IF NOT EXISTS policy_documents (
			id BIGSERIAL PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			body TEXT NOT NULL,
			embedding_vector TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- One append-only transcript per user
		CREATE TABLE IF NOT EXISTS conversation_histories (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL UNIQUE,
			history TEXT NOT NULL DEFAULT '',
			turns JSONB NOT NULL DEFAULT '[]'::jsonb,
			version BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Assistant message log
		CREATE TABLE IF NOT EXISTS chat_messages (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			role VARCHAR(16) NOT NULL,
			message TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Product feedback
		CREATE TABLE IF NOT EXISTS feedbacks (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			product_id BIGINT NOT NULL,
			rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
			comment TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_chat_messages_user_id ON chat_messages(user_id);
		CREATE INDEX IF NOT EXISTS idx_feedbacks_user_id ON feedbacks(user_id);
		CREATE INDEX IF NOT EXISTS idx_feedbacks_product_id ON feedbacks(product_id);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("database schema initialized successfully")
	return nil
}
