package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/mselser95/clob-arb/pkg/types"
)

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage connects and pings the database.
func NewPostgresStorage(cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStorage{db: db, logger: cfg.Logger}, nil
}

// InsertTrade stores a trade attempt, idempotent on the trade id.
func (p *PostgresStorage) InsertTrade(ctx context.Context, rec *TradeRecord) error {
	query := `
		INSERT INTO trades (
			trade_id, market_name, kind, detected_at, executed_at,
			price_sum, all_in_cost, expected_profit_bps, size_shares,
			status, pnl_usd
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (trade_id) DO NOTHING
	`

	_, err := p.db.ExecContext(ctx, query,
		rec.TradeID,
		rec.MarketName,
		rec.Kind,
		rec.DetectedAt,
		rec.ExecutedAt,
		rec.PriceSum,
		rec.AllInCost,
		rec.ExpectedProfitBps,
		rec.SizeShares,
		string(rec.Status),
		rec.PnLUSD,
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}

	p.logger.Debug("trade-stored",
		zap.String("trade-id", rec.TradeID),
		zap.String("status", string(rec.Status)))
	return nil
}

// UpdateTradeStatus updates the final disposition of a trade.
func (p *PostgresStorage) UpdateTradeStatus(ctx context.Context, tradeID string, status types.TradeStatus, pnlUSD float64) error {
	query := `UPDATE trades SET status = $2, pnl_usd = $3 WHERE trade_id = $1`

	_, err := p.db.ExecContext(ctx, query, tradeID, string(status), pnlUSD)
	if err != nil {
		return fmt.Errorf("update trade status: %w", err)
	}
	return nil
}

// SaveConfigSnapshot stores the effective configuration at startup.
func (p *PostgresStorage) SaveConfigSnapshot(ctx context.Context, snapshot []byte) error {
	query := `INSERT INTO config_snapshots (created_at, config) VALUES (NOW(), $1)`

	_, err := p.db.ExecContext(ctx, query, snapshot)
	if err != nil {
		return fmt.Errorf("save config snapshot: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}
