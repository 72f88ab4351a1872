package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tradewall/tradewall/internal/domain"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS positions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			symbol TEXT NOT NULL,
			parent_id TEXT NOT NULL DEFAULT '',
			entry REAL NOT NULL,
			amount REAL NOT NULL,
			tp REAL NOT NULL DEFAULT 0,
			sl REAL NOT NULL DEFAULT 0,
			risk REAL NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT '',
			trade_date TEXT NOT NULL DEFAULT '',
			trade_time TEXT NOT NULL DEFAULT '',
			strategy_risk_percent REAL NOT NULL DEFAULT 0,
			strategy_hedges_count INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_positions_user_symbol ON positions(user_id, symbol);`,
		`CREATE INDEX IF NOT EXISTS idx_positions_parent ON positions(parent_id);`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			coin TEXT NOT NULL,
			target_price REAL NOT NULL,
			condition TEXT NOT NULL,
			note TEXT NOT NULL DEFAULT '',
			position_id TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_user_coin ON alerts(user_id, coin);`,
		`CREATE TABLE IF NOT EXISTS tickers (
			symbol TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			last_price REAL NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL
		);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}

	// Migration: older databases lack the structural alert link columns.
	// Errors are ignored when the columns already exist.
	_, _ = s.db.Exec(`ALTER TABLE alerts ADD COLUMN position_id TEXT NOT NULL DEFAULT ''`)
	_, _ = s.db.Exec(`ALTER TABLE alerts ADD COLUMN role TEXT NOT NULL DEFAULT ''`)

	return nil
}

// PositionRepository implementation

func (s *SQLiteStore) SavePosition(ctx context.Context, p *domain.Position) error {
	query := `INSERT INTO positions (id, user_id, symbol, parent_id, entry, amount, tp, sl, risk, currency, trade_date, trade_time, strategy_risk_percent, strategy_hedges_count, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.UserID, p.Symbol, p.ParentID, p.Entry, p.Amount, p.TP, p.SL, p.Risk,
		p.Currency, p.TradeDate, p.TradeTime, p.StrategyRiskPercent, p.StrategyHedgesCount, p.CreatedAt)
	return err
}

func (s *SQLiteStore) GetPosition(ctx context.Context, id string) (*domain.Position, error) {
	query := `SELECT id, user_id, symbol, parent_id, entry, amount, tp, sl, risk, currency, trade_date, trade_time, strategy_risk_percent, strategy_hedges_count, created_at
			  FROM positions WHERE id = ?`
	row := s.db.QueryRowContext(ctx, query, id)

	var p domain.Position
	err := row.Scan(&p.ID, &p.UserID, &p.Symbol, &p.ParentID, &p.Entry, &p.Amount, &p.TP, &p.SL, &p.Risk,
		&p.Currency, &p.TradeDate, &p.TradeTime, &p.StrategyRiskPercent, &p.StrategyHedgesCount, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteStore) UpdatePosition(ctx context.Context, p *domain.Position) error {
	query := `UPDATE positions SET symbol = ?, entry = ?, amount = ?, tp = ?, sl = ?, risk = ?, currency = ?, trade_date = ?, trade_time = ?, strategy_risk_percent = ?, strategy_hedges_count = ?
			  WHERE id = ?`
	_, err := s.db.ExecContext(ctx, query,
		p.Symbol, p.Entry, p.Amount, p.TP, p.SL, p.Risk, p.Currency, p.TradeDate, p.TradeTime,
		p.StrategyRiskPercent, p.StrategyHedgesCount, p.ID)
	return err
}

func (s *SQLiteStore) ListPositions(ctx context.Context, userID string) ([]*domain.Position, error) {
	query := `SELECT id, user_id, symbol, parent_id, entry, amount, tp, sl, risk, currency, trade_date, trade_time, strategy_risk_percent, strategy_hedges_count, created_at
			  FROM positions WHERE user_id = ? ORDER BY created_at ASC`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []*domain.Position
	for rows.Next() {
		var p domain.Position
		if err := rows.Scan(&p.ID, &p.UserID, &p.Symbol, &p.ParentID, &p.Entry, &p.Amount, &p.TP, &p.SL, &p.Risk,
			&p.Currency, &p.TradeDate, &p.TradeTime, &p.StrategyRiskPercent, &p.StrategyHedgesCount, &p.CreatedAt); err != nil {
			return nil, err
		}
		positions = append(positions, &p)
	}
	return positions, rows.Err()
}

func (s *SQLiteStore) DeletePosition(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM positions WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) DeleteChildren(ctx context.Context, parentID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM positions WHERE parent_id = ?`, parentID)
	return err
}

// AlertRepository implementation

func (s *SQLiteStore) SaveAlerts(ctx context.Context, alerts []*domain.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	query := `INSERT INTO alerts (id, user_id, coin, target_price, condition, note, position_id, role, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, a := range alerts {
		if _, err := s.db.ExecContext(ctx, query,
			a.ID, a.UserID, a.Coin, a.TargetPrice, string(a.Condition), a.Note,
			a.PositionID, string(a.Role), a.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) ListAlerts(ctx context.Context, userID string) ([]*domain.Alert, error) {
	query := `SELECT id, user_id, coin, target_price, condition, note, position_id, role, created_at
			  FROM alerts WHERE user_id = ? ORDER BY created_at ASC`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*domain.Alert
	for rows.Next() {
		var a domain.Alert
		var cond, role string
		if err := rows.Scan(&a.ID, &a.UserID, &a.Coin, &a.TargetPrice, &cond, &a.Note,
			&a.PositionID, &role, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Condition = domain.AlertCondition(cond)
		a.Role = domain.AlertRole(role)
		alerts = append(alerts, &a)
	}
	return alerts, rows.Err()
}

func (s *SQLiteStore) DeleteAlert(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM alerts WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) DeleteAlerts(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	query := fmt.Sprintf(`DELETE FROM alerts WHERE id IN (%s)`, placeholders)

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *SQLiteStore) DeleteAlertsByCoin(ctx context.Context, userID, coin string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM alerts WHERE user_id = ? AND coin = ?`, userID, coin)
	return err
}

// TickerRepository implementation

func (s *SQLiteStore) SaveTicker(ctx context.Context, t *domain.Ticker) error {
	query := `INSERT INTO tickers (symbol, name, last_price, updated_at) VALUES (?, ?, ?, ?)
			  ON CONFLICT(symbol) DO UPDATE SET name = excluded.name, last_price = excluded.last_price, updated_at = excluded.updated_at`
	_, err := s.db.ExecContext(ctx, query, t.Symbol, t.Name, t.LastPrice, t.UpdatedAt)
	return err
}

func (s *SQLiteStore) ListTickers(ctx context.Context) ([]*domain.Ticker, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT symbol, name, last_price, updated_at FROM tickers ORDER BY symbol ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickers []*domain.Ticker
	for rows.Next() {
		var t domain.Ticker
		if err := rows.Scan(&t.Symbol, &t.Name, &t.LastPrice, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tickers = append(tickers, &t)
	}
	return tickers, rows.Err()
}
