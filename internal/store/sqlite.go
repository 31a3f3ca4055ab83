package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"dhan-trader/internal/models"
)

// SQLiteStore implements TradeStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the audit database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// initSchema creates the trade_records table and its indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS trade_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		symbol TEXT NOT NULL,
		security_id TEXT NOT NULL,
		side TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		price REAL NOT NULL,
		order_id TEXT,
		outcome TEXT NOT NULL,
		reason TEXT,
		detail TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_trade_records_symbol ON trade_records(symbol, timestamp);
	CREATE INDEX IF NOT EXISTS idx_trade_records_outcome ON trade_records(outcome, timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// LogTradeRecord appends one dispatch-attempt record.
func (s *SQLiteStore) LogTradeRecord(ctx context.Context, record *models.TradeRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trade_records (timestamp, symbol, security_id, side, quantity, price, order_id, outcome, reason, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.Timestamp, record.Symbol, record.SecurityID, string(record.Side),
		record.Quantity, record.Price, record.OrderID,
		string(record.Outcome), string(record.Reason), record.Detail,
	)
	if err != nil {
		return fmt.Errorf("failed to log trade record: %w", err)
	}
	return nil
}

// GetTradeRecords returns records matching the filter, newest first.
func (s *SQLiteStore) GetTradeRecords(ctx context.Context, filter RecordFilter) ([]models.TradeRecord, error) {
	query := `SELECT timestamp, symbol, security_id, side, quantity, price, order_id, outcome, reason, detail
		FROM trade_records WHERE 1=1`
	var args []interface{}

	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	if filter.Outcome != "" {
		query += " AND outcome = ?"
		args = append(args, string(filter.Outcome))
	}
	if !filter.StartDate.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, filter.EndDate)
	}
	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade records: %w", err)
	}
	defer rows.Close()

	var records []models.TradeRecord
	for rows.Next() {
		var r models.TradeRecord
		var side, outcome, reason string
		if err := rows.Scan(&r.Timestamp, &r.Symbol, &r.SecurityID, &side,
			&r.Quantity, &r.Price, &r.OrderID, &outcome, &reason, &r.Detail); err != nil {
			return nil, err
		}
		r.Side = models.OrderSide(strings.ToUpper(side))
		r.Outcome = models.DispatchOutcome(outcome)
		r.Reason = models.RejectReason(reason)
		records = append(records, r)
	}
	return records, rows.Err()
}

// CountByOutcome tallies records for a calendar day, keyed by outcome.
func (s *SQLiteStore) CountByOutcome(ctx context.Context, day time.Time) (map[models.DispatchOutcome]int, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)

	rows, err := s.db.QueryContext(ctx, `
		SELECT outcome, COUNT(*) FROM trade_records
		WHERE timestamp >= ? AND timestamp < ?
		GROUP BY outcome`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to count trade records: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.DispatchOutcome]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		counts[models.DispatchOutcome(outcome)] = n
	}
	return counts, rows.Err()
}
