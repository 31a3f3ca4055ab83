// Package store provides the append-only trade record persistence.
package store

import (
	"context"
	"time"

	"dhan-trader/internal/models"
)

// TradeStore defines the audit-trail persistence interface. Records are
// append-only; nothing in the system updates or deletes a written row.
type TradeStore interface {
	LogTradeRecord(ctx context.Context, record *models.TradeRecord) error
	GetTradeRecords(ctx context.Context, filter RecordFilter) ([]models.TradeRecord, error)
	CountByOutcome(ctx context.Context, day time.Time) (map[models.DispatchOutcome]int, error)
	Close() error
}

// RecordFilter narrows a trade record query.
type RecordFilter struct {
	Symbol    string
	Outcome   models.DispatchOutcome
	StartDate time.Time
	EndDate   time.Time
	Limit     int
}
