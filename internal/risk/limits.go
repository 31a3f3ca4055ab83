package risk

import (
	"sync"
	"time"
)

// DailyLimitTracker counts dispatched trades per symbol and in aggregate for
// the current trading day. Counters reset atomically on the first access of
// a new day. Record is only called after a dispatch the pipeline counts;
// failed dispatches do not consume a slot.
type DailyLimitTracker struct {
	perSymbolLimit int
	totalLimit     int
	now            func() time.Time

	mu        sync.Mutex
	tradeDate string
	perSymbol map[string]int
	total     int
}

// NewDailyLimitTracker creates a tracker. A zero limit disables that bound.
func NewDailyLimitTracker(perSymbolLimit, totalLimit int) *DailyLimitTracker {
	return &DailyLimitTracker{
		perSymbolLimit: perSymbolLimit,
		totalLimit:     totalLimit,
		now:            time.Now,
		perSymbol:      make(map[string]int),
	}
}

// SetClock overrides the tracker's clock, used by tests.
func (t *DailyLimitTracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	t.now = now
	t.mu.Unlock()
}

// rollover resets counters when the stored date is not today. Callers must
// hold the mutex.
func (t *DailyLimitTracker) rollover() {
	today := t.now().Format("2006-01-02")
	if t.tradeDate != today {
		t.tradeDate = today
		t.perSymbol = make(map[string]int)
		t.total = 0
	}
}

// Record counts one dispatched trade for the symbol.
func (t *DailyLimitTracker) Record(symbol string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollover()
	t.perSymbol[symbol]++
	t.total++
}

// Remaining reports how many trades remain for the symbol and in aggregate.
// A disabled limit reports a negative remainder, which callers treat as
// unbounded.
func (t *DailyLimitTracker) Remaining(symbol string) (perSymbol, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollover()

	perSymbol = -1
	if t.perSymbolLimit > 0 {
		perSymbol = t.perSymbolLimit - t.perSymbol[symbol]
		if perSymbol < 0 {
			perSymbol = 0
		}
	}
	total = -1
	if t.totalLimit > 0 {
		total = t.totalLimit - t.total
		if total < 0 {
			total = 0
		}
	}
	return perSymbol, total
}

// Allows reports whether another trade for the symbol fits both limits.
func (t *DailyLimitTracker) Allows(symbol string) bool {
	perSymbol, total := t.Remaining(symbol)
	if perSymbol == 0 || total == 0 {
		return false
	}
	return true
}
