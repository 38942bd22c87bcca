package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Armin-kho/price-tracker-bot/internal/db"
	"github.com/Armin-kho/price-tracker-bot/internal/price"
)

type ReadingStore interface {
	LatestReading(ctx context.Context, productID string) (db.Reading, bool, error)
	AppendReading(ctx context.Context, productID string, p price.Parsed, at time.Time) (db.Reading, error)
}

// Change is a newly persisted reading together with the one it replaced.
// Previous is nil for the first reading of a product.
type Change struct {
	Previous *db.Reading
	Current  db.Reading
}

func (c Change) comparable() bool {
	return c.Previous != nil && c.Previous.Currency == c.Current.Currency
}

// IsDrop reports a lower price in the same currency.
func (c Change) IsDrop() bool {
	return c.comparable() && c.Current.Amount.LessThan(c.Previous.Amount)
}

// Delta is current minus previous; zero when the readings are not comparable.
func (c Change) Delta() decimal.Decimal {
	if !c.comparable() {
		return decimal.Zero
	}
	return c.Current.Amount.Sub(c.Previous.Amount)
}

// Percent is the relative change, rounded to two places.
func (c Change) Percent() (decimal.Decimal, bool) {
	if !c.comparable() || c.Previous.Amount.IsZero() {
		return decimal.Zero, false
	}
	return c.Delta().Div(c.Previous.Amount).Mul(decimal.NewFromInt(100)).Round(2), true
}

// Recorder appends a reading only when it differs from the latest one.
// The lookup and append are serialised so a manual refresh racing the batch
// cannot record the same value twice.
type Recorder struct {
	store ReadingStore
	mu    sync.Mutex
}

func NewRecorder(store ReadingStore) *Recorder {
	return &Recorder{store: store}
}

// Record returns changed=false when p equals the latest persisted reading.
func (r *Recorder) Record(ctx context.Context, productID string, p price.Parsed, at time.Time) (Change, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok, err := r.store.LatestReading(ctx, productID)
	if err != nil {
		return Change{}, false, err
	}
	if ok && prev.Price().Equal(p) {
		return Change{Previous: &prev, Current: prev}, false, nil
	}

	cur, err := r.store.AppendReading(ctx, productID, p, at)
	if err != nil {
		return Change{}, false, err
	}
	c := Change{Current: cur}
	if ok {
		c.Previous = &prev
	}
	return c, true, nil
}
