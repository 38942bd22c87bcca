package scheduler

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Armin-kho/price-tracker-bot/internal/db"
	"github.com/Armin-kho/price-tracker-bot/internal/extract"
	"github.com/Armin-kho/price-tracker-bot/internal/price"
)

// ErrNoPrice means the page was fetched but no price could be found on it.
var ErrNoPrice = errors.New("could not extract price from URL")

// failNotifyEvery throttles chronic-failure alerts per product.
const failNotifyEvery = 30 * time.Minute

type Store interface {
	ReadingStore
	ListDue(ctx context.Context, now time.Time) ([]db.Product, error)
	MarkChecked(ctx context.Context, productID string, at time.Time, errMsg string) (int, error)
	FillProductMeta(ctx context.Context, productID, name, imageURL string) error
}

type Extractor interface {
	Extract(ctx context.Context, url string) (extract.Result, error)
}

type Notifier interface {
	// PriceChanged is called for every persisted change found by a scheduled
	// check, including the first reading of a product.
	PriceChanged(ctx context.Context, p db.Product, c Change)
	// CheckFailing is called once a product has failed failures checks in a row.
	CheckFailing(ctx context.Context, p db.Product, failures int, err error)
}

type Options struct {
	Tick              time.Duration
	Pacing            time.Duration
	FailureAlertAfter int
}

// Outcome is the result of checking one product.
type Outcome struct {
	Product db.Product
	Result  extract.Result
	// Change is set when a new reading was persisted.
	Change *Change
	// Latest is the newest persisted reading after the check.
	Latest *db.Reading
}

type Scheduler struct {
	store    Store
	extract  Extractor
	notify   Notifier
	recorder *Recorder
	opts     Options
	now      func() time.Time

	running atomic.Bool

	stopCh   chan struct{}
	stopOnce sync.Once
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	mu             sync.Mutex
	lastFailNotify map[string]time.Time
}

func New(store Store, ex Extractor, notifier Notifier, opts Options) *Scheduler {
	if opts.Tick <= 0 {
		opts.Tick = time.Minute
	}
	if opts.Pacing < 0 {
		opts.Pacing = 0
	}
	return &Scheduler{
		store:          store,
		extract:        ex,
		notify:         notifier,
		recorder:       NewRecorder(store),
		opts:           opts,
		now:            time.Now,
		stopCh:         make(chan struct{}),
		lastFailNotify: map[string]time.Time{},
	}
}

// Running reports whether a batch is in progress.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx)
	}()
}

// Stop ends the timer, interrupts any pacing wait and waits for the current
// batch to return. A fetch already in flight runs to its timeout and its
// result is still recorded.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if s.cancel != nil {
			s.cancel()
		}
	})
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context) {
	t := time.NewTicker(s.opts.Tick)
	defer t.Stop()

	s.spawnTick(ctx)
	for {
		select {
		case <-t.C:
			s.spawnTick(ctx)
		case <-s.stopCh:
			return
		}
	}
}

// spawnTick runs a tick without blocking the timer; the running flag decides
// whether it does anything.
func (s *Scheduler) spawnTick(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.RunTick(ctx)
	}()
}

// RunTick processes every due product once, sequentially, with a pacing
// delay after each. It returns false without touching the store when
// another batch is still running.
func (s *Scheduler) RunTick(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		log.Printf("[scheduler] previous batch still running, skipping tick")
		return false
	}
	defer s.running.Store(false)

	due, err := s.store.ListDue(ctx, s.now())
	if err != nil {
		log.Printf("[scheduler] list due: %v", err)
		return true
	}
	if len(due) == 0 {
		return true
	}
	log.Printf("[scheduler] checking %d due product(s)", len(due))

	for _, p := range due {
		if ctx.Err() != nil {
			log.Printf("[scheduler] batch interrupted: %v", ctx.Err())
			return true
		}
		if _, err := s.check(ctx, p, true); err != nil {
			log.Printf("[scheduler] %s (%s): %v", p.ID, p.URL, err)
		}
		if !s.pace(ctx) {
			log.Printf("[scheduler] batch interrupted during pacing")
			return true
		}
	}
	return true
}

// Refresh checks one product immediately, outside the due-check and the
// running flag. It returns ErrNoPrice when the page has no usable price.
func (s *Scheduler) Refresh(ctx context.Context, p db.Product) (Outcome, error) {
	return s.check(ctx, p, false)
}

func (s *Scheduler) check(ctx context.Context, p db.Product, scheduled bool) (Outcome, error) {
	out := Outcome{Product: p}

	res, err := s.extract.Extract(ctx, p.URL)
	out.Result = res
	// Once a page is fetched its outcome is always stored, even if Stop
	// cancelled ctx meanwhile.
	ctx = context.WithoutCancel(ctx)
	if err == nil && res.Price == nil {
		err = ErrNoPrice
	}

	if err == nil {
		if res.Name != "" || res.ImageURL != "" {
			if ferr := s.store.FillProductMeta(ctx, p.ID, res.Name, res.ImageURL); ferr != nil {
				log.Printf("[scheduler] fill meta %s: %v", p.ID, ferr)
			}
		}
		err = s.record(ctx, &out, *res.Price, scheduled)
	}

	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	fails, merr := s.store.MarkChecked(ctx, p.ID, s.now(), errMsg)
	if merr != nil {
		log.Printf("[scheduler] mark checked %s: %v", p.ID, merr)
	} else if err != nil {
		s.maybeNotifyFailing(ctx, p, fails, err)
	}
	return out, err
}

func (s *Scheduler) record(ctx context.Context, out *Outcome, pp price.Parsed, scheduled bool) error {
	change, changed, err := s.recorder.Record(ctx, out.Product.ID, pp, s.now())
	if err != nil {
		return err
	}
	cur := change.Current
	out.Latest = &cur
	if !changed {
		return nil
	}
	out.Change = &change
	if scheduled && s.notify != nil {
		s.notify.PriceChanged(ctx, out.Product, change)
	}
	return nil
}

func (s *Scheduler) maybeNotifyFailing(ctx context.Context, p db.Product, fails int, err error) {
	if s.notify == nil || s.opts.FailureAlertAfter <= 0 || fails < s.opts.FailureAlertAfter {
		return
	}
	now := s.now()
	s.mu.Lock()
	last, seen := s.lastFailNotify[p.ID]
	if seen && now.Sub(last) < failNotifyEvery {
		s.mu.Unlock()
		return
	}
	s.lastFailNotify[p.ID] = now
	s.mu.Unlock()

	s.notify.CheckFailing(ctx, p, fails, err)
}

func (s *Scheduler) pace(ctx context.Context) bool {
	if s.opts.Pacing <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(s.opts.Pacing)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	case <-s.stopCh:
		return false
	}
}
