package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Armin-kho/price-tracker-bot/internal/config"
	"github.com/Armin-kho/price-tracker-bot/internal/db"
	"github.com/Armin-kho/price-tracker-bot/internal/extract"
	"github.com/Armin-kho/price-tracker-bot/internal/render"
	"github.com/Armin-kho/price-tracker-bot/internal/scheduler"
	"github.com/Armin-kho/price-tracker-bot/internal/utils"
)

type Awaiting string

const (
	AwaitNone Awaiting = ""

	AwaitAddAdmin  Awaiting = "add_admin"
	AwaitAddURL    Awaiting = "add_url"
	AwaitInterval  Awaiting = "interval"
	AwaitRestoreDB Awaiting = "restore_db"
)

type Session struct {
	Await Awaiting

	// Product the pending flow applies to.
	ProductID string
}

type App struct {
	cfg     config.Config
	bot     *tgbotapi.BotAPI
	extract *extract.Extractor
	display render.Display

	// db and sched are swapped by a restore.
	mu    sync.RWMutex
	db    *db.DB
	sched *scheduler.Scheduler

	sessMu sync.Mutex
	sess   map[int64]*Session // by user id

	dataDir string
	dbPath  string
}

func New(cfg config.Config) (*App, error) {
	dataDir := cfg.DataDir
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, err
	}
	dbPath := cfg.DBPath()
	database, err := db.Open(dbPath)
	if err != nil {
		return nil, err
	}

	if err := database.SeedFromConfig(context.Background(), cfg.InitialAdminIDs); err != nil {
		_ = database.Close()
		return nil, err
	}

	b, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	b.Debug = cfg.Debug

	loc, err := utils.Location(cfg.Timezone)
	if err != nil {
		log.Printf("[bot] unknown timezone %q, using UTC: %v", cfg.Timezone, err)
		loc = time.UTC
	}

	app := &App{
		cfg: cfg,
		bot: b,
		extract: extract.New(extract.Options{
			UserAgent:           cfg.UserAgent,
			Timeout:             cfg.FetchTimeout(),
			MaxRedirects:        cfg.MaxRedirects,
			ExtraPriceSelectors: cfg.ExtraPriceSelectors,
		}),
		display: render.Display{Loc: loc, Calendar: cfg.Calendar, Digits: cfg.Digits},
		db:      database,
		sess:    map[int64]*Session{},
		dataDir: dataDir,
		dbPath:  dbPath,
	}
	app.sched = app.newScheduler(database)
	return app, nil
}

func (a *App) newScheduler(database *db.DB) *scheduler.Scheduler {
	return scheduler.New(database, a.extract, a, scheduler.Options{
		Tick:              a.cfg.Tick(),
		Pacing:            a.cfg.Pacing(),
		FailureAlertAfter: a.cfg.FailureAlertAfter,
	})
}

func (a *App) store() *db.DB {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.db
}

func (a *App) scheduler() *scheduler.Scheduler {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sched
}

func (a *App) Close() {
	a.scheduler().Stop()
	a.mu.Lock()
	defer a.mu.Unlock()
	_ = a.db.Close()
}

func (a *App) Run() error {
	log.Printf("[bot] authorized as @%s", a.bot.Self.UserName)

	a.scheduler().Start()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message", "callback_query"}

	updates := a.bot.GetUpdatesChan(u)

	for upd := range updates {
		a.handleUpdate(upd)
	}
	return nil
}

func (a *App) NotifyAdmins(ctx context.Context, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	admins, err := a.store().ListAdmins(ctx)
	if err != nil {
		log.Printf("[bot] list admins: %v", err)
		return
	}
	for _, ad := range admins {
		msg := tgbotapi.NewMessage(ad.UserID, text)
		msg.DisableWebPagePreview = true
		if kb != nil {
			msg.ReplyMarkup = kb
		}
		if _, err := a.bot.Send(msg); err != nil {
			log.Printf("[bot] notify %d: %v", ad.UserID, err)
		}
	}
}

// PriceChanged announces drops to every admin. Rises and first readings are
// visible in the product card and history.
func (a *App) PriceChanged(ctx context.Context, p db.Product, c scheduler.Change) {
	if !c.IsDrop() {
		return
	}
	kb := productShortcuts(p.ID)
	a.NotifyAdmins(ctx, render.ChangeAlert(p, c, a.display), &kb)
}

func (a *App) CheckFailing(ctx context.Context, p db.Product, failures int, err error) {
	kb := productShortcuts(p.ID)
	a.NotifyAdmins(ctx, render.FailureAlert(p, failures, err, a.display), &kb)
}

func productShortcuts(productID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛍 Open", cbData("p", productID)),
			tgbotapi.NewInlineKeyboardButtonData("📈 History", cbData("hi", productID, "30")),
		),
	)
}

func (a *App) handleUpdate(upd tgbotapi.Update) {
	if upd.Message != nil {
		a.handleMessage(*upd.Message)
		return
	}
	if upd.CallbackQuery != nil {
		a.handleCallback(*upd.CallbackQuery)
		return
	}
}

func (a *App) ensureSession(userID int64) *Session {
	a.sessMu.Lock()
	defer a.sessMu.Unlock()
	s, ok := a.sess[userID]
	if !ok {
		s = &Session{}
		a.sess[userID] = s
	}
	return s
}

func (a *App) setAwait(userID int64, await Awaiting, productID string) {
	a.sessMu.Lock()
	defer a.sessMu.Unlock()
	s, ok := a.sess[userID]
	if !ok {
		s = &Session{}
		a.sess[userID] = s
	}
	s.Await = await
	s.ProductID = productID
}

func (a *App) clearAwait(userID int64) {
	a.setAwait(userID, AwaitNone, "")
}

// authorize returns (isAdmin, isSuper). With no admins at all, the first
// private user becomes the super admin.
func (a *App) authorize(ctx context.Context, userID int64) (bool, bool) {
	store := a.store()
	count, err := store.AdminCount(ctx)
	if err == nil && count == 0 {
		if err := store.AddAdmin(ctx, userID, true); err == nil {
			a.reply(userID, "✅ You are now the super admin (no admins were configured).")
		}
	}
	isAdmin, isSuper, err := store.IsAdmin(ctx, userID)
	if err != nil {
		log.Printf("[bot] is admin %d: %v", userID, err)
		return false, false
	}
	return isAdmin, isSuper
}

func (a *App) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := a.bot.Send(msg); err != nil {
		log.Printf("[bot] send to %d: %v", chatID, err)
	}
}

func (a *App) editOrSendMenu(userID int64, msgID int, text string, kb tgbotapi.InlineKeyboardMarkup) {
	if msgID != 0 {
		edit := tgbotapi.NewEditMessageText(userID, msgID, text)
		edit.ReplyMarkup = &kb
		edit.DisableWebPagePreview = true
		if _, err := a.bot.Request(edit); err == nil {
			return
		}
	}
	msg := tgbotapi.NewMessage(userID, text)
	msg.ReplyMarkup = kb
	msg.DisableWebPagePreview = true
	_, _ = a.bot.Send(msg)
}

func (a *App) defaultInterval() int64 {
	return int64(a.cfg.DefaultIntervalSeconds)
}

func (a *App) now() time.Time {
	return time.Now()
}

func errText(err error) string {
	return fmt.Sprintf("❌ %v", err)
}
