package bot

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Armin-kho/price-tracker-bot/internal/db"
	"github.com/Armin-kho/price-tracker-bot/internal/render"
)

const productsPerPage = 8

var intervalPresets = []struct {
	Label   string
	Seconds int64
}{
	{"15m", 900},
	{"1h", 3600},
	{"6h", 21600},
	{"12h", 43200},
	{"1d", 86400},
}

func (a *App) handleCallback(q tgbotapi.CallbackQuery) {
	// Always answer to remove the spinner.
	_, _ = a.bot.Request(tgbotapi.NewCallback(q.ID, ""))

	if q.From == nil || q.Message == nil {
		return
	}
	userID := q.From.ID
	msgID := q.Message.MessageID
	ctx := context.Background()

	isAdmin, isSuper := a.authorize(ctx, userID)
	if !isAdmin {
		return
	}

	parts := splitCallback(q.Data)
	arg := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}
	product := func() (db.Product, bool) {
		p, err := a.store().GetProduct(ctx, arg(1))
		if err != nil {
			a.reply(userID, errText(err))
			return db.Product{}, false
		}
		return p, true
	}

	switch parts[0] {
	case "main":
		a.sendMainMenu(userID, msgID)
	case "help":
		a.sendHelp(userID, msgID)
	case "list":
		page, _ := strconv.Atoi(arg(1))
		a.sendProductsMenu(userID, msgID, page)
	case "add":
		a.setAwait(userID, AwaitAddURL, "")
		a.reply(userID, "Send the product URL, optionally followed by an interval (e.g. 6h).")
	case "p":
		if p, ok := product(); ok {
			a.sendProductCard(ctx, userID, msgID, p)
		}
	case "rf":
		if p, ok := product(); ok {
			a.reply(userID, "⏳ Refreshing…")
			go a.refreshProduct(userID, p)
		}
	case "hi":
		if p, ok := product(); ok {
			days, _ := strconv.Atoi(arg(2))
			a.sendHistory(ctx, userID, msgID, p, days)
		}
	case "iv":
		if p, ok := product(); ok {
			a.sendIntervalMenu(userID, msgID, p)
		}
	case "ivset":
		secs, err := strconv.ParseInt(arg(2), 10, 64)
		if err != nil {
			return
		}
		if err := a.store().SetInterval(ctx, arg(1), secs); err != nil {
			a.reply(userID, errText(err))
			return
		}
		if p, ok := product(); ok {
			a.sendProductCard(ctx, userID, msgID, p)
		}
	case "ivc":
		a.setAwait(userID, AwaitInterval, arg(1))
		a.reply(userID, "Send the new interval: seconds or a duration like 90m, 6h, 1d.")
	case "rm":
		if p, ok := product(); ok {
			a.sendRemoveConfirm(userID, msgID, p)
		}
	case "rmy":
		if err := a.store().RemoveProduct(ctx, arg(1)); err != nil {
			a.reply(userID, errText(err))
			return
		}
		a.sendProductsMenu(userID, msgID, 0)
	case "status":
		a.sendStatus(ctx, userID, msgID)
	case "backup":
		a.sendBackupMenu(userID, msgID)
	case "dbbackup":
		a.sendDBBackup(userID)
	case "dbrestore":
		if !isSuper {
			a.reply(userID, "⛔️ Only the super admin can restore the database.")
			return
		}
		a.setAwait(userID, AwaitRestoreDB, "")
		a.reply(userID, "Send the bot.db backup file as a document.")
	case "admins":
		a.sendAdminsMenu(ctx, userID, msgID)
	case "addadmin":
		if !isSuper {
			a.reply(userID, "⛔️ Only the super admin can add admins.")
			return
		}
		a.setAwait(userID, AwaitAddAdmin, "")
		a.reply(userID, "Forward a message from the new admin or send their numeric user ID.")
	case "deladmin":
		if !isSuper {
			return
		}
		id, err := strconv.ParseInt(arg(1), 10, 64)
		if err != nil || id == userID {
			return
		}
		_ = a.store().RemoveAdmin(ctx, id)
		a.sendAdminsMenu(ctx, userID, msgID)
	}
}

func (a *App) sendMainMenu(userID int64, msgID int) {
	text := "🏷 Price Tracker\n\nTrack product pages and get notified when prices drop."
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Products", cbData("list", "0")),
			tgbotapi.NewInlineKeyboardButtonData("➕ Add", "add"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🧰 Status", "status"),
			tgbotapi.NewInlineKeyboardButtonData("🛟 Backup", "backup"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👥 Admins", "admins"),
			tgbotapi.NewInlineKeyboardButtonData("❓ Help", "help"),
		),
	)
	a.editOrSendMenu(userID, msgID, text, kb)
}

func (a *App) sendProductsMenu(userID int64, msgID int, page int) {
	ctx := context.Background()
	store := a.store()
	products, err := store.ListProducts(ctx)
	if err != nil {
		a.reply(userID, errText(err))
		return
	}
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	latest, err := store.LatestReadings(ctx, ids)
	if err != nil {
		a.reply(userID, errText(err))
		return
	}

	start, end, pages := pageBounds(len(products), page, productsPerPage)
	text := render.ProductList(products, latest, a.display)

	var rows [][]tgbotapi.InlineKeyboardButton
	for i := start; i < end; i++ {
		p := products[i]
		label := fmt.Sprintf("%d. %s", i+1, render.Truncate(p.Title(), 40))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cbData("p", p.ID)),
		))
	}
	if pages > 1 {
		var nav []tgbotapi.InlineKeyboardButton
		if page > 0 {
			nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("◀️", cbData("list", strconv.Itoa(page-1))))
		}
		if page < pages-1 {
			nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("▶️", cbData("list", strconv.Itoa(page+1))))
		}
		if len(nav) > 0 {
			rows = append(rows, nav)
		}
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("➕ Add", "add"),
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "main"),
	))
	a.editOrSendMenu(userID, msgID, text, tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (a *App) sendProductCard(ctx context.Context, userID int64, msgID int, p db.Product) {
	latest, ok, err := a.store().LatestReading(ctx, p.ID)
	if err != nil {
		a.reply(userID, errText(err))
		return
	}
	var lr *db.Reading
	if ok {
		lr = &latest
	}
	text := render.ProductCard(p, lr, a.display)
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", cbData("rf", p.ID)),
			tgbotapi.NewInlineKeyboardButtonData("📈 History", cbData("hi", p.ID, "30")),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏱ Interval", cbData("iv", p.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Remove", cbData("rm", p.ID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🔗 Open page", p.URL),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Products", cbData("list", "0")),
		),
	)
	a.editOrSendMenu(userID, msgID, text, kb)
}

func (a *App) sendHistory(ctx context.Context, userID int64, msgID int, p db.Product, days int) {
	var since time.Time
	days = min(days, maxHistoryDays)
	if days > 0 {
		since = a.now().Add(-time.Duration(days) * 24 * time.Hour)
	}
	readings, err := a.store().History(ctx, p.ID, since)
	if err != nil {
		a.reply(userID, errText(err))
		return
	}
	// Keep the message within Telegram's size limit.
	const maxLines = 60
	if len(readings) > maxLines {
		readings = readings[:maxLines]
	}
	text := render.History(p, readings, days, a.display)
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("1d", cbData("hi", p.ID, "1")),
			tgbotapi.NewInlineKeyboardButtonData("7d", cbData("hi", p.ID, "7")),
			tgbotapi.NewInlineKeyboardButtonData("30d", cbData("hi", p.ID, "30")),
			tgbotapi.NewInlineKeyboardButtonData("All", cbData("hi", p.ID, "0")),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", cbData("p", p.ID)),
		),
	)
	a.editOrSendMenu(userID, msgID, text, kb)
}

func (a *App) sendIntervalMenu(userID int64, msgID int, p db.Product) {
	text := "⏱ How often should this product be checked?\n\n" + render.Truncate(p.Title(), 80)
	var row []tgbotapi.InlineKeyboardButton
	for _, pr := range intervalPresets {
		label := pr.Label
		if pr.Seconds == p.RefreshInterval {
			label = "✅ " + label
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, cbData("ivset", p.ID, strconv.FormatInt(pr.Seconds, 10))))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		row,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Custom", cbData("ivc", p.ID)),
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", cbData("p", p.ID)),
		),
	)
	a.editOrSendMenu(userID, msgID, text, kb)
}

func (a *App) sendRemoveConfirm(userID int64, msgID int, p db.Product) {
	text := "🗑 Stop tracking this product and delete its price history?\n\n" + render.Truncate(p.Title(), 120)
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Yes, remove", cbData("rmy", p.ID)),
			tgbotapi.NewInlineKeyboardButtonData("Cancel", cbData("p", p.ID)),
		),
	)
	a.editOrSendMenu(userID, msgID, text, kb)
}

func (a *App) sendStatus(ctx context.Context, userID int64, msgID int) {
	store := a.store()
	now := a.now()
	products, err := store.ListProducts(ctx)
	if err != nil {
		a.reply(userID, errText(err))
		return
	}
	due, err := store.ListDue(ctx, now)
	if err != nil {
		a.reply(userID, errText(err))
		return
	}
	st := render.StatusInfo{
		Products: len(products),
		Due:      len(due),
		Running:  a.scheduler().Running(),
		Tick:     a.cfg.Tick(),
		Pacing:   a.cfg.Pacing(),
		Now:      now,
	}
	for _, p := range products {
		if p.FailCount > 0 {
			st.Failing++
		}
	}
	if v, ok, _ := store.GetGlobalSetting(ctx, settingLastBackup); ok {
		if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
			st.LastBackup = time.Unix(ts, 0)
		}
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Update", "status"),
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "main"),
		),
	)
	a.editOrSendMenu(userID, msgID, render.Status(st, a.display), kb)
}

func (a *App) sendAdminsMenu(ctx context.Context, userID int64, msgID int) {
	admins, err := a.store().ListAdmins(ctx)
	if err != nil {
		a.reply(userID, errText(err))
		return
	}
	text := "👥 Admins\n\n"
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, ad := range admins {
		role := "admin"
		if ad.IsSuper {
			role = "super"
		}
		text += fmt.Sprintf("• %d (%s)\n", ad.UserID, role)
		if !ad.IsSuper {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("❌ Remove %d", ad.UserID), cbData("deladmin", strconv.FormatInt(ad.UserID, 10))),
			))
		}
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("➕ Add admin", "addadmin"),
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "main"),
	))
	a.editOrSendMenu(userID, msgID, text, tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (a *App) sendHelp(userID int64, msgID int) {
	text := "❓ Help\n\n" +
		"/add <url> [interval] – track a product page (or just send a link)\n" +
		"/list – tracked products\n" +
		"/refresh <n|id> – check a product now\n" +
		"/history <n|id> [days] – price history\n" +
		"/interval <n|id> <interval> – e.g. 90m, 6h, 1d or seconds\n" +
		"/remove <n|id> – stop tracking\n" +
		"/status – scheduler status\n" +
		"/backup, /restore – database backup\n" +
		"/admins, /addadmin <user_id>\n\n" +
		"<n> is the product's number in /list. Price drops are sent to all admins."
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "main"),
		),
	)
	a.editOrSendMenu(userID, msgID, text, kb)
}
