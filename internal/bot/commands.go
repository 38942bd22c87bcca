package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Armin-kho/price-tracker-bot/internal/db"
	"github.com/Armin-kho/price-tracker-bot/internal/render"
	"github.com/Armin-kho/price-tracker-bot/internal/scheduler"
	"github.com/Armin-kho/price-tracker-bot/internal/utils"
)

// refreshTimeout covers one fetch plus the store writes around it.
const refreshTimeout = 45 * time.Second

func (a *App) handleMessage(msg tgbotapi.Message) {
	// Configuration happens in private chats only.
	if msg.Chat == nil || msg.Chat.Type != "private" || msg.From == nil {
		return
	}
	userID := msg.From.ID
	ctx := context.Background()

	isAdmin, isSuper := a.authorize(ctx, userID)
	if !isAdmin {
		a.reply(userID, "⛔️ Access denied. Ask the super admin to add your user ID.")
		return
	}

	if msg.IsCommand() {
		a.clearAwait(userID)
		a.handleCommand(ctx, msg, isSuper)
		return
	}

	sess := a.ensureSession(userID)
	switch sess.Await {
	case AwaitAddAdmin:
		a.onAddAdminMessage(ctx, msg, isSuper)
		return
	case AwaitAddURL:
		a.clearAwait(userID)
		a.addProduct(ctx, userID, strings.Fields(msg.Text))
		return
	case AwaitInterval:
		productID := sess.ProductID
		a.clearAwait(userID)
		a.setInterval(ctx, userID, productID, msg.Text)
		return
	case AwaitRestoreDB:
		if msg.Document == nil {
			a.reply(userID, "Please send the database backup as a document.")
			return
		}
		a.clearAwait(userID)
		if err := a.restoreDBFromTelegram(ctx, *msg.Document); err != nil {
			a.reply(userID, "❌ Restore failed: "+err.Error())
		} else {
			a.reply(userID, "✅ Database restored.")
		}
		return
	}

	// A bare link is treated as /add.
	if looksLikeURL(strings.TrimSpace(msg.Text)) {
		a.addProduct(ctx, userID, strings.Fields(msg.Text))
		return
	}
	a.sendMainMenu(userID, 0)
}

func (a *App) handleCommand(ctx context.Context, msg tgbotapi.Message, isSuper bool) {
	userID := msg.From.ID
	args := strings.Fields(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		a.sendMainMenu(userID, 0)
	case "help":
		a.sendHelp(userID, 0)
	case "add":
		if len(args) == 0 {
			a.setAwait(userID, AwaitAddURL, "")
			a.reply(userID, "Send the product URL, optionally followed by an interval (e.g. 6h).")
			return
		}
		a.addProduct(ctx, userID, args)
	case "list":
		a.sendProductsMenu(userID, 0, 0)
	case "refresh":
		p, ok := a.productArg(ctx, userID, args)
		if !ok {
			return
		}
		go a.refreshProduct(userID, p)
	case "history":
		p, ok := a.productArg(ctx, userID, args)
		if !ok {
			return
		}
		days := 30
		if len(args) > 1 {
			d, err := parseDays(args[1])
			if err != nil {
				a.reply(userID, errText(err))
				return
			}
			days = d
		}
		a.sendHistory(ctx, userID, 0, p, days)
	case "interval":
		if len(args) < 2 {
			a.reply(userID, "Usage: /interval <id> <interval>, e.g. /interval 2 6h")
			return
		}
		p, ok := a.productArg(ctx, userID, args)
		if !ok {
			return
		}
		a.setInterval(ctx, userID, p.ID, args[1])
	case "remove":
		p, ok := a.productArg(ctx, userID, args)
		if !ok {
			return
		}
		if err := a.store().RemoveProduct(ctx, p.ID); err != nil {
			a.reply(userID, errText(err))
			return
		}
		a.reply(userID, "🗑 Removed: "+p.Title())
	case "status":
		a.sendStatus(ctx, userID, 0)
	case "backup":
		a.sendDBBackup(userID)
	case "restore":
		if !isSuper {
			a.reply(userID, "⛔️ Only the super admin can restore the database.")
			return
		}
		a.setAwait(userID, AwaitRestoreDB, "")
		a.reply(userID, "Send the bot.db backup file as a document.")
	case "admins":
		a.sendAdminsMenu(ctx, userID, 0)
	case "addadmin":
		if len(args) == 0 {
			a.setAwait(userID, AwaitAddAdmin, "")
			a.reply(userID, "Forward a message from the new admin or send their numeric user ID.")
			return
		}
		a.addAdmin(ctx, userID, isSuper, args[0], "")
	default:
		a.reply(userID, "Unknown command. See /help.")
	}
}

// productArg resolves the first argument as a product ID or a 1-based
// position in /list.
func (a *App) productArg(ctx context.Context, userID int64, args []string) (db.Product, bool) {
	if len(args) == 0 {
		a.reply(userID, "Which product? Pass its ID or its number from /list.")
		return db.Product{}, false
	}
	store := a.store()
	ref := args[0]
	if n, err := strconv.Atoi(ref); err == nil {
		products, err := store.ListProducts(ctx)
		if err != nil {
			a.reply(userID, errText(err))
			return db.Product{}, false
		}
		if n < 1 || n > len(products) {
			a.reply(userID, fmt.Sprintf("No product number %d. See /list.", n))
			return db.Product{}, false
		}
		return products[n-1], true
	}
	p, err := store.GetProduct(ctx, ref)
	if errors.Is(err, db.ErrNotFound) {
		a.reply(userID, "No such product. See /list.")
		return db.Product{}, false
	}
	if err != nil {
		a.reply(userID, errText(err))
		return db.Product{}, false
	}
	return p, true
}

// addProduct handles "<url> [interval]": store the product, then extract it
// right away to fill its name, image and first reading.
func (a *App) addProduct(ctx context.Context, userID int64, args []string) {
	rawURL, intervalArg, err := parseAddArgs(args)
	if err != nil {
		a.reply(userID, errText(err))
		return
	}
	interval := a.defaultInterval()
	if intervalArg != "" {
		d, err := utils.ParseInterval(intervalArg)
		if err != nil {
			a.reply(userID, errText(err))
			return
		}
		interval = int64(d / time.Second)
	}

	p, err := a.store().AddProduct(ctx, rawURL, interval, userID)
	if errors.Is(err, db.ErrDuplicateURL) {
		a.reply(userID, "This URL is already tracked.")
		return
	}
	if err != nil {
		a.reply(userID, errText(err))
		return
	}
	a.reply(userID, "⏳ Added. Fetching the page…")
	go a.refreshProduct(userID, p)
}

func (a *App) refreshProduct(userID int64, p db.Product) {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	out, err := a.scheduler().Refresh(ctx, p)
	if err != nil {
		log.Printf("[bot] refresh %s: %v", p.ID, err)
		text := "❌ Could not extract price from URL."
		if !errors.Is(err, scheduler.ErrNoPrice) {
			text += "\n" + render.Truncate(err.Error(), 300)
		}
		a.reply(userID, text)
		return
	}
	a.reply(userID, render.RefreshResult(out, a.display))

	// Show the card with fresh metadata.
	if fresh, err := a.store().GetProduct(ctx, p.ID); err == nil {
		a.sendProductCard(ctx, userID, 0, fresh)
	}
}

func (a *App) setInterval(ctx context.Context, userID int64, productID, arg string) {
	d, err := utils.ParseInterval(arg)
	if err != nil {
		a.reply(userID, errText(err))
		return
	}
	if err := a.store().SetInterval(ctx, productID, int64(d/time.Second)); err != nil {
		a.reply(userID, errText(err))
		return
	}
	a.reply(userID, "⏱ Refresh interval set to "+utils.FormatInterval(d))
}

func (a *App) onAddAdminMessage(ctx context.Context, msg tgbotapi.Message, isSuper bool) {
	userID := msg.From.ID
	// Forwarded message or typed numeric ID.
	if msg.ForwardFrom != nil {
		a.addAdmin(ctx, userID, isSuper, strconv.FormatInt(msg.ForwardFrom.ID, 10), displayName(*msg.ForwardFrom))
		return
	}
	a.addAdmin(ctx, userID, isSuper, strings.TrimSpace(msg.Text), "")
}

func (a *App) addAdmin(ctx context.Context, userID int64, isSuper bool, arg, name string) {
	a.clearAwait(userID)
	if !isSuper {
		a.reply(userID, "⛔️ Only the super admin can add admins.")
		return
	}
	newID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || newID <= 0 {
		a.reply(userID, "Please forward a message or send a numeric user ID.")
		return
	}
	if err := a.store().AddAdmin(ctx, newID, false); err != nil {
		a.reply(userID, errText(err))
		return
	}
	if name != "" {
		a.reply(userID, fmt.Sprintf("✅ Admin added: %s (%d)", name, newID))
		return
	}
	a.reply(userID, fmt.Sprintf("✅ Admin added: %d", newID))
}

func displayName(u tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}
	if name == "" {
		name = strconv.FormatInt(u.ID, 10)
	}
	return name
}
