package bot

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Armin-kho/price-tracker-bot/internal/db"
)

func (a *App) sendDBBackup(userID int64) {
	tmp := filepath.Join(a.dataDir, fmt.Sprintf("backup_%d_bot.db", time.Now().Unix()))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	store := a.store()
	if err := store.BackupTo(ctx, tmp); err != nil {
		log.Printf("[bot] backup: %v", err)
		a.reply(userID, errText(err))
		return
	}
	defer os.Remove(tmp)

	doc := tgbotapi.NewDocument(userID, tgbotapi.FilePath(tmp))
	doc.Caption = "📦 Database backup"
	if _, err := a.bot.Send(doc); err != nil {
		log.Printf("[bot] send backup to %d: %v", userID, err)
		a.reply(userID, errText(err))
		return
	}
	if err := store.SetGlobalSetting(ctx, settingLastBackup, strconv.FormatInt(a.now().Unix(), 10)); err != nil {
		log.Printf("[bot] record backup time: %v", err)
	}
}

func (a *App) sendBackupMenu(userID int64, msgID int) {
	text := "🛟 Backup\n\nDownload a snapshot of the database or restore one (super admin)."
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📦 Download", "dbbackup"),
			tgbotapi.NewInlineKeyboardButtonData("♻️ Restore", "dbrestore"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "main"),
		),
	)
	a.editOrSendMenu(userID, msgID, text, kb)
}

// restoreDBFromTelegram replaces the database with an uploaded backup. The
// scheduler is stopped for the swap and restarted on whichever file ends up
// in place.
func (a *App) restoreDBFromTelegram(ctx context.Context, doc tgbotapi.Document) error {
	f, err := a.bot.GetFile(tgbotapi.FileConfig{FileID: doc.FileID})
	if err != nil {
		return err
	}
	rc, err := httpGetSimple(ctx, f.Link(a.cfg.BotToken))
	if err != nil {
		return err
	}
	defer rc.Close()

	tmp := filepath.Join(a.dataDir, "restore_tmp.db")
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return err
	}
	_ = out.Close()

	// Reject files that are not a usable database before touching the live one.
	probe, err := db.Open(tmp)
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("not a valid backup: %w", err)
	}
	_ = probe.Close()
	_ = os.Remove(tmp + "-wal")
	_ = os.Remove(tmp + "-shm")

	// Notifications from an in-flight batch read a.db, so stop outside the lock.
	a.scheduler().Stop()

	a.mu.Lock()
	defer a.mu.Unlock()
	_ = a.db.Close()

	_ = os.Remove(a.dbPath + "-wal")
	_ = os.Remove(a.dbPath + "-shm")

	backupOld := filepath.Join(a.dataDir, fmt.Sprintf("pre_restore_%d.db", time.Now().Unix()))
	_ = os.Rename(a.dbPath, backupOld)

	restoreErr := os.Rename(tmp, a.dbPath)
	if restoreErr != nil {
		_ = os.Rename(backupOld, a.dbPath)
	}

	newDB, err := db.Open(a.dbPath)
	if err != nil && restoreErr == nil {
		// rollback
		restoreErr = err
		_ = os.Rename(a.dbPath, tmp)
		_ = os.Rename(backupOld, a.dbPath)
		newDB, err = db.Open(a.dbPath)
	}
	if err != nil {
		log.Printf("[bot] reopen database after restore: %v", err)
		return err
	}

	a.db = newDB
	a.sched = a.newScheduler(newDB)
	a.sched.Start()
	if restoreErr == nil {
		log.Printf("[bot] database restored, previous copy at %s", backupOld)
	}
	return restoreErr
}

func httpGetSimple(ctx context.Context, urlStr string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("download status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return resp.Body, nil
}
