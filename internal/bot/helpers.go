package bot

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

// settingLastBackup holds the unix time of the last /backup.
const settingLastBackup = "last_backup_at"

// Callback data is "action|arg|arg"; Telegram caps it at 64 bytes.
func cbData(parts ...string) string {
	return strings.Join(parts, "|")
}

func splitCallback(data string) []string {
	return strings.Split(data, "|")
}

// pageBounds returns the [start,end) slice for page and the page count.
// Out-of-range pages are clamped.
func pageBounds(total, page, perPage int) (int, int, int) {
	if total == 0 {
		return 0, 0, 1
	}
	pages := (total + perPage - 1) / perPage
	if page < 0 {
		page = 0
	}
	if page >= pages {
		page = pages - 1
	}
	start := page * perPage
	end := start + perPage
	if end > total {
		end = total
	}
	return start, end, pages
}

func looksLikeURL(s string) bool {
	if strings.ContainsAny(s, " \t\n") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// parseAddArgs splits "<url> [interval]".
func parseAddArgs(args []string) (string, string, error) {
	if len(args) == 0 {
		return "", "", errors.New("usage: /add <url> [interval]")
	}
	if len(args) > 2 {
		return "", "", errors.New("too many arguments; usage: /add <url> [interval]")
	}
	raw := strings.TrimSpace(args[0])
	if !looksLikeURL(raw) {
		return "", "", errors.New("not a valid http(s) URL: " + raw)
	}
	interval := ""
	if len(args) == 2 {
		interval = args[1]
	}
	return raw, interval, nil
}

// maxHistoryDays caps /history ranges; longer requests get the whole cap.
const maxHistoryDays = 3650

func parseDays(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(s), "d"))
	if err != nil || n <= 0 {
		return 0, errors.New("days must be a positive number")
	}
	return min(n, maxHistoryDays), nil
}
