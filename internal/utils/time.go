package utils

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	_ "time/tzdata"

	"github.com/go-universal/jalaali"
)

const (
	CalendarGregorian = "gregorian"
	CalendarJalali    = "jalali"
)

// Location resolves an IANA zone name. Asia/Tehran goes through the jalaali
// helper so it behaves the same on minimal systems.
func Location(name string) (*time.Location, error) {
	switch name {
	case "", "UTC":
		return time.UTC, nil
	case "Asia/Tehran":
		return jalaali.TehranTz(), nil
	}
	return time.LoadLocation(name)
}

// FormatTime renders t as "2006-01-02 15:04", or as a Jalali date
// ("1404/10/09 - 16:40") when calendar is jalali.
func FormatTime(t time.Time, loc *time.Location, calendar, digits string) string {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	var s string
	if calendar == CalendarJalali {
		s = jalaali.New(t).Format("2006/01/02 - 15:04")
	} else {
		s = t.Format("2006-01-02 15:04")
	}
	return Digits(s, digits)
}

// FormatInterval renders a refresh interval compactly: "30s", "1m30s", "45m",
// "6h", "1h30m", "2d".
func FormatInterval(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d%(24*time.Hour) == 0 {
		return strconv.FormatInt(int64(d/(24*time.Hour)), 10) + "d"
	}
	s := d.Round(time.Second).String()
	if strings.HasSuffix(s, "m0s") {
		s = strings.TrimSuffix(s, "0s")
	}
	if strings.HasSuffix(s, "h0m") {
		s = strings.TrimSuffix(s, "0m")
	}
	return s
}

var ErrBadInterval = errors.New("interval must be a positive number of seconds or a duration like 90m, 6h, 1d")

// ParseInterval accepts plain seconds ("3600"), Go durations ("90m",
// "1h30m") and whole days ("2d"). The result is positive and whole seconds.
func ParseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, ErrBadInterval
	}
	var (
		d  time.Duration
		ok bool
	)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if d, ok = scale(n, time.Second); !ok {
			return 0, ErrBadInterval
		}
	} else if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.ParseInt(days, 10, 64)
		if err != nil {
			return 0, ErrBadInterval
		}
		if d, ok = scale(n, 24*time.Hour); !ok {
			return 0, ErrBadInterval
		}
	} else {
		d, err = time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrBadInterval, err)
		}
	}
	d = d.Round(time.Second)
	if d <= 0 {
		return 0, ErrBadInterval
	}
	return d, nil
}

// scale returns n units, or false when that does not fit in a Duration.
func scale(n int64, unit time.Duration) (time.Duration, bool) {
	if n > math.MaxInt64/int64(unit) || n < math.MinInt64/int64(unit) {
		return 0, false
	}
	return time.Duration(n) * unit, true
}
