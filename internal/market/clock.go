package market

import (
	"time"

	"golang-idea-tracker/pkg/config"
	"golang-idea-tracker/pkg/logger"
)

const (
	defaultTimezone = "Asia/Seoul"
	defaultOpen     = "09:00"
	defaultClose    = "15:30"
)

// Clock reports whether the market is currently open. It is a pure gating
// signal; it never errors, an ambiguous instant reads as closed.
type Clock interface {
	IsOpen() bool
}

// Calendar is a Clock driven by local trading-calendar rules: trading
// weekdays, an open/close window in the market timezone, and a holiday list.
type Calendar struct {
	loc          *time.Location
	openMinutes  int
	closeMinutes int
	holidays     map[string]struct{}
	valid        bool
	nowFn        func() time.Time
}

// NewCalendar builds a Calendar from configuration. Malformed hours or an
// unloadable timezone leave the calendar permanently closed rather than
// failing the caller.
func NewCalendar(cfg config.Market, log *logger.Logger) *Calendar {
	c := &Calendar{
		holidays: make(map[string]struct{}),
		nowFn:    time.Now,
	}

	tz := cfg.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Warn("Failed to load market timezone, treating market as closed",
			logger.StringField("timezone", tz), logger.ErrorField(err))
		return c
	}
	c.loc = loc

	openMinutes, err := parseWallClock(cfg.Open, defaultOpen)
	if err != nil {
		log.Warn("Invalid market open time, treating market as closed",
			logger.StringField("open", cfg.Open), logger.ErrorField(err))
		return c
	}
	closeMinutes, err := parseWallClock(cfg.Close, defaultClose)
	if err != nil {
		log.Warn("Invalid market close time, treating market as closed",
			logger.StringField("close", cfg.Close), logger.ErrorField(err))
		return c
	}
	c.openMinutes = openMinutes
	c.closeMinutes = closeMinutes

	for _, day := range cfg.Holidays {
		if _, err := time.Parse("2006-01-02", day); err != nil {
			log.Warn("Skipping malformed holiday entry", logger.StringField("holiday", day))
			continue
		}
		c.holidays[day] = struct{}{}
	}

	c.valid = true
	return c
}

// IsOpen reports whether the market is open right now.
func (c *Calendar) IsOpen() bool {
	return c.OpenAt(c.nowFn())
}

// OpenAt reports whether the market is open at the given instant. The result
// is deterministic for a given instant and calendar.
func (c *Calendar) OpenAt(t time.Time) bool {
	if !c.valid {
		return false
	}

	local := t.In(c.loc)
	weekday := local.Weekday()
	if weekday == time.Saturday || weekday == time.Sunday {
		return false
	}
	if _, ok := c.holidays[local.Format("2006-01-02")]; ok {
		return false
	}

	minutes := local.Hour()*60 + local.Minute()
	return minutes >= c.openMinutes && minutes < c.closeMinutes
}

func parseWallClock(value, fallback string) (int, error) {
	if value == "" {
		value = fallback
	}
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, err
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}
