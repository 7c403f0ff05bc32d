// Package extraction pulls deadlines, names and contact details out of email text.
package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	minDeadlineDays = 1
	maxDeadlineDays = 30

	// calendarToBusiness approximates business days from calendar days.
	calendarToBusiness = 0.7
)

var deadlineIndicators = []string{
	"дедлайн",
	"срок",
	"в течение",
	"до",
	"не позднее",
	"в срок",
	"немедленно",
	"срочно",
}

// Explicit business-day phrasing, most specific first.
var businessDayPatterns = []*regexp.Regexp{
	regexp.MustCompile(`в течение (\d+)\s*рабочи[хм]\s*дн[еяй]`),
	regexp.MustCompile(`дедлайн[ае]?\s*:?\s*(\d+)\s*рабочи[хм]\s*дн[еяй]`),
	regexp.MustCompile(`дедлайн[ае]?\s*:?\s*(\d+)\s*раб\.?\s*дн\.?`),
	regexp.MustCompile(`в течение (\d+)\s*раб\.?\s*дн\.?`),
	regexp.MustCompile(`(\d+)\s*рабочи[хм]\s*дн[еяй]`),
	regexp.MustCompile(`(\d+)\s*раб\.?\s*дн\.?`),
}

var calendarDayPatterns = []*regexp.Regexp{
	regexp.MustCompile(`дедлайн[ае]?\s*:?\s*(\d+)\s*дн[еяй]`),
	regexp.MustCompile(`в течение (\d+)\s*дн[еяй]`),
	regexp.MustCompile(`в течение (\d+)\s*дня`),
	regexp.MustCompile(`в течение (\d+)\s*дней`),
}

// Immediate-action words map to a single business day.
var immediatePattern = regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])(?:немедленно|срочно|в кратчайшие сроки)(?:$|[^\p{L}\p{N}_])`)

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`до (\d{1,2})\.(\d{1,2})\.(\d{4})`),
	regexp.MustCompile(`в срок до (\d{1,2})\.(\d{1,2})\.(\d{4})`),
	regexp.MustCompile(`не позднее (\d{1,2})\.(\d{1,2})\.(\d{4})`),
	regexp.MustCompile(`дедлайн[ае]?\s*:?\s*(\d{1,2})\.(\d{1,2})\.(\d{4})`),
}

// DeadlineExtractor finds an explicit or implied deadline in business days.
type DeadlineExtractor struct {
	now func() time.Time
}

func NewDeadlineExtractor() *DeadlineExtractor {
	return &DeadlineExtractor{now: time.Now}
}

// NewDeadlineExtractorWithClock fixes "today" for date arithmetic.
func NewDeadlineExtractorWithClock(now func() time.Time) *DeadlineExtractor {
	return &DeadlineExtractor{now: now}
}

// Extract returns the deadline in business days, always within [1,30].
// Business-day phrasing beats calendar-day phrasing, which beats absolute dates.
func (e *DeadlineExtractor) Extract(text string) (int, bool) {
	lowered := strings.ToLower(text)

	if !containsAny(lowered, deadlineIndicators) {
		return 0, false
	}

	if days, ok := firstInRange(lowered, businessDayPatterns); ok {
		return days, true
	}

	if days, ok := firstInRange(lowered, calendarDayPatterns); ok {
		return max(minDeadlineDays, int(float64(days)*calendarToBusiness)), true
	}
	if immediatePattern.MatchString(lowered) {
		return 1, true
	}

	now := e.now()
	for _, re := range datePatterns {
		for _, m := range re.FindAllStringSubmatch(lowered, -1) {
			target, ok := parseDate(m[1], m[2], m[3], now.Location())
			if !ok {
				continue
			}
			return clampDays(BusinessDaysUntil(now, target)), true
		}
	}

	return 0, false
}

// BusinessDaysUntil counts Monday to Friday days from today up to, but not
// including, target. Targets on or before today count as one day.
func BusinessDaysUntil(now, target time.Time) int {
	today := truncateDay(now)
	target = truncateDay(target.In(now.Location()))

	if !target.After(today) {
		return 1
	}

	days := 0
	for cur := today; cur.Before(target); cur = cur.AddDate(0, 0, 1) {
		if wd := cur.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days++
		}
	}
	return max(1, days)
}

func firstInRange(text string, patterns []*regexp.Regexp) (int, bool) {
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			if n >= minDeadlineDays && n <= maxDeadlineDays {
				return n, true
			}
		}
	}
	return 0, false
}

func parseDate(day, month, year string, loc *time.Location) (time.Time, bool) {
	d, err1 := strconv.Atoi(day)
	m, err2 := strconv.Atoi(month)
	y, err3 := strconv.Atoi(year)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, loc)
	// time.Date normalizes 31.02 into March; reject that.
	if t.Day() != d || int(t.Month()) != m || t.Year() != y {
		return time.Time{}, false
	}
	return t, true
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func clampDays(n int) int {
	return min(max(n, minDeadlineDays), maxDeadlineDays)
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
