package scraper

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/MrJJimenez/jobscout/internal/models"
)

var postedLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02.01.2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

func parsePostedAt(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	for _, layout := range postedLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format: %s", value)
}

var relativePattern = regexp.MustCompile(`(\d+)\s*\+?\s*(minuten|minutes|minute|mins|min|stunden|stunde|hours|hour|hrs|hr|h|tagen|tage|tag|days|day|d|wochen|woche|weeks|week|w|monaten|monate|monat|months|month|mo|jahren|jahre|jahr|years|year|y)\b`)

var singularPrefixes = strings.NewReplacer(
	"an hour", "1 hour",
	"a day", "1 day",
	"a week", "1 week",
	"a month", "1 month",
	"a year", "1 year",
	"einer stunde", "1 stunde",
	"einem tag", "1 tag",
	"einer woche", "1 woche",
	"einem monat", "1 monat",
	"einem jahr", "1 jahr",
)

// parseRelativePosted understands "3 days ago", "30+ days ago", "24h",
// "vor 2 Tagen", "today" and similar labels relative to now.
func parseRelativePosted(value string, now time.Time) (time.Time, bool) {
	value = strings.ToLower(cleanText(value))
	if value == "" {
		return time.Time{}, false
	}

	switch {
	case strings.Contains(value, "just posted"), strings.Contains(value, "just now"),
		strings.Contains(value, "today"), strings.Contains(value, "heute"):
		return now, true
	case strings.Contains(value, "yesterday"), strings.Contains(value, "gestern"):
		return now.Add(-24 * time.Hour), true
	}

	value = singularPrefixes.Replace(value)
	match := relativePattern.FindStringSubmatch(value)
	if match == nil {
		return time.Time{}, false
	}
	count, err := strconv.Atoi(match[1])
	if err != nil {
		return time.Time{}, false
	}
	unit := unitDuration(match[2])
	if unit == 0 {
		return time.Time{}, false
	}
	return now.Add(-time.Duration(count) * unit), true
}

func unitDuration(unit string) time.Duration {
	const day = 24 * time.Hour
	switch {
	case strings.HasPrefix(unit, "min"):
		return time.Minute
	case unit == "h", strings.HasPrefix(unit, "hour"), strings.HasPrefix(unit, "hr"), strings.HasPrefix(unit, "stunde"):
		return time.Hour
	case unit == "d", strings.HasPrefix(unit, "day"), strings.HasPrefix(unit, "tag"):
		return day
	case unit == "w", strings.HasPrefix(unit, "week"), strings.HasPrefix(unit, "woche"):
		return 7 * day
	case strings.HasPrefix(unit, "mo"):
		return 30 * day
	case unit == "y", strings.HasPrefix(unit, "year"), strings.HasPrefix(unit, "jahr"):
		return 365 * day
	}
	return 0
}

// setPosted records the published posting label and, when it can be read,
// the posting date.
func setPosted(job *models.RawJob, raw string, now time.Time) {
	raw = cleanText(raw)
	if raw == "" {
		return
	}
	setMeta(job, models.MetaPostedRaw, raw)
	if ts, err := parsePostedAt(raw); err == nil {
		job.PostedDate = ts
		return
	}
	if ts, ok := parseRelativePosted(raw, now); ok {
		job.PostedDate = ts
	}
}
