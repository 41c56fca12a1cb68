// Package derive turns merged provider records into display facts. Every
// function is total: missing data yields Unknown rather than an error.
package derive

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/WessleyAI/vesbot/engine/provider"
	"github.com/dustin/go-humanize"
	"github.com/golang-sql/civil"
)

// Unknown is the value of any fact the available data cannot support.
const Unknown = "Unknown"

// parseDate accepts a calendar date, a year-month (first of the month) or
// an RFC 3339 timestamp.
func parseDate(s string) (civil.Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return civil.Date{}, false
	}
	if d, err := civil.ParseDate(s); err == nil {
		return d, true
	}
	if t, err := time.Parse("2006-01", s); err == nil {
		return civil.DateOf(t), true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return civil.DateOf(t), true
	}
	return civil.Date{}, false
}

// registrationDate prefers the MOT registration date over the DVLA month of
// first registration.
func registrationDate(ves *provider.VESRecord, mot *provider.MOTRecord) (civil.Date, bool) {
	if mot != nil {
		if d, ok := parseDate(provider.Str(mot.RegistrationDate)); ok {
			return d, true
		}
	}
	if ves != nil {
		if month := provider.Str(ves.MonthOfFirstRegistration); month != "" {
			return parseDate(month + "-01")
		}
	}
	return civil.Date{}, false
}

// addYears clamps to the end of the month, so 29 Feb becomes 28 Feb.
func addYears(d civil.Date, n int) civil.Date {
	out := civil.Date{Year: d.Year + n, Month: d.Month, Day: d.Day}
	for !out.IsValid() && out.Day > 28 {
		out.Day--
	}
	return out
}

func onOrAfter(d, ref civil.Date) bool { return !d.Before(ref) }

const day = 24 * time.Hour

const year = 365 * day

// phrasedYears bounds the about/over/almost rows; longer spans count years.
const phrasedYears = 100

// distanceMagnitudes splits each year into quarters: about N years for the
// first three months, over N years until nine, then almost N+1 years.
func distanceMagnitudes(wrap func(string) string) []humanize.RelTimeMagnitude {
	mags := []humanize.RelTimeMagnitude{
		{D: 2 * day, Format: wrap("1 day"), DivBy: day},
		{D: 30 * day, Format: wrap("%d days"), DivBy: day},
		{D: 45 * day, Format: wrap("about 1 month"), DivBy: day},
		{D: 60 * day, Format: wrap("about 2 months"), DivBy: day},
		{D: 360 * day, Format: wrap("%d months"), DivBy: 30 * day},
	}
	for n := 1; n <= phrasedYears; n++ {
		start := time.Duration(n) * year
		mags = append(mags,
			humanize.RelTimeMagnitude{D: start + 90*day, Format: wrap(yearsPhrase("about", n)), DivBy: day},
			humanize.RelTimeMagnitude{D: start + 270*day, Format: wrap(yearsPhrase("over", n)), DivBy: day},
			humanize.RelTimeMagnitude{D: start + year, Format: wrap(yearsPhrase("almost", n+1)), DivBy: day},
		)
	}
	return append(mags, humanize.RelTimeMagnitude{D: math.MaxInt64, Format: wrap("%d years"), DivBy: year})
}

func yearsPhrase(qualifier string, n int) string {
	if n == 1 {
		return qualifier + " 1 year"
	}
	return qualifier + " " + strconv.Itoa(n) + " years"
}

var (
	futureMagnitudes = distanceMagnitudes(func(s string) string { return "in " + s })
	pastMagnitudes   = distanceMagnitudes(func(s string) string { return s + " ago" })
)

// RelativeDistance phrases target relative to today, e.g. "in 2 months" or
// "4 days ago". Equal dates read "today".
func RelativeDistance(today, target civil.Date) string {
	a, b := today.In(time.UTC), target.In(time.UTC)
	switch {
	case target == today:
		return "today"
	case target.After(today):
		return humanize.CustomRelTime(a, b, "", "", futureMagnitudes)
	default:
		return humanize.CustomRelTime(b, a, "", "", pastMagnitudes)
	}
}
