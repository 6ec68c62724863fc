package lang

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var weekdaysES = map[string]time.Weekday{
	"lunes":     time.Monday,
	"martes":    time.Tuesday,
	"miercoles": time.Wednesday,
	"miércoles": time.Wednesday,
	"jueves":    time.Thursday,
	"viernes":   time.Friday,
	"sabado":    time.Saturday,
	"sábado":    time.Saturday,
	"domingo":   time.Sunday,
}

var (
	compactDateRe = regexp.MustCompile(`^\d{8}$`)
	looseDateRe   = regexp.MustCompile(`(\d{4})\D+(\d{1,2})\D+(\d{1,2})`)
)

// ParseDate resolves a spoken or typed Spanish date phrase to an ISO
// "2006-01-02" string. It accepts, in priority order: an 8-digit compact
// date, "hoy"/"mañana", a weekday name (always the NEXT occurrence, never
// today), a loose year-month-day pattern tolerant of spoken punctuation,
// strict ISO, and DD/MM/YYYY. Returns ok=false when nothing matches.
func ParseDate(text string, now time.Time) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return "", false
	}

	if compactDateRe.MatchString(t) {
		d, err := time.ParseInLocation("20060102", t, now.Location())
		if err != nil {
			return "", false
		}
		return d.Format("2006-01-02"), true
	}

	if t == "hoy" {
		return now.Format("2006-01-02"), true
	}
	if t == "mañana" || t == "manana" {
		return now.AddDate(0, 0, 1).Format("2006-01-02"), true
	}

	if target, ok := weekdaysES[t]; ok {
		delta := (int(target) - int(now.Weekday()) + 7) % 7
		if delta == 0 {
			delta = 7
		}
		return now.AddDate(0, 0, delta).Format("2006-01-02"), true
	}

	if m := looseDateRe.FindStringSubmatch(t); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
		}
		return "", false
	}

	if d, err := time.ParseInLocation("2006-01-02", t, now.Location()); err == nil {
		return d.Format("2006-01-02"), true
	}

	if d, err := time.ParseInLocation("02/01/2006", t, now.Location()); err == nil {
		return d.Format("2006-01-02"), true
	}

	return "", false
}
