// Package dates extracts booking periods and roster months from filenames
// and decides which calendar month a multi-day period is attributed to.
package dates

import (
	"regexp"
	"time"
)

const monthKeyFormat = "2006-01"

var (
	dayRangePattern    = regexp.MustCompile(`(\d{8})-(\d{8})`)
	monthRangePattern  = regexp.MustCompile(`(\d{6})-(\d{6})`)
	singleMonthPattern = regexp.MustCompile(`(\d{6})`)
)

// DateRange is a booking period with a per-month day tally. Every day in
// [Start, End] is counted in exactly one month bucket, so the bucket sum
// always equals the inclusive day span.
type DateRange struct {
	Start       time.Time
	End         time.Time
	DaysInMonth map[string]int
}

// TotalDays returns the inclusive number of days in the range.
func (r DateRange) TotalDays() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// DominantMonth returns the YYYY-MM key holding the most days. Ties break
// to the lexicographically smallest key, i.e. the earliest month.
func (r DateRange) DominantMonth() string {
	best := ""
	bestDays := 0
	for key, days := range r.DaysInMonth {
		if days > bestDays || (days == bestDays && (best == "" || key < best)) {
			best = key
			bestDays = days
		}
	}
	return best
}

// DominantRatio returns the dominant month's share of the total days.
func (r DateRange) DominantRatio() float64 {
	total := r.TotalDays()
	if total <= 0 {
		return 0
	}
	return float64(r.DaysInMonth[r.DominantMonth()]) / float64(total)
}

// ParseRange extracts a date range from a filename, trying patterns in
// priority order: an explicit YYYYMMDD-YYYYMMDD day range, a YYYYMM-YYYYMM
// month range (day 1 of the first month through the last day of the
// second), then a single full YYYYMM month. A tier whose digits do not form
// a valid calendar date is skipped in favor of the next tier. Returns false
// when no tier matches; the caller treats the file as unattributable.
func ParseRange(filename string) (DateRange, bool) {
	if m := dayRangePattern.FindStringSubmatch(filename); m != nil {
		start, okStart := parseDay(m[1])
		end, okEnd := parseDay(m[2])
		if okStart && okEnd && !end.Before(start) {
			return tallyDays(start, end), true
		}
	}

	if m := monthRangePattern.FindStringSubmatch(filename); m != nil {
		start, okStart := parseMonthStart(m[1])
		end, okEnd := parseMonthEnd(m[2])
		if okStart && okEnd && !end.Before(start) {
			return tallyDays(start, end), true
		}
	}

	if m := singleMonthPattern.FindStringSubmatch(filename); m != nil {
		start, okStart := parseMonthStart(m[1])
		end, okEnd := parseMonthEnd(m[1])
		if okStart && okEnd {
			return tallyDays(start, end), true
		}
	}

	return DateRange{}, false
}

func parseDay(s string) (time.Time, bool) {
	// time.Parse rejects out-of-range days such as the 31st of a 30-day
	// month, which is exactly the fall-through behavior we want.
	t, err := time.Parse("20060102", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func parseMonthStart(s string) (time.Time, bool) {
	t, err := time.Parse("200601", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func parseMonthEnd(s string) (time.Time, bool) {
	start, ok := parseMonthStart(s)
	if !ok {
		return time.Time{}, false
	}
	return start.AddDate(0, 1, -1), true
}

func tallyDays(start, end time.Time) DateRange {
	days := make(map[string]int)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days[d.Format(monthKeyFormat)]++
	}
	return DateRange{Start: start, End: end, DaysInMonth: days}
}
