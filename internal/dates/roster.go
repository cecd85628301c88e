package dates

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"
)

var (
	cjkMonthPattern  = regexp.MustCompile(`(\d{4})年(\d{1,2})月`)
	numericYearMonth = regexp.MustCompile(`(\d{6})`)
)

// ExtractRosterMonth pulls the single point-in-time month out of a roster
// filename. Roster files denote one month, not a range, so this is distinct
// from ParseRange. Supported tokens: 2025年12月 (also 2025年3月) and 202512.
func ExtractRosterMonth(filename string) (string, bool) {
	if m := cjkMonthPattern.FindStringSubmatch(filename); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month >= 1 && month <= 12 {
			return fmt.Sprintf("%04d-%02d", year, month), true
		}
	}

	if m := numericYearMonth.FindStringSubmatch(filename); m != nil {
		year, _ := strconv.Atoi(m[1][:4])
		month, _ := strconv.Atoi(m[1][4:6])
		if month >= 1 && month <= 12 {
			return fmt.Sprintf("%04d-%02d", year, month), true
		}
	}

	return "", false
}

// MatchRoster picks the roster month to use for a travel file attributed to
// target, given the set of available roster months. Preference order:
//
//  1. the target month itself
//  2. the immediately preceding calendar month
//  3. the immediately following calendar month
//  4. the first available month, in ascending order, that is <= target
//     (this intentionally yields the earliest eligible month, not the
//     nearest one; downstream attribution depends on the rule as-is)
//  5. the latest available month overall
//
// Returns false only when no roster months exist at all.
func MatchRoster(target string, available []string) (string, bool) {
	if len(available) == 0 {
		return "", false
	}

	avail := make(map[string]bool, len(available))
	for _, m := range available {
		avail[m] = true
	}

	if avail[target] {
		return target, true
	}

	if prev, ok := shiftMonth(target, -1); ok && avail[prev] {
		return prev, true
	}
	if next, ok := shiftMonth(target, 1); ok && avail[next] {
		return next, true
	}

	sorted := append([]string(nil), available...)
	sort.Strings(sorted)
	for _, m := range sorted {
		if m <= target {
			return m, true
		}
	}

	return sorted[len(sorted)-1], true
}

func shiftMonth(month string, delta int) (string, bool) {
	t, err := time.Parse(monthKeyFormat, month)
	if err != nil {
		return "", false
	}
	return t.AddDate(0, delta, 0).Format(monthKeyFormat), true
}
