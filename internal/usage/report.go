package usage

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// DefaultWindowDays is the trailing-window fallback when the request
// carries no usable day count.
const DefaultWindowDays = 30

const bytesPerGB = 1 << 30

// Filter selects which daily samples enter the report: an explicit
// inclusive calendar range, or a trailing window of N days. Range mode
// wins only when all six range components are present; partial range
// input silently falls back to the window.
type Filter struct {
	From, To   time.Time
	ranged     bool
	WindowDays int
}

// Ranged reports whether the filter runs in explicit-range mode.
func (f Filter) Ranged() bool {
	return f.ranged
}

// RangeFields carries the raw request fields of the usage filter.
type RangeFields struct {
	FromDay, FromMonth, FromYear string
	ToDay, ToMonth, ToYear       string
	Days                         string
}

// ParseFilter builds a filter from request fields. defaultWindow <= 0
// falls back to DefaultWindowDays.
func ParseFilter(fields RangeFields, defaultWindow int, loc *time.Location) Filter {
	if defaultWindow <= 0 {
		defaultWindow = DefaultWindowDays
	}

	fd, errFD := strconv.Atoi(fields.FromDay)
	fm, errFM := strconv.Atoi(fields.FromMonth)
	fy, errFY := strconv.Atoi(fields.FromYear)
	td, errTD := strconv.Atoi(fields.ToDay)
	tm, errTM := strconv.Atoi(fields.ToMonth)
	ty, errTY := strconv.Atoi(fields.ToYear)

	if errFD == nil && errFM == nil && errFY == nil && errTD == nil && errTM == nil && errTY == nil {
		return Filter{
			From:   time.Date(fy, time.Month(fm), fd, 0, 0, 0, 0, loc),
			To:     time.Date(ty, time.Month(tm), td, 0, 0, 0, 0, loc),
			ranged: true,
		}
	}

	days, err := strconv.Atoi(fields.Days)
	if err != nil || days <= 0 {
		days = defaultWindow
	}
	return Filter{WindowDays: days}
}

// Line is one aggregated day of the usage report.
type Line struct {
	Date       string
	AgeDays    int
	UploadGB   float64
	DownloadGB float64
	TotalGB    float64
}

// Report is the filtered, totalled usage view. Rebuilt on every
// request, never cached.
type Report struct {
	Lines   []Line
	TotalGB float64
	Caption string
}

// Build aggregates a daily site-statistics collection into a usage
// report. Records without a usable timestamp are skipped; missing byte
// counters aggregate as zero. An absent or empty collection yields an
// empty report with a zero total.
func Build(records []map[string]any, f Filter, now time.Time, loc *time.Location) *Report {
	report := &Report{Caption: f.caption()}

	nowDay := truncateDay(now.In(loc))

	var grandTotal float64
	for _, rec := range records {
		ts, ok := sampleTime(rec)
		if !ok {
			continue
		}

		day := truncateDay(ts.In(loc))
		age := wholeDays(day, nowDay)

		if f.ranged {
			if day.Before(f.From) || day.After(f.To) {
				continue
			}
		} else if age > f.WindowDays {
			continue
		}

		upGB := number(rec, "wan-tx_bytes") / bytesPerGB
		downGB := number(rec, "wan-rx_bytes") / bytesPerGB

		report.Lines = append(report.Lines, Line{
			Date:       fmt.Sprintf("%d/%d/%d", day.Day(), int(day.Month()), day.Year()),
			AgeDays:    age,
			UploadGB:   round2(upGB),
			DownloadGB: round2(downGB),
			TotalGB:    round2(upGB + downGB),
		})

		// Totals accumulate the unrounded values; rounded once below
		grandTotal += upGB + downGB
	}

	report.TotalGB = round2(grandTotal)
	return report
}

func (f Filter) caption() string {
	if f.ranged {
		return fmt.Sprintf("Usage from %d/%d/%d to %d/%d/%d",
			f.From.Day(), int(f.From.Month()), f.From.Year(),
			f.To.Day(), int(f.To.Month()), f.To.Year())
	}
	return fmt.Sprintf("Usage over the last %d days", f.WindowDays)
}

func sampleTime(rec map[string]any) (time.Time, bool) {
	v, ok := rec["time"]
	if !ok {
		return time.Time{}, false
	}
	switch ms := v.(type) {
	case float64:
		return time.UnixMilli(int64(ms)), true
	case int64:
		return time.UnixMilli(ms), true
	default:
		return time.Time{}, false
	}
}

func number(rec map[string]any, key string) float64 {
	if v, ok := rec[key].(float64); ok {
		return v
	}
	return 0
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// wholeDays returns the absolute number of whole days between two
// day-truncated times.
func wholeDays(a, b time.Time) int {
	d := int(math.Round(b.Sub(a).Hours() / 24))
	if d < 0 {
		return -d
	}
	return d
}

// round2 rounds to two decimal places, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
