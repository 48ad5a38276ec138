package zone

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/amnyam666/tgdailybot/internal/constants"
)

// MaxIterations caps the fixed-point search in Solve. Fixed-offset zones settle
// after one correction; DST zones need at most two outside of transition gaps.
const MaxIterations = 8

// Parts are wall-clock components in some zone.
type Parts struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int
}

// String renders the parts in the reminder input format (YYYY-MM-DDTHH:MM).
func (p Parts) String() string {
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d", p.Year, p.Month, p.Day, p.Hour, p.Minute)
}

// naiveMs interprets the wall clock as if it were UTC.
func (p Parts) naiveMs() int64 {
	return time.Date(p.Year, time.Month(p.Month), p.Day, p.Hour, p.Minute, p.Second, 0, time.UTC).UnixMilli()
}

// OffsetFunc returns the UTC offset in milliseconds in effect at an instant.
type OffsetFunc func(instantMs int64) int64

var inputPattern = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})[T ](\d{1,2}):(\d{1,2})$`)

// ParseParts decomposes "YYYY-MM-DDTHH:MM" (or "YYYY-MM-DD HH:MM") into parts.
func ParseParts(input string) (Parts, bool) {
	normalized := strings.Join(strings.Fields(input), " ")
	m := inputPattern.FindStringSubmatch(normalized)
	if m == nil {
		return Parts{}, false
	}

	nums := make([]int, 5)
	for i := range nums {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return Parts{}, false
		}
		nums[i] = n
	}

	p := Parts{Year: nums[0], Month: nums[1], Day: nums[2], Hour: nums[3], Minute: nums[4]}
	if p.Month < 1 || p.Month > 12 || p.Hour > 23 || p.Minute > 59 || p.Day < 1 {
		return Parts{}, false
	}
	// time.Date normalizes Feb 30 into March; reject instead
	if time.Date(p.Year, time.Month(p.Month), p.Day, 0, 0, 0, 0, time.UTC).Day() != p.Day {
		return Parts{}, false
	}
	return p, true
}

// OffsetIn returns the offset of loc at the instant: wall clock rendered in loc,
// read back as UTC, minus the instant.
func OffsetIn(loc *time.Location, instantMs int64) int64 {
	t := time.UnixMilli(instantMs).In(loc)
	wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	return wall.UnixMilli() - instantMs
}

// OffsetMs returns the offset of zone id at the instant.
func OffsetMs(id string, instantMs int64) int64 {
	return OffsetIn(Location(id), instantMs)
}

// Solve finds the instant whose wall clock under offset equals parts by
// refining guess = naive - offset(guess) until it stops moving. Inside a
// spring-forward gap the sequence may alternate; the cap ends it there and the
// result is whichever instant the last step produced.
func Solve(parts Parts, offset OffsetFunc) int64 {
	naive := parts.naiveMs()
	guess := naive
	for i := 0; i < MaxIterations; i++ {
		next := naive - offset(guess)
		if next == guess {
			return guess
		}
		guess = next
	}
	return guess
}

// ToUTCIn converts a wall-clock input string in loc to epoch milliseconds.
func ToUTCIn(input string, loc *time.Location) (int64, bool) {
	parts, ok := ParseParts(input)
	if !ok {
		return 0, false
	}
	return Solve(parts, func(instantMs int64) int64 {
		return OffsetIn(loc, instantMs)
	}), true
}

// ToUTC converts a wall-clock input string in zone id to epoch milliseconds.
// The boolean is false when the input cannot be parsed.
func ToUTC(input, id string) (int64, bool) {
	return ToUTCIn(input, Location(id))
}

// LocalParts renders an instant as wall-clock parts in zone id.
func LocalParts(instantMs int64, id string) Parts {
	t := time.UnixMilli(instantMs).In(Location(id))
	return Parts{
		Year:   t.Year(),
		Month:  int(t.Month()),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
}

// FormatDisplay renders an instant for people, e.g. "01.06.2025 09:30".
func FormatDisplay(instantMs int64, id string) string {
	return time.UnixMilli(instantMs).In(Location(id)).Format(constants.DisplayFormat)
}

// FormatForEdit renders an instant as "YYYY-MM-DD HH:MM", accepted back by ToUTC.
func FormatForEdit(instantMs int64, id string) string {
	return time.UnixMilli(instantMs).In(Location(id)).Format(constants.DateTimeInputFormat)
}
