// Package zone converts between wall-clock times in the supported IANA zones
// and absolute UTC instants expressed as epoch milliseconds.
package zone

import (
	"fmt"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/amnyam666/tgdailybot/internal/constants"
	"github.com/amnyam666/tgdailybot/internal/errors"
	"github.com/amnyam666/tgdailybot/internal/logger"
)

// Default is the zone used whenever a stored or requested zone is not supported.
const Default = constants.DefaultTimezone

// Supported lists the zones a user may pick, west to east.
var Supported = []string{
	"Europe/Kaliningrad",
	"Europe/Moscow",
	"Europe/Samara",
	"Asia/Yekaterinburg",
	"Asia/Omsk",
	"Asia/Krasnoyarsk",
	"Asia/Irkutsk",
	"Asia/Yakutsk",
	"Asia/Vladivostok",
	"Asia/Magadan",
	"Asia/Kamchatka",
}

// standardOffsetHours is only consulted if the tz database cannot load a zone.
var standardOffsetHours = map[string]int{
	"Europe/Kaliningrad": 2,
	"Europe/Moscow":      3,
	"Europe/Samara":      4,
	"Asia/Yekaterinburg": 5,
	"Asia/Omsk":          6,
	"Asia/Krasnoyarsk":   7,
	"Asia/Irkutsk":       8,
	"Asia/Yakutsk":       9,
	"Asia/Vladivostok":   10,
	"Asia/Magadan":       11,
	"Asia/Kamchatka":     12,
}

var (
	locMu    sync.Mutex
	locCache = make(map[string]*time.Location)
)

// IsSupported reports whether id is one of the selectable zones.
func IsSupported(id string) bool {
	_, ok := standardOffsetHours[id]
	return ok
}

// Resolve returns id when it is supported and Default otherwise.
func Resolve(id string) string {
	if IsSupported(id) {
		return id
	}
	if id != "" {
		logger.Debug("Falling back to default timezone", "zone", id, "error", errors.ErrUnsupportedZone)
	}
	return Default
}

// Location returns the location for id, resolving unsupported ids to Default.
func Location(id string) *time.Location {
	id = Resolve(id)

	locMu.Lock()
	defer locMu.Unlock()

	if loc, ok := locCache[id]; ok {
		return loc
	}

	loc, err := time.LoadLocation(id)
	if err != nil {
		logger.Error("Failed to load timezone, using fixed offset", "zone", id, "error", err)
		loc = time.FixedZone(id, standardOffsetHours[id]*3600)
	}
	locCache[id] = loc
	return loc
}

// Label renders a zone with its current UTC offset, e.g. "Europe/Moscow (UTC+3)".
func Label(id string, at time.Time) string {
	offset := OffsetMs(id, at.UnixMilli()) / 1000
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	hours, minutes := offset/3600, (offset%3600)/60
	if minutes == 0 {
		return fmt.Sprintf("%s (UTC%s%d)", Resolve(id), sign, hours)
	}
	return fmt.Sprintf("%s (UTC%s%d:%02d)", Resolve(id), sign, hours, minutes)
}
