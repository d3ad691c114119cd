package locations

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// SkipReason explains why an item produced no observation. Skipped items are
// not counted as processed, duplicate, or failed.
type SkipReason string

const (
	SkipNone               SkipReason = ""
	SkipInvalidTag         SkipReason = "invalid_tag"
	SkipMissingCoordinates SkipReason = "missing_coordinates"
)

const defaultBatteryStatus = 1

var tagPattern = regexp.MustCompile(`^Tag (\d+)$`)

// IsValidTag reports whether tag names a tracked subject.
func IsValidTag(tag string) bool {
	return tagPattern.MatchString(tag)
}

// TagNumber extracts n from "Tag n".
func TagNumber(tag string) (int, bool) {
	match := tagPattern.FindStringSubmatch(tag)
	if match == nil {
		return 0, false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// SortTags orders tags by their number; unnumbered tags sort last by name.
func SortTags(tags []string) {
	sort.SliceStable(tags, func(i, j int) bool {
		ni, okI := TagNumber(tags[i])
		nj, okJ := TagNumber(tags[j])
		switch {
		case okI && okJ:
			return ni < nj
		case okI != okJ:
			return okI
		default:
			return tags[i] < tags[j]
		}
	})
}

// ParseItem extracts an observation from one decoded item. fallbackTime is
// used when the item carries no usable timestamp.
func ParseItem(raw any, fallbackTime time.Time) (Observation, SkipReason) {
	obj, _ := raw.(map[string]any)
	name, _ := obj["name"].(string)
	if !IsValidTag(name) {
		return Observation{}, SkipInvalidTag
	}
	loc, _ := obj["location"].(map[string]any)
	lat, latOK := number(loc["latitude"])
	lng, lngOK := number(loc["longitude"])
	if !latOK || !lngOK {
		return Observation{}, SkipMissingCoordinates
	}

	obs := Observation{
		SubjectTag:    name,
		Latitude:      lat,
		Longitude:     lng,
		BatteryStatus: defaultBatteryStatus,
	}
	if acc, ok := number(loc["horizontalAccuracy"]); ok {
		obs.Accuracy = acc
	}
	if flag, ok := loc["isInaccurate"].(bool); ok {
		obs.IsInaccurate = flag
	}
	if battery, ok := number(obj["batteryStatus"]); ok {
		obs.BatteryStatus = battery
	}
	if ts, ok := parseTimestamp(loc["timeStamp"]); ok {
		obs.Timestamp = ts
	} else {
		obs.Timestamp = fallbackTime.UTC().Truncate(time.Millisecond)
		obs.TimestampFallback = true
	}
	return obs, SkipNone
}

func number(value any) (float64, bool) {
	f, ok := value.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseTimestamp accepts Unix milliseconds as a number or numeric string, and
// RFC 3339 strings.
func parseTimestamp(value any) (time.Time, bool) {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(v)).UTC(), true
	case string:
		trimmed := strings.TrimSpace(v)
		if ms, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC(), true
		}
		if t, err := time.Parse(time.RFC3339Nano, trimmed); err == nil {
			return t.UTC().Truncate(time.Millisecond), true
		}
	}
	return time.Time{}, false
}
