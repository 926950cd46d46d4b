package fields

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// secondsThreshold separates Unix seconds from Unix milliseconds.
const secondsThreshold = 10_000_000_000

const DayLayout = "2006-01-02"

var (
	slashedISO = regexp.MustCompile(`^\d{4}/\d{1,2}/\d{1,2}`)
	brDate     = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})`)
)

// zoned layouts carry their own offset; the rest are read in the caller's location.
var (
	zonedLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05Z0700",
		"2006-01-02T15:04:05.999999999Z0700",
		"2006-01-02 15:04:05Z07:00",
	}
	localLayouts = []string{
		"2006-1-2T15:04:05.999999999",
		"2006-1-2T15:04:05",
		"2006-1-2T15:04",
		"2006-1-2 15:04:05",
		"2006-1-2 15:04",
		"2006-1-2",
	}
)

// Date reads a raw date value. The zero time means no value: a missing or
// unreadable date is never replaced by the current time here.
func Date(v gjson.Result, loc *time.Location) time.Time {
	if v.IsArray() {
		arr := v.Array()
		if len(arr) == 0 {
			return time.Time{}
		}
		v = arr[0]
	}
	switch v.Type {
	case gjson.Number:
		return FromUnix(v.Float(), loc)
	case gjson.String:
		return ParseDate(v.Str, loc)
	default:
		return time.Time{}
	}
}

// FromUnix treats n below 10^10 as seconds and anything else as milliseconds.
func FromUnix(n float64, loc *time.Location) time.Time {
	if n == 0 {
		return time.Time{}
	}
	var t time.Time
	if n < secondsThreshold {
		t = time.UnixMilli(int64(n * 1000))
	} else {
		t = time.UnixMilli(int64(n))
	}
	return t.In(location(loc))
}

func ParseDate(s string, loc *time.Location) time.Time {
	loc = location(loc)
	in := strings.TrimSpace(s)
	if in == "" {
		return time.Time{}
	}
	if slashedISO.MatchString(in) {
		in = strings.ReplaceAll(in, "/", "-")
	}

	if strings.Contains(in, "-") {
		for _, layout := range zonedLayouts {
			if t, err := time.Parse(layout, in); err == nil {
				return t.In(loc)
			}
		}
		for _, layout := range localLayouts {
			if t, err := time.ParseInLocation(layout, in, loc); err == nil {
				return t
			}
		}
	}

	if m := brDate.FindStringSubmatch(in); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	}
	return time.Time{}
}

// Day strips the time of day, keeping t's location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func DayKey(t time.Time) string { return t.Format(DayLayout) }

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
