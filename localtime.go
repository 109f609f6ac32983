package dcpkdm

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// LocalTime is a broken-down local time with an explicit UTC offset, mirroring
// dcp::LocalTime in the source library. It is not a wrapper around time.Time:
// the wire format requires exact control over millisecond presence and offset
// rendering, and comparisons must be defined over the UTC instant regardless
// of which offset produced a given wall-clock reading.
type LocalTime struct {
	Year, Month, Day          int
	Hour, Minute, Second      int
	Millisecond               int
	OffsetHour, OffsetMinute  int
}

// Now returns the current local time with the system's UTC offset.
func Now() LocalTime {
	t := time.Now()
	_, offsetSeconds := t.Zone()
	lt := fromGoTime(t)
	lt.OffsetHour = offsetSeconds / 3600
	lt.OffsetMinute = (offsetSeconds % 3600) / 60
	if lt.OffsetHour < 0 {
		lt.OffsetMinute = -absInt(lt.OffsetMinute)
	}
	return lt
}

func fromGoTime(t time.Time) LocalTime {
	return LocalTime{
		Year: t.Year(), Month: int(t.Month()), Day: t.Day(),
		Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(),
		Millisecond: t.Nanosecond() / 1_000_000,
	}
}

func newUTCLocalTime(year, month, day, hour, minute, second int) (LocalTime, error) {
	lt := LocalTime{Year: year, Month: month, Day: day, Hour: hour, Minute: minute, Second: second}
	if !fieldsInRange(lt) {
		return LocalTime{}, &TimeFormatError{Value: fmt.Sprintf("%04d%02d%02d%02d%02d%02d", year, month, day, hour, minute, second)}
	}
	return lt, nil
}

// fieldsInRange reports whether lt's broken-down fields are valid calendar/
// clock values. The lexical-form regexes only constrain digit-group width
// (two or four digits), so a string like "2013-13-05T18:06:59Z" matches the
// pattern but names a 13th month; this catches that.
func fieldsInRange(lt LocalTime) bool {
	switch {
	case lt.Month < 1 || lt.Month > 12:
		return false
	case lt.Day < 1 || lt.Day > 31:
		return false
	case lt.Hour < 0 || lt.Hour > 23:
		return false
	case lt.Minute < 0 || lt.Minute > 59:
		return false
	case lt.Second < 0 || lt.Second > 59:
		return false
	}
	return true
}

// xsDateTimePattern matches "YYYY-MM-DDThh:mm:ss[.fff][Z|±HH:MM]".
var xsDateTimePattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})T(\d{2}):(\d{2}):(\d{2})(\.\d+)?(Z|[+-]\d{2}:\d{2})?$`)

// ParseLocalTime parses the xs:dateTime lexical form used on the wire:
// 2013-01-05T18:06:59[.frac][Z|±HH:MM].
func ParseLocalTime(s string) (LocalTime, error) {
	m := xsDateTimePattern.FindStringSubmatch(s)
	if m == nil {
		return LocalTime{}, &TimeFormatError{Value: s}
	}

	lt := LocalTime{
		Year: atoiMust(m[1]), Month: atoiMust(m[2]), Day: atoiMust(m[3]),
		Hour: atoiMust(m[4]), Minute: atoiMust(m[5]), Second: atoiMust(m[6]),
	}

	if frac := m[7]; frac != "" {
		digits := frac[1:]
		for len(digits) < 3 {
			digits += "0"
		}
		ms, err := strconv.Atoi(digits[:3])
		if err != nil {
			return LocalTime{}, &TimeFormatError{Value: s}
		}
		lt.Millisecond = ms
	}

	switch tz := m[8]; {
	case tz == "" || tz == "Z":
		// UTC, zero offset.
	default:
		sign := 1
		if tz[0] == '-' {
			sign = -1
		}
		hh := atoiMust(tz[1:3])
		mm := atoiMust(tz[4:6])
		lt.OffsetHour = sign * hh
		lt.OffsetMinute = sign * mm
	}

	if !fieldsInRange(lt) {
		return LocalTime{}, &TimeFormatError{Value: s}
	}

	return lt, nil
}

// String renders the xs:dateTime lexical form with milliseconds and timezone,
// matching the wire format's ContentKeysNotValidBefore/After and IssueDate.
func (t LocalTime) String() string {
	return t.AsString(true, true)
}

// AsString renders the time, optionally including milliseconds and/or the
// trailing timezone designator.
func (t LocalTime) AsString(withMillisecond, withTimezone bool) string {
	s := fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d", t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Second)
	if withMillisecond {
		s += fmt.Sprintf(".%03d", t.Millisecond)
	}
	if withTimezone {
		if t.OffsetHour == 0 && t.OffsetMinute == 0 {
			s += "Z"
		} else {
			sign := "+"
			if t.OffsetHour < 0 || t.OffsetMinute < 0 {
				sign = "-"
			}
			s += fmt.Sprintf("%s%02d:%02d", sign, absInt(t.OffsetHour), absInt(t.OffsetMinute))
		}
	}
	return s
}

// AsUTC returns the same instant with the offset subtracted and OffsetHour/
// OffsetMinute zeroed.
func (t LocalTime) AsUTC() LocalTime {
	utc := t.toGoTime().Add(time.Duration(-t.OffsetHour)*time.Hour + time.Duration(-t.OffsetMinute)*time.Minute)
	lt := fromGoTime(utc)
	return lt
}

func (t LocalTime) toGoTime() time.Time {
	return time.Date(t.Year, time.Month(t.Month), t.Day, t.Hour, t.Minute, t.Second, t.Millisecond*1_000_000, time.UTC)
}

// Before reports whether t represents an earlier UTC instant than other.
func (t LocalTime) Before(other LocalTime) bool {
	return t.AsUTC().toGoTime().Before(other.AsUTC().toGoTime())
}

// After reports whether t represents a later UTC instant than other.
func (t LocalTime) After(other LocalTime) bool {
	return t.AsUTC().toGoTime().After(other.AsUTC().toGoTime())
}

// Equal reports whether t and other represent the same UTC instant.
func (t LocalTime) Equal(other LocalTime) bool {
	return t.AsUTC().toGoTime().Equal(other.AsUTC().toGoTime())
}

// AddDays returns t shifted by the given number of days (may be negative),
// preserving the wall-clock time of day and the UTC offset.
func (t LocalTime) AddDays(days int) LocalTime {
	return t.shiftDate(t.toGoTime().AddDate(0, 0, days))
}

// AddMonths returns t shifted by the given number of months, clamped to the
// target month's length (e.g. Jan 31 + 1 month = Feb 28/29, not Mar 3).
func (t LocalTime) AddMonths(months int) LocalTime {
	base := time.Date(t.Year, time.Month(t.Month), 1, t.Hour, t.Minute, t.Second, t.Millisecond*1_000_000, time.UTC)
	shifted := base.AddDate(0, months, 0)
	lastDay := time.Date(shifted.Year(), shifted.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	day := t.Day
	if day > lastDay {
		day = lastDay
	}
	shifted = time.Date(shifted.Year(), shifted.Month(), day, t.Hour, t.Minute, t.Second, t.Millisecond*1_000_000, time.UTC)
	return t.shiftDate(shifted)
}

// AddMinutes returns t shifted by the given number of minutes.
func (t LocalTime) AddMinutes(minutes int) LocalTime {
	return t.shiftDate(t.toGoTime().Add(time.Duration(minutes) * time.Minute))
}

func (t LocalTime) shiftDate(newTime time.Time) LocalTime {
	lt := fromGoTime(newTime)
	lt.OffsetHour = t.OffsetHour
	lt.OffsetMinute = t.OffsetMinute
	return lt
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
