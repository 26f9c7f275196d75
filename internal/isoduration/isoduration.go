// Package isoduration parses and formats ISO-8601 time-based durations of the
// form PnDTnHnMn.nS. Calendar units (years, months, weeks) are not accepted
// since they have no fixed length.
package isoduration

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrSyntax is returned for text that is not an ISO-8601 duration.
var ErrSyntax = errors.New("not an ISO-8601 duration")

var pattern = regexp.MustCompile(`(?i)^([-+]?)P(?:([-+]?[0-9]+)D)?(T(?:([-+]?[0-9]+)H)?(?:([-+]?[0-9]+)M)?(?:([-+]?[0-9]+)(?:[.,]([0-9]{0,9}))?S)?)?$`)

// Parse parses text such as "PT5S", "PT0.5S", "P1DT2H" or "-PT10M".
// Every unit may carry its own sign.
func Parse(text string) (time.Duration, error) {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrSyntax, text)
	}
	days, hours, minutes, secs, frac := m[2], m[4], m[5], m[6], m[7]
	if m[3] != "" && hours == "" && minutes == "" && secs == "" {
		// "T" must be followed by at least one unit
		return 0, fmt.Errorf("%w: %q", ErrSyntax, text)
	}
	if days == "" && m[3] == "" {
		return 0, fmt.Errorf("%w: %q", ErrSyntax, text)
	}

	var total int64
	for _, u := range []struct {
		v    string
		unit time.Duration
	}{
		{days, 24 * time.Hour},
		{hours, time.Hour},
		{minutes, time.Minute},
		{secs, time.Second},
	} {
		if u.v == "" {
			continue
		}
		n, err := strconv.ParseInt(u.v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrSyntax, text)
		}
		part, ok := mul(n, int64(u.unit))
		if !ok {
			return 0, fmt.Errorf("duration %q out of range", text)
		}
		if total, ok = add(total, part); !ok {
			return 0, fmt.Errorf("duration %q out of range", text)
		}
	}
	if frac != "" {
		nanos, _ := strconv.ParseInt((frac + "000000000")[:9], 10, 64)
		if strings.HasPrefix(secs, "-") {
			nanos = -nanos
		}
		var ok bool
		if total, ok = add(total, nanos); !ok {
			return 0, fmt.Errorf("duration %q out of range", text)
		}
	}
	if m[1] == "-" {
		if total == math.MinInt64 {
			return 0, fmt.Errorf("duration %q out of range", text)
		}
		total = -total
	}
	return time.Duration(total), nil
}

func mul(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	c := a * b
	if c/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	return c, true
}

func add(a, b int64) (int64, bool) {
	c := a + b
	if (b > 0 && c < a) || (b < 0 && c > a) {
		return 0, false
	}
	return c, true
}

// Format renders d so that Parse returns it unchanged, e.g. 90*time.Second
// becomes "PT1M30S". Days are folded into hours.
func Format(d time.Duration) string {
	if d == 0 {
		return "PT0S"
	}
	var b strings.Builder
	b.WriteString("PT")
	neg := d < 0
	// work on the absolute value split per unit to avoid overflow on MinInt64
	u := uint64(d)
	if neg {
		u = uint64(-(d + 1)) + 1
	}
	hours := u / uint64(time.Hour)
	u -= hours * uint64(time.Hour)
	minutes := u / uint64(time.Minute)
	u -= minutes * uint64(time.Minute)
	secs := u / uint64(time.Second)
	nanos := u - secs*uint64(time.Second)

	sign := ""
	if neg {
		sign = "-"
	}
	if hours > 0 {
		fmt.Fprintf(&b, "%s%dH", sign, hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&b, "%s%dM", sign, minutes)
	}
	if secs > 0 || nanos > 0 {
		b.WriteString(sign)
		b.WriteString(strconv.FormatUint(secs, 10))
		if nanos > 0 {
			b.WriteByte('.')
			b.WriteString(strings.TrimRight(fmt.Sprintf("%09d", nanos), "0"))
		}
		b.WriteByte('S')
	}
	return b.String()
}
