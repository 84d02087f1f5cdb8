package codec

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05.999999999"
)

// DateTime converts RFC 3339 strings to time.Time. Strings without a zone
// offset are read as UTC, and a space may separate date and time.
func DateTime() Codec[string, time.Time] { return dateTimeCodec{} }

type dateTimeCodec struct{}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	dateLayout,
}

func (dateTimeCodec) Decode(s string) (time.Time, error) {
	for _, l := range dateTimeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &FormatError{Format: "datetime", Input: s}
}

func (dateTimeCodec) Encode(t time.Time) (string, error) {
	return t.Format(time.RFC3339Nano), nil
}

// Date converts "YYYY-MM-DD" strings to midnight UTC.
func Date() Codec[string, time.Time] { return dateCodec{} }

type dateCodec struct{}

func (dateCodec) Decode(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, &FormatError{Format: "date", Input: s, Err: err}
	}
	return t, nil
}

func (dateCodec) Encode(t time.Time) (string, error) { return t.Format(dateLayout), nil }

// TimeOfDay converts "HH:MM[:SS[.fff]]" strings, with an optional zone, to
// a time.Time on the zero date.
func TimeOfDay() Codec[string, time.Time] { return timeCodec{} }

type timeCodec struct{}

var timeLayouts = []string{
	timeLayout,
	timeLayout + "Z07:00",
	"15:04",
}

func (timeCodec) Decode(s string) (time.Time, error) {
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &FormatError{Format: "time", Input: s}
}

func (timeCodec) Encode(t time.Time) (string, error) {
	if t.Location() == time.UTC {
		return t.Format(timeLayout), nil
	}
	return t.Format(timeLayout + "Z07:00"), nil
}

// Duration converts ISO 8601 durations ("P1DT2H", "PT0.5S") to
// time.Duration. Go duration strings ("1h30m") are accepted on decode.
func Duration() Codec[string, time.Duration] { return durationCodec{} }

type durationCodec struct{}

var isoDuration = regexp.MustCompile(`^([-+])?P(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

func (durationCodec) Decode(s string) (time.Duration, error) {
	m := isoDuration.FindStringSubmatch(s)
	if m == nil || s == "P" || strings.HasSuffix(s, "T") {
		if d, err := time.ParseDuration(s); err == nil {
			return d, nil
		}
		return 0, &FormatError{Format: "duration", Input: s}
	}
	var total float64
	units := []float64{7 * 24 * 3600, 24 * 3600, 3600, 60, 1}
	for i, u := range units {
		if m[i+2] == "" {
			continue
		}
		n, err := strconv.ParseFloat(m[i+2], 64)
		if err != nil {
			return 0, &FormatError{Format: "duration", Input: s, Err: err}
		}
		total += n * u
	}
	if m[1] == "-" {
		total = -total
	}
	if math.Abs(total) > math.MaxInt64/float64(time.Second) {
		return 0, &FormatError{Format: "duration", Input: s, Err: fmt.Errorf("out of range")}
	}
	return time.Duration(math.Round(total * float64(time.Second))), nil
}

func (durationCodec) Encode(d time.Duration) (string, error) {
	var b strings.Builder
	if d < 0 {
		b.WriteByte('-')
		d = -d
	}
	b.WriteByte('P')
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	if days > 0 {
		fmt.Fprintf(&b, "%dD", days)
	}
	if d == 0 && days > 0 {
		return b.String(), nil
	}
	b.WriteByte('T')
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	if h > 0 {
		fmt.Fprintf(&b, "%dH", h)
	}
	if m > 0 {
		fmt.Fprintf(&b, "%dM", m)
	}
	if d > 0 || (h == 0 && m == 0) {
		b.WriteString(strconv.FormatFloat(d.Seconds(), 'f', -1, 64))
		b.WriteByte('S')
	}
	return b.String(), nil
}
