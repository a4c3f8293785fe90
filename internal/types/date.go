package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Date is an ISO-8601 date or instant accepted in request bodies.
// Both "2006-01-02" and RFC 3339 timestamps are accepted; date-only values are
// interpreted as midnight UTC.
type Date struct {
	time.Time
}

// NewDate wraps t.
func NewDate(t time.Time) Date {
	return Date{Time: t.UTC()}
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.UTC().Format(time.RFC3339))
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(data []byte) error {
	str := string(data)
	if str == "null" || str == `""` {
		return nil
	}
	// Trim quotes
	if len(str) > 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}
	t, err := ParseDate(str)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ParseDate parses a date-only or RFC 3339 value.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC 3339", s)
}

// Ptr returns a pointer to the wrapped time, or nil for a nil or zero Date.
func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

// PatchDate is a date field of a partial update. Set reports whether the
// field was present at all, so an explicit null (Set with a nil Date) clears
// the stored value while an absent field keeps it.
type PatchDate struct {
	Set  bool
	Date *Date
}

// SetDate returns a PatchDate that writes t.
func SetDate(t time.Time) PatchDate {
	d := NewDate(t)
	return PatchDate{Set: true, Date: &d}
}

// UnmarshalJSON implements json.Unmarshaler. It only runs when the key is
// present, null included.
func (p *PatchDate) UnmarshalJSON(data []byte) error {
	p.Set = true
	p.Date = nil
	if string(data) == "null" {
		return nil
	}
	var d Date
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	p.Date = &d
	return nil
}

// Ptr returns the time to store, nil when the patch clears the field.
func (p PatchDate) Ptr() *time.Time {
	return p.Date.Ptr()
}
