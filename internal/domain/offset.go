package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// maxOffsetHours bounds fixed offsets the same way the ISO-8601 offset range does.
const maxOffsetHours = 18

var offsetPattern = regexp.MustCompile(`^[+-]\d{2}:\d{2}$`)

// ErrInvalidOffset is returned for offsets outside ±HH:mm.
var ErrInvalidOffset = errors.New("offset must match ±HH:mm")

// NamedOffset is a user-labelled fixed UTC delta. OwnerID is set at creation and never changes.
type NamedOffset struct {
	ID        string
	Label     string
	City      string
	Offset    string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Location returns a fixed zone for the record's offset.
func (n *NamedOffset) Location() (*time.Location, error) {
	secs, err := ParseOffset(n.Offset)
	if err != nil {
		return nil, err
	}
	return time.FixedZone(n.Offset, secs), nil
}

// ValidOffset reports whether s is a well-formed offset literal.
func ValidOffset(s string) bool {
	_, err := ParseOffset(s)
	return err == nil
}

// ParseOffset converts "±HH:mm" into signed seconds east of UTC.
func ParseOffset(s string) (int, error) {
	if !offsetPattern.MatchString(s) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOffset, s)
	}
	hours, _ := strconv.Atoi(s[1:3])
	minutes, _ := strconv.Atoi(s[4:6])
	if hours > maxOffsetHours || minutes > 59 || (hours == maxOffsetHours && minutes > 0) {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidOffset, s)
	}
	secs := hours*3600 + minutes*60
	if s[0] == '-' {
		secs = -secs
	}
	return secs, nil
}
