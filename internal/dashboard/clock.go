package dashboard

import (
	"math"
	"time"

	"github.com/yourusername/navwatch/internal/models"
)

// Clock converts stored UTC timestamps into the display timezone and
// measures their age. It is the only place the dashboard touches zones.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock creates a clock for loc. A nil now uses time.Now.
func NewClock(loc *time.Location, now func() time.Time) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Clock{loc: loc, now: now}
}

// Location returns the display timezone.
func (c *Clock) Location() *time.Location {
	return c.loc
}

// Now returns the current time in the display timezone.
func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// ToLocal parses a stored UTC timestamp and converts it to the display timezone.
func (c *Clock) ToLocal(stored string) (time.Time, error) {
	t, err := models.ParseTimestamp(stored)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(c.loc), nil
}

// AgeMinutes returns whole minutes elapsed since stored. Future timestamps
// count as zero.
func (c *Clock) AgeMinutes(stored string) (int, error) {
	t, err := c.ToLocal(stored)
	if err != nil {
		return 0, err
	}
	age := math.Floor(c.Now().Sub(t).Minutes())
	if age < 0 {
		return 0, nil
	}
	return int(age), nil
}
