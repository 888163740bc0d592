// Package system provides the wall clock used to stamp ingested profiles.
package system

import "time"

// StampLayout sorts lexically in chronological order.
const StampLayout = "20060102T150405Z"

// Clock reads the real time in UTC.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}

// Stamp formats t with StampLayout.
func Stamp(t time.Time) string {
	return t.UTC().Format(StampLayout)
}
