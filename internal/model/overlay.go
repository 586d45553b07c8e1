package model

import (
	"fmt"
	"time"
)

// CaptureCategory is the kind of record the photo is taken for.
type CaptureCategory string

const (
	CategoryCheckIn  CaptureCategory = "check-in"
	CategoryCheckOut CaptureCategory = "check-out"
	CategorySick     CaptureCategory = "sick"
	CategoryLeave    CaptureCategory = "leave"
)

// ParseCaptureCategory validates a category name.
func ParseCaptureCategory(s string) (CaptureCategory, error) {
	switch c := CaptureCategory(s); c {
	case CategoryCheckIn, CategoryCheckOut, CategorySick, CategoryLeave:
		return c, nil
	case "":
		return CategoryCheckIn, nil
	}
	return "", fmt.Errorf("unknown capture category %q", s)
}

// MultiDay reports whether the category covers a date range (document photos).
func (c CaptureCategory) MultiDay() bool {
	return c == CategorySick || c == CategoryLeave
}

// RequiresFace reports whether a visible face is expected in the photo.
func (c CaptureCategory) RequiresFace() bool {
	return c == CategoryCheckIn || c == CategoryCheckOut
}

// OverlayContext is the live caller state shown on screen. Its clock keeps
// ticking; it must be locked before it is burned into a photo.
type OverlayContext struct {
	Location string
	Date     string
	Time     string
	EndDate  string
	Category CaptureCategory
}

// LockedOverlay is a frozen snapshot of OverlayContext taken at capture time.
type LockedOverlay struct {
	Location string          `json:"location"`
	Date     string          `json:"date"`
	Time     string          `json:"time"`
	EndDate  string          `json:"endDate,omitempty"`
	Category CaptureCategory `json:"category"`
	LockedAt time.Time       `json:"lockedAt"`
}

// Lock freezes the context. Empty date and time fields are filled from now.
func (o OverlayContext) Lock(now time.Time) LockedOverlay {
	locked := LockedOverlay{
		Location: o.Location,
		Date:     o.Date,
		Time:     o.Time,
		EndDate:  o.EndDate,
		Category: o.Category,
		LockedAt: now,
	}
	if locked.Date == "" {
		locked.Date = FormatDisplayDate(now)
	}
	if locked.Time == "" {
		locked.Time = FormatClock(now)
	}
	if locked.Category == "" {
		locked.Category = CategoryCheckIn
	}
	return locked
}

// Caption is the line rendered beneath the location block.
func (l LockedOverlay) Caption() string {
	if l.Category.MultiDay() {
		end := l.EndDate
		if end == "" {
			end = l.Date
		}
		return l.Date + " – " + end
	}
	return l.Date + ", " + l.Time
}

// FormatDisplayDate renders a date as "3 Jan 2026".
func FormatDisplayDate(t time.Time) string {
	return t.Format("2 Jan 2006")
}

// FormatClock renders a 24h clock with seconds.
func FormatClock(t time.Time) string {
	return t.Format("15:04:05")
}
