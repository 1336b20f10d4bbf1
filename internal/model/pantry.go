package model

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the calendar-date form sent by HTML date inputs.
const DateLayout = "2006-01-02"

// ErrInvalidDate is returned by ParseDate for unrecognised input.
var ErrInvalidDate = errors.New("invalid date format")

// Category groups pantry items. Names are unique under case-insensitive comparison.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FoldName returns the key category names are matched and kept unique by.
// Every store and the import resolver compare names through it.
func FoldName(name string) string {
	return strings.ToLower(name)
}

// PantryItem represents a stored pantry item with its category.
type PantryItem struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Quantity       int        `json:"quantity"`
	CategoryID     string     `json:"categoryId"`
	Category       *Category  `json:"category,omitempty"`
	ExpirationDate *time.Time `json:"expirationDate"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// ParseDate accepts "YYYY-MM-DD" or an RFC 3339 timestamp.
// An empty string means "no date" and yields nil.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	if t, err := time.Parse(DateLayout, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, ErrInvalidDate
	}
	t = t.UTC()
	return &t, nil
}
