package models

import (
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format used on the wire.
const DateLayout = "2006-01-02"

// TimeLayout is the "HH:MM" time-of-day format used on the wire.
const TimeLayout = "15:04"

// BookingStatus is the lifecycle status of a stored booking.
type BookingStatus string

const (
	StatusPending   BookingStatus = "Pending"
	StatusConfirmed BookingStatus = "Confirmed"
	StatusCancelled BookingStatus = "Cancelled"
	StatusCompleted BookingStatus = "Completed"
	StatusNoShow    BookingStatus = "NoShow"
)

// Valid reports whether s is one of the known statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

// DraftBooking is the reservation the customer is composing.
type DraftBooking struct {
	CustomerName    string `json:"customerName"`
	CustomerEmail   string `json:"customerEmail"`
	CustomerPhone   string `json:"customerPhone"`
	Date            string `json:"date"` // YYYY-MM-DD
	Time            string `json:"time"` // HH:MM
	NumberOfGuests  int    `json:"numberOfGuests"`
	SpecialRequests string `json:"specialRequests,omitempty"`
}

// Normalized returns a copy with surrounding whitespace removed from text fields.
func (d DraftBooking) Normalized() DraftBooking {
	d.CustomerName = strings.TrimSpace(d.CustomerName)
	d.CustomerEmail = strings.TrimSpace(d.CustomerEmail)
	d.CustomerPhone = strings.TrimSpace(d.CustomerPhone)
	d.SpecialRequests = strings.TrimSpace(d.SpecialRequests)
	return d
}

// ParsedDate returns the draft date in loc, or false when it is empty or malformed.
func (d DraftBooking) ParsedDate(loc *time.Location) (time.Time, bool) {
	if d.Date == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(DateLayout, d.Date, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// TimeSlot is a fixed reservation window of the day with its availability.
// SpotsLeft is nil when the backend did not report a capacity.
type TimeSlot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
	SpotsLeft *int   `json:"spotsLeft,omitempty"`
}

// Spots returns a pointer to n, for building TimeSlot values.
func Spots(n int) *int {
	return &n
}

// BookingRecord is a booking as stored by the backend.
type BookingRecord struct {
	ID              int64         `json:"id"`
	CustomerName    string        `json:"customerName"`
	CustomerEmail   string        `json:"customerEmail"`
	CustomerPhone   string        `json:"customerPhone"`
	Date            string        `json:"date"`
	Time            string        `json:"time"`
	NumberOfGuests  int           `json:"numberOfGuests"`
	Status          BookingStatus `json:"status"`
	SpecialRequests string        `json:"specialRequests,omitempty"`
	CreatedAt       string        `json:"createdAt,omitempty"` // as sent by the backend, not always RFC 3339
	UpdatedAt       string        `json:"updatedAt,omitempty"`
}

// UpdateBookingStatusRequest is the body of PATCH /bookings/{id}/status.
type UpdateBookingStatusRequest struct {
	Status BookingStatus `json:"status"`
}
