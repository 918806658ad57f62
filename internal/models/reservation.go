package models

import (
	"fmt"
	"time"

	"github.com/noah-isme/club-api/pkg/calendar"
)

// ReservationOwnerKind identifies who created a reservation.
type ReservationOwnerKind string

const (
	ReservationOwnerCourse ReservationOwnerKind = "COURSE"
	ReservationOwnerMember ReservationOwnerKind = "MEMBER"
)

// ReservationStatus tracks reservation lifecycle.
type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "ACTIVE"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
)

// Reservation is a concrete booking of a resource for one window.
type Reservation struct {
	ID             string               `db:"id" json:"id"`
	ResourceID     string               `db:"resource_id" json:"resource_id"`
	OwnerKind      ReservationOwnerKind `db:"owner_kind" json:"owner_kind"`
	OwnerID        string               `db:"owner_id" json:"owner_id"`
	Capacity       int                  `db:"capacity" json:"capacity"`
	AllowOutsiders bool                 `db:"allow_outsiders" json:"allow_outsiders"`
	StartAt        time.Time            `db:"start_at" json:"start_at"`
	EndAt          time.Time            `db:"end_at" json:"end_at"`
	Status         ReservationStatus    `db:"status" json:"status"`
	CreatedAt      time.Time            `db:"created_at" json:"created_at"`
}

// LedgerEntry is the authoritative occupancy record of a resource.
type LedgerEntry struct {
	ID            string    `db:"id" json:"id"`
	ResourceID    string    `db:"resource_id" json:"resource_id"`
	ReservationID *string   `db:"reservation_id" json:"reservation_id,omitempty"`
	Day           time.Time `db:"day" json:"day"`
	StartAt       time.Time `db:"start_at" json:"start_at"`
	EndAt         time.Time `db:"end_at" json:"end_at"`
	InUse         bool      `db:"in_use" json:"in_use"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Window returns the occupied interval.
func (e LedgerEntry) Window() calendar.Window {
	return calendar.Window{Start: e.StartAt, End: e.EndAt}
}

// BookingConflict describes one existing booking colliding with a candidate window.
type BookingConflict struct {
	Resource       string    `json:"resource"`
	Day            string    `json:"day"`
	RequestedStart time.Time `json:"requested_start"`
	RequestedEnd   time.Time `json:"requested_end"`
	ConflictStart  time.Time `json:"conflict_start"`
	ConflictEnd    time.Time `json:"conflict_end"`
	LedgerEntryID  string    `json:"ledger_entry_id,omitempty"`
	ReservationID  string    `json:"reservation_id,omitempty"`
}

// ScheduleConflictError is returned when a candidate window collides with
// existing bookings of the same resource.
type ScheduleConflictError struct {
	Resource  string            `json:"resource"`
	Day       string            `json:"day"`
	Window    calendar.Window   `json:"window"`
	Conflicts []BookingConflict `json:"conflicts"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if len(e.Conflicts) == 0 {
		return fmt.Sprintf("resource %q is already booked on %s", e.Resource, e.Window)
	}
	first := e.Conflicts[0]
	return fmt.Sprintf("resource %q is already booked on %s from %s to %s (requested %s-%s)",
		e.Resource,
		e.Day,
		first.ConflictStart.Format(calendar.ClockLayout),
		first.ConflictEnd.Format(calendar.ClockLayout),
		e.Window.Start.Format(calendar.ClockLayout),
		e.Window.End.Format(calendar.ClockLayout),
	)
}
