package models

import "time"

// Reservation lifecycle statuses. Operator tickets skip PENDING and
// start CONFIRMED; VERIFIED and CANCELLED are terminal.
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusVerified  = "VERIFIED"
	StatusCancelled = "CANCELLED"
)

type ReservationKind string

const (
	KindTicket  ReservationKind = "ticket"
	KindBooking ReservationKind = "booking"
)

// Reservation is the common view over tickets and bookings used by the
// verification flow. Verification codes are drawn from one namespace,
// so a code resolves to at most one reservation.
type Reservation struct {
	Kind             ReservationKind `json:"source"`
	ID               int64           `json:"id"`
	ReferenceNo      int64           `json:"reference_no"`
	BranchID         int64           `json:"branch_id"`
	RouteID          int64           `json:"route_id"`
	TravelDate       time.Time       `json:"travel_date"`
	Departure        string          `json:"departure"`
	NetAmount        float64         `json:"net_amount"`
	Status           string          `json:"status"`
	IsCancelled      bool            `json:"is_cancelled"`
	CheckedInAt      *time.Time      `json:"checked_in_at"`
	VerificationCode string          `json:"-"`
}

// ReservationItem is the line-item view shown to the checker.
type ReservationItem struct {
	ItemName  string `json:"item_name"`
	Quantity  int    `json:"quantity"`
	IsVehicle bool   `json:"is_vehicle"`
	VehicleNo string `json:"vehicle_no,omitempty"`
}
