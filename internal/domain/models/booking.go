package models

import "time"

// Booking is a self-service portal sale. BookingNo is unique within the
// branch and assigned under the branch row lock.
type Booking struct {
	ID               int64      `json:"id"`
	BranchID         int64      `json:"branch_id"`
	BookingNo        int64      `json:"booking_no"`
	TravelDate       time.Time  `json:"travel_date"`
	Departure        string     `json:"departure"` // HH:MM
	RouteID          int64      `json:"route_id"`
	Amount           float64    `json:"amount"`
	Discount         float64    `json:"discount"`
	NetAmount        float64    `json:"net_amount"`
	PaymentModeID    int64      `json:"payment_mode_id"`
	PortalUserID     int64      `json:"portal_user_id"`
	IsCancelled      bool       `json:"is_cancelled"`
	Status           string     `json:"status"`
	VerificationCode string     `json:"verification_code"`
	CheckedInAt      *time.Time `json:"checked_in_at"`
	CreatedAt        time.Time  `json:"created_at"`
}

type BookingItem struct {
	ID          int64   `json:"id"`
	BookingID   int64   `json:"booking_id"`
	ItemID      int64   `json:"item_id"`
	Rate        float64 `json:"rate"`
	Levy        float64 `json:"levy"`
	Quantity    int     `json:"quantity"`
	VehicleNo   string  `json:"vehicle_no,omitempty"`
	IsCancelled bool    `json:"is_cancelled"`
}
