package models

import "time"

// Ticket is an operator-issued sale. TicketNo is unique within the
// branch and assigned under the branch row lock.
type Ticket struct {
	ID               int64      `json:"id"`
	BranchID         int64      `json:"branch_id"`
	TicketNo         int64      `json:"ticket_no"`
	TicketDate       time.Time  `json:"ticket_date"`
	Departure        string     `json:"departure"` // HH:MM, optional
	RouteID          int64      `json:"route_id"`
	Amount           float64    `json:"amount"`
	Discount         float64    `json:"discount"`
	NetAmount        float64    `json:"net_amount"`
	PaymentModeID    int64      `json:"payment_mode_id"`
	IsCancelled      bool       `json:"is_cancelled"`
	Status           string     `json:"status"`
	VerificationCode string     `json:"verification_code"`
	CheckedInAt      *time.Time `json:"checked_in_at"`
	CreatedAt        time.Time  `json:"created_at"`
}

// TicketAmounts is the recomputed money triple written back during an
// amendment.
type TicketAmounts struct {
	Amount    float64 `json:"amount"`
	Discount  float64 `json:"discount"`
	NetAmount float64 `json:"net_amount"`
}

// TicketItem captures rate and levy at sale time; they are never
// re-derived from the rate table afterwards.
type TicketItem struct {
	ID          int64   `json:"id"`
	TicketID    int64   `json:"ticket_id"`
	ItemID      int64   `json:"item_id"`
	Rate        float64 `json:"rate"`
	Levy        float64 `json:"levy"`
	Quantity    int     `json:"quantity"`
	VehicleNo   string  `json:"vehicle_no,omitempty"`
	IsCancelled bool    `json:"is_cancelled"`
}
