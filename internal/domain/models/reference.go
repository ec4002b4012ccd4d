package models

import "time"

// Branch is a ticketing/jetty location. It owns the branch-scoped
// ticket and booking number counters.
type Branch struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Address       string `json:"address"`
	LastTicketNo  int64  `json:"last_ticket_no"`
	LastBookingNo int64  `json:"last_booking_no"`
	IsActive      bool   `json:"is_active"`
}

// Route connects two branches (unordered pair).
type Route struct {
	ID          int64 `json:"id"`
	BranchIDOne int64 `json:"branch_id_one"`
	BranchIDTwo int64 `json:"branch_id_two"`
	IsActive    bool  `json:"is_active"`
}

type Item struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	ShortName        string `json:"short_name"`
	IsVehicle        bool   `json:"is_vehicle"`
	OnlineVisibility bool   `json:"online_visibility"`
	IsActive         bool   `json:"is_active"`
}

// ItemRate is one priced row in the (item, route) rate history. The row
// with the greatest ApplicableFrom <= as-of date wins.
type ItemRate struct {
	ID             int64     `json:"id"`
	ItemID         int64     `json:"item_id"`
	RouteID        int64     `json:"route_id"`
	ApplicableFrom time.Time `json:"applicable_from_date"`
	Rate           float64   `json:"rate"`
	Levy           float64   `json:"levy"`
	IsActive       bool      `json:"is_active"`
}

// Rate is the resolved price for an item on a route as of a date.
type Rate struct {
	Rate float64 `json:"rate"`
	Levy float64 `json:"levy"`
}

type PaymentMode struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

// FerrySchedule is a configured departure for a branch. Capacity 0
// means unlimited.
type FerrySchedule struct {
	ID        int64  `json:"id"`
	BranchID  int64  `json:"branch_id"`
	Departure string `json:"departure"` // HH:MM
	Capacity  int    `json:"capacity"`
}
