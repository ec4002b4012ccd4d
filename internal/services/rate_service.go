package services

import (
	"database/sql"
	"time"

	intconfig "ferryops/internal/config"
	"ferryops/internal/domain"
	"ferryops/internal/domain/models"
	"ferryops/internal/repositories"
	"ferryops/internal/utils"
)

// RateService exposes the rate resolver plus the read-only form data
// the booking portal and the multi-ticket screen need.
type RateService struct {
	RefRepo      repositories.ReferenceRepo
	RateRepo     repositories.RateRepo
	ScheduleRepo repositories.ScheduleRepo
	DB           *sql.DB
	RequestID    string

	Clock func() string
	Today func() time.Time
}

func (s RateService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s RateService) refs() repositories.ReferenceRepo {
	if s.RefRepo.DB != nil {
		return s.RefRepo
	}
	return repositories.ReferenceRepo{DB: s.db()}
}

func (s RateService) rates() repositories.RateRepo {
	if s.RateRepo.DB != nil {
		return s.RateRepo
	}
	return repositories.RateRepo{DB: s.db()}
}

func (s RateService) schedules() repositories.ScheduleRepo {
	if s.ScheduleRepo.DB != nil {
		return s.ScheduleRepo
	}
	return repositories.ScheduleRepo{DB: s.db()}
}

func (s RateService) clock() string {
	if s.Clock != nil {
		return s.Clock()
	}
	return utils.ClockNow()
}

func (s RateService) today() time.Time {
	if s.Today != nil {
		return s.Today()
	}
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
}

// CurrentRate resolves today's rate for an item on a route.
func (s RateService) CurrentRate(itemID, routeID int64) (models.Rate, error) {
	return s.rates().Resolve(itemID, routeID, s.today())
}

// ToBranches lists destinations reachable from a branch.
func (s RateService) ToBranches(fromBranchID int64) ([]models.Branch, error) {
	return s.refs().ListToBranches(fromBranchID)
}

// PricedItem is an item with its currently applicable rate.
type PricedItem struct {
	models.Item
	Rate float64 `json:"rate"`
	Levy float64 `json:"levy"`
}

// OnlineItems returns online-visible items that currently have a rate
// on the route between the two branches. Items with no rate yet are
// simply omitted.
func (s RateService) OnlineItems(fromBranchID, toBranchID int64) ([]PricedItem, error) {
	route, err := s.refs().FindRouteBetween(fromBranchID, toBranchID)
	if err != nil {
		return nil, err
	}
	return s.pricedItems(route.ID, true)
}

func (s RateService) pricedItems(routeID int64, onlineOnly bool) ([]PricedItem, error) {
	items, err := s.refs().ListActiveItems(onlineOnly)
	if err != nil {
		return nil, err
	}
	asOf := s.today()
	out := make([]PricedItem, 0, len(items))
	for _, item := range items {
		rate, err := s.rates().Resolve(item.ID, routeID, asOf)
		if domain.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, PricedItem{Item: item, Rate: rate.Rate, Levy: rate.Levy})
	}
	return out, nil
}

// DepartureOptions lists a branch's scheduled departures.
func (s RateService) DepartureOptions(branchID int64) ([]models.FerrySchedule, error) {
	return s.schedules().ListByBranch(branchID)
}

// MultiTicketInit is everything the multi-ticket screen needs for the
// operator's assigned route.
type MultiTicketInit struct {
	RouteID        int64                `json:"route_id"`
	RouteName      string               `json:"route_name"`
	BranchID       int64                `json:"branch_id"`
	BranchName     string               `json:"branch_name"`
	Items          []PricedItem         `json:"items"`
	PaymentModes   []models.PaymentMode `json:"payment_modes"`
	FirstFerryTime string               `json:"first_ferry_time,omitempty"`
	LastFerryTime  string               `json:"last_ferry_time,omitempty"`
	IsOffHours     bool                 `json:"is_off_hours"`
}

// MultiTicketInitData resolves the operator's branch from their
// assigned route and reports whether the branch is currently
// off-hours. No schedules at all means always off-hours.
func (s RateService) MultiTicketInitData(routeID int64) (MultiTicketInit, error) {
	if routeID <= 0 {
		return MultiTicketInit{}, domain.ValidationError{Field: "route_id", Msg: "caller has no assigned route"}
	}
	route, err := s.refs().GetRoute(routeID)
	if err != nil {
		return MultiTicketInit{}, err
	}
	branchID := route.BranchIDOne

	first, last, hasSchedules, err := s.schedules().Window(branchID)
	if err != nil {
		return MultiTicketInit{}, err
	}
	offHours := true
	if hasSchedules {
		now := s.clock()
		offHours = now < first || now > last
	}

	items, err := s.pricedItems(routeID, false)
	if err != nil {
		return MultiTicketInit{}, err
	}
	modes, err := s.refs().ListPaymentModes()
	if err != nil {
		return MultiTicketInit{}, err
	}

	return MultiTicketInit{
		RouteID:        routeID,
		RouteName:      s.refs().RouteDisplayName(routeID),
		BranchID:       branchID,
		BranchName:     s.refs().BranchName(branchID),
		Items:          items,
		PaymentModes:   modes,
		FirstFerryTime: first,
		LastFerryTime:  last,
		IsOffHours:     offHours,
	}, nil
}
