package services

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	intconfig "ferryops/internal/config"
	"ferryops/internal/domain"
	"ferryops/internal/domain/models"
	"ferryops/internal/repositories"
	"ferryops/internal/utils"
)

// BookingService drives the self-service portal path. Unlike the
// operator terminal, prices are always resolved server-side; whatever
// a client submits for rate or levy is ignored.
type BookingService struct {
	BranchRepo   repositories.BranchRepo
	RefRepo      repositories.ReferenceRepo
	RateRepo     repositories.RateRepo
	ScheduleRepo repositories.ScheduleRepo
	BookingRepo  repositories.BookingRepo
	DB           *sql.DB
	RequestID    string

	// Today overrides the as-of date in tests.
	Today func() time.Time
}

func (s BookingService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s BookingService) branches() repositories.BranchRepo {
	if s.BranchRepo.DB != nil {
		return s.BranchRepo
	}
	return repositories.BranchRepo{DB: s.db()}
}

func (s BookingService) refs() repositories.ReferenceRepo {
	if s.RefRepo.DB != nil {
		return s.RefRepo
	}
	return repositories.ReferenceRepo{DB: s.db()}
}

func (s BookingService) rates() repositories.RateRepo {
	if s.RateRepo.DB != nil {
		return s.RateRepo
	}
	return repositories.RateRepo{DB: s.db()}
}

func (s BookingService) schedules() repositories.ScheduleRepo {
	if s.ScheduleRepo.DB != nil {
		return s.ScheduleRepo
	}
	return repositories.ScheduleRepo{DB: s.db()}
}

func (s BookingService) bookings() repositories.BookingRepo {
	if s.BookingRepo.DB != nil {
		return s.BookingRepo
	}
	return repositories.BookingRepo{DB: s.db()}
}

func (s BookingService) today() time.Time {
	if s.Today != nil {
		return s.Today()
	}
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
}

type BookingItemInput struct {
	ItemID    int64  `json:"item_id"`
	Quantity  int    `json:"quantity"`
	VehicleNo string `json:"vehicle_no"`
}

type BookingCreateInput struct {
	FromBranchID int64              `json:"from_branch_id"`
	ToBranchID   int64              `json:"to_branch_id"`
	TravelDate   string             `json:"travel_date"`
	Departure    string             `json:"departure"`
	Items        []BookingItemInput `json:"items"`
}

type BookingDetail struct {
	models.Booking
	BranchName string              `json:"branch_name"`
	RouteName  string              `json:"route_name"`
	Items      []BookingItemDetail `json:"items,omitempty"`
}

type BookingItemDetail struct {
	models.BookingItem
	ItemName string  `json:"item_name"`
	Amount   float64 `json:"amount"`
}

// checkCapacity is the admission check for one departure slot. Missing
// schedule or capacity 0 means unlimited. The count and the later
// insert are deliberately not serialized; two near-simultaneous
// bookings can both pass and slightly exceed the ceiling.
func (s BookingService) checkCapacity(branchID int64, travelDate time.Time, clock string) error {
	schedule, err := s.schedules().GetByDeparture(branchID, clock)
	if domain.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if schedule.Capacity == 0 {
		return nil
	}

	count, err := s.bookings().CountForDeparture(branchID, travelDate, clock)
	if err != nil {
		return err
	}
	if count >= schedule.Capacity {
		return domain.ConflictError{
			Resource: "departure",
			Msg: fmt.Sprintf("the %s departure on %s is fully booked (capacity %d)",
				clock, utils.FormatDate(travelDate), schedule.Capacity),
		}
	}
	return nil
}

// CreateBooking runs the full portal flow: branch/route validation,
// date and schedule checks, capacity guard, server-side rate
// resolution, then one transaction for the branch lock, booking number,
// header and items.
func (s BookingService) CreateBooking(portalUserID int64, in BookingCreateInput) (BookingDetail, error) {
	if len(in.Items) == 0 {
		return BookingDetail{}, domain.ValidationError{Field: "items", Msg: "at least one item is required"}
	}

	fromBranch, err := s.branches().GetByID(in.FromBranchID)
	if err != nil {
		return BookingDetail{}, err
	}
	if !fromBranch.IsActive {
		return BookingDetail{}, domain.ValidationError{Field: "from_branch_id", Msg: fmt.Sprintf("branch %q is not active", fromBranch.Name)}
	}
	toBranch, err := s.branches().GetByID(in.ToBranchID)
	if err != nil {
		return BookingDetail{}, err
	}
	if !toBranch.IsActive {
		return BookingDetail{}, domain.ValidationError{Field: "to_branch_id", Msg: fmt.Sprintf("branch %q is not active", toBranch.Name)}
	}

	route, err := s.refs().FindRouteBetween(in.FromBranchID, in.ToBranchID)
	if err != nil {
		return BookingDetail{}, err
	}

	travelDate, err := utils.ParseDate(in.TravelDate)
	if err != nil {
		return BookingDetail{}, domain.ValidationError{Field: "travel_date", Msg: "expected YYYY-MM-DD", Err: err}
	}
	if travelDate.Before(s.today()) {
		return BookingDetail{}, domain.ValidationError{Field: "travel_date", Msg: "cannot be in the past"}
	}

	clock, err := utils.NormalizeClock(in.Departure)
	if err != nil {
		return BookingDetail{}, domain.ValidationError{Field: "departure", Msg: err.Error()}
	}
	if _, err := s.schedules().GetByDeparture(in.FromBranchID, clock); err != nil {
		if domain.IsNotFound(err) {
			return BookingDetail{}, domain.ValidationError{
				Field: "departure",
				Msg:   fmt.Sprintf("%s is not a scheduled departure for this branch", clock),
			}
		}
		return BookingDetail{}, err
	}

	if err := s.checkCapacity(in.FromBranchID, travelDate, clock); err != nil {
		return BookingDetail{}, err
	}

	// Server-resolved rates only: portal clients never set prices.
	asOf := s.today()
	items := make([]models.BookingItem, 0, len(in.Items))
	lines := make([]domain.LineInput, 0, len(in.Items))
	for _, li := range in.Items {
		item, err := s.refs().GetItem(li.ItemID)
		if err != nil {
			return BookingDetail{}, err
		}
		if !item.IsActive {
			return BookingDetail{}, domain.ValidationError{Field: "items", Msg: fmt.Sprintf("item %q is not active", item.Name)}
		}
		if !item.OnlineVisibility {
			return BookingDetail{}, domain.ValidationError{Field: "items", Msg: fmt.Sprintf("item %q is not available for online booking", item.Name)}
		}
		if li.Quantity <= 0 {
			return BookingDetail{}, domain.ValidationError{Field: "items", Msg: "quantity must be positive"}
		}
		if item.IsVehicle && li.VehicleNo == "" {
			return BookingDetail{}, domain.ValidationError{Field: "items", Msg: fmt.Sprintf("vehicle number is required for item %q", item.Name)}
		}

		rate, err := s.rates().Resolve(li.ItemID, route.ID, asOf)
		if err != nil {
			return BookingDetail{}, err
		}
		items = append(items, models.BookingItem{
			ItemID:    li.ItemID,
			Rate:      rate.Rate,
			Levy:      rate.Levy,
			Quantity:  li.Quantity,
			VehicleNo: li.VehicleNo,
		})
		lines = append(lines, domain.LineInput{Rate: rate.Rate, Levy: rate.Levy, Quantity: li.Quantity})
	}

	// Portal bookings never carry a discount.
	amounts := domain.ComputeAmounts(lines, 0)

	paymentMode, err := s.refs().OnlinePaymentMode()
	if err != nil {
		return BookingDetail{}, err
	}

	tx, err := s.db().Begin()
	if err != nil {
		return BookingDetail{}, domain.InternalError{Err: err}
	}
	defer tx.Rollback()

	bookingNo, err := s.branches().NextBookingNo(tx, in.FromBranchID)
	if err != nil {
		return BookingDetail{}, err
	}

	booking := models.Booking{
		BranchID:         in.FromBranchID,
		BookingNo:        bookingNo,
		TravelDate:       travelDate,
		Departure:        clock,
		RouteID:          route.ID,
		Amount:           amounts.Amount,
		Discount:         0,
		NetAmount:        amounts.NetAmount,
		PaymentModeID:    paymentMode.ID,
		PortalUserID:     portalUserID,
		Status:           models.StatusPending,
		VerificationCode: uuid.NewString(),
	}
	bookingID, err := s.bookings().InsertTx(tx, booking, items)
	if err != nil {
		return BookingDetail{}, err
	}
	if err := tx.Commit(); err != nil {
		return BookingDetail{}, domain.InternalError{Err: err}
	}

	utils.LogEvent(s.RequestID, "booking", "create", "booking_id="+strconv.FormatInt(bookingID, 10))
	return s.getDetail(bookingID, portalUserID)
}

// ConfirmPayment is the boundary with the payment collaborator: flips
// PENDING to CONFIRMED once payment capture succeeded.
func (s BookingService) ConfirmPayment(bookingID int64) (BookingDetail, error) {
	booking, err := s.bookings().GetByID(bookingID)
	if err != nil {
		return BookingDetail{}, err
	}

	flipped, err := s.bookings().ConfirmPayment(bookingID)
	if err != nil {
		return BookingDetail{}, err
	}
	if !flipped {
		return BookingDetail{}, domain.ConflictError{
			Resource: "booking",
			Msg:      fmt.Sprintf("cannot confirm payment from status %q", booking.Status),
		}
	}

	utils.LogEvent(s.RequestID, "booking", "confirm_payment", "booking_id="+strconv.FormatInt(bookingID, 10))
	return s.getDetail(bookingID, booking.PortalUserID)
}

// CancelBooking cancels the portal user's own PENDING/CONFIRMED
// booking. Ownership failures read as not-found, never as forbidden.
func (s BookingService) CancelBooking(bookingID, portalUserID int64) (BookingDetail, error) {
	booking, err := s.bookings().GetByID(bookingID)
	if err != nil {
		return BookingDetail{}, err
	}
	if booking.PortalUserID != portalUserID {
		return BookingDetail{}, domain.NotFoundError{Resource: "booking"}
	}

	tx, err := s.db().Begin()
	if err != nil {
		return BookingDetail{}, domain.InternalError{Err: err}
	}
	defer tx.Rollback()

	if err := s.bookings().Cancel(tx, bookingID); err != nil {
		return BookingDetail{}, err
	}
	if err := tx.Commit(); err != nil {
		return BookingDetail{}, domain.InternalError{Err: err}
	}

	utils.LogEvent(s.RequestID, "booking", "cancel", "booking_id="+strconv.FormatInt(bookingID, 10))
	return s.getDetail(bookingID, portalUserID)
}

// GetBooking returns one booking with items, scoped to its owner.
func (s BookingService) GetBooking(bookingID, portalUserID int64) (BookingDetail, error) {
	return s.getDetail(bookingID, portalUserID)
}

// ListBookings pages a portal user's bookings, newest first.
func (s BookingService) ListBookings(portalUserID int64, page, pageSize int) ([]BookingDetail, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 10
	}
	total, err := s.bookings().CountByPortalUser(portalUserID)
	if err != nil {
		return nil, 0, err
	}
	list, err := s.bookings().ListByPortalUser(portalUserID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	out := make([]BookingDetail, 0, len(list))
	for _, b := range list {
		out = append(out, s.enrich(b, nil))
	}
	return out, total, nil
}

func (s BookingService) getDetail(bookingID, portalUserID int64) (BookingDetail, error) {
	booking, err := s.bookings().GetByID(bookingID)
	if err != nil {
		return BookingDetail{}, err
	}
	if portalUserID > 0 && booking.PortalUserID != portalUserID {
		return BookingDetail{}, domain.NotFoundError{Resource: "booking"}
	}
	items, err := s.bookings().ItemsByBookingID(bookingID)
	if err != nil {
		return BookingDetail{}, err
	}
	return s.enrich(booking, items), nil
}

func (s BookingService) enrich(b models.Booking, items []models.BookingItem) BookingDetail {
	detail := BookingDetail{
		Booking:    b,
		BranchName: s.refs().BranchName(b.BranchID),
		RouteName:  s.refs().RouteDisplayName(b.RouteID),
	}
	for _, it := range items {
		detail.Items = append(detail.Items, BookingItemDetail{
			BookingItem: it,
			ItemName:    s.refs().ItemName(it.ItemID),
			Amount:      domain.LineAmount(it.Quantity, it.Rate, it.Levy),
		})
	}
	return detail
}
