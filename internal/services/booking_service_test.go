package services

import (
	"testing"
	"time"

	"ferryops/internal/domain"
	"ferryops/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func fixedToday() time.Time {
	return time.Date(2025, 7, 10, 0, 0, 0, 0, time.Local)
}

func expectBranchByID(mock sqlmock.Sqlmock, id int64, name string) {
	mock.ExpectQuery("last_ticket_no, last_booking_no").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "address", "last_ticket_no", "last_booking_no", "is_active",
		}).AddRow(id, name, "", 0, 0, 1))
}

func expectRouteBetween(mock sqlmock.Sqlmock, routeID, from, to int64) {
	mock.ExpectQuery("FROM routes\\s+WHERE is_active = 1").
		WithArgs(from, to, to, from).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "branch_id_one", "branch_id_two", "is_active",
		}).AddRow(routeID, from, to, 1))
}

func expectSchedule(mock sqlmock.Sqlmock, branchID int64, clock string, capacity int) {
	mock.ExpectQuery("FROM ferry_schedules\\s+WHERE branch_id = \\? AND departure = \\?").
		WithArgs(branchID, clock).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "branch_id", "departure", "capacity",
		}).AddRow(1, branchID, clock+":00", capacity))
}

func expectNoSchedule(mock sqlmock.Sqlmock, branchID int64, clock string) {
	mock.ExpectQuery("FROM ferry_schedules\\s+WHERE branch_id = \\? AND departure = \\?").
		WithArgs(branchID, clock).
		WillReturnRows(sqlmock.NewRows([]string{"id", "branch_id", "departure", "capacity"}))
}

func expectBookingCount(mock sqlmock.Sqlmock, branchID int64, count int) {
	mock.ExpectQuery("SELECT COUNT\\(\\*\\)\\s+FROM bookings\\s+WHERE branch_id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(count))
}

func expectOnlineItem(mock sqlmock.Sqlmock, id int64, name string, isVehicle int) {
	mock.ExpectQuery("FROM items WHERE id = \\?").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "short_name", "is_vehicle", "online_visibility", "is_active",
		}).AddRow(id, name, "", isVehicle, 1, 1))
}

func expectResolvedRate(mock sqlmock.Sqlmock, itemID, routeID int64, rate, levy float64) {
	mock.ExpectQuery("FROM item_rates").
		WillReturnRows(sqlmock.NewRows([]string{"rate", "levy", "applicable_from_date"}).
			AddRow(rate, levy, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func expectOnlinePaymentMode(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("description = 'Online'").
		WillReturnRows(sqlmock.NewRows([]string{"id", "description", "is_active"}).
			AddRow(9, "Online", 1))
}

func validBookingInput() BookingCreateInput {
	return BookingCreateInput{
		FromBranchID: 7,
		ToBranchID:   8,
		TravelDate:   "2025-07-12",
		Departure:    "09:00",
		Items:        []BookingItemInput{{ItemID: 2, Quantity: 2}},
	}
}

func TestCreateBookingResolvesRatesServerSide(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	expectBranchByID(mock, 7, "North Pier")
	expectBranchByID(mock, 8, "South Pier")
	expectRouteBetween(mock, 3, 7, 8)
	expectSchedule(mock, 7, "09:00", 0) // departure exists, unlimited capacity
	expectSchedule(mock, 7, "09:00", 0) // capacity guard re-reads the slot
	expectOnlineItem(mock, 2, "Adult", 0)
	expectResolvedRate(mock, 2, 3, 10.00, 2.00)
	expectOnlinePaymentMode(mock)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT last_booking_no FROM branches WHERE id = \\? FOR UPDATE").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"last_booking_no"}).AddRow(0))
	mock.ExpectExec("UPDATE branches SET last_booking_no = \\?").
		WithArgs(int64(1), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(int64(7), int64(1), "2025-07-12", "09:00", int64(3),
			24.00, 0.0, 24.00, int64(9), int64(55), models.StatusPending, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(20, 1))
	mock.ExpectExec("INSERT INTO booking_items").
		WithArgs(int64(20), int64(2), 10.00, 2.00, 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	mock.ExpectQuery("FROM bookings WHERE id = \\?").
		WithArgs(int64(20)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "branch_id", "booking_no", "travel_date", "departure", "route_id",
			"amount", "discount", "net_amount", "payment_mode_id",
			"portal_user_id", "is_cancelled", "status", "verification_code",
			"checked_in_at", "created_at",
		}).AddRow(20, 7, 1, time.Date(2025, 7, 12, 0, 0, 0, 0, time.UTC), "09:00", 3,
			24.00, 0.0, 24.00, 9, 55, 0, models.StatusPending, "code-b", nil,
			time.Date(2025, 7, 10, 10, 0, 0, 0, time.UTC)))
	mock.ExpectQuery("FROM booking_items\\s+WHERE booking_id = \\?").
		WithArgs(int64(20)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "booking_id", "item_id", "rate", "levy", "quantity", "vehicle_no", "is_cancelled",
		}).AddRow(1, 20, 2, 10.0, 2.0, 2, "", 0))

	svc := BookingService{DB: db, Today: fixedToday}
	detail, err := svc.CreateBooking(55, validBookingInput())
	if err != nil {
		t.Fatalf("create booking error: %v", err)
	}
	if detail.BookingNo != 1 {
		t.Fatalf("booking_no = %d, want 1", detail.BookingNo)
	}
	if detail.Status != models.StatusPending {
		t.Fatalf("status = %s, want %s", detail.Status, models.StatusPending)
	}
	if detail.NetAmount != 24.00 {
		t.Fatalf("net = %v, want 24.00", detail.NetAmount)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateBookingRejectsPastTravelDate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	expectBranchByID(mock, 7, "North Pier")
	expectBranchByID(mock, 8, "South Pier")
	expectRouteBetween(mock, 3, 7, 8)

	in := validBookingInput()
	in.TravelDate = "2025-07-09"

	svc := BookingService{DB: db, Today: fixedToday}
	if _, err := svc.CreateBooking(55, in); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateBookingRejectsUnscheduledDeparture(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	expectBranchByID(mock, 7, "North Pier")
	expectBranchByID(mock, 8, "South Pier")
	expectRouteBetween(mock, 3, 7, 8)
	expectNoSchedule(mock, 7, "09:00")

	svc := BookingService{DB: db, Today: fixedToday}
	if _, err := svc.CreateBooking(55, validBookingInput()); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCapacityGuardAdmitsUnderCeiling(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	expectSchedule(mock, 7, "09:00", 2)
	expectBookingCount(mock, 7, 1)

	svc := BookingService{DB: db, Today: fixedToday}
	if err := svc.checkCapacity(7, time.Date(2025, 7, 12, 0, 0, 0, 0, time.Local), "09:00"); err != nil {
		t.Fatalf("expected admission under ceiling, got %v", err)
	}
}

func TestCapacityGuardRejectsAtCeiling(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	expectSchedule(mock, 7, "09:00", 2)
	expectBookingCount(mock, 7, 2)

	svc := BookingService{DB: db, Today: fixedToday}
	err = svc.checkCapacity(7, time.Date(2025, 7, 12, 0, 0, 0, 0, time.Local), "09:00")
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict at ceiling, got %v", err)
	}
}

func TestCapacityGuardUnlimitedWithoutSchedule(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	expectNoSchedule(mock, 7, "09:00")

	svc := BookingService{DB: db, Today: fixedToday}
	if err := svc.checkCapacity(7, time.Date(2025, 7, 12, 0, 0, 0, 0, time.Local), "09:00"); err != nil {
		t.Fatalf("expected unlimited admission, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestConfirmPaymentFlipsPendingOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	bookingRows := func(status string) *sqlmock.Rows {
		return sqlmock.NewRows([]string{
			"id", "branch_id", "booking_no", "travel_date", "departure", "route_id",
			"amount", "discount", "net_amount", "payment_mode_id",
			"portal_user_id", "is_cancelled", "status", "verification_code",
			"checked_in_at", "created_at",
		}).AddRow(20, 7, 1, time.Date(2025, 7, 12, 0, 0, 0, 0, time.UTC), "09:00", 3,
			24.00, 0.0, 24.00, 9, 55, 0, status, "code-b", nil,
			time.Date(2025, 7, 10, 10, 0, 0, 0, time.UTC))
	}

	mock.ExpectQuery("FROM bookings WHERE id = \\?").
		WillReturnRows(bookingRows(models.StatusPending))
	mock.ExpectExec("UPDATE bookings SET status = \\? WHERE id = \\? AND status = \\?").
		WithArgs(models.StatusConfirmed, int64(20), models.StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM bookings WHERE id = \\?").
		WillReturnRows(bookingRows(models.StatusConfirmed))
	mock.ExpectQuery("FROM booking_items\\s+WHERE booking_id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "booking_id", "item_id", "rate", "levy", "quantity", "vehicle_no", "is_cancelled",
		}))

	svc := BookingService{DB: db, Today: fixedToday}
	detail, err := svc.ConfirmPayment(20)
	if err != nil {
		t.Fatalf("confirm payment error: %v", err)
	}
	if detail.Status != models.StatusConfirmed {
		t.Fatalf("status = %s, want %s", detail.Status, models.StatusConfirmed)
	}

	// second confirmation finds no pending row
	mock.ExpectQuery("FROM bookings WHERE id = \\?").
		WillReturnRows(bookingRows(models.StatusConfirmed))
	mock.ExpectExec("UPDATE bookings SET status = \\? WHERE id = \\? AND status = \\?").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if _, err := svc.ConfirmPayment(20); !domain.IsConflict(err) {
		t.Fatalf("expected conflict on repeat confirmation, got %v", err)
	}
}
