package services

import (
	"testing"
	"time"

	"ferryops/internal/domain"
	"ferryops/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func expectActiveBranch(mock sqlmock.Sqlmock, id int64, lastTicketNo int64) {
	mock.ExpectQuery("last_ticket_no, last_booking_no").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "address", "last_ticket_no", "last_booking_no", "is_active",
		}).AddRow(id, "North Pier", "", lastTicketNo, 0, 1))
}

func expectActiveRoute(mock sqlmock.Sqlmock, id int64) {
	mock.ExpectQuery("FROM routes WHERE id = \\?").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "branch_id_one", "branch_id_two", "is_active",
		}).AddRow(id, 7, 8, 1))
}

func expectActivePaymentMode(mock sqlmock.Sqlmock, id int64) {
	mock.ExpectQuery("FROM payment_modes WHERE id = \\?").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "description", "is_active",
		}).AddRow(id, "Cash", 1))
}

func expectItem(mock sqlmock.Sqlmock, id int64, name string, isVehicle int) {
	mock.ExpectQuery("FROM items WHERE id = \\?").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "short_name", "is_vehicle", "online_visibility", "is_active",
		}).AddRow(id, name, "", isVehicle, 1, 1))
}

func expectTicketSequence(mock sqlmock.Sqlmock, branchID, current int64) {
	mock.ExpectQuery("SELECT last_ticket_no FROM branches WHERE id = \\? FOR UPDATE").
		WithArgs(branchID).
		WillReturnRows(sqlmock.NewRows([]string{"last_ticket_no"}).AddRow(current))
	mock.ExpectExec("UPDATE branches SET last_ticket_no = \\?").
		WithArgs(current+1, branchID).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func expectTicketFetch(mock sqlmock.Sqlmock, id, branchID, ticketNo int64, net float64) {
	mock.ExpectQuery("FROM tickets WHERE id = \\?").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "branch_id", "ticket_no", "ticket_date", "departure", "route_id",
			"amount", "discount", "net_amount", "payment_mode_id",
			"is_cancelled", "status", "verification_code", "checked_in_at", "created_at",
		}).AddRow(id, branchID, ticketNo, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), "08:30", 3,
			net, 0.0, net, 1, 0, models.StatusConfirmed, "code-x", nil,
			time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)))
	mock.ExpectQuery("FROM ticket_items\\s+WHERE ticket_id = \\?").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "ticket_id", "item_id", "rate", "levy", "quantity", "vehicle_no", "is_cancelled",
		}).AddRow(1, id, 2, 10.0, 2.0, 2, "", 0))
}

func validTicketInput() TicketCreateInput {
	return TicketCreateInput{
		BranchID:      7,
		RouteID:       3,
		TicketDate:    "2025-07-01",
		Departure:     "08:30",
		PaymentModeID: 1,
		Amount:        24.00,
		NetAmount:     24.00,
		Items: []TicketItemInput{
			{ItemID: 2, Rate: 10.00, Levy: 2.00, Quantity: 2},
		},
	}
}

func TestCreateTicketIssuesSequenceAndTotals(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	expectActiveBranch(mock, 7, 0)
	expectActiveRoute(mock, 3)
	expectActivePaymentMode(mock, 1)
	expectItem(mock, 2, "Adult", 0)

	mock.ExpectBegin()
	expectTicketSequence(mock, 7, 0)
	mock.ExpectExec("INSERT INTO tickets").
		WithArgs(int64(7), int64(1), "2025-07-01", "08:30", int64(3),
			24.00, 0.0, 24.00, int64(1), models.StatusConfirmed, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectExec("INSERT INTO ticket_items").
		WithArgs(int64(10), int64(2), 10.00, 2.00, 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	expectTicketFetch(mock, 10, 7, 1, 24.00)

	svc := TicketService{DB: db}
	detail, err := svc.CreateTicket(validTicketInput())
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	if detail.TicketNo != 1 {
		t.Fatalf("ticket_no = %d, want 1", detail.TicketNo)
	}
	if detail.NetAmount != 24.00 {
		t.Fatalf("net = %v, want 24.00", detail.NetAmount)
	}
	if detail.Status != models.StatusConfirmed {
		t.Fatalf("status = %s, want %s", detail.Status, models.StatusConfirmed)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateTicketAmountCrossCheckMismatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	expectActiveBranch(mock, 7, 0)
	expectActiveRoute(mock, 3)
	expectActivePaymentMode(mock, 1)
	expectItem(mock, 2, "Adult", 0)

	in := validTicketInput()
	in.Amount = 22.00 // client priced with stale rates
	in.NetAmount = 22.00

	svc := TicketService{DB: db}
	if _, err := svc.CreateTicket(in); !domain.IsIntegrity(err) {
		t.Fatalf("expected integrity error, got %v", err)
	}

	// nothing was written, no transaction was even opened
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateTicketVehicleRequiresNumber(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	expectActiveBranch(mock, 7, 0)
	expectActiveRoute(mock, 3)
	expectActivePaymentMode(mock, 1)
	expectItem(mock, 4, "Car", 1)

	in := validTicketInput()
	in.Items = []TicketItemInput{{ItemID: 4, Rate: 20, Levy: 4, Quantity: 1}}
	in.Amount = 24.00
	in.NetAmount = 24.00

	svc := TicketService{DB: db}
	if _, err := svc.CreateTicket(in); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateMultiTicketsRejectedDuringFerryHours(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	expectActiveRoute(mock, 3)
	mock.ExpectQuery("SELECT MIN\\(departure\\), MAX\\(departure\\)").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"min", "max"}).AddRow("08:00:00", "17:00:00"))

	svc := TicketService{
		DB:    db,
		Clock: func() string { return "12:00" },
	}
	_, err = svc.CreateMultiTickets(3, []TicketCreateInput{validTicketInput()})
	if !domain.IsValidation(err) {
		t.Fatalf("expected off-hours rejection, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateMultiTicketsAllowedOutsideWindow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	expectActiveRoute(mock, 3)
	mock.ExpectQuery("SELECT MIN\\(departure\\), MAX\\(departure\\)").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"min", "max"}).AddRow("08:00:00", "17:00:00"))

	expectActiveBranch(mock, 7, 0)
	expectActiveRoute(mock, 3)
	expectActivePaymentMode(mock, 1)
	expectItem(mock, 2, "Adult", 0)

	mock.ExpectBegin()
	expectTicketSequence(mock, 7, 5)
	mock.ExpectExec("INSERT INTO tickets").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec("INSERT INTO ticket_items").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	expectTicketFetch(mock, 11, 7, 6, 24.00)

	svc := TicketService{
		DB:    db,
		Clock: func() string { return "19:30" },
	}
	details, err := svc.CreateMultiTickets(3, []TicketCreateInput{validTicketInput()})
	if err != nil {
		t.Fatalf("create multi error: %v", err)
	}
	if len(details) != 1 || details[0].TicketNo != 6 {
		t.Fatalf("unexpected batch result %+v", details)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateMultiTicketsBatchFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	// branch has no schedules: batch issuance always allowed
	expectActiveRoute(mock, 3)
	mock.ExpectQuery("SELECT MIN\\(departure\\), MAX\\(departure\\)").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"min", "max"}).AddRow(nil, nil))

	// both inputs validate upfront
	for i := 0; i < 2; i++ {
		expectActiveBranch(mock, 7, 0)
		expectActiveRoute(mock, 3)
		expectActivePaymentMode(mock, 1)
		expectItem(mock, 2, "Adult", 0)
	}

	mock.ExpectBegin()
	expectTicketSequence(mock, 7, 0)
	mock.ExpectExec("INSERT INTO tickets").
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectExec("INSERT INTO ticket_items").
		WillReturnResult(sqlmock.NewResult(1, 1))
	// second ticket's counter read fails; the whole batch must roll back
	mock.ExpectQuery("SELECT last_ticket_no FROM branches WHERE id = \\? FOR UPDATE").
		WithArgs(int64(7)).
		WillReturnError(sqlmock.ErrCancelled)
	mock.ExpectRollback()

	svc := TicketService{DB: db}
	inputs := []TicketCreateInput{validTicketInput(), validTicketInput()}
	if _, err := svc.CreateMultiTickets(3, inputs); err == nil {
		t.Fatal("expected batch failure")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
