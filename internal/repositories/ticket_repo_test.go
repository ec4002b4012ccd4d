package repositories

import (
	"testing"

	"ferryops/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestCancelGuardsVerifiedTickets(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tickets\\s+SET is_cancelled = 1, status = \\?").
		WithArgs("CANCELLED", int64(10), "VERIFIED").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx.Rollback()

	repo := TicketRepo{DB: db}
	if err := repo.Cancel(tx, 10); !domain.IsConflict(err) {
		t.Fatalf("expected conflict for verified/cancelled ticket, got %v", err)
	}
}

func TestCancelCascadesToItems(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tickets\\s+SET is_cancelled = 1, status = \\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE ticket_items SET is_cancelled = 1 WHERE ticket_id = \\?").
		WithArgs(int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	repo := TicketRepo{DB: db}
	if err := repo.Cancel(tx, 10); err != nil {
		t.Fatalf("cancel error: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListRejectsUnknownSortColumn(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	// unknown sort keys fall back to id, never reach the SQL verbatim
	mock.ExpectQuery("ORDER BY id DESC LIMIT \\? OFFSET \\?").
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "branch_id", "ticket_no", "ticket_date", "departure", "route_id",
			"amount", "discount", "net_amount", "payment_mode_id",
			"is_cancelled", "status", "verification_code", "checked_in_at", "created_at",
		}))

	repo := TicketRepo{DB: db}
	if _, err := repo.List(TicketFilter{SortBy: "1; DROP TABLE tickets"}); err != nil {
		t.Fatalf("list error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
