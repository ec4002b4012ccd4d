package repositories

import (
	"database/sql"
	"errors"

	intconfig "ferryops/internal/config"
	intdb "ferryops/internal/db"
	"ferryops/internal/domain"
	"ferryops/internal/domain/models"
)

type BranchRepo struct {
	DB *sql.DB
}

func (r BranchRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r BranchRepo) GetByID(id int64) (models.Branch, error) {
	var b models.Branch
	err := r.db().QueryRow(`
		SELECT id, name, COALESCE(address, ''), last_ticket_no, last_booking_no, COALESCE(is_active, 0)
		FROM branches
		WHERE id = ?
	`, id).Scan(&b.ID, &b.Name, &b.Address, &b.LastTicketNo, &b.LastBookingNo, &b.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return b, domain.NotFoundError{Resource: "branch"}
	}
	if err != nil {
		return b, domain.InternalError{Err: err}
	}
	return b, nil
}

// NextTicketNo reserves the next branch-scoped ticket number. The
// SELECT ... FOR UPDATE holds an exclusive lock on the branch row until
// the surrounding transaction commits or rolls back, so concurrent
// issuers for the same branch serialize here. A rollback releases the
// number unused (gaps are fine, duplicates are not).
func (r BranchRepo) NextTicketNo(tx intdb.Querier, branchID int64) (int64, error) {
	return r.nextNo(tx, branchID, "last_ticket_no")
}

// NextBookingNo reserves the next branch-scoped booking number under
// the same branch row lock as NextTicketNo.
func (r BranchRepo) NextBookingNo(tx intdb.Querier, branchID int64) (int64, error) {
	return r.nextNo(tx, branchID, "last_booking_no")
}

func (r BranchRepo) nextNo(tx intdb.Querier, branchID int64, column string) (int64, error) {
	var current int64
	err := tx.QueryRow(
		`SELECT `+column+` FROM branches WHERE id = ? FOR UPDATE`,
		branchID,
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.NotFoundError{Resource: "branch"}
	}
	if err != nil {
		return 0, domain.InternalError{Err: err}
	}

	next := current + 1
	res, err := tx.Exec(`UPDATE branches SET `+column+` = ? WHERE id = ?`, next, branchID)
	if err != nil {
		return 0, domain.InternalError{Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return 0, domain.InternalError{Msg: "branch counter update affected no rows"}
	}
	return next, nil
}
