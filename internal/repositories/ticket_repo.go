package repositories

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	intconfig "ferryops/internal/config"
	intdb "ferryops/internal/db"
	"ferryops/internal/domain"
	"ferryops/internal/domain/models"
	"ferryops/internal/utils"
)

type TicketRepo struct {
	DB *sql.DB
}

func (r TicketRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const ticketColumns = `
	id, branch_id, ticket_no, ticket_date, departure, route_id,
	amount, COALESCE(discount, 0), net_amount, payment_mode_id,
	is_cancelled, status, verification_code, checked_in_at, created_at`

func scanTicket(row interface{ Scan(...any) error }) (models.Ticket, error) {
	var t models.Ticket
	var departure sql.NullString
	var checkedIn sql.NullTime
	err := row.Scan(
		&t.ID, &t.BranchID, &t.TicketNo, &t.TicketDate, &departure, &t.RouteID,
		&t.Amount, &t.Discount, &t.NetAmount, &t.PaymentModeID,
		&t.IsCancelled, &t.Status, &t.VerificationCode, &checkedIn, &t.CreatedAt,
	)
	if err != nil {
		return t, err
	}
	if departure.Valid {
		t.Departure, _ = utils.NormalizeClock(departure.String)
	}
	if checkedIn.Valid {
		at := checkedIn.Time
		t.CheckedInAt = &at
	}
	return t, nil
}

// InsertTx persists a ticket header and its items inside the caller's
// transaction. The sequence number and verification code must already
// be set on the header.
func (r TicketRepo) InsertTx(tx intdb.Querier, t models.Ticket, items []models.TicketItem) (int64, error) {
	res, err := tx.Exec(`
		INSERT INTO tickets
			(branch_id, ticket_no, ticket_date, departure, route_id,
			 amount, discount, net_amount, payment_mode_id,
			 is_cancelled, status, verification_code, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, NOW())
	`,
		t.BranchID, t.TicketNo, utils.FormatDate(t.TicketDate), intdb.NullIfEmpty(t.Departure), t.RouteID,
		t.Amount, t.Discount, t.NetAmount, t.PaymentModeID,
		t.Status, t.VerificationCode,
	)
	if err != nil {
		return 0, domain.InternalError{Err: err}
	}
	ticketID, err := res.LastInsertId()
	if err != nil {
		return 0, domain.InternalError{Err: err}
	}

	for _, it := range items {
		_, err := tx.Exec(`
			INSERT INTO ticket_items
				(ticket_id, item_id, rate, levy, quantity, vehicle_no, is_cancelled)
			VALUES (?, ?, ?, ?, ?, ?, 0)
		`, ticketID, it.ItemID, it.Rate, it.Levy, it.Quantity, intdb.NullIfEmpty(it.VehicleNo))
		if err != nil {
			return 0, domain.InternalError{Err: err}
		}
	}
	return ticketID, nil
}

func (r TicketRepo) GetByID(id int64) (models.Ticket, error) {
	t, err := scanTicket(r.db().QueryRow(`SELECT`+ticketColumns+` FROM tickets WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return t, domain.NotFoundError{Resource: "ticket"}
	}
	if err != nil {
		return t, domain.InternalError{Err: err}
	}
	return t, nil
}

// FindByNo locates the most recent ticket with a given branch-scoped
// number (manual lookup at the gate).
func (r TicketRepo) FindByNo(branchID, ticketNo int64) (models.Ticket, error) {
	t, err := scanTicket(r.db().QueryRow(`
		SELECT`+ticketColumns+`
		FROM tickets
		WHERE branch_id = ? AND ticket_no = ?
		ORDER BY id DESC
		LIMIT 1
	`, branchID, ticketNo))
	if errors.Is(err, sql.ErrNoRows) {
		return t, domain.NotFoundError{Resource: "ticket"}
	}
	if err != nil {
		return t, domain.InternalError{Err: err}
	}
	return t, nil
}

func (r TicketRepo) ItemsByTicketID(ticketID int64) ([]models.TicketItem, error) {
	rows, err := r.db().Query(`
		SELECT id, ticket_id, item_id, COALESCE(rate, 0), COALESCE(levy, 0),
		       quantity, COALESCE(vehicle_no, ''), is_cancelled
		FROM ticket_items
		WHERE ticket_id = ?
		ORDER BY id
	`, ticketID)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer rows.Close()

	var out []models.TicketItem
	for rows.Next() {
		var it models.TicketItem
		if err := rows.Scan(&it.ID, &it.TicketID, &it.ItemID, &it.Rate, &it.Levy,
			&it.Quantity, &it.VehicleNo, &it.IsCancelled); err != nil {
			return nil, domain.InternalError{Err: err}
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// TicketFilter narrows ticket listings.
type TicketFilter struct {
	BranchID int64
	RouteID  int64
	TicketNo int64
	Status   string // "active", "cancelled" or ""
	DateFrom *time.Time
	DateTo   *time.Time

	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

var ticketSortColumns = map[string]string{
	"id":          "id",
	"ticket_no":   "ticket_no",
	"ticket_date": "ticket_date",
	"branch_id":   "branch_id",
	"route_id":    "route_id",
	"departure":   "departure",
	"amount":      "amount",
	"net_amount":  "net_amount",
}

func (f TicketFilter) where() (string, []any) {
	var conds []string
	var args []any
	if f.BranchID > 0 {
		conds = append(conds, "branch_id = ?")
		args = append(args, f.BranchID)
	}
	if f.RouteID > 0 {
		conds = append(conds, "route_id = ?")
		args = append(args, f.RouteID)
	}
	if f.TicketNo > 0 {
		conds = append(conds, "ticket_no = ?")
		args = append(args, f.TicketNo)
	}
	if f.DateFrom != nil {
		conds = append(conds, "ticket_date >= ?")
		args = append(args, utils.FormatDate(*f.DateFrom))
	}
	if f.DateTo != nil {
		conds = append(conds, "ticket_date <= ?")
		args = append(args, utils.FormatDate(*f.DateTo))
	}
	switch f.Status {
	case "active":
		conds = append(conds, "is_cancelled = 0")
	case "cancelled":
		conds = append(conds, "is_cancelled = 1")
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r TicketRepo) Count(f TicketFilter) (int, error) {
	where, args := f.where()
	var n int
	if err := r.db().QueryRow(`SELECT COUNT(*) FROM tickets`+where, args...).Scan(&n); err != nil {
		return 0, domain.InternalError{Err: err}
	}
	return n, nil
}

func (r TicketRepo) List(f TicketFilter) ([]models.Ticket, error) {
	where, args := f.where()

	col, ok := ticketSortColumns[f.SortBy]
	if !ok {
		col = "id"
	}
	order := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		order = "ASC"
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `SELECT` + ticketColumns + ` FROM tickets` + where +
		` ORDER BY ` + col + ` ` + order + ` LIMIT ? OFFSET ?`
	args = append(args, limit, f.Offset)

	rows, err := r.db().Query(query, args...)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer rows.Close()

	var out []models.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, domain.InternalError{Err: err}
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Cancel marks the ticket and all of its items cancelled. The guard on
// status keeps verified tickets out of the cancellation path.
func (r TicketRepo) Cancel(tx intdb.Querier, ticketID int64) error {
	res, err := tx.Exec(`
		UPDATE tickets
		SET is_cancelled = 1, status = ?
		WHERE id = ? AND is_cancelled = 0 AND status <> ?
	`, models.StatusCancelled, ticketID, models.StatusVerified)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.InternalError{Err: err}
	}
	if n == 0 {
		return domain.ConflictError{Resource: "ticket", Msg: "already cancelled or verified"}
	}
	_, err = tx.Exec(`UPDATE ticket_items SET is_cancelled = 1 WHERE ticket_id = ?`, ticketID)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	return nil
}

// ReplaceItems swaps the ticket's line items and rewrites the totals,
// used by the amendment flow inside one transaction.
func (r TicketRepo) ReplaceItems(tx intdb.Querier, ticketID int64, items []models.TicketItem, amounts models.TicketAmounts) error {
	if _, err := tx.Exec(`DELETE FROM ticket_items WHERE ticket_id = ?`, ticketID); err != nil {
		return domain.InternalError{Err: err}
	}
	for _, it := range items {
		cancelled := 0
		if it.IsCancelled {
			cancelled = 1
		}
		_, err := tx.Exec(`
			INSERT INTO ticket_items
				(ticket_id, item_id, rate, levy, quantity, vehicle_no, is_cancelled)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, ticketID, it.ItemID, it.Rate, it.Levy, it.Quantity, intdb.NullIfEmpty(it.VehicleNo), cancelled)
		if err != nil {
			return domain.InternalError{Err: err}
		}
	}
	_, err := tx.Exec(`
		UPDATE tickets SET amount = ?, discount = ?, net_amount = ? WHERE id = ?
	`, amounts.Amount, amounts.Discount, amounts.NetAmount, ticketID)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	return nil
}
