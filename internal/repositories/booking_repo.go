package repositories

import (
	"database/sql"
	"errors"
	"time"

	intconfig "ferryops/internal/config"
	intdb "ferryops/internal/db"
	"ferryops/internal/domain"
	"ferryops/internal/domain/models"
	"ferryops/internal/utils"
)

type BookingRepo struct {
	DB *sql.DB
}

func (r BookingRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const bookingColumns = `
	id, branch_id, booking_no, travel_date, departure, route_id,
	amount, COALESCE(discount, 0), net_amount, payment_mode_id,
	COALESCE(portal_user_id, 0), is_cancelled, status, verification_code,
	checked_in_at, created_at`

func scanBooking(row interface{ Scan(...any) error }) (models.Booking, error) {
	var b models.Booking
	var departure sql.NullString
	var checkedIn sql.NullTime
	err := row.Scan(
		&b.ID, &b.BranchID, &b.BookingNo, &b.TravelDate, &departure, &b.RouteID,
		&b.Amount, &b.Discount, &b.NetAmount, &b.PaymentModeID,
		&b.PortalUserID, &b.IsCancelled, &b.Status, &b.VerificationCode,
		&checkedIn, &b.CreatedAt,
	)
	if err != nil {
		return b, err
	}
	if departure.Valid {
		b.Departure, _ = utils.NormalizeClock(departure.String)
	}
	if checkedIn.Valid {
		at := checkedIn.Time
		b.CheckedInAt = &at
	}
	return b, nil
}

// InsertTx persists a booking header and items inside the caller's
// transaction.
func (r BookingRepo) InsertTx(tx intdb.Querier, b models.Booking, items []models.BookingItem) (int64, error) {
	res, err := tx.Exec(`
		INSERT INTO bookings
			(branch_id, booking_no, travel_date, departure, route_id,
			 amount, discount, net_amount, payment_mode_id, portal_user_id,
			 is_cancelled, status, verification_code, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, NOW())
	`,
		b.BranchID, b.BookingNo, utils.FormatDate(b.TravelDate), b.Departure, b.RouteID,
		b.Amount, b.Discount, b.NetAmount, b.PaymentModeID, b.PortalUserID,
		b.Status, b.VerificationCode,
	)
	if err != nil {
		return 0, domain.InternalError{Err: err}
	}
	bookingID, err := res.LastInsertId()
	if err != nil {
		return 0, domain.InternalError{Err: err}
	}

	for _, it := range items {
		_, err := tx.Exec(`
			INSERT INTO booking_items
				(booking_id, item_id, rate, levy, quantity, vehicle_no, is_cancelled)
			VALUES (?, ?, ?, ?, ?, ?, 0)
		`, bookingID, it.ItemID, it.Rate, it.Levy, it.Quantity, intdb.NullIfEmpty(it.VehicleNo))
		if err != nil {
			return 0, domain.InternalError{Err: err}
		}
	}
	return bookingID, nil
}

func (r BookingRepo) GetByID(id int64) (models.Booking, error) {
	b, err := scanBooking(r.db().QueryRow(`SELECT` + bookingColumns + ` FROM bookings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return b, domain.NotFoundError{Resource: "booking"}
	}
	if err != nil {
		return b, domain.InternalError{Err: err}
	}
	return b, nil
}

func (r BookingRepo) ItemsByBookingID(bookingID int64) ([]models.BookingItem, error) {
	rows, err := r.db().Query(`
		SELECT id, booking_id, item_id, COALESCE(rate, 0), COALESCE(levy, 0),
		       quantity, COALESCE(vehicle_no, ''), is_cancelled
		FROM booking_items
		WHERE booking_id = ?
		ORDER BY id
	`, bookingID)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer rows.Close()

	var out []models.BookingItem
	for rows.Next() {
		var it models.BookingItem
		if err := rows.Scan(&it.ID, &it.BookingID, &it.ItemID, &it.Rate, &it.Levy,
			&it.Quantity, &it.VehicleNo, &it.IsCancelled); err != nil {
			return nil, domain.InternalError{Err: err}
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// CountForDeparture counts live bookings for one departure slot; the
// capacity guard compares this against the schedule ceiling.
func (r BookingRepo) CountForDeparture(branchID int64, travelDate time.Time, clock string) (int, error) {
	var n int
	err := r.db().QueryRow(`
		SELECT COUNT(*)
		FROM bookings
		WHERE branch_id = ?
		  AND travel_date = ?
		  AND departure = ?
		  AND is_cancelled = 0
		  AND status <> ?
	`, branchID, utils.FormatDate(travelDate), clock, models.StatusCancelled).Scan(&n)
	if err != nil {
		return 0, domain.InternalError{Err: err}
	}
	return n, nil
}

// ListByPortalUser pages a portal user's own bookings, newest first.
func (r BookingRepo) ListByPortalUser(portalUserID int64, limit, offset int) ([]models.Booking, error) {
	rows, err := r.db().Query(`
		SELECT`+bookingColumns+`
		FROM bookings
		WHERE portal_user_id = ?
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`, portalUserID, limit, offset)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer rows.Close()

	var out []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, domain.InternalError{Err: err}
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r BookingRepo) CountByPortalUser(portalUserID int64) (int, error) {
	var n int
	if err := r.db().QueryRow(`SELECT COUNT(*) FROM bookings WHERE portal_user_id = ?`, portalUserID).Scan(&n); err != nil {
		return 0, domain.InternalError{Err: err}
	}
	return n, nil
}

// Cancel marks a PENDING or CONFIRMED booking cancelled along with its
// items. Verified bookings never reach the cancellation path.
func (r BookingRepo) Cancel(tx intdb.Querier, bookingID int64) error {
	res, err := tx.Exec(`
		UPDATE bookings
		SET is_cancelled = 1, status = ?
		WHERE id = ? AND status IN (?, ?)
	`, models.StatusCancelled, bookingID, models.StatusPending, models.StatusConfirmed)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.InternalError{Err: err}
	}
	if n == 0 {
		return domain.ConflictError{Resource: "booking", Msg: "not in a cancellable state"}
	}
	_, err = tx.Exec(`UPDATE booking_items SET is_cancelled = 1 WHERE booking_id = ?`, bookingID)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	return nil
}

// ConfirmPayment flips PENDING to CONFIRMED exactly once. The payment
// collaborator calls this after capture; the conditional update keeps a
// duplicate callback from re-confirming a cancelled booking.
func (r BookingRepo) ConfirmPayment(bookingID int64) (bool, error) {
	res, err := r.db().Exec(`
		UPDATE bookings SET status = ? WHERE id = ? AND status = ?
	`, models.StatusConfirmed, bookingID, models.StatusPending)
	if err != nil {
		return false, domain.InternalError{Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.InternalError{Err: err}
	}
	return n > 0, nil
}
