package repositories

import (
	"database/sql"
	"errors"
	"time"

	intconfig "ferryops/internal/config"
	"ferryops/internal/domain"
	"ferryops/internal/domain/models"
	"ferryops/internal/utils"
)

// VerificationRepo resolves verification codes across both reservation
// tables and performs the guarded check-in write.
type VerificationRepo struct {
	DB *sql.DB
}

func (r VerificationRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// FindByCode resolves a code against tickets first, then bookings.
// Codes share one namespace, so at most one table matches.
func (r VerificationRepo) FindByCode(code string) (models.Reservation, error) {
	res, err := r.scanReservation(models.KindTicket, r.db().QueryRow(`
		SELECT id, ticket_no, branch_id, route_id, ticket_date, departure,
		       net_amount, status, is_cancelled, checked_in_at
		FROM tickets
		WHERE verification_code = ?
	`, code))
	if err == nil {
		res.VerificationCode = code
		return res, nil
	}
	if !domain.IsNotFound(err) {
		return models.Reservation{}, err
	}

	res, err = r.scanReservation(models.KindBooking, r.db().QueryRow(`
		SELECT id, booking_no, branch_id, route_id, travel_date, departure,
		       net_amount, status, is_cancelled, checked_in_at
		FROM bookings
		WHERE verification_code = ?
	`, code))
	if err != nil {
		return models.Reservation{}, err
	}
	res.VerificationCode = code
	return res, nil
}

func (r VerificationRepo) scanReservation(kind models.ReservationKind, row *sql.Row) (models.Reservation, error) {
	var res models.Reservation
	var departure sql.NullString
	var checkedIn sql.NullTime
	err := row.Scan(
		&res.ID, &res.ReferenceNo, &res.BranchID, &res.RouteID,
		&res.TravelDate, &departure, &res.NetAmount, &res.Status,
		&res.IsCancelled, &checkedIn,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return res, domain.NotFoundError{Resource: "reservation"}
	}
	if err != nil {
		return res, domain.InternalError{Err: err}
	}
	res.Kind = kind
	if departure.Valid {
		res.Departure, _ = utils.NormalizeClock(departure.String)
	}
	if checkedIn.Valid {
		at := checkedIn.Time
		res.CheckedInAt = &at
	}
	return res, nil
}

// MarkVerified performs the one-way transition to VERIFIED with an
// atomic conditional update. Returns false when no row qualified; the
// caller re-reads the record to find out why (cancelled, pending
// payment, already verified, or gone).
func (r VerificationRepo) MarkVerified(kind models.ReservationKind, code string, at time.Time) (bool, error) {
	table := "bookings"
	if kind == models.KindTicket {
		table = "tickets"
	}
	res, err := r.db().Exec(`
		UPDATE `+table+`
		SET status = ?, checked_in_at = ?
		WHERE verification_code = ?
		  AND is_cancelled = 0
		  AND status = ?
		  AND checked_in_at IS NULL
	`, models.StatusVerified, at, code, models.StatusConfirmed)
	if err != nil {
		return false, domain.InternalError{Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.InternalError{Err: err}
	}
	return n > 0, nil
}

// ItemsForReservation returns the non-cancelled line items of either
// reservation kind with item names resolved, for the checker's view.
func (r VerificationRepo) ItemsForReservation(res models.Reservation) ([]models.ReservationItem, int, error) {
	table, fk := "booking_items", "booking_id"
	if res.Kind == models.KindTicket {
		table, fk = "ticket_items", "ticket_id"
	}
	rows, err := r.db().Query(`
		SELECT COALESCE(i.name, 'Unknown'), li.quantity,
		       COALESCE(i.is_vehicle, 0), COALESCE(li.vehicle_no, '')
		FROM `+table+` li
		LEFT JOIN items i ON i.id = li.item_id
		WHERE li.`+fk+` = ? AND li.is_cancelled = 0
		ORDER BY li.id
	`, res.ID)
	if err != nil {
		return nil, 0, domain.InternalError{Err: err}
	}
	defer rows.Close()

	var out []models.ReservationItem
	passengers := 0
	for rows.Next() {
		var it models.ReservationItem
		if err := rows.Scan(&it.ItemName, &it.Quantity, &it.IsVehicle, &it.VehicleNo); err != nil {
			return nil, 0, domain.InternalError{Err: err}
		}
		if !it.IsVehicle {
			passengers += it.Quantity
		}
		out = append(out, it)
	}
	return out, passengers, rows.Err()
}
