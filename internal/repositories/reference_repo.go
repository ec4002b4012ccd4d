package repositories

import (
	"database/sql"
	"errors"

	intconfig "ferryops/internal/config"
	"ferryops/internal/domain"
	"ferryops/internal/domain/models"
)

// ReferenceRepo covers the read-only reference-data lookups the core
// needs: routes, items and payment modes.
type ReferenceRepo struct {
	DB *sql.DB
}

func (r ReferenceRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r ReferenceRepo) GetRoute(id int64) (models.Route, error) {
	var rt models.Route
	err := r.db().QueryRow(`
		SELECT id, branch_id_one, branch_id_two, COALESCE(is_active, 0)
		FROM routes WHERE id = ?
	`, id).Scan(&rt.ID, &rt.BranchIDOne, &rt.BranchIDTwo, &rt.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return rt, domain.NotFoundError{Resource: "route"}
	}
	if err != nil {
		return rt, domain.InternalError{Err: err}
	}
	return rt, nil
}

// FindRouteBetween locates the active route connecting two branches in
// either direction.
func (r ReferenceRepo) FindRouteBetween(fromBranchID, toBranchID int64) (models.Route, error) {
	var rt models.Route
	err := r.db().QueryRow(`
		SELECT id, branch_id_one, branch_id_two, COALESCE(is_active, 0)
		FROM routes
		WHERE is_active = 1
		  AND ((branch_id_one = ? AND branch_id_two = ?)
		    OR (branch_id_one = ? AND branch_id_two = ?))
		LIMIT 1
	`, fromBranchID, toBranchID, toBranchID, fromBranchID).
		Scan(&rt.ID, &rt.BranchIDOne, &rt.BranchIDTwo, &rt.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return rt, domain.NotFoundError{Resource: "route between branches"}
	}
	if err != nil {
		return rt, domain.InternalError{Err: err}
	}
	return rt, nil
}

func (r ReferenceRepo) GetItem(id int64) (models.Item, error) {
	var it models.Item
	err := r.db().QueryRow(`
		SELECT id, name, COALESCE(short_name, ''), COALESCE(is_vehicle, 0),
		       COALESCE(online_visibility, 0), COALESCE(is_active, 0)
		FROM items WHERE id = ?
	`, id).Scan(&it.ID, &it.Name, &it.ShortName, &it.IsVehicle, &it.OnlineVisibility, &it.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return it, domain.NotFoundError{Resource: "item"}
	}
	if err != nil {
		return it, domain.InternalError{Err: err}
	}
	return it, nil
}

func (r ReferenceRepo) GetPaymentMode(id int64) (models.PaymentMode, error) {
	var pm models.PaymentMode
	err := r.db().QueryRow(`
		SELECT id, description, COALESCE(is_active, 0)
		FROM payment_modes WHERE id = ?
	`, id).Scan(&pm.ID, &pm.Description, &pm.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return pm, domain.NotFoundError{Resource: "payment mode"}
	}
	if err != nil {
		return pm, domain.InternalError{Err: err}
	}
	return pm, nil
}

// OnlinePaymentMode returns the "Online" payment mode used for portal
// bookings, falling back to the first active mode.
func (r ReferenceRepo) OnlinePaymentMode() (models.PaymentMode, error) {
	var pm models.PaymentMode
	err := r.db().QueryRow(`
		SELECT id, description, COALESCE(is_active, 0)
		FROM payment_modes
		WHERE is_active = 1 AND description = 'Online'
		LIMIT 1
	`).Scan(&pm.ID, &pm.Description, &pm.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		err = r.db().QueryRow(`
			SELECT id, description, COALESCE(is_active, 0)
			FROM payment_modes
			WHERE is_active = 1
			ORDER BY id
			LIMIT 1
		`).Scan(&pm.ID, &pm.Description, &pm.IsActive)
		if errors.Is(err, sql.ErrNoRows) {
			return pm, domain.InternalError{Msg: "no active payment mode available"}
		}
	}
	if err != nil {
		return pm, domain.InternalError{Err: err}
	}
	return pm, nil
}

// ListPaymentModes returns the active payment modes.
func (r ReferenceRepo) ListPaymentModes() ([]models.PaymentMode, error) {
	rows, err := r.db().Query(`
		SELECT id, description, COALESCE(is_active, 0)
		FROM payment_modes
		WHERE is_active = 1
		ORDER BY id
	`)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer rows.Close()

	var out []models.PaymentMode
	for rows.Next() {
		var pm models.PaymentMode
		if err := rows.Scan(&pm.ID, &pm.Description, &pm.IsActive); err != nil {
			return nil, domain.InternalError{Err: err}
		}
		out = append(out, pm)
	}
	return out, rows.Err()
}

// ListToBranches returns active destination branches reachable from a
// branch via active routes.
func (r ReferenceRepo) ListToBranches(fromBranchID int64) ([]models.Branch, error) {
	rows, err := r.db().Query(`
		SELECT DISTINCT b.id, b.name
		FROM routes r
		JOIN branches b
		  ON b.id = IF(r.branch_id_one = ?, r.branch_id_two, r.branch_id_one)
		WHERE r.is_active = 1
		  AND (r.branch_id_one = ? OR r.branch_id_two = ?)
		  AND b.is_active = 1
		ORDER BY b.name
	`, fromBranchID, fromBranchID, fromBranchID)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer rows.Close()

	var out []models.Branch
	for rows.Next() {
		var b models.Branch
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, domain.InternalError{Err: err}
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListActiveItems returns active items, optionally only those visible
// for online booking.
func (r ReferenceRepo) ListActiveItems(onlineOnly bool) ([]models.Item, error) {
	query := `
		SELECT id, name, COALESCE(short_name, ''), COALESCE(is_vehicle, 0),
		       COALESCE(online_visibility, 0), COALESCE(is_active, 0)
		FROM items
		WHERE is_active = 1`
	if onlineOnly {
		query += ` AND online_visibility = 1`
	}
	query += ` ORDER BY id`

	rows, err := r.db().Query(query)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer rows.Close()

	var out []models.Item
	for rows.Next() {
		var it models.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.ShortName, &it.IsVehicle, &it.OnlineVisibility, &it.IsActive); err != nil {
			return nil, domain.InternalError{Err: err}
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// BranchName fetches just the display name, empty when missing.
func (r ReferenceRepo) BranchName(id int64) string {
	var name string
	_ = r.db().QueryRow(`SELECT name FROM branches WHERE id = ?`, id).Scan(&name)
	return name
}

// RouteDisplayName renders "BranchOne - BranchTwo" for a route.
func (r ReferenceRepo) RouteDisplayName(id int64) string {
	var one, two string
	err := r.db().QueryRow(`
		SELECT b1.name, b2.name
		FROM routes r
		JOIN branches b1 ON b1.id = r.branch_id_one
		JOIN branches b2 ON b2.id = r.branch_id_two
		WHERE r.id = ?
	`, id).Scan(&one, &two)
	if err != nil {
		return ""
	}
	return one + " - " + two
}

// PaymentModeName fetches the description, empty when missing.
func (r ReferenceRepo) PaymentModeName(id int64) string {
	var desc string
	_ = r.db().QueryRow(`SELECT description FROM payment_modes WHERE id = ?`, id).Scan(&desc)
	return desc
}

// ItemName fetches the item name, empty when missing.
func (r ReferenceRepo) ItemName(id int64) string {
	var name string
	_ = r.db().QueryRow(`SELECT name FROM items WHERE id = ?`, id).Scan(&name)
	return name
}
