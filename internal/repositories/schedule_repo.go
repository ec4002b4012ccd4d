package repositories

import (
	"database/sql"
	"errors"

	intconfig "ferryops/internal/config"
	"ferryops/internal/domain"
	"ferryops/internal/domain/models"
	"ferryops/internal/utils"
)

type ScheduleRepo struct {
	DB *sql.DB
}

func (r ScheduleRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// GetByDeparture looks up the schedule row for (branch, departure).
func (r ScheduleRepo) GetByDeparture(branchID int64, clock string) (models.FerrySchedule, error) {
	var s models.FerrySchedule
	var departure string
	err := r.db().QueryRow(`
		SELECT id, branch_id, departure, COALESCE(capacity, 0)
		FROM ferry_schedules
		WHERE branch_id = ? AND departure = ?
	`, branchID, clock).Scan(&s.ID, &s.BranchID, &departure, &s.Capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return s, domain.NotFoundError{Resource: "ferry schedule"}
	}
	if err != nil {
		return s, domain.InternalError{Err: err}
	}
	s.Departure, _ = utils.NormalizeClock(departure)
	return s, nil
}

// Window returns the first and last scheduled departure for a branch as
// HH:MM. ok is false when the branch has no schedules at all.
func (r ScheduleRepo) Window(branchID int64) (first, last string, ok bool, err error) {
	var firstRaw, lastRaw sql.NullString
	err = r.db().QueryRow(`
		SELECT MIN(departure), MAX(departure)
		FROM ferry_schedules
		WHERE branch_id = ?
	`, branchID).Scan(&firstRaw, &lastRaw)
	if err != nil {
		return "", "", false, domain.InternalError{Err: err}
	}
	if !firstRaw.Valid || !lastRaw.Valid {
		return "", "", false, nil
	}
	if first, err = utils.NormalizeClock(firstRaw.String); err != nil {
		return "", "", false, domain.InternalError{Err: err}
	}
	if last, err = utils.NormalizeClock(lastRaw.String); err != nil {
		return "", "", false, domain.InternalError{Err: err}
	}
	return first, last, true, nil
}

// ListByBranch returns a branch's departures ordered by time.
func (r ScheduleRepo) ListByBranch(branchID int64) ([]models.FerrySchedule, error) {
	rows, err := r.db().Query(`
		SELECT id, branch_id, departure, COALESCE(capacity, 0)
		FROM ferry_schedules
		WHERE branch_id = ?
		ORDER BY departure ASC
	`, branchID)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer rows.Close()

	var out []models.FerrySchedule
	for rows.Next() {
		var s models.FerrySchedule
		var departure string
		if err := rows.Scan(&s.ID, &s.BranchID, &departure, &s.Capacity); err != nil {
			return nil, domain.InternalError{Err: err}
		}
		s.Departure, _ = utils.NormalizeClock(departure)
		out = append(out, s)
	}
	return out, rows.Err()
}
