package repositories

import (
	"database/sql"
	"fmt"
	"time"

	intconfig "ferryops/internal/config"
	"ferryops/internal/domain"
	"ferryops/internal/domain/models"
	"ferryops/internal/utils"
)

type RateRepo struct {
	DB *sql.DB
}

func (r RateRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// Resolve returns the authoritative rate for (item, route) as of a
// date: the active row with the greatest applicable_from_date <= asOf.
// Two rows sharing that date would make resolution ambiguous, which is
// reported as an integrity error instead of picking one arbitrarily.
func (r RateRepo) Resolve(itemID, routeID int64, asOf time.Time) (models.Rate, error) {
	rows, err := r.db().Query(`
		SELECT COALESCE(rate, 0), COALESCE(levy, 0), applicable_from_date
		FROM item_rates
		WHERE item_id = ?
		  AND route_id = ?
		  AND is_active = 1
		  AND applicable_from_date IS NOT NULL
		  AND applicable_from_date <= ?
		ORDER BY applicable_from_date DESC
		LIMIT 2
	`, itemID, routeID, utils.FormatDate(asOf))
	if err != nil {
		return models.Rate{}, domain.InternalError{Err: err}
	}
	defer rows.Close()

	type rateRow struct {
		rate, levy float64
		from       time.Time
	}
	var found []rateRow
	for rows.Next() {
		var rr rateRow
		if err := rows.Scan(&rr.rate, &rr.levy, &rr.from); err != nil {
			return models.Rate{}, domain.InternalError{Err: err}
		}
		found = append(found, rr)
	}
	if err := rows.Err(); err != nil {
		return models.Rate{}, domain.InternalError{Err: err}
	}

	if len(found) == 0 {
		return models.Rate{}, domain.NotFoundError{
			Resource: fmt.Sprintf("rate for item %d on route %d", itemID, routeID),
		}
	}
	if len(found) == 2 && found[0].from.Equal(found[1].from) {
		return models.Rate{}, domain.IntegrityError{
			Msg: fmt.Sprintf("ambiguous rate rows for item %d on route %d effective %s",
				itemID, routeID, utils.FormatDate(found[0].from)),
		}
	}
	return models.Rate{Rate: found[0].rate, Levy: found[0].levy}, nil
}
