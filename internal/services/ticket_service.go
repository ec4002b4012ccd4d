package services

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	intconfig "ferryops/internal/config"
	"ferryops/internal/domain"
	"ferryops/internal/domain/models"
	"ferryops/internal/repositories"
	"ferryops/internal/utils"
)

// TicketService drives operator-issued ticket creation: reference
// validation, amount cross-check, then one transaction covering the
// branch lock, sequence number, header and items.
type TicketService struct {
	BranchRepo   repositories.BranchRepo
	RefRepo      repositories.ReferenceRepo
	RateRepo     repositories.RateRepo
	ScheduleRepo repositories.ScheduleRepo
	TicketRepo   repositories.TicketRepo
	DB           *sql.DB
	RequestID    string

	// Clock overrides the wall clock in tests (HH:MM).
	Clock func() string
}

func (s TicketService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s TicketService) branches() repositories.BranchRepo {
	if s.BranchRepo.DB != nil {
		return s.BranchRepo
	}
	return repositories.BranchRepo{DB: s.db()}
}

func (s TicketService) refs() repositories.ReferenceRepo {
	if s.RefRepo.DB != nil {
		return s.RefRepo
	}
	return repositories.ReferenceRepo{DB: s.db()}
}

func (s TicketService) schedules() repositories.ScheduleRepo {
	if s.ScheduleRepo.DB != nil {
		return s.ScheduleRepo
	}
	return repositories.ScheduleRepo{DB: s.db()}
}

func (s TicketService) tickets() repositories.TicketRepo {
	if s.TicketRepo.DB != nil {
		return s.TicketRepo
	}
	return repositories.TicketRepo{DB: s.db()}
}

func (s TicketService) clock() string {
	if s.Clock != nil {
		return s.Clock()
	}
	return utils.ClockNow()
}

// TicketItemInput is one line of an operator sale. Rate and levy come
// from the operator terminal; the existence of the item is validated,
// the price is trusted.
type TicketItemInput struct {
	ItemID    int64   `json:"item_id"`
	Rate      float64 `json:"rate"`
	Levy      float64 `json:"levy"`
	Quantity  int     `json:"quantity"`
	VehicleNo string  `json:"vehicle_no"`
}

type TicketCreateInput struct {
	BranchID      int64             `json:"branch_id"`
	RouteID       int64             `json:"route_id"`
	TicketDate    string            `json:"ticket_date"`
	Departure     string            `json:"departure"`
	PaymentModeID int64             `json:"payment_mode_id"`
	Discount      float64           `json:"discount"`
	Amount        float64           `json:"amount"`
	NetAmount     float64           `json:"net_amount"`
	Items         []TicketItemInput `json:"items"`
}

// TicketDetail is the enriched response shape.
type TicketDetail struct {
	models.Ticket
	BranchName      string             `json:"branch_name"`
	RouteName       string             `json:"route_name"`
	PaymentModeName string             `json:"payment_mode_name"`
	Items           []TicketItemDetail `json:"items,omitempty"`
}

type TicketItemDetail struct {
	models.TicketItem
	ItemName string  `json:"item_name"`
	Amount   float64 `json:"amount"`
}

func (s TicketService) validateCreate(in TicketCreateInput) ([]models.TicketItem, domain.Amounts, error) {
	var none domain.Amounts

	if len(in.Items) == 0 {
		return nil, none, domain.ValidationError{Field: "items", Msg: "at least one item is required"}
	}
	if in.Discount < 0 {
		return nil, none, domain.ValidationError{Field: "discount", Msg: "must not be negative"}
	}

	branch, err := s.branches().GetByID(in.BranchID)
	if err != nil {
		return nil, none, err
	}
	if !branch.IsActive {
		return nil, none, domain.ValidationError{Field: "branch_id", Msg: fmt.Sprintf("branch %q is not active", branch.Name)}
	}
	route, err := s.refs().GetRoute(in.RouteID)
	if err != nil {
		return nil, none, err
	}
	if !route.IsActive {
		return nil, none, domain.ValidationError{Field: "route_id", Msg: "route is not active"}
	}
	pm, err := s.refs().GetPaymentMode(in.PaymentModeID)
	if err != nil {
		return nil, none, err
	}
	if !pm.IsActive {
		return nil, none, domain.ValidationError{Field: "payment_mode_id", Msg: "payment mode is not active"}
	}

	items := make([]models.TicketItem, 0, len(in.Items))
	lines := make([]domain.LineInput, 0, len(in.Items))
	for _, li := range in.Items {
		item, err := s.refs().GetItem(li.ItemID)
		if err != nil {
			return nil, none, err
		}
		if !item.IsActive {
			return nil, none, domain.ValidationError{Field: "items", Msg: fmt.Sprintf("item %q is not active", item.Name)}
		}
		if li.Quantity <= 0 {
			return nil, none, domain.ValidationError{Field: "items", Msg: "quantity must be positive"}
		}
		if item.IsVehicle && li.VehicleNo == "" {
			return nil, none, domain.ValidationError{Field: "items", Msg: fmt.Sprintf("vehicle number is required for item %q", item.Name)}
		}
		items = append(items, models.TicketItem{
			ItemID:    li.ItemID,
			Rate:      li.Rate,
			Levy:      li.Levy,
			Quantity:  li.Quantity,
			VehicleNo: li.VehicleNo,
		})
		lines = append(lines, domain.LineInput{Rate: li.Rate, Levy: li.Levy, Quantity: li.Quantity})
	}

	amounts := domain.ComputeAmounts(lines, in.Discount)
	if err := domain.CrossCheckAmounts(amounts, in.Amount, in.NetAmount); err != nil {
		utils.LogEvent(s.RequestID, "ticket", "create", "amount cross-check failed: "+err.Error())
		return nil, none, err
	}
	return items, amounts, nil
}

// CreateTicket issues one operator ticket. Every write, including the
// branch counter, lands in a single transaction: a failure anywhere
// rolls back and no ticket number is consumed.
func (s TicketService) CreateTicket(in TicketCreateInput) (TicketDetail, error) {
	items, amounts, err := s.validateCreate(in)
	if err != nil {
		return TicketDetail{}, err
	}

	tx, err := s.db().Begin()
	if err != nil {
		return TicketDetail{}, domain.InternalError{Err: err}
	}
	defer tx.Rollback()

	ticketID, err := s.createInTx(tx, in, items, amounts)
	if err != nil {
		return TicketDetail{}, err
	}
	if err := tx.Commit(); err != nil {
		return TicketDetail{}, domain.InternalError{Err: err}
	}

	utils.LogEvent(s.RequestID, "ticket", "create", "ticket_id="+strconv.FormatInt(ticketID, 10))
	return s.GetTicket(ticketID)
}

func (s TicketService) createInTx(tx *sql.Tx, in TicketCreateInput, items []models.TicketItem, amounts domain.Amounts) (int64, error) {
	ticketDate, err := utils.ParseDate(in.TicketDate)
	if err != nil {
		return 0, domain.ValidationError{Field: "ticket_date", Msg: "expected YYYY-MM-DD", Err: err}
	}
	departure := ""
	if in.Departure != "" {
		if departure, err = utils.NormalizeClock(in.Departure); err != nil {
			return 0, domain.ValidationError{Field: "departure", Msg: err.Error()}
		}
	}

	ticketNo, err := s.branches().NextTicketNo(tx, in.BranchID)
	if err != nil {
		return 0, err
	}

	ticket := models.Ticket{
		BranchID:         in.BranchID,
		TicketNo:         ticketNo,
		TicketDate:       ticketDate,
		Departure:        departure,
		RouteID:          in.RouteID,
		Amount:           amounts.Amount,
		Discount:         in.Discount,
		NetAmount:        amounts.NetAmount,
		PaymentModeID:    in.PaymentModeID,
		Status:           models.StatusConfirmed,
		VerificationCode: uuid.NewString(),
	}
	return s.tickets().InsertTx(tx, ticket, items)
}

// CreateMultiTickets issues a batch of tickets for the operator's
// branch in one transaction. The branch must currently be off-hours
// (outside its [first, last] scheduled departure window); otherwise the
// whole batch is rejected before any ticket exists.
func (s TicketService) CreateMultiTickets(routeID int64, inputs []TicketCreateInput) ([]TicketDetail, error) {
	if routeID <= 0 {
		return nil, domain.ValidationError{Field: "route_id", Msg: "caller has no assigned route"}
	}
	if len(inputs) == 0 {
		return nil, domain.ValidationError{Field: "tickets", Msg: "empty batch"}
	}

	route, err := s.refs().GetRoute(routeID)
	if err != nil {
		return nil, err
	}
	branchID := route.BranchIDOne

	first, last, hasSchedules, err := s.schedules().Window(branchID)
	if err != nil {
		return nil, err
	}
	if hasSchedules {
		now := s.clock()
		if first <= now && now <= last {
			return nil, domain.ValidationError{
				Field: "tickets",
				Msg:   fmt.Sprintf("multi-ticketing is only available outside ferry hours (%s - %s), current time: %s", first, last, now),
			}
		}
	}

	type prepared struct {
		in      TicketCreateInput
		items   []models.TicketItem
		amounts domain.Amounts
	}
	batch := make([]prepared, 0, len(inputs))
	for _, in := range inputs {
		in.BranchID = branchID
		in.RouteID = routeID
		items, amounts, err := s.validateCreate(in)
		if err != nil {
			return nil, err
		}
		batch = append(batch, prepared{in: in, items: items, amounts: amounts})
	}

	tx, err := s.db().Begin()
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer tx.Rollback()

	ids := make([]int64, 0, len(batch))
	for _, p := range batch {
		id, err := s.createInTx(tx, p.in, p.items, p.amounts)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, domain.InternalError{Err: err}
	}

	utils.LogEvent(s.RequestID, "ticket", "create_multi",
		fmt.Sprintf("branch_id=%d count=%d", branchID, len(ids)))

	out := make([]TicketDetail, 0, len(ids))
	for _, id := range ids {
		detail, err := s.GetTicket(id)
		if err != nil {
			return nil, err
		}
		out = append(out, detail)
	}
	return out, nil
}

type TicketUpdateInput struct {
	RouteID       *int64             `json:"route_id"`
	PaymentModeID *int64             `json:"payment_mode_id"`
	Departure     *string            `json:"departure"`
	Discount      *float64           `json:"discount"`
	Amount        *float64           `json:"amount"`
	NetAmount     *float64           `json:"net_amount"`
	Items         []TicketItemInput  `json:"items"`
	Cancel        bool               `json:"is_cancelled"`
}

// UpdateTicket amends a ticket: items replaced, totals recomputed and
// re-checked. Cancelled tickets are immutable; Cancel=true cascades
// cancellation to the items instead.
func (s TicketService) UpdateTicket(ticketID int64, in TicketUpdateInput) (TicketDetail, error) {
	ticket, err := s.tickets().GetByID(ticketID)
	if err != nil {
		return TicketDetail{}, err
	}
	if ticket.IsCancelled {
		return TicketDetail{}, domain.ValidationError{Msg: "cannot update a cancelled ticket"}
	}

	tx, err := s.db().Begin()
	if err != nil {
		return TicketDetail{}, domain.InternalError{Err: err}
	}
	defer tx.Rollback()

	if in.Cancel {
		if err := s.tickets().Cancel(tx, ticketID); err != nil {
			return TicketDetail{}, err
		}
		if err := tx.Commit(); err != nil {
			return TicketDetail{}, domain.InternalError{Err: err}
		}
		utils.LogEvent(s.RequestID, "ticket", "cancel", "ticket_id="+strconv.FormatInt(ticketID, 10))
		return s.GetTicket(ticketID)
	}

	var setCols []string
	var setArgs []any
	if in.RouteID != nil {
		if _, err := s.refs().GetRoute(*in.RouteID); err != nil {
			return TicketDetail{}, err
		}
		setCols = append(setCols, "route_id = ?")
		setArgs = append(setArgs, *in.RouteID)
	}
	if in.PaymentModeID != nil {
		if _, err := s.refs().GetPaymentMode(*in.PaymentModeID); err != nil {
			return TicketDetail{}, err
		}
		setCols = append(setCols, "payment_mode_id = ?")
		setArgs = append(setArgs, *in.PaymentModeID)
	}
	if in.Departure != nil {
		departure := any(nil)
		if *in.Departure != "" {
			clock, err := utils.NormalizeClock(*in.Departure)
			if err != nil {
				return TicketDetail{}, domain.ValidationError{Field: "departure", Msg: err.Error()}
			}
			departure = clock
		}
		setCols = append(setCols, "departure = ?")
		setArgs = append(setArgs, departure)
	}
	if len(setCols) > 0 {
		setArgs = append(setArgs, ticketID)
		if _, err := tx.Exec(`UPDATE tickets SET `+strings.Join(setCols, ", ")+` WHERE id = ?`, setArgs...); err != nil {
			return TicketDetail{}, domain.InternalError{Err: err}
		}
	}

	discount := ticket.Discount
	if in.Discount != nil {
		if *in.Discount < 0 {
			return TicketDetail{}, domain.ValidationError{Field: "discount", Msg: "must not be negative"}
		}
		discount = *in.Discount
	}

	if in.Items != nil {
		items := make([]models.TicketItem, 0, len(in.Items))
		lines := make([]domain.LineInput, 0, len(in.Items))
		for _, li := range in.Items {
			item, err := s.refs().GetItem(li.ItemID)
			if err != nil {
				return TicketDetail{}, err
			}
			if item.IsVehicle && li.VehicleNo == "" {
				return TicketDetail{}, domain.ValidationError{Field: "items", Msg: fmt.Sprintf("vehicle number is required for item %q", item.Name)}
			}
			items = append(items, models.TicketItem{
				ItemID:    li.ItemID,
				Rate:      li.Rate,
				Levy:      li.Levy,
				Quantity:  li.Quantity,
				VehicleNo: li.VehicleNo,
			})
			lines = append(lines, domain.LineInput{Rate: li.Rate, Levy: li.Levy, Quantity: li.Quantity})
		}

		amounts := domain.ComputeAmounts(lines, discount)
		if in.Amount != nil && in.NetAmount != nil {
			if err := domain.CrossCheckAmounts(amounts, *in.Amount, *in.NetAmount); err != nil {
				utils.LogEvent(s.RequestID, "ticket", "update", "amount cross-check failed: "+err.Error())
				return TicketDetail{}, err
			}
		}
		err = s.tickets().ReplaceItems(tx, ticketID, items, models.TicketAmounts{
			Amount:    amounts.Amount,
			Discount:  discount,
			NetAmount: amounts.NetAmount,
		})
		if err != nil {
			return TicketDetail{}, err
		}
	} else if in.Discount != nil {
		net := domain.Round2(ticket.Amount - discount)
		_, err := tx.Exec(`UPDATE tickets SET discount = ?, net_amount = ? WHERE id = ?`, discount, net, ticketID)
		if err != nil {
			return TicketDetail{}, domain.InternalError{Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return TicketDetail{}, domain.InternalError{Err: err}
	}
	utils.LogEvent(s.RequestID, "ticket", "update", "ticket_id="+strconv.FormatInt(ticketID, 10))
	return s.GetTicket(ticketID)
}

func (s TicketService) GetTicket(id int64) (TicketDetail, error) {
	ticket, err := s.tickets().GetByID(id)
	if err != nil {
		return TicketDetail{}, err
	}
	items, err := s.tickets().ItemsByTicketID(id)
	if err != nil {
		return TicketDetail{}, err
	}
	return s.enrich(ticket, items), nil
}

// ListTickets pages tickets with the admin filters; items are omitted
// from list rows.
func (s TicketService) ListTickets(f repositories.TicketFilter) ([]TicketDetail, int, error) {
	total, err := s.tickets().Count(f)
	if err != nil {
		return nil, 0, err
	}
	list, err := s.tickets().List(f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]TicketDetail, 0, len(list))
	for _, t := range list {
		out = append(out, s.enrich(t, nil))
	}
	return out, total, nil
}

func (s TicketService) enrich(t models.Ticket, items []models.TicketItem) TicketDetail {
	detail := TicketDetail{
		Ticket:          t,
		BranchName:      s.refs().BranchName(t.BranchID),
		RouteName:       s.refs().RouteDisplayName(t.RouteID),
		PaymentModeName: s.refs().PaymentModeName(t.PaymentModeID),
	}
	for _, it := range items {
		detail.Items = append(detail.Items, TicketItemDetail{
			TicketItem: it,
			ItemName:   s.refs().ItemName(it.ItemID),
			Amount:     domain.LineAmount(it.Quantity, it.Rate, it.Levy),
		})
	}
	return detail
}
