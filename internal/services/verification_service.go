package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	intconfig "ferryops/internal/config"
	"ferryops/internal/domain"
	"ferryops/internal/domain/models"
	"ferryops/internal/repositories"
	"ferryops/internal/utils"
)

// VerificationService owns the signed code payload and the one-time
// check-in transition for both tickets and bookings.
type VerificationService struct {
	VerifyRepo repositories.VerificationRepo
	RefRepo    repositories.ReferenceRepo
	TicketRepo repositories.TicketRepo
	DB         *sql.DB
	Secret     string
	RequestID  string

	// Now overrides the check-in timestamp in tests.
	Now func() time.Time
}

func (s VerificationService) db() *sql.DB {
	if s.DB != nil {
		return s.DB
	}
	return intconfig.DB
}

func (s VerificationService) verify() repositories.VerificationRepo {
	if s.VerifyRepo.DB != nil {
		return s.VerifyRepo
	}
	return repositories.VerificationRepo{DB: s.db()}
}

func (s VerificationService) refs() repositories.ReferenceRepo {
	if s.RefRepo.DB != nil {
		return s.RefRepo
	}
	return repositories.ReferenceRepo{DB: s.db()}
}

func (s VerificationService) tickets() repositories.TicketRepo {
	if s.TicketRepo.DB != nil {
		return s.TicketRepo
	}
	return repositories.TicketRepo{DB: s.db()}
}

func (s VerificationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return utils.NowUTC()
}

func (s VerificationService) sign(code string) string {
	mac := hmac.New(sha256.New, []byte(s.Secret))
	mac.Write([]byte(code))
	return hex.EncodeToString(mac.Sum(nil))[:16]
}

// Payload builds the printed/displayed form of a verification code:
// "code.signature". The signature lets a scanner reject tampered
// payloads without a database round trip.
func (s VerificationService) Payload(code string) string {
	return code + "." + s.sign(code)
}

// DecodePayload validates a scanned payload and returns the bare code.
// A bare code without a signature is accepted for manual entry; a
// present-but-wrong signature is rejected as tampered, which is
// distinct from not-found.
func (s VerificationService) DecodePayload(payload string) (string, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return "", domain.ValidationError{Field: "payload", Msg: "empty verification payload"}
	}
	dot := strings.LastIndex(payload, ".")
	if dot < 0 {
		return payload, nil
	}
	code, sig := payload[:dot], payload[dot+1:]
	if !hmac.Equal([]byte(sig), []byte(s.sign(code))) {
		return "", domain.ValidationError{Field: "payload", Msg: "invalid or tampered verification code"}
	}
	return code, nil
}

// VerificationResult is the checker's view of a scanned reservation.
type VerificationResult struct {
	models.Reservation
	BranchName     string                   `json:"branch_name"`
	RouteName      string                   `json:"route_name"`
	PassengerCount int                      `json:"passenger_count"`
	Items          []models.ReservationItem `json:"items"`
}

// CheckInResult reports a successful (or already-performed) check-in.
type CheckInResult struct {
	Kind        models.ReservationKind `json:"source"`
	ID          int64                  `json:"id"`
	ReferenceNo int64                  `json:"reference_no"`
	CheckedInAt time.Time              `json:"checked_in_at"`
}

func (s VerificationService) scopeCheck(ctx domain.RequestContext, res models.Reservation) error {
	if ctx.ElevatedRole() {
		return nil
	}
	if ctx.RouteID > 0 && ctx.RouteID != res.RouteID {
		return domain.ValidationError{Msg: "reservation is outside your assigned route"}
	}
	return nil
}

// Lookup resolves a scanned payload to reservation details without
// changing any state.
func (s VerificationService) Lookup(ctx domain.RequestContext, payload string) (VerificationResult, error) {
	code, err := s.DecodePayload(payload)
	if err != nil {
		return VerificationResult{}, err
	}
	res, err := s.verify().FindByCode(code)
	if err != nil {
		return VerificationResult{}, err
	}
	if err := s.scopeCheck(ctx, res); err != nil {
		return VerificationResult{}, err
	}
	return s.buildResult(res)
}

// LookupTicketByNo is the manual fallback at the gate: branch plus
// printed ticket number instead of a scan.
func (s VerificationService) LookupTicketByNo(ctx domain.RequestContext, branchID, ticketNo int64) (VerificationResult, error) {
	t, err := s.tickets().FindByNo(branchID, ticketNo)
	if err != nil {
		return VerificationResult{}, err
	}
	res := models.Reservation{
		Kind:             models.KindTicket,
		ID:               t.ID,
		ReferenceNo:      t.TicketNo,
		BranchID:         t.BranchID,
		RouteID:          t.RouteID,
		TravelDate:       t.TicketDate,
		Departure:        t.Departure,
		NetAmount:        t.NetAmount,
		Status:           t.Status,
		IsCancelled:      t.IsCancelled,
		CheckedInAt:      t.CheckedInAt,
		VerificationCode: t.VerificationCode,
	}
	if err := s.scopeCheck(ctx, res); err != nil {
		return VerificationResult{}, err
	}
	return s.buildResult(res)
}

// CheckIn performs the one-time verification transition. The write is
// an atomic conditional update, so two concurrent scans of the same
// code cannot both succeed: the loser observes the verified state and
// gets a conflict carrying the original timestamp.
func (s VerificationService) CheckIn(ctx domain.RequestContext, payload string) (CheckInResult, error) {
	code, err := s.DecodePayload(payload)
	if err != nil {
		return CheckInResult{}, err
	}
	res, err := s.verify().FindByCode(code)
	if err != nil {
		return CheckInResult{}, err
	}
	if err := s.scopeCheck(ctx, res); err != nil {
		return CheckInResult{}, err
	}
	if err := s.rejectUncheckable(res); err != nil {
		return CheckInResult{}, err
	}

	at := s.now()
	ok, err := s.verify().MarkVerified(res.Kind, code, at)
	if err != nil {
		return CheckInResult{}, err
	}
	if !ok {
		// Lost a race or state moved under us; re-read to classify.
		res, err = s.verify().FindByCode(code)
		if err != nil {
			return CheckInResult{}, err
		}
		if err := s.rejectUncheckable(res); err != nil {
			return CheckInResult{}, err
		}
		return CheckInResult{}, domain.InternalError{Msg: "check-in affected no rows"}
	}

	utils.LogEvent(s.RequestID, "verification", "check_in",
		fmt.Sprintf("%s_id=%s at=%s", res.Kind, strconv.FormatInt(res.ID, 10), at.Format(time.RFC3339)))
	return CheckInResult{
		Kind:        res.Kind,
		ID:          res.ID,
		ReferenceNo: res.ReferenceNo,
		CheckedInAt: at,
	}, nil
}

func (s VerificationService) rejectUncheckable(res models.Reservation) error {
	if res.IsCancelled || res.Status == models.StatusCancelled {
		return domain.ValidationError{Msg: fmt.Sprintf("cannot check in a cancelled %s", res.Kind)}
	}
	if res.Kind == models.KindBooking && res.Status == models.StatusPending {
		return domain.ValidationError{Msg: "payment is not confirmed for this booking"}
	}
	if res.Status == models.StatusVerified || res.CheckedInAt != nil {
		msg := "already checked in"
		if res.CheckedInAt != nil {
			msg = fmt.Sprintf("already checked in at %s", res.CheckedInAt.Format(time.RFC3339))
		}
		return domain.ConflictError{Resource: string(res.Kind), Msg: msg}
	}
	return nil
}

func (s VerificationService) buildResult(res models.Reservation) (VerificationResult, error) {
	items, passengers, err := s.verify().ItemsForReservation(res)
	if err != nil {
		return VerificationResult{}, err
	}
	return VerificationResult{
		Reservation:    res,
		BranchName:     s.refs().BranchName(res.BranchID),
		RouteName:      s.refs().RouteDisplayName(res.RouteID),
		PassengerCount: passengers,
		Items:          items,
	}, nil
}
