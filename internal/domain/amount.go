package domain

import (
	"fmt"
	"math"
)

// LineInput is the minimal shape the amount calculator needs from a
// ticket or booking line.
type LineInput struct {
	Rate        float64
	Levy        float64
	Quantity    int
	IsCancelled bool
}

// Amounts are the authoritative totals for a sale.
type Amounts struct {
	Amount    float64 `json:"amount"`
	NetAmount float64 `json:"net_amount"`
}

// AmountTolerance is the cent tolerance used when cross-checking
// caller-submitted totals.
const AmountTolerance = 0.01

// Round2 rounds to 2 decimal places, half up.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// LineAmount computes quantity * (rate + levy), rounded per line.
func LineAmount(quantity int, rate, levy float64) float64 {
	return Round2(float64(quantity) * (rate + levy))
}

// ComputeAmounts sums non-cancelled lines and applies the discount.
// Rounding happens at each line and again at the total.
func ComputeAmounts(items []LineInput, discount float64) Amounts {
	total := 0.0
	for _, it := range items {
		if it.IsCancelled {
			continue
		}
		total += LineAmount(it.Quantity, it.Rate, it.Levy)
	}
	amount := Round2(total)
	return Amounts{
		Amount:    amount,
		NetAmount: Round2(amount - discount),
	}
}

// CrossCheckAmounts compares computed totals against caller-submitted
// ones. A mismatch beyond the tolerance means the client priced with
// stale rates, reported as an integrity error.
// Differences are rounded to cents before comparison so a submission
// exactly at the tolerance is accepted despite binary float drift.
func CrossCheckAmounts(computed Amounts, submittedAmount, submittedNet float64) error {
	if Round2(math.Abs(computed.Amount-submittedAmount)) > AmountTolerance {
		return IntegrityError{
			Msg: fmt.Sprintf("amount mismatch: expected %.2f, got %.2f", computed.Amount, submittedAmount),
		}
	}
	if Round2(math.Abs(computed.NetAmount-submittedNet)) > AmountTolerance {
		return IntegrityError{
			Msg: fmt.Sprintf("net amount mismatch: expected %.2f, got %.2f", computed.NetAmount, submittedNet),
		}
	}
	return nil
}
