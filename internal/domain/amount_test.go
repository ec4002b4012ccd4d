package domain

import (
	"math"
	"testing"
)

func TestRound2HalfUp(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{10.125, 10.13},
		{10.124, 10.12},
		{9.999, 10.00},
		{0, 0},
		{24.0, 24.0},
	}
	for _, c := range cases {
		if got := Round2(c.in); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("Round2(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestLineAmount(t *testing.T) {
	// 2 x (10.00 + 2.00) = 24.00
	if got := LineAmount(2, 10, 2); got != 24.00 {
		t.Fatalf("LineAmount = %v, want 24.00", got)
	}
	// rounding applies per line: 3 x 3.333 = 9.999 -> 10.00
	if got := LineAmount(3, 3.333, 0); got != 10.00 {
		t.Fatalf("LineAmount = %v, want 10.00", got)
	}
}

func TestComputeAmountsSkipsCancelledLines(t *testing.T) {
	items := []LineInput{
		{Rate: 10, Levy: 2, Quantity: 2},
		{Rate: 100, Levy: 0, Quantity: 1, IsCancelled: true},
		{Rate: 5.55, Levy: 0, Quantity: 1},
	}
	got := ComputeAmounts(items, 0.55)
	if got.Amount != 29.55 {
		t.Fatalf("Amount = %v, want 29.55", got.Amount)
	}
	if got.NetAmount != 29.00 {
		t.Fatalf("NetAmount = %v, want 29.00", got.NetAmount)
	}
}

func TestComputeAmountsNetIsAmountMinusDiscount(t *testing.T) {
	got := ComputeAmounts([]LineInput{{Rate: 10, Levy: 2, Quantity: 2}}, 4)
	if got.Amount != 24.00 || got.NetAmount != 20.00 {
		t.Fatalf("got %+v, want amount 24.00 net 20.00", got)
	}
}

func TestCrossCheckAmountsWithinTolerance(t *testing.T) {
	computed := Amounts{Amount: 24.00, NetAmount: 24.00}
	if err := CrossCheckAmounts(computed, 24.01, 23.99); err != nil {
		t.Fatalf("expected differences within tolerance to pass, got %v", err)
	}
}

func TestCrossCheckAmountsMismatch(t *testing.T) {
	computed := Amounts{Amount: 24.00, NetAmount: 24.00}

	err := CrossCheckAmounts(computed, 25.00, 24.00)
	if !IsIntegrity(err) {
		t.Fatalf("expected integrity error on amount mismatch, got %v", err)
	}

	err = CrossCheckAmounts(computed, 24.00, 22.00)
	if !IsIntegrity(err) {
		t.Fatalf("expected integrity error on net mismatch, got %v", err)
	}

	// one cent past the tolerance is rejected
	err = CrossCheckAmounts(computed, 24.02, 24.00)
	if !IsIntegrity(err) {
		t.Fatalf("expected integrity error just past tolerance, got %v", err)
	}
}
