package cgt

import (
	"errors"
	"testing"
)

func TestPool_AverageCostAccumulation(t *testing.T) {
	// Three acquisitions pooled into a single average-cost holding, then a
	// partial disposal at the running average.
	pool := NewPool("VWRL", GBP)
	pool.Acquire(qty(1000), gbp(150000))
	pool.Acquire(qty(500), gbp(90000))
	pool.Acquire(qty(300), gbp(60000))

	if got := pool.Quantity(); !got.Equal(qty(1800)) {
		t.Fatalf("Quantity() = %s, want 1800", got)
	}
	if got := pool.Cost(); !got.Equal(gbp(300000)) {
		t.Fatalf("Cost() = %s, want £300,000", got)
	}

	matched, err := pool.Dispose(qty(600))
	if err != nil {
		t.Fatalf("Dispose() error = %v", err)
	}
	// 600/1800 of £300,000 exactly, kept at full precision: the average is
	// never rounded per mutation.
	if !matched.Equal(gbp(100000)) {
		t.Errorf("Dispose() matched cost = %s, want £100,000", matched)
	}
	if got := pool.Quantity(); !got.Equal(qty(1200)) {
		t.Errorf("remaining Quantity() = %s, want 1200", got)
	}
	if got := pool.Cost(); !got.Equal(gbp(200000)) {
		t.Errorf("remaining Cost() = %s, want £200,000", got)
	}
}

func TestPool_DisposeAll(t *testing.T) {
	pool := NewPool("VWRL", GBP)
	pool.Acquire(qty(3), gbp(100))

	matched, err := pool.Dispose(qty(3))
	if err != nil {
		t.Fatalf("Dispose() error = %v", err)
	}
	if !matched.Equal(gbp(100)) {
		t.Errorf("matched cost = %s, want £100", matched)
	}
	if !pool.Quantity().IsZero() || !pool.Cost().IsZero() {
		t.Errorf("empty pool = (%s, %s), want (0, 0)", pool.Quantity(), pool.Cost())
	}
	if !pool.AverageCost().IsZero() {
		t.Errorf("AverageCost() on empty pool = %s, want 0", pool.AverageCost())
	}

	// A fully disposed pool can be reactivated by later acquisitions.
	pool.Acquire(qty(10), gbp(50))
	if !pool.AverageCost().Equal(gbp(5)) {
		t.Errorf("AverageCost() after reactivation = %s, want £5", pool.AverageCost())
	}
}

func TestPool_InsufficientQuantity(t *testing.T) {
	pool := NewPool("VWRL", GBP)
	pool.Acquire(qty(10), gbp(100))

	_, err := pool.Dispose(qty(11))
	if err == nil {
		t.Fatal("Dispose() of more than held: expected error")
	}
	var insufficient *InsufficientPoolError
	if !errors.As(err, &insufficient) {
		t.Fatalf("error type = %T, want *InsufficientPoolError", err)
	}
	if insufficient.Security != "VWRL" {
		t.Errorf("Security = %q, want VWRL", insufficient.Security)
	}
	// The failed disposal must not have mutated the pool.
	if !pool.Quantity().Equal(qty(10)) {
		t.Errorf("Quantity() after failed dispose = %s, want 10", pool.Quantity())
	}
}
