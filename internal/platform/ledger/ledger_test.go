package ledger

import (
	"context"
	"math"
	"testing"
)

func TestCreditAndDebit(t *testing.T) {
	l := NewLedger(nil)

	if err := l.Credit(context.Background(), "acct_1", 300); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if err := l.Debit(context.Background(), "acct_1", 100); err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	if got := l.Balance("acct_1"); got != 200 {
		t.Fatalf("expected balance 200, got %d", got)
	}
}

func TestDebitRejectsInsufficientBalance(t *testing.T) {
	l := NewLedger(nil)
	l.Seed("acct_1", 50)

	if err := l.Debit(context.Background(), "acct_1", 100); err == nil {
		t.Fatal("expected debit to be rejected")
	}
	if got := l.Balance("acct_1"); got != 50 {
		t.Fatalf("expected balance untouched at 50, got %d", got)
	}
}

func TestCreditRejectsOverflow(t *testing.T) {
	l := NewLedger(nil)
	l.Seed("acct_1", math.MaxUint64)

	if err := l.Credit(context.Background(), "acct_1", 1); err == nil {
		t.Fatal("expected credit to be rejected on overflow")
	}
	if got := l.Balance("acct_1"); got != math.MaxUint64 {
		t.Fatalf("expected balance unchanged, got %d", got)
	}
}
