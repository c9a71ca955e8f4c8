package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func escrowTx(id string) EscrowTransaction {
	return EscrowTransaction{
		ID:           id,
		ListingID:    "l1",
		ListingTitle: "Bike",
		BuyerID:      "bob",
		SellerID:     "alice",
		Amount:       "42.5",
		Status:       EscrowPending,
		CreatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestEscrowPolicy_CanTransition(t *testing.T) {
	tests := []struct {
		from, to   EscrowStatus
		strict     bool
		permissive bool
	}{
		{from: EscrowPending, to: EscrowConfirmed, strict: true, permissive: true},
		{from: EscrowConfirmed, to: EscrowReleased, strict: true, permissive: true},
		{from: EscrowConfirmed, to: EscrowDisputed, strict: true, permissive: true},
		{from: EscrowDisputed, to: EscrowReleased, strict: true, permissive: true},
		{from: EscrowReleased, to: EscrowReleased, strict: true, permissive: true},
		{from: EscrowPending, to: EscrowReleased, strict: false, permissive: true},
		{from: EscrowReleased, to: EscrowPending, strict: false, permissive: true},
		{from: EscrowDisputed, to: EscrowConfirmed, strict: false, permissive: true},
		{from: EscrowPending, to: "refunded", strict: false, permissive: false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := EscrowStrict.CanTransition(tt.from, tt.to); got != tt.strict {
				t.Errorf("strict: got %v, want %v", got, tt.strict)
			}
			if got := EscrowPermissive.CanTransition(tt.from, tt.to); got != tt.permissive {
				t.Errorf("permissive: got %v, want %v", got, tt.permissive)
			}
		})
	}
}

func TestParseEscrowPolicy(t *testing.T) {
	for _, p := range []EscrowPolicy{EscrowStrict, EscrowPermissive} {
		got, err := ParseEscrowPolicy(p.String())
		if err != nil || got != p {
			t.Errorf("ParseEscrowPolicy(%q) = %v, %v", p.String(), got, err)
		}
	}
	if _, err := ParseEscrowPolicy("lenient"); err == nil {
		t.Error("ParseEscrowPolicy(lenient) succeeded")
	}
}

func TestStore_EscrowLifecycle(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	for _, id := range []string{"t1", "t2"} {
		if err := s.AddEscrowTransaction(ctx, "bob", escrowTx(id)); err != nil {
			t.Fatal(err)
		}
	}
	for _, st := range []EscrowStatus{EscrowConfirmed, EscrowReleased} {
		if err := s.UpdateEscrowStatus(ctx, "bob", "t1", st); err != nil {
			t.Fatalf("UpdateEscrowStatus(%s): %v", st, err)
		}
	}

	got, err := s.EscrowTransactions(ctx, "bob")
	if err != nil {
		t.Fatal(err)
	}
	released := escrowTx("t1")
	released.Status = EscrowReleased
	want := []EscrowTransaction{escrowTx("t2"), released}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("EscrowTransactions() mismatch (-want +got):\n%s", diff)
	}

	other, _ := s.EscrowTransactions(ctx, "alice")
	if len(other) != 0 {
		t.Errorf("alice has %d transactions, want 0", len(other))
	}
}

func TestStore_UpdateEscrowStatusStrict(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	if err := s.AddEscrowTransaction(ctx, "bob", escrowTx("t1")); err != nil {
		t.Fatal(err)
	}

	err := s.UpdateEscrowStatus(ctx, "bob", "t1", EscrowReleased)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Got error %v, want ErrInvalidTransition", err)
	}
	got, _ := s.EscrowTransactions(ctx, "bob")
	if got[0].Status != EscrowPending {
		t.Errorf("status = %s, want pending", got[0].Status)
	}

	if err := s.UpdateEscrowStatus(ctx, "bob", "t1", "lost"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("Got error %v, want ErrInvalidStatus", err)
	}
	if err := s.UpdateEscrowStatus(ctx, "bob", "nope", EscrowConfirmed); !errors.Is(err, ErrNotFound) {
		t.Errorf("Got error %v, want ErrNotFound", err)
	}
	if err := s.UpdateEscrowStatus(ctx, "alice", "t1", EscrowConfirmed); !errors.Is(err, ErrNotFound) {
		t.Errorf("Other user's transaction: got error %v, want ErrNotFound", err)
	}
}

func TestStore_UpdateEscrowStatusPermissive(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, WithEscrowPolicy(EscrowPermissive))
	if err := s.AddEscrowTransaction(ctx, "bob", escrowTx("t1")); err != nil {
		t.Fatal(err)
	}
	for _, st := range []EscrowStatus{EscrowReleased, EscrowPending} {
		if err := s.UpdateEscrowStatus(ctx, "bob", "t1", st); err != nil {
			t.Fatalf("UpdateEscrowStatus(%s): %v", st, err)
		}
	}
	got, _ := s.EscrowTransactions(ctx, "bob")
	if got[0].Status != EscrowPending {
		t.Errorf("status = %s, want pending", got[0].Status)
	}
}

func TestStore_AddEscrowTransactionDefaults(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	tx := escrowTx("t1")
	tx.Status = ""
	if err := s.AddEscrowTransaction(ctx, "bob", tx); err != nil {
		t.Fatal(err)
	}
	got, _ := s.EscrowTransactions(ctx, "bob")
	if got[0].Status != EscrowPending {
		t.Errorf("status = %q, want pending", got[0].Status)
	}

	tx.Status = "lost"
	if err := s.AddEscrowTransaction(ctx, "bob", tx); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("Got error %v, want ErrInvalidStatus", err)
	}
}
