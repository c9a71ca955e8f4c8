package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/localpi/pilocal/market"
	"github.com/neilotoole/slogt"
)

func TestService_Quote(t *testing.T) {
	svc := NewService(nil, DefaultCommissionPercent, slogt.New(t))

	tests := []struct {
		amount  string
		want    Quote
		wantErr error
	}{
		{amount: "100", want: Quote{Amount: "100.00", Commission: "5.00", Total: "105.00"}},
		{amount: "425", want: Quote{Amount: "425.00", Commission: "21.25", Total: "446.25"}},
		{amount: "0.3", want: Quote{Amount: "0.30", Commission: "0.02", Total: "0.32"}},
		{amount: "0", wantErr: ErrInvalidAmount},
		{amount: "-4", wantErr: ErrInvalidAmount},
		{amount: "ten", wantErr: ErrInvalidAmount},
		{amount: "1/3", wantErr: ErrInvalidAmount},
		{amount: "1e3", wantErr: ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got, err := svc.Quote(tt.amount)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Got error %v, want %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Quote() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestService_Complete(t *testing.T) {
	ctx := context.Background()
	store := market.New(market.NewMemoryKV(), market.WithLogger(slogt.New(t)))
	if _, err := store.SeedDefaults(ctx, time.Now()); err != nil {
		t.Fatal(err)
	}
	now := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	svc := NewService(store, DefaultCommissionPercent, slogt.New(t))
	svc.now = func() time.Time { return now }

	got, err := svc.Complete(ctx, Completion{
		PaymentID: "pay_1",
		TxID:      "tx_1",
		ListingID: "1",
		BuyerID:   "bob",
		SellerID:  "Marie L.",
		Amount:    "425",
	})
	if err != nil {
		t.Fatal(err)
	}
	want := market.EscrowTransaction{
		ID:           "pay_1",
		ListingID:    "1",
		ListingTitle: "iPhone 14 Pro Max 256GB",
		BuyerID:      "bob",
		SellerID:     "Marie L.",
		Amount:       "425.00",
		Status:       market.EscrowPending,
		CreatedAt:    now,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Complete() mismatch (-want +got):\n%s", diff)
	}

	for _, user := range []string{"bob", "Marie L."} {
		txs, err := store.EscrowTransactions(ctx, user)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]market.EscrowTransaction{want}, txs); diff != "" {
			t.Errorf("%s escrow mismatch (-want +got):\n%s", user, diff)
		}
	}

	buyer, _ := store.Stats(ctx, "bob")
	if diff := cmp.Diff(market.Stats{Purchases: 1, PiExchanged: 425}, buyer); diff != "" {
		t.Errorf("buyer stats mismatch (-want +got):\n%s", diff)
	}
	seller, _ := store.Stats(ctx, "Marie L.")
	if diff := cmp.Diff(market.Stats{Sales: 1, PiExchanged: 425}, seller); diff != "" {
		t.Errorf("seller stats mismatch (-want +got):\n%s", diff)
	}
}

func TestService_CompleteGeneratesID(t *testing.T) {
	ctx := context.Background()
	store := market.New(market.NewMemoryKV())
	svc := NewService(store, DefaultCommissionPercent, nil)
	svc.newID = func() string { return "generated" }

	got, err := svc.Complete(ctx, Completion{ListingID: "x", ListingTitle: "Lamp", BuyerID: "b", SellerID: "s", Amount: "3"})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "generated" || got.ListingTitle != "Lamp" {
		t.Errorf("Complete() = %+v", got)
	}

	if _, err := svc.Complete(ctx, Completion{BuyerID: "b", SellerID: "s", Amount: "free"}); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Got error %v, want ErrInvalidAmount", err)
	}
}

func TestService_CompleteReplay(t *testing.T) {
	ctx := context.Background()
	store := market.New(market.NewMemoryKV(), market.WithLogger(slogt.New(t)))
	svc := NewService(store, DefaultCommissionPercent, slogt.New(t))
	first := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return first }

	c := Completion{PaymentID: "pay-1", ListingID: "l1", ListingTitle: "Lamp", BuyerID: "bob", SellerID: "alice", Amount: "10"}
	want, err := svc.Complete(ctx, c)
	if err != nil {
		t.Fatal(err)
	}

	svc.now = func() time.Time { return first.Add(time.Hour) }
	got, err := svc.Complete(ctx, c)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Second Complete() mismatch (-want +got):\n%s", diff)
	}

	for _, user := range []string{"bob", "alice"} {
		txs, err := store.EscrowTransactions(ctx, user)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]market.EscrowTransaction{want}, txs); diff != "" {
			t.Errorf("%s escrow mismatch (-want +got):\n%s", user, diff)
		}
	}
	buyer, _ := store.Stats(ctx, "bob")
	if diff := cmp.Diff(market.Stats{Purchases: 1, PiExchanged: 10}, buyer); diff != "" {
		t.Errorf("buyer stats mismatch (-want +got):\n%s", diff)
	}
	seller, _ := store.Stats(ctx, "alice")
	if diff := cmp.Diff(market.Stats{Sales: 1, PiExchanged: 10}, seller); diff != "" {
		t.Errorf("seller stats mismatch (-want +got):\n%s", diff)
	}
}

func TestService_CompleteSelfPurchase(t *testing.T) {
	ctx := context.Background()
	store := market.New(market.NewMemoryKV())
	svc := NewService(store, DefaultCommissionPercent, nil)

	_, err := svc.Complete(ctx, Completion{PaymentID: "pay-1", ListingID: "l1", BuyerID: "carol", SellerID: "carol", Amount: "10"})
	if !errors.Is(err, ErrSelfPurchase) {
		t.Errorf("Got error %v, want ErrSelfPurchase", err)
	}
	txs, _ := store.EscrowTransactions(ctx, "carol")
	if len(txs) != 0 {
		t.Errorf("carol has %d escrow records, want 0", len(txs))
	}
}
