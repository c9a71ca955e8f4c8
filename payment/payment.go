// Package payment prices purchases and records them once the wallet reports
// a completed payment.
package payment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/localpi/pilocal/market"
	"github.com/shopspring/decimal"
)

// DefaultCommissionPercent is the marketplace fee added on top of the price.
const DefaultCommissionPercent = 5

var (
	// ErrInvalidAmount is returned for amounts that are not positive decimals.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrSelfPurchase is returned when the buyer is also the seller.
	ErrSelfPurchase = errors.New("buyer and seller are the same user")
)

var hundred = decimal.NewFromInt(100)

// A Quote is what the buyer pays for a listing. All values are decimal
// strings with two fraction digits.
type Quote struct {
	Amount     string `json:"amount"`
	Commission string `json:"commission"`
	Total      string `json:"total"`
}

// A Completion is reported by the wallet SDK when a payment went through.
type Completion struct {
	PaymentID    string `json:"paymentId"`
	TxID         string `json:"txid"`
	ListingID    string `json:"listingId"`
	ListingTitle string `json:"listingTitle"`
	BuyerID      string `json:"buyerId"`
	SellerID     string `json:"sellerId"`
	Amount       string `json:"amount"`
}

// Service records completed payments in the store.
type Service struct {
	store   *market.Store
	percent decimal.Decimal
	logger  *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewService returns a Service charging percent commission.
func NewService(store *market.Store, percent float64, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		store:   store,
		percent: decimal.NewFromFloat(percent),
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := market.ParseDecimal(s)
	if err != nil || !d.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// Quote computes the commission and total for a listing price.
func (s *Service) Quote(amount string) (Quote, error) {
	a, err := parseAmount(amount)
	if err != nil {
		return Quote{}, err
	}
	c := a.Mul(s.percent).Div(hundred)
	return Quote{
		Amount:     a.StringFixed(2),
		Commission: c.StringFixed(2),
		Total:      a.Add(c).StringFixed(2),
	}, nil
}

// Complete records a finished payment: a pending escrow transaction in both
// the buyer's and the seller's namespace, plus their purchase and sale
// stats. The payment id becomes the transaction id when present.
//
// Reporting the same payment id again records nothing new and returns the
// transaction stored the first time.
func (s *Service) Complete(ctx context.Context, c Completion) (market.EscrowTransaction, error) {
	a, err := parseAmount(c.Amount)
	if err != nil {
		return market.EscrowTransaction{}, err
	}
	if c.BuyerID == c.SellerID {
		return market.EscrowTransaction{}, fmt.Errorf("%w: %q", ErrSelfPurchase, c.BuyerID)
	}
	title := c.ListingTitle
	if title == "" {
		l, ok, err := s.store.Listings().Find(ctx, c.ListingID)
		if err != nil {
			return market.EscrowTransaction{}, fmt.Errorf("find listing: %w", err)
		}
		if ok {
			title = l.Title
		}
	}
	id := c.PaymentID
	if id == "" {
		id = s.newID()
	}

	tx := market.EscrowTransaction{
		ID:           id,
		ListingID:    c.ListingID,
		ListingTitle: title,
		BuyerID:      c.BuyerID,
		SellerID:     c.SellerID,
		Amount:       a.StringFixed(2),
		Status:       market.EscrowPending,
		CreatedAt:    s.now().UTC(),
	}
	pi := a.InexactFloat64()

	sides := []struct {
		userID string
		kind   market.TransactionKind
	}{
		{userID: c.BuyerID, kind: market.KindPurchase},
		{userID: c.SellerID, kind: market.KindSale},
	}
	recorded := false
	for _, side := range sides {
		inserted, err := s.store.UserEscrow(side.userID).InsertIfAbsent(ctx, tx)
		if err != nil {
			return market.EscrowTransaction{}, fmt.Errorf("record escrow for %s: %w", side.userID, err)
		}
		if !inserted {
			continue
		}
		recorded = true
		if err := s.store.RecordTransaction(ctx, side.userID, side.kind, pi); err != nil {
			return market.EscrowTransaction{}, err
		}
	}

	if !recorded {
		s.logger.Info("Payment already recorded", "payment_id", id, "txid", c.TxID)
		stored, ok, err := s.store.UserEscrow(c.BuyerID).Find(ctx, id)
		if err != nil {
			return market.EscrowTransaction{}, fmt.Errorf("find escrow: %w", err)
		}
		if ok {
			return stored, nil
		}
		return tx, nil
	}
	s.logger.Info("Payment recorded", "payment_id", id, "txid", c.TxID, "listing_id", c.ListingID, "amount", tx.Amount)
	return tx, nil
}
