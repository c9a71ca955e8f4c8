package market

import (
	"context"
	"fmt"
)

// EscrowPolicy decides which escrow status changes are accepted.
type EscrowPolicy int

const (
	// EscrowStrict accepts only the transitions listed in escrowTransitions.
	EscrowStrict EscrowPolicy = iota
	// EscrowPermissive accepts any change between known statuses.
	EscrowPermissive
)

// ParseEscrowPolicy parses "strict" or "permissive".
func ParseEscrowPolicy(s string) (EscrowPolicy, error) {
	switch s {
	case "strict":
		return EscrowStrict, nil
	case "permissive":
		return EscrowPermissive, nil
	}
	return 0, fmt.Errorf("unknown escrow policy %q", s)
}

func (p EscrowPolicy) String() string {
	if p == EscrowPermissive {
		return "permissive"
	}
	return "strict"
}

var escrowTransitions = map[EscrowStatus][]EscrowStatus{
	EscrowPending:   {EscrowConfirmed},
	EscrowConfirmed: {EscrowReleased, EscrowDisputed},
	EscrowDisputed:  {EscrowReleased},
}

// CanTransition reports whether the policy allows moving from one status to
// another. Staying on the same status is always allowed.
func (p EscrowPolicy) CanTransition(from, to EscrowStatus) bool {
	if !to.Valid() {
		return false
	}
	if p == EscrowPermissive || from == to {
		return true
	}
	for _, next := range escrowTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// EscrowTransactions returns userID's escrow transactions, most recent first.
func (s *Store) EscrowTransactions(ctx context.Context, userID string) ([]EscrowTransaction, error) {
	return s.UserEscrow(userID).List(ctx)
}

func validateEscrow(t EscrowTransaction) error {
	if !t.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	return nil
}

// EscrowTransaction returns one of userID's escrow transactions.
func (s *Store) EscrowTransaction(ctx context.Context, userID, transactionID string) (EscrowTransaction, error) {
	t, ok, err := s.UserEscrow(userID).Find(ctx, transactionID)
	if err != nil {
		return EscrowTransaction{}, err
	}
	if !ok {
		return EscrowTransaction{}, fmt.Errorf("escrow %s: %w", transactionID, ErrNotFound)
	}
	return t, nil
}

// AddEscrowTransaction stores t first in userID's escrow transactions.
func (s *Store) AddEscrowTransaction(ctx context.Context, userID string, t EscrowTransaction) error {
	if t.Status == "" {
		t.Status = EscrowPending
	}
	if !t.Status.Valid() {
		return fmt.Errorf("add escrow transaction %s: %w: %q", t.ID, ErrInvalidStatus, t.Status)
	}
	if err := s.UserEscrow(userID).Prepend(ctx, t); err != nil {
		return fmt.Errorf("add escrow transaction %s: %w", t.ID, err)
	}
	return nil
}

// UpdateEscrowStatus sets the status of one of userID's escrow transactions.
// Only the status changes. The store's EscrowPolicy decides whether the
// transition is allowed.
func (s *Store) UpdateEscrowStatus(ctx context.Context, userID, transactionID string, status EscrowStatus) error {
	if !status.Valid() {
		return fmt.Errorf("update escrow %s: %w: %q", transactionID, ErrInvalidStatus, status)
	}
	err := s.UserEscrow(userID).Update(ctx, transactionID, func(t *EscrowTransaction) error {
		if !s.policy.CanTransition(t.Status, status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, t.Status, status)
		}
		if t.Status == status {
			return errUnchanged
		}
		t.Status = status
		return nil
	})
	if err != nil {
		return fmt.Errorf("update escrow %s: %w", transactionID, err)
	}
	s.logger.Info("Escrow status updated", "user_id", userID, "transaction_id", transactionID, "status", status)
	return nil
}
