package market

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Stats returns the trading counters of userID. A user who never traded has
// zero stats. Counters under the browser app's stats_ key are used until the
// first new transaction copies them over.
func (s *Store) Stats(ctx context.Context, userID string) (Stats, error) {
	var st Stats
	if s.kv == nil {
		return st, nil
	}
	raw, ok, err := s.kv.Get(ctx, statsKey(userID))
	if err != nil {
		return st, fmt.Errorf("get stats: %w", err)
	}
	if !ok {
		if raw, ok = s.legacy(ctx, legacyStatsPrefix+userID); !ok {
			return st, nil
		}
	}
	if err := json.Unmarshal(raw, &st); err != nil {
		s.logger.Warn("Resetting malformed stats", "user_id", userID, "error", err.Error())
		return Stats{}, nil
	}
	return st, nil
}

// RecordTransaction counts a sale or a purchase of amount Pi for userID.
func (s *Store) RecordTransaction(ctx context.Context, userID string, kind TransactionKind, amount float64) error {
	if s.kv == nil {
		return ErrUnavailable
	}
	if kind != KindSale && kind != KindPurchase {
		return fmt.Errorf("record transaction: unknown kind %q", kind)
	}
	legacy, hasLegacy := s.legacy(ctx, legacyStatsPrefix+userID)
	err := s.kv.Update(ctx, statsKey(userID), func(old []byte, ok bool) ([]byte, error) {
		var st Stats
		if !ok && hasLegacy {
			old, ok = legacy, true
		}
		if ok {
			// Malformed counters restart from zero.
			_ = json.Unmarshal(old, &st)
		}
		if kind == KindSale {
			st.Sales++
		} else {
			st.Purchases++
		}
		st.PiExchanged += amount
		return json.Marshal(st)
	})
	if err != nil {
		return fmt.Errorf("record transaction: %w", err)
	}
	return nil
}

// MemberSince returns the time userID was first seen. The first call stores
// now, or the date kept under the browser app's member_since_ key.
func (s *Store) MemberSince(ctx context.Context, userID string, now time.Time) (time.Time, error) {
	if s.kv == nil {
		return now, ErrUnavailable
	}
	var since time.Time
	legacy, hasLegacy := s.legacy(ctx, legacyMemberSincePrefix+userID)
	err := s.kv.Update(ctx, memberSinceKey(userID), func(old []byte, ok bool) ([]byte, error) {
		if ok {
			if err := since.UnmarshalText(old); err == nil {
				return nil, nil
			}
		}
		since = now.UTC()
		if hasLegacy {
			var t time.Time
			if err := t.UnmarshalText(legacy); err == nil {
				since = t.UTC()
			}
		}
		return since.MarshalText()
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("member since: %w", err)
	}
	return since, nil
}

// legacy reads a key written by the browser app. Read errors are logged and
// reported as a missing key.
func (s *Store) legacy(ctx context.Context, key string) ([]byte, bool) {
	v, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Could not read legacy key", "key", key, "error", err.Error())
		return nil, false
	}
	return v, ok
}
