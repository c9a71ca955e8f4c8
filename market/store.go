// Package market is the local persistence layer of the marketplace: listings,
// likes, conversations, messages, escrow transactions and user stats, each
// collection stored as a JSON blob in a KV.
package market

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
)

const (
	keyPrefix           = "pilocal_"
	listingsKey         = keyPrefix + "listings"
	conversationsPrefix = keyPrefix + "conversations_"
	messagesPrefix      = keyPrefix + "messages_"
	escrowPrefix        = keyPrefix + "escrow_"
	statsPrefix         = keyPrefix + "stats_"
	memberSincePrefix   = keyPrefix + "member_since_"
	quarantinePrefix    = keyPrefix + "quarantine_"

	// Keys written by the browser app before the pilocal_ prefix existed.
	legacyStatsPrefix       = "stats_"
	legacyMemberSincePrefix = "member_since_"
)

func conversationsKey(userID string) string   { return conversationsPrefix + userID }
func messagesKey(conversationID string) string { return messagesPrefix + conversationID }
func escrowKey(userID string) string           { return escrowPrefix + userID }
func statsKey(userID string) string            { return statsPrefix + userID }
func memberSinceKey(userID string) string      { return memberSincePrefix + userID }
func quarantineKey(key string) string          { return quarantinePrefix + key }

// Store provides the marketplace collections on top of a KV. A Store with a
// nil KV behaves as if nothing was ever persisted: reads return empty results
// and writes return ErrUnavailable.
type Store struct {
	kv     KV
	logger *slog.Logger
	policy EscrowPolicy
}

// An Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report repairs and skipped updates.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEscrowPolicy sets how escrow status changes are validated. The default
// is EscrowStrict.
func WithEscrowPolicy(p EscrowPolicy) Option {
	return func(s *Store) { s.policy = p }
}

// New returns a Store persisting to kv.
func New(kv KV, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		policy: EscrowStrict,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Listings returns the global listings collection.
func (s *Store) Listings() *Collection[Listing] {
	c := newCollection[Listing](s.kv, listingsKey, s.logger)
	c.normalize = normalizeListing
	return c
}

// UserConversations returns the conversations stored for userID.
func (s *Store) UserConversations(userID string) *Collection[Conversation] {
	return newCollection[Conversation](s.kv, conversationsKey(userID), s.logger)
}

// ConversationMessages returns the messages of a conversation. Both
// participants share this collection.
func (s *Store) ConversationMessages(conversationID string) *Collection[Message] {
	return newCollection[Message](s.kv, messagesKey(conversationID), s.logger)
}

// UserEscrow returns the escrow transactions stored for userID.
func (s *Store) UserEscrow(userID string) *Collection[EscrowTransaction] {
	c := newCollection[EscrowTransaction](s.kv, escrowKey(userID), s.logger)
	c.validate = validateEscrow
	return c
}

// normalizeListing drops duplicate likes and derives the like count from
// LikedBy.
func normalizeListing(l Listing) Listing {
	if l.LikedBy == nil {
		l.LikedBy = []string{}
	}
	seen := make(map[string]struct{}, len(l.LikedBy))
	out := make([]string, 0, len(l.LikedBy))
	for _, id := range l.LikedBy {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	l.LikedBy = out
	l.Likes = len(out)
	if l.Images == nil {
		l.Images = []string{}
	}
	return l
}

// AllListings returns every listing, most recently added first.
func (s *Store) AllListings(ctx context.Context) ([]Listing, error) {
	return s.Listings().List(ctx)
}

// AddListing stores l in front of all other listings. Ids are not checked for
// uniqueness.
func (s *Store) AddListing(ctx context.Context, l Listing) error {
	if err := s.Listings().Prepend(ctx, l); err != nil {
		return fmt.Errorf("add listing: %w", err)
	}
	return nil
}

// UserListings returns the listings posted by userID in stored order.
func (s *Store) UserListings(ctx context.Context, userID string) ([]Listing, error) {
	return s.filterListings(ctx, func(l Listing) bool { return l.Seller.ID == userID })
}

// DeleteListing removes all listings with the given id.
func (s *Store) DeleteListing(ctx context.Context, listingID string) error {
	if err := s.Listings().Delete(ctx, listingID); err != nil {
		return fmt.Errorf("delete listing %s: %w", listingID, err)
	}
	return nil
}

// ToggleLike adds userID to the listing's likes, or removes it if present.
// It reports whether the listing is liked by userID afterwards.
func (s *Store) ToggleLike(ctx context.Context, listingID, userID string) (bool, error) {
	liked := false
	err := s.Listings().Update(ctx, listingID, func(l *Listing) error {
		if i := slices.Index(l.LikedBy, userID); i >= 0 {
			l.LikedBy = slices.Delete(l.LikedBy, i, i+1)
			liked = false
		} else {
			l.LikedBy = append(l.LikedBy, userID)
			liked = true
		}
		l.Likes = len(l.LikedBy)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("toggle like %s: %w", listingID, err)
	}
	return liked, nil
}

// IsLiked reports whether userID likes the listing. A missing listing is not
// liked.
func (s *Store) IsLiked(ctx context.Context, listingID, userID string) (bool, error) {
	l, ok, err := s.Listings().Find(ctx, listingID)
	if err != nil || !ok {
		return false, err
	}
	return slices.Contains(l.LikedBy, userID), nil
}

// Favorites returns the ids of the listings liked by userID.
func (s *Store) Favorites(ctx context.Context, userID string) ([]string, error) {
	ls, err := s.FavoriteListings(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(ls))
	for i, l := range ls {
		ids[i] = l.ID
	}
	return ids, nil
}

// FavoriteListings returns the listings liked by userID.
func (s *Store) FavoriteListings(ctx context.Context, userID string) ([]Listing, error) {
	return s.filterListings(ctx, func(l Listing) bool { return slices.Contains(l.LikedBy, userID) })
}

// Categories lists the known listing categories. CategoryAll matches every
// listing.
var Categories = []string{CategoryAll, "electronics", "tech", "home", "fashion", "auto", "hobby"}

// CategoryAll disables category filtering.
const CategoryAll = "all"

// SearchListings returns the listings whose title, description or location
// contains query, case-insensitively, restricted to category unless it is
// empty or CategoryAll.
func (s *Store) SearchListings(ctx context.Context, query, category string) ([]Listing, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	return s.filterListings(ctx, func(l Listing) bool {
		if category != "" && category != CategoryAll && l.Category != category {
			return false
		}
		if q == "" {
			return true
		}
		return strings.Contains(strings.ToLower(l.Title), q) ||
			strings.Contains(strings.ToLower(l.Description), q) ||
			strings.Contains(strings.ToLower(l.Location), q)
	})
}

func (s *Store) filterListings(ctx context.Context, keep func(Listing) bool) ([]Listing, error) {
	all, err := s.AllListings(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Listing, 0, len(all))
	for _, l := range all {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out, nil
}
