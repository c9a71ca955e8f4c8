package market

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

type record interface {
	Listing | Conversation | Message | EscrowTransaction
	recordID() string
}

// errUnchanged aborts a mutation that found nothing to do.
var errUnchanged = errors.New("unchanged")

// A Collection is an ordered sequence of records stored as one JSON array
// under a single key. Mutations are applied with KV.Update so concurrent
// writers on the same key do not lose each other's changes.
type Collection[T record] struct {
	kv     KV
	key    string
	logger *slog.Logger
	// normalize, when set, is applied to every record read or written.
	normalize func(T) T
	// validate, when set, rejects decoded records that must be quarantined.
	validate func(T) error
}

func newCollection[T record](kv KV, key string, logger *slog.Logger) *Collection[T] {
	return &Collection[T]{kv: kv, key: key, logger: logger}
}

// Key returns the storage key of the collection.
func (c *Collection[T]) Key() string { return c.key }

// List returns all records in stored order. Malformed records are moved to
// quarantine and left out.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	if c.kv == nil {
		return []T{}, nil
	}
	raw, ok, err := c.kv.Get(ctx, c.key)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", c.key, err)
	}
	if !ok {
		return []T{}, nil
	}
	recs, bad, derr := c.decode(raw)
	if derr != nil || len(bad) > 0 {
		if err := c.repair(ctx); err != nil {
			return nil, err
		}
	}
	return recs, nil
}

// Find returns the first record with the given id.
func (c *Collection[T]) Find(ctx context.Context, id string) (T, bool, error) {
	var zero T
	recs, err := c.List(ctx)
	if err != nil {
		return zero, false, err
	}
	for _, r := range recs {
		if r.recordID() == id {
			return r, true, nil
		}
	}
	return zero, false, nil
}

// Mutate replaces the stored records with the result of fn.
func (c *Collection[T]) Mutate(ctx context.Context, fn func(recs []T) ([]T, error)) error {
	if c.kv == nil {
		return ErrUnavailable
	}
	var dropped []quarantined
	written := false
	err := c.kv.Update(ctx, c.key, func(old []byte, ok bool) ([]byte, error) {
		dropped, written = nil, false
		var recs []T
		if ok {
			var derr error
			recs, dropped, derr = c.decode(old)
			if derr != nil {
				dropped = append(dropped, quarantined{Raw: string(old), Error: derr.Error()})
			}
		}
		next, err := fn(recs)
		if errors.Is(err, errUnchanged) && len(dropped) == 0 {
			return nil, err
		}
		if err != nil && !errors.Is(err, errUnchanged) {
			return nil, err
		}
		if errors.Is(err, errUnchanged) {
			next = recs
		}
		b, err := c.encode(next)
		written = err == nil
		return b, err
	})
	if written && len(dropped) > 0 {
		c.quarantine(ctx, dropped)
	}
	if errors.Is(err, errUnchanged) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("update %s: %w", c.key, err)
	}
	return nil
}

// Prepend stores v first in the sequence.
func (c *Collection[T]) Prepend(ctx context.Context, v T) error {
	return c.Mutate(ctx, func(recs []T) ([]T, error) {
		if v.recordID() == "" {
			return nil, ErrMissingID
		}
		return append([]T{v}, recs...), nil
	})
}

// Append stores v last in the sequence.
func (c *Collection[T]) Append(ctx context.Context, v T) error {
	return c.Mutate(ctx, func(recs []T) ([]T, error) {
		if v.recordID() == "" {
			return nil, ErrMissingID
		}
		return append(recs, v), nil
	})
}

// InsertIfAbsent prepends v unless a record with the same id exists. It
// reports whether v was stored.
func (c *Collection[T]) InsertIfAbsent(ctx context.Context, v T) (bool, error) {
	inserted := false
	err := c.Mutate(ctx, func(recs []T) ([]T, error) {
		inserted = false
		if v.recordID() == "" {
			return nil, ErrMissingID
		}
		for _, r := range recs {
			if r.recordID() == v.recordID() {
				return nil, errUnchanged
			}
		}
		inserted = true
		return append([]T{v}, recs...), nil
	})
	return inserted, err
}

// Upsert replaces the first record with v's id, or prepends v.
func (c *Collection[T]) Upsert(ctx context.Context, v T) error {
	return c.Mutate(ctx, func(recs []T) ([]T, error) {
		if v.recordID() == "" {
			return nil, ErrMissingID
		}
		for i, r := range recs {
			if r.recordID() == v.recordID() {
				recs[i] = v
				return recs, nil
			}
		}
		return append([]T{v}, recs...), nil
	})
}

// Update applies fn to the first record with the given id. It returns
// ErrNotFound if there is none. fn may return errUnchanged to skip the write.
func (c *Collection[T]) Update(ctx context.Context, id string, fn func(r *T) error) error {
	return c.Mutate(ctx, func(recs []T) ([]T, error) {
		for i := range recs {
			if recs[i].recordID() == id {
				if err := fn(&recs[i]); err != nil {
					return nil, err
				}
				return recs, nil
			}
		}
		return nil, ErrNotFound
	})
}

// Delete removes every record with the given id and returns ErrNotFound if
// none matched.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	return c.Mutate(ctx, func(recs []T) ([]T, error) {
		out := recs[:0]
		for _, r := range recs {
			if r.recordID() != id {
				out = append(out, r)
			}
		}
		if len(out) == len(recs) {
			return nil, ErrNotFound
		}
		return out, nil
	})
}

// decode returns the well-formed records of raw. Records that do not decode,
// are null, have no id or fail validate are returned as bad.
func (c *Collection[T]) decode(raw []byte) ([]T, []quarantined, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []T{}, nil, fmt.Errorf("decode %s: %w", c.key, err)
	}
	out := make([]T, 0, len(items))
	var bad []quarantined
	for _, item := range items {
		if bytes.Equal(bytes.TrimSpace(item), []byte("null")) {
			bad = append(bad, quarantined{Raw: string(item), Error: "null record"})
			continue
		}
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			bad = append(bad, quarantined{Raw: string(item), Error: err.Error()})
			continue
		}
		if v.recordID() == "" {
			bad = append(bad, quarantined{Raw: string(item), Error: "record without id"})
			continue
		}
		if c.validate != nil {
			if err := c.validate(v); err != nil {
				bad = append(bad, quarantined{Raw: string(item), Error: err.Error()})
				continue
			}
		}
		if c.normalize != nil {
			v = c.normalize(v)
		}
		out = append(out, v)
	}
	return out, bad, nil
}

func (c *Collection[T]) encode(recs []T) ([]byte, error) {
	if recs == nil {
		recs = []T{}
	}
	if c.normalize != nil {
		for i := range recs {
			recs[i] = c.normalize(recs[i])
		}
	}
	b, err := json.Marshal(recs)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.key, err)
	}
	return b, nil
}

// repair rewrites the collection without its malformed content.
func (c *Collection[T]) repair(ctx context.Context) error {
	return c.Mutate(ctx, func(recs []T) ([]T, error) {
		return nil, errUnchanged
	})
}

type quarantined struct {
	Key   string    `json:"key"`
	Raw   string    `json:"raw"`
	Error string    `json:"error"`
	At    time.Time `json:"at"`
}

func (c *Collection[T]) quarantine(ctx context.Context, items []quarantined) {
	now := time.Now().UTC()
	for i := range items {
		items[i].Key = c.key
		items[i].At = now
	}
	c.logger.Warn("Quarantined malformed records", "key", c.key, "count", len(items))
	err := c.kv.Update(ctx, quarantineKey(c.key), func(old []byte, ok bool) ([]byte, error) {
		var all []quarantined
		if ok {
			if err := json.Unmarshal(old, &all); err != nil {
				// Keep the unreadable quarantine content as an entry of its own.
				c.logger.Warn("Malformed quarantine content", "key", quarantineKey(c.key), "error", err.Error())
				all = []quarantined{{Key: quarantineKey(c.key), Raw: string(old), Error: err.Error(), At: now}}
			}
		}
		return json.Marshal(append(all, items...))
	})
	if err != nil {
		c.logger.Error("Could not quarantine records", "key", c.key, "error", err.Error())
	}
}
