// Package cart implements the session-scoped booking cart.  A cart is a
// per-user list of rental intents held in redis until checkout converts
// them into pending rentals.  Entries are stored as one JSON array per
// user key so list mutations replace the whole value; carts are small,
// and a single key keeps removal-by-index and atomic clearing simple.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/car-rental/internal/model"
)

// ErrIndexOutOfRange is returned when a removal index does not address an
// existing entry.  Handlers translate this into a user-facing error, not
// a crash.
var ErrIndexOutOfRange = errors.New("cart index out of range")

// Store persists carts in redis keyed by user id.  The TTL is refreshed
// on every write so an active session never loses its cart while idle
// carts eventually expire.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore returns a Store writing through the given client.  The client
// must be non-nil; the cart cannot degrade gracefully without its
// backing store.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if rdb == nil {
		panic("nil redis client passed to cart.NewStore")
	}
	return &Store{rdb: rdb, ttl: ttl}
}

func key(userID uint64) string { return fmt.Sprintf("cart:%d", userID) }

// List returns the user's cart entries in insertion order.  A missing key
// is an empty cart, not an error.
func (s *Store) List(ctx context.Context, userID uint64) ([]model.CartEntry, error) {
	raw, err := s.rdb.Get(ctx, key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []model.CartEntry{}, nil
		}
		return nil, err
	}
	var entries []model.CartEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) save(ctx context.Context, userID uint64, entries []model.CartEntry) error {
	k := key(userID)
	if len(entries) == 0 {
		return s.rdb.Del(ctx, k).Err()
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, k, raw, s.ttl).Err()
}

// Append adds an entry to the end of the user's cart.
func (s *Store) Append(ctx context.Context, userID uint64, e model.CartEntry) error {
	entries, err := s.List(ctx, userID)
	if err != nil {
		return err
	}
	return s.save(ctx, userID, append(entries, e))
}

// RemoveAt removes and returns the entry at the given zero-based position.
// Out-of-range indices (including negative ones) return
// ErrIndexOutOfRange and leave the cart unchanged.  Remaining entries
// keep their relative order.
func (s *Store) RemoveAt(ctx context.Context, userID uint64, idx int) (model.CartEntry, error) {
	entries, err := s.List(ctx, userID)
	if err != nil {
		return model.CartEntry{}, err
	}
	removed, rest, err := removeAt(entries, idx)
	if err != nil {
		return model.CartEntry{}, err
	}
	if err := s.save(ctx, userID, rest); err != nil {
		return model.CartEntry{}, err
	}
	return removed, nil
}

// Clear empties the user's cart.
func (s *Store) Clear(ctx context.Context, userID uint64) error {
	return s.rdb.Del(ctx, key(userID)).Err()
}

// removeAt splits out the entry at idx, preserving the order of the rest.
func removeAt(entries []model.CartEntry, idx int) (model.CartEntry, []model.CartEntry, error) {
	if idx < 0 || idx >= len(entries) {
		return model.CartEntry{}, nil, ErrIndexOutOfRange
	}
	removed := entries[idx]
	rest := make([]model.CartEntry, 0, len(entries)-1)
	rest = append(rest, entries[:idx]...)
	rest = append(rest, entries[idx+1:]...)
	return removed, rest, nil
}

// Total sums the captured totals of all entries.  Quick-add entries
// contribute their per-day price, matching what they display.
func Total(entries []model.CartEntry) uint64 {
	var sum uint64
	for _, e := range entries {
		sum += uint64(e.TotalCents)
	}
	return sum
}
