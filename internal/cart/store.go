package cart

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// FormPair is one key/value of a raw bulk-update form, in submission order.
type FormPair struct {
	Key   string
	Value string
}

// SkippedPair records a bulk-update pair that was ignored, and why.
type SkippedPair struct {
	Pair   FormPair
	Reason string
}

// Store is the raw product -> requested quantity map of one session.
// It knows nothing about prices or stock.
type Store struct {
	items map[uuid.UUID]int
}

// NewStore copies items into a new store.
func NewStore(items map[uuid.UUID]int) *Store {
	copied := make(map[uuid.UUID]int, len(items))
	for id, qty := range items {
		copied[id] = qty
	}
	return &Store{items: copied}
}

// AddOrIncrement accumulates quantity on the product entry, creating it when absent.
func (s *Store) AddOrIncrement(productID uuid.UUID, quantity int) {
	s.items[productID] += quantity
}

// ApplyBulkUpdate walks the pairs in order. "id" selects the product the
// following "quantity" and "remove" keys apply to. Pairs that cannot be
// applied are returned and otherwise ignored.
func (s *Store) ApplyBulkUpdate(pairs []FormPair) []SkippedPair {
	var skipped []SkippedPair
	var current *uuid.UUID

	for _, pair := range pairs {
		switch strings.TrimSpace(pair.Key) {
		case "id":
			id, err := uuid.Parse(strings.TrimSpace(pair.Value))
			if err != nil {
				current = nil
				skipped = append(skipped, SkippedPair{Pair: pair, Reason: "invalid product id"})
				continue
			}
			current = &id
		case "quantity":
			if current == nil {
				skipped = append(skipped, SkippedPair{Pair: pair, Reason: "quantity without product id"})
				continue
			}
			qty, err := strconv.Atoi(strings.TrimSpace(pair.Value))
			if err != nil {
				skipped = append(skipped, SkippedPair{Pair: pair, Reason: "invalid quantity"})
				continue
			}
			s.items[*current] += qty
		case "remove":
			if current == nil {
				skipped = append(skipped, SkippedPair{Pair: pair, Reason: "remove without product id"})
				continue
			}
			delete(s.items, *current)
		default:
			skipped = append(skipped, SkippedPair{Pair: pair, Reason: "unknown key"})
		}
	}
	return skipped
}

// Reset empties the cart.
func (s *Store) Reset() {
	s.items = make(map[uuid.UUID]int)
}

// Quantity returns the requested quantity for the product.
func (s *Store) Quantity(productID uuid.UUID) (int, bool) {
	qty, ok := s.items[productID]
	return qty, ok
}

// Len returns the number of entries, zero quantities included.
func (s *Store) Len() int {
	return len(s.items)
}

// Snapshot returns a copy of the quantities.
func (s *Store) Snapshot() map[uuid.UUID]int {
	copied := make(map[uuid.UUID]int, len(s.items))
	for id, qty := range s.items {
		copied[id] = qty
	}
	return copied
}

// ParseFormPairs splits an urlencoded body into pairs, keeping their order.
// Segments without "=" or with bad escapes are reported as skipped.
func ParseFormPairs(raw string) ([]FormPair, []SkippedPair) {
	var pairs []FormPair
	var skipped []SkippedPair
	for _, segment := range strings.Split(raw, "&") {
		if segment == "" {
			continue
		}
		key, value, ok := strings.Cut(segment, "=")
		if !ok {
			skipped = append(skipped, SkippedPair{Pair: FormPair{Key: segment}, Reason: "missing value"})
			continue
		}
		decodedKey, err := url.QueryUnescape(key)
		if err != nil {
			skipped = append(skipped, SkippedPair{Pair: FormPair{Key: key, Value: value}, Reason: "malformed key"})
			continue
		}
		decodedValue, err := url.QueryUnescape(value)
		if err != nil {
			skipped = append(skipped, SkippedPair{Pair: FormPair{Key: decodedKey, Value: value}, Reason: "malformed value"})
			continue
		}
		pairs = append(pairs, FormPair{Key: decodedKey, Value: decodedValue})
	}
	return pairs, skipped
}
