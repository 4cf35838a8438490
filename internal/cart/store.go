package cart

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrInvalidProduct is returned when an added product id does not
	// resolve against the current catalog.
	ErrInvalidProduct = errors.New("invalid productId")

	// ErrInvalidQuantity is returned when a new line would start at a
	// non-positive quantity.
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// Line is one product's quantity and captured unit price within a user's
// in-progress order. UnitPrice is fixed at first add and not refreshed by
// later adds of the same product.
type Line struct {
	ProductID int64 `json:"productId"`
	Qty       int   `json:"qty"`
	UnitPrice int64 `json:"price"`
}

// PriceLookup resolves a product id to its current catalog price. It returns
// ErrInvalidProduct (possibly wrapped) when the product does not exist.
type PriceLookup func(ctx context.Context, productID int64) (int64, error)

// Store holds one cart per user in process memory. Contents are lost on
// restart; callers treat that as an acceptable failure mode, not an error.
type Store struct {
	mu     sync.Mutex
	byUser map[string][]Line
}

func NewStore() *Store {
	return &Store{byUser: make(map[string][]Line)}
}

// Get returns a copy of the user's cart, never nil.
func (s *Store) Get(userID string) []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLines(s.byUser[userID])
}

// Add merges qty into the user's line for productID. A positive qty on an
// unknown line creates it with the unit price captured from lookup at that
// moment. Merging a delta that takes the quantity to zero or below removes
// the line entirely; a zero-or-negative line is never kept.
// lookup runs outside the store lock, so a slow catalog read never stalls
// other users' cart operations.
func (s *Store) Add(ctx context.Context, userID string, productID int64, qty int, lookup PriceLookup) ([]Line, error) {
	s.mu.Lock()
	if lines, ok := s.mergeLocked(userID, productID, qty); ok {
		s.mu.Unlock()
		return lines, nil
	}
	s.mu.Unlock()

	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	price, err := lookup(ctx, productID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A concurrent Add may have created the line while lookup ran;
	// merge onto it to keep the first captured price.
	if lines, ok := s.mergeLocked(userID, productID, qty); ok {
		return lines, nil
	}

	lines := append(s.byUser[userID], Line{ProductID: productID, Qty: qty, UnitPrice: price})
	s.byUser[userID] = lines
	return cloneLines(lines), nil
}

// mergeLocked applies qty to an existing line, reporting whether one was
// found. Caller holds s.mu.
func (s *Store) mergeLocked(userID string, productID int64, qty int) ([]Line, bool) {
	lines := s.byUser[userID]
	for i := range lines {
		if lines[i].ProductID != productID {
			continue
		}
		lines[i].Qty += qty
		if lines[i].Qty <= 0 {
			lines = append(lines[:i], lines[i+1:]...)
		}
		s.byUser[userID] = lines
		return cloneLines(lines), true
	}
	return nil, false
}

// Remove drops the line for productID regardless of quantity.
func (s *Store) Remove(userID string, productID int64) []Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.byUser[userID]
	kept := lines[:0]
	for _, l := range lines {
		if l.ProductID != productID {
			kept = append(kept, l)
		}
	}
	s.byUser[userID] = kept
	return cloneLines(kept)
}

// Clear empties the user's cart.
func (s *Store) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byUser, userID)
}

func cloneLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}
