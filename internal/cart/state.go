package cart

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ardakurt/kapinda-backend/pkg/db/models"
	"github.com/ardakurt/kapinda-backend/pkg/enums"
)

// ConflictKind labels why an incoming item clashes with the current cart.
// Resolution is identical for both kinds (clear then add); the kind only
// drives user-facing copy.
type ConflictKind string

const (
	ConflictKindCategory ConflictKind = "category"
	ConflictKindVendor   ConflictKind = "vendor"
)

// Conflict describes a pending clear-then-add that needs user confirmation.
type Conflict struct {
	Kind             ConflictKind    `json:"kind"`
	CurrentStoreID   uuid.UUID       `json:"current_store_id"`
	CurrentStoreType enums.StoreType `json:"current_store_type"`
	IncomingStoreID  uuid.UUID       `json:"incoming_store_id"`
	IncomingType     enums.StoreType `json:"incoming_store_type"`
}

// NewItemInput carries a catalog-resolved item into the cart.
type NewItemInput struct {
	ProductID uuid.UUID
	StoreID   uuid.UUID
	StoreType enums.StoreType
	Category  string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Listener observes cart mutations; it receives a copy of the items.
type Listener func(items []models.CartItem)

// State is the in-memory cart for one user session. It owns the
// single-vendor/single-category invariant and the merge-by-product rule;
// callers must route every mutation through it.
type State struct {
	mu        sync.Mutex
	items     []models.CartItem
	listeners []Listener
}

// NewState returns an empty cart state.
func NewState() *State {
	return &State{}
}

// Subscribe registers a listener notified after every mutation.
func (s *State) Subscribe(fn Listener) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *State) notifyLocked() {
	items := s.copyItemsLocked()
	for _, fn := range s.listeners {
		fn(items)
	}
}

func (s *State) copyItemsLocked() []models.CartItem {
	out := make([]models.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// Items returns a copy of the current cart rows.
func (s *State) Items() []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyItemsLocked()
}

// IsEmpty reports whether the cart has no items.
func (s *State) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) == 0
}

// DetectConflict reports whether adding the input would break the
// single-category or single-vendor invariant. Nil means no conflict.
func (s *State) DetectConflict(input NewItemInput) *Conflict {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return nil
	}
	current := s.items[0]
	if current.StoreType != input.StoreType {
		return &Conflict{
			Kind:             ConflictKindCategory,
			CurrentStoreID:   current.StoreID,
			CurrentStoreType: current.StoreType,
			IncomingStoreID:  input.StoreID,
			IncomingType:     input.StoreType,
		}
	}
	if current.StoreID != input.StoreID {
		return &Conflict{
			Kind:             ConflictKindVendor,
			CurrentStoreID:   current.StoreID,
			CurrentStoreType: current.StoreType,
			IncomingStoreID:  input.StoreID,
			IncomingType:     input.StoreType,
		}
	}
	return nil
}

// Upsert merges the input into the cart: an existing row for the product
// gains quantity, otherwise a new row is appended. The caller must have
// resolved conflicts first; Upsert refuses cross-vendor rows outright.
func (s *State) Upsert(userID uuid.UUID, input NewItemInput) (models.CartItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ProductID == input.ProductID {
			s.items[i].Quantity += input.Quantity
			s.items[i].UnitPrice = input.UnitPrice
			s.items[i].LineTotal = lineTotal(input.UnitPrice, s.items[i].Quantity)
			item := s.items[i]
			s.notifyLocked()
			return item, true
		}
	}

	item := models.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: input.ProductID,
		StoreID:   input.StoreID,
		StoreType: input.StoreType,
		Category:  input.Category,
		Name:      input.Name,
		UnitPrice: input.UnitPrice,
		Quantity:  input.Quantity,
		LineTotal: lineTotal(input.UnitPrice, input.Quantity),
	}
	s.items = append(s.items, item)
	s.notifyLocked()
	return item, false
}

// Decrement lowers the quantity by one, removing the row when it hits zero.
// The returned item is the post-mutation row (zero value when removed).
func (s *State) Decrement(productID uuid.UUID) (models.CartItem, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ProductID != productID {
			continue
		}
		if s.items[i].Quantity > 1 {
			s.items[i].Quantity--
			s.items[i].LineTotal = lineTotal(s.items[i].UnitPrice, s.items[i].Quantity)
			item := s.items[i]
			s.notifyLocked()
			return item, false, true
		}
		s.items = append(s.items[:i], s.items[i+1:]...)
		s.notifyLocked()
		return models.CartItem{}, true, true
	}
	return models.CartItem{}, false, false
}

// Remove deletes the row for the product regardless of quantity.
func (s *State) Remove(productID uuid.UUID) (models.CartItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ProductID == productID {
			removed := s.items[i]
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.notifyLocked()
			return removed, true
		}
	}
	return models.CartItem{}, false
}

// Clear drops all items.
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return
	}
	s.items = nil
	s.notifyLocked()
}

// Replace swaps the full item set, used by reconciliation loads. Rows that
// would break the invariants against the first row are dropped rather than
// poisoning the session.
func (s *State) Replace(items []models.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		if len(s.items) > 0 {
			head := s.items[0]
			if head.StoreID != item.StoreID || head.StoreType != item.StoreType {
				continue
			}
		}
		if s.containsProductLocked(item.ProductID) {
			continue
		}
		item.LineTotal = lineTotal(item.UnitPrice, item.Quantity)
		s.items = append(s.items, item)
	}
	s.notifyLocked()
}

func (s *State) containsProductLocked(productID uuid.UUID) bool {
	for i := range s.items {
		if s.items[i].ProductID == productID {
			return true
		}
	}
	return false
}

func lineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// Sessions tracks one State per user.
type Sessions struct {
	mu     sync.Mutex
	states map[uuid.UUID]*State
}

// NewSessions returns an empty session registry.
func NewSessions() *Sessions {
	return &Sessions{states: map[uuid.UUID]*State{}}
}

// ForUser returns the user's cart state, creating it on first use.
func (s *Sessions) ForUser(userID uuid.UUID) *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[userID]
	if !ok {
		state = NewState()
		s.states[userID] = state
	}
	return state
}

// Drop forgets the user's in-memory cart (logout).
func (s *Sessions) Drop(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
}
