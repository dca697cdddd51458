package cart

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/velora/internal/pricing"
)

// Product is the catalog entry a shopper adds to the cart.
type Product struct {
	ID       string  `json:"_id"`
	Name     string  `json:"name"`
	Image    string  `json:"image"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Stock    int     `json:"countInStock"`
}

// Line is one (product, size) entry in the cart. Display fields and price are
// captured when the line is added and are not refreshed from the catalog.
type Line struct {
	ProductID string  `json:"_id"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	Category  string  `json:"category"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Size      string  `json:"size"`
}

// Storage persists the full list of cart lines.
type Storage interface {
	Load() ([]Line, error)
	Save(lines []Line) error
}

// Store holds the shopper's pending selection. Every mutation is written
// through to the Storage.
type Store struct {
	mu      sync.Mutex
	lines   []Line
	storage Storage
}

// NewStore restores the cart from storage. A missing or unreadable value
// yields an empty cart.
func NewStore(storage Storage) *Store {
	lines, err := storage.Load()
	if err != nil {
		log.Debug().Err(err).Msg("cart: failed to restore cart, starting empty")
		lines = nil
	}

	kept := make([]Line, 0, len(lines))
	for _, l := range lines {
		if l.Quantity >= 1 && l.ProductID != "" {
			kept = append(kept, l)
		}
	}

	return &Store{lines: kept, storage: storage}
}

// Add sets the quantity of the (product, size) line, creating it when absent.
// An existing line's quantity is replaced, not incremented.
func (s *Store) Add(p Product, quantity int, size string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setLocked(p, quantity, size)
	s.persistLocked()
}

// Remove deletes the (id, size) line if present.
func (s *Store) Remove(id, size string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id, size)
	if i < 0 {
		return
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	s.persistLocked()
}

// UpdateQuantity changes the quantity of an existing line. It never creates one.
func (s *Store) UpdateQuantity(id string, quantity int, size string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id, size)
	if i < 0 {
		return
	}
	existing := s.lines[i]
	s.setLocked(Product{
		ID:       existing.ProductID,
		Name:     existing.Name,
		Image:    existing.Image,
		Category: existing.Category,
		Price:    existing.Price,
	}, quantity, size)
	s.persistLocked()
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	s.persistLocked()
}

// Count returns the sum of quantities across all lines.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, l := range s.lines {
		count += l.Quantity
	}
	return count
}

// Lines returns a copy of the current lines in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Len returns the number of distinct lines.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines) == 0
}

// Quote prices the current lines.
func (s *Store) Quote() pricing.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]pricing.Line, 0, len(s.lines))
	for _, l := range s.lines {
		lines = append(lines, pricing.Line{UnitPrice: l.Price, Quantity: l.Quantity})
	}
	return pricing.Compute(lines)
}

func (s *Store) setLocked(p Product, quantity int, size string) {
	i := s.indexLocked(p.ID, size)

	if quantity < 1 {
		if i >= 0 {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
		}
		return
	}

	if i >= 0 {
		s.lines[i].Quantity = quantity
		return
	}

	s.lines = append(s.lines, Line{
		ProductID: p.ID,
		Name:      p.Name,
		Image:     p.Image,
		Category:  p.Category,
		Price:     p.Price,
		Quantity:  quantity,
		Size:      size,
	})
}

func (s *Store) indexLocked(id, size string) int {
	for i, l := range s.lines {
		if l.ProductID == id && l.Size == size {
			return i
		}
	}
	return -1
}

func (s *Store) persistLocked() {
	snapshot := make([]Line, len(s.lines))
	copy(snapshot, s.lines)

	if err := s.storage.Save(snapshot); err != nil {
		log.Warn().Err(err).Int("lines", len(snapshot)).Msg("cart: failed to persist cart")
	}
}
