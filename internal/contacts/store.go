// Package contacts implements the address book. The default store
// lives in memory for the process lifetime; a sqlite-backed store is
// available when the surrounding application wants persistence.
package contacts

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mnohosten/mailbridge/internal/codec"
	"github.com/mnohosten/mailbridge/internal/mailerr"
	"github.com/mnohosten/mailbridge/internal/model"
)

// Store is the address book contract. Contacts are owned exclusively
// by the store; all methods return copies.
type Store interface {
	Add(name, email, group, phone string) (*model.Contact, error)
	List(limit int) ([]*model.Contact, error)
	Search(query string) ([]*model.Contact, error)
	ByGroup(group string) ([]*model.Contact, error)
	Update(id string, update model.ContactUpdate) (*model.Contact, error)
	Delete(id string) error
	Close() error
}

// MemoryStore keeps contacts in an in-memory map guarded by a mutex.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]*model.Contact
	order []string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]*model.Contact)}
}

// Add validates the email shape, generates a fresh id and stores the
// contact.
func (s *MemoryStore) Add(name, email, group, phone string) (*model.Contact, error) {
	if err := validateContact(name, email); err != nil {
		return nil, err
	}

	now := time.Now()
	contact := &model.Contact{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Group:     group,
		Phone:     phone,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.items[contact.ID] = contact
	s.order = append(s.order, contact.ID)
	s.mu.Unlock()

	return cloneContact(contact), nil
}

// List returns up to limit contacts in insertion order; limit <= 0
// returns everything.
func (s *MemoryStore) List(limit int) ([]*model.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Contact, 0, len(s.order))
	for _, id := range s.order {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, cloneContact(s.items[id]))
	}
	return out, nil
}

// Search matches a case-insensitive substring over name, email and
// group.
func (s *MemoryStore) Search(query string) ([]*model.Contact, error) {
	q := strings.ToLower(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*model.Contact{}
	for _, id := range s.order {
		c := s.items[id]
		if strings.Contains(strings.ToLower(c.Name), q) ||
			strings.Contains(strings.ToLower(c.Email), q) ||
			strings.Contains(strings.ToLower(c.Group), q) {
			out = append(out, cloneContact(c))
		}
	}
	return out, nil
}

// ByGroup returns contacts whose group matches exactly.
func (s *MemoryStore) ByGroup(group string) ([]*model.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*model.Contact{}
	for _, id := range s.order {
		if s.items[id].Group == group {
			out = append(out, cloneContact(s.items[id]))
		}
	}
	return out, nil
}

// Update replaces only the supplied fields.
func (s *MemoryStore) Update(id string, update model.ContactUpdate) (*model.Contact, error) {
	if update.Email != nil {
		if err := codec.ValidateAddress(*update.Email); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	contact, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: contact %s", mailerr.ErrNotFound, id)
	}

	applyUpdate(contact, update)
	return cloneContact(contact), nil
}

// Delete removes a contact, or reports ErrNotFound.
func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("%w: contact %s", mailerr.ErrNotFound, id)
	}
	delete(s.items, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

func validateContact(name, email string) error {
	if name == "" {
		return fmt.Errorf("%w: contact name is required", mailerr.ErrValidation)
	}
	return codec.ValidateAddress(email)
}

func applyUpdate(c *model.Contact, update model.ContactUpdate) {
	if update.Name != nil {
		c.Name = *update.Name
	}
	if update.Email != nil {
		c.Email = *update.Email
	}
	if update.Group != nil {
		c.Group = *update.Group
	}
	if update.Phone != nil {
		c.Phone = *update.Phone
	}
	c.UpdatedAt = time.Now()
}

func cloneContact(c *model.Contact) *model.Contact {
	cp := *c
	return &cp
}
