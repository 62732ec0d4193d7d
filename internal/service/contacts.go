package service

import (
	"github.com/mnohosten/mailbridge/internal/event"
	"github.com/mnohosten/mailbridge/internal/model"
)

// AddContact creates an address book entry.
func (s *Service) AddContact(name, email, group, phone string) (*model.Contact, error) {
	contact, err := s.contacts.Add(name, email, group, phone)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(event.EventContactCreated, event.ContactEvent{ContactID: contact.ID, Email: contact.Email})
	return contact, nil
}

// ListContacts returns up to limit contacts; limit <= 0 returns all.
func (s *Service) ListContacts(limit int) ([]*model.Contact, error) {
	return s.contacts.List(limit)
}

// SearchContacts matches a substring over name, email and group.
func (s *Service) SearchContacts(query string) ([]*model.Contact, error) {
	return s.contacts.Search(query)
}

// ContactsByGroup returns contacts with an exact group match.
func (s *Service) ContactsByGroup(group string) ([]*model.Contact, error) {
	return s.contacts.ByGroup(group)
}

// UpdateContact replaces only the supplied fields.
func (s *Service) UpdateContact(id string, update model.ContactUpdate) (*model.Contact, error) {
	contact, err := s.contacts.Update(id, update)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(event.EventContactUpdated, event.ContactEvent{ContactID: contact.ID, Email: contact.Email})
	return contact, nil
}

// DeleteContact removes a contact, or reports ErrNotFound.
func (s *Service) DeleteContact(id string) error {
	if err := s.contacts.Delete(id); err != nil {
		return err
	}

	s.bus.Publish(event.EventContactDeleted, event.ContactEvent{ContactID: id})
	return nil
}
