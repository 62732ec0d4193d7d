package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mnohosten/mailbridge/internal/model"
)

// handleCreateContact adds an address book entry.
func (s *Server) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	var req CreateContactRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	contact, err := s.svc.AddContact(req.Name, req.Email, req.Group, req.Phone)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, contact)
}

// handleListContacts returns contacts. ?limit=N caps the result.
func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be a positive integer")
			return
		}
		limit = n
	}

	list, err := s.svc.ListContacts(limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSONWithMeta(w, http.StatusOK, list, &Meta{Total: len(list)})
}

// handleSearchContacts matches ?q= over name, email and group.
func (s *Server) handleSearchContacts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "query parameter q is required")
		return
	}

	list, err := s.svc.SearchContacts(query)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSONWithMeta(w, http.StatusOK, list, &Meta{Total: len(list)})
}

// handleContactsByGroup returns contacts with an exact group match.
func (s *Server) handleContactsByGroup(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.ContactsByGroup(chi.URLParam(r, "group"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSONWithMeta(w, http.StatusOK, list, &Meta{Total: len(list)})
}

// handleUpdateContact replaces only the supplied fields.
func (s *Server) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	var req UpdateContactRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	contact, err := s.svc.UpdateContact(chi.URLParam(r, "id"), model.ContactUpdate{
		Name:  req.Name,
		Email: req.Email,
		Group: req.Group,
		Phone: req.Phone,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, contact)
}

// handleDeleteContact removes a contact.
func (s *Server) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteContact(chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
