package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mnohosten/mailbridge/internal/model"
)

// handleSendEmail sends one email.
func (s *Server) handleSendEmail(w http.ResponseWriter, r *http.Request) {
	var req SendEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	messageID, err := s.svc.SendEmailWithAttachments(r.Context(), &model.SendRequest{
		To:          req.To,
		Cc:          req.Cc,
		Subject:     req.Subject,
		Body:        req.Body,
		HTMLBody:    req.HTMLBody,
		Attachments: req.Attachments,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, SendResponse{MessageID: messageID})
}

// handleBulkSend sends to each recipient independently.
func (s *Server) handleBulkSend(w http.ResponseWriter, r *http.Request) {
	var req BulkSendRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	summary, err := s.svc.BulkSendEmails(r.Context(), req.Recipients, req.Subject, req.Body)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// handleRecentEmails returns the newest messages. ?count=N, default 10.
func (s *Server) handleRecentEmails(w http.ResponseWriter, r *http.Request) {
	count := 10
	if v := r.URL.Query().Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "count must be a positive integer")
			return
		}
		count = n
	}

	msgs, err := s.svc.ReadRecentEmails(r.Context(), count)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSONWithMeta(w, http.StatusOK, msgs, &Meta{Total: len(msgs)})
}

// handleGetEmail returns one message by id.
func (s *Server) handleGetEmail(w http.ResponseWriter, r *http.Request) {
	msg, err := s.svc.GetEmailByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, msg)
}

// handleDeleteEmail removes a message permanently.
func (s *Server) handleDeleteEmail(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteEmail(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleMarkRead sets or clears the seen flag.
func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	var req MarkReadRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	if err := s.svc.MarkEmailAsRead(r.Context(), chi.URLParam(r, "id"), req.Read); err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"read": req.Read})
}

// handleSearchEmails returns one page of filtered messages.
func (s *Server) handleSearchEmails(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	page, limit := req.Page, req.Limit
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = 20
	}

	result, err := s.svc.SearchEmails(r.Context(), req.Filter, page, limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	totalPages := (result.Total + result.Limit - 1) / result.Limit
	respondJSONWithMeta(w, http.StatusOK, result.Items, &Meta{
		Page:       result.Page,
		PerPage:    result.Limit,
		Total:      result.Total,
		TotalPages: totalPages,
	})
}

// handleForwardEmail resends an existing message.
func (s *Server) handleForwardEmail(w http.ResponseWriter, r *http.Request) {
	var req ForwardRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	messageID, err := s.svc.ForwardEmail(r.Context(), chi.URLParam(r, "id"), req.To, req.Note)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, SendResponse{MessageID: messageID})
}

// handleReplyEmail answers an existing message.
func (s *Server) handleReplyEmail(w http.ResponseWriter, r *http.Request) {
	var req ReplyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	messageID, err := s.svc.ReplyToEmail(r.Context(), chi.URLParam(r, "id"), req.Body, req.ReplyAll)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, SendResponse{MessageID: messageID})
}

// handleStatistics aggregates mailbox counts and top senders.
func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.GetEmailStatistics(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// handleCreateDraft saves an unsent message to the drafts folder.
func (s *Server) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	var req SendEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	messageID, err := s.svc.CreateDraft(r.Context(), &model.SendRequest{
		To:          req.To,
		Cc:          req.Cc,
		Subject:     req.Subject,
		Body:        req.Body,
		HTMLBody:    req.HTMLBody,
		Attachments: req.Attachments,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, SendResponse{MessageID: messageID})
}

// handleScheduleEmail records a deferred send.
func (s *Server) handleScheduleEmail(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	item, err := s.svc.ScheduleEmail(r.Context(), model.SendRequest{
		To:          req.To,
		Cc:          req.Cc,
		Subject:     req.Subject,
		Body:        req.Body,
		HTMLBody:    req.HTMLBody,
		Attachments: req.Attachments,
	}, req.SendAt)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, item)
}

// handleListScheduled returns all deferred-send records.
func (s *Server) handleListScheduled(w http.ResponseWriter, r *http.Request) {
	items := s.svc.ListScheduled()
	respondJSONWithMeta(w, http.StatusOK, items, &Meta{Total: len(items)})
}

// handleCancelScheduled cancels a pending deferred send.
func (s *Server) handleCancelScheduled(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.CancelScheduled(chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// handleDispatchScheduled sends every due deferred record now.
func (s *Server) handleDispatchScheduled(w http.ResponseWriter, r *http.Request) {
	processed, err := s.svc.DispatchDueScheduled(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSONWithMeta(w, http.StatusOK, processed, &Meta{Total: len(processed)})
}
