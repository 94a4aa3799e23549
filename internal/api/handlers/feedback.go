package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"skillswap-backend/internal/auth"
	"skillswap-backend/internal/reputation"
	"skillswap-backend/internal/storage"

	"github.com/google/uuid"
)

type FeedbackHandler struct {
	aggregator *reputation.Aggregator
}

func NewFeedbackHandler(aggregator *reputation.Aggregator) *FeedbackHandler {
	return &FeedbackHandler{aggregator: aggregator}
}

type feedbackRequest struct {
	ToUserID  string `json:"toUserId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	SessionID string `json:"sessionId"`
}

func (h *FeedbackHandler) AddFeedback(w http.ResponseWriter, r *http.Request) {
	fromUserID, _ := auth.UserID(r.Context())

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	toUserID, err := uuid.Parse(req.ToUserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id", "toUserId must be a valid UUID")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "validation failed", "sessionId is required")
		return
	}

	log.Printf("[FEEDBACK] Submission received from %s for %s, rating: %d", fromUserID, toUserID, req.Rating)

	fb := &storage.Feedback{
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Rating:     req.Rating,
		Comment:    req.Comment,
		SessionID:  req.SessionID,
	}

	if err := h.aggregator.Submit(r.Context(), fb); err != nil {
		if errors.Is(err, reputation.ErrInvalidRating) {
			writeError(w, http.StatusBadRequest, "validation failed", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "server error", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "feedback added"})
}
