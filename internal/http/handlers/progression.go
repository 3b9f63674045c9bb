package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/studyladder/internal/http/response"
	"github.com/yungbote/studyladder/internal/modules/progression"
	"github.com/yungbote/studyladder/internal/platform/apierr"
	"github.com/yungbote/studyladder/internal/platform/logger"
)

// ProgressionEngine is the slice of progression.Usecases the handler serves.
type ProgressionEngine interface {
	Evaluate(ctx context.Context, userID, contentSetID uuid.UUID) progression.Evaluation
	CompleteSession(ctx context.Context, in progression.CompleteSessionInput) progression.AdvanceResult
	HandleStruggling(ctx context.Context, in progression.HandleStrugglingInput) progression.RegressResult
	FinishSession(ctx context.Context, in progression.HandleStrugglingInput) progression.FinishResult
	RecordReview(ctx context.Context, userID, itemID uuid.UUID, wasCorrect bool) (int, error)
	Tiers() progression.TierTable
}

type ProgressionHandler struct {
	log    *logger.Logger
	engine ProgressionEngine
}

func NewProgressionHandler(log *logger.Logger, engine ProgressionEngine) *ProgressionHandler {
	return &ProgressionHandler{log: log.With("handler", "ProgressionHandler"), engine: engine}
}

type sessionRequest struct {
	UserID        uuid.UUID   `json:"user_id"`
	ContentSetID  uuid.UUID   `json:"content_set_id"`
	CorrectRate   *float64    `json:"correct_rate"`
	ItemsStudied  int         `json:"items_studied"`
	FailedItemIDs []uuid.UUID `json:"failed_item_ids"`
}

type reviewRequest struct {
	UserID     uuid.UUID `json:"user_id"`
	ItemID     uuid.UUID `json:"item_id"`
	WasCorrect *bool     `json:"was_correct"`
}

func (r sessionRequest) validate() (int, string, error) {
	switch {
	case r.UserID == uuid.Nil:
		return http.StatusBadRequest, "missing_user_id", errors.New("user_id is required")
	case r.ContentSetID == uuid.Nil:
		return http.StatusBadRequest, "missing_content_set_id", errors.New("content_set_id is required")
	case r.CorrectRate == nil:
		return http.StatusBadRequest, "missing_correct_rate", errors.New("correct_rate is required")
	case *r.CorrectRate < 0 || *r.CorrectRate > 1:
		return http.StatusBadRequest, "invalid_correct_rate", errors.New("correct_rate must be within [0,1]")
	case r.ItemsStudied < 0:
		return http.StatusBadRequest, "invalid_items_studied", errors.New("items_studied must be non-negative")
	}
	return 0, "", nil
}

func (r sessionRequest) stats() progression.SessionStats {
	return progression.SessionStats{CorrectRate: *r.CorrectRate, ItemsStudied: r.ItemsStudied}
}

func (h *ProgressionHandler) bindSession(c *gin.Context) (sessionRequest, bool) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return req, false
	}
	if status, code, err := req.validate(); err != nil {
		response.RespondError(c, status, code, err)
		return req, false
	}
	return req, true
}

// POST /api/progression/sessions/complete
func (h *ProgressionHandler) CompleteSession(c *gin.Context) {
	req, ok := h.bindSession(c)
	if !ok {
		return
	}
	res := h.engine.CompleteSession(c.Request.Context(), progression.CompleteSessionInput{
		UserID:       req.UserID,
		ContentSetID: req.ContentSetID,
		Stats:        req.stats(),
	})
	response.RespondOK(c, gin.H{"result": res})
}

// POST /api/progression/sessions/struggling
func (h *ProgressionHandler) HandleStruggling(c *gin.Context) {
	req, ok := h.bindSession(c)
	if !ok {
		return
	}
	res := h.engine.HandleStruggling(c.Request.Context(), progression.HandleStrugglingInput{
		UserID:        req.UserID,
		ContentSetID:  req.ContentSetID,
		Stats:         req.stats(),
		FailedItemIDs: req.FailedItemIDs,
	})
	response.RespondOK(c, gin.H{"result": res})
}

// POST /api/progression/sessions/finish
func (h *ProgressionHandler) FinishSession(c *gin.Context) {
	req, ok := h.bindSession(c)
	if !ok {
		return
	}
	res := h.engine.FinishSession(c.Request.Context(), progression.HandleStrugglingInput{
		UserID:        req.UserID,
		ContentSetID:  req.ContentSetID,
		Stats:         req.stats(),
		FailedItemIDs: req.FailedItemIDs,
	})
	response.RespondOK(c, gin.H{"result": res})
}

// POST /api/progression/reviews
func (h *ProgressionHandler) RecordReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if req.WasCorrect == nil {
		response.RespondError(c, http.StatusBadRequest, "missing_was_correct", errors.New("was_correct is required"))
		return
	}
	n, err := h.engine.RecordReview(c.Request.Context(), req.UserID, req.ItemID, *req.WasCorrect)
	if err != nil {
		status, code := apierr.Resolve(err, http.StatusInternalServerError, "record_review_failed")
		if status >= http.StatusInternalServerError {
			h.log.Error("record review failed", "user_id", req.UserID, "item_id", req.ItemID, "error", err)
		}
		response.RespondError(c, status, code, err)
		return
	}
	response.RespondOK(c, gin.H{"consecutive_correct": n})
}

// GET /api/progression/evaluation?user_id=&content_set_id=
func (h *ProgressionHandler) GetEvaluation(c *gin.Context) {
	userID, err := queryUUID(c, "user_id")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	setID, err := queryUUID(c, "content_set_id")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_content_set_id", err)
		return
	}
	response.RespondOK(c, gin.H{"evaluation": h.engine.Evaluate(c.Request.Context(), userID, setID)})
}

// GET /api/progression/tiers
func (h *ProgressionHandler) ListTiers(c *gin.Context) {
	response.RespondOK(c, gin.H{"tiers": h.engine.Tiers().Tiers()})
}

func queryUUID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Query(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", name, err)
	}
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%s is required", name)
	}
	return id, nil
}
