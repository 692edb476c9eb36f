package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mickamy/recordtrail"
)

// Tracker is the part of *recordtrail.Handler used over HTTP.
type Tracker interface {
	Record(ctx context.Context, db recordtrail.Beginner, c recordtrail.Change) (recordtrail.Receipt, error)
	History(ctx context.Context, db recordtrail.Querier, table string, key recordtrail.PrimaryKey) (*recordtrail.History, error)
}

// DB is the connection the handler passes to the tracker.
type DB interface {
	recordtrail.Beginner
	recordtrail.Querier
}

// TrailHandler serves the change log REST API.
type TrailHandler struct {
	tracker Tracker
	db      DB
	logger  *zap.Logger
}

// NewTrailHandler returns a handler recording and reading changes on db.
func NewTrailHandler(tracker Tracker, db DB, logger *zap.Logger) *TrailHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrailHandler{tracker: tracker, db: db, logger: logger}
}

// RegisterRoutes mounts the history and record routes under /api/v1.
func (h *TrailHandler) RegisterRoutes(r gin.IRouter) {
	v1 := r.Group("/api/v1")
	v1.GET("/history/:table", h.GetHistory)
	v1.POST("/records", h.PostRecord)
}

// GetHistory handles GET /api/v1/history/:table?key=<json object>.
func (h *TrailHandler) GetHistory(c *gin.Context) {
	table := c.Param("table")
	rawKey := c.Query("key")
	if rawKey == "" {
		WriteError(c, http.StatusBadRequest, "RECORDTRAIL_VALIDATION_FAILED", "query parameter key is required")
		return
	}
	key, err := recordtrail.ParseKey(rawKey)
	if err != nil {
		writeTrailError(c, h.logger, err)
		return
	}

	history, err := h.tracker.History(c.Request.Context(), h.db, table, key)
	if err != nil {
		writeTrailError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

type recordRequest struct {
	Table       string          `json:"table" binding:"required"`
	Key         json.RawMessage `json:"key" binding:"required"`
	Kind        string          `json:"kind" binding:"required"`
	Actor       string          `json:"actor"`
	Old         json.RawMessage `json:"old"`
	New         json.RawMessage `json:"new"`
	Precomputed bool            `json:"precomputed"`
}

// PostRecord handles POST /api/v1/records.
// The actor may come from the body or the X-Actor header.
func (h *TrailHandler) PostRecord(c *gin.Context) {
	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		WriteError(c, http.StatusBadRequest, "RECORDTRAIL_VALIDATION_FAILED", "invalid request body", err.Error())
		return
	}
	key, err := recordtrail.ParseKey(string(req.Key))
	if err != nil {
		writeTrailError(c, h.logger, err)
		return
	}
	kind, err := recordtrail.ParseKind(req.Kind)
	if err != nil {
		writeTrailError(c, h.logger, err)
		return
	}
	before, err := recordtrail.ParseValues(string(req.Old))
	if err != nil {
		writeTrailError(c, h.logger, err)
		return
	}
	after, err := recordtrail.ParseValues(string(req.New))
	if err != nil {
		writeTrailError(c, h.logger, err)
		return
	}

	ctx := c.Request.Context()
	if actor := c.GetHeader("X-Actor"); actor != "" {
		ctx = recordtrail.WithActor(ctx, actor)
	}
	if reason := c.GetHeader("X-Change-Reason"); reason != "" {
		ctx = recordtrail.WithReason(ctx, reason)
	}
	ctx = recordtrail.WithTraceID(ctx, c.GetString(requestIDKey))

	rec, err := h.tracker.Record(ctx, h.db, recordtrail.Change{
		Table:       req.Table,
		Key:         key,
		Kind:        kind,
		Actor:       req.Actor,
		Old:         before,
		New:         after,
		Precomputed: req.Precomputed,
	})
	if err != nil {
		writeTrailError(c, h.logger, err)
		return
	}
	if rec.ID == 0 {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusCreated, rec)
}
