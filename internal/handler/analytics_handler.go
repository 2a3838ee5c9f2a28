package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"habitd/internal/apperr"
	"habitd/internal/model"
)

// AnalyticsHandler serves completion analytics. Results are scoped to
// the caller in the query itself, so a foreign habit filter simply
// yields no rows.
type AnalyticsHandler struct {
	analytics AnalyticsStore
	logger    *zap.Logger
}

func NewAnalyticsHandler(analytics AnalyticsStore, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, logger: logger}
}

// Completions answers the unscoped analytics route, filtered by
// habit_id, start_date and end_date query parameters.
func (h *AnalyticsHandler) Completions(c *gin.Context) {
	userID, _ := currentUserID(c)

	filter, err := analyticsFilterFromQuery(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if v := c.Query("habit_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			respondError(c, h.logger, apperr.Validation("invalid habit_id"))
			return
		}
		filter.HabitID = &id
	}

	h.respond(c, userID, filter)
}

// HabitCompletions answers the per-habit analytics route.
func (h *AnalyticsHandler) HabitCompletions(c *gin.Context) {
	userID, _ := currentUserID(c)
	habitID, err := pathInt(c, "habitID")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	filter, err := analyticsFilterFromQuery(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	filter.HabitID = &habitID

	h.respond(c, userID, filter)
}

func (h *AnalyticsHandler) respond(c *gin.Context, userID int, filter model.AnalyticsFilter) {
	buckets, err := h.analytics.CompletionsByDate(c.Request.Context(), userID, filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if buckets == nil {
		buckets = []model.AnalyticsBucket{}
	}
	c.JSON(http.StatusOK, buckets)
}

func analyticsFilterFromQuery(c *gin.Context) (model.AnalyticsFilter, error) {
	var f model.AnalyticsFilter
	if v := c.Query("start_date"); v != "" {
		d, err := model.ParseDate(v)
		if err != nil {
			return f, apperr.Validation("invalid start_date")
		}
		f.StartDate = &d
	}
	if v := c.Query("end_date"); v != "" {
		d, err := model.ParseDate(v)
		if err != nil {
			return f, apperr.Validation("invalid end_date")
		}
		f.EndDate = &d
	}
	return f, nil
}
