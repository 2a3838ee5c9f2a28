package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"habitd/internal/apperr"
	"habitd/internal/model"
)

// RecordHandler serves the daily record routes nested under a habit.
type RecordHandler struct {
	habits  HabitStore
	records RecordStore
	logger  *zap.Logger
}

func NewRecordHandler(habits HabitStore, records RecordStore, logger *zap.Logger) *RecordHandler {
	return &RecordHandler{habits: habits, records: records, logger: logger}
}

type createRecordRequest struct {
	Date      *model.Date `json:"date"`
	Completed bool        `json:"completed"`
}

type updateRecordRequest struct {
	Completed *bool `json:"completed"`
}

func (h *RecordHandler) List(c *gin.Context) {
	userID, _ := currentUserID(c)
	habitID, err := pathInt(c, "habitID")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ctx := c.Request.Context()
	if _, err := getOwnedHabit(ctx, h.habits, habitID, userID, "record"); err != nil {
		respondError(c, h.logger, err)
		return
	}

	filter, err := recordFilterFromQuery(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	records, err := h.records.ListByHabit(ctx, habitID, filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if records == nil {
		records = []model.HabitRecord{}
	}
	c.JSON(http.StatusOK, records)
}

func (h *RecordHandler) Create(c *gin.Context) {
	userID, _ := currentUserID(c)
	habitID, err := pathInt(c, "habitID")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var req createRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Date == nil {
		respondError(c, h.logger, apperr.Validation("date is required"))
		return
	}

	ctx := c.Request.Context()
	habit, err := getOwnedHabit(ctx, h.habits, habitID, userID, "record")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	record := &model.HabitRecord{
		HabitID:   habit.ID,
		Date:      *req.Date,
		Completed: req.Completed,
	}
	if record.Completed {
		now := time.Now().UTC()
		record.CompletedAt = &now
	}
	if err := h.records.Insert(ctx, record); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *RecordHandler) Get(c *gin.Context) {
	record, err := h.resolve(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *RecordHandler) Update(c *gin.Context) {
	var req updateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	record, err := h.resolve(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if req.Completed != nil && *req.Completed != record.Completed {
		record.Completed = *req.Completed
		if record.Completed {
			now := time.Now().UTC()
			record.CompletedAt = &now
		} else {
			record.CompletedAt = nil
		}
	}

	if err := h.records.Update(c.Request.Context(), record); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *RecordHandler) Delete(c *gin.Context) {
	record, err := h.resolve(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := h.records.Delete(c.Request.Context(), record.ID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecordHandler) resolve(c *gin.Context) (*model.HabitRecord, error) {
	userID, _ := currentUserID(c)
	habitID, err := pathInt(c, "habitID")
	if err != nil {
		return nil, err
	}
	recordID, err := pathInt(c, "recordID")
	if err != nil {
		return nil, err
	}

	ctx := c.Request.Context()
	habit, err := getOwnedHabit(ctx, h.habits, habitID, userID, "record")
	if err != nil {
		return nil, err
	}

	record, err := h.records.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.HabitID != habit.ID {
		return nil, apperr.NotFound("record not found")
	}
	return record, nil
}

func recordFilterFromQuery(c *gin.Context) (model.RecordFilter, error) {
	var f model.RecordFilter
	if v := c.Query("date__gte"); v != "" {
		d, err := model.ParseDate(v)
		if err != nil {
			return f, apperr.Validation("invalid date__gte")
		}
		f.DateGTE = &d
	}
	if v := c.Query("date__lte"); v != "" {
		d, err := model.ParseDate(v)
		if err != nil {
			return f, apperr.Validation("invalid date__lte")
		}
		f.DateLTE = &d
	}
	if v := c.Query("completed"); v != "" {
		switch v {
		case "true", "1":
			t := true
			f.Completed = &t
		case "false", "0":
			t := false
			f.Completed = &t
		default:
			return f, apperr.Validation("invalid completed")
		}
	}
	return f, nil
}
