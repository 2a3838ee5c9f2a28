package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"habitd/internal/apperr"
	"habitd/internal/model"
)

// HabitHandler serves the top-level habit CRUD routes.
type HabitHandler struct {
	habits    HabitStore
	schedules ScheduleStore
	triggers  TriggerSyncer
	logger    *zap.Logger
}

func NewHabitHandler(habits HabitStore, schedules ScheduleStore, triggers TriggerSyncer, logger *zap.Logger) *HabitHandler {
	return &HabitHandler{habits: habits, schedules: schedules, triggers: triggers, logger: logger}
}

type createHabitRequest struct {
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description"`
	StartDate   model.Date `json:"start_date" binding:"required"`
}

type updateHabitRequest struct {
	Name        *string     `json:"name"`
	Description *string     `json:"description"`
	StartDate   *model.Date `json:"start_date"`
	IsActive    *bool       `json:"is_active"`
}

func (h *HabitHandler) List(c *gin.Context) {
	userID, _ := currentUserID(c)

	habits, err := h.habits.ListByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if habits == nil {
		habits = []model.Habit{}
	}
	c.JSON(http.StatusOK, habits)
}

func (h *HabitHandler) Create(c *gin.Context) {
	userID, _ := currentUserID(c)

	var req createHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	// Ownership is stamped from the token, never from the body.
	habit := &model.Habit{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		IsActive:    true,
	}
	if err := h.habits.Insert(c.Request.Context(), habit); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, habit)
}

func (h *HabitHandler) Get(c *gin.Context) {
	userID, _ := currentUserID(c)
	habitID, err := pathInt(c, "habitID")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	habit, err := getOwnedHabit(c.Request.Context(), h.habits, habitID, userID, "habit")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, habit)
}

func (h *HabitHandler) Update(c *gin.Context) {
	userID, _ := currentUserID(c)
	habitID, err := pathInt(c, "habitID")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var req updateHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	habit, err := getOwnedHabit(ctx, h.habits, habitID, userID, "habit")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	activeChanged := false
	if req.Name != nil {
		if *req.Name == "" {
			respondError(c, h.logger, apperr.Validation("name must not be empty"))
			return
		}
		habit.Name = *req.Name
	}
	if req.Description != nil {
		habit.Description = *req.Description
	}
	if req.StartDate != nil {
		habit.StartDate = *req.StartDate
	}
	if req.IsActive != nil && *req.IsActive != habit.IsActive {
		habit.IsActive = *req.IsActive
		activeChanged = true
	}

	if err := h.habits.Update(ctx, habit); err != nil {
		respondError(c, h.logger, err)
		return
	}

	// Flipping is_active enables or disables every reminder trigger
	// the habit's schedules own.
	if activeChanged {
		schedules, err := h.schedules.ListByHabit(ctx, habit.ID)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		if err := h.triggers.SyncAll(ctx, habit, schedules); err != nil {
			respondError(c, h.logger, err)
			return
		}
	}

	c.JSON(http.StatusOK, habit)
}

func (h *HabitHandler) Delete(c *gin.Context) {
	userID, _ := currentUserID(c)
	habitID, err := pathInt(c, "habitID")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ctx := c.Request.Context()
	habit, err := getOwnedHabit(ctx, h.habits, habitID, userID, "habit")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	// Collect schedule IDs before the cascade wipes them, then drop
	// their triggers.
	schedules, err := h.schedules.ListByHabit(ctx, habit.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.habits.Delete(ctx, habit.ID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	for _, s := range schedules {
		if err := h.triggers.Remove(ctx, s.ID); err != nil {
			h.logger.Warn("Failed to remove reminder trigger",
				zap.Int("schedule_id", s.ID),
				zap.Error(err),
			)
		}
	}

	c.Status(http.StatusNoContent)
}
