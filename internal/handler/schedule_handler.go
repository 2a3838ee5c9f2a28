package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"habitd/internal/apperr"
	"habitd/internal/model"
)

// ScheduleHandler serves the weekly schedule routes nested under a
// habit.
type ScheduleHandler struct {
	habits    HabitStore
	schedules ScheduleStore
	triggers  TriggerSyncer
	logger    *zap.Logger
}

func NewScheduleHandler(habits HabitStore, schedules ScheduleStore, triggers TriggerSyncer, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{habits: habits, schedules: schedules, triggers: triggers, logger: logger}
}

// Pointer fields: zero is a legal value for every one of these, so
// required-ness is checked by hand instead of binding tags.
type scheduleRequest struct {
	DayOfWeek    *int `json:"day_of_week"`
	RemindHour   *int `json:"remind_hour"`
	RemindMinute *int `json:"remind_minute"`
}

func (r *scheduleRequest) validate() error {
	if r.DayOfWeek == nil || r.RemindHour == nil || r.RemindMinute == nil {
		return apperr.Validation("day_of_week, remind_hour and remind_minute are required")
	}
	if *r.DayOfWeek < 0 || *r.DayOfWeek > 6 {
		return apperr.Validation("day_of_week must be between 0 and 6")
	}
	if *r.RemindHour < 0 || *r.RemindHour > 23 {
		return apperr.Validation("remind_hour must be between 0 and 23")
	}
	if *r.RemindMinute < 0 || *r.RemindMinute > 59 {
		return apperr.Validation("remind_minute must be between 0 and 59")
	}
	return nil
}

func (h *ScheduleHandler) List(c *gin.Context) {
	userID, _ := currentUserID(c)
	habitID, err := pathInt(c, "habitID")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ctx := c.Request.Context()
	if _, err := getOwnedHabit(ctx, h.habits, habitID, userID, "schedule"); err != nil {
		respondError(c, h.logger, err)
		return
	}

	schedules, err := h.schedules.ListByHabit(ctx, habitID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if schedules == nil {
		schedules = []model.HabitSchedule{}
	}
	c.JSON(http.StatusOK, schedules)
}

func (h *ScheduleHandler) Create(c *gin.Context) {
	userID, _ := currentUserID(c)
	habitID, err := pathInt(c, "habitID")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := req.validate(); err != nil {
		respondError(c, h.logger, err)
		return
	}

	ctx := c.Request.Context()
	habit, err := getOwnedHabit(ctx, h.habits, habitID, userID, "schedule")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	sched := &model.HabitSchedule{
		HabitID:      habit.ID,
		DayOfWeek:    *req.DayOfWeek,
		RemindHour:   *req.RemindHour,
		RemindMinute: *req.RemindMinute,
	}
	if err := h.schedules.Insert(ctx, sched); err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.triggers.Sync(ctx, habit, sched); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, sched)
}

func (h *ScheduleHandler) Get(c *gin.Context) {
	sched, _, err := h.resolve(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, sched)
}

func (h *ScheduleHandler) Update(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sched, habit, err := h.resolve(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ctx := c.Request.Context()
	if req.DayOfWeek != nil {
		if *req.DayOfWeek < 0 || *req.DayOfWeek > 6 {
			respondError(c, h.logger, apperr.Validation("day_of_week must be between 0 and 6"))
			return
		}
		sched.DayOfWeek = *req.DayOfWeek
	}
	if req.RemindHour != nil {
		if *req.RemindHour < 0 || *req.RemindHour > 23 {
			respondError(c, h.logger, apperr.Validation("remind_hour must be between 0 and 23"))
			return
		}
		sched.RemindHour = *req.RemindHour
	}
	if req.RemindMinute != nil {
		if *req.RemindMinute < 0 || *req.RemindMinute > 59 {
			respondError(c, h.logger, apperr.Validation("remind_minute must be between 0 and 59"))
			return
		}
		sched.RemindMinute = *req.RemindMinute
	}

	if err := h.schedules.Update(ctx, sched); err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := h.triggers.Sync(ctx, habit, sched); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, sched)
}

func (h *ScheduleHandler) Delete(c *gin.Context) {
	sched, _, err := h.resolve(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.schedules.Delete(ctx, sched.ID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := h.triggers.Remove(ctx, sched.ID); err != nil {
		h.logger.Warn("Failed to remove reminder trigger",
			zap.Int("schedule_id", sched.ID),
			zap.Error(err),
		)
	}
	c.Status(http.StatusNoContent)
}

// resolve loads the schedule named by the path and enforces both
// ownership of the parent habit and that the schedule actually belongs
// to it.
func (h *ScheduleHandler) resolve(c *gin.Context) (*model.HabitSchedule, *model.Habit, error) {
	userID, _ := currentUserID(c)
	habitID, err := pathInt(c, "habitID")
	if err != nil {
		return nil, nil, err
	}
	schedID, err := pathInt(c, "scheduleID")
	if err != nil {
		return nil, nil, err
	}

	ctx := c.Request.Context()
	habit, err := getOwnedHabit(ctx, h.habits, habitID, userID, "schedule")
	if err != nil {
		return nil, nil, err
	}

	sched, err := h.schedules.FindByID(ctx, schedID)
	if err != nil {
		return nil, nil, err
	}
	if sched.HabitID != habit.ID {
		return nil, nil, apperr.NotFound("schedule not found")
	}
	return sched, habit, nil
}
