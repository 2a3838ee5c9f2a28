package model

import "time"

// Habit is a user-defined recurring activity being tracked. Deleting a
// habit cascades to its schedules and records.
type Habit struct {
	ID          int       `json:"id"`
	UserID      int       `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartDate   Date      `json:"start_date"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// HabitSchedule is one weekday+time reminder rule. Day numbering starts
// at Monday=0. A habit can hold at most one entry per weekday.
type HabitSchedule struct {
	ID           int `json:"id"`
	HabitID      int `json:"habit_id"`
	DayOfWeek    int `json:"day_of_week"`
	RemindHour   int `json:"remind_hour"`
	RemindMinute int `json:"remind_minute"`
}

// HabitRecord is a per-date completion entry. At most one record exists
// per habit per day.
type HabitRecord struct {
	ID          int        `json:"id"`
	HabitID     int        `json:"habit_id"`
	Date        Date       `json:"date"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
}

// RecordFilter narrows record listings. Nil fields match everything.
type RecordFilter struct {
	DateGTE   *Date
	DateLTE   *Date
	Completed *bool
}

// AnalyticsFilter narrows the completion aggregation.
type AnalyticsFilter struct {
	HabitID   *int
	StartDate *Date
	EndDate   *Date
}

// AnalyticsBucket is one row of the completions-per-date aggregation.
type AnalyticsBucket struct {
	Date           Date `json:"date"`
	CompletedCount int  `json:"completed_count"`
}
