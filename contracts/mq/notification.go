// Package mq holds the wire contracts for job-queue payloads shared
// between the API, the scheduler and the worker.
package mq

// Routing keys for notification jobs.
const (
	RoutingKeyHabitReminder = "notification.habit_reminder"
	RoutingKeyVerifyEmail   = "notification.verify_email"
)

// HabitReminderPayload asks the worker to remind one user about one
// habit. The worker re-resolves both from the store, since the trigger
// may fire long after the schedule was written.
type HabitReminderPayload struct {
	UserID  int    `json:"user_id"`
	HabitID int    `json:"habit_id"`
	TraceID string `json:"trace_id,omitempty"`
}

// VerifyEmailPayload asks the worker to send one registration
// verification email.
type VerifyEmailPayload struct {
	UserID    int    `json:"user_id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	VerifyURL string `json:"verify_url"`
	TraceID   string `json:"trace_id,omitempty"`
}
