package model

// ReminderTrigger is a persisted periodic trigger definition. One row
// exists per habit schedule, named deterministically from the schedule
// ID, and carries crontab-style recurrence fields. Day-of-week uses
// crontab numbering (Sunday=0); only weekly triggers exist, so
// day-of-month and month-of-year are always wildcards.
type ReminderTrigger struct {
	ID          int
	Name        string
	Minute      string
	Hour        string
	DayOfWeek   string
	DayOfMonth  string
	MonthOfYear string
	Timezone    string
	Task        string
	Args        string // JSON-encoded argument list [user_id, habit_id]
	Enabled     bool
}
