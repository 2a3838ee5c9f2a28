package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"habitd/internal/apperr"
	"habitd/internal/model"
	"habitd/internal/util"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// In-memory stores standing in for the pgx repositories.

type fakeHabitStore struct {
	nextID int
	habits map[int]*model.Habit
}

func newFakeHabitStore() *fakeHabitStore {
	return &fakeHabitStore{nextID: 1, habits: map[int]*model.Habit{}}
}

func (s *fakeHabitStore) Insert(_ context.Context, h *model.Habit) error {
	h.ID = s.nextID
	s.nextID++
	cp := *h
	s.habits[h.ID] = &cp
	return nil
}

func (s *fakeHabitStore) ListByUser(_ context.Context, userID int) ([]model.Habit, error) {
	var out []model.Habit
	for _, h := range s.habits {
		if h.UserID == userID {
			out = append(out, *h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeHabitStore) FindByID(_ context.Context, id int) (*model.Habit, error) {
	h, ok := s.habits[id]
	if !ok {
		return nil, apperr.NotFound("habit not found")
	}
	cp := *h
	return &cp, nil
}

func (s *fakeHabitStore) Update(_ context.Context, h *model.Habit) error {
	if _, ok := s.habits[h.ID]; !ok {
		return apperr.NotFound("habit not found")
	}
	cp := *h
	s.habits[h.ID] = &cp
	return nil
}

func (s *fakeHabitStore) Delete(_ context.Context, id int) error {
	if _, ok := s.habits[id]; !ok {
		return apperr.NotFound("habit not found")
	}
	delete(s.habits, id)
	return nil
}

type fakeScheduleStore struct {
	nextID    int
	schedules map[int]*model.HabitSchedule
}

func newFakeScheduleStore() *fakeScheduleStore {
	return &fakeScheduleStore{nextID: 1, schedules: map[int]*model.HabitSchedule{}}
}

func (s *fakeScheduleStore) Insert(_ context.Context, sched *model.HabitSchedule) error {
	for _, existing := range s.schedules {
		if existing.HabitID == sched.HabitID && existing.DayOfWeek == sched.DayOfWeek {
			return apperr.Conflict("schedule for this day of week already exists")
		}
	}
	sched.ID = s.nextID
	s.nextID++
	cp := *sched
	s.schedules[sched.ID] = &cp
	return nil
}

func (s *fakeScheduleStore) ListByHabit(_ context.Context, habitID int) ([]model.HabitSchedule, error) {
	var out []model.HabitSchedule
	for _, sched := range s.schedules {
		if sched.HabitID == habitID {
			out = append(out, *sched)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayOfWeek < out[j].DayOfWeek })
	return out, nil
}

func (s *fakeScheduleStore) FindByID(_ context.Context, id int) (*model.HabitSchedule, error) {
	sched, ok := s.schedules[id]
	if !ok {
		return nil, apperr.NotFound("schedule not found")
	}
	cp := *sched
	return &cp, nil
}

func (s *fakeScheduleStore) Update(_ context.Context, sched *model.HabitSchedule) error {
	for _, existing := range s.schedules {
		if existing.ID != sched.ID && existing.HabitID == sched.HabitID && existing.DayOfWeek == sched.DayOfWeek {
			return apperr.Conflict("schedule for this day of week already exists")
		}
	}
	if _, ok := s.schedules[sched.ID]; !ok {
		return apperr.NotFound("schedule not found")
	}
	cp := *sched
	s.schedules[sched.ID] = &cp
	return nil
}

func (s *fakeScheduleStore) Delete(_ context.Context, id int) error {
	if _, ok := s.schedules[id]; !ok {
		return apperr.NotFound("schedule not found")
	}
	delete(s.schedules, id)
	return nil
}

type fakeRecordStore struct {
	nextID  int
	records map[int]*model.HabitRecord
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{nextID: 1, records: map[int]*model.HabitRecord{}}
}

func (s *fakeRecordStore) Insert(_ context.Context, r *model.HabitRecord) error {
	for _, existing := range s.records {
		if existing.HabitID == r.HabitID && existing.Date.String() == r.Date.String() {
			return apperr.Conflict("record for this date already exists")
		}
	}
	r.ID = s.nextID
	s.nextID++
	cp := *r
	s.records[r.ID] = &cp
	return nil
}

func (s *fakeRecordStore) ListByHabit(_ context.Context, habitID int, f model.RecordFilter) ([]model.HabitRecord, error) {
	var out []model.HabitRecord
	for _, r := range s.records {
		if r.HabitID != habitID {
			continue
		}
		if f.DateGTE != nil && r.Date.Before(f.DateGTE.Time) {
			continue
		}
		if f.DateLTE != nil && r.Date.After(f.DateLTE.Time) {
			continue
		}
		if f.Completed != nil && r.Completed != *f.Completed {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out, nil
}

func (s *fakeRecordStore) FindByID(_ context.Context, id int) (*model.HabitRecord, error) {
	r, ok := s.records[id]
	if !ok {
		return nil, apperr.NotFound("record not found")
	}
	cp := *r
	return &cp, nil
}

func (s *fakeRecordStore) Update(_ context.Context, r *model.HabitRecord) error {
	if _, ok := s.records[r.ID]; !ok {
		return apperr.NotFound("record not found")
	}
	cp := *r
	s.records[r.ID] = &cp
	return nil
}

func (s *fakeRecordStore) Delete(_ context.Context, id int) error {
	if _, ok := s.records[id]; !ok {
		return apperr.NotFound("record not found")
	}
	delete(s.records, id)
	return nil
}

// fakeAnalyticsStore mirrors the SQL join: only records of habits owned
// by the caller count.
type fakeAnalyticsStore struct {
	habits  *fakeHabitStore
	records *fakeRecordStore
}

func (s *fakeAnalyticsStore) CompletionsByDate(_ context.Context, userID int, f model.AnalyticsFilter) ([]model.AnalyticsBucket, error) {
	counts := map[string]int{}
	for _, r := range s.records.records {
		if !r.Completed {
			continue
		}
		h, ok := s.habits.habits[r.HabitID]
		if !ok || h.UserID != userID {
			continue
		}
		if f.HabitID != nil && r.HabitID != *f.HabitID {
			continue
		}
		if f.StartDate != nil && r.Date.Before(f.StartDate.Time) {
			continue
		}
		if f.EndDate != nil && r.Date.After(f.EndDate.Time) {
			continue
		}
		counts[r.Date.String()]++
	}

	var out []model.AnalyticsBucket
	for day, n := range counts {
		d, _ := model.ParseDate(day)
		out = append(out, model.AnalyticsBucket{Date: d, CompletedCount: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out, nil
}

type syncCall struct {
	habitID    int
	scheduleID int
	enabled    bool
}

type fakeTriggerSyncer struct {
	syncs   []syncCall
	removed []int
}

func (f *fakeTriggerSyncer) Sync(_ context.Context, habit *model.Habit, sched *model.HabitSchedule) error {
	f.syncs = append(f.syncs, syncCall{habitID: habit.ID, scheduleID: sched.ID, enabled: habit.IsActive})
	return nil
}

func (f *fakeTriggerSyncer) SyncAll(ctx context.Context, habit *model.Habit, schedules []model.HabitSchedule) error {
	for i := range schedules {
		if err := f.Sync(ctx, habit, &schedules[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeTriggerSyncer) Remove(_ context.Context, scheduleID int) error {
	f.removed = append(f.removed, scheduleID)
	return nil
}

type fakeReplayer struct {
	replayed   []int64
	failCount  int
	replayErr  error
	listingErr error
}

func (f *fakeReplayer) ReplayEvent(_ context.Context, eventID int64) error {
	if f.replayErr != nil {
		return f.replayErr
	}
	f.replayed = append(f.replayed, eventID)
	return nil
}

func (f *fakeReplayer) ReplayFailedEvents(_ context.Context, limit int) (int, error) {
	if f.listingErr != nil {
		return 0, f.listingErr
	}
	n := f.failCount
	if n > limit {
		n = limit
	}
	return n, nil
}

type fakeAuthService struct {
	registerErr error
	verifyErr   error
	loginErr    error
}

func (f *fakeAuthService) Register(_ context.Context, username, email, _ string) (*model.User, util.TokenPair, error) {
	if f.registerErr != nil {
		return nil, util.TokenPair{}, f.registerErr
	}
	u := &model.User{ID: 1, Username: username, Email: email}
	return u, util.TokenPair{Access: "access-token", Refresh: "refresh-token"}, nil
}

func (f *fakeAuthService) Login(_ context.Context, _, _ string) (util.TokenPair, error) {
	if f.loginErr != nil {
		return util.TokenPair{}, f.loginErr
	}
	return util.TokenPair{Access: "access-token", Refresh: "refresh-token"}, nil
}

func (f *fakeAuthService) Refresh(_ context.Context, _ string) (util.TokenPair, error) {
	return util.TokenPair{Access: "access-token", Refresh: "refresh-token"}, nil
}

func (f *fakeAuthService) Verify(_ context.Context, _ int, _ string) error {
	return f.verifyErr
}

// env bundles the fakes behind a wired test router. Requests carry the
// caller's user ID in a test-only header read by the auth stub.
type env struct {
	habits    *fakeHabitStore
	schedules *fakeScheduleStore
	records   *fakeRecordStore
	triggers  *fakeTriggerSyncer
	auth      *fakeAuthService
	replayer  *fakeReplayer
	router    *gin.Engine
}

func newEnv(t *testing.T) *env {
	t.Helper()

	e := &env{
		habits:    newFakeHabitStore(),
		schedules: newFakeScheduleStore(),
		records:   newFakeRecordStore(),
		triggers:  &fakeTriggerSyncer{},
		auth:      &fakeAuthService{},
		replayer:  &fakeReplayer{},
	}

	logger := zap.NewNop()
	habitHandler := NewHabitHandler(e.habits, e.schedules, e.triggers, logger)
	scheduleHandler := NewScheduleHandler(e.habits, e.schedules, e.triggers, logger)
	recordHandler := NewRecordHandler(e.habits, e.records, logger)
	analyticsHandler := NewAnalyticsHandler(&fakeAnalyticsStore{habits: e.habits, records: e.records}, logger)
	authHandler := NewAuthHandler(e.auth, logger)
	adminHandler := NewAdminHandler(e.replayer, logger)

	r := gin.New()
	r.POST("/auth/register", authHandler.Register)
	r.POST("/auth/token", authHandler.Token)
	r.POST("/auth/token/refresh", authHandler.Refresh)
	r.GET("/auth/verify/:userID/:token", authHandler.Verify)

	authed := r.Group("/")
	authed.Use(func(c *gin.Context) {
		if v := c.GetHeader("X-Test-User"); v != "" {
			if id, err := strconv.Atoi(v); err == nil {
				c.Set("user_id", id)
			}
		}
		c.Next()
	})
	{
		authed.GET("/habits", habitHandler.List)
		authed.POST("/habits", habitHandler.Create)
		authed.GET("/habits/:habitID", habitHandler.Get)
		authed.PATCH("/habits/:habitID", habitHandler.Update)
		authed.DELETE("/habits/:habitID", habitHandler.Delete)

		authed.GET("/habits/:habitID/schedules", scheduleHandler.List)
		authed.POST("/habits/:habitID/schedules", scheduleHandler.Create)
		authed.GET("/habits/:habitID/schedules/:scheduleID", scheduleHandler.Get)
		authed.PATCH("/habits/:habitID/schedules/:scheduleID", scheduleHandler.Update)
		authed.DELETE("/habits/:habitID/schedules/:scheduleID", scheduleHandler.Delete)

		authed.GET("/habits/:habitID/records", recordHandler.List)
		authed.POST("/habits/:habitID/records", recordHandler.Create)
		authed.GET("/habits/:habitID/records/:recordID", recordHandler.Get)
		authed.PATCH("/habits/:habitID/records/:recordID", recordHandler.Update)
		authed.DELETE("/habits/:habitID/records/:recordID", recordHandler.Delete)

		authed.GET("/habits/:habitID/analytics", analyticsHandler.HabitCompletions)
		authed.GET("/analytics/completions", analyticsHandler.Completions)

		authed.POST("/admin/outbox/replay", adminHandler.ReplayOutboxEvent)
		authed.POST("/admin/outbox/replay-failed", adminHandler.ReplayFailedOutboxEvents)
	}

	e.router = r
	return e
}

func (e *env) do(t *testing.T, userID int, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = strings.NewReader(string(b))
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		req.Header.Set("X-Test-User", strconv.Itoa(userID))
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) seedHabit(t *testing.T, userID int, name string) *model.Habit {
	t.Helper()
	h := &model.Habit{UserID: userID, Name: name, StartDate: model.Today(), IsActive: true}
	if err := e.habits.Insert(context.Background(), h); err != nil {
		t.Fatalf("seed habit: %v", err)
	}
	return h
}

func itoa(n int) string { return strconv.Itoa(n) }

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}
