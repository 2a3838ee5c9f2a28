package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"not found", NotFound("habit not found"), KindNotFound},
		{"forbidden", Forbidden("not the owner"), KindForbidden},
		{"conflict", Conflict("duplicate"), KindConflict},
		{"validation", Validation("day_of_week out of range"), KindValidation},
		{"unauthorized", Unauthorized("missing token"), KindUnauthorized},
		{"plain error", errors.New("boom"), KindUnknown},
		{"wrapped", fmt.Errorf("ctx: %w", Conflict("duplicate")), KindConflict},
		{"nil-ish unknown", fmt.Errorf("boom"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFromDB(t *testing.T) {
	if err := FromDB(nil, "nf", "cf"); err != nil {
		t.Fatalf("FromDB(nil) = %v, want nil", err)
	}

	err := FromDB(pgx.ErrNoRows, "habit not found", "")
	if KindOf(err) != KindNotFound {
		t.Errorf("no rows should map to NotFound, got %v", err)
	}
	if Message(err) != "habit not found" {
		t.Errorf("Message() = %q", Message(err))
	}

	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "habit_schedules_habit_id_day_of_week_key"}
	err = FromDB(fmt.Errorf("insert: %w", pgErr), "", "schedule for this day already exists")
	if KindOf(err) != KindConflict {
		t.Errorf("unique violation should map to Conflict, got %v", err)
	}

	// Foreign-key violations are not ours to classify.
	other := &pgconn.PgError{Code: "23503"}
	if got := FromDB(other, "nf", "cf"); !errors.Is(got, other) {
		t.Errorf("unrelated pg error should pass through, got %v", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NotFound("x"), http.StatusNotFound},
		{Forbidden("x"), http.StatusForbidden},
		{Conflict("x"), http.StatusConflict},
		{Validation("x"), http.StatusBadRequest},
		{Unauthorized("x"), http.StatusUnauthorized},
		{errors.New("x"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestMessageHidesInternalErrors(t *testing.T) {
	if got := Message(errors.New("pq: connection refused")); got != "internal server error" {
		t.Errorf("Message() leaked internal error: %q", got)
	}
}
