package handler

import (
	"context"

	"habitd/internal/apperr"
	"habitd/internal/model"
)

// Visibility decides what a non-owner sees when naming someone else's
// resource.
type Visibility int

const (
	// HideExistence answers 404, so the caller cannot learn the
	// resource exists at all.
	HideExistence Visibility = iota
	// DenyAccess answers 403. The request path already named the
	// parent habit, so there is nothing left to hide.
	DenyAccess
)

// ownershipPolicy is the per-resource visibility table. Top-level
// habits hide their existence; resources nested under a habit deny
// access instead.
var ownershipPolicy = map[string]Visibility{
	"habit":    HideExistence,
	"schedule": DenyAccess,
	"record":   DenyAccess,
}

func ownershipError(resource string) error {
	if ownershipPolicy[resource] == DenyAccess {
		return apperr.Forbidden("you do not own this habit")
	}
	return apperr.NotFound(resource + " not found")
}

// getOwnedHabit resolves a habit and enforces ownership, converting a
// foreign owner into the policy error for the resource being accessed.
// A missing habit is always a plain 404.
func getOwnedHabit(ctx context.Context, habits HabitStore, habitID, callerID int, resource string) (*model.Habit, error) {
	h, err := habits.FindByID(ctx, habitID)
	if err != nil {
		return nil, err
	}
	if h.UserID != callerID {
		return nil, ownershipError(resource)
	}
	return h, nil
}
