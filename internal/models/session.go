package models

import (
	"fmt"
	"time"
)

// FeedbackAction is a user interaction recorded against a search session.
type FeedbackAction string

const (
	ActionClick       FeedbackAction = "click"
	ActionOutreach    FeedbackAction = "outreach"
	ActionSave        FeedbackAction = "save"
	ActionRefine      FeedbackAction = "refine_search"
	ActionViewResults FeedbackAction = "view_results"
)

// Valid reports whether a is one of the recognized feedback actions.
func (a FeedbackAction) Valid() bool {
	switch a {
	case ActionClick, ActionOutreach, ActionSave, ActionRefine, ActionViewResults:
		return true
	}
	return false
}

// OwnerRef identifies who a search session belongs to: an authenticated user
// or an anonymous guest session, exactly one of the two.
type OwnerRef struct {
	UserID  string `json:"user_id,omitempty"`
	GuestID string `json:"guest_user_id,omitempty"`
}

func (o OwnerRef) Validate() error {
	if (o.UserID == "") == (o.GuestID == "") {
		return fmt.Errorf("session owner must be exactly one of user id or guest id")
	}
	return nil
}

// SearchSession records one query-to-results interaction lifecycle. It is
// created on the first query of a browsing sequence and mutated in place by
// feedback events; the core never deletes sessions.
type SearchSession struct {
	ID              string      `json:"id"`
	UserQuery       string      `json:"user_query"`
	ParsedFilters   FilterModel `json:"parsed_filters"`
	ResultsCount    int         `json:"results_count"`
	UserClicked     bool        `json:"user_clicked_results"`
	UserRefined     bool        `json:"user_refined_search"`
	DurationSeconds *int64      `json:"session_duration_seconds,omitempty"`
	SuccessScore    float64     `json:"success_score"`
	Owner           OwnerRef    `json:"owner"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// SearchInteraction is an append-only record of a creator-level event
// (click, outreach, save) within a session.
type SearchInteraction struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	CreatorID string         `json:"creator_id"`
	Action    FeedbackAction `json:"action"`
	CreatedAt time.Time      `json:"created_at"`
}
