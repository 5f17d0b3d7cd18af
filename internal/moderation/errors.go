package moderation

import "errors"

var (
	// ErrBusy means another mutation on the same subject is still in flight.
	ErrBusy = errors.New("a change for this record is already in progress")
	// ErrNoteRequired rejects decisions without a note.
	ErrNoteRequired = errors.New("a decision note is required")
	// ErrNotPending rejects decisions on reports that were already decided.
	ErrNotPending = errors.New("report has already been decided")
	// ErrInvalidAction rejects unknown decision actions.
	ErrInvalidAction = errors.New("action must be approve or reject")
	// ErrUserNotFound means no user carries the requested id.
	ErrUserNotFound = errors.New("user not found")
	// ErrNoRole means the user has no profile for the requested role.
	ErrNoRole = errors.New("user has no profile for this role")
	// ErrNotBanned means there is no active ban to lift.
	ErrNotBanned = errors.New("no active ban for this role")
)
