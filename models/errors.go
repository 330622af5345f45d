package models

import "errors"

// Domain errors returned by the poll engine and membership checks.
// Handlers map these to HTTP status codes.
var (
	ErrNotAMember      = errors.New("user is not a member of this group")
	ErrForbidden       = errors.New("insufficient permissions")
	ErrAlreadyVoted    = errors.New("user has already voted in this poll")
	ErrPollExpired     = errors.New("poll has expired")
	ErrPollClosed      = errors.New("poll is already closed")
	ErrResultsNotReady = errors.New("results are available after the poll ends")
)
