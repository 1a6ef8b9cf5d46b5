package domain

import "errors"

var (
	ErrAuthRequired   = errors.New("authentication required")
	ErrItemNotFound   = errors.New("feedback item not found")
	ErrVoteNotFound   = errors.New("vote not found")
	ErrVoteExists     = errors.New("vote already exists")
	ErrInvalidVote    = errors.New("invalid vote polarity")
	ErrTitleRequired  = errors.New("title is required")
	ErrTitleTooLong   = errors.New("title is too long")
	ErrDescTooLong    = errors.New("description is too long")
	ErrAlreadyMounted = errors.New("view already mounted")
	ErrTornDown       = errors.New("view torn down")
)
