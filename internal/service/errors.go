package service

import "errors"

var (
	ErrMemberNotFound  = errors.New("member not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrMeetingNotFound = errors.New("meeting not found")
	ErrTaskNotFound    = errors.New("task not found")

	ErrMemberExists           = errors.New("member already exists")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidResetToken      = errors.New("invalid or expired reset token")
	ErrInvalidCompletionToken = errors.New("invalid completion token")
	ErrEmptyComment           = errors.New("comment text is required")
)
