package service

import "errors"

var (
	// ErrSessionNotFound means the session id does not exist or belongs to
	// another user.
	ErrSessionNotFound = errors.New("session not found")

	// ErrWrongPhase means the request does not match the session's current
	// step, e.g. asking for a question outside the assessment phase.
	ErrWrongPhase = errors.New("wrong session phase")

	// ErrTeachingInactive means a teaching message arrived before
	// /teach/start activated the session's teaching mode.
	ErrTeachingInactive = errors.New("teaching is not active")

	// ErrEmptyMessage means a chat endpoint received blank text.
	ErrEmptyMessage = errors.New("empty message")

	// ErrNoTopics means teaching was started before a report produced any
	// strengths or gaps to teach.
	ErrNoTopics = errors.New("no topics to teach")
)
