package model

import "errors"

var (
	ErrNoDocument      = errors.New("no document has been indexed for this session")
	ErrEmptySplit      = errors.New("failed to split document")
	ErrUnsupportedFile = errors.New("please provide txt or pdf file")
	ErrInvalidParams   = errors.New("invalid parameters")
	ErrSessionNotFound = errors.New("session not found")
	ErrMissingAPIKey   = errors.New("api key not configured")
	ErrEmptyQuestion   = errors.New("question is required")
)
