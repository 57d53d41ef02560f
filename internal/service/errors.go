package service

import "errors"

var (
	ErrFileTooLarge         = errors.New("file exceeds the maximum allowed size")
	ErrEmptyDocument        = errors.New("document contains no extractable text")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMissingUserMessage   = errors.New("completion request must end with a user message")
)
