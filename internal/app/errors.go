package app

import "errors"

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrCompanyExists        = errors.New("company already registered")
	ErrEmailExists          = errors.New("email already registered")
	ErrInvalidCredential    = errors.New("invalid email or password")
	ErrDocumentNotFound     = errors.New("document not found")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrCategoryExists       = errors.New("category name already exists")
	ErrCategoryNotPending   = errors.New("category is not awaiting approval")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageEmpty         = errors.New("message content is empty")
	ErrEventEnqueue         = errors.New("event enqueue failed")
)
