package services

import (
	"errors"

	"shortlify/internal/repository"
)

// Outcomes of link operations. Callers classify with errors.Is.
var (
	ErrInvalidURL          = errors.New("invalid url")
	ErrInvalidAlias        = errors.New("invalid custom alias")
	ErrAliasConflict       = errors.New("custom alias already taken")
	ErrAllocationExhausted = errors.New("could not allocate a unique short id")
	ErrOwnerRequired       = errors.New("owner reference is required")
	ErrForbidden           = errors.New("link belongs to another user")
	ErrInactive            = errors.New("link is inactive")
	ErrExpired             = errors.New("link has expired")

	ErrNotFound = repository.ErrNotFound
	ErrStorage  = repository.ErrStorage
)
