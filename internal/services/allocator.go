package services

import (
	"context"
	"fmt"
	"regexp"

	"shortlify/internal/repository"
	"shortlify/pkg/utils"
)

const (
	DefaultShortIDLength      = 6
	DefaultAllocationAttempts = 5
)

var aliasPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Aliases that would shadow a route of the HTTP boundary.
var reservedAliases = map[string]struct{}{
	"api":     {},
	"preview": {},
	"health":  {},
	"metrics": {},
}

// ValidAlias reports whether alias is usable as a path segment.
func ValidAlias(alias string) bool {
	if !aliasPattern.MatchString(alias) {
		return false
	}
	_, reserved := reservedAliases[alias]
	return !reserved
}

// Allocator hands out short ids that are not in use, either generated or a
// caller-chosen alias.
type Allocator struct {
	store         repository.LinkStore
	length        int
	maxAttempts   int
	codeGenerator func(int) (string, error)
}

func NewAllocator(store repository.LinkStore, length, maxAttempts int) *Allocator {
	if length <= 0 {
		length = DefaultShortIDLength
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultAllocationAttempts
	}
	return &Allocator{
		store:         store,
		length:        length,
		maxAttempts:   maxAttempts,
		codeGenerator: utils.GenerateShortCode,
	}
}

// Allocate returns customAlias unchanged when it is valid and free, or a
// fresh generated id when customAlias is empty.
func (a *Allocator) Allocate(ctx context.Context, customAlias string) (string, error) {
	if customAlias != "" {
		if !ValidAlias(customAlias) {
			return "", ErrInvalidAlias
		}
		taken, err := a.aliasTaken(ctx, customAlias)
		if err != nil {
			return "", err
		}
		if taken {
			return "", ErrAliasConflict
		}
		return customAlias, nil
	}

	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		shortID, err := a.codeGenerator(a.length)
		if err != nil {
			return "", fmt.Errorf("generate short id: %w", err)
		}
		taken, err := a.idTaken(ctx, shortID)
		if err != nil {
			return "", err
		}
		if !taken {
			return shortID, nil
		}
		allocationRetriesTotal.Inc()
	}
	return "", ErrAllocationExhausted
}

func (a *Allocator) idTaken(ctx context.Context, shortID string) (bool, error) {
	return a.store.Exists(ctx, shortID)
}

// An alias doubles as the short id, so it must be free in both roles.
func (a *Allocator) aliasTaken(ctx context.Context, alias string) (bool, error) {
	return a.store.Exists(ctx, alias)
}
