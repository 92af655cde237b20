// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// WHY A SEPARATE SERVICE LAYER?
// Business rules (who may follow whom, what a valid track is) are tested
// here with plain Go calls and in-memory fakes, without HTTP or SQL. The
// cobra CLI reuses the same services as the HTTP handlers.
//
// THE CALLER IS AN ARGUMENT:
// Every operation that cares about identity takes the authenticated user as
// an explicit *model.User parameter (nil = anonymous) instead of digging it
// out of a context. The signature says what the rule depends on, and tests
// just pass a user.
package service

import (
	"github.com/sakif/vocalcollab/internal/apperror"
	"github.com/sakif/vocalcollab/internal/model"
	"github.com/sakif/vocalcollab/internal/repository"
)

// MaxListLimit caps a page. A zero limit means "everything", which is what
// the feed endpoints return when no ?limit= is given.
const MaxListLimit = 100

// listOptions clamps pagination parameters to sane values.
func listOptions(limit, offset int) repository.ListOptions {
	if limit < 0 {
		limit = 0
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return repository.ListOptions{Limit: limit, Offset: offset}
}

// requireCaller guards operations that make no sense anonymously. The HTTP
// middleware already enforces this; the check keeps non-HTTP callers honest.
func requireCaller(caller *model.User) error {
	if caller == nil {
		return apperror.Unauthorized("Authentication credentials were not provided.")
	}
	return nil
}
