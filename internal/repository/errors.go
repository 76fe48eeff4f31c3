package repository

import (
	"errors"

	"github.com/lib/pq"

	"warbler/internal/model"
)

// PostgreSQL error codes the repositories translate into domain errors.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

const (
	constraintUsername = "users_username_key"
	constraintEmail    = "users_email_key"
	constraintNoSelf   = "follows_no_self_follow"
)

func pqCode(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr, true
	}
	return nil, false
}

// mapUserConstraint converts a unique violation on users into ErrUsernameExists/ErrEmailExists.
func mapUserConstraint(err error) error {
	pqErr, ok := pqCode(err)
	if !ok || string(pqErr.Code) != pqUniqueViolation {
		return nil
	}
	switch pqErr.Constraint {
	case constraintUsername:
		return model.ErrUsernameExists
	case constraintEmail:
		return model.ErrEmailExists
	}
	return nil
}
