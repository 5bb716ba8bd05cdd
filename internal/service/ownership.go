package service

import (
	"github.com/spec-kit/offset-service/internal/domain"
	apperrors "github.com/spec-kit/offset-service/pkg/util/errorutil"
)

// Authorize fails with UnauthorizedAction unless caller owns record. Callers must
// have confirmed the record exists first.
func Authorize(record *domain.NamedOffset, caller *domain.User, action string) error {
	if caller == nil || record.OwnerID != caller.ID {
		return apperrors.NewUnauthorizedAction("Unauthorized to " + action + " this TimeZone")
	}
	return nil
}
