// Package guard holds the authorization checks shared by the review and
// moderation services.
package guard

import (
	"context"
	"fmt"

	"github.com/utafrali/reviewmod/internal/domain"
	apperrors "github.com/utafrali/reviewmod/pkg/errors"
)

// UserLookup loads a user by id. It returns a NotFound error when the user
// does not exist.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// RequireModerator returns the user when it exists and holds the moderator
// role. It fails with NotFound for an unknown user and Forbidden otherwise.
func RequireModerator(ctx context.Context, users UserLookup, userID int64) (*domain.User, error) {
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("require moderator: %w", err)
	}

	switch user.Role {
	case domain.RoleModerator:
		return user, nil
	case domain.RoleUser:
		return nil, apperrors.Forbidden("moderator privileges required")
	default:
		return nil, apperrors.Forbidden(fmt.Sprintf("unknown role %q", user.Role))
	}
}

// RequireOwner fails with Forbidden unless actorID wrote the review.
func RequireOwner(review *domain.Review, actorID int64) error {
	if review.UserID != actorID {
		return apperrors.Forbidden("only the review author can modify this review")
	}
	return nil
}

// ForbidSelfModeration fails with Forbidden when the moderator wrote the review.
func ForbidSelfModeration(review *domain.Review, moderatorID int64) error {
	if review.UserID == moderatorID {
		return apperrors.Forbidden("moderators cannot moderate their own reviews")
	}
	return nil
}
