package contract

import (
	"context"

	"vibez-studio/internal/model"
	"vibez-studio/internal/repository/specification"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*model.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
}
